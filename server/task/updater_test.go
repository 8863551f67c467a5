// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"testing"

	"github.com/a2akit/a2akit"
	"github.com/a2akit/a2akit/server/event"
)

func newTestUpdater(t *testing.T) (*TaskUpdater, *event.EventQueue) {
	t.Helper()

	queue, err := event.NewEventQueue(0)
	if err != nil {
		t.Fatalf("NewEventQueue() error = %v", err)
	}
	updater, err := NewTaskUpdater("task-1", "ctx-1", queue)
	if err != nil {
		t.Fatalf("NewTaskUpdater() error = %v", err)
	}
	return updater, queue
}

func dequeueEvent(t *testing.T, queue *event.EventQueue) event.Event {
	t.Helper()

	ev, err := queue.Dequeue(context.Background(), true)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	return ev
}

func TestNewTaskUpdater(t *testing.T) {
	t.Parallel()

	queue, err := event.NewEventQueue(0)
	if err != nil {
		t.Fatalf("NewEventQueue() error = %v", err)
	}

	tests := map[string]struct {
		taskID    string
		contextID string
		queue     *event.EventQueue
		wantErr   bool
	}{
		"success":                {taskID: "task-1", contextID: "ctx-1", queue: queue},
		"error: empty task ID":   {contextID: "ctx-1", queue: queue, wantErr: true},
		"error: empty context":   {taskID: "task-1", queue: queue, wantErr: true},
		"error: nil event queue": {taskID: "task-1", contextID: "ctx-1", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := NewTaskUpdater(tt.taskID, tt.contextID, tt.queue)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTaskUpdater() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaskUpdaterStatusLifecycle(t *testing.T) {
	t.Parallel()

	updater, queue := newTestUpdater(t)

	if err := updater.StartWork(); err != nil {
		t.Fatalf("StartWork() error = %v", err)
	}
	ev := dequeueEvent(t, queue).(*a2akit.TaskStatusUpdateEvent)
	if ev.Status.State != a2akit.TaskStateWorking {
		t.Errorf("Status.State = %q, want %q", ev.Status.State, a2akit.TaskStateWorking)
	}
	if ev.Final {
		t.Error("Final = true for a working update")
	}
	if ev.TaskID != "task-1" || ev.ContextID != "ctx-1" {
		t.Errorf("IDs = (%q, %q), want (task-1, ctx-1)", ev.TaskID, ev.ContextID)
	}

	message := updater.NewAgentMessage([]a2akit.Part{a2akit.NewTextPart("all done")})
	if err := updater.Complete(message); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	ev = dequeueEvent(t, queue).(*a2akit.TaskStatusUpdateEvent)
	if ev.Status.State != a2akit.TaskStateCompleted {
		t.Errorf("Status.State = %q, want %q", ev.Status.State, a2akit.TaskStateCompleted)
	}
	if !ev.Final {
		t.Error("Final = false for a completing update")
	}
	if ev.Status.Message == nil || ev.Status.Message.TaskID != "task-1" {
		t.Errorf("Status.Message = %+v, want message bound to task-1", ev.Status.Message)
	}
	if !updater.IsTerminal() {
		t.Error("IsTerminal() = false after Complete")
	}
}

func TestTaskUpdaterSealedAfterTerminal(t *testing.T) {
	t.Parallel()

	updater, _ := newTestUpdater(t)

	if err := updater.Complete(nil); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	var notUpdatable TaskNotUpdatableError
	if err := updater.StartWork(); !errors.As(err, &notUpdatable) {
		t.Errorf("StartWork() after Complete error = %v, want TaskNotUpdatableError", err)
	}
	if err := updater.AddArtifact([]a2akit.Part{a2akit.NewTextPart("late")}, "", ""); !errors.As(err, &notUpdatable) {
		t.Errorf("AddArtifact() after Complete error = %v, want TaskNotUpdatableError", err)
	}
}

func TestTaskUpdaterArtifacts(t *testing.T) {
	t.Parallel()

	updater, queue := newTestUpdater(t)

	if err := updater.AddArtifact([]a2akit.Part{a2akit.NewTextPart("chunk one ")}, "art-1", "report"); err != nil {
		t.Fatalf("AddArtifact() error = %v", err)
	}
	ev := dequeueEvent(t, queue).(*a2akit.TaskArtifactUpdateEvent)
	if ev.Artifact.ArtifactID != "art-1" || ev.Artifact.Name != "report" {
		t.Errorf("Artifact = %+v, want art-1/report", ev.Artifact)
	}
	if ev.Append || ev.LastChunk {
		t.Errorf("Append/LastChunk = %v/%v, want false/false", ev.Append, ev.LastChunk)
	}

	if err := updater.AppendArtifactChunk("art-1", []a2akit.Part{a2akit.NewTextPart("chunk two")}, true); err != nil {
		t.Fatalf("AppendArtifactChunk() error = %v", err)
	}
	ev = dequeueEvent(t, queue).(*a2akit.TaskArtifactUpdateEvent)
	if !ev.Append || !ev.LastChunk {
		t.Errorf("Append/LastChunk = %v/%v, want true/true", ev.Append, ev.LastChunk)
	}

	// A missing artifact ID is minted on add, required on append.
	if err := updater.AddArtifact([]a2akit.Part{a2akit.NewTextPart("x")}, "", ""); err != nil {
		t.Fatalf("AddArtifact() error = %v", err)
	}
	ev = dequeueEvent(t, queue).(*a2akit.TaskArtifactUpdateEvent)
	if ev.Artifact.ArtifactID == "" {
		t.Error("ArtifactID empty, want minted ID")
	}
	if err := updater.AppendArtifactChunk("", []a2akit.Part{a2akit.NewTextPart("y")}, false); err == nil {
		t.Error("AppendArtifactChunk() with empty ID error = nil, want error")
	}
}

func TestTaskUpdaterRejectsEmptyArtifact(t *testing.T) {
	t.Parallel()

	updater, _ := newTestUpdater(t)

	err := updater.AddArtifact(nil, "art-1", "")
	var validation TaskValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("AddArtifact(nil parts) error = %v, want TaskValidationError", err)
	}
}
