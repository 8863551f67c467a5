// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"
	"sync"

	"github.com/a2akit/a2akit"
	"github.com/a2akit/a2akit/server/event"
)

// TaskUpdater lets agent executors publish task events without constructing
// them by hand. It enforces that nothing follows a terminal update.
type TaskUpdater struct {
	taskID    string
	contextID string
	queue     *event.EventQueue

	mu       sync.Mutex
	terminal bool
}

// NewTaskUpdater creates a TaskUpdater publishing into the given queue.
func NewTaskUpdater(taskID, contextID string, queue *event.EventQueue) (*TaskUpdater, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}
	if contextID == "" {
		return nil, fmt.Errorf("context ID cannot be empty")
	}
	if queue == nil {
		return nil, fmt.Errorf("event queue cannot be nil")
	}

	return &TaskUpdater{
		taskID:    taskID,
		contextID: contextID,
		queue:     queue,
	}, nil
}

// UpdateStatus publishes a status update with an optional status message.
// A final update, or a terminal state, seals the updater.
func (u *TaskUpdater) UpdateStatus(state a2akit.TaskState, message *a2akit.Message, final bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.terminal {
		return NewTaskNotUpdatableError(u.taskID, state)
	}
	if final || a2akit.IsTerminalState(state) {
		u.terminal = true
	}

	ev := a2akit.NewStatusUpdateEvent(u.taskID, u.contextID, state, u.terminal)
	if message != nil {
		message.TaskID = u.taskID
		message.ContextID = u.contextID
		ev.Status.Message = message
	}
	return u.queue.Enqueue(ev)
}

// AddArtifact publishes an artifact update. A missing artifact ID is
// generated.
func (u *TaskUpdater) AddArtifact(parts []a2akit.Part, artifactID, name string) error {
	if artifactID == "" {
		artifactID = a2akit.GenerateArtifactID()
	}
	return u.publishArtifact(&a2akit.Artifact{
		ArtifactID: artifactID,
		Name:       name,
		Parts:      parts,
	}, false, false)
}

// AppendArtifactChunk publishes a chunk extending an existing artifact.
func (u *TaskUpdater) AppendArtifactChunk(artifactID string, parts []a2akit.Part, lastChunk bool) error {
	if artifactID == "" {
		return fmt.Errorf("artifact ID cannot be empty for a chunk")
	}
	return u.publishArtifact(&a2akit.Artifact{
		ArtifactID: artifactID,
		Parts:      parts,
	}, true, lastChunk)
}

func (u *TaskUpdater) publishArtifact(artifact *a2akit.Artifact, appendChunk, lastChunk bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.terminal {
		return NewTaskNotUpdatableError(u.taskID, a2akit.TaskStateUnknown)
	}
	if err := artifact.Validate(); err != nil {
		return NewTaskValidationError(u.taskID, err)
	}

	ev := a2akit.NewArtifactUpdateEvent(u.taskID, u.contextID, artifact)
	ev.Append = appendChunk
	ev.LastChunk = lastChunk
	return u.queue.Enqueue(ev)
}

// NewAgentMessage builds an agent message bound to this updater's task, for
// use as a status message or a standalone reply.
func (u *TaskUpdater) NewAgentMessage(parts []a2akit.Part) *a2akit.Message {
	return a2akit.NewAgentMessage(u.taskID, u.contextID, parts)
}

// Submit marks the task as submitted.
func (u *TaskUpdater) Submit() error {
	return u.UpdateStatus(a2akit.TaskStateSubmitted, nil, false)
}

// StartWork marks the task as working.
func (u *TaskUpdater) StartWork() error {
	return u.UpdateStatus(a2akit.TaskStateWorking, nil, false)
}

// Complete marks the task as completed with an optional closing message.
func (u *TaskUpdater) Complete(message *a2akit.Message) error {
	return u.UpdateStatus(a2akit.TaskStateCompleted, message, true)
}

// Failed marks the task as failed with an optional explanation.
func (u *TaskUpdater) Failed(message *a2akit.Message) error {
	return u.UpdateStatus(a2akit.TaskStateFailed, message, true)
}

// Reject marks the task as rejected.
func (u *TaskUpdater) Reject(message *a2akit.Message) error {
	return u.UpdateStatus(a2akit.TaskStateRejected, message, true)
}

// Cancel marks the task as canceled.
func (u *TaskUpdater) Cancel(message *a2akit.Message) error {
	return u.UpdateStatus(a2akit.TaskStateCanceled, message, true)
}

// RequiresInput marks the task as waiting for user input.
func (u *TaskUpdater) RequiresInput(message *a2akit.Message) error {
	return u.UpdateStatus(a2akit.TaskStateInputRequired, message, false)
}

// RequiresAuth marks the task as waiting for authentication.
func (u *TaskUpdater) RequiresAuth(message *a2akit.Message) error {
	return u.UpdateStatus(a2akit.TaskStateAuthRequired, message, false)
}

// TaskID returns the task ID this updater publishes for.
func (u *TaskUpdater) TaskID() string {
	return u.taskID
}

// ContextID returns the context ID this updater publishes for.
func (u *TaskUpdater) ContextID() string {
	return u.contextID
}

// IsTerminal reports whether a final update has been published.
func (u *TaskUpdater) IsTerminal() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.terminal
}
