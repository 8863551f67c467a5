// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/a2akit/a2akit"
	"github.com/a2akit/a2akit/server/agent_execution"
	"github.com/a2akit/a2akit/server/event"
	"github.com/a2akit/a2akit/server/task"
)

// scriptedExecutor runs test-provided functions in place of real agent logic.
type scriptedExecutor struct {
	execute func(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error
	cancel  func(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error
}

func (s *scriptedExecutor) Execute(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
	if s.execute == nil {
		return nil
	}
	return s.execute(ctx, reqCtx, queue)
}

func (s *scriptedExecutor) Cancel(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
	if s.cancel == nil {
		return nil
	}
	return s.cancel(ctx, reqCtx, queue)
}

// completeAfterWork publishes a working update followed by a final completed
// update, the canonical two-step producer script.
func completeAfterWork(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
	updater, err := task.NewTaskUpdater(reqCtx.TaskID(), reqCtx.ContextID(), queue)
	if err != nil {
		return err
	}
	if err := updater.StartWork(); err != nil {
		return err
	}
	return updater.Complete(updater.NewAgentMessage([]a2akit.Part{a2akit.NewTextPart("done")}))
}

func newTestHandler(t *testing.T, executor agent_execution.AgentExecutor, opts ...DefaultRequestHandlerOption) (*DefaultRequestHandler, *task.InMemoryTaskStore) {
	t.Helper()

	store := task.NewInMemoryTaskStore()
	h, err := NewDefaultRequestHandler(executor, store, opts...)
	if err != nil {
		t.Fatalf("NewDefaultRequestHandler() error = %v", err)
	}
	return h, store
}

func userSendParams(text string) *a2akit.MessageSendParams {
	return &a2akit.MessageSendParams{
		Message: &a2akit.Message{
			Kind:      a2akit.MessageEventKind,
			MessageID: a2akit.GenerateMessageID(),
			Role:      a2akit.RoleUser,
			Parts:     []a2akit.Part{a2akit.NewTextPart(text)},
		},
	}
}

func storedTask(state a2akit.TaskState) *a2akit.Task {
	return &a2akit.Task{
		ID:        "task-1",
		ContextID: "ctx-1",
		Kind:      a2akit.TaskEventKind,
		Status:    a2akit.NewTaskStatus(state),
	}
}

// waitFor polls until cond holds or the deadline expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.After(3 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestOnMessageSendCompletesTask(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, &scriptedExecutor{execute: completeAfterWork})
	ctx := context.Background()

	result, err := h.OnMessageSend(ctx, userSendParams("do the thing"))
	if err != nil {
		t.Fatalf("OnMessageSend() error = %v", err)
	}

	got, ok := result.(*a2akit.Task)
	if !ok {
		t.Fatalf("result = %T, want *a2akit.Task", result)
	}
	if got.Status.State != a2akit.TaskStateCompleted {
		t.Errorf("Status.State = %q, want %q", got.Status.State, a2akit.TaskStateCompleted)
	}
	if len(got.History) == 0 {
		t.Error("History is empty, want the user message")
	}

	stored, err := store.Get(ctx, got.ID)
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}
	if stored.Status.State != a2akit.TaskStateCompleted {
		t.Errorf("stored Status.State = %q, want %q", stored.Status.State, a2akit.TaskStateCompleted)
	}

	// The producer has been awaited and deregistered.
	waitFor(t, "producer deregistration", func() bool { return !h.Running(got.ID) })
}

func TestOnMessageSendReturnsAgentMessage(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t, &scriptedExecutor{
		execute: func(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
			reply := a2akit.NewAgentMessage(reqCtx.TaskID(), reqCtx.ContextID(),
				[]a2akit.Part{a2akit.NewTextPart("quick answer")})
			return queue.Enqueue(reply)
		},
	})

	result, err := h.OnMessageSend(context.Background(), userSendParams("quick question"))
	if err != nil {
		t.Fatalf("OnMessageSend() error = %v", err)
	}
	if _, ok := result.(*a2akit.Message); !ok {
		t.Fatalf("result = %T, want *a2akit.Message", result)
	}
}

func TestOnMessageSendProducerErrorPropagates(t *testing.T) {
	t.Parallel()

	agentErr := errors.New("model quota exceeded")
	h, _ := newTestHandler(t, &scriptedExecutor{
		execute: func(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
			return agentErr
		},
	})

	_, err := h.OnMessageSend(context.Background(), userSendParams("doomed"))
	if !errors.Is(err, agentErr) {
		t.Fatalf("OnMessageSend() error = %v, want %v", err, agentErr)
	}
	h.Shutdown()
}

func TestOnMessageSendRejectsTerminalTask(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, &scriptedExecutor{execute: completeAfterWork})
	ctx := context.Background()

	terminal := storedTask(a2akit.TaskStateCompleted)
	if err := store.Save(ctx, terminal); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	params := userSendParams("continue please")
	params.Message.TaskID = "task-1"

	_, err := h.OnMessageSend(ctx, params)
	var invalid *a2akit.InvalidParamsError
	if !errors.As(err, &invalid) {
		t.Fatalf("OnMessageSend() error = %v, want InvalidParamsError", err)
	}

	// The stored task was not mutated.
	stored, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}
	if stored.Status.State != a2akit.TaskStateCompleted || len(stored.History) != 0 {
		t.Errorf("stored task mutated: %+v", stored)
	}
}

func TestOnMessageSendUnknownTaskID(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t, &scriptedExecutor{execute: completeAfterWork})

	params := userSendParams("hello")
	params.Message.TaskID = "never-created"

	_, err := h.OnMessageSend(context.Background(), params)
	if !a2akit.IsTaskNotFound(err) {
		t.Fatalf("OnMessageSend() error = %v, want TaskNotFoundError", err)
	}
}

func TestOnMessageSendNonBlockingInterrupt(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, &scriptedExecutor{
		execute: func(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
			updater, err := task.NewTaskUpdater(reqCtx.TaskID(), reqCtx.ContextID(), queue)
			if err != nil {
				return err
			}
			if err := updater.StartWork(); err != nil {
				return err
			}
			if err := updater.RequiresInput(updater.NewAgentMessage(
				[]a2akit.Part{a2akit.NewTextPart("which branch?")})); err != nil {
				return err
			}
			// The rest of the stream arrives after the caller has been
			// answered; the background drain must pick it up.
			return updater.Complete(nil)
		},
	})
	ctx := context.Background()

	params := userSendParams("deploy")
	params.Configuration = &a2akit.MessageSendConfiguration{Blocking: false}

	result, err := h.OnMessageSend(ctx, params)
	if err != nil {
		t.Fatalf("OnMessageSend() error = %v", err)
	}
	interrupted, ok := result.(*a2akit.Task)
	if !ok {
		t.Fatalf("result = %T, want *a2akit.Task", result)
	}
	if interrupted.Status.State != a2akit.TaskStateInputRequired {
		t.Errorf("Status.State = %q, want %q", interrupted.Status.State, a2akit.TaskStateInputRequired)
	}

	// The background drain folds the remainder of the stream.
	h.Shutdown()
	stored, err := store.Get(ctx, interrupted.ID)
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}
	if stored.Status.State != a2akit.TaskStateCompleted {
		t.Errorf("stored Status.State = %q, want %q", stored.Status.State, a2akit.TaskStateCompleted)
	}
	if h.Running(interrupted.ID) {
		t.Error("producer still registered after background drain")
	}
}

func TestOnMessageSendStreamYieldsAllEvents(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, &scriptedExecutor{execute: completeAfterWork})
	ctx := context.Background()

	stream, err := h.OnMessageSendStream(ctx, userSendParams("do the thing"))
	if err != nil {
		t.Fatalf("OnMessageSendStream() error = %v", err)
	}

	var states []a2akit.TaskState
	var taskID, contextID string
	for ev := range stream {
		update, ok := ev.(*a2akit.TaskStatusUpdateEvent)
		if !ok {
			t.Fatalf("event = %T, want *a2akit.TaskStatusUpdateEvent", ev)
		}
		states = append(states, update.Status.State)
		taskID = update.TaskID
		if contextID == "" {
			contextID = ev.GetContextID()
		} else if ev.GetContextID() != contextID {
			t.Errorf("GetContextID() = %q, want %q for every event of one execution", ev.GetContextID(), contextID)
		}
	}

	want := []a2akit.TaskState{a2akit.TaskStateWorking, a2akit.TaskStateCompleted}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v, want %v", states, want)
		}
	}

	// Streaming and non-streaming sends agree on the final persisted state.
	stored, err := store.Get(ctx, taskID)
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}
	if stored.Status.State != a2akit.TaskStateCompleted {
		t.Errorf("stored Status.State = %q, want %q", stored.Status.State, a2akit.TaskStateCompleted)
	}
	waitFor(t, "producer deregistration", func() bool { return !h.Running(taskID) })
}

func TestStreamingAndBlockingSendAgree(t *testing.T) {
	t.Parallel()

	script := func(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
		updater, err := task.NewTaskUpdater(reqCtx.TaskID(), reqCtx.ContextID(), queue)
		if err != nil {
			return err
		}
		if err := updater.StartWork(); err != nil {
			return err
		}
		if err := updater.AddArtifact([]a2akit.Part{a2akit.NewTextPart("report body")}, "art-1", "report"); err != nil {
			return err
		}
		return updater.Complete(nil)
	}
	ctx := context.Background()

	blockingHandler, blockingStore := newTestHandler(t, &scriptedExecutor{execute: script})
	result, err := blockingHandler.OnMessageSend(ctx, userSendParams("report please"))
	if err != nil {
		t.Fatalf("OnMessageSend() error = %v", err)
	}
	blockingTask := result.(*a2akit.Task)

	streamHandler, streamStore := newTestHandler(t, &scriptedExecutor{execute: script})
	stream, err := streamHandler.OnMessageSendStream(ctx, userSendParams("report please"))
	if err != nil {
		t.Fatalf("OnMessageSendStream() error = %v", err)
	}
	var streamTaskID string
	for ev := range stream {
		streamTaskID = ev.GetTaskID()
	}

	fromBlocking, err := blockingStore.Get(ctx, blockingTask.ID)
	if err != nil {
		t.Fatalf("blocking store.Get() error = %v", err)
	}
	fromStream, err := streamStore.Get(ctx, streamTaskID)
	if err != nil {
		t.Fatalf("stream store.Get() error = %v", err)
	}

	if fromBlocking.Status.State != fromStream.Status.State {
		t.Errorf("final states disagree: blocking %q, stream %q",
			fromBlocking.Status.State, fromStream.Status.State)
	}
	if len(fromBlocking.Artifacts) != len(fromStream.Artifacts) {
		t.Errorf("artifact counts disagree: blocking %d, stream %d",
			len(fromBlocking.Artifacts), len(fromStream.Artifacts))
	}
}

func TestOnCancelTask(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	h, _ := newTestHandler(t, &scriptedExecutor{
		execute: func(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
			updater, err := task.NewTaskUpdater(reqCtx.TaskID(), reqCtx.ContextID(), queue)
			if err != nil {
				return err
			}
			if err := updater.StartWork(); err != nil {
				return err
			}
			close(started)
			<-ctx.Done()
			return nil
		},
		cancel: func(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
			ev := a2akit.NewStatusUpdateEvent(reqCtx.TaskID(), reqCtx.ContextID(), a2akit.TaskStateCanceled, true)
			return queue.Enqueue(ev)
		},
	})
	ctx := context.Background()

	stream, err := h.OnMessageSendStream(ctx, userSendParams("long job"))
	if err != nil {
		t.Fatalf("OnMessageSendStream() error = %v", err)
	}

	// Events are persisted before they are emitted, so once the working
	// update arrives the task record exists.
	first := <-stream
	taskID := first.GetTaskID()
	<-started

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range stream {
		}
	}()

	canceled, err := h.OnCancelTask(ctx, &a2akit.TaskIDParams{ID: taskID})
	if err != nil {
		t.Fatalf("OnCancelTask() error = %v", err)
	}
	if canceled.Status.State != a2akit.TaskStateCanceled {
		t.Errorf("Status.State = %q, want %q", canceled.Status.State, a2akit.TaskStateCanceled)
	}

	<-drained
	waitFor(t, "producer deregistration", func() bool { return !h.Running(taskID) })

	// The task is terminal now, so a second cancel is rejected.
	_, err = h.OnCancelTask(ctx, &a2akit.TaskIDParams{ID: taskID})
	var notCancelable *a2akit.TaskNotCancelableError
	if !errors.As(err, &notCancelable) {
		t.Fatalf("OnCancelTask() second call error = %v, want TaskNotCancelableError", err)
	}
}

func TestOnCancelTaskRequiresLiveQueue(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, &scriptedExecutor{})
	ctx := context.Background()

	if _, err := h.OnCancelTask(ctx, &a2akit.TaskIDParams{ID: "missing"}); !a2akit.IsTaskNotFound(err) {
		t.Fatalf("OnCancelTask(missing) error = %v, want TaskNotFoundError", err)
	}

	// A stored non-terminal task with no active producer is not cancelable.
	if err := store.Save(ctx, storedTask(a2akit.TaskStateWorking)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := h.OnCancelTask(ctx, &a2akit.TaskIDParams{ID: "task-1"}); !a2akit.IsTaskNotFound(err) {
		t.Fatalf("OnCancelTask(no queue) error = %v, want TaskNotFoundError", err)
	}
}

func TestOnResubscribeRequiresLiveQueue(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, &scriptedExecutor{})
	ctx := context.Background()

	if _, err := h.OnResubscribeToTask(ctx, &a2akit.TaskIDParams{ID: "missing"}); !a2akit.IsTaskNotFound(err) {
		t.Fatalf("OnResubscribeToTask(missing) error = %v, want TaskNotFoundError", err)
	}

	// The task record exists and is non-terminal, but no producer queue is
	// active.
	if err := store.Save(ctx, storedTask(a2akit.TaskStateWorking)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := h.OnResubscribeToTask(ctx, &a2akit.TaskIDParams{ID: "task-1"}); !a2akit.IsTaskNotFound(err) {
		t.Fatalf("OnResubscribeToTask(no queue) error = %v, want TaskNotFoundError", err)
	}
}

func TestOnResubscribeRejectsTerminalTask(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, &scriptedExecutor{})
	ctx := context.Background()

	if err := store.Save(ctx, storedTask(a2akit.TaskStateCanceled)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	_, err := h.OnResubscribeToTask(ctx, &a2akit.TaskIDParams{ID: "task-1"})
	var invalid *a2akit.InvalidParamsError
	if !errors.As(err, &invalid) {
		t.Fatalf("OnResubscribeToTask(terminal) error = %v, want InvalidParamsError", err)
	}
}

func TestConcurrentStreamAndResubscribeObserveSameOrder(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	h, _ := newTestHandler(t, &scriptedExecutor{
		execute: func(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
			updater, err := task.NewTaskUpdater(reqCtx.TaskID(), reqCtx.ContextID(), queue)
			if err != nil {
				return err
			}
			if err := updater.StartWork(); err != nil {
				return err
			}
			<-release
			if err := updater.AddArtifact([]a2akit.Part{a2akit.NewTextPart("partial")}, "art-1", ""); err != nil {
				return err
			}
			return updater.Complete(nil)
		},
	})
	ctx := context.Background()

	original, err := h.OnMessageSendStream(ctx, userSendParams("stream it"))
	if err != nil {
		t.Fatalf("OnMessageSendStream() error = %v", err)
	}

	// Read the first event so the task ID is known and the tap point is
	// mid-stream.
	first := <-original
	taskID := first.GetTaskID()

	resubscribed, err := h.OnResubscribeToTask(ctx, &a2akit.TaskIDParams{ID: taskID})
	if err != nil {
		t.Fatalf("OnResubscribeToTask() error = %v", err)
	}

	close(release)

	var fromOriginal, fromResubscribed []a2akit.EventKind
	for ev := range original {
		fromOriginal = append(fromOriginal, ev.GetEventKind())
	}
	for ev := range resubscribed {
		fromResubscribed = append(fromResubscribed, ev.GetEventKind())
	}

	// Both observe every event emitted after the tap point, in order.
	if len(fromOriginal) != len(fromResubscribed) {
		t.Fatalf("event counts differ: original %v, resubscribed %v", fromOriginal, fromResubscribed)
	}
	for i := range fromOriginal {
		if fromOriginal[i] != fromResubscribed[i] {
			t.Fatalf("event order differs: original %v, resubscribed %v", fromOriginal, fromResubscribed)
		}
	}
}

func TestOnGetTask(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, &scriptedExecutor{})
	ctx := context.Background()

	long := storedTask(a2akit.TaskStateWorking)
	for range 3 {
		long.History = append(long.History, &a2akit.Message{
			Kind:      a2akit.MessageEventKind,
			MessageID: a2akit.GenerateMessageID(),
			Role:      a2akit.RoleUser,
			TaskID:    long.ID,
			Parts:     []a2akit.Part{a2akit.NewTextPart("turn")},
		})
	}
	if err := store.Save(ctx, long); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	full, err := h.OnGetTask(ctx, &a2akit.TaskQueryParams{ID: "task-1"})
	if err != nil {
		t.Fatalf("OnGetTask() error = %v", err)
	}
	if len(full.History) != 3 {
		t.Errorf("len(History) = %d, want 3", len(full.History))
	}

	truncated, err := h.OnGetTask(ctx, &a2akit.TaskQueryParams{ID: "task-1", HistoryLength: 1})
	if err != nil {
		t.Fatalf("OnGetTask() error = %v", err)
	}
	if len(truncated.History) != 1 {
		t.Errorf("truncated len(History) = %d, want 1", len(truncated.History))
	}

	if _, err := h.OnGetTask(ctx, &a2akit.TaskQueryParams{ID: "missing"}); !a2akit.IsTaskNotFound(err) {
		t.Fatalf("OnGetTask(missing) error = %v, want TaskNotFoundError", err)
	}
}

func TestPushConfigOperationsRequireStore(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, &scriptedExecutor{})
	ctx := context.Background()

	if err := store.Save(ctx, storedTask(a2akit.TaskStateWorking)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	config := &a2akit.PushNotificationConfig{URL: "https://callback.example"}
	var unsupported *a2akit.UnsupportedOperationError

	_, err := h.OnSetTaskPushNotificationConfig(ctx, &a2akit.TaskPushNotificationConfig{
		TaskID: "task-1", PushNotificationConfig: config,
	})
	if !errors.As(err, &unsupported) {
		t.Errorf("set error = %v, want UnsupportedOperationError", err)
	}

	_, err = h.OnGetTaskPushNotificationConfig(ctx, &a2akit.GetTaskPushNotificationConfigParams{ID: "task-1"})
	if !errors.As(err, &unsupported) {
		t.Errorf("get error = %v, want UnsupportedOperationError", err)
	}

	_, err = h.OnListTaskPushNotificationConfig(ctx, &a2akit.ListTaskPushNotificationConfigParams{ID: "task-1"})
	if !errors.As(err, &unsupported) {
		t.Errorf("list error = %v, want UnsupportedOperationError", err)
	}

	err = h.OnDeleteTaskPushNotificationConfig(ctx, &a2akit.DeleteTaskPushNotificationConfigParams{
		ID: "task-1", PushNotificationConfigID: "cfg-1",
	})
	if !errors.As(err, &unsupported) {
		t.Errorf("delete error = %v, want UnsupportedOperationError", err)
	}
}

func TestPushConfigLifecycle(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, &scriptedExecutor{},
		WithPushConfigStore(task.NewInMemoryPushNotificationConfigStore()))
	ctx := context.Background()

	if err := store.Save(ctx, storedTask(a2akit.TaskStateWorking)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	set, err := h.OnSetTaskPushNotificationConfig(ctx, &a2akit.TaskPushNotificationConfig{
		TaskID:                 "task-1",
		PushNotificationConfig: &a2akit.PushNotificationConfig{URL: "https://callback.example"},
	})
	if err != nil {
		t.Fatalf("set error = %v", err)
	}
	if set.PushNotificationConfig.ID == "" {
		t.Fatal("set did not mint a config ID")
	}

	got, err := h.OnGetTaskPushNotificationConfig(ctx, &a2akit.GetTaskPushNotificationConfigParams{
		ID:                       "task-1",
		PushNotificationConfigID: set.PushNotificationConfig.ID,
	})
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if got.PushNotificationConfig.URL != "https://callback.example" {
		t.Errorf("URL = %q, want registered URL", got.PushNotificationConfig.URL)
	}

	list, err := h.OnListTaskPushNotificationConfig(ctx, &a2akit.ListTaskPushNotificationConfigParams{ID: "task-1"})
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("list returned %d configs, want 1", len(list))
	}

	if err := h.OnDeleteTaskPushNotificationConfig(ctx, &a2akit.DeleteTaskPushNotificationConfigParams{
		ID:                       "task-1",
		PushNotificationConfigID: set.PushNotificationConfig.ID,
	}); err != nil {
		t.Fatalf("delete error = %v", err)
	}

	list, err = h.OnListTaskPushNotificationConfig(ctx, &a2akit.ListTaskPushNotificationConfigParams{ID: "task-1"})
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("list after delete returned %d configs, want 0", len(list))
	}

	// Push operations on unknown tasks fail up front.
	_, err = h.OnSetTaskPushNotificationConfig(ctx, &a2akit.TaskPushNotificationConfig{
		TaskID:                 "missing",
		PushNotificationConfig: &a2akit.PushNotificationConfig{URL: "https://callback.example"},
	})
	if !a2akit.IsTaskNotFound(err) {
		t.Errorf("set on missing task error = %v, want TaskNotFoundError", err)
	}
}

func TestBlockingSendDisconnectLosesNoEvents(t *testing.T) {
	t.Parallel()

	taskIDs := make(chan string, 1)
	release := make(chan struct{})
	h, store := newTestHandler(t, &scriptedExecutor{
		execute: func(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
			updater, err := task.NewTaskUpdater(reqCtx.TaskID(), reqCtx.ContextID(), queue)
			if err != nil {
				return err
			}
			if err := updater.StartWork(); err != nil {
				return err
			}
			taskIDs <- reqCtx.TaskID()
			<-release
			if err := updater.AddArtifact([]a2akit.Part{a2akit.NewTextPart("late result")}, "art-1", ""); err != nil {
				return err
			}
			return updater.Complete(nil)
		},
	})

	callerCtx, disconnect := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := h.OnMessageSend(callerCtx, userSendParams("long job"))
		errs <- err
	}()

	taskID := <-taskIDs
	disconnect()
	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Fatalf("OnMessageSend() after disconnect error = %v, want context.Canceled", err)
	}
	close(release)

	// Events emitted after the disconnect are still folded and persisted,
	// including any event in flight when the caller went away.
	h.Shutdown()
	stored, err := store.Get(context.Background(), taskID)
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}
	if stored.Status.State != a2akit.TaskStateCompleted {
		t.Errorf("stored Status.State = %q, want %q", stored.Status.State, a2akit.TaskStateCompleted)
	}
	if len(stored.Artifacts) != 1 {
		t.Errorf("len(Artifacts) = %d, want 1", len(stored.Artifacts))
	}
	if h.Running(taskID) {
		t.Error("producer still registered after background drain")
	}
}

func TestStreamDisconnectKeepsProducerAlive(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	h, store := newTestHandler(t, &scriptedExecutor{
		execute: func(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
			updater, err := task.NewTaskUpdater(reqCtx.TaskID(), reqCtx.ContextID(), queue)
			if err != nil {
				return err
			}
			if err := updater.StartWork(); err != nil {
				return err
			}
			<-release
			return updater.Complete(nil)
		},
	})

	callerCtx, disconnect := context.WithCancel(context.Background())
	stream, err := h.OnMessageSendStream(callerCtx, userSendParams("long job"))
	if err != nil {
		t.Fatalf("OnMessageSendStream() error = %v", err)
	}

	first := <-stream
	taskID := first.GetTaskID()

	// The caller disconnects mid-stream; the producer keeps going and its
	// remaining output is still persisted.
	disconnect()
	close(release)

	waitFor(t, "background drain to finish", func() bool {
		if h.Running(taskID) || h.background.Active(taskID) > 0 {
			return false
		}
		stored, err := store.Get(context.Background(), taskID)
		return err == nil && stored.Status.State == a2akit.TaskStateCompleted
	})
}
