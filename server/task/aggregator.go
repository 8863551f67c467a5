// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/a2akit/a2akit"
	"github.com/a2akit/a2akit/server/event"
)

// ResultAggregator folds one consumer's event stream into a materialized
// result: a Task maintained through TaskManager, or a bare Message for
// chat-only interactions. Every event is persisted before it is forwarded,
// so a concurrent read observes at least the state of the last forwarded
// event.
type ResultAggregator struct {
	taskManager   TaskManager
	logger        *slog.Logger
	eventCallback func(context.Context, event.Event)

	mu      sync.RWMutex
	result  a2akit.MessageResult
	pending <-chan event.Event
}

// ResultAggregatorOption configures a ResultAggregator.
type ResultAggregatorOption func(*ResultAggregator)

// WithAggregatorLogger sets the logger used for aggregation diagnostics.
func WithAggregatorLogger(logger *slog.Logger) ResultAggregatorOption {
	return func(r *ResultAggregator) {
		r.logger = logger
	}
}

// WithEventCallback registers a callback invoked after each folded event, for
// example to dispatch a push notification per update.
func WithEventCallback(callback func(context.Context, event.Event)) ResultAggregatorOption {
	return func(r *ResultAggregator) {
		r.eventCallback = callback
	}
}

// NewResultAggregator creates a new ResultAggregator over the given task
// manager.
func NewResultAggregator(taskManager TaskManager, opts ...ResultAggregatorOption) (*ResultAggregator, error) {
	if taskManager == nil {
		return nil, fmt.Errorf("task manager cannot be nil")
	}

	r := &ResultAggregator{
		taskManager: taskManager,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// CurrentResult returns the most recently materialized Task or Message
// snapshot. Safe to call concurrently with an active consumption loop.
func (r *ResultAggregator) CurrentResult() a2akit.MessageResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result
}

// ConsumeAndEmit drains the consumer and re-emits each event to the returned
// channel after folding it into storage. The channel closes when the stream
// ends. Abandoning the returned channel mid-stream does not corrupt state:
// persistence happens per event, not at the end, but the caller must arrange
// for the channel to be drained so the consumption loop can finish.
func (r *ResultAggregator) ConsumeAndEmit(ctx context.Context, consumer *event.EventConsumer) <-chan event.Event {
	out := make(chan event.Event)

	go func() {
		defer close(out)

		for ev := range consumer.ConsumeAll(ctx) {
			if err := r.process(ctx, ev); err != nil {
				r.logger.ErrorContext(ctx, "failed to fold event",
					"task_id", ev.GetTaskID(), "kind", ev.GetEventKind(), "error", err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// ConsumeAll drains the consumer to the end of the stream and returns the
// final materialized result. A producer error surfaces as the returned error.
func (r *ResultAggregator) ConsumeAll(ctx context.Context, consumer *event.EventConsumer) (a2akit.MessageResult, error) {
	for ev := range consumer.ConsumeAll(ctx) {
		if err := r.process(ctx, ev); err != nil {
			return nil, err
		}
	}
	if err := consumer.Err(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.finalResult(ctx)
}

// ConsumeAndBreakOnInterrupt drains the consumer like ConsumeAll but returns
// early, with interrupted set, as soon as the task settles into a state that
// needs outside help (input-required or auth-required). The stream stays open:
// the caller hands the remainder to ContinueConsuming, typically on a tracked
// background goroutine, so the producer is never stalled.
func (r *ResultAggregator) ConsumeAndBreakOnInterrupt(ctx context.Context, consumer *event.EventConsumer) (a2akit.MessageResult, bool, error) {
	events := consumer.ConsumeAll(ctx)

	for ev := range events {
		if err := r.process(ctx, ev); err != nil {
			return nil, false, err
		}
		if isInterruptEvent(ev) {
			r.mu.Lock()
			r.pending = events
			r.mu.Unlock()
			return r.CurrentResult(), true, nil
		}
	}
	if err := consumer.Err(); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	result, err := r.finalResult(ctx)
	return result, false, err
}

// ContinueConsuming drains the remainder of a stream interrupted by
// ConsumeAndBreakOnInterrupt, folding every remaining event into storage.
// It blocks until the stream ends; run it on a background goroutine.
func (r *ResultAggregator) ContinueConsuming(ctx context.Context) error {
	r.mu.Lock()
	events := r.pending
	r.pending = nil
	r.mu.Unlock()

	if events == nil {
		return nil
	}

	for ev := range events {
		if err := r.process(ctx, ev); err != nil {
			return NewResultAggregatorError("continue_consuming", ev.GetTaskID(), err)
		}
	}
	return nil
}

// TaskManager returns the underlying task manager.
func (r *ResultAggregator) TaskManager() TaskManager {
	return r.taskManager
}

func (r *ResultAggregator) process(ctx context.Context, ev event.Event) error {
	if message, ok := ev.(*a2akit.Message); ok {
		r.setResult(message)
		r.invokeCallback(ctx, ev)
		return nil
	}

	task, err := r.taskManager.SaveTaskEvent(ctx, ev)
	if err != nil {
		return err
	}
	r.setResult(task)
	r.invokeCallback(ctx, ev)
	return nil
}

func (r *ResultAggregator) setResult(result a2akit.MessageResult) {
	r.mu.Lock()
	r.result = result
	r.mu.Unlock()
}

func (r *ResultAggregator) invokeCallback(ctx context.Context, ev event.Event) {
	if r.eventCallback != nil {
		r.eventCallback(ctx, ev)
	}
}

// finalResult returns the materialized result at end of stream, falling back
// to the stored task when no event produced one.
func (r *ResultAggregator) finalResult(ctx context.Context) (a2akit.MessageResult, error) {
	if result := r.CurrentResult(); result != nil {
		return result, nil
	}

	task, err := r.taskManager.GetTask(ctx)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// isInterruptEvent reports whether an event settles the task into a state
// that cannot progress without the caller: waiting for user input or for
// authentication.
func isInterruptEvent(ev event.Event) bool {
	switch e := ev.(type) {
	case *a2akit.TaskStatusUpdateEvent:
		return isInterruptState(e.Status.State)
	case *a2akit.Task:
		return isInterruptState(e.Status.State)
	default:
		return false
	}
}

func isInterruptState(state a2akit.TaskState) bool {
	return state == a2akit.TaskStateInputRequired || state == a2akit.TaskStateAuthRequired
}
