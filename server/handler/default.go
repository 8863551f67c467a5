// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/a2akit/a2akit"
	"github.com/a2akit/a2akit/server/agent_execution"
	"github.com/a2akit/a2akit/server/event"
	"github.com/a2akit/a2akit/server/task"
)

// DefaultRequestHandler is the default RequestHandler implementation. It owns
// the producer lifecycle: one agent execution per send, tracked in a registry
// for cancellation, with cleanup guaranteed to run exactly once per execution
// regardless of success, failure, or caller disconnect.
type DefaultRequestHandler struct {
	executor        agent_execution.AgentExecutor
	taskStore       task.TaskStore
	queueManager    event.QueueManager
	pushConfigStore task.PushNotificationConfigStore
	pushSender      task.PushNotificationSender
	contextBuilder  agent_execution.RequestContextBuilder
	logger          *slog.Logger
	tracer          trace.Tracer
	background      *backgroundTasks

	mu            sync.Mutex
	runningAgents map[string]*agentRun
}

var _ RequestHandler = (*DefaultRequestHandler)(nil)

// agentRun is one in-flight producer: its cancel function for explicit task
// cancellation and a channel closed when the producer goroutine exits.
type agentRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// DefaultRequestHandlerOption configures a DefaultRequestHandler.
type DefaultRequestHandlerOption func(*DefaultRequestHandler)

// WithQueueManager sets the queue manager coordinating event streams.
func WithQueueManager(manager event.QueueManager) DefaultRequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.queueManager = manager
	}
}

// WithPushConfigStore enables the push notification config operations.
func WithPushConfigStore(store task.PushNotificationConfigStore) DefaultRequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.pushConfigStore = store
	}
}

// WithPushSender sets the sender used to dispatch push notifications as task
// state changes.
func WithPushSender(sender task.PushNotificationSender) DefaultRequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.pushSender = sender
	}
}

// WithContextBuilder sets the builder assembling executor request contexts.
func WithContextBuilder(builder agent_execution.RequestContextBuilder) DefaultRequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.contextBuilder = builder
	}
}

// WithLogger sets the handler's logger.
func WithLogger(logger *slog.Logger) DefaultRequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.logger = logger
	}
}

// NewDefaultRequestHandler creates a DefaultRequestHandler around an executor
// and a task store.
func NewDefaultRequestHandler(executor agent_execution.AgentExecutor, store task.TaskStore, opts ...DefaultRequestHandlerOption) (*DefaultRequestHandler, error) {
	if executor == nil {
		return nil, fmt.Errorf("agent executor cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}

	h := &DefaultRequestHandler{
		executor:      executor,
		taskStore:     store,
		logger:        slog.Default(),
		tracer:        otel.GetTracerProvider().Tracer("github.com/a2akit/a2akit/server/handler"),
		runningAgents: make(map[string]*agentRun),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.queueManager == nil {
		h.queueManager = event.NewInMemoryQueueManager(0)
	}
	if h.contextBuilder == nil {
		h.contextBuilder = agent_execution.NewSimpleRequestContextBuilder(store, true)
	}
	h.background = newBackgroundTasks(h.logger)

	return h, nil
}

// execution carries the moving parts of one send call.
type execution struct {
	taskID     string
	contextID  string
	manager    task.TaskManager
	aggregator *task.ResultAggregator
	consumer   *event.EventConsumer
	cleanup    func()
}

// setupExecution resolves the request against storage, registers an optional
// push config, arranges the queue, and launches the producer when this call
// is the first one for the task.
func (h *DefaultRequestHandler) setupExecution(ctx context.Context, params *a2akit.MessageSendParams) (*execution, error) {
	if err := params.Validate(); err != nil {
		return nil, a2akit.NewInvalidParamsError(err)
	}

	message := params.Message
	reqCtx, err := h.contextBuilder.Build(ctx, params, message.TaskID, message.ContextID, nil)
	if err != nil {
		return nil, err
	}
	if current := reqCtx.Task(); current != nil && a2akit.IsTerminalState(current.Status.State) {
		return nil, a2akit.NewInvalidParamsError(
			fmt.Errorf("task %s cannot be continued from terminal state %s", current.ID, current.Status.State))
	}

	taskID := reqCtx.TaskID()
	contextID := reqCtx.ContextID()

	manager, err := task.NewTaskManager(task.TaskManagerConfig{
		TaskID:         taskID,
		ContextID:      contextID,
		Store:          h.taskStore,
		InitialMessage: message,
		Logger:         h.logger,
	})
	if err != nil {
		return nil, a2akit.NewInternalError("failed to create task manager", err)
	}

	// Persist the continuation turn before the producer can observe the task.
	if reqCtx.Task() != nil {
		if _, err := manager.UpdateWithMessage(ctx, message); err != nil {
			return nil, err
		}
	}

	if params.Configuration != nil && params.Configuration.PushNotificationConfig != nil {
		if h.pushConfigStore == nil {
			h.logger.WarnContext(ctx, "push notification config ignored, no store configured",
				"task_id", taskID)
		} else if _, err := h.pushConfigStore.SetInfo(ctx, taskID, params.Configuration.PushNotificationConfig); err != nil {
			return nil, err
		}
	}

	queue, created, err := h.queueManager.CreateOrTap(taskID)
	if err != nil {
		return nil, a2akit.NewInternalError("failed to create event queue", err)
	}
	consumer := event.NewEventConsumer(queue)

	aggregator, err := task.NewResultAggregator(manager, h.aggregatorOptions(manager)...)
	if err != nil {
		return nil, a2akit.NewInternalError("failed to create result aggregator", err)
	}

	exec := &execution{
		taskID:     taskID,
		contextID:  contextID,
		manager:    manager,
		aggregator: aggregator,
		consumer:   consumer,
	}

	var run *agentRun
	if created {
		run = h.launchProducer(ctx, reqCtx, queue, consumer)
	}

	var once sync.Once
	exec.cleanup = func() {
		once.Do(func() {
			// A tap of an existing execution owns neither the producer
			// nor the queue.
			if run == nil {
				return
			}
			<-run.done
			if err := h.queueManager.Close(taskID); err != nil {
				h.logger.WarnContext(ctx, "failed to close event queue",
					"task_id", taskID, "error", err)
			}
			h.mu.Lock()
			delete(h.runningAgents, taskID)
			h.mu.Unlock()
		})
	}
	return exec, nil
}

// launchProducer starts the agent execution goroutine. The producer runs
// detached from the request context so a caller disconnect never cancels it;
// only OnCancelTask does.
func (h *DefaultRequestHandler) launchProducer(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue, consumer *event.EventConsumer) *agentRun {
	execCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := &agentRun{cancel: cancel, done: make(chan struct{})}

	h.mu.Lock()
	h.runningAgents[reqCtx.TaskID()] = run
	h.mu.Unlock()

	go func() {
		defer close(run.done)
		defer cancel()

		if err := h.executor.Execute(execCtx, reqCtx, queue); err != nil {
			h.logger.ErrorContext(execCtx, "agent execution failed",
				"task_id", reqCtx.TaskID(), "error", err)
			consumer.SetProducerError(err)
		}
		// End of production: readers drain the buffer, then stop.
		if err := queue.Close(); err != nil {
			h.logger.DebugContext(execCtx, "event queue already closed",
				"task_id", reqCtx.TaskID(), "error", err)
		}
	}()
	return run
}

func (h *DefaultRequestHandler) aggregatorOptions(manager task.TaskManager) []task.ResultAggregatorOption {
	opts := []task.ResultAggregatorOption{task.WithAggregatorLogger(h.logger)}
	if h.pushSender == nil {
		return opts
	}
	return append(opts, task.WithEventCallback(func(ctx context.Context, ev event.Event) {
		if ev.GetEventKind() == a2akit.MessageEventKind {
			return
		}
		snapshot, err := manager.GetTask(ctx)
		if err != nil {
			return
		}
		if err := h.pushSender.SendNotification(ctx, snapshot); err != nil {
			h.logger.WarnContext(ctx, "push notification dispatch failed",
				"task_id", snapshot.ID, "error", err)
		}
	}))
}

// OnMessageSend handles a non-streaming send.
func (h *DefaultRequestHandler) OnMessageSend(ctx context.Context, params *a2akit.MessageSendParams) (a2akit.MessageResult, error) {
	ctx, span := h.tracer.Start(ctx, "a2akit.handler.OnMessageSend")
	defer span.End()

	exec, err := h.setupExecution(ctx, params)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("a2a.task_id", exec.taskID))

	if params.Blocking() {
		return h.consumeBlocking(ctx, params, exec)
	}
	return h.consumeNonBlocking(ctx, params, exec)
}

func (h *DefaultRequestHandler) consumeBlocking(ctx context.Context, params *a2akit.MessageSendParams, exec *execution) (a2akit.MessageResult, error) {
	type outcome struct {
		result a2akit.MessageResult
		err    error
	}

	// Consumption runs detached from the caller context. A disconnect while an
	// event sits between dequeue and fold would otherwise drop that event; the
	// detached drain folds every event, and the caller wait below is the only
	// thing the disconnect interrupts.
	done := make(chan outcome, 1)
	h.background.Go(context.WithoutCancel(ctx), "consume", exec.taskID,
		func(bgCtx context.Context) error {
			defer exec.cleanup()
			result, err := exec.aggregator.ConsumeAll(bgCtx, exec.consumer)
			done <- outcome{result: result, err: err}
			return err
		})

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		return callerResult(out.result, params)
	case <-ctx.Done():
		// The caller went away. The producer keeps running and the drain
		// above keeps persisting its output.
		return nil, ctx.Err()
	}
}

func (h *DefaultRequestHandler) consumeNonBlocking(ctx context.Context, params *a2akit.MessageSendParams, exec *execution) (a2akit.MessageResult, error) {
	// Consumption runs on a detached context: the remainder of the stream is
	// drained in the background after the interrupt result is returned.
	bgCtx := context.WithoutCancel(ctx)

	result, interrupted, err := exec.aggregator.ConsumeAndBreakOnInterrupt(bgCtx, exec.consumer)
	if err != nil {
		h.background.Go(bgCtx, "cleanup", exec.taskID, func(context.Context) error {
			exec.cleanup()
			return nil
		})
		return nil, err
	}

	if interrupted {
		h.background.Go(bgCtx, "drain_after_interrupt", exec.taskID,
			func(drainCtx context.Context) error {
				defer exec.cleanup()
				return exec.aggregator.ContinueConsuming(drainCtx)
			})
	} else {
		exec.cleanup()
	}
	return callerResult(result, params)
}

// OnMessageSendStream handles a streaming send.
func (h *DefaultRequestHandler) OnMessageSendStream(ctx context.Context, params *a2akit.MessageSendParams) (<-chan event.Event, error) {
	ctx, span := h.tracer.Start(ctx, "a2akit.handler.OnMessageSendStream")
	defer span.End()

	exec, err := h.setupExecution(ctx, params)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("a2a.task_id", exec.taskID))

	bgCtx := context.WithoutCancel(ctx)
	events := exec.aggregator.ConsumeAndEmit(bgCtx, exec.consumer)

	out := make(chan event.Event)
	go func() {
		defer close(out)

		for ev := range events {
			select {
			case out <- ev:
			case <-ctx.Done():
				// The caller disconnected mid-stream. The event just
				// received was already persisted, so only the remaining
				// drain and the cleanup move to the background.
				h.background.Go(bgCtx, "drain_after_disconnect", exec.taskID,
					func(context.Context) error {
						defer exec.cleanup()
						for range events {
						}
						return nil
					})
				return
			}
		}

		// A producer failure terminates the stream with an explicit failed
		// status, never a silent truncation.
		if prodErr := exec.consumer.Err(); prodErr != nil {
			failed := a2akit.NewStatusUpdateEvent(exec.taskID, exec.contextID, a2akit.TaskStateFailed, true)
			failed.Status.Message = a2akit.NewAgentMessage(exec.taskID, exec.contextID,
				[]a2akit.Part{a2akit.NewTextPart(prodErr.Error())})
			if _, err := exec.manager.SaveTaskEvent(bgCtx, failed); err != nil {
				h.logger.ErrorContext(bgCtx, "failed to persist producer failure",
					"task_id", exec.taskID, "error", err)
			}
			select {
			case out <- failed:
			case <-ctx.Done():
			}
		}
		exec.cleanup()
	}()

	return out, nil
}

// OnGetTask returns the stored task, optionally truncating history.
func (h *DefaultRequestHandler) OnGetTask(ctx context.Context, params *a2akit.TaskQueryParams) (*a2akit.Task, error) {
	ctx, span := h.tracer.Start(ctx, "a2akit.handler.OnGetTask")
	defer span.End()

	if err := params.Validate(); err != nil {
		return nil, a2akit.NewInvalidParamsError(err)
	}
	span.SetAttributes(attribute.String("a2a.task_id", params.ID))

	stored, err := h.taskStore.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if params.HistoryLength > 0 {
		stored = stored.WithHistoryLength(params.HistoryLength)
	}
	return stored, nil
}

// OnCancelTask cancels an in-flight task. It signals the producer, asks the
// executor to stop cooperatively, and waits for the resulting canceled status
// on a tap of the live queue.
func (h *DefaultRequestHandler) OnCancelTask(ctx context.Context, params *a2akit.TaskIDParams) (*a2akit.Task, error) {
	ctx, span := h.tracer.Start(ctx, "a2akit.handler.OnCancelTask")
	defer span.End()

	if err := params.Validate(); err != nil {
		return nil, a2akit.NewInvalidParamsError(err)
	}
	span.SetAttributes(attribute.String("a2a.task_id", params.ID))

	stored, err := h.taskStore.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if a2akit.IsTerminalState(stored.Status.State) {
		return nil, a2akit.NewTaskNotCancelableError(params.ID, stored.Status.State)
	}

	// Cancellation rides the live queue. No queue means no producer to
	// cancel.
	parent, err := h.queueManager.Get(params.ID)
	if err != nil {
		return nil, a2akit.NewTaskNotFoundError(params.ID)
	}
	tapped, err := parent.Tap()
	if err != nil {
		return nil, a2akit.NewTaskNotFoundError(params.ID)
	}

	reqCtx := agent_execution.NewRequestContext(nil, params.ID, stored.ContextID, stored)
	if err := h.executor.Cancel(ctx, reqCtx, parent); err != nil {
		return nil, err
	}

	manager, err := task.NewTaskManager(task.TaskManagerConfig{
		TaskID:    params.ID,
		ContextID: stored.ContextID,
		Store:     h.taskStore,
		Logger:    h.logger,
	})
	if err != nil {
		return nil, a2akit.NewInternalError("failed to create task manager", err)
	}
	aggregator, err := task.NewResultAggregator(manager, task.WithAggregatorLogger(h.logger))
	if err != nil {
		return nil, a2akit.NewInternalError("failed to create result aggregator", err)
	}

	result, err := aggregator.ConsumeAll(ctx, event.NewEventConsumer(tapped))
	if err != nil {
		return nil, err
	}

	canceled, ok := result.(*a2akit.Task)
	if !ok || canceled.Status.State != a2akit.TaskStateCanceled {
		return nil, a2akit.NewTaskNotCancelableError(params.ID, stored.Status.State)
	}

	// Best-effort stop of the producer goroutine after the cooperative
	// cancel has been observed.
	h.mu.Lock()
	run := h.runningAgents[params.ID]
	h.mu.Unlock()
	if run != nil {
		run.cancel()
	}

	return canceled, nil
}

// OnResubscribeToTask re-attaches to a live stream. It taps the existing
// queue and never starts a new producer: a task without an active queue is
// not resubscribable even if its record exists.
func (h *DefaultRequestHandler) OnResubscribeToTask(ctx context.Context, params *a2akit.TaskIDParams) (<-chan event.Event, error) {
	ctx, span := h.tracer.Start(ctx, "a2akit.handler.OnResubscribeToTask")
	defer span.End()

	if err := params.Validate(); err != nil {
		return nil, a2akit.NewInvalidParamsError(err)
	}
	span.SetAttributes(attribute.String("a2a.task_id", params.ID))

	stored, err := h.taskStore.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if a2akit.IsTerminalState(stored.Status.State) {
		return nil, a2akit.NewInvalidParamsError(
			fmt.Errorf("task %s is in terminal state %s", params.ID, stored.Status.State))
	}

	tapped, err := h.queueManager.Tap(params.ID)
	if err != nil {
		return nil, a2akit.NewTaskNotFoundError(params.ID)
	}

	manager, err := task.NewTaskManager(task.TaskManagerConfig{
		TaskID:    params.ID,
		ContextID: stored.ContextID,
		Store:     h.taskStore,
		Logger:    h.logger,
	})
	if err != nil {
		return nil, a2akit.NewInternalError("failed to create task manager", err)
	}
	aggregator, err := task.NewResultAggregator(manager, task.WithAggregatorLogger(h.logger))
	if err != nil {
		return nil, a2akit.NewInternalError("failed to create result aggregator", err)
	}

	bgCtx := context.WithoutCancel(ctx)
	events := aggregator.ConsumeAndEmit(bgCtx, event.NewEventConsumer(tapped))

	out := make(chan event.Event)
	go func() {
		defer close(out)
		for ev := range events {
			select {
			case out <- ev:
			case <-ctx.Done():
				h.background.Go(bgCtx, "drain_after_disconnect", params.ID,
					func(context.Context) error {
						for range events {
						}
						return nil
					})
				return
			}
		}
	}()
	return out, nil
}

// OnSetTaskPushNotificationConfig registers a push endpoint for a task.
func (h *DefaultRequestHandler) OnSetTaskPushNotificationConfig(ctx context.Context, params *a2akit.TaskPushNotificationConfig) (*a2akit.TaskPushNotificationConfig, error) {
	ctx, span := h.tracer.Start(ctx, "a2akit.handler.OnSetTaskPushNotificationConfig")
	defer span.End()

	if err := params.Validate(); err != nil {
		return nil, a2akit.NewInvalidParamsError(err)
	}
	span.SetAttributes(attribute.String("a2a.task_id", params.TaskID))

	if h.pushConfigStore == nil {
		return nil, a2akit.NewUnsupportedOperationError("tasks/pushNotificationConfig/set")
	}
	if _, err := h.taskStore.Get(ctx, params.TaskID); err != nil {
		return nil, err
	}

	stored, err := h.pushConfigStore.SetInfo(ctx, params.TaskID, params.PushNotificationConfig)
	if err != nil {
		return nil, err
	}
	return &a2akit.TaskPushNotificationConfig{
		TaskID:                 params.TaskID,
		PushNotificationConfig: stored,
	}, nil
}

// OnGetTaskPushNotificationConfig returns one registered push config, the
// first one when no config ID is given.
func (h *DefaultRequestHandler) OnGetTaskPushNotificationConfig(ctx context.Context, params *a2akit.GetTaskPushNotificationConfigParams) (*a2akit.TaskPushNotificationConfig, error) {
	ctx, span := h.tracer.Start(ctx, "a2akit.handler.OnGetTaskPushNotificationConfig")
	defer span.End()

	if err := params.Validate(); err != nil {
		return nil, a2akit.NewInvalidParamsError(err)
	}
	span.SetAttributes(attribute.String("a2a.task_id", params.ID))

	if h.pushConfigStore == nil {
		return nil, a2akit.NewUnsupportedOperationError("tasks/pushNotificationConfig/get")
	}
	if _, err := h.taskStore.Get(ctx, params.ID); err != nil {
		return nil, err
	}

	configs, err := h.pushConfigStore.GetInfo(ctx, params.ID)
	if err != nil {
		return nil, err
	}

	if params.PushNotificationConfigID != "" {
		for _, config := range configs {
			if config.ID == params.PushNotificationConfigID {
				return &a2akit.TaskPushNotificationConfig{
					TaskID:                 params.ID,
					PushNotificationConfig: config,
				}, nil
			}
		}
		return nil, a2akit.NewInvalidParamsError(
			fmt.Errorf("push notification config %s not found for task %s", params.PushNotificationConfigID, params.ID))
	}

	if len(configs) == 0 {
		return nil, a2akit.NewInvalidParamsError(
			fmt.Errorf("no push notification configs registered for task %s", params.ID))
	}
	return &a2akit.TaskPushNotificationConfig{
		TaskID:                 params.ID,
		PushNotificationConfig: configs[0],
	}, nil
}

// OnListTaskPushNotificationConfig returns all registered push configs.
func (h *DefaultRequestHandler) OnListTaskPushNotificationConfig(ctx context.Context, params *a2akit.ListTaskPushNotificationConfigParams) ([]*a2akit.TaskPushNotificationConfig, error) {
	ctx, span := h.tracer.Start(ctx, "a2akit.handler.OnListTaskPushNotificationConfig")
	defer span.End()

	if err := params.Validate(); err != nil {
		return nil, a2akit.NewInvalidParamsError(err)
	}
	span.SetAttributes(attribute.String("a2a.task_id", params.ID))

	if h.pushConfigStore == nil {
		return nil, a2akit.NewUnsupportedOperationError("tasks/pushNotificationConfig/list")
	}
	if _, err := h.taskStore.Get(ctx, params.ID); err != nil {
		return nil, err
	}

	configs, err := h.pushConfigStore.GetInfo(ctx, params.ID)
	if err != nil {
		return nil, err
	}

	out := make([]*a2akit.TaskPushNotificationConfig, len(configs))
	for i, config := range configs {
		out[i] = &a2akit.TaskPushNotificationConfig{
			TaskID:                 params.ID,
			PushNotificationConfig: config,
		}
	}
	return out, nil
}

// OnDeleteTaskPushNotificationConfig removes one registered push config.
func (h *DefaultRequestHandler) OnDeleteTaskPushNotificationConfig(ctx context.Context, params *a2akit.DeleteTaskPushNotificationConfigParams) error {
	ctx, span := h.tracer.Start(ctx, "a2akit.handler.OnDeleteTaskPushNotificationConfig")
	defer span.End()

	if err := params.Validate(); err != nil {
		return a2akit.NewInvalidParamsError(err)
	}
	span.SetAttributes(attribute.String("a2a.task_id", params.ID))

	if h.pushConfigStore == nil {
		return a2akit.NewUnsupportedOperationError("tasks/pushNotificationConfig/delete")
	}
	if _, err := h.taskStore.Get(ctx, params.ID); err != nil {
		return err
	}
	return h.pushConfigStore.DeleteInfo(ctx, params.ID, params.PushNotificationConfigID)
}

// Running reports whether a producer is registered for the task.
func (h *DefaultRequestHandler) Running(taskID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.runningAgents[taskID]
	return ok
}

// Shutdown waits for all background drain and cleanup work to finish.
func (h *DefaultRequestHandler) Shutdown() {
	h.background.Wait()
}

// callerResult shapes the materialized result for the caller, applying the
// requested history truncation to task results.
func callerResult(result a2akit.MessageResult, params *a2akit.MessageSendParams) (a2akit.MessageResult, error) {
	if result == nil {
		return nil, a2akit.NewInternalError("agent produced no result", nil)
	}
	if snapshot, ok := result.(*a2akit.Task); ok {
		if length := params.HistoryLength(); length > 0 {
			return snapshot.WithHistoryLength(length), nil
		}
	}
	return result, nil
}
