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

// TaskManager owns one task's lifecycle for the duration of a request. It
// mediates all reads and writes between the event stream and the TaskStore,
// folding status and artifact updates into the persisted task as they arrive.
type TaskManager interface {
	// GetTask returns the current task, from memory or storage.
	// Returns TaskNotFoundError if no task has been persisted yet.
	GetTask(ctx context.Context) (*a2akit.Task, error)

	// UpdateWithMessage appends the message to the task's history and
	// persists it. Called before a producer launches so the producer sees
	// a consistent starting point.
	UpdateWithMessage(ctx context.Context, message *a2akit.Message) (*a2akit.Task, error)

	// SaveTaskEvent folds a task-related event into the task and persists
	// the result, creating the task if it does not exist yet. The returned
	// task reflects the event.
	SaveTaskEvent(ctx context.Context, ev event.Event) (*a2akit.Task, error)

	// Process folds a task-related event into storage. Bare Message events
	// are ignored; they do not mutate task state.
	Process(ctx context.Context, ev event.Event) error

	// TaskID returns the task ID this manager is associated with.
	TaskID() string

	// ContextID returns the context ID this manager is associated with.
	ContextID() string
}

// TaskManagerConfig holds configuration for creating a TaskManager.
type TaskManagerConfig struct {
	TaskID         string
	ContextID      string
	Store          TaskStore
	InitialMessage *a2akit.Message
	Logger         *slog.Logger
}

type defaultTaskManager struct {
	taskID         string
	contextID      string
	store          TaskStore
	initialMessage *a2akit.Message
	logger         *slog.Logger

	mu   sync.RWMutex
	task *a2akit.Task
}

var _ TaskManager = (*defaultTaskManager)(nil)

// NewTaskManager creates a new TaskManager with the given configuration.
func NewTaskManager(config TaskManagerConfig) (TaskManager, error) {
	if config.TaskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}
	if config.ContextID == "" {
		return nil, fmt.Errorf("context ID cannot be empty")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &defaultTaskManager{
		taskID:         config.TaskID,
		contextID:      config.ContextID,
		store:          config.Store,
		initialMessage: config.InitialMessage,
		logger:         logger,
	}, nil
}

// GetTask retrieves the current task from memory or storage.
func (m *defaultTaskManager) GetTask(ctx context.Context) (*a2akit.Task, error) {
	m.mu.RLock()
	if m.task != nil {
		task := m.task
		m.mu.RUnlock()
		return task, nil
	}
	m.mu.RUnlock()

	task, err := m.store.Get(ctx, m.taskID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.task = task
	m.mu.Unlock()
	return task, nil
}

// UpdateWithMessage appends the message to the task's history and persists it.
func (m *defaultTaskManager) UpdateWithMessage(ctx context.Context, message *a2akit.Message) (*a2akit.Task, error) {
	if message == nil {
		return nil, fmt.Errorf("message cannot be nil")
	}

	task, err := m.GetTask(ctx)
	if err != nil {
		if a2akit.IsTaskNotFound(err) {
			task = m.newTask()
		} else {
			return nil, err
		}
	}

	if a2akit.IsTerminalState(task.Status.State) {
		return nil, NewTaskNotUpdatableError(task.ID, task.Status.State)
	}

	// A pending status message becomes history before the new turn.
	if task.Status.Message != nil {
		task.History = append(task.History, task.Status.Message)
		task.Status.Message = nil
	}
	task.History = append(task.History, message)

	if err := m.save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// SaveTaskEvent folds a task-related event into the task and persists it.
func (m *defaultTaskManager) SaveTaskEvent(ctx context.Context, ev event.Event) (*a2akit.Task, error) {
	if ev == nil {
		return nil, fmt.Errorf("event cannot be nil")
	}
	if id := ev.GetTaskID(); id != "" && id != m.taskID {
		return nil, a2akit.NewInvalidAgentResponseError(
			fmt.Sprintf("event task ID %s does not match task %s", id, m.taskID))
	}

	switch e := ev.(type) {
	case *a2akit.Task:
		task := copyTask(e)
		if err := m.save(ctx, task); err != nil {
			return nil, err
		}
		return task, nil
	case *a2akit.TaskStatusUpdateEvent:
		return m.applyStatusUpdate(ctx, e)
	case *a2akit.TaskArtifactUpdateEvent:
		return m.applyArtifactUpdate(ctx, e)
	default:
		return nil, fmt.Errorf("event kind %s cannot be saved to a task", ev.GetEventKind())
	}
}

// Process folds a task-related event into storage.
func (m *defaultTaskManager) Process(ctx context.Context, ev event.Event) error {
	if ev == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if ev.GetEventKind() == a2akit.MessageEventKind {
		return nil
	}
	_, err := m.SaveTaskEvent(ctx, ev)
	return err
}

// TaskID returns the task ID this manager is associated with.
func (m *defaultTaskManager) TaskID() string {
	return m.taskID
}

// ContextID returns the context ID this manager is associated with.
func (m *defaultTaskManager) ContextID() string {
	return m.contextID
}

func (m *defaultTaskManager) applyStatusUpdate(ctx context.Context, ev *a2akit.TaskStatusUpdateEvent) (*a2akit.Task, error) {
	task, err := m.ensureTask(ctx)
	if err != nil {
		return nil, err
	}

	if a2akit.IsTerminalState(task.Status.State) {
		// Re-folding the same terminal event from another tap is a no-op,
		// so persistence stays idempotent per event across readers.
		if ev.Status.State == task.Status.State {
			return task, nil
		}
		return nil, NewTaskNotUpdatableError(task.ID, task.Status.State)
	}

	// The previous status message moves into history once superseded.
	if task.Status.Message != nil {
		task.History = append(task.History, task.Status.Message)
	}
	task.Status = ev.Status

	if err := m.save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (m *defaultTaskManager) applyArtifactUpdate(ctx context.Context, ev *a2akit.TaskArtifactUpdateEvent) (*a2akit.Task, error) {
	if ev.Artifact == nil {
		return nil, fmt.Errorf("artifact update event carries no artifact")
	}

	task, err := m.ensureTask(ctx)
	if err != nil {
		return nil, err
	}

	if a2akit.IsTerminalState(task.Status.State) {
		return nil, NewTaskNotUpdatableError(task.ID, task.Status.State)
	}

	appendArtifact(task, ev)

	if err := m.save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ensureTask returns the current task, creating and persisting a fresh
// submitted task when none exists yet.
func (m *defaultTaskManager) ensureTask(ctx context.Context) (*a2akit.Task, error) {
	task, err := m.GetTask(ctx)
	if err == nil {
		return task, nil
	}
	if !a2akit.IsTaskNotFound(err) {
		return nil, err
	}

	m.logger.DebugContext(ctx, "creating task from event stream", "task_id", m.taskID)
	task = m.newTask()
	if err := m.save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (m *defaultTaskManager) newTask() *a2akit.Task {
	task := &a2akit.Task{
		ID:        m.taskID,
		ContextID: m.contextID,
		Kind:      a2akit.TaskEventKind,
		Status:    a2akit.NewTaskStatus(a2akit.TaskStateSubmitted),
	}
	if m.initialMessage != nil {
		task.History = append(task.History, m.initialMessage)
	}
	return task
}

func (m *defaultTaskManager) save(ctx context.Context, task *a2akit.Task) error {
	if err := m.store.Save(ctx, task); err != nil {
		return err
	}
	m.mu.Lock()
	m.task = task
	m.mu.Unlock()
	return nil
}

// appendArtifact folds an artifact update into the task. Updates address
// artifacts by ID: a non-append update replaces the artifact with the same ID
// (or adds a new one), an append update extends its parts chunk by chunk.
func appendArtifact(task *a2akit.Task, ev *a2akit.TaskArtifactUpdateEvent) {
	artifact := ev.Artifact

	idx := -1
	for i, existing := range task.Artifacts {
		if existing.ArtifactID == artifact.ArtifactID {
			idx = i
			break
		}
	}

	if !ev.Append || idx < 0 {
		if idx >= 0 {
			task.Artifacts[idx] = artifact
		} else {
			task.Artifacts = append(task.Artifacts, artifact)
		}
		return
	}

	existing := task.Artifacts[idx]
	existing.Parts = append(existing.Parts, artifact.Parts...)
	if artifact.Name != "" {
		existing.Name = artifact.Name
	}
	if artifact.Description != "" {
		existing.Description = artifact.Description
	}
}
