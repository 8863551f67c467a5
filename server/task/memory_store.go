// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/a2akit/a2akit"
)

// InMemoryTaskStore is an in-memory implementation of TaskStore.
// Task data is lost when the server process stops.
// All operations are thread-safe using sync.RWMutex.
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2akit.Task
}

var _ TaskStore = (*InMemoryTaskStore)(nil)

// NewInMemoryTaskStore creates a new InMemoryTaskStore.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*a2akit.Task),
	}
}

// Save persists a task to the in-memory storage.
func (s *InMemoryTaskStore) Save(ctx context.Context, task *a2akit.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return NewTaskValidationError(task.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[task.ID] = copyTask(task)
	return nil
}

// Get retrieves a task by its ID from the in-memory storage.
func (s *InMemoryTaskStore) Get(ctx context.Context, taskID string) (*a2akit.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, a2akit.NewTaskNotFoundError(taskID)
	}
	return copyTask(task), nil
}

// Delete removes a task from the in-memory storage.
func (s *InMemoryTaskStore) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return a2akit.NewTaskNotFoundError(taskID)
	}
	delete(s.tasks, taskID)
	return nil
}

// List retrieves tasks with optional filtering.
func (s *InMemoryTaskStore) List(ctx context.Context, contextID string, limit, offset int) ([]*a2akit.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*a2akit.Task
	skipped := 0
	for _, task := range s.tasks {
		if contextID != "" && task.ContextID != contextID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(tasks) >= limit {
			break
		}
		tasks = append(tasks, copyTask(task))
	}
	return tasks, nil
}

// Count returns the total number of tasks in the in-memory storage.
func (s *InMemoryTaskStore) Count(ctx context.Context, contextID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if contextID == "" {
		return int64(len(s.tasks)), nil
	}

	count := int64(0)
	for _, task := range s.tasks {
		if task.ContextID == contextID {
			count++
		}
	}
	return count, nil
}

// Initialize prepares the in-memory storage for use.
func (s *InMemoryTaskStore) Initialize(ctx context.Context) error {
	return nil
}

// Close cleanly shuts down the in-memory storage.
func (s *InMemoryTaskStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*a2akit.Task)
	return nil
}

// Size returns the current number of tasks in the in-memory storage.
func (s *InMemoryTaskStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// copyTask creates a deep copy of a task so callers cannot mutate stored
// state through a shared pointer.
func copyTask(task *a2akit.Task) *a2akit.Task {
	if task == nil {
		return nil
	}

	out := &a2akit.Task{
		ID:        task.ID,
		ContextID: task.ContextID,
		Kind:      task.Kind,
		Status:    task.Status,
		Metadata:  copyMetadata(task.Metadata),
	}
	if task.Status.Message != nil {
		out.Status.Message = copyMessage(task.Status.Message)
	}
	if task.History != nil {
		out.History = make([]*a2akit.Message, len(task.History))
		for i, message := range task.History {
			out.History[i] = copyMessage(message)
		}
	}
	if task.Artifacts != nil {
		out.Artifacts = make([]*a2akit.Artifact, len(task.Artifacts))
		for i, artifact := range task.Artifacts {
			out.Artifacts[i] = copyArtifact(artifact)
		}
	}
	return out
}

func copyMessage(message *a2akit.Message) *a2akit.Message {
	if message == nil {
		return nil
	}
	out := *message
	out.Parts = copyParts(message.Parts)
	out.Metadata = copyMetadata(message.Metadata)
	return &out
}

func copyArtifact(artifact *a2akit.Artifact) *a2akit.Artifact {
	if artifact == nil {
		return nil
	}
	out := *artifact
	out.Parts = copyParts(artifact.Parts)
	out.Metadata = copyMetadata(artifact.Metadata)
	return &out
}

func copyParts(parts []a2akit.Part) []a2akit.Part {
	if parts == nil {
		return nil
	}
	out := make([]a2akit.Part, len(parts))
	copy(out, parts)
	return out
}

func copyMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	return maps.Clone(metadata)
}
