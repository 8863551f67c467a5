// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"sync"
)

// QueueManager maintains the per-task registry of event queues. At most one
// queue exists per task ID at a time; everyone asking for a live task's queue
// gets a view of the same queue.
type QueueManager interface {
	// CreateOrTap returns a queue for the task. If no queue exists one is
	// created and returned with created set, signalling the caller that it
	// owns starting the producer. If a queue already exists a tap of it is
	// returned with created unset.
	CreateOrTap(taskID string) (queue *EventQueue, created bool, err error)

	// Get returns the live queue for a task, or ErrNoQueue.
	Get(taskID string) (*EventQueue, error)

	// Tap returns a new tap of the task's live queue, or ErrNoQueue. It
	// never creates a queue: tapping is only meaningful while a producer
	// is attached.
	Tap(taskID string) (*EventQueue, error)

	// Close closes and removes the queue for a task. Closing a task with
	// no queue is a no-op.
	Close(taskID string) error

	// CloseAll closes and removes all managed queues.
	CloseAll() error
}

// InMemoryQueueManager is a process-local QueueManager. It is not suitable
// for multi-instance deployments where consumers may land on a different
// instance than the producer.
type InMemoryQueueManager struct {
	mu      sync.Mutex
	queues  map[string]*EventQueue
	maxSize int
}

var _ QueueManager = (*InMemoryQueueManager)(nil)

// NewInMemoryQueueManager creates a new in-memory queue manager. If
// maxQueueSize is not positive, DefaultMaxQueueSize is used for new queues.
func NewInMemoryQueueManager(maxQueueSize int) *InMemoryQueueManager {
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	}
	return &InMemoryQueueManager{
		queues:  make(map[string]*EventQueue),
		maxSize: maxQueueSize,
	}
}

// CreateOrTap returns the task's queue, creating it when absent. The creation
// check and the registry write happen under one lock so concurrent callers
// for the same task never obtain two independent queues.
func (m *InMemoryQueueManager) CreateOrTap(taskID string) (*EventQueue, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if queue, exists := m.queues[taskID]; exists {
		tap, err := queue.Tap()
		if err != nil {
			return nil, false, err
		}
		return tap, false, nil
	}

	queue, err := NewEventQueue(m.maxSize)
	if err != nil {
		return nil, false, err
	}
	m.queues[taskID] = queue
	return queue, true, nil
}

// Get returns the live queue for a task.
func (m *InMemoryQueueManager) Get(taskID string) (*EventQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, exists := m.queues[taskID]
	if !exists {
		return nil, ErrNoQueue
	}
	return queue, nil
}

// Tap returns a new tap of the task's live queue.
func (m *InMemoryQueueManager) Tap(taskID string) (*EventQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, exists := m.queues[taskID]
	if !exists {
		return nil, ErrNoQueue
	}
	return queue.Tap()
}

// Close closes and removes the queue for a task.
func (m *InMemoryQueueManager) Close(taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, exists := m.queues[taskID]
	if !exists {
		return nil
	}

	delete(m.queues, taskID)
	return queue.Close()
}

// CloseAll closes and removes all managed queues.
func (m *InMemoryQueueManager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for taskID, queue := range m.queues {
		if err := queue.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.queues, taskID)
	}

	return firstErr
}

// Size returns the number of managed queues.
func (m *InMemoryQueueManager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}
