// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"sync"
)

// DefaultMaxQueueSize is the default maximum queue size.
const DefaultMaxQueueSize = 1024

// EventQueue is a bounded FIFO queue of events with support for taps: child
// queues that receive copies of all events enqueued after their creation.
// One producer writes to the parent queue; each consumer reads its own tap.
type EventQueue struct {
	events     chan Event
	maxSize    int
	mu         sync.Mutex
	closed     bool
	closeOnce  sync.Once
	children   []*EventQueue
	doneSignal chan struct{}
}

// NewEventQueue creates a new event queue with the specified maximum size.
// If maxSize is 0, DefaultMaxQueueSize is used.
func NewEventQueue(maxSize int) (*EventQueue, error) {
	if maxSize < 0 {
		return nil, ErrInvalidQueueSize
	}
	if maxSize == 0 {
		maxSize = DefaultMaxQueueSize
	}

	return &EventQueue{
		events:     make(chan Event, maxSize),
		maxSize:    maxSize,
		doneSignal: make(chan struct{}),
	}, nil
}

// Enqueue adds an event to the queue and propagates it to all taps. Taps are
// written synchronously so every tap observes events in enqueue order; a full
// or closed tap drops the event without affecting the producer. Returns
// ErrQueueClosed on a closed queue and ErrQueueFull on a queue at capacity.
func (q *EventQueue) Enqueue(event Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.events <- event:
	default:
		return ErrQueueFull
	}

	for _, child := range q.children {
		_ = child.Enqueue(event)
	}
	return nil
}

// Dequeue retrieves an event from the queue.
// If noWait is true, it returns immediately: the next event if one is
// buffered, ErrQueueClosed if the queue is closed and drained, ErrQueueEmpty
// otherwise.
// If noWait is false, it blocks until an event is available, the queue is
// closed and drained, or the context is canceled.
func (q *EventQueue) Dequeue(ctx context.Context, noWait bool) (Event, error) {
	if noWait {
		select {
		case event := <-q.events:
			return event, nil
		default:
			if q.IsClosed() {
				return nil, ErrQueueClosed
			}
			return nil, ErrQueueEmpty
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case event := <-q.events:
		return event, nil
	case <-q.doneSignal:
		// Closed queues drain remaining events before reporting closure.
		select {
		case event := <-q.events:
			return event, nil
		default:
			return nil, ErrQueueClosed
		}
	}
}

// Tap creates and returns a new EventQueue that will receive copies of all
// events enqueued to this queue from now on. Buffered events are not
// replayed. Closing this queue closes the tap; closing the tap does not
// affect this queue.
func (q *EventQueue) Tap() (*EventQueue, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	child, err := NewEventQueue(q.maxSize)
	if err != nil {
		return nil, err
	}

	q.children = append(q.children, child)
	return child, nil
}

// Close closes the queue and all of its taps. Enqueues fail afterwards;
// buffered events remain dequeueable until drained. Close is idempotent.
func (q *EventQueue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		defer q.mu.Unlock()

		q.closed = true
		close(q.doneSignal)

		for _, child := range q.children {
			_ = child.Close()
		}
	})

	return nil
}

// IsClosed reports whether the queue is closed.
func (q *EventQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Size returns the current number of buffered events.
func (q *EventQueue) Size() int {
	return len(q.events)
}

// Capacity returns the maximum capacity of the queue.
func (q *EventQueue) Capacity() int {
	return q.maxSize
}
