// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultEventTimeout is the default polling interval for blocking consumption.
const DefaultEventTimeout = 2 * time.Second

// EventConsumer reads events from an EventQueue until the stream ends. It
// detects final events, closes the queue behind them, and surfaces errors
// reported by the producing agent.
type EventConsumer struct {
	queue   *EventQueue
	timeout time.Duration
	mu      sync.RWMutex
	prodErr error
}

// NewEventConsumer creates a new event consumer for the given queue.
func NewEventConsumer(queue *EventQueue) *EventConsumer {
	return &EventConsumer{
		queue:   queue,
		timeout: DefaultEventTimeout,
	}
}

// Queue returns the queue this consumer reads from.
func (c *EventConsumer) Queue() *EventQueue {
	return c.queue
}

// ConsumeOne attempts to consume a single event without blocking.
// Returns ErrQueueEmpty if no event is buffered.
func (c *EventConsumer) ConsumeOne(ctx context.Context) (Event, error) {
	if err := c.Err(); err != nil {
		return nil, err
	}
	return c.queue.Dequeue(ctx, true)
}

// ConsumeAll returns a channel that yields events as they become available.
// The channel closes when a final event has been yielded, the queue is closed
// and drained, the producer reports an error, or the context is canceled.
// After a final event the consumer closes the queue so the producer cannot
// extend a finished stream.
func (c *EventConsumer) ConsumeAll(ctx context.Context) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		for {
			if c.Err() != nil {
				return
			}

			timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
			event, err := c.queue.Dequeue(timeoutCtx, false)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
					// Poll again so a late producer error is noticed.
					continue
				}
				return
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}

			if IsFinalEvent(event) {
				_ = c.queue.Close()
				return
			}
		}
	}()

	return events
}

// SetProducerError records an error from the producing agent. The consumption
// loop stops at its next poll and Err exposes the error to callers.
func (c *EventConsumer) SetProducerError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prodErr == nil {
		c.prodErr = err
	}
}

// Err returns the error reported by the producing agent, if any.
func (c *EventConsumer) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prodErr
}

// SetTimeout sets the polling interval for blocking consumption.
func (c *EventConsumer) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}
