// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package event

import "errors"

var (
	// ErrQueueClosed is returned when enqueueing to a closed queue, or when
	// dequeueing from a closed queue that has been fully drained.
	ErrQueueClosed = errors.New("event queue is closed")

	// ErrQueueEmpty is returned by non-blocking dequeues on an open, empty
	// queue.
	ErrQueueEmpty = errors.New("event queue is empty")

	// ErrQueueFull is returned when enqueueing to a queue at capacity.
	ErrQueueFull = errors.New("event queue is full")

	// ErrInvalidQueueSize is returned when creating a queue with a negative
	// capacity.
	ErrInvalidQueueSize = errors.New("invalid event queue size")

	// ErrNoQueue is returned by queue manager operations that require a live
	// queue for a task that has none.
	ErrNoQueue = errors.New("no event queue exists for task")
)
