// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package event provides the event queue, consumer and queue manager that
// carry events from an executing agent to the callers observing a task.
package event

import (
	"github.com/a2akit/a2akit"
)

// Event is anything an agent can emit while executing a task: a Message, a
// Task snapshot, a TaskStatusUpdateEvent or a TaskArtifactUpdateEvent.
type Event interface {
	// GetEventKind returns the event kind for type discrimination.
	GetEventKind() a2akit.EventKind
	// GetTaskID returns the task ID associated with this event.
	GetTaskID() string
	// GetContextID returns the context ID associated with this event.
	GetContextID() string
}

var (
	_ Event = (*a2akit.Message)(nil)
	_ Event = (*a2akit.Task)(nil)
	_ Event = (*a2akit.TaskStatusUpdateEvent)(nil)
	_ Event = (*a2akit.TaskArtifactUpdateEvent)(nil)
)

// IsFinalEvent reports whether an event terminates its stream. Final events
// are a TaskStatusUpdateEvent with Final set, any Message, or a Task snapshot
// in a terminal state.
func IsFinalEvent(event Event) bool {
	switch e := event.(type) {
	case *a2akit.TaskStatusUpdateEvent:
		return e.Final
	case *a2akit.Message:
		return true
	case *a2akit.Task:
		return a2akit.IsTerminalState(e.Status.State)
	default:
		return false
	}
}
