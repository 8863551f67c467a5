// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package handler orchestrates task execution: it connects transports to the
// agent executor, the event queues, task persistence, and the push
// notification side channel. One RequestHandler method corresponds to one
// protocol operation.
package handler

import (
	"context"

	"github.com/a2akit/a2akit"
	"github.com/a2akit/a2akit/server/event"
)

// RequestHandler is the transport-facing surface of the coordination core.
// Transport adapters translate wire requests into these calls; the handler
// never sees a wire format.
type RequestHandler interface {
	// OnMessageSend handles a non-streaming send. It returns the
	// materialized Task, or the agent's bare Message for interactions that
	// never created a task.
	OnMessageSend(ctx context.Context, params *a2akit.MessageSendParams) (a2akit.MessageResult, error)

	// OnMessageSendStream handles a streaming send. Every intermediate
	// event is delivered on the returned channel, which closes when the
	// stream ends. The producer survives a caller disconnect.
	OnMessageSendStream(ctx context.Context, params *a2akit.MessageSendParams) (<-chan event.Event, error)

	// OnGetTask returns the stored task, optionally truncating history.
	OnGetTask(ctx context.Context, params *a2akit.TaskQueryParams) (*a2akit.Task, error)

	// OnCancelTask cancels an in-flight task and returns it once canceled.
	OnCancelTask(ctx context.Context, params *a2akit.TaskIDParams) (*a2akit.Task, error)

	// OnResubscribeToTask re-attaches to a live event stream via a queue
	// tap. It never starts a new producer.
	OnResubscribeToTask(ctx context.Context, params *a2akit.TaskIDParams) (<-chan event.Event, error)

	// OnSetTaskPushNotificationConfig registers a push endpoint for a task.
	OnSetTaskPushNotificationConfig(ctx context.Context, params *a2akit.TaskPushNotificationConfig) (*a2akit.TaskPushNotificationConfig, error)

	// OnGetTaskPushNotificationConfig returns one registered push config.
	OnGetTaskPushNotificationConfig(ctx context.Context, params *a2akit.GetTaskPushNotificationConfigParams) (*a2akit.TaskPushNotificationConfig, error)

	// OnListTaskPushNotificationConfig returns all registered push configs.
	OnListTaskPushNotificationConfig(ctx context.Context, params *a2akit.ListTaskPushNotificationConfigParams) ([]*a2akit.TaskPushNotificationConfig, error)

	// OnDeleteTaskPushNotificationConfig removes one registered push config.
	OnDeleteTaskPushNotificationConfig(ctx context.Context, params *a2akit.DeleteTaskPushNotificationConfigParams) error
}
