// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent_execution defines the boundary between the coordination core
// and agent business logic. An AgentExecutor receives a RequestContext and
// publishes events into an EventQueue; everything downstream (persistence,
// streaming, push notifications) is handled by the server.
package agent_execution

import (
	"context"

	"github.com/a2akit/a2akit/server/event"
)

// AgentExecutor runs agent logic for incoming requests. Implementations read
// the request from the RequestContext and publish Task, Message,
// TaskStatusUpdateEvent, or TaskArtifactUpdateEvent values to the queue.
//
// Execute should keep publishing until the interaction is complete; the
// server treats the executor's return as the end of production, and its
// error, if any, surfaces to consumers of the stream.
type AgentExecutor interface {
	// Execute runs the agent's main logic for one request.
	Execute(ctx context.Context, reqCtx *RequestContext, queue *event.EventQueue) error

	// Cancel asks the agent to stop an ongoing task. The agent should
	// publish a canceled status update to the queue once it has stopped.
	Cancel(ctx context.Context, reqCtx *RequestContext, queue *event.EventQueue) error
}
