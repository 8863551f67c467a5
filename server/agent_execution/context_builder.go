// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"context"

	"github.com/a2akit/a2akit"
	"github.com/a2akit/a2akit/server/task"
)

// RequestContextBuilder assembles a RequestContext for an incoming request.
type RequestContextBuilder interface {
	Build(ctx context.Context, params *a2akit.MessageSendParams, taskID, contextID string, currentTask *a2akit.Task) (*RequestContext, error)
}

// SimpleRequestContextBuilder is the default RequestContextBuilder. Task IDs
// are server-minted: a caller-supplied task ID must name a task that already
// exists, otherwise the build fails with TaskNotFoundError.
type SimpleRequestContextBuilder struct {
	store              task.TaskStore
	shouldPopulateTask bool
}

var _ RequestContextBuilder = (*SimpleRequestContextBuilder)(nil)

// NewSimpleRequestContextBuilder creates a builder backed by the given store.
// When populateTask is set, a caller-supplied task ID is resolved against the
// store and the loaded task is placed on the context.
func NewSimpleRequestContextBuilder(store task.TaskStore, populateTask bool) *SimpleRequestContextBuilder {
	return &SimpleRequestContextBuilder{
		store:              store,
		shouldPopulateTask: populateTask,
	}
}

// Build assembles the RequestContext, minting IDs as needed.
func (b *SimpleRequestContextBuilder) Build(ctx context.Context, params *a2akit.MessageSendParams, taskID, contextID string, currentTask *a2akit.Task) (*RequestContext, error) {
	if currentTask == nil && taskID != "" && b.shouldPopulateTask && b.store != nil {
		loaded, err := b.store.Get(ctx, taskID)
		if err != nil {
			return nil, err
		}
		currentTask = loaded
	}

	if currentTask != nil {
		if contextID == "" {
			contextID = currentTask.ContextID
		}
	}
	return NewRequestContext(params, taskID, contextID, currentTask), nil
}
