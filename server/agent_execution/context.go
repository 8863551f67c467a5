// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"fmt"
	"strings"
	"sync"

	"github.com/a2akit/a2akit"
)

// RequestContext carries the information an executor needs to process one
// request: the incoming params, the resolved task and context IDs, the
// current task if one exists, and any related tasks attached along the way.
// Safe for concurrent use.
type RequestContext struct {
	mu           sync.RWMutex
	params       *a2akit.MessageSendParams
	taskID       string
	contextID    string
	task         *a2akit.Task
	relatedTasks []*a2akit.Task
}

// NewRequestContext creates a RequestContext. Missing task and context IDs
// are generated and written back onto the message so the executor and the
// caller agree on identity.
func NewRequestContext(params *a2akit.MessageSendParams, taskID, contextID string, task *a2akit.Task) *RequestContext {
	if taskID == "" {
		taskID = a2akit.GenerateTaskID()
	}
	if contextID == "" {
		contextID = a2akit.GenerateContextID()
	}
	if params != nil && params.Message != nil {
		params.Message.TaskID = taskID
		params.Message.ContextID = contextID
	}

	return &RequestContext{
		params:    params,
		taskID:    taskID,
		contextID: contextID,
		task:      task,
	}
}

// Params returns the incoming request payload.
func (rc *RequestContext) Params() *a2akit.MessageSendParams {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.params
}

// Message returns the incoming message, or nil for requests without one.
func (rc *RequestContext) Message() *a2akit.Message {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.params == nil {
		return nil
	}
	return rc.params.Message
}

// TaskID returns the resolved task ID.
func (rc *RequestContext) TaskID() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.taskID
}

// ContextID returns the resolved context ID.
func (rc *RequestContext) ContextID() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.contextID
}

// Task returns the current task being continued, or nil for a fresh request.
func (rc *RequestContext) Task() *a2akit.Task {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.task
}

// RelatedTasks returns a copy of the tasks attached to this request.
func (rc *RequestContext) RelatedTasks() []*a2akit.Task {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	tasks := make([]*a2akit.Task, len(rc.relatedTasks))
	copy(tasks, rc.relatedTasks)
	return tasks
}

// AttachRelatedTask attaches a task produced while serving this request, for
// example by a tool invocation.
func (rc *RequestContext) AttachRelatedTask(task *a2akit.Task) error {
	if task == nil {
		return fmt.Errorf("related task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid related task: %w", err)
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.relatedTasks = append(rc.relatedTasks, task)
	return nil
}

// UserInput joins the text parts of the incoming message. The delimiter
// defaults to a newline.
func (rc *RequestContext) UserInput(delimiter string) string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	if rc.params == nil || rc.params.Message == nil {
		return ""
	}
	if delimiter == "" {
		delimiter = "\n"
	}

	var texts []string
	for _, part := range rc.params.Message.Parts {
		if part.Kind == a2akit.PartKindText && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, delimiter)
}

func (rc *RequestContext) String() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return fmt.Sprintf("RequestContext{taskID: %s, contextID: %s, relatedTasks: %d}",
		rc.taskID, rc.contextID, len(rc.relatedTasks))
}
