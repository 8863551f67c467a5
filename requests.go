// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package a2akit

import "fmt"

// MessageSendConfiguration tunes how a message send operation behaves.
type MessageSendConfiguration struct {
	// Blocking makes on_message_send wait for a terminal task state instead of
	// returning at the first interrupt state. Defaults to blocking behavior
	// when the configuration is absent.
	Blocking bool `json:"blocking,omitzero"`

	// HistoryLength truncates the returned task history to the most recent N
	// messages. Zero returns the full history.
	HistoryLength int `json:"historyLength,omitzero"`

	// PushNotificationConfig registers a push endpoint for the task as part of
	// the send call.
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitzero"`

	// AcceptedOutputModes lists the MIME types the caller can consume.
	AcceptedOutputModes []string `json:"acceptedOutputModes,omitzero"`
}

// MessageSendParams are the parameters of the message/send and message/stream
// operations.
type MessageSendParams struct {
	Message       *Message                  `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitzero"`
	Metadata      map[string]any            `json:"metadata,omitzero"`
}

// Validate ensures the MessageSendParams are well formed.
func (p *MessageSendParams) Validate() error {
	if p.Message == nil {
		return fmt.Errorf("message cannot be nil")
	}
	return p.Message.Validate()
}

// Blocking reports whether the caller asked for blocking completion. Sends
// without an explicit configuration block until terminal state.
func (p *MessageSendParams) Blocking() bool {
	if p.Configuration == nil {
		return true
	}
	return p.Configuration.Blocking
}

// HistoryLength returns the caller-requested history truncation, or zero.
func (p *MessageSendParams) HistoryLength() int {
	if p.Configuration == nil {
		return 0
	}
	return p.Configuration.HistoryLength
}

// TaskQueryParams are the parameters of the tasks/get operation.
type TaskQueryParams struct {
	// ID is the task ID to query.
	ID string `json:"id"`

	// HistoryLength truncates the returned history to the most recent N
	// messages. Zero returns the full history.
	HistoryLength int `json:"historyLength,omitzero"`

	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the TaskQueryParams are well formed.
func (p *TaskQueryParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	return nil
}

// TaskIDParams carry only a task ID, used by tasks/cancel and
// tasks/resubscribe.
type TaskIDParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the TaskIDParams are well formed.
func (p *TaskIDParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	return nil
}

// TaskPushNotificationConfig binds a push notification config to a task. It
// is both the parameter of the tasks/pushNotificationConfig/set operation and
// the result of the set and get operations.
type TaskPushNotificationConfig struct {
	TaskID                 string                  `json:"taskId"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig"`
}

// Validate ensures the TaskPushNotificationConfig is well formed.
func (p *TaskPushNotificationConfig) Validate() error {
	if p.TaskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if p.PushNotificationConfig == nil {
		return fmt.Errorf("push notification config cannot be nil")
	}
	return p.PushNotificationConfig.Validate()
}

// GetTaskPushNotificationConfigParams are the parameters of the
// tasks/pushNotificationConfig/get operation.
type GetTaskPushNotificationConfigParams struct {
	ID string `json:"id"`

	// PushNotificationConfigID selects one config. Empty selects the first.
	PushNotificationConfigID string `json:"pushNotificationConfigId,omitzero"`

	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the params are well formed.
func (p *GetTaskPushNotificationConfigParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	return nil
}

// ListTaskPushNotificationConfigParams are the parameters of the
// tasks/pushNotificationConfig/list operation.
type ListTaskPushNotificationConfigParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the params are well formed.
func (p *ListTaskPushNotificationConfigParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	return nil
}

// DeleteTaskPushNotificationConfigParams are the parameters of the
// tasks/pushNotificationConfig/delete operation.
type DeleteTaskPushNotificationConfigParams struct {
	ID                       string         `json:"id"`
	PushNotificationConfigID string         `json:"pushNotificationConfigId"`
	Metadata                 map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the params are well formed.
func (p *DeleteTaskPushNotificationConfigParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if p.PushNotificationConfigID == "" {
		return fmt.Errorf("push notification config ID cannot be empty")
	}
	return nil
}
