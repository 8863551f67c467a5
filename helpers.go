// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package a2akit

import (
	"github.com/google/uuid"
)

// GenerateTaskID returns a new unique task ID.
func GenerateTaskID() string {
	return uuid.NewString()
}

// GenerateContextID returns a new unique context ID.
func GenerateContextID() string {
	return uuid.NewString()
}

// GenerateMessageID returns a new unique message ID.
func GenerateMessageID() string {
	return uuid.NewString()
}

// GenerateArtifactID returns a new unique artifact ID.
func GenerateArtifactID() string {
	return uuid.NewString()
}

// GeneratePushNotificationConfigID returns a new unique push notification
// config ID.
func GeneratePushNotificationConfigID() string {
	return uuid.NewString()
}

// NewSubmittedTask creates a task in the submitted state seeded from the
// initiating message. Missing task and context IDs are generated and written
// back onto the message so later events correlate.
func NewSubmittedTask(message *Message) *Task {
	if message.TaskID == "" {
		message.TaskID = GenerateTaskID()
	}
	if message.ContextID == "" {
		message.ContextID = GenerateContextID()
	}
	return &Task{
		ID:        message.TaskID,
		ContextID: message.ContextID,
		Kind:      TaskEventKind,
		Status:    NewTaskStatus(TaskStateSubmitted),
		History:   []*Message{message},
	}
}

// NewAgentMessage creates an agent-role message with the given parts.
func NewAgentMessage(taskID, contextID string, parts []Part) *Message {
	return &Message{
		Kind:      MessageEventKind,
		MessageID: GenerateMessageID(),
		Role:      RoleAgent,
		Parts:     parts,
		TaskID:    taskID,
		ContextID: contextID,
	}
}

// NewStatusUpdateEvent creates a status update event for the given task.
func NewStatusUpdateEvent(taskID, contextID string, state TaskState, final bool) *TaskStatusUpdateEvent {
	return &TaskStatusUpdateEvent{
		Kind:      StatusUpdateEventKind,
		TaskID:    taskID,
		ContextID: contextID,
		Status:    NewTaskStatus(state),
		Final:     final,
	}
}

// NewArtifactUpdateEvent creates an artifact update event for the given task.
func NewArtifactUpdateEvent(taskID, contextID string, artifact *Artifact) *TaskArtifactUpdateEvent {
	return &TaskArtifactUpdateEvent{
		Kind:      ArtifactUpdateEventKind,
		TaskID:    taskID,
		ContextID: contextID,
		Artifact:  artifact,
	}
}
