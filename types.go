// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package a2akit

import (
	"fmt"
	"time"
)

// TaskState represents the lifecycle state of a Task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been received but work has not started.
	TaskStateSubmitted TaskState = "submitted"

	// TaskStateWorking indicates the agent is actively working on the task.
	TaskStateWorking TaskState = "working"

	// TaskStateInputRequired indicates the agent is waiting for additional input.
	TaskStateInputRequired TaskState = "input-required"

	// TaskStateAuthRequired indicates the agent is waiting for authentication.
	TaskStateAuthRequired TaskState = "auth-required"

	// TaskStateCompleted indicates the task finished successfully. Terminal.
	TaskStateCompleted TaskState = "completed"

	// TaskStateCanceled indicates the task was canceled. Terminal.
	TaskStateCanceled TaskState = "canceled"

	// TaskStateFailed indicates the task failed. Terminal.
	TaskStateFailed TaskState = "failed"

	// TaskStateRejected indicates the agent refused the task. Terminal.
	TaskStateRejected TaskState = "rejected"

	// TaskStateUnknown indicates the task state could not be determined.
	TaskStateUnknown TaskState = "unknown"
)

// IsTerminalState reports whether state permits no further transitions.
func IsTerminalState(state TaskState) bool {
	switch state {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateRejected:
		return true
	default:
		return false
	}
}

// EventKind discriminates the event union: Message, Task,
// TaskStatusUpdateEvent, and TaskArtifactUpdateEvent.
type EventKind string

const (
	// MessageEventKind identifies a Message event.
	MessageEventKind EventKind = "message"

	// TaskEventKind identifies a Task snapshot event.
	TaskEventKind EventKind = "task"

	// StatusUpdateEventKind identifies a TaskStatusUpdateEvent.
	StatusUpdateEventKind EventKind = "status-update"

	// ArtifactUpdateEventKind identifies a TaskArtifactUpdateEvent.
	ArtifactUpdateEventKind EventKind = "artifact-update"
)

// Role identifies the author of a Message.
type Role string

const (
	// RoleUser marks a message authored by the calling user or client agent.
	RoleUser Role = "user"

	// RoleAgent marks a message authored by the serving agent.
	RoleAgent Role = "agent"
)

// PartKind discriminates the content kinds a Part can carry.
type PartKind string

const (
	// PartKindText identifies a text part.
	PartKindText PartKind = "text"

	// PartKindFile identifies a file part.
	PartKindFile PartKind = "file"

	// PartKindData identifies a structured data part.
	PartKindData PartKind = "data"
)

// FileContent holds the payload of a file part, either inline or by URI.
type FileContent struct {
	Name     string `json:"name,omitzero"`
	MIMEType string `json:"mimeType,omitzero"`
	URI      string `json:"uri,omitzero"`
	Bytes    []byte `json:"bytes,omitzero"`
}

// Part is a single content segment of a Message or Artifact.
// Exactly one of Text, File, or Data is populated according to Kind.
type Part struct {
	Kind     PartKind       `json:"kind"`
	Text     string         `json:"text,omitzero"`
	File     *FileContent   `json:"file,omitzero"`
	Data     map[string]any `json:"data,omitzero"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// NewTextPart creates a text Part.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// NewFilePart creates a file Part.
func NewFilePart(file *FileContent) Part {
	return Part{Kind: PartKindFile, File: file}
}

// NewDataPart creates a structured data Part.
func NewDataPart(data map[string]any) Part {
	return Part{Kind: PartKindData, Data: data}
}

// Message is a single conversational turn. A message is immutable once sent.
type Message struct {
	// Kind is always MessageEventKind.
	Kind EventKind `json:"kind"`

	// MessageID uniquely identifies this message.
	MessageID string `json:"messageId"`

	// Role identifies the author.
	Role Role `json:"role"`

	// Parts is the ordered content of the message.
	Parts []Part `json:"parts"`

	// TaskID associates the message with a task, if any.
	TaskID string `json:"taskId,omitzero"`

	// ContextID groups related tasks and messages into one conversation.
	ContextID string `json:"contextId,omitzero"`

	// Metadata carries extension metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// GetEventKind returns the event kind for type discrimination.
func (m *Message) GetEventKind() EventKind { return MessageEventKind }

// GetTaskID returns the task ID associated with this message, if any.
func (m *Message) GetTaskID() string { return m.TaskID }

// GetContextID returns the context ID associated with this message, if any.
func (m *Message) GetContextID() string { return m.ContextID }

// Validate ensures the Message is well formed.
func (m *Message) Validate() error {
	if m.MessageID == "" {
		return fmt.Errorf("message ID cannot be empty")
	}
	if m.Role != RoleUser && m.Role != RoleAgent {
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("message must have at least one part")
	}
	return nil
}

// TaskStatus is the tagged status value of a Task: the state, an optional
// status message, and the time the status was recorded.
type TaskStatus struct {
	State TaskState `json:"state"`

	// Message carries an optional agent status update for the client.
	Message *Message `json:"message,omitzero"`

	// Timestamp is the RFC 3339 time the status was recorded.
	Timestamp string `json:"timestamp,omitzero"`
}

// NewTaskStatus creates a TaskStatus for state stamped with the current time.
func NewTaskStatus(state TaskState) TaskStatus {
	return TaskStatus{State: state, Timestamp: Timestamp()}
}

// Task is the persistent unit of work.
type Task struct {
	// ID uniquely identifies the task. Assigned at creation, immutable.
	ID string `json:"id"`

	// ContextID groups related tasks into a conversation. Immutable.
	ContextID string `json:"contextId"`

	// Kind is always TaskEventKind.
	Kind EventKind `json:"kind"`

	// Status is the current status of the task.
	Status TaskStatus `json:"status"`

	// History is the ordered sequence of messages exchanged for this task.
	History []*Message `json:"history,omitzero"`

	// Artifacts is the ordered, append-only sequence of agent outputs.
	Artifacts []*Artifact `json:"artifacts,omitzero"`

	// Metadata carries extension metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// GetEventKind returns the event kind for type discrimination.
func (t *Task) GetEventKind() EventKind { return TaskEventKind }

// GetTaskID returns the task's own ID.
func (t *Task) GetTaskID() string { return t.ID }

// GetContextID returns the task's context ID.
func (t *Task) GetContextID() string { return t.ContextID }

// Validate ensures the Task is well formed.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if t.ContextID == "" {
		return fmt.Errorf("task context ID cannot be empty")
	}
	if t.Status.State == "" {
		return fmt.Errorf("task status state cannot be empty")
	}
	return nil
}

// WithHistoryLength returns a shallow copy of the task whose history is
// truncated to the most recent length messages. A non-positive length returns
// the task unchanged.
func (t *Task) WithHistoryLength(length int) *Task {
	if length <= 0 || len(t.History) <= length {
		return t
	}
	out := *t
	out.History = t.History[len(t.History)-length:]
	return &out
}

// Artifact is an output produced by the agent for a task.
type Artifact struct {
	// ArtifactID uniquely identifies the artifact within its task.
	ArtifactID string `json:"artifactId"`

	Name        string `json:"name,omitzero"`
	Description string `json:"description,omitzero"`

	// Parts is the ordered content of the artifact.
	Parts []Part `json:"parts"`

	// Metadata carries extension metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the Artifact is well formed.
func (a *Artifact) Validate() error {
	if a.ArtifactID == "" {
		return fmt.Errorf("artifact ID cannot be empty")
	}
	if len(a.Parts) == 0 {
		return fmt.Errorf("artifact must have at least one part")
	}
	return nil
}

// TaskStatusUpdateEvent is emitted by the agent when a task's status changes.
// Final reports the authoritative end of the event stream, independent of
// whether Status.State is terminal.
type TaskStatusUpdateEvent struct {
	// Kind is always StatusUpdateEventKind.
	Kind EventKind `json:"kind"`

	TaskID    string     `json:"taskId"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Final     bool       `json:"final"`

	// Metadata carries extension metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// GetEventKind returns the event kind for type discrimination.
func (e *TaskStatusUpdateEvent) GetEventKind() EventKind { return StatusUpdateEventKind }

// GetTaskID returns the task ID this event is for.
func (e *TaskStatusUpdateEvent) GetTaskID() string { return e.TaskID }

// GetContextID returns the context ID this event is for.
func (e *TaskStatusUpdateEvent) GetContextID() string { return e.ContextID }

// TaskArtifactUpdateEvent is emitted by the agent when it produces or extends
// an artifact. When Append is set the artifact's parts extend the existing
// artifact with the same ID instead of replacing it.
type TaskArtifactUpdateEvent struct {
	// Kind is always ArtifactUpdateEventKind.
	Kind EventKind `json:"kind"`

	TaskID    string    `json:"taskId"`
	ContextID string    `json:"contextId"`
	Artifact  *Artifact `json:"artifact"`
	Append    bool      `json:"append,omitzero"`
	LastChunk bool      `json:"lastChunk,omitzero"`

	// Metadata carries extension metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// GetEventKind returns the event kind for type discrimination.
func (e *TaskArtifactUpdateEvent) GetEventKind() EventKind { return ArtifactUpdateEventKind }

// GetTaskID returns the task ID this event is for.
func (e *TaskArtifactUpdateEvent) GetTaskID() string { return e.TaskID }

// GetContextID returns the context ID this event is for.
func (e *TaskArtifactUpdateEvent) GetContextID() string { return e.ContextID }

// PushNotificationAuthenticationInfo describes how push notification
// deliveries authenticate to the receiving endpoint.
type PushNotificationAuthenticationInfo struct {
	// Schemes lists supported schemes, e.g. "bearer", "basic".
	Schemes []string `json:"schemes"`

	// Credentials holds optional credentials for the schemes.
	Credentials string `json:"credentials,omitzero"`
}

// PushNotificationConfig configures one push notification endpoint for a task.
// A task may have several configs registered at once.
type PushNotificationConfig struct {
	// ID is minted by the server to support multiple callbacks per task.
	ID string `json:"id,omitzero"`

	// URL receives the push notifications.
	URL string `json:"url"`

	// Token is echoed back to the endpoint on every delivery.
	Token string `json:"token,omitzero"`

	Authentication *PushNotificationAuthenticationInfo `json:"authentication,omitzero"`
}

// Validate ensures the PushNotificationConfig is well formed.
func (c *PushNotificationConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("push notification URL cannot be empty")
	}
	return nil
}

// MessageResult is the union of results a message send operation can produce:
// a *Task for task-oriented interactions, or a bare *Message for chat-only
// interactions.
type MessageResult interface {
	GetEventKind() EventKind
	GetTaskID() string
}

// Timestamp returns the current UTC time in RFC 3339 format, the wire format
// for status timestamps.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
