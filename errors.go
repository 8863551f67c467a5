// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package a2akit

import (
	"errors"
	"fmt"
)

// Protocol error codes reported to callers. The negative values follow the
// JSON-RPC convention used by A2A transports.
const (
	CodeInvalidParams        = -32602
	CodeInternalError        = -32603
	CodeTaskNotFound         = -32001
	CodeTaskNotCancelable    = -32002
	CodeUnsupportedOperation = -32004
	CodeInvalidAgentResponse = -32006
)

// TaskNotFoundError indicates the requested task ID was not found.
type TaskNotFoundError struct {
	TaskID string
}

// Error returns the error message.
func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.TaskID)
}

// Code returns the protocol error code.
func (e *TaskNotFoundError) Code() int { return CodeTaskNotFound }

// NewTaskNotFoundError creates a new TaskNotFoundError.
func NewTaskNotFoundError(taskID string) *TaskNotFoundError {
	return &TaskNotFoundError{TaskID: taskID}
}

// TaskNotCancelableError indicates the task is in a state where it cannot be
// canceled.
type TaskNotCancelableError struct {
	TaskID string
	State  TaskState
}

// Error returns the error message.
func (e *TaskNotCancelableError) Error() string {
	return fmt.Sprintf("task %s in state %s cannot be canceled", e.TaskID, e.State)
}

// Code returns the protocol error code.
func (e *TaskNotCancelableError) Code() int { return CodeTaskNotCancelable }

// NewTaskNotCancelableError creates a new TaskNotCancelableError.
func NewTaskNotCancelableError(taskID string, state TaskState) *TaskNotCancelableError {
	return &TaskNotCancelableError{TaskID: taskID, State: state}
}

// InvalidParamsError indicates the request parameters were malformed.
type InvalidParamsError struct {
	Err error
}

// Error returns the error message.
func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid params: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *InvalidParamsError) Unwrap() error { return e.Err }

// Code returns the protocol error code.
func (e *InvalidParamsError) Code() int { return CodeInvalidParams }

// NewInvalidParamsError creates a new InvalidParamsError.
func NewInvalidParamsError(err error) *InvalidParamsError {
	return &InvalidParamsError{Err: err}
}

// InternalError indicates a server-side failure while processing a request.
type InternalError struct {
	Message string
	Err     error
}

// Error returns the error message.
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("internal error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *InternalError) Unwrap() error { return e.Err }

// Code returns the protocol error code.
func (e *InternalError) Code() int { return CodeInternalError }

// NewInternalError creates a new InternalError.
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{Message: message, Err: err}
}

// UnsupportedOperationError indicates the requested operation is not supported
// by this server configuration.
type UnsupportedOperationError struct {
	Operation string
}

// Error returns the error message.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation: %s", e.Operation)
}

// Code returns the protocol error code.
func (e *UnsupportedOperationError) Code() int { return CodeUnsupportedOperation }

// NewUnsupportedOperationError creates a new UnsupportedOperationError.
func NewUnsupportedOperationError(operation string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Operation: operation}
}

// InvalidAgentResponseError indicates the agent produced an event that cannot
// be applied to its task, such as a task ID mismatch.
type InvalidAgentResponseError struct {
	Message string
}

// Error returns the error message.
func (e *InvalidAgentResponseError) Error() string {
	return fmt.Sprintf("invalid agent response: %s", e.Message)
}

// Code returns the protocol error code.
func (e *InvalidAgentResponseError) Code() int { return CodeInvalidAgentResponse }

// NewInvalidAgentResponseError creates a new InvalidAgentResponseError.
func NewInvalidAgentResponseError(message string) *InvalidAgentResponseError {
	return &InvalidAgentResponseError{Message: message}
}

// ErrorCode extracts the protocol error code from err, returning
// CodeInternalError when err carries no code.
func ErrorCode(err error) int {
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return CodeInternalError
}

// IsTaskNotFound reports whether err is a TaskNotFoundError.
func IsTaskNotFound(err error) bool {
	var notFound *TaskNotFoundError
	return errors.As(err, &notFound)
}
