// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"

	"github.com/a2akit/a2akit"
)

// TaskNotUpdatableError represents an error when attempting to update a task in a terminal state.
type TaskNotUpdatableError struct {
	TaskID string
	State  a2akit.TaskState
}

// Error returns the error message.
func (e TaskNotUpdatableError) Error() string {
	return fmt.Sprintf("task %s in state %s cannot be updated", e.TaskID, e.State)
}

// TaskStoreError represents an error from the task store.
type TaskStoreError struct {
	Operation string
	TaskID    string
	Err       error
}

// Error returns the error message.
func (e TaskStoreError) Error() string {
	return fmt.Sprintf("task store %s operation failed for task %s: %v", e.Operation, e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e TaskStoreError) Unwrap() error {
	return e.Err
}

// TaskValidationError represents an error when task validation fails.
type TaskValidationError struct {
	TaskID string
	Err    error
}

// Error returns the error message.
func (e TaskValidationError) Error() string {
	return fmt.Sprintf("task %s validation failed: %v", e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e TaskValidationError) Unwrap() error {
	return e.Err
}

// ResultAggregatorError represents an error from the result aggregator.
type ResultAggregatorError struct {
	Operation string
	TaskID    string
	Err       error
}

// Error returns the error message.
func (e ResultAggregatorError) Error() string {
	return fmt.Sprintf("result aggregator %s operation failed for task %s: %v", e.Operation, e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e ResultAggregatorError) Unwrap() error {
	return e.Err
}

// NewTaskNotUpdatableError creates a new TaskNotUpdatableError.
func NewTaskNotUpdatableError(taskID string, state a2akit.TaskState) TaskNotUpdatableError {
	return TaskNotUpdatableError{
		TaskID: taskID,
		State:  state,
	}
}

// NewTaskStoreError creates a new TaskStoreError.
func NewTaskStoreError(operation, taskID string, err error) TaskStoreError {
	return TaskStoreError{
		Operation: operation,
		TaskID:    taskID,
		Err:       err,
	}
}

// NewTaskValidationError creates a new TaskValidationError.
func NewTaskValidationError(taskID string, err error) TaskValidationError {
	return TaskValidationError{
		TaskID: taskID,
		Err:    err,
	}
}

// NewResultAggregatorError creates a new ResultAggregatorError.
func NewResultAggregatorError(operation, taskID string, err error) ResultAggregatorError {
	return ResultAggregatorError{
		Operation: operation,
		TaskID:    taskID,
		Err:       err,
	}
}
