// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"database/sql/driver"
	"fmt"

	"github.com/go-json-experiment/json"
	"gorm.io/gorm"

	"github.com/a2akit/a2akit"
)

// TaskStatusJSON stores a TaskStatus as a JSON database column.
type TaskStatusJSON struct {
	a2akit.TaskStatus
}

// Value implements the driver.Valuer interface for database storage.
func (ts TaskStatusJSON) Value() (driver.Value, error) {
	data, err := json.Marshal(ts.TaskStatus)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (ts *TaskStatusJSON) Scan(value any) error {
	bytes, err := jsonColumnBytes(value)
	if err != nil {
		return fmt.Errorf("cannot scan TaskStatusJSON: %w", err)
	}
	if bytes == nil {
		*ts = TaskStatusJSON{}
		return nil
	}

	var status a2akit.TaskStatus
	if err := json.Unmarshal(bytes, &status); err != nil {
		return fmt.Errorf("cannot unmarshal TaskStatusJSON: %w", err)
	}
	ts.TaskStatus = status
	return nil
}

// MessageSliceJSON stores a message history as a JSON database column.
type MessageSliceJSON struct {
	Messages []*a2akit.Message
}

// Value implements the driver.Valuer interface for database storage.
func (ms MessageSliceJSON) Value() (driver.Value, error) {
	if ms.Messages == nil {
		return nil, nil
	}
	data, err := json.Marshal(ms.Messages)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (ms *MessageSliceJSON) Scan(value any) error {
	bytes, err := jsonColumnBytes(value)
	if err != nil {
		return fmt.Errorf("cannot scan MessageSliceJSON: %w", err)
	}
	if bytes == nil {
		*ms = MessageSliceJSON{}
		return nil
	}

	var messages []*a2akit.Message
	if err := json.Unmarshal(bytes, &messages); err != nil {
		return fmt.Errorf("cannot unmarshal MessageSliceJSON: %w", err)
	}
	ms.Messages = messages
	return nil
}

// ArtifactSliceJSON stores task artifacts as a JSON database column.
type ArtifactSliceJSON struct {
	Artifacts []*a2akit.Artifact
}

// Value implements the driver.Valuer interface for database storage.
func (as ArtifactSliceJSON) Value() (driver.Value, error) {
	if as.Artifacts == nil {
		return nil, nil
	}
	data, err := json.Marshal(as.Artifacts)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (as *ArtifactSliceJSON) Scan(value any) error {
	bytes, err := jsonColumnBytes(value)
	if err != nil {
		return fmt.Errorf("cannot scan ArtifactSliceJSON: %w", err)
	}
	if bytes == nil {
		*as = ArtifactSliceJSON{}
		return nil
	}

	var artifacts []*a2akit.Artifact
	if err := json.Unmarshal(bytes, &artifacts); err != nil {
		return fmt.Errorf("cannot unmarshal ArtifactSliceJSON: %w", err)
	}
	as.Artifacts = artifacts
	return nil
}

// MetadataJSON stores extension metadata as a JSON database column.
type MetadataJSON struct {
	Metadata map[string]any
}

// Value implements the driver.Valuer interface for database storage.
func (mj MetadataJSON) Value() (driver.Value, error) {
	if mj.Metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(mj.Metadata)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (mj *MetadataJSON) Scan(value any) error {
	bytes, err := jsonColumnBytes(value)
	if err != nil {
		return fmt.Errorf("cannot scan MetadataJSON: %w", err)
	}
	if bytes == nil {
		*mj = MetadataJSON{}
		return nil
	}

	var metadata map[string]any
	if err := json.Unmarshal(bytes, &metadata); err != nil {
		return fmt.Errorf("cannot unmarshal MetadataJSON: %w", err)
	}
	mj.Metadata = metadata
	return nil
}

func jsonColumnBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", value)
	}
}

// TaskModel is the GORM model for persisted tasks. Status, history, artifacts
// and metadata are stored as JSON columns.
type TaskModel struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	ContextID string            `gorm:"size:36;not null;index" json:"contextId"`
	Kind      string            `gorm:"size:16;default:task;not null" json:"kind"`
	Status    TaskStatusJSON    `gorm:"type:json" json:"status"`
	History   MessageSliceJSON  `gorm:"type:json" json:"history"`
	Artifacts ArtifactSliceJSON `gorm:"type:json" json:"artifacts"`
	Metadata  MetadataJSON      `gorm:"type:json" json:"metadata"`
}

// TableName returns the table name for the TaskModel.
func (TaskModel) TableName() string {
	return "tasks"
}

// Validate ensures the TaskModel is in a valid state.
func (tm *TaskModel) Validate() error {
	if tm.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if tm.ContextID == "" {
		return fmt.Errorf("task context ID cannot be empty")
	}
	if tm.Status.State == "" {
		return fmt.Errorf("task status state cannot be empty")
	}
	return nil
}

// BeforeCreate is a GORM hook called before creating a record.
func (tm *TaskModel) BeforeCreate(tx *gorm.DB) error {
	return tm.Validate()
}

// BeforeUpdate is a GORM hook called before updating a record.
func (tm *TaskModel) BeforeUpdate(tx *gorm.DB) error {
	return tm.Validate()
}

// NewTaskModelFromTask converts a Task into its database model.
func NewTaskModelFromTask(task *a2akit.Task) (*TaskModel, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("task is invalid: %w", err)
	}

	kind := string(task.Kind)
	if kind == "" {
		kind = string(a2akit.TaskEventKind)
	}

	return &TaskModel{
		ID:        task.ID,
		ContextID: task.ContextID,
		Kind:      kind,
		Status:    TaskStatusJSON{task.Status},
		History:   MessageSliceJSON{Messages: task.History},
		Artifacts: ArtifactSliceJSON{Artifacts: task.Artifacts},
		Metadata:  MetadataJSON{Metadata: task.Metadata},
	}, nil
}

// ToTask converts a TaskModel back into a Task.
func (tm *TaskModel) ToTask() (*a2akit.Task, error) {
	if err := tm.Validate(); err != nil {
		return nil, fmt.Errorf("task model is invalid: %w", err)
	}

	return &a2akit.Task{
		ID:        tm.ID,
		ContextID: tm.ContextID,
		Kind:      a2akit.EventKind(tm.Kind),
		Status:    tm.Status.TaskStatus,
		History:   tm.History.Messages,
		Artifacts: tm.Artifacts.Artifacts,
		Metadata:  tm.Metadata.Metadata,
	}, nil
}
