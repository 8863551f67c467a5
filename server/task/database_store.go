// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/a2akit/a2akit"
)

// DatabaseTaskStore is a database implementation of TaskStore using GORM.
// Task bodies are stored as JSON columns via TaskModel.
type DatabaseTaskStore struct {
	db          *gorm.DB
	tableName   string
	createTable bool
}

var _ TaskStore = (*DatabaseTaskStore)(nil)

// DatabaseTaskStoreConfig holds configuration for DatabaseTaskStore.
type DatabaseTaskStoreConfig struct {
	DB          *gorm.DB
	TableName   string // Optional, defaults to "tasks"
	CreateTable bool   // Whether to create the table if it doesn't exist
}

// NewDatabaseTaskStore creates a new DatabaseTaskStore.
func NewDatabaseTaskStore(config DatabaseTaskStoreConfig) (*DatabaseTaskStore, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	tableName := config.TableName
	if tableName == "" {
		tableName = "tasks"
	}

	return &DatabaseTaskStore{
		db:          config.DB,
		tableName:   tableName,
		createTable: config.CreateTable,
	}, nil
}

func (s *DatabaseTaskStore) session(ctx context.Context) *gorm.DB {
	db := s.db.WithContext(ctx)
	if s.tableName != "tasks" {
		db = db.Table(s.tableName)
	}
	return db
}

// Save persists a task to the database.
func (s *DatabaseTaskStore) Save(ctx context.Context, task *a2akit.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return NewTaskValidationError(task.ID, err)
	}

	model, err := NewTaskModelFromTask(task)
	if err != nil {
		return NewTaskStoreError("save", task.ID, err)
	}

	if err := s.session(ctx).Save(model).Error; err != nil {
		return NewTaskStoreError("save", task.ID, err)
	}
	return nil
}

// Get retrieves a task by its ID from the database.
func (s *DatabaseTaskStore) Get(ctx context.Context, taskID string) (*a2akit.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	var model TaskModel
	if err := s.session(ctx).Where("id = ?", taskID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, a2akit.NewTaskNotFoundError(taskID)
		}
		return nil, NewTaskStoreError("get", taskID, err)
	}

	task, err := model.ToTask()
	if err != nil {
		return nil, NewTaskStoreError("get", taskID, err)
	}
	return task, nil
}

// Delete removes a task from the database.
func (s *DatabaseTaskStore) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	result := s.session(ctx).Where("id = ?", taskID).Delete(&TaskModel{})
	if result.Error != nil {
		return NewTaskStoreError("delete", taskID, result.Error)
	}
	if result.RowsAffected == 0 {
		return a2akit.NewTaskNotFoundError(taskID)
	}
	return nil
}

// List retrieves tasks with optional filtering.
func (s *DatabaseTaskStore) List(ctx context.Context, contextID string, limit, offset int) ([]*a2akit.Task, error) {
	db := s.session(ctx)
	if contextID != "" {
		db = db.Where("context_id = ?", contextID)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}

	var models []TaskModel
	if err := db.Order("id").Find(&models).Error; err != nil {
		return nil, NewTaskStoreError("list", "", err)
	}

	tasks := make([]*a2akit.Task, len(models))
	for i := range models {
		task, err := models[i].ToTask()
		if err != nil {
			return nil, NewTaskStoreError("list", models[i].ID, err)
		}
		tasks[i] = task
	}
	return tasks, nil
}

// Count returns the total number of tasks in the database.
func (s *DatabaseTaskStore) Count(ctx context.Context, contextID string) (int64, error) {
	query := s.session(ctx).Model(&TaskModel{})
	if contextID != "" {
		query = query.Where("context_id = ?", contextID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, NewTaskStoreError("count", "", err)
	}
	return count, nil
}

// Initialize prepares the database for use, creating the tasks table when
// configured to do so.
func (s *DatabaseTaskStore) Initialize(ctx context.Context) error {
	if !s.createTable {
		return nil
	}

	migrator := s.db.WithContext(ctx)
	if s.tableName != "tasks" {
		migrator = migrator.Table(s.tableName)
	}
	if err := migrator.AutoMigrate(&TaskModel{}); err != nil {
		return NewTaskStoreError("initialize", "", err)
	}
	return nil
}

// Close cleanly shuts down the database store. The underlying connection is
// owned by the caller.
func (s *DatabaseTaskStore) Close(ctx context.Context) error {
	return nil
}

// Transaction executes a function within a database transaction.
func (s *DatabaseTaskStore) Transaction(ctx context.Context, fn func(TaskStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txStore := &DatabaseTaskStore{
			db:          tx,
			tableName:   s.tableName,
			createTable: s.createTable,
		}
		return fn(txStore)
	})
}
