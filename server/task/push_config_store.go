// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/a2akit/a2akit"
)

// PushNotificationConfigStore persists push notification endpoints per task.
// A task may have several configs at once (list semantics); each config is
// addressed by a server-minted config ID.
type PushNotificationConfigStore interface {
	// SetInfo registers a config for a task. A config without an ID gets
	// one minted; a config with an existing ID is replaced. The stored
	// config is returned.
	SetInfo(ctx context.Context, taskID string, config *a2akit.PushNotificationConfig) (*a2akit.PushNotificationConfig, error)

	// GetInfo returns all configs registered for a task, in registration
	// order. A task with no configs yields an empty slice, not an error.
	GetInfo(ctx context.Context, taskID string) ([]*a2akit.PushNotificationConfig, error)

	// DeleteInfo removes one config. Removing an unknown config is a
	// no-op.
	DeleteInfo(ctx context.Context, taskID, configID string) error
}

// InMemoryPushNotificationConfigStore is a process-local config store.
type InMemoryPushNotificationConfigStore struct {
	mu      sync.RWMutex
	configs map[string][]*a2akit.PushNotificationConfig
}

var _ PushNotificationConfigStore = (*InMemoryPushNotificationConfigStore)(nil)

// NewInMemoryPushNotificationConfigStore creates an empty in-memory store.
func NewInMemoryPushNotificationConfigStore() *InMemoryPushNotificationConfigStore {
	return &InMemoryPushNotificationConfigStore{
		configs: make(map[string][]*a2akit.PushNotificationConfig),
	}
}

// SetInfo registers a config for a task.
func (s *InMemoryPushNotificationConfigStore) SetInfo(ctx context.Context, taskID string, config *a2akit.PushNotificationConfig) (*a2akit.PushNotificationConfig, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}
	if config == nil {
		return nil, fmt.Errorf("push notification config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stored := *config
	if stored.ID == "" {
		stored.ID = a2akit.GeneratePushNotificationConfigID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := stored
	configs := s.configs[taskID]
	for i, existing := range configs {
		if existing.ID == stored.ID {
			configs[i] = &stored
			return &out, nil
		}
	}
	s.configs[taskID] = append(configs, &stored)
	return &out, nil
}

// GetInfo returns all configs registered for a task.
func (s *InMemoryPushNotificationConfigStore) GetInfo(ctx context.Context, taskID string) ([]*a2akit.PushNotificationConfig, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	configs := s.configs[taskID]
	out := make([]*a2akit.PushNotificationConfig, len(configs))
	for i, config := range configs {
		c := *config
		out[i] = &c
	}
	return out, nil
}

// DeleteInfo removes one config for a task.
func (s *InMemoryPushNotificationConfigStore) DeleteInfo(ctx context.Context, taskID, configID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	configs := s.configs[taskID]
	for i, existing := range configs {
		if existing.ID == configID {
			s.configs[taskID] = append(configs[:i], configs[i+1:]...)
			break
		}
	}
	if len(s.configs[taskID]) == 0 {
		delete(s.configs, taskID)
	}
	return nil
}

// PushNotificationConfigModel is the GORM model for persisted push configs.
type PushNotificationConfigModel struct {
	TaskID   string       `gorm:"primaryKey;size:36" json:"taskId"`
	ConfigID string       `gorm:"primaryKey;size:36" json:"configId"`
	URL      string       `gorm:"not null" json:"url"`
	Token    string       `json:"token"`
	Auth     MetadataJSON `gorm:"type:json" json:"auth"`
}

// TableName returns the table name for the PushNotificationConfigModel.
func (PushNotificationConfigModel) TableName() string {
	return "push_notification_configs"
}

// DatabasePushNotificationConfigStore is a GORM-backed config store.
type DatabasePushNotificationConfigStore struct {
	db *gorm.DB
}

var _ PushNotificationConfigStore = (*DatabasePushNotificationConfigStore)(nil)

// NewDatabasePushNotificationConfigStore creates a database-backed store. When
// createTable is set the backing table is migrated immediately.
func NewDatabasePushNotificationConfigStore(db *gorm.DB, createTable bool) (*DatabasePushNotificationConfigStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}
	if createTable {
		if err := db.AutoMigrate(&PushNotificationConfigModel{}); err != nil {
			return nil, NewTaskStoreError("initialize", "", err)
		}
	}
	return &DatabasePushNotificationConfigStore{db: db}, nil
}

// SetInfo registers a config for a task.
func (s *DatabasePushNotificationConfigStore) SetInfo(ctx context.Context, taskID string, config *a2akit.PushNotificationConfig) (*a2akit.PushNotificationConfig, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}
	if config == nil {
		return nil, fmt.Errorf("push notification config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stored := *config
	if stored.ID == "" {
		stored.ID = a2akit.GeneratePushNotificationConfigID()
	}

	model := &PushNotificationConfigModel{
		TaskID:   taskID,
		ConfigID: stored.ID,
		URL:      stored.URL,
		Token:    stored.Token,
	}
	if stored.Authentication != nil {
		model.Auth = MetadataJSON{Metadata: map[string]any{
			"schemes":     stored.Authentication.Schemes,
			"credentials": stored.Authentication.Credentials,
		}}
	}

	if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
		return nil, NewTaskStoreError("set_push_config", taskID, err)
	}
	return &stored, nil
}

// GetInfo returns all configs registered for a task.
func (s *DatabasePushNotificationConfigStore) GetInfo(ctx context.Context, taskID string) ([]*a2akit.PushNotificationConfig, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	var models []PushNotificationConfigModel
	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Order("config_id").Find(&models).Error; err != nil {
		return nil, NewTaskStoreError("get_push_config", taskID, err)
	}

	configs := make([]*a2akit.PushNotificationConfig, len(models))
	for i, model := range models {
		configs[i] = modelToPushConfig(&model)
	}
	return configs, nil
}

// DeleteInfo removes one config for a task.
func (s *DatabasePushNotificationConfigStore) DeleteInfo(ctx context.Context, taskID, configID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	result := s.db.WithContext(ctx).
		Where("task_id = ? AND config_id = ?", taskID, configID).
		Delete(&PushNotificationConfigModel{})
	if result.Error != nil {
		return NewTaskStoreError("delete_push_config", taskID, result.Error)
	}
	return nil
}

func modelToPushConfig(model *PushNotificationConfigModel) *a2akit.PushNotificationConfig {
	config := &a2akit.PushNotificationConfig{
		ID:    model.ConfigID,
		URL:   model.URL,
		Token: model.Token,
	}
	if model.Auth.Metadata != nil {
		auth := &a2akit.PushNotificationAuthenticationInfo{}
		if schemes, ok := model.Auth.Metadata["schemes"].([]any); ok {
			for _, scheme := range schemes {
				if s, ok := scheme.(string); ok {
					auth.Schemes = append(auth.Schemes, s)
				}
			}
		}
		if credentials, ok := model.Auth.Metadata["credentials"].(string); ok {
			auth.Credentials = credentials
		}
		config.Authentication = auth
	}
	return config
}
