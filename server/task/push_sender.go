// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/a2akit/a2akit"
)

// PushNotificationSender delivers task state snapshots to registered push
// endpoints.
type PushNotificationSender interface {
	// SendNotification delivers the task snapshot to every push endpoint
	// registered for it. Delivery is best effort: individual endpoint
	// failures are logged, never returned.
	SendNotification(ctx context.Context, task *a2akit.Task) error
}

// HTTPPushNotificationSender implements PushNotificationSender over HTTP
// POST. Each registered endpoint receives the JSON-serialized task; endpoints
// are notified concurrently.
type HTTPPushNotificationSender struct {
	client      *http.Client
	timeout     time.Duration
	configStore PushNotificationConfigStore
	signer      *PushNotificationSigner
	logger      *slog.Logger
}

var _ PushNotificationSender = (*HTTPPushNotificationSender)(nil)

// HTTPPushNotificationSenderConfig holds configuration for
// HTTPPushNotificationSender.
type HTTPPushNotificationSenderConfig struct {
	Client      *http.Client
	Timeout     time.Duration
	ConfigStore PushNotificationConfigStore
	Signer      *PushNotificationSigner // optional JWT request signing
	Logger      *slog.Logger
}

// NewHTTPPushNotificationSender creates a new HTTP-based push notification
// sender.
func NewHTTPPushNotificationSender(config HTTPPushNotificationSenderConfig) *HTTPPushNotificationSender {
	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPPushNotificationSender{
		client:      client,
		timeout:     timeout,
		configStore: config.ConfigStore,
		signer:      config.Signer,
		logger:      logger,
	}
}

// SendNotification delivers the task snapshot to every registered endpoint.
func (s *HTTPPushNotificationSender) SendNotification(ctx context.Context, task *a2akit.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if s.configStore == nil {
		return nil
	}

	configs, err := s.configStore.GetInfo(ctx, task.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch push notification configs: %w", err)
	}
	if len(configs) == 0 {
		return nil
	}

	results := make(chan bool, len(configs))
	var wg sync.WaitGroup
	for _, config := range configs {
		wg.Add(1)
		go func(cfg *a2akit.PushNotificationConfig) {
			defer wg.Done()
			results <- s.dispatch(ctx, task, cfg)
		}(config)
	}
	wg.Wait()
	close(results)

	var successCount, failureCount int
	for ok := range results {
		if ok {
			successCount++
		} else {
			failureCount++
		}
	}
	if failureCount > 0 {
		s.logger.WarnContext(ctx, "some push notifications failed to send",
			"task_id", task.ID,
			"success_count", successCount,
			"failure_count", failureCount)
	}
	return nil
}

// dispatch sends the task snapshot to a single endpoint. Returns true on
// success.
func (s *HTTPPushNotificationSender) dispatch(ctx context.Context, task *a2akit.Task, config *a2akit.PushNotificationConfig) bool {
	if err := config.Validate(); err != nil {
		s.logger.ErrorContext(ctx, "invalid push notification config",
			"task_id", task.ID, "url", config.URL, "error", err)
		return false
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(task)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to marshal task for push notification",
			"task_id", task.ID, "url", config.URL, "error", err)
		return false
	}

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, config.URL, bytes.NewReader(body))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create push notification request",
			"task_id", task.ID, "url", config.URL, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "a2akit-push-notification-sender")
	if config.Token != "" {
		req.Header.Set("X-A2A-Notification-Token", config.Token)
	}
	if err := s.authorize(req, config, body); err != nil {
		s.logger.ErrorContext(ctx, "failed to authorize push notification request",
			"task_id", task.ID, "url", config.URL, "error", err)
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.ErrorContext(ctx, "error sending push notification",
			"task_id", task.ID, "url", config.URL, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		s.logger.ErrorContext(ctx, "error sending push notification",
			"task_id", task.ID,
			"url", config.URL,
			"status", resp.StatusCode,
			"body", string(respBody))
		return false
	}

	s.logger.InfoContext(ctx, "push notification sent",
		"task_id", task.ID, "url", config.URL)
	return true
}

func (s *HTTPPushNotificationSender) authorize(req *http.Request, config *a2akit.PushNotificationConfig, body []byte) error {
	if s.signer != nil {
		token, err := s.signer.Sign(body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}

	auth := config.Authentication
	if auth == nil || auth.Credentials == "" {
		return nil
	}
	for _, scheme := range auth.Schemes {
		switch scheme {
		case "basic":
			req.Header.Set("Authorization", "Basic "+auth.Credentials)
		case "bearer":
			req.Header.Set("Authorization", "Bearer "+auth.Credentials)
		case "api_key":
			req.Header.Set("X-API-Key", auth.Credentials)
		default:
			return fmt.Errorf("unsupported authentication scheme: %s", scheme)
		}
	}
	return nil
}

// NoOpPushNotificationSender discards all notifications. Useful for tests and
// deployments without push notifications.
type NoOpPushNotificationSender struct{}

var _ PushNotificationSender = (*NoOpPushNotificationSender)(nil)

// NewNoOpPushNotificationSender creates a push notification sender that does
// nothing.
func NewNoOpPushNotificationSender() *NoOpPushNotificationSender {
	return &NoOpPushNotificationSender{}
}

// SendNotification does nothing.
func (s *NoOpPushNotificationSender) SendNotification(ctx context.Context, task *a2akit.Task) error {
	return nil
}
