// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// backgroundTasks tracks goroutines that outlive the request that spawned
// them: drain-after-disconnect and deferred cleanup. Their errors have no
// caller to return to, so they are logged on completion; cancellation is
// logged apart from failure.
type backgroundTasks struct {
	logger *slog.Logger

	mu      sync.Mutex
	wg      sync.WaitGroup
	running map[string]int
}

func newBackgroundTasks(logger *slog.Logger) *backgroundTasks {
	return &backgroundTasks{
		logger:  logger,
		running: make(map[string]int),
	}
}

// Go runs fn on a tracked goroutine. The name and task ID identify the work
// in logs.
func (b *backgroundTasks) Go(ctx context.Context, name, taskID string, fn func(context.Context) error) {
	b.mu.Lock()
	b.running[taskID]++
	b.mu.Unlock()
	b.wg.Add(1)

	go func() {
		defer func() {
			b.mu.Lock()
			b.running[taskID]--
			if b.running[taskID] == 0 {
				delete(b.running, taskID)
			}
			b.mu.Unlock()
			b.wg.Done()
		}()

		err := fn(ctx)
		switch {
		case err == nil:
			b.logger.DebugContext(ctx, "background task finished",
				"name", name, "task_id", taskID)
		case errors.Is(err, context.Canceled):
			b.logger.InfoContext(ctx, "background task canceled",
				"name", name, "task_id", taskID)
		default:
			b.logger.ErrorContext(ctx, "background task failed",
				"name", name, "task_id", taskID, "error", err)
		}
	}()
}

// Wait blocks until all tracked goroutines have finished.
func (b *backgroundTasks) Wait() {
	b.wg.Wait()
}

// Active returns the number of tracked goroutines still running for a task.
func (b *backgroundTasks) Active(taskID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running[taskID]
}
