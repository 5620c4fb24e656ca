// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"log/slog"
	"time"
)

// Backoff describes how often and how patiently an operation is retried.
type Backoff struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the second attempt, doubled after each failure
	MaxDelay    time.Duration // upper bound on a single delay, 0 for none
}

// delay returns the wait before the given attempt (2 or later).
func (b Backoff) delay(attempt int) time.Duration {
	d := b.BaseDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if b.MaxDelay > 0 && d >= b.MaxDelay {
			return b.MaxDelay
		}
	}
	if b.MaxDelay > 0 && d > b.MaxDelay {
		return b.MaxDelay
	}
	return d
}

// Retry calls op until it succeeds, the attempts run out or ctx is done.
// Returns the value of the successful call, or the error of the last attempt.
func Retry[T any](ctx context.Context, b Backoff, logger *slog.Logger, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if b.MaxAttempts <= 0 {
		return zero, ErrInvalidMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(b.delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return v, nil
		}
		lastErr = err
		logger.Debug("operation failed", "attempt", attempt, "max_attempts", b.MaxAttempts, "err", err)
	}

	return zero, lastErr
}
