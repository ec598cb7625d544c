/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package supervisor

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/fleetwatch/pkg/models"
)

const (
	defaultInitialDelayMs = 1000
	defaultMaxDelayMs     = 60000
	defaultMultiplier     = 2.0
	defaultJitter         = 0.1
)

// RetryConfig controls reconnection backoff. MaxAttempts of 0 retries forever.
type RetryConfig struct {
	InitialDelayMs uint64  `json:"initial_delay_ms" yaml:"initial_delay_ms"`
	MaxDelayMs     uint64  `json:"max_delay_ms" yaml:"max_delay_ms"`
	Multiplier     float64 `json:"multiplier" yaml:"multiplier"`
	Jitter         float64 `json:"jitter" yaml:"jitter"`
	MaxAttempts    uint32  `json:"max_attempts" yaml:"max_attempts"`
}

// DefaultRetryConfig returns 1s initial, 60s cap, doubling, 10% jitter, unlimited attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelayMs: defaultInitialDelayMs,
		MaxDelayMs:     defaultMaxDelayMs,
		Multiplier:     defaultMultiplier,
		Jitter:         defaultJitter,
	}
}

// ApplyDefaults fills zero fields. Jitter and MaxAttempts are left alone
// since zero is meaningful for both.
func (c *RetryConfig) ApplyDefaults() {
	if c.InitialDelayMs == 0 {
		c.InitialDelayMs = defaultInitialDelayMs
	}

	if c.MaxDelayMs == 0 {
		c.MaxDelayMs = defaultMaxDelayMs
	}

	if c.Multiplier == 0 {
		c.Multiplier = defaultMultiplier
	}
}

// Validate checks the backoff parameters.
func (c *RetryConfig) Validate() error {
	var errs []error

	if c.InitialDelayMs == 0 {
		errs = append(errs, fmt.Errorf("%w: retry.initial_delay_ms must be > 0", models.ErrInvalid))
	}

	if c.MaxDelayMs < c.InitialDelayMs {
		errs = append(errs, fmt.Errorf("%w: retry.max_delay_ms (%d) must be >= initial_delay_ms (%d)",
			models.ErrInvalid, c.MaxDelayMs, c.InitialDelayMs))
	}

	if c.Multiplier <= 1 {
		errs = append(errs, fmt.Errorf("%w: retry.multiplier must be > 1, got %v", models.ErrInvalid, c.Multiplier))
	}

	if c.Jitter < 0 || c.Jitter > 1 {
		errs = append(errs, fmt.Errorf("%w: retry.jitter must be within [0,1], got %v", models.ErrInvalid, c.Jitter))
	}

	return errors.Join(errs...)
}

func (c *RetryConfig) initialDelay() time.Duration {
	return time.Duration(c.InitialDelayMs) * time.Millisecond
}

func (c *RetryConfig) maxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}
