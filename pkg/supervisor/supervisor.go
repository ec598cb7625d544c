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

// Package supervisor implements the per-service reconnection policy: a
// Disconnected/Connecting/Connected/Backoff state machine with exponential
// backoff and symmetric jitter. It performs no I/O itself.
package supervisor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/juju/clock"

	"github.com/carverauto/fleetwatch/pkg/logger"
	"github.com/carverauto/fleetwatch/pkg/models"
)

// Sink receives every state transition.
type Sink interface {
	Emit(ev models.ServiceEvent)
}

// Supervisor tracks the connection state of one external service.
type Supervisor struct {
	name   string
	cfg    RetryConfig
	sink   Sink
	logger logger.Logger

	mu      sync.Mutex
	backoff *backoff.ExponentialBackOff
	state   models.ConnState
	attempt uint32
	detail  string
}

// Option customizes a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger used for transition logs.
func WithLogger(log logger.Logger) Option {
	return func(s *Supervisor) {
		s.logger = log
	}
}

// New creates a supervisor in the Disconnected state. A nil sink discards transitions.
func New(name string, cfg RetryConfig, sink Sink, opts ...Option) *Supervisor {
	cfg.ApplyDefaults()

	s := &Supervisor{
		name:   name,
		cfg:    cfg,
		sink:   sink,
		state:  models.StateDisconnected,
		detail: "not started",
	}

	s.backoff = &backoff.ExponentialBackOff{
		InitialInterval:     cfg.initialDelay(),
		RandomizationFactor: cfg.Jitter,
		Multiplier:          cfg.Multiplier,
		MaxInterval:         cfg.maxDelay(),
	}
	s.backoff.Reset()

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.NewTestLogger()
	}

	return s
}

// Name returns the service name reported in ConnectionState events.
func (s *Supervisor) Name() string {
	return s.name
}

// Connecting records that a dial is in progress.
func (s *Supervisor) Connecting() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transition(models.StateConnecting, "connecting")
}

// OnConnected resets the attempt counter.
func (s *Supervisor) OnConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempt = 0
	s.backoff.Reset()
	s.transition(models.StateConnected, "connected")

	s.logger.Info().Str("service", s.name).Msg("Connected")
}

// OnDisconnected records a detected link failure.
func (s *Supervisor) OnDisconnected(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transition(models.StateDisconnected, reason)

	s.logger.Warn().Str("service", s.name).Str("reason", reason).Msg("Disconnected")
}

// NextRetryDelay is called after a failed attempt. It returns false once
// MaxAttempts is exhausted, leaving the supervisor Disconnected.
func (s *Supervisor) NextRetryDelay() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempt++
	n := s.attempt

	if s.cfg.MaxAttempts > 0 && n > s.cfg.MaxAttempts {
		s.transition(models.StateDisconnected, fmt.Sprintf("max attempts (%d) reached", s.cfg.MaxAttempts))

		s.logger.Error().Str("service", s.name).Uint32("attempt", n).Msg("Giving up reconnecting")

		return 0, false
	}

	delay := s.nextDelay()

	total := "∞"
	if s.cfg.MaxAttempts > 0 {
		total = fmt.Sprintf("%d", s.cfg.MaxAttempts)
	}

	s.transition(models.StateBackoff,
		fmt.Sprintf("reconnecting in %.1fs (attempt %d/%s)", delay.Seconds(), n, total))

	s.logger.Info().
		Str("service", s.name).
		Uint32("attempt", n).
		Dur("delay", delay).
		Msg("Scheduling reconnect")

	return delay, true
}

// nextDelay takes the next jittered delay from the exponential schedule
// (initial*multiplier^(n-1), capped at max) and clamps it to [0, max].
func (s *Supervisor) nextDelay() time.Duration {
	maxDelay := float64(s.cfg.maxDelay())
	delay := float64(s.backoff.NextBackOff())

	return time.Duration(math.Max(0, math.Min(delay, maxDelay)))
}

// State returns the current state as a ConnectionState event value.
func (s *Supervisor) State() models.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

// IsConnected reports whether the last transition was to Connected.
func (s *Supervisor) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == models.StateConnected
}

// Attempt returns the number of consecutive failed attempts.
func (s *Supervisor) Attempt() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.attempt
}

// transition must be called with mu held. Emitting under the lock keeps the
// event order identical to the transition order.
func (s *Supervisor) transition(state models.ConnState, detail string) {
	s.state = state
	s.detail = detail

	if s.sink != nil {
		s.sink.Emit(s.snapshot())
	}
}

func (s *Supervisor) snapshot() models.ConnectionState {
	return models.ConnectionState{
		Service:   s.name,
		Connected: s.state == models.StateConnected,
		Detail:    s.detail,
		State:     s.state,
		Attempt:   s.attempt,
	}
}

// Wait sleeps for d on clk, returning early with the context error.
func Wait(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := clk.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
