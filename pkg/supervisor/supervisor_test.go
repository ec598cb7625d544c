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
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetwatch/pkg/models"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.ConnectionState
}

func (r *recordingSink) Emit(ev models.ServiceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cs, ok := ev.(models.ConnectionState); ok {
		r.events = append(r.events, cs)
	}
}

func (r *recordingSink) byState(state models.ConnState) []models.ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ConnectionState

	for _, ev := range r.events {
		if ev.State == state {
			out = append(out, ev)
		}
	}

	return out
}

func TestBackoffSequenceWithoutJitter(t *testing.T) {
	sink := &recordingSink{}
	sup := New("pulsar", RetryConfig{
		InitialDelayMs: 1000,
		MaxDelayMs:     60000,
		Multiplier:     2,
		Jitter:         0,
	}, sink)

	var delays []time.Duration

	for range 4 {
		d, ok := sup.NextRetryDelay()
		require.True(t, ok)

		delays = append(delays, d)
	}

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, delays)

	backoffs := sink.byState(models.StateBackoff)
	require.Len(t, backoffs, 4)

	for i, ev := range backoffs {
		assert.Equal(t, uint32(i+1), ev.Attempt)
		assert.Equal(t, "pulsar", ev.Service)
		assert.False(t, ev.Connected)
	}

	assert.Equal(t, "reconnecting in 8.0s (attempt 4/∞)", backoffs[3].Detail)
}

func TestDelayCappedAtMax(t *testing.T) {
	sup := New("redis", RetryConfig{InitialDelayMs: 1000, MaxDelayMs: 5000, Multiplier: 3}, nil)

	var last time.Duration

	for range 10 {
		d, ok := sup.NextRetryDelay()
		require.True(t, ok)

		last = d
	}

	assert.Equal(t, 5*time.Second, last)
}

func TestJitteredDelayStaysInBounds(t *testing.T) {
	cases := []struct {
		name string
		cfg  RetryConfig
	}{
		{"defaults", DefaultRetryConfig()},
		{"full jitter", RetryConfig{InitialDelayMs: 250, MaxDelayMs: 10000, Multiplier: 1.5, Jitter: 1}},
		{"capped early", RetryConfig{InitialDelayMs: 1000, MaxDelayMs: 1500, Multiplier: 4, Jitter: 0.5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sup := New("svc", tc.cfg, nil)

			initial := float64(tc.cfg.InitialDelayMs) * float64(time.Millisecond)
			maxDelay := float64(tc.cfg.MaxDelayMs) * float64(time.Millisecond)

			for n := 1; n <= 25; n++ {
				d, ok := sup.NextRetryDelay()
				require.True(t, ok)

				nominal := initial * math.Pow(tc.cfg.Multiplier, float64(n-1))
				lower := math.Max(0, math.Min(nominal, maxDelay)*(1-tc.cfg.Jitter))
				upper := math.Min(maxDelay, nominal*(1+tc.cfg.Jitter))

				assert.GreaterOrEqual(t, float64(d), lower-1, "attempt %d", n)
				assert.LessOrEqual(t, float64(d), upper+1, "attempt %d", n)
			}
		})
	}
}

func TestJitterSpreadsFirstDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelayMs: 1000, MaxDelayMs: 60000, Multiplier: 2, Jitter: 0.5}

	seen := make(map[time.Duration]struct{})

	for range 200 {
		d, ok := New("svc", cfg, nil).NextRetryDelay()
		require.True(t, ok)

		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)

		seen[d] = struct{}{}
	}

	assert.Greater(t, len(seen), 1)
}

func TestMaxAttemptsExhausted(t *testing.T) {
	sink := &recordingSink{}
	sup := New("redis", RetryConfig{InitialDelayMs: 10, MaxDelayMs: 100, Multiplier: 2, MaxAttempts: 2}, sink)

	_, ok := sup.NextRetryDelay()
	require.True(t, ok)

	_, ok = sup.NextRetryDelay()
	require.True(t, ok)
	assert.Contains(t, sup.State().Detail, "attempt 2/2")

	_, ok = sup.NextRetryDelay()
	require.False(t, ok)

	state := sup.State()
	assert.Equal(t, models.StateDisconnected, state.State)
	assert.Equal(t, "max attempts (2) reached", state.Detail)
}

func TestConnectResetsAttempts(t *testing.T) {
	sink := &recordingSink{}
	cfg := DefaultRetryConfig()
	cfg.Jitter = 0
	sup := New("redis", cfg, sink)

	sup.Connecting()
	sup.NextRetryDelay()
	sup.NextRetryDelay()
	require.Equal(t, uint32(2), sup.Attempt())

	sup.OnConnected()
	assert.Equal(t, uint32(0), sup.Attempt())
	assert.True(t, sup.IsConnected())
	assert.True(t, sup.State().Connected)

	d, ok := sup.NextRetryDelay()
	require.True(t, ok)
	assert.Equal(t, time.Second, d)

	sup.OnDisconnected("connection reset")
	assert.False(t, sup.IsConnected())
	assert.Equal(t, "connection reset", sup.State().Detail)

	require.Len(t, sink.byState(models.StateConnecting), 1)
	require.Len(t, sink.byState(models.StateConnected), 1)
	require.Len(t, sink.byState(models.StateDisconnected), 1)
}

func TestRetryConfigValidate(t *testing.T) {
	good := DefaultRetryConfig()
	require.NoError(t, good.Validate())

	bad := RetryConfig{InitialDelayMs: 0, MaxDelayMs: 0, Multiplier: 1, Jitter: 1.5}
	err := bad.Validate()
	require.ErrorIs(t, err, models.ErrInvalid)
	assert.Contains(t, err.Error(), "multiplier")
	assert.Contains(t, err.Error(), "jitter")
	assert.Contains(t, err.Error(), "initial_delay_ms")

	var partial RetryConfig
	partial.ApplyDefaults()
	assert.Equal(t, DefaultRetryConfig().InitialDelayMs, partial.InitialDelayMs)
	assert.Zero(t, partial.Jitter)
}

func TestWaitUsesClock(t *testing.T) {
	clk := testclock.NewClock(time.Unix(0, 0))
	done := make(chan error, 1)

	go func() {
		done <- Wait(context.Background(), clk, 2*time.Second)
	}()

	require.NoError(t, clk.WaitAdvance(2*time.Second, time.Second, 1))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the clock advanced")
	}
}

func TestWaitCancelled(t *testing.T) {
	clk := testclock.NewClock(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, Wait(ctx, clk, time.Hour), context.Canceled)
}
