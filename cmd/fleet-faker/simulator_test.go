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

package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetwatch/pkg/app"
	"github.com/carverauto/fleetwatch/pkg/bus"
	"github.com/carverauto/fleetwatch/pkg/models"
)

func TestNewSimulatorIsDeterministic(t *testing.T) {
	cfg := app.DefaultConfig()

	a := NewSimulator(cfg, 5, 42, nil).Devices()
	b := NewSimulator(cfg, 5, 42, nil).Devices()

	require.Len(t, a, 5)
	assert.Equal(t, a, b)
	assert.Equal(t, models.DeviceID("wt-001"), a[0].ID)
	assert.Equal(t, models.DeviceID("wt-005"), a[4].ID)
	assert.Equal(t, []string{"offshore"}, a[2].Tags)
}

func TestRespond(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		params  string
		device  models.DeviceID
		success bool
		errPart string
	}{
		{name: "start", method: "start", device: "wt-001", success: true},
		{name: "stop", method: "stop", device: "wt-001", success: true},
		{name: "reset", method: "reset", device: "wt-001", success: true},
		{name: "power limit", method: "set_power_limit", params: `{"kw":1500}`, device: "wt-001", success: true},
		{name: "power limit missing kw", method: "set_power_limit", params: `{}`, device: "wt-001", errPart: "params"},
		{name: "power limit out of range", method: "set_power_limit", params: `{"kw":-1}`, device: "wt-001", errPart: "within"},
		{name: "unsupported", method: "explode", device: "wt-001", errPart: "unsupported method"},
		{name: "unknown device", method: "start", device: "wt-999", errPart: "unknown device"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := NewSimulator(app.DefaultConfig(), 2, 1, nil)

			params := tt.params
			if params == "" {
				params = "{}"
			}

			resp := sim.respond(bus.CommandMessage{
				CorrelationID: "c1",
				DeviceID:      tt.device,
				Method:        tt.method,
				Params:        json.RawMessage(params),
			})

			assert.Equal(t, "c1", resp.CorrelationID)
			assert.Equal(t, tt.success, resp.Success)

			if tt.success {
				assert.Empty(t, resp.Error)
				assert.NotEmpty(t, resp.Payload)

				return
			}

			assert.Contains(t, resp.Error, tt.errPart)
		})
	}
}

func TestRespondUpdatesTurbine(t *testing.T) {
	sim := NewSimulator(app.DefaultConfig(), 1, 1, nil)

	resp := sim.respond(bus.CommandMessage{CorrelationID: "c1", DeviceID: "wt-001", Method: "set_power_limit", Params: json.RawMessage(`{"kw":500}`)})
	require.True(t, resp.Success)

	var state struct {
		Running      bool    `json:"running"`
		PowerLimitKW float64 `json:"power_limit_kw"`
	}
	require.NoError(t, json.Unmarshal(resp.Payload, &state))
	assert.True(t, state.Running)
	assert.InDelta(t, 500.0, state.PowerLimitKW, 0.001)

	resp = sim.respond(bus.CommandMessage{CorrelationID: "c2", DeviceID: "wt-001", Method: "stop"})
	require.True(t, resp.Success)
	assert.False(t, sim.byID["wt-001"].running)
}

func TestRespondOfflineDevice(t *testing.T) {
	sim := NewSimulator(app.DefaultConfig(), 1, 1, nil)
	sim.byID["wt-001"].online = false

	resp := sim.respond(bus.CommandMessage{CorrelationID: "c1", DeviceID: "wt-001", Method: "start"})
	assert.False(t, resp.Success)
	assert.Equal(t, "device offline", resp.Error)
}

func TestTickProducesDecodableFrames(t *testing.T) {
	cfg := app.DefaultConfig()
	sim := NewSimulator(cfg, 4, 7, nil)

	now := time.UnixMilli(1_700_000_000_000)
	sim.clock = testclock.NewClock(now)

	var telemetry int

	for range 20 {
		for _, f := range sim.tick() {
			switch {
			case strings.HasPrefix(f.subject, cfg.Bus.TelemetrySubject("")):
				frame, err := bus.DecodeTelemetry(f.data)
				require.NoError(t, err)
				assert.Equal(t, now.UnixMilli(), frame.TsMs)
				assert.Len(t, frame.Points, len(metricNames))

				for _, p := range frame.Points {
					if p.ID == metricPowerKW {
						assert.LessOrEqual(t, p.Value, maxPowerKW)
						assert.GreaterOrEqual(t, p.Value, 0.0)
					}
				}

				telemetry++
			case strings.HasPrefix(f.subject, cfg.Bus.AlarmSubject("")):
				_, err := bus.DecodeAlarm(f.data)
				require.NoError(t, err)
			case strings.HasPrefix(f.subject, cfg.Bus.StatusSubject("")):
				_, err := bus.DecodeStatus(f.data)
				require.NoError(t, err)
			default:
				t.Fatalf("unexpected subject %s", f.subject)
			}
		}
	}

	assert.Positive(t, telemetry)
}

func TestStoppedTurbineProducesNoPower(t *testing.T) {
	sim := NewSimulator(app.DefaultConfig(), 1, 3, nil)
	tb := sim.byID["wt-001"]
	tb.running = false

	sim.step(tb)

	assert.Zero(t, tb.values[metricPowerKW])
}

func TestSeedWritesFleet(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := app.DefaultConfig()
	cfg.Redis.URL = "redis://" + mr.Addr()
	cfg.Redis.TimeoutSecs = 2

	sim := NewSimulator(cfg, 3, 9, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, sim.Seed(ctx))

	members, err := mr.SMembers("fleet:devices")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"wt-001", "wt-002", "wt-003"}, members)

	assert.Equal(t, "Turbine 2", mr.HGet("fleet:device:wt-002", "name"))
	assert.Equal(t, "rotor_rpm", mr.HGet("fleet:metrics", "1"))
}
