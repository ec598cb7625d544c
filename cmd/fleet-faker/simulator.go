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
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/fleetwatch/pkg/app"
	"github.com/carverauto/fleetwatch/pkg/bus"
	"github.com/carverauto/fleetwatch/pkg/logger"
	"github.com/carverauto/fleetwatch/pkg/metastore"
	"github.com/carverauto/fleetwatch/pkg/models"
	"github.com/carverauto/fleetwatch/pkg/natsutil"
	"github.com/carverauto/fleetwatch/pkg/supervisor"
)

const (
	defaultDevices = 10
	seedTimeout    = 30 * time.Second

	// Per-tick probabilities.
	alarmChance  = 0.02
	statusChance = 0.01

	maxPowerKW = 3000.0
)

const (
	metricRotorRPM uint16 = iota + 1
	metricPowerKW
	metricWindSpeed
	metricNacelleTemp
	metricPitch
)

var metricNames = []models.MetricName{
	{ID: metricRotorRPM, Name: "rotor_rpm"},
	{ID: metricPowerKW, Name: "power_kw"},
	{ID: metricWindSpeed, Name: "wind_speed_ms"},
	{ID: metricNacelleTemp, Name: "nacelle_temp_c"},
	{ID: metricPitch, Name: "pitch_deg"},
}

var (
	sites         = []string{"north-ridge", "coastal-a", "coastal-b", "valley"}
	turbineModels = []string{"V90", "V112", "SG 8.0", "GE 2.7"}
	alarms        = []struct {
		code     uint32
		message  string
		severity models.AlarmSeverity
	}{
		{101, "gearbox oil temperature high", models.SeverityWarning},
		{102, "yaw misalignment", models.SeverityInfo},
		{201, "generator overtemp", models.SeverityError},
		{202, "pitch system fault", models.SeverityError},
		{301, "grid loss", models.SeverityCritical},
	}
)

type turbine struct {
	meta         models.DeviceMeta
	online       bool
	running      bool
	powerLimitKW float64
	values       map[uint16]float64
}

// Simulator owns a synthetic fleet and the connections it publishes on.
type Simulator struct {
	cfg    *app.Config
	logger logger.Logger
	clock  clock.Clock

	mu       sync.Mutex
	rng      *rand.Rand
	turbines []*turbine
	byID     map[models.DeviceID]*turbine
}

// NewSimulator generates n turbines from seed.
func NewSimulator(cfg *app.Config, n int, seed uint64, log logger.Logger) *Simulator {
	if log == nil {
		log = logger.NewTestLogger()
	}

	s := &Simulator{
		cfg:    cfg,
		logger: log,
		clock:  clock.WallClock,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		byID:   make(map[models.DeviceID]*turbine, n),
	}

	for i := range n {
		t := s.newTurbine(i + 1)
		s.turbines = append(s.turbines, t)
		s.byID[t.meta.ID] = t
	}

	return s
}

func (s *Simulator) newTurbine(index int) *turbine {
	meta := models.DeviceMeta{
		ID:       models.DeviceID(fmt.Sprintf("wt-%03d", index)),
		Name:     fmt.Sprintf("Turbine %d", index),
		Site:     sites[s.rng.IntN(len(sites))],
		Model:    turbineModels[s.rng.IntN(len(turbineModels))],
		Firmware: fmt.Sprintf("2.%d.%d", s.rng.IntN(5), s.rng.IntN(20)),
	}

	if index%3 == 0 {
		meta.Tags = []string{"offshore"}
	}

	return &turbine{
		meta:         meta,
		online:       true,
		running:      true,
		powerLimitKW: maxPowerKW,
		values: map[uint16]float64{
			metricRotorRPM:    12 + s.rng.Float64()*4,
			metricPowerKW:     1200 + s.rng.Float64()*600,
			metricWindSpeed:   8 + s.rng.Float64()*4,
			metricNacelleTemp: 35 + s.rng.Float64()*10,
			metricPitch:       2 + s.rng.Float64()*3,
		},
	}
}

// Devices returns the generated device descriptions.
func (s *Simulator) Devices() []models.DeviceMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.DeviceMeta, 0, len(s.turbines))
	for _, t := range s.turbines {
		out = append(out, t.meta.Clone())
	}

	return out
}

// Seed writes the fleet and the metric dictionary into the metadata store.
func (s *Simulator) Seed(ctx context.Context) error {
	sup := supervisor.New("redis", s.cfg.Retry, nil, supervisor.WithLogger(s.logger))
	store := metastore.New(s.cfg.Redis, sup, logger.Component(s.logger, "metastore"))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)

	go func() { done <- store.Run(runCtx) }()

	defer func() {
		cancel()
		<-done
	}()

	waitCtx, waitCancel := context.WithTimeout(ctx, seedTimeout)
	defer waitCancel()

	if err := store.WaitConnected(waitCtx); err != nil {
		return err
	}

	for _, meta := range s.Devices() {
		if err := store.UpsertDevice(ctx, meta); err != nil {
			return fmt.Errorf("upsert %s: %w", meta.ID, err)
		}
	}

	if err := store.SetMetricNames(ctx, metricNames); err != nil {
		return fmt.Errorf("set metric names: %w", err)
	}

	s.logger.Info().Int("devices", len(s.turbines)).Msg("Seeded metadata store")

	return nil
}

// outbound is one frame ready to publish.
type outbound struct {
	subject string
	data    []byte
}

// Run publishes telemetry every rate and answers commands until ctx ends
// or the connection closes.
func (s *Simulator) Run(ctx context.Context, rate time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	nc, err := natsutil.ConnectWithSecurity(s.cfg.Bus.URL, s.cfg.Bus.Security, s.logger, natsutil.Handlers{
		OnClosed: cancel,
	})
	if err != nil {
		return fmt.Errorf("connect to bus: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create jetstream context: %w", err)
	}

	if _, err := natsutil.EnsureStream(ctx, js, s.cfg.Bus.Stream(), s.cfg.Bus.StreamSubject()); err != nil {
		return err
	}

	sub, err := nc.Subscribe(s.cfg.Bus.CommandFilter(), func(msg *nats.Msg) {
		s.handleCommand(ctx, js, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	s.publish(ctx, js, s.statusFrames())

	s.logger.Info().
		Int("devices", len(s.turbines)).
		Dur("rate", rate).
		Str("stream", s.cfg.Bus.Stream()).
		Msg("Simulator running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(rate):
		}

		s.publish(ctx, js, s.tick())
	}
}

func (s *Simulator) publish(ctx context.Context, js jetstream.JetStream, frames []outbound) {
	for _, f := range frames {
		if _, err := js.Publish(ctx, f.subject, f.data); err != nil {
			s.logger.Warn().Err(err).Str("subject", f.subject).Msg("Publish failed")

			return
		}
	}
}

func (s *Simulator) statusFrames() []outbound {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UnixMilli()
	out := make([]outbound, 0, len(s.turbines))

	for _, t := range s.turbines {
		out = s.appendStatus(out, t, now)
	}

	return out
}

// appendFrame adds an encoded frame to out. Frames that fail to encode are
// logged and skipped.
func (s *Simulator) appendFrame(out []outbound, subject string, data []byte, err error) []outbound {
	if err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("Dropping unencodable frame")

		return out
	}

	return append(out, outbound{subject: subject, data: data})
}

func (s *Simulator) appendStatus(out []outbound, t *turbine, now int64) []outbound {
	data, err := bus.MarshalStatus(bus.StatusFrame{DeviceID: t.meta.ID, TsMs: now, Online: t.online})

	return s.appendFrame(out, s.cfg.Bus.StatusSubject(t.meta.ID), data, err)
}

// tick advances every turbine one step and returns the frames to publish.
func (s *Simulator) tick() []outbound {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UnixMilli()

	var out []outbound

	for _, t := range s.turbines {
		if s.rng.Float64() < statusChance {
			t.online = !t.online
			out = s.appendStatus(out, t, now)
		}

		if !t.online {
			continue
		}

		s.step(t)

		points := make([]models.MetricPoint, 0, len(metricNames))
		for _, m := range metricNames {
			points = append(points, models.MetricPoint{ID: m.ID, Value: t.values[m.ID]})
		}

		data, err := bus.MarshalTelemetry(bus.TelemetryFrame{DeviceID: t.meta.ID, TsMs: now, Points: points})
		out = s.appendFrame(out, s.cfg.Bus.TelemetrySubject(t.meta.ID), data, err)

		if s.rng.Float64() < alarmChance {
			a := alarms[s.rng.IntN(len(alarms))]
			data, err := bus.MarshalAlarm(bus.AlarmFrame{
				DeviceID: t.meta.ID,
				TsMs:     now,
				Code:     a.code,
				Message:  a.message,
				Severity: a.severity,
			})
			out = s.appendFrame(out, s.cfg.Bus.AlarmSubject(t.meta.ID), data, err)
		}
	}

	return out
}

// step is a bounded random walk; a stopped turbine spins down.
func (s *Simulator) step(t *turbine) {
	wind := clamp(t.values[metricWindSpeed]+s.rng.NormFloat64()*0.3, 0, 30)
	t.values[metricWindSpeed] = wind

	if !t.running {
		t.values[metricRotorRPM] = math.Max(0, t.values[metricRotorRPM]*0.8)
		t.values[metricPowerKW] = 0

		return
	}

	t.values[metricRotorRPM] = clamp(wind*1.4+s.rng.NormFloat64()*0.2, 0, 20)
	t.values[metricPowerKW] = clamp(wind*wind*wind*1.8, 0, t.powerLimitKW)
	t.values[metricNacelleTemp] = clamp(t.values[metricNacelleTemp]+s.rng.NormFloat64()*0.1, -20, 90)
	t.values[metricPitch] = clamp(t.values[metricPitch]+s.rng.NormFloat64()*0.05, 0, 90)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func (s *Simulator) handleCommand(ctx context.Context, js jetstream.JetStream, msg *nats.Msg) {
	var cmd bus.CommandMessage
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		s.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("Ignoring undecodable command")

		return
	}

	resp := s.respond(cmd)

	body, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode command response")

		return
	}

	out := nats.NewMsg(s.cfg.Bus.ResponseSubject())
	out.Header.Set(bus.HeaderCorrelationID, cmd.CorrelationID)
	out.Data = body

	if _, err := js.PublishMsg(ctx, out); err != nil {
		s.logger.Warn().Err(err).Str("correlation_id", cmd.CorrelationID).Msg("Failed to publish command response")

		return
	}

	s.logger.Info().
		Str("device_id", string(cmd.DeviceID)).
		Str("method", cmd.Method).
		Bool("success", resp.Success).
		Msg("Answered command")
}

type powerLimitParams struct {
	KW *float64 `json:"kw"`
}

// respond applies cmd to the simulated turbine.
func (s *Simulator) respond(cmd bus.CommandMessage) bus.CommandResponse {
	resp := bus.CommandResponse{CorrelationID: cmd.CorrelationID}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[cmd.DeviceID]
	if !ok {
		resp.Error = fmt.Sprintf("unknown device %s", cmd.DeviceID)

		return resp
	}

	if !t.online {
		resp.Error = "device offline"

		return resp
	}

	switch cmd.Method {
	case "start":
		t.running = true
	case "stop":
		t.running = false
	case "reset":
		t.running = true
		t.powerLimitKW = maxPowerKW
	case "set_power_limit":
		var p powerLimitParams
		if err := json.Unmarshal(cmd.Params, &p); err != nil || p.KW == nil {
			resp.Error = "params must be {\"kw\": number}"

			return resp
		}

		if *p.KW < 0 || *p.KW > maxPowerKW {
			resp.Error = fmt.Sprintf("kw must be within [0, %.0f]", maxPowerKW)

			return resp
		}

		t.powerLimitKW = *p.KW
	default:
		resp.Error = fmt.Sprintf("unsupported method %q", cmd.Method)

		return resp
	}

	state, _ := json.Marshal(map[string]any{
		"running":        t.running,
		"power_limit_kw": t.powerLimitKW,
	})

	resp.Success = true
	resp.Payload = state

	return resp
}
