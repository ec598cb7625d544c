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

package fleet

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/fleetwatch/pkg/models"
)

const (
	defaultBatchSize          = 2048
	defaultIntervalMs         = 100
	defaultEventsPerDevice    = 200
	defaultAlarmsPerDevice    = 200
	defaultTelemetryHistory   = 1000
	defaultGlobalLog          = 5000
	defaultPendingCommands    = 256
	defaultCommandTimeoutSecs = 30
)

// IngestConfig controls the batched ingest loop.
type IngestConfig struct {
	BatchSize  int `json:"batch_size" yaml:"batch_size"`
	IntervalMs int `json:"interval_ms" yaml:"interval_ms"`
}

// CapacityConfig bounds the retained history. Zero disables a buffer.
type CapacityConfig struct {
	EventsPerDevice  int `json:"events_per_device" yaml:"events_per_device"`
	AlarmsPerDevice  int `json:"alarms_per_device" yaml:"alarms_per_device"`
	TelemetryHistory int `json:"telemetry_history" yaml:"telemetry_history"`
	GlobalLog        int `json:"global_log" yaml:"global_log"`
	PendingCommands  int `json:"pending_commands" yaml:"pending_commands"`
}

// CommandConfig controls the pending command reaper. A zero timeout
// disables it.
type CommandConfig struct {
	TimeoutSecs int `json:"timeout_secs" yaml:"timeout_secs"`
}

// Config configures a Projector.
type Config struct {
	Ingest     IngestConfig   `json:"ingest" yaml:"ingest"`
	Capacities CapacityConfig `json:"capacities" yaml:"capacities"`
	Command    CommandConfig  `json:"command" yaml:"command"`
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		Ingest: IngestConfig{
			BatchSize:  defaultBatchSize,
			IntervalMs: defaultIntervalMs,
		},
		Capacities: CapacityConfig{
			EventsPerDevice:  defaultEventsPerDevice,
			AlarmsPerDevice:  defaultAlarmsPerDevice,
			TelemetryHistory: defaultTelemetryHistory,
			GlobalLog:        defaultGlobalLog,
			PendingCommands:  defaultPendingCommands,
		},
		Command: CommandConfig{
			TimeoutSecs: defaultCommandTimeoutSecs,
		},
	}
}

// ApplyDefaults fills fields whose zero value is not meaningful.
func (c *Config) ApplyDefaults() {
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = defaultBatchSize
	}

	if c.Ingest.IntervalMs <= 0 {
		c.Ingest.IntervalMs = defaultIntervalMs
	}

	if c.Capacities.PendingCommands <= 0 {
		c.Capacities.PendingCommands = defaultPendingCommands
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Ingest.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: ingest.batch_size must be > 0", models.ErrInvalid))
	}

	if c.Ingest.IntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("%w: ingest.interval_ms must be > 0", models.ErrInvalid))
	}

	caps := []struct {
		name  string
		value int
	}{
		{"capacities.events_per_device", c.Capacities.EventsPerDevice},
		{"capacities.alarms_per_device", c.Capacities.AlarmsPerDevice},
		{"capacities.telemetry_history", c.Capacities.TelemetryHistory},
		{"capacities.global_log", c.Capacities.GlobalLog},
		{"capacities.pending_commands", c.Capacities.PendingCommands},
	}

	for _, cp := range caps {
		if cp.value < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be >= 0", models.ErrInvalid, cp.name))
		}
	}

	if c.Command.TimeoutSecs < 0 {
		errs = append(errs, fmt.Errorf("%w: command.timeout_secs must be >= 0", models.ErrInvalid))
	}

	return errors.Join(errs...)
}

func (c *Config) interval() time.Duration {
	return time.Duration(c.Ingest.IntervalMs) * time.Millisecond
}

func (c *Config) commandTimeout() time.Duration {
	return time.Duration(c.Command.TimeoutSecs) * time.Second
}
