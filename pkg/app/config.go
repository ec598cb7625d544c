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

// Package app assembles the fleetwatch runtime from one configuration
// document.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/carverauto/fleetwatch/pkg/bus"
	"github.com/carverauto/fleetwatch/pkg/config"
	"github.com/carverauto/fleetwatch/pkg/fleet"
	"github.com/carverauto/fleetwatch/pkg/hub"
	"github.com/carverauto/fleetwatch/pkg/logger"
	"github.com/carverauto/fleetwatch/pkg/metastore"
	"github.com/carverauto/fleetwatch/pkg/models"
	"github.com/carverauto/fleetwatch/pkg/supervisor"
)

const defaultSyncIntervalSecs = 60

// IngestConfig extends the projector ingest settings with the event
// channel limit.
type IngestConfig struct {
	BatchSize  int `json:"batch_size" yaml:"batch_size"`
	IntervalMs int `json:"interval_ms" yaml:"interval_ms"`
	QueueLimit int `json:"queue_limit" yaml:"queue_limit"`
}

// SyncConfig controls the periodic metadata sync. Zero runs only the
// initial sync.
type SyncConfig struct {
	IntervalSecs int `json:"interval_secs" yaml:"interval_secs"`
}

// Config is the fleetwatch configuration document.
type Config struct {
	Redis      metastore.Config       `json:"redis" yaml:"redis"`
	Bus        bus.Config             `json:"bus" yaml:"bus"`
	Retry      supervisor.RetryConfig `json:"retry" yaml:"retry"`
	Ingest     IngestConfig           `json:"ingest" yaml:"ingest"`
	Capacities fleet.CapacityConfig   `json:"capacities" yaml:"capacities"`
	Command    fleet.CommandConfig    `json:"command" yaml:"command"`
	Sync       SyncConfig             `json:"sync" yaml:"sync"`
	Logging    *logger.Config         `json:"logging" yaml:"logging"`
}

// DefaultConfig returns a document with every default filled in. Loaders
// overlay the configured values on top of it.
func DefaultConfig() *Config {
	fc := fleet.DefaultConfig()

	return &Config{
		Redis: metastore.DefaultConfig(),
		Bus:   bus.DefaultConfig(),
		Retry: supervisor.DefaultRetryConfig(),
		Ingest: IngestConfig{
			BatchSize:  fc.Ingest.BatchSize,
			IntervalMs: fc.Ingest.IntervalMs,
		},
		Capacities: fc.Capacities,
		Command:    fc.Command,
		Sync:       SyncConfig{IntervalSecs: defaultSyncIntervalSecs},
		Logging:    logger.DefaultConfig(),
	}
}

// Hub derives the service hub settings.
func (c *Config) Hub() hub.Config {
	return hub.Config{
		Redis:              c.Redis,
		Bus:                c.Bus,
		Retry:              c.Retry,
		QueueLimit:         c.Ingest.QueueLimit,
		CommandTimeoutSecs: c.Command.TimeoutSecs,
		QueryTimeoutSecs:   c.Redis.TimeoutSecs,
		SyncIntervalSecs:   c.Sync.IntervalSecs,
	}
}

// Fleet derives the projector settings.
func (c *Config) Fleet() fleet.Config {
	return fleet.Config{
		Ingest: fleet.IngestConfig{
			BatchSize:  c.Ingest.BatchSize,
			IntervalMs: c.Ingest.IntervalMs,
		},
		Capacities: c.Capacities,
		Command:    c.Command,
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	hc := c.Hub()
	fc := c.Fleet()

	errs := []error{hc.Validate(), fc.Validate()}

	if c.Logging != nil {
		if _, err := c.Logging.ParseLevel(); err != nil {
			errs = append(errs, fmt.Errorf("%w: logging.level: %w", models.ErrInvalid, err))
		}
	}

	return errors.Join(errs...)
}

// Load reads the document at path over the defaults. An empty path with a
// file source validates the defaults alone.
func Load(ctx context.Context, path string, log logger.Logger) (*Config, error) {
	cfg := DefaultConfig()

	source := strings.ToLower(os.Getenv("CONFIG_SOURCE"))
	if path == "" && source != "env" {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		return cfg, nil
	}

	if err := config.NewConfig(log).LoadAndValidate(ctx, path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", path, err)
	}

	return cfg, nil
}
