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

package hub

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/fleetwatch/pkg/bus"
	"github.com/carverauto/fleetwatch/pkg/metastore"
	"github.com/carverauto/fleetwatch/pkg/models"
	"github.com/carverauto/fleetwatch/pkg/supervisor"
)

const (
	defaultCommandTimeoutSecs = 30
	defaultQueryTimeoutSecs   = 10
	defaultSyncIntervalSecs   = 60
	syncRetryDelay            = 5 * time.Second
)

// Config wires the hub's two clients. Sync interval 0 runs only the
// initial metadata sync.
type Config struct {
	Redis              metastore.Config       `json:"redis" yaml:"redis"`
	Bus                bus.Config             `json:"bus" yaml:"bus"`
	Retry              supervisor.RetryConfig `json:"retry" yaml:"retry"`
	QueueLimit         int                    `json:"queue_limit" yaml:"queue_limit"`
	CommandTimeoutSecs int                    `json:"command_timeout_secs" yaml:"command_timeout_secs"`
	QueryTimeoutSecs   int                    `json:"query_timeout_secs" yaml:"query_timeout_secs"`
	SyncIntervalSecs   int                    `json:"sync_interval_secs" yaml:"sync_interval_secs"`
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		Redis:              metastore.DefaultConfig(),
		Bus:                bus.DefaultConfig(),
		Retry:              supervisor.DefaultRetryConfig(),
		CommandTimeoutSecs: defaultCommandTimeoutSecs,
		QueryTimeoutSecs:   defaultQueryTimeoutSecs,
		SyncIntervalSecs:   defaultSyncIntervalSecs,
	}
}

// ApplyDefaults fills fields whose zero value is not meaningful.
func (c *Config) ApplyDefaults() {
	c.Redis.ApplyDefaults()
	c.Bus.ApplyDefaults()
	c.Retry.ApplyDefaults()

	if c.CommandTimeoutSecs <= 0 {
		c.CommandTimeoutSecs = defaultCommandTimeoutSecs
	}

	if c.QueryTimeoutSecs <= 0 {
		c.QueryTimeoutSecs = defaultQueryTimeoutSecs
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	errs := []error{
		c.Redis.Validate(),
		c.Bus.Validate(),
		c.Retry.Validate(),
	}

	if c.QueueLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: ingest.queue_limit must be >= 0", models.ErrInvalid))
	}

	if c.SyncIntervalSecs < 0 {
		errs = append(errs, fmt.Errorf("%w: sync.interval_secs must be >= 0", models.ErrInvalid))
	}

	return errors.Join(errs...)
}

func (c *Config) commandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSecs) * time.Second
}

func (c *Config) queryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSecs) * time.Second
}

func (c *Config) syncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSecs) * time.Second
}
