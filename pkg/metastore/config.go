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

package metastore

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/fleetwatch/pkg/models"
)

const (
	defaultURL         = "redis://localhost:6379"
	defaultTimeoutSecs = 10
	defaultKeyPrefix   = "fleet"
)

// Config configures the Redis connection. Password and Database override
// whatever the URL carries.
type Config struct {
	URL         string `json:"url" yaml:"url"`
	Password    string `json:"password,omitempty" yaml:"password,omitempty"`
	Database    int    `json:"database" yaml:"database"`
	TimeoutSecs int    `json:"timeout_secs" yaml:"timeout_secs"`
	KeyPrefix   string `json:"key_prefix" yaml:"key_prefix"`
}

// DefaultConfig returns a local Redis on db 0.
func DefaultConfig() Config {
	return Config{
		URL:         defaultURL,
		TimeoutSecs: defaultTimeoutSecs,
		KeyPrefix:   defaultKeyPrefix,
	}
}

// ApplyDefaults fills empty fields.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultURL
	}

	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = defaultTimeoutSecs
	}

	if c.KeyPrefix == "" {
		c.KeyPrefix = defaultKeyPrefix
	}
}

// Validate checks the connection settings.
func (c *Config) Validate() error {
	var errs []error

	if c.URL == "" {
		errs = append(errs, fmt.Errorf("%w: redis.url is required", models.ErrInvalid))
	}

	if c.Database < 0 || c.Database > 255 {
		errs = append(errs, fmt.Errorf("%w: redis.database must be within [0,255], got %d", models.ErrInvalid, c.Database))
	}

	if c.TimeoutSecs < 0 {
		errs = append(errs, fmt.Errorf("%w: redis.timeout_secs must be >= 0", models.ErrInvalid))
	}

	return errors.Join(errs...)
}

func (c *Config) timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}
