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

package bus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carverauto/fleetwatch/pkg/models"
)

const (
	defaultURL              = "nats://localhost:4222"
	defaultTenant           = "dfc"
	defaultNamespace        = "devices"
	defaultTelemetryTopic   = "telemetry"
	defaultAlarmTopic       = "alarms"
	defaultCommandTopic     = "commands"
	defaultResponseTopic    = "command-responses"
	defaultStatusTopic      = "status"
	defaultSubscriptionName = "dfc-gui"
	defaultFetchWaitMs      = 500
	defaultFetchBatch       = 256
)

// Config configures the bus client. Topics are single subject tokens under
// <tenant>.<namespace>.
type Config struct {
	URL              string                 `json:"url" yaml:"url"`
	Tenant           string                 `json:"tenant" yaml:"tenant"`
	Namespace        string                 `json:"namespace" yaml:"namespace"`
	TelemetryTopic   string                 `json:"telemetry_topic" yaml:"telemetry_topic"`
	AlarmTopic       string                 `json:"alarm_topic" yaml:"alarm_topic"`
	CommandTopic     string                 `json:"command_topic" yaml:"command_topic"`
	ResponseTopic    string                 `json:"response_topic" yaml:"response_topic"`
	StatusTopic      string                 `json:"status_topic" yaml:"status_topic"`
	SubscriptionName string                 `json:"subscription_name" yaml:"subscription_name"`
	StreamName       string                 `json:"stream_name" yaml:"stream_name"`
	FetchWaitMs      int                    `json:"fetch_wait_ms" yaml:"fetch_wait_ms"`
	FetchBatch       int                    `json:"fetch_batch" yaml:"fetch_batch"`
	Security         *models.SecurityConfig `json:"security,omitempty" yaml:"security,omitempty"`
}

// DefaultConfig returns the stock dfc/devices layout.
func DefaultConfig() Config {
	cfg := Config{
		URL:              defaultURL,
		Tenant:           defaultTenant,
		Namespace:        defaultNamespace,
		TelemetryTopic:   defaultTelemetryTopic,
		AlarmTopic:       defaultAlarmTopic,
		CommandTopic:     defaultCommandTopic,
		ResponseTopic:    defaultResponseTopic,
		StatusTopic:      defaultStatusTopic,
		SubscriptionName: defaultSubscriptionName,
		FetchWaitMs:      defaultFetchWaitMs,
		FetchBatch:       defaultFetchBatch,
	}

	return cfg
}

// ApplyDefaults fills empty fields, except StatusTopic which is optional.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()

	setDefault(&c.URL, def.URL)
	setDefault(&c.Tenant, def.Tenant)
	setDefault(&c.Namespace, def.Namespace)
	setDefault(&c.TelemetryTopic, def.TelemetryTopic)
	setDefault(&c.AlarmTopic, def.AlarmTopic)
	setDefault(&c.CommandTopic, def.CommandTopic)
	setDefault(&c.ResponseTopic, def.ResponseTopic)
	setDefault(&c.SubscriptionName, def.SubscriptionName)

	if c.FetchWaitMs <= 0 {
		c.FetchWaitMs = def.FetchWaitMs
	}

	if c.FetchBatch <= 0 {
		c.FetchBatch = def.FetchBatch
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate checks that every name is a usable subject token.
func (c *Config) Validate() error {
	var errs []error

	if c.URL == "" {
		errs = append(errs, fmt.Errorf("%w: bus.url is required", models.ErrInvalid))
	}

	tokens := []struct {
		name     string
		value    string
		optional bool
	}{
		{"tenant", c.Tenant, false},
		{"namespace", c.Namespace, false},
		{"telemetry_topic", c.TelemetryTopic, false},
		{"alarm_topic", c.AlarmTopic, false},
		{"command_topic", c.CommandTopic, false},
		{"response_topic", c.ResponseTopic, false},
		{"subscription_name", c.SubscriptionName, false},
		{"status_topic", c.StatusTopic, true},
	}

	for _, tok := range tokens {
		if tok.value == "" {
			if !tok.optional {
				errs = append(errs, fmt.Errorf("%w: bus.%s is required", models.ErrInvalid, tok.name))
			}

			continue
		}

		if strings.ContainsAny(tok.value, ".*> \t") {
			errs = append(errs, fmt.Errorf("%w: bus.%s %q must be a single subject token",
				models.ErrInvalid, tok.name, tok.value))
		}
	}

	return errors.Join(errs...)
}

// Stream returns the JetStream stream name, derived from tenant and
// namespace when not set.
func (c *Config) Stream() string {
	if c.StreamName != "" {
		return c.StreamName
	}

	return strings.ToUpper(sanitizeName(c.Tenant) + "_" + sanitizeName(c.Namespace))
}

func (c *Config) root() string {
	return c.Tenant + "." + c.Namespace
}

// StreamSubject captures every topic of the namespace.
func (c *Config) StreamSubject() string {
	return c.root() + ".>"
}

// TelemetrySubject is where device publishes telemetry frames.
func (c *Config) TelemetrySubject(device models.DeviceID) string {
	return c.root() + "." + c.TelemetryTopic + "." + string(device)
}

// AlarmSubject is where device publishes alarm frames.
func (c *Config) AlarmSubject(device models.DeviceID) string {
	return c.root() + "." + c.AlarmTopic + "." + string(device)
}

// StatusSubject is where device publishes status frames.
func (c *Config) StatusSubject(device models.DeviceID) string {
	return c.root() + "." + c.StatusTopic + "." + string(device)
}

// CommandSubject is where commands for device are published.
func (c *Config) CommandSubject(device models.DeviceID) string {
	return c.root() + "." + c.CommandTopic + "." + string(device)
}

// CommandFilter matches commands for every device.
func (c *Config) CommandFilter() string {
	return c.root() + "." + c.CommandTopic + ".>"
}

// ResponseSubject is where devices answer commands.
func (c *Config) ResponseSubject() string {
	return c.root() + "." + c.ResponseTopic
}

func (c *Config) fetchWait() time.Duration {
	return time.Duration(c.FetchWaitMs) * time.Millisecond
}

// sanitizeName maps s onto the characters allowed in stream and durable names.
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
