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

// Package logger provides JSON structured logging using zerolog
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Level      string `json:"level" yaml:"level"`
	Debug      bool   `json:"debug" yaml:"debug"`
	Output     string `json:"output" yaml:"output"`
	TimeFormat string `json:"time_format" yaml:"time_format"`
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// Init builds a logger from config and installs it as the zerolog global so
// libraries logging through zerolog/log share the same sink.
func Init(config *Config) (Logger, error) {
	zl, err := config.Build()
	if err != nil {
		return nil, err
	}

	log.Logger = zl

	return New(zl), nil
}

// Build returns a timestamped zerolog logger. A nil config uses DefaultConfig.
func (c *Config) Build() (zerolog.Logger, error) {
	if c == nil {
		c = DefaultConfig()
	}

	level, err := c.ParseLevel()
	if err != nil {
		return zerolog.Nop(), err
	}

	if c.TimeFormat != "" {
		zerolog.TimeFieldFormat = c.TimeFormat
	}

	return zerolog.New(c.Writer()).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

// Writer returns the destination selected by Output.
func (c *Config) Writer() io.Writer {
	if c.Output == "stderr" {
		return os.Stderr
	}

	return os.Stdout
}

// ParseLevel resolves the effective level. Debug wins over Level.
func (c *Config) ParseLevel() (zerolog.Level, error) {
	if c.Debug {
		return zerolog.DebugLevel, nil
	}

	if c.Level == "" {
		return zerolog.InfoLevel, nil
	}

	return zerolog.ParseLevel(c.Level)
}
