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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetwatch/pkg/models"
)

var errPortRequired = errors.New("port required")

type sampleStore struct {
	URL     string `json:"url" yaml:"url"`
	Timeout int    `json:"timeout_secs" yaml:"timeout_secs"`
}

type sampleConfig struct {
	Name     string                 `json:"name" yaml:"name"`
	Port     int                    `json:"port" yaml:"port"`
	Ratio    float64                `json:"ratio" yaml:"ratio"`
	Enabled  bool                   `json:"enabled" yaml:"enabled"`
	Tags     []string               `json:"tags" yaml:"tags"`
	Wait     time.Duration          `json:"wait" yaml:"wait"`
	Store    sampleStore            `json:"store" yaml:"store"`
	Security *models.SecurityConfig `json:"security" yaml:"security"`
}

func (c *sampleConfig) Validate() error {
	if c.Port == 0 {
		return errPortRequired
	}

	return nil
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadAndValidateJSONFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeFile(t, "fleet.json", `{
		"name": "east",
		"port": 6650,
		"store": {"url": "redis://127.0.0.1:6379", "timeout_secs": 5},
		"security": {"mode": "mtls", "cert_dir": "/etc/fleet/certs",
			"tls": {"cert_file": "client.pem", "key_file": "client-key.pem", "ca_file": "/abs/root.pem"}}
	}`)

	var cfg sampleConfig

	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "east", cfg.Name)
	assert.Equal(t, 5, cfg.Store.Timeout)
	require.NotNil(t, cfg.Security)
	assert.Equal(t, "/etc/fleet/certs/client.pem", cfg.Security.TLS.CertFile)
	assert.Equal(t, "/etc/fleet/certs/client-key.pem", cfg.Security.TLS.KeyFile)
	assert.Equal(t, "/abs/root.pem", cfg.Security.TLS.CAFile)
}

func TestLoadAndValidateYAMLFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeFile(t, "fleet.yaml", "name: west\nport: 7000\ntags: [a, b]\nstore:\n  url: redis://cache:6379\n")

	var cfg sampleConfig

	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "west", cfg.Name)
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
	assert.Equal(t, "redis://cache:6379", cfg.Store.URL)
}

func TestLoadAndValidateRunsValidator(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeFile(t, "fleet.json", `{"name": "no-port"}`)

	var cfg sampleConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	require.ErrorIs(t, err, errPortRequired)
}

func TestLoadAndValidateRejectsUnknownSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	var cfg sampleConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), "unused", &cfg)
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestLoadMissingFile(t *testing.T) {
	var cfg sampleConfig

	err := (&FileConfigLoader{}).Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"), &cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvLoaderFields(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "")
	t.Setenv("FLEETWATCH_CONFIG_JSON", "")
	t.Setenv("FLEETWATCH_NAME", "north")
	t.Setenv("FLEETWATCH_PORT", "6650")
	t.Setenv("FLEETWATCH_RATIO", "0.25")
	t.Setenv("FLEETWATCH_ENABLED", "true")
	t.Setenv("FLEETWATCH_TAGS", "a, b ,c")
	t.Setenv("FLEETWATCH_WAIT", "1500ms")
	t.Setenv("FLEETWATCH_STORE_URL", "redis://env:6379")
	t.Setenv("FLEETWATCH_SECURITY_MODE", "mtls")

	cfg := sampleConfig{Store: sampleStore{Timeout: 9}}

	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "north", cfg.Name)
	assert.Equal(t, 6650, cfg.Port)
	assert.InDelta(t, 0.25, cfg.Ratio, 1e-9)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
	assert.Equal(t, 1500*time.Millisecond, cfg.Wait)
	assert.Equal(t, "redis://env:6379", cfg.Store.URL)
	assert.Equal(t, 9, cfg.Store.Timeout, "unset variables keep existing values")
	require.NotNil(t, cfg.Security)
	assert.Equal(t, models.SecurityModeMTLS, cfg.Security.Mode)
}

func TestEnvLoaderConfigJSON(t *testing.T) {
	t.Setenv("TEST_CONFIG_JSON", `{"name":"doc","port":1}`)

	var cfg sampleConfig

	require.NoError(t, NewEnvConfigLoader(nil, "TEST_").Load(context.Background(), "", &cfg))
	assert.Equal(t, "doc", cfg.Name)
	assert.Equal(t, 1, cfg.Port)
}

func TestEnvLoaderReportsBadValues(t *testing.T) {
	t.Setenv("BAD_CONFIG_JSON", "")
	t.Setenv("BAD_PORT", "many")

	var cfg sampleConfig

	err := NewEnvConfigLoader(nil, "BAD_").Load(context.Background(), "", &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_PORT")
}

func TestEnvLoaderRejectsNonPointer(t *testing.T) {
	loader := NewEnvConfigLoader(nil, "X_")

	require.ErrorIs(t, loader.Load(context.Background(), "", sampleConfig{}), ErrDstMustBeNonNilPointer)

	s := "str"
	require.ErrorIs(t, loader.Load(context.Background(), "", &s), ErrDstMustBePointerToStruct)
}
