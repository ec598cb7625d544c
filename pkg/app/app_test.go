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

package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetwatch/pkg/bus"
	"github.com/carverauto/fleetwatch/pkg/models"
	"github.com/carverauto/fleetwatch/pkg/supervisor"
)

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, JetStream: true, StoreDir: t.TempDir()})
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	require.Eventually(t, srv.JetStreamEnabled, 5*time.Second, 50*time.Millisecond)
	t.Cleanup(srv.Shutdown)

	return srv
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	hc := cfg.Hub()
	assert.Equal(t, 30, hc.CommandTimeoutSecs)
	assert.Equal(t, 10, hc.QueryTimeoutSecs)
	assert.Equal(t, 60, hc.SyncIntervalSecs)

	fc := cfg.Fleet()
	assert.Equal(t, 2048, fc.Ingest.BatchSize)
	assert.Equal(t, 100, fc.Ingest.IntervalMs)
	assert.Equal(t, 200, fc.Capacities.AlarmsPerDevice)
	assert.Equal(t, 5000, fc.Capacities.GlobalLog)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := filepath.Join(t.TempDir(), "fleetwatch.yaml")
	doc := `
redis:
  url: redis://cache:6379
bus:
  tenant: acme
retry:
  max_attempts: 5
capacities:
  alarms_per_device: 3
sync:
  interval_secs: 0
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, "redis://cache:6379", cfg.Redis.URL)
	assert.Equal(t, "acme", cfg.Bus.Tenant)
	assert.Equal(t, "devices", cfg.Bus.Namespace)
	assert.Equal(t, uint32(5), cfg.Retry.MaxAttempts)
	assert.Equal(t, uint64(1000), cfg.Retry.InitialDelayMs)
	assert.Equal(t, 3, cfg.Capacities.AlarmsPerDevice)
	assert.Equal(t, 200, cfg.Capacities.EventsPerDevice)
	assert.Equal(t, 0, cfg.Sync.IntervalSecs)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := filepath.Join(t.TempDir(), "fleetwatch.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"retry":{"multiplier":0.5,"jitter":2},"ingest":{"batch_size":-1}}`), 0o600))

	_, err := Load(context.Background(), path, nil)
	require.ErrorIs(t, err, models.ErrInvalid)
	assert.Contains(t, err.Error(), "retry.multiplier")
	assert.Contains(t, err.Error(), "retry.jitter")
	assert.Contains(t, err.Error(), "ingest.batch_size")
}

func TestLoadWithoutPathUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	cfg, err := Load(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Bus, cfg.Bus)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("FLEETWATCH_BUS_TENANT", "envco")
	t.Setenv("FLEETWATCH_INGEST_INTERVAL_MS", "250")

	cfg, err := Load(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "envco", cfg.Bus.Tenant)
	assert.Equal(t, 250, cfg.Ingest.IntervalMs)
}

func TestAppEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}

	mr := miniredis.RunT(t)

	for _, id := range []string{"wt-2", "wt-1"} {
		_, err := mr.SAdd("fleet:devices", id)
		require.NoError(t, err)
		mr.HSet("fleet:device:"+id, "name", "Turbine "+id, "site", "north")
	}

	mr.HSet("fleet:metrics", "1", "rotor_rpm")

	srv := runJetStreamServer(t)

	cfg := DefaultConfig()
	cfg.Redis.URL = "redis://" + mr.Addr()
	cfg.Redis.TimeoutSecs = 2
	cfg.Bus.URL = srv.ClientURL()
	cfg.Bus.FetchWaitMs = 100
	cfg.Retry = supervisor.RetryConfig{InitialDelayMs: 50, MaxDelayMs: 200, Multiplier: 2}
	cfg.Ingest.IntervalMs = 20
	cfg.Sync.IntervalSecs = 0
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := New(cfg, nil)
	require.NoError(t, a.Start(ctx))

	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()

		require.NoError(t, a.Stop(stopCtx))
	})

	p := a.Projector()

	require.Eventually(t, func() bool {
		name, ok := p.MetricName(1)

		return p.DeviceCount() == 2 && ok && name == "rotor_rpm" && !p.IsLoading()
	}, 10*time.Second, 20*time.Millisecond)

	assert.Equal(t, []models.DeviceID{"wt-1", "wt-2"}, p.DeviceIDs())

	require.Eventually(t, func() bool {
		return a.Hub().PulsarState().State == models.StateConnected && a.Hub().IsHealthy()
	}, 10*time.Second, 20*time.Millisecond)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	sub, err := nc.Subscribe(cfg.Bus.CommandFilter(), func(msg *nats.Msg) {
		var cmd bus.CommandMessage
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return
		}

		body, _ := json.Marshal(bus.CommandResponse{
			CorrelationID: cmd.CorrelationID,
			Success:       true,
			Payload:       json.RawMessage(`{"state":"stopped"}`),
		})

		_, _ = js.Publish(context.Background(), cfg.Bus.ResponseSubject(), body)
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })

	frame, err := bus.MarshalTelemetry(bus.TelemetryFrame{
		DeviceID: "wt-1",
		TsMs:     1_000,
		Points:   []models.MetricPoint{{ID: 1, Value: 1500}},
	})
	require.NoError(t, err)

	_, err = js.Publish(ctx, cfg.Bus.TelemetrySubject("wt-1"), frame)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		dev, ok := p.Device("wt-1")

		return ok && dev.Latest[1] == 1500 && dev.LastSeenMs == 1_000
	}, 10*time.Second, 20*time.Millisecond)

	correlationID, err := p.SendCommand(ctx, "wt-1", "stop", "")
	require.NoError(t, err)
	require.NotEmpty(t, correlationID)

	require.Eventually(t, func() bool {
		cmd, ok := p.PendingCommand(correlationID)

		return ok && cmd.Status == models.CommandSuccess
	}, 10*time.Second, 20*time.Millisecond)

	cmd, _ := p.PendingCommand(correlationID)
	assert.JSONEq(t, `{"state":"stopped"}`, cmd.Payload)
}
