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
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetwatch/pkg/models"
	"github.com/carverauto/fleetwatch/pkg/supervisor"
)

func runJetStreamServer(t *testing.T, opts *server.Options) *server.Server {
	t.Helper()

	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	require.Eventually(t, srv.JetStreamEnabled, 5*time.Second, 50*time.Millisecond,
		"embedded NATS server not ready for JetStream")

	return srv
}

// collector is a Sink that keeps every event.
type collector struct {
	mu     sync.Mutex
	events []models.ServiceEvent
}

func (c *collector) Emit(ev models.ServiceEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, ev)
}

func (c *collector) snapshot() []models.ServiceEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]models.ServiceEvent(nil), c.events...)
}

func findEvent[T models.ServiceEvent](events []models.ServiceEvent) (T, bool) {
	for _, ev := range events {
		if v, ok := ev.(T); ok {
			return v, true
		}
	}

	var zero T

	return zero, false
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.Tenant = "acme"
	cfg.Namespace = "fleet"
	cfg.SubscriptionName = "fleetwatch-test"
	cfg.FetchWaitMs = 100

	return cfg
}

func fastRetry() supervisor.RetryConfig {
	return supervisor.RetryConfig{InitialDelayMs: 50, MaxDelayMs: 200, Multiplier: 2}
}

func startClient(t *testing.T, ctx context.Context, cfg Config) (*Client, *collector) {
	t.Helper()

	sink := &collector{}
	sup := supervisor.New("pulsar", fastRetry(), sink)
	client := New(cfg, sup, sink, nil)

	require.NoError(t, client.StartSubscriptions(ctx))
	require.NoError(t, client.StartSubscriptions(ctx), "second start is a no-op")
	t.Cleanup(client.StopSubscriptions)

	require.Eventually(t, client.IsConnected, 10*time.Second, 20*time.Millisecond)

	return client, sink
}

func encodeFrame[F any](t *testing.T, marshal func(F) ([]byte, error), frame F) []byte {
	t.Helper()

	b, err := marshal(frame)
	require.NoError(t, err)

	return b
}

func publisher(t *testing.T, url string) jetstream.JetStream {
	t.Helper()

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	return js
}

func TestClientDeliversDecodedEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping JetStream integration test in short mode")
	}

	srv := runJetStreamServer(t, &server.Options{Host: "127.0.0.1", Port: -1, JetStream: true, StoreDir: t.TempDir()})
	t.Cleanup(srv.Shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := testConfig(srv.ClientURL())
	client, sink := startClient(t, ctx, cfg)
	js := publisher(t, srv.ClientURL())

	_, err := js.Publish(ctx, cfg.TelemetrySubject("wt-1"), []byte{0xff})
	require.NoError(t, err, "undecodable frames are dropped, not fatal")

	_, err = js.Publish(ctx, cfg.TelemetrySubject("wt-1"), encodeFrame(t, MarshalTelemetry, TelemetryFrame{
		TsMs:   100,
		Points: []models.MetricPoint{{ID: 1, Value: 42}},
	}))
	require.NoError(t, err)

	_, err = js.Publish(ctx, cfg.AlarmSubject("wt-1"), encodeFrame(t, MarshalAlarm, AlarmFrame{
		DeviceID: "wt-1", TsMs: 200, Code: 7, Message: "overtemp", Severity: models.SeverityError,
	}))
	require.NoError(t, err)

	_, err = js.Publish(ctx, cfg.StatusSubject("wt-1"), encodeFrame(t, MarshalStatus, StatusFrame{TsMs: 300, Online: true}))
	require.NoError(t, err)

	resp := nats.NewMsg(cfg.ResponseSubject())
	resp.Header.Set(HeaderCorrelationID, "corr-1")
	resp.Data = []byte(`{"success":false,"error":"busy"}`)
	_, err = js.PublishMsg(ctx, resp)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		events := sink.snapshot()
		_, tel := findEvent[models.Telemetry](events)
		_, alarm := findEvent[models.Alarm](events)
		_, status := findEvent[models.DeviceOnlineChanged](events)
		_, ack := findEvent[models.CommandAck](events)

		return tel && alarm && status && ack
	}, 10*time.Second, 20*time.Millisecond)

	events := sink.snapshot()

	tel, _ := findEvent[models.Telemetry](events)
	assert.Equal(t, models.Telemetry{Device: "wt-1", TsMs: 100, Points: []models.MetricPoint{{ID: 1, Value: 42}}}, tel)

	alarm, _ := findEvent[models.Alarm](events)
	assert.Equal(t, uint32(7), alarm.Code)
	assert.Equal(t, models.SeverityError, alarm.Severity)

	status, _ := findEvent[models.DeviceOnlineChanged](events)
	assert.Equal(t, models.DeviceOnlineChanged{Device: "wt-1", Online: true, TsMs: 300}, status)

	ack, _ := findEvent[models.CommandAck](events)
	assert.Equal(t, models.CommandAck{CorrelationID: "corr-1", Success: false, Error: "busy"}, ack)

	connected, ok := findEvent[models.ConnectionState](events)
	require.True(t, ok)
	assert.Equal(t, "pulsar", connected.Service)

	assert.True(t, client.IsRunning())
}

func TestClientSendCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping JetStream integration test in short mode")
	}

	srv := runJetStreamServer(t, &server.Options{Host: "127.0.0.1", Port: -1, JetStream: true, StoreDir: t.TempDir()})
	t.Cleanup(srv.Shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := testConfig(srv.ClientURL())
	client, _ := startClient(t, ctx, cfg)
	js := publisher(t, srv.ClientURL())

	device, err := js.CreateOrUpdateConsumer(ctx, cfg.Stream(), jetstream.ConsumerConfig{
		Durable:       "device-side",
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: cfg.CommandFilter(),
	})
	require.NoError(t, err)

	require.NoError(t, client.SendCommand(ctx, "wt-9", "stop", json.RawMessage(`{"force":true}`), "corr-9"))
	require.NoError(t, client.SendCommand(ctx, "wt-9", "stop", json.RawMessage(`{"force":true}`), "corr-9"),
		"a duplicate publish is deduplicated, not rejected")

	batch, err := device.Fetch(10, jetstream.FetchMaxWait(2*time.Second))
	require.NoError(t, err)

	var got []jetstream.Msg
	for msg := range batch.Messages() {
		got = append(got, msg)
		require.NoError(t, msg.Ack())
	}

	require.Len(t, got, 1)
	assert.Equal(t, cfg.CommandSubject("wt-9"), got[0].Subject())
	assert.Equal(t, "corr-9", got[0].Headers().Get(HeaderCorrelationID))

	var cmd CommandMessage
	require.NoError(t, json.Unmarshal(got[0].Data(), &cmd))
	assert.Equal(t, "corr-9", cmd.CorrelationID)
	assert.Equal(t, models.DeviceID("wt-9"), cmd.DeviceID)
	assert.Equal(t, "stop", cmd.Method)
	assert.JSONEq(t, `{"force":true}`, string(cmd.Params))
	assert.Positive(t, cmd.SentAtMs)
}

func TestSendCommandWhileDisconnected(t *testing.T) {
	sup := supervisor.New("pulsar", fastRetry(), nil)
	client := New(testConfig("nats://127.0.0.1:1"), sup, &collector{}, nil)

	err := client.SendCommand(context.Background(), "wt-1", "stop", nil, "corr")
	require.ErrorIs(t, err, models.ErrNotConnected)
	assert.False(t, client.IsRunning())
}

func TestClientReconnectsAfterServerRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping reconnect test in short mode")
	}

	opts := &server.Options{Host: "127.0.0.1", Port: -1, JetStream: true, StoreDir: t.TempDir()}
	srv := runJetStreamServer(t, opts)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	addr, ok := srv.Addr().(*net.TCPAddr)
	require.True(t, ok, "expected TCP address from embedded NATS server")

	cfg := testConfig(srv.ClientURL())
	client, sink := startClient(t, ctx, cfg)

	srv.Shutdown()

	require.Eventually(t, func() bool { return !client.IsConnected() }, 5*time.Second, 20*time.Millisecond)

	restart := *opts
	restart.Port = addr.Port
	srv = runJetStreamServer(t, &restart)
	t.Cleanup(srv.Shutdown)

	require.Eventually(t, client.IsConnected, 10*time.Second, 20*time.Millisecond, "client did not reconnect")

	backoff := false

	for _, ev := range sink.snapshot() {
		if cs, ok := ev.(models.ConnectionState); ok && cs.State == models.StateBackoff {
			backoff = true
		}
	}

	assert.True(t, backoff, "a reconnect goes through Backoff")

	js := publisher(t, srv.ClientURL())
	_, err := js.Publish(ctx, cfg.TelemetrySubject("wt-5"), encodeFrame(t, MarshalTelemetry, TelemetryFrame{TsMs: 1}))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		tel, ok := findEvent[models.Telemetry](sink.snapshot())

		return ok && tel.Device == "wt-5"
	}, 10*time.Second, 20*time.Millisecond, "subscriptions resume after reconnect")
}
