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

package natsutil

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestFixture = errors.New("fixture")

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	require.Eventually(t, srv.JetStreamEnabled, 5*time.Second, 50*time.Millisecond,
		"embedded NATS server not ready for JetStream")

	t.Cleanup(srv.Shutdown)

	return srv
}

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{"adds subject when list empty", nil, "acme.fleet.>", []string{"acme.fleet.>"}},
		{"keeps list when wildcard matches", []string{"acme.*.telemetry"}, "acme.fleet.telemetry", []string{"acme.*.telemetry"}},
		{"keeps list when greater wildcard matches", []string{"acme.>"}, "acme.fleet.>", []string{"acme.>"}},
		{"appends when unmatched", []string{"other.fleet.>"}, "acme.fleet.>", []string{"other.fleet.>", "acme.fleet.>"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		subject  string
		expected bool
	}{
		{"exact match", "acme.fleet.telemetry", "acme.fleet.telemetry", true},
		{"single wildcard", "acme.*.telemetry", "acme.fleet.telemetry", true},
		{"greater wildcard", "acme.>", "acme.fleet.telemetry.wt-1", true},
		{"greater needs a token", "acme.fleet.>", "acme.fleet", false},
		{"no match length", "acme.*", "acme.fleet.telemetry", false},
		{"no match tokens", "other.fleet.*", "acme.fleet.telemetry", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, matchesSubject(tc.pattern, tc.subject))
		})
	}
}

func TestIsStreamMissingErr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"jetstream no stream response", jetstream.ErrNoStreamResponse, true},
		{"jetstream stream not found", jetstream.ErrStreamNotFound, true},
		{"nats stream not found", nats.ErrStreamNotFound, true},
		{"nats no responders", nats.ErrNoResponders, true},
		{"other error", errTestFixture, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, isStreamMissingErr(tc.err))
		})
	}
}

func TestConnectAndEnsureStream(t *testing.T) {
	srv := runJetStreamServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var closed atomic.Bool

	nc, err := ConnectWithSecurity(srv.ClientURL(), nil, nil, Handlers{
		OnClosed: func() { closed.Store(true) },
	})
	require.NoError(t, err)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	stream, err := EnsureStream(ctx, js, "ACME_FLEET", "acme.fleet.>")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme.fleet.>"}, stream.CachedInfo().Config.Subjects)

	stream, err = EnsureStream(ctx, js, "ACME_FLEET", "acme.fleet.telemetry.wt-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme.fleet.>"}, stream.CachedInfo().Config.Subjects)

	stream, err = EnsureStream(ctx, js, "ACME_FLEET", "acme.lab.>")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme.fleet.>", "acme.lab.>"}, stream.CachedInfo().Config.Subjects)

	nc.Close()
	require.Eventually(t, closed.Load, 2*time.Second, 10*time.Millisecond)
}

func TestConnectClosedOnServerShutdown(t *testing.T) {
	srv := runJetStreamServer(t)

	var closed, disconnected atomic.Bool

	nc, err := ConnectWithSecurity(srv.ClientURL(), nil, nil, Handlers{
		OnDisconnect: func(error) { disconnected.Store(true) },
		OnClosed:     func() { closed.Store(true) },
	})
	require.NoError(t, err)

	defer nc.Close()

	srv.Shutdown()

	require.Eventually(t, closed.Load, 5*time.Second, 10*time.Millisecond,
		"connection should close without client-side reconnects")
	assert.True(t, disconnected.Load())
}
