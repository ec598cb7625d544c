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

// Package hub composes the metadata store and the message bus behind one
// event channel and one lifecycle.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/fleetwatch/pkg/bus"
	"github.com/carverauto/fleetwatch/pkg/events"
	"github.com/carverauto/fleetwatch/pkg/logger"
	"github.com/carverauto/fleetwatch/pkg/metastore"
	"github.com/carverauto/fleetwatch/pkg/models"
	"github.com/carverauto/fleetwatch/pkg/supervisor"
)

// Service names reported in ConnectionState events.
const (
	ServiceRedis  = "redis"
	ServicePulsar = "pulsar"
)

var errHubStopped = errors.New("hub already stopped")

// Hub owns the external clients and the sending side of the event channel.
type Hub struct {
	cfg    Config
	logger logger.Logger
	clock  clock.Clock
	newID  func() string

	queue    *events.Queue
	redisSup *supervisor.Supervisor
	busSup   *supervisor.Supervisor
	store    MetadataStore
	bus      MessageBus

	mu      sync.Mutex
	cancel  context.CancelFunc
	group   *errgroup.Group
	stopped bool

	// known is owned by the sync loop.
	known map[models.DeviceID]struct{}
}

// Option customizes a Hub.
type Option func(*Hub)

// WithClock sets the clock used by the hub and its clients.
func WithClock(clk clock.Clock) Option {
	return func(h *Hub) {
		h.clock = clk
	}
}

// WithIDGenerator replaces the correlation id source.
func WithIDGenerator(f func() string) Option {
	return func(h *Hub) {
		h.newID = f
	}
}

// New builds the event queue, a supervisor per service, and both clients.
func New(cfg Config, log logger.Logger, opts ...Option) *Hub {
	h := newHub(cfg, log, opts...)

	h.store = metastore.New(h.cfg.Redis, h.redisSup, logger.Component(h.logger, "metastore"),
		metastore.WithClock(h.clock))
	h.bus = bus.New(h.cfg.Bus, h.busSup, h.queue.Producer(ServicePulsar), logger.Component(h.logger, "bus"),
		bus.WithClock(h.clock))

	return h
}

// NewWithClients builds a hub around existing clients. The supervisors
// returned by RedisSupervisor and PulsarSupervisor are not attached to them.
func NewWithClients(cfg Config, log logger.Logger, store MetadataStore, msgBus MessageBus, opts ...Option) *Hub {
	h := newHub(cfg, log, opts...)
	h.store = store
	h.bus = msgBus

	return h
}

func newHub(cfg Config, log logger.Logger, opts ...Option) *Hub {
	cfg.ApplyDefaults()

	if log == nil {
		log = logger.NewTestLogger()
	}

	h := &Hub{
		cfg:    cfg,
		logger: log,
		clock:  clock.WallClock,
		newID:  uuid.NewString,
		known:  make(map[models.DeviceID]struct{}),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.queue = events.NewQueue(cfg.QueueLimit, logger.Component(h.logger, "events"))
	h.redisSup = supervisor.New(ServiceRedis, cfg.Retry, h.queue.Producer(ServiceRedis),
		supervisor.WithLogger(logger.Component(h.logger, "supervisor")))
	h.busSup = supervisor.New(ServicePulsar, cfg.Retry, h.queue.Producer(ServicePulsar),
		supervisor.WithLogger(logger.Component(h.logger, "supervisor")))

	return h
}

// Events returns the consumer side of the event channel.
func (h *Hub) Events() *events.Queue {
	return h.queue
}

// Start brings up the metadata connection loop, the bus subscriptions and
// the metadata sync loop. Calling Start on a running hub is a no-op.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return errHubStopped
	}

	if h.group != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	group := new(errgroup.Group)

	group.Go(func() error {
		err := h.store.Run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Error().Err(err).Str("service", ServiceRedis).Msg("Metadata connection loop stopped")

			return err
		}

		return nil
	})

	if err := h.bus.StartSubscriptions(runCtx); err != nil {
		cancel()
		_ = group.Wait()

		return fmt.Errorf("failed to start bus subscriptions: %w", err)
	}

	group.Go(func() error {
		h.syncLoop(runCtx)

		return nil
	})

	h.cancel = cancel
	h.group = group

	h.logger.Info().Msg("Service hub started")

	return nil
}

// Stop cancels every background loop, waits for them and closes the event
// channel. A stopped hub cannot be restarted.
func (h *Hub) Stop(ctx context.Context) error {
	h.mu.Lock()
	cancel, group := h.cancel, h.group
	h.cancel, h.group = nil, nil
	h.stopped = true
	h.mu.Unlock()

	defer h.queue.Close()

	if cancel == nil {
		return nil
	}

	cancel()
	h.bus.StopSubscriptions()

	done := make(chan error, 1)

	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		h.logger.Info().Msg("Service hub stopped")

		if errors.Is(err, models.ErrMaxAttempts) {
			return nil
		}

		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for hub loops: %w", models.ErrTimeout, ctx.Err())
	}
}

// IsHealthy reports whether the bus is running and the metadata store is connected.
func (h *Hub) IsHealthy() bool {
	return h.bus.IsRunning() && h.store.IsConnected()
}

// RedisState returns the metadata store supervisor state.
func (h *Hub) RedisState() models.ConnectionState {
	return h.redisSup.State()
}

// PulsarState returns the message bus supervisor state.
func (h *Hub) PulsarState() models.ConnectionState {
	return h.busSup.State()
}

// NewCorrelationID returns a fresh correlation id for SubmitCommand.
func (h *Hub) NewCorrelationID() string {
	return h.newID()
}

// SendCommand assigns a fresh correlation id, submits the command and
// returns the id.
func (h *Hub) SendCommand(ctx context.Context, device models.DeviceID, method, params string) (string, error) {
	correlationID := h.NewCorrelationID()

	if err := h.SubmitCommand(ctx, correlationID, device, method, params); err != nil {
		return "", err
	}

	return correlationID, nil
}

// SubmitCommand validates the request and hands it to the bus under the
// caller's correlation id. Empty params are sent as {}.
func (h *Hub) SubmitCommand(ctx context.Context, correlationID string, device models.DeviceID, method, params string) error {
	if correlationID == "" {
		return fmt.Errorf("%w: correlation id is required", models.ErrInvalid)
	}

	if device == "" {
		return fmt.Errorf("%w: device is required", models.ErrInvalid)
	}

	if strings.TrimSpace(method) == "" {
		return fmt.Errorf("%w: method is required", models.ErrInvalid)
	}

	params = strings.TrimSpace(params)
	if params == "" {
		params = "{}"
	}

	if !json.Valid([]byte(params)) {
		return fmt.Errorf("%w: params for %s are not valid JSON", models.ErrInvalid, method)
	}

	ctx, cancel := context.WithTimeout(ctx, h.cfg.commandTimeout())
	defer cancel()

	if err := h.bus.SendCommand(ctx, device, method, json.RawMessage(params), correlationID); err != nil {
		h.logger.Warn().
			Err(err).
			Str("device_id", string(device)).
			Str("method", method).
			Str("correlation_id", correlationID).
			Msg("Command not sent")

		return err
	}

	h.logger.Info().
		Str("device_id", string(device)).
		Str("method", method).
		Str("correlation_id", correlationID).
		Msg("Command sent")

	return nil
}

// WaitConnected blocks until the metadata store is connected or ctx ends.
func (h *Hub) WaitConnected(ctx context.Context) error {
	return h.store.WaitConnected(ctx)
}

// ListDevices queries the metadata store.
func (h *Hub) ListDevices(ctx context.Context) ([]models.DeviceMeta, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.queryTimeout())
	defer cancel()

	return h.store.ListDevices(ctx)
}

// FetchDevice queries one device; nil when unknown.
func (h *Hub) FetchDevice(ctx context.Context, id models.DeviceID) (*models.DeviceMeta, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.queryTimeout())
	defer cancel()

	return h.store.FetchDevice(ctx, id)
}

// FetchMetricDictionary queries the metric names.
func (h *Hub) FetchMetricDictionary(ctx context.Context) ([]models.MetricName, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.queryTimeout())
	defer cancel()

	return h.store.FetchMetricDictionary(ctx)
}

// UpdateDeviceConfig stores a device configuration document.
func (h *Hub) UpdateDeviceConfig(ctx context.Context, id models.DeviceID, config string) error {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.queryTimeout())
	defer cancel()

	return h.store.UpdateDeviceConfig(ctx, id, config)
}

// ScanKeys runs one key browser step.
func (h *Hub) ScanKeys(ctx context.Context, pattern string, cursor uint64, count int64) ([]models.KeyItem, uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.queryTimeout())
	defer cancel()

	return h.store.ScanKeys(ctx, pattern, cursor, count)
}

// GetKeyValue reads one key for the key browser.
func (h *Hub) GetKeyValue(ctx context.Context, key string) (models.KeyValue, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.queryTimeout())
	defer cancel()

	return h.store.GetKeyValue(ctx, key)
}

// syncLoop pushes the device list and metric dictionary into the event
// channel whenever the store is connected, then every sync interval.
func (h *Hub) syncLoop(ctx context.Context) {
	sink := h.queue.Producer("metadata-sync")

	for {
		if err := h.store.WaitConnected(ctx); err != nil {
			return
		}

		wait := h.cfg.syncInterval()

		if err := h.syncOnce(ctx, sink); err != nil {
			if ctx.Err() != nil {
				return
			}

			h.logger.Warn().Err(err).Msg("Metadata sync failed")

			wait = syncRetryDelay
		} else if wait == 0 {
			return
		}

		if err := supervisor.Wait(ctx, h.clock, wait); err != nil {
			return
		}
	}
}

func (h *Hub) syncOnce(ctx context.Context, sink *events.Producer) error {
	devices, err := h.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}

	dict, err := h.FetchMetricDictionary(ctx)
	if err != nil {
		return fmt.Errorf("fetch metric dictionary: %w", err)
	}

	current := make(map[models.DeviceID]struct{}, len(devices))

	for _, meta := range devices {
		current[meta.ID] = struct{}{}
		sink.Emit(models.DeviceMetaUpsert{Meta: meta})
	}

	if len(dict) > 0 {
		sink.Emit(models.MetricDictionary{Entries: dict})
	}

	var removed []models.DeviceID

	for id := range h.known {
		if _, ok := current[id]; !ok {
			removed = append(removed, id)
		}
	}

	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })

	for _, id := range removed {
		sink.Emit(models.DeviceRemoved{Device: id})
	}

	h.known = current

	h.logger.Debug().
		Int("devices", len(devices)).
		Int("metrics", len(dict)).
		Int("removed", len(removed)).
		Msg("Metadata sync complete")

	return nil
}
