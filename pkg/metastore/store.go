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

// Package metastore is the Redis-backed device metadata repository. Calls
// never retry: I/O failures are reported to the supervisor and returned,
// and Run re-establishes the client.
package metastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/redis/go-redis/v9"

	"github.com/carverauto/fleetwatch/pkg/logger"
	"github.com/carverauto/fleetwatch/pkg/models"
	"github.com/carverauto/fleetwatch/pkg/supervisor"
)

// valueReadLimit bounds how many list and sorted set items GetKeyValue reads.
const valueReadLimit = 100

// Store is the metadata repository.
type Store struct {
	cfg    Config
	keys   keys
	sup    *supervisor.Supervisor
	logger logger.Logger
	clock  clock.Clock

	failures chan string

	mu        sync.RWMutex
	client    *redis.Client
	connected bool
	ready     chan struct{}
}

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the clock used for reconnect waits and config timestamps.
func WithClock(clk clock.Clock) Option {
	return func(s *Store) {
		s.clock = clk
	}
}

// New creates a store. It does not connect; call Run.
func New(cfg Config, sup *supervisor.Supervisor, log logger.Logger, opts ...Option) *Store {
	cfg.ApplyDefaults()

	if log == nil {
		log = logger.NewTestLogger()
	}

	s := &Store{
		cfg:      cfg,
		keys:     keys{prefix: cfg.KeyPrefix},
		sup:      sup,
		logger:   log,
		clock:    clock.WallClock,
		failures: make(chan string, 1),
		ready:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run is the supervisor-driven connection loop. It returns the context
// error on cancellation or models.ErrMaxAttempts when retries run out.
func (s *Store) Run(ctx context.Context) error {
	defer s.disconnect()

	for {
		s.sup.Connecting()

		err := s.dial(ctx)
		if err == nil {
			s.sup.OnConnected()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case reason := <-s.failures:
				s.disconnect()
				s.sup.OnDisconnected(reason)
			}
		} else {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			s.logger.Warn().Err(err).Str("url", redactURL(s.cfg.URL)).Msg("Redis connect failed")
			s.sup.OnDisconnected(err.Error())
		}

		delay, ok := s.sup.NextRetryDelay()
		if !ok {
			return models.ErrMaxAttempts
		}

		if err := supervisor.Wait(ctx, s.clock, delay); err != nil {
			return err
		}
	}
}

func (s *Store) dial(ctx context.Context) error {
	opts, err := redis.ParseURL(s.cfg.URL)
	if err != nil {
		return fmt.Errorf("%w: redis url: %w", models.ErrInvalid, err)
	}

	if s.cfg.Password != "" {
		opts.Password = s.cfg.Password
	}

	if s.cfg.Database != 0 {
		opts.DB = s.cfg.Database
	}

	opts.DialTimeout = s.cfg.timeout()
	opts.ReadTimeout = s.cfg.timeout()
	opts.WriteTimeout = s.cfg.timeout()
	opts.ContextTimeoutEnabled = true
	opts.MaxRetries = -1

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.timeout())
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return fmt.Errorf("%w: ping: %w", models.ErrIO, err)
	}

	// Drop any failure reported against the previous client.
	select {
	case <-s.failures:
	default:
	}

	s.mu.Lock()
	s.client = client

	if !s.connected {
		s.connected = true
		close(s.ready)
	}
	s.mu.Unlock()

	return nil
}

func (s *Store) disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}

	if s.connected {
		s.connected = false
		s.ready = make(chan struct{})
	}
}

// IsConnected is true between a successful PING and the next failure.
func (s *Store) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.connected
}

// WaitConnected blocks until the store is connected or ctx ends.
func (s *Store) WaitConnected(ctx context.Context) error {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for redis: %w", models.ErrTimeout, ctx.Err())
	}
}

func (s *Store) conn() (*redis.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected || s.client == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrNotConnected, s.sup.Name())
	}

	return s.client, nil
}

// call bounds ctx by the configured timeout and returns the live client.
func (s *Store) call(ctx context.Context) (context.Context, context.CancelFunc, *redis.Client, error) {
	client, err := s.conn()
	if err != nil {
		return ctx, func() {}, nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.timeout())

	return callCtx, cancel, client, nil
}

// classify maps a client error onto one error kind. Only I/O failures that
// are not timeouts are reported to the supervisor loop.
func (s *Store) classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		redisErr redis.Error
		netErr   net.Error
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s: %w", models.ErrTimeout, op, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		// A slow reply leaves the link up; go-redis drops the stale conn.
		return fmt.Errorf("%w: %s: %w", models.ErrTimeout, op, err)
	case errors.As(err, &redisErr) && !errors.Is(err, redis.ErrClosed):
		return fmt.Errorf("%w: %s: %w", models.ErrProtocol, op, err)
	default:
		s.reportFailure(fmt.Sprintf("%s: %v", op, err))

		return fmt.Errorf("%w: %s: %w", models.ErrIO, op, err)
	}
}

func (s *Store) reportFailure(reason string) {
	s.logger.Error().Str("reason", reason).Msg("Redis I/O failure")

	select {
	case s.failures <- reason:
	default:
	}
}

// ListDevices returns every registered device sorted by id. Ids without a
// device hash are skipped.
func (s *Store) ListDevices(ctx context.Context) ([]models.DeviceMeta, error) {
	ctx, cancel, client, err := s.call(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	ids, err := client.SMembers(ctx, s.keys.devices()).Result()
	if err != nil {
		return nil, s.classify("list devices", err)
	}

	sort.Strings(ids)

	if len(ids) == 0 {
		return []models.DeviceMeta{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))

	_, err = client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, s.keys.device(models.DeviceID(id)))
		}

		return nil
	})
	if err != nil {
		return nil, s.classify("list devices", err)
	}

	devices := make([]models.DeviceMeta, 0, len(ids))

	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			s.logger.Debug().Str("device_id", ids[i]).Msg("Device id has no metadata hash")

			continue
		}

		devices = append(devices, metaFromHash(models.DeviceID(ids[i]), fields))
	}

	return devices, nil
}

// FetchDevice returns nil, nil for an unknown id.
func (s *Store) FetchDevice(ctx context.Context, id models.DeviceID) (*models.DeviceMeta, error) {
	ctx, cancel, client, err := s.call(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	fields, err := client.HGetAll(ctx, s.keys.device(id)).Result()
	if err != nil {
		return nil, s.classify("fetch device", err)
	}

	if len(fields) == 0 {
		return nil, nil
	}

	meta := metaFromHash(id, fields)

	return &meta, nil
}

// FetchMetricDictionary returns the metric names sorted by id.
func (s *Store) FetchMetricDictionary(ctx context.Context) ([]models.MetricName, error) {
	ctx, cancel, client, err := s.call(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	raw, err := client.HGetAll(ctx, s.keys.metrics()).Result()
	if err != nil {
		return nil, s.classify("fetch metric dictionary", err)
	}

	entries := make([]models.MetricName, 0, len(raw))

	for field, name := range raw {
		id, err := strconv.ParseUint(field, 10, 16)
		if err != nil {
			s.logger.Warn().Str("field", field).Msg("Skipping metric with non-numeric id")

			continue
		}

		entries = append(entries, models.MetricName{ID: uint16(id), Name: name})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	return entries, nil
}

// UpdateDeviceConfig stores a JSON document as the device configuration.
func (s *Store) UpdateDeviceConfig(ctx context.Context, id models.DeviceID, config string) error {
	if id == "" {
		return fmt.Errorf("%w: device id is required", models.ErrInvalid)
	}

	if !json.Valid([]byte(config)) {
		return fmt.Errorf("%w: config for %s is not valid JSON", models.ErrInvalid, id)
	}

	ctx, cancel, client, err := s.call(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	_, err = client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.keys.deviceConfig(id), config, 0)
		p.HSet(ctx, s.keys.device(id), fieldConfigUpdated, s.clock.Now().UnixMilli())

		return nil
	})

	return s.classify("update device config", err)
}

// UpsertDevice registers meta and writes its hash.
func (s *Store) UpsertDevice(ctx context.Context, meta models.DeviceMeta) error {
	if meta.ID == "" {
		return fmt.Errorf("%w: device id is required", models.ErrInvalid)
	}

	ctx, cancel, client, err := s.call(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	_, err = client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, s.keys.devices(), string(meta.ID))
		p.HSet(ctx, s.keys.device(meta.ID),
			fieldName, meta.Name,
			fieldSite, meta.Site,
			fieldModel, meta.Model,
			fieldFirmware, meta.Firmware,
			fieldTags, strings.Join(meta.Tags, ","),
		)

		return nil
	})

	return s.classify("upsert device", err)
}

// RemoveDevice unregisters a device and deletes its keys.
func (s *Store) RemoveDevice(ctx context.Context, id models.DeviceID) error {
	ctx, cancel, client, err := s.call(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	_, err = client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SRem(ctx, s.keys.devices(), string(id))
		p.Del(ctx, s.keys.device(id), s.keys.deviceConfig(id))

		return nil
	})

	return s.classify("remove device", err)
}

// SetMetricNames merges entries into the metric dictionary.
func (s *Store) SetMetricNames(ctx context.Context, entries []models.MetricName) error {
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel, client, err := s.call(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	values := make([]any, 0, len(entries)*2)
	for _, e := range entries {
		values = append(values, strconv.FormatUint(uint64(e.ID), 10), e.Name)
	}

	return s.classify("set metric names", client.HSet(ctx, s.keys.metrics(), values...).Err())
}

// ScanKeys runs one SCAN step and resolves the type and TTL of every
// returned key. A next cursor of 0 ends the iteration.
func (s *Store) ScanKeys(ctx context.Context, pattern string, cursor uint64, count int64) ([]models.KeyItem, uint64, error) {
	if count <= 0 {
		return nil, 0, fmt.Errorf("%w: scan batch size must be > 0", models.ErrInvalid)
	}

	ctx, cancel, client, err := s.call(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer cancel()

	if pattern == "*" {
		pattern = ""
	}

	found, next, err := client.Scan(ctx, cursor, pattern, count).Result()
	if err != nil {
		return nil, 0, s.classify("scan", err)
	}

	if len(found) == 0 {
		return []models.KeyItem{}, next, nil
	}

	types := make([]*redis.StatusCmd, len(found))
	ttls := make([]*redis.DurationCmd, len(found))

	_, err = client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, key := range found {
			types[i] = p.Type(ctx, key)
			ttls[i] = p.TTL(ctx, key)
		}

		return nil
	})
	if err != nil {
		return nil, 0, s.classify("scan", err)
	}

	items := make([]models.KeyItem, len(found))

	for i, key := range found {
		items[i] = models.KeyItem{
			Key:  key,
			Type: models.ParseKeyType(types[i].Val()),
			TTL:  ttlSeconds(ttls[i].Val()),
		}
	}

	return items, next, nil
}

// ttlSeconds converts a TTL reply. The client passes -1 and -2 through
// unscaled.
func ttlSeconds(d time.Duration) int64 {
	if d < 0 {
		return int64(d)
	}

	return int64(d / time.Second)
}

// GetKeyValue reads a key of any supported type. Lists and sorted sets are
// truncated to their first 100 items.
func (s *Store) GetKeyValue(ctx context.Context, key string) (models.KeyValue, error) {
	ctx, cancel, client, err := s.call(ctx)
	if err != nil {
		return models.KeyValue{}, err
	}
	defer cancel()

	kind, err := client.Type(ctx, key).Result()
	if err != nil {
		return models.KeyValue{}, s.classify("type", err)
	}

	value := models.KeyValue{Type: models.ParseKeyType(kind)}

	switch value.Type {
	case models.KeyTypeNone:
		return value, nil
	case models.KeyTypeString:
		value.String, err = client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return models.KeyValue{Type: models.KeyTypeNone}, nil
		}
	case models.KeyTypeHash:
		var fields map[string]string

		fields, err = client.HGetAll(ctx, key).Result()
		value.Hash = sortedFields(fields)
	case models.KeyTypeList:
		value.List, err = client.LRange(ctx, key, 0, valueReadLimit-1).Result()
	case models.KeyTypeSet:
		value.Set, err = client.SMembers(ctx, key).Result()
		sort.Strings(value.Set)
	case models.KeyTypeZSet:
		var members []redis.Z

		members, err = client.ZRangeWithScores(ctx, key, 0, valueReadLimit-1).Result()
		for _, m := range members {
			value.ZSet = append(value.ZSet, models.ScoredMember{Member: fmt.Sprint(m.Member), Score: m.Score})
		}
	default:
		return models.KeyValue{}, fmt.Errorf("%w: key %q has unsupported type %q", models.ErrProtocol, key, kind)
	}

	if err != nil {
		return models.KeyValue{}, s.classify("get "+string(value.Type), err)
	}

	return value, nil
}

func metaFromHash(id models.DeviceID, fields map[string]string) models.DeviceMeta {
	return models.DeviceMeta{
		ID:       id,
		Name:     fields[fieldName],
		Site:     fields[fieldSite],
		Model:    fields[fieldModel],
		Firmware: fields[fieldFirmware],
		Tags:     models.ParseTags(fields[fieldTags]),
	}
}

func sortedFields(fields map[string]string) []models.FieldValue {
	out := make([]models.FieldValue, 0, len(fields))
	for f, v := range fields {
		out = append(out, models.FieldValue{Field: f, Value: v})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })

	return out
}

// redactURL hides the password of a redis URL for logging.
func redactURL(raw string) string {
	at := strings.LastIndexByte(raw, '@')
	scheme := strings.Index(raw, "://")

	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}

	return raw[:scheme+3] + "***" + raw[at:]
}
