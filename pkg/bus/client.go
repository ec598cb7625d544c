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

// Package bus is the fleet message bus client. Telemetry, alarm, status and
// command-response subscriptions run as durable JetStream pull consumers on
// one stream per tenant/namespace, and commands are published with a
// correlation header and a dedupe id.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/fleetwatch/pkg/logger"
	"github.com/carverauto/fleetwatch/pkg/models"
	"github.com/carverauto/fleetwatch/pkg/natsutil"
	"github.com/carverauto/fleetwatch/pkg/supervisor"
)

// HeaderCorrelationID carries the correlation id on command and response messages.
const HeaderCorrelationID = "Fleet-Correlation-Id"

const (
	setupTimeout  = 10 * time.Second
	consumerAck   = 30 * time.Second
	maxAckPending = 1000
	fetchBackoff  = 250 * time.Millisecond
)

// Sink receives decoded service events.
type Sink interface {
	Emit(ev models.ServiceEvent)
}

type subscription int

const (
	subTelemetry subscription = iota
	subAlarm
	subResponse
	subStatus
)

func (s subscription) String() string {
	switch s {
	case subTelemetry:
		return "telemetry"
	case subAlarm:
		return "alarm"
	case subResponse:
		return "response"
	case subStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Client owns the bus connection, its subscriptions and the command producer.
type Client struct {
	cfg    Config
	sup    *supervisor.Supervisor
	sink   Sink
	logger logger.Logger
	clock  clock.Clock

	mu      sync.Mutex
	js      jetstream.JetStream
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option customizes a Client.
type Option func(*Client)

// WithClock sets the clock used for reconnect waits and command timestamps.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) {
		c.clock = clk
	}
}

// New creates a client. Nothing connects until StartSubscriptions.
func New(cfg Config, sup *supervisor.Supervisor, sink Sink, log logger.Logger, opts ...Option) *Client {
	cfg.ApplyDefaults()

	if log == nil {
		log = logger.NewTestLogger()
	}

	c := &Client{
		cfg:    cfg,
		sup:    sup,
		sink:   sink,
		logger: log,
		clock:  clock.WallClock,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// StartSubscriptions starts the connection loop. It is idempotent and
// returns immediately; the supervisor reports when the link is up.
func (c *Client) StartSubscriptions(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.running = true
	c.cancel = cancel
	c.done = done

	go func() {
		defer close(done)

		err := c.run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error().Err(err).Msg("Bus connection loop stopped")
		}

		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	return nil
}

// StopSubscriptions cancels the connection loop and waits for it to exit.
func (c *Client) StopSubscriptions() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// IsRunning reports whether subscriptions are started and not given up.
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// IsConnected reports whether the broker link is currently up.
func (c *Client) IsConnected() bool {
	return c.sup.IsConnected()
}

// session is one live connection with its consumers.
type session struct {
	nc        *nats.Conn
	js        jetstream.JetStream
	consumers map[subscription]jetstream.Consumer
	closed    chan struct{}
}

func (c *Client) run(ctx context.Context) error {
	for {
		c.sup.Connecting()

		sess, err := c.connect(ctx)
		if err == nil {
			c.setJetStream(sess.js)
			c.sup.OnConnected()

			reason := c.serve(ctx, sess)

			c.setJetStream(nil)
			sess.nc.Close()

			if ctx.Err() != nil {
				c.sup.OnDisconnected("subscriptions stopped")

				return ctx.Err()
			}

			c.sup.OnDisconnected(reason)
		} else {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			c.logger.Warn().Err(err).Str("url", c.cfg.URL).Msg("Bus connect failed")
			c.sup.OnDisconnected(err.Error())
		}

		delay, ok := c.sup.NextRetryDelay()
		if !ok {
			return models.ErrMaxAttempts
		}

		if err := supervisor.Wait(ctx, c.clock, delay); err != nil {
			return err
		}
	}
}

func (c *Client) setJetStream(js jetstream.JetStream) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.js = js
}

func (c *Client) connect(ctx context.Context) (*session, error) {
	closed := make(chan struct{})

	var once sync.Once

	nc, err := natsutil.ConnectWithSecurity(c.cfg.URL, c.cfg.Security, c.logger, natsutil.Handlers{
		OnClosed: func() { once.Do(func() { close(closed) }) },
	}, nats.Name(c.cfg.SubscriptionName))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrIO, err)
	}

	sess, err := c.setup(ctx, nc, closed)
	if err != nil {
		nc.Close()

		return nil, err
	}

	return sess, nil
}

func (c *Client) setup(ctx context.Context, nc *nats.Conn, closed chan struct{}) (*session, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("%w: jetstream: %w", models.ErrIO, err)
	}

	setupCtx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	stream := c.cfg.Stream()

	if _, err := natsutil.EnsureStream(setupCtx, js, stream, c.cfg.StreamSubject()); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrIO, err)
	}

	sess := &session{
		nc:        nc,
		js:        js,
		consumers: make(map[subscription]jetstream.Consumer),
		closed:    closed,
	}

	for sub, filter := range c.filters() {
		cons, err := js.CreateOrUpdateConsumer(setupCtx, stream, jetstream.ConsumerConfig{
			Durable:       sanitizeName(c.cfg.SubscriptionName + "-" + sub.String()),
			AckPolicy:     jetstream.AckExplicitPolicy,
			DeliverPolicy: jetstream.DeliverNewPolicy,
			AckWait:       consumerAck,
			MaxAckPending: maxAckPending,
			FilterSubject: filter,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: consumer %s: %w", models.ErrIO, sub, err)
		}

		sess.consumers[sub] = cons
	}

	return sess, nil
}

func (c *Client) filters() map[subscription]string {
	root := c.cfg.root()

	filters := map[subscription]string{
		subTelemetry: root + "." + c.cfg.TelemetryTopic + ".>",
		subAlarm:     root + "." + c.cfg.AlarmTopic + ".>",
		subResponse:  c.cfg.ResponseSubject(),
	}

	if c.cfg.StatusTopic != "" {
		filters[subStatus] = root + "." + c.cfg.StatusTopic + ".>"
	}

	return filters
}

// serve runs the fetch loops until ctx ends or the connection closes and
// returns the disconnect reason.
func (c *Client) serve(ctx context.Context, sess *session) string {
	loopCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup

	for sub, cons := range sess.consumers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			c.consume(loopCtx, sub, cons)
		}()
	}

	reason := "subscriptions stopped"

	select {
	case <-ctx.Done():
	case <-sess.closed:
		reason = "connection closed"
		if err := sess.nc.LastError(); err != nil {
			reason = err.Error()
		}
	}

	cancel()
	wg.Wait()

	return reason
}

func (c *Client) consume(ctx context.Context, sub subscription, cons jetstream.Consumer) {
	c.logger.Debug().Str("subscription", sub.String()).Msg("Starting fetch loop")

	for ctx.Err() == nil {
		batch, err := cons.Fetch(c.cfg.FetchBatch, jetstream.FetchMaxWait(c.cfg.fetchWait()))
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, nats.ErrConnectionClosed) {
				return
			}

			c.logger.Warn().Err(err).Str("subscription", sub.String()).Msg("Fetch failed")

			if waitErr := supervisor.Wait(ctx, c.clock, fetchBackoff); waitErr != nil {
				return
			}

			continue
		}

		for msg := range batch.Messages() {
			c.handle(sub, msg)
		}

		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) && ctx.Err() == nil {
			c.logger.Debug().Err(err).Str("subscription", sub.String()).Msg("Fetch ended with error")
		}
	}
}

func (c *Client) handle(sub subscription, msg jetstream.Msg) {
	ev, err := c.decode(sub, msg)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("subject", msg.Subject()).
			Str("subscription", sub.String()).
			Msg("Dropping undecodable message")
	} else {
		c.sink.Emit(ev)
	}

	if err := msg.Ack(); err != nil {
		c.logger.Debug().Err(err).Str("subject", msg.Subject()).Msg("Ack failed")
	}
}

func (c *Client) decode(sub subscription, msg jetstream.Msg) (models.ServiceEvent, error) {
	switch sub {
	case subTelemetry:
		frame, err := DecodeTelemetry(msg.Data())
		if err != nil {
			return nil, err
		}

		id, err := deviceFor(frame.DeviceID, msg.Subject())
		if err != nil {
			return nil, err
		}

		return models.Telemetry{Device: id, TsMs: frame.TsMs, Points: frame.Points}, nil
	case subAlarm:
		frame, err := DecodeAlarm(msg.Data())
		if err != nil {
			return nil, err
		}

		id, err := deviceFor(frame.DeviceID, msg.Subject())
		if err != nil {
			return nil, err
		}

		return models.Alarm{
			Device:   id,
			TsMs:     frame.TsMs,
			Code:     frame.Code,
			Message:  frame.Message,
			Severity: frame.Severity,
		}, nil
	case subStatus:
		frame, err := DecodeStatus(msg.Data())
		if err != nil {
			return nil, err
		}

		id, err := deviceFor(frame.DeviceID, msg.Subject())
		if err != nil {
			return nil, err
		}

		return models.DeviceOnlineChanged{Device: id, Online: frame.Online, TsMs: frame.TsMs}, nil
	case subResponse:
		resp, err := DecodeCommandResponse(msg.Data())
		if err != nil {
			return nil, err
		}

		if resp.CorrelationID == "" && msg.Headers() != nil {
			resp.CorrelationID = msg.Headers().Get(HeaderCorrelationID)
		}

		if resp.CorrelationID == "" {
			return nil, fmt.Errorf("%w: command response without correlation id", models.ErrProtocol)
		}

		ack := models.CommandAck{
			CorrelationID: resp.CorrelationID,
			Success:       resp.Success,
			Error:         resp.Error,
		}

		if len(resp.Payload) > 0 && string(resp.Payload) != "null" {
			ack.Payload = string(resp.Payload)
		}

		return ack, nil
	default:
		return nil, fmt.Errorf("%w: unknown subscription %d", models.ErrProtocol, sub)
	}
}

// deviceFor prefers the id carried in the frame and falls back to the last
// subject token.
func deviceFor(id models.DeviceID, subject string) (models.DeviceID, error) {
	if id != "" {
		return id, nil
	}

	if i := strings.LastIndexByte(subject, '.'); i >= 0 && i < len(subject)-1 {
		return models.DeviceID(subject[i+1:]), nil
	}

	return "", fmt.Errorf("%w: %s", errMissingDeviceID, subject)
}

// SendCommand publishes a command and returns once the broker stored it.
// correlationID doubles as the JetStream dedupe id.
func (c *Client) SendCommand(ctx context.Context, device models.DeviceID, method string,
	params json.RawMessage, correlationID string) error {
	c.mu.Lock()
	js := c.js
	c.mu.Unlock()

	if js == nil || !c.sup.IsConnected() {
		return fmt.Errorf("%w: %s", models.ErrNotConnected, c.sup.Name())
	}

	if len(params) == 0 {
		params = json.RawMessage("{}")
	}

	body, err := json.Marshal(CommandMessage{
		CorrelationID: correlationID,
		DeviceID:      device,
		Method:        method,
		Params:        params,
		SentAtMs:      c.clock.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("%w: encode command: %w", models.ErrInvalid, err)
	}

	msg := nats.NewMsg(c.cfg.CommandSubject(device))
	msg.Data = body
	msg.Header.Set(HeaderCorrelationID, correlationID)

	ack, err := js.PublishMsg(ctx, msg, jetstream.WithMsgID(correlationID))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
			return fmt.Errorf("%w: publish command %s: %w", models.ErrTimeout, correlationID, err)
		}

		return fmt.Errorf("%w: publish command %s: %w", models.ErrIO, correlationID, err)
	}

	c.logger.Debug().
		Str("correlation_id", correlationID).
		Str("device_id", string(device)).
		Str("method", method).
		Uint64("seq", ack.Sequence).
		Msg("Command published")

	return nil
}
