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

// Package fleet folds the service event stream into the fleet model that
// observers read.
package fleet

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/juju/clock"

	"github.com/carverauto/fleetwatch/pkg/bounded"
	"github.com/carverauto/fleetwatch/pkg/logger"
	"github.com/carverauto/fleetwatch/pkg/models"
)

// Stats counts what the projector has done since it was created.
type Stats struct {
	Batches          uint64 `json:"batches"`
	EventsApplied    uint64 `json:"events_applied"`
	TelemetryDropped uint64 `json:"telemetry_dropped"`
	UnknownAcks      uint64 `json:"unknown_acks"`
	UnknownEvents    uint64 `json:"unknown_events"`
	CommandsTimedOut uint64 `json:"commands_timed_out"`
}

// Projector owns the authoritative fleet model. All state is guarded by
// mu; a batch is applied under one lock so readers see all of it or none.
type Projector struct {
	cfg        Config
	source     Source
	commander  Commander
	logger     logger.Logger
	clock      clock.Clock
	dispatcher Dispatcher

	mu       sync.RWMutex
	devices  map[models.DeviceID]*deviceRuntime
	order    []models.DeviceID
	selected models.DeviceID
	metrics  map[uint16]string
	pending  *pendingTable
	activity *bounded.Buffer[ActivityEntry]
	loading  bool
	stats    Stats
	seq      uint64

	observers observerSet

	runMu   sync.Mutex
	running bool
}

// Option customizes a Projector.
type Option func(*Projector)

// WithClock sets the clock driving the ingest loop and command timestamps.
func WithClock(clk clock.Clock) Option {
	return func(p *Projector) {
		p.clock = clk
	}
}

// WithDispatcher runs observer callbacks through d instead of inline.
func WithDispatcher(d Dispatcher) Option {
	return func(p *Projector) {
		p.dispatcher = d
	}
}

// New returns an empty projector reading source and sending commands
// through commander. Either may be nil when unused.
func New(cfg Config, source Source, commander Commander, log logger.Logger, opts ...Option) *Projector {
	cfg.ApplyDefaults()

	if log == nil {
		log = logger.NewTestLogger()
	}

	p := &Projector{
		cfg:        cfg,
		source:     source,
		commander:  commander,
		logger:     log,
		clock:      clock.WallClock,
		dispatcher: inlineDispatcher{},
		devices:    make(map[models.DeviceID]*deviceRuntime),
		metrics:    make(map[uint16]string),
		pending:    newPendingTable(cfg.Capacities.PendingCommands),
		activity:   bounded.New[ActivityEntry](cfg.Capacities.GlobalLog),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run is the ingest loop: every interval it drains up to one batch from
// the source, applies it and notifies observers once. It returns when ctx
// ends. Only one Run may be active at a time.
func (p *Projector) Run(ctx context.Context) error {
	if p.source == nil {
		return fmt.Errorf("%w: projector has no event source", models.ErrInvalid)
	}

	p.runMu.Lock()
	if p.running {
		p.runMu.Unlock()
		p.logger.Warn().Msg("Ingest loop already running")

		return nil
	}

	p.running = true
	p.runMu.Unlock()

	defer func() {
		p.runMu.Lock()
		p.running = false
		p.runMu.Unlock()
	}()

	interval := p.cfg.interval()

	p.logger.Info().
		Dur("interval", interval).
		Int("batch_size", p.cfg.Ingest.BatchSize).
		Msg("Started fleet ingest loop")

	for {
		timer := p.clock.NewTimer(interval)

		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info().Msg("Stopped fleet ingest loop")

			return ctx.Err()
		case <-timer.Chan():
		}

		p.Tick()
	}
}

// Tick runs one ingest step: expire overdue commands, drain one batch and
// apply it. It returns the number of events applied.
func (p *Projector) Tick() int {
	var batch []models.ServiceEvent

	if p.source != nil {
		batch = p.source.Drain(p.cfg.Ingest.BatchSize)
	}

	p.mu.Lock()
	n := &notice{}
	p.expireLocked(n)
	p.applyLocked(batch, n)
	note, ok := p.finishLocked(n, CauseIngest, len(batch))
	p.mu.Unlock()

	if ok {
		p.notify(note)
	}

	return len(batch)
}

// Apply applies batch as one unit and notifies observers once. An empty
// batch changes nothing and notifies no one.
func (p *Projector) Apply(batch []models.ServiceEvent) {
	if len(batch) == 0 {
		return
	}

	p.mu.Lock()
	n := &notice{}
	p.applyLocked(batch, n)
	note, ok := p.finishLocked(n, CauseIngest, len(batch))
	p.mu.Unlock()

	if ok {
		p.notify(note)
	}
}

// notice accumulates what one locked section changed.
type notice struct {
	changed bool
	signals []models.Signal
}

func (n *notice) emit(sig models.Signal) {
	n.signals = append(n.signals, sig)
}

func (p *Projector) finishLocked(n *notice, cause Cause, applied int) (Notification, bool) {
	if applied > 0 {
		p.stats.Batches++
		p.stats.EventsApplied += uint64(applied)
		n.changed = true
	}

	if !n.changed && len(n.signals) == 0 {
		return Notification{}, false
	}

	p.seq++

	return Notification{
		Seq:     p.seq,
		Cause:   cause,
		Applied: applied,
		Signals: n.signals,
	}, true
}

func (p *Projector) applyLocked(batch []models.ServiceEvent, n *notice) {
	for _, ev := range batch {
		p.applyEventLocked(ev, n)
	}
}

func (p *Projector) applyEventLocked(ev models.ServiceEvent, n *notice) {
	switch e := ev.(type) {
	case models.DeviceMetaUpsert:
		p.upsertLocked(e.Meta)

	case models.DeviceRemoved:
		if p.removeLocked(e.Device) {
			p.logActivity(p.nowMs(), ActivityWarn, e.Device, "device removed")
		}

	case models.Telemetry:
		p.applyTelemetryLocked(e)

	case models.Alarm:
		p.applyAlarmLocked(e, n)

	case models.DeviceOnlineChanged:
		p.applyOnlineLocked(e)

	case models.CommandAck:
		p.applyAckLocked(e, n)

	case models.ConnectionState:
		n.emit(models.ConnectionStateChanged{
			Service:   e.Service,
			Connected: e.Connected,
			Detail:    e.Detail,
		})

		level := ActivityInfo
		if e.State == models.StateBackoff || e.State == models.StateDisconnected {
			level = ActivityWarn
		}

		p.logActivity(p.nowMs(), level, "", fmt.Sprintf("%s %s: %s", e.Service, e.State, e.Detail))

	case models.MetricDictionary:
		for _, entry := range e.Entries {
			p.metrics[entry.ID] = entry.Name
		}

	default:
		p.stats.UnknownEvents++
		p.logger.Error().Str("event", fmt.Sprintf("%T", ev)).Msg("Unhandled service event")
	}
}

func (p *Projector) upsertLocked(meta models.DeviceMeta) {
	if meta.ID == "" {
		p.logger.Warn().Msg("Ignoring device upsert without id")

		return
	}

	if d, ok := p.devices[meta.ID]; ok {
		d.meta = meta.Clone()

		return
	}

	p.devices[meta.ID] = newDeviceRuntime(meta, p.cfg.Capacities)
	p.order = append(p.order, meta.ID)
}

func (p *Projector) removeLocked(id models.DeviceID) bool {
	if _, ok := p.devices[id]; !ok {
		return false
	}

	delete(p.devices, id)
	p.order = slices.DeleteFunc(p.order, func(d models.DeviceID) bool { return d == id })

	if p.selected == id {
		p.selected = ""
	}

	return true
}

func (p *Projector) applyTelemetryLocked(e models.Telemetry) {
	d, ok := p.devices[e.Device]
	if !ok {
		p.stats.TelemetryDropped++
		p.logger.Debug().Str("device_id", string(e.Device)).Msg("Dropping telemetry for unknown device")

		return
	}

	d.observe(e.TsMs)

	for _, pt := range e.Points {
		d.latest[pt.ID] = pt.Value
	}

	d.telemetry.Push(models.TelemetrySample{
		TsMs:   e.TsMs,
		Points: slices.Clone(e.Points),
	})
}

func (p *Projector) applyAlarmLocked(e models.Alarm, n *notice) {
	if d, ok := p.devices[e.Device]; ok {
		d.alarms.Push(models.AlarmRecord{
			TsMs:     e.TsMs,
			Code:     e.Code,
			Message:  e.Message,
			Severity: e.Severity,
		})
		d.observe(e.TsMs)
	}

	if e.Severity >= models.SeverityError {
		n.emit(models.AlarmReceived{
			Device:   e.Device,
			Code:     e.Code,
			Severity: e.Severity,
		})
	}

	p.logActivity(e.TsMs, alarmLevel(e.Severity), e.Device,
		fmt.Sprintf("alarm %d (%s): %s", e.Code, e.Severity, e.Message))
}

func (p *Projector) applyOnlineLocked(e models.DeviceOnlineChanged) {
	d, ok := p.devices[e.Device]
	if !ok {
		return
	}

	d.observe(e.TsMs)

	if d.statusSet && e.TsMs < d.statusTs {
		return
	}

	d.statusSet = true
	d.statusTs = e.TsMs

	if d.online == e.Online {
		return
	}

	d.online = e.Online

	msg := "device offline"
	if e.Online {
		msg = "device online"
	}

	d.events.Push(models.EventRecord{TsMs: e.TsMs, Message: msg})
}

func (p *Projector) applyAckLocked(e models.CommandAck, n *notice) {
	cmd, ok := p.pending.get(e.CorrelationID)
	if !ok {
		p.stats.UnknownAcks++
		p.logger.Warn().Str("correlation_id", e.CorrelationID).Msg("Dropping ack for unknown command")

		return
	}

	var msg string

	if e.Success {
		cmd.Status = models.CommandSuccess
		cmd.Payload = e.Payload
		msg = fmt.Sprintf("Command %s succeeded", cmd.Method)
	} else {
		reason := e.Error
		if reason == "" {
			reason = "unknown error"
		}

		cmd.Status = models.CommandFailed
		cmd.Error = reason
		msg = fmt.Sprintf("Command %s failed: %s", cmd.Method, reason)
	}

	n.emit(models.Toast{Message: msg, IsError: !e.Success})

	level := ActivityInfo
	if !e.Success {
		level = ActivityError
	}

	now := p.nowMs()
	p.deviceEvent(cmd.Device, now, msg)
	p.logActivity(now, level, cmd.Device, msg)
}

func (p *Projector) expireLocked(n *notice) {
	timeout := p.cfg.commandTimeout()
	if timeout <= 0 {
		return
	}

	now := p.nowMs()

	for _, cmd := range p.pending.expire(now - timeout.Milliseconds()) {
		p.stats.CommandsTimedOut++

		msg := fmt.Sprintf("Command %s to %s timed out", cmd.Method, cmd.Device)

		n.changed = true
		n.emit(models.Toast{Message: msg, IsError: true})

		p.deviceEvent(cmd.Device, now, msg)
		p.logActivity(now, ActivityError, cmd.Device, msg)

		p.logger.Warn().
			Str("device_id", string(cmd.Device)).
			Str("method", cmd.Method).
			Str("correlation_id", cmd.CorrelationID).
			Msg("Command timed out")
	}
}

func (p *Projector) deviceEvent(id models.DeviceID, ts int64, msg string) {
	if d, ok := p.devices[id]; ok {
		d.events.Push(models.EventRecord{TsMs: ts, Message: msg})
	}
}

func (p *Projector) logActivity(ts int64, level ActivityLevel, device models.DeviceID, msg string) {
	p.activity.Push(ActivityEntry{TsMs: ts, Level: level, Device: device, Message: msg})
}

func (p *Projector) nowMs() int64 {
	return p.clock.Now().UnixMilli()
}

// SendCommand records the command as Pending and then submits it through
// the commander, so an acknowledgement that races the submission still
// finds its entry. A submission failure drops the entry, emits an error
// toast and is returned.
func (p *Projector) SendCommand(ctx context.Context, device models.DeviceID, method, params string) (string, error) {
	if p.commander == nil {
		return "", fmt.Errorf("%w: projector has no commander", models.ErrInvalid)
	}

	correlationID := p.commander.NewCorrelationID()

	p.mu.Lock()
	evicted := p.pending.insert(models.PendingCommand{
		CorrelationID: correlationID,
		Device:        device,
		Method:        method,
		Status:        models.CommandPending,
		SentAtMs:      p.nowMs(),
	})
	p.mu.Unlock()

	if len(evicted) > 0 {
		p.logger.Debug().Strs("correlation_ids", evicted).Msg("Evicted old commands")
	}

	if err := p.commander.SubmitCommand(ctx, correlationID, device, method, params); err != nil {
		msg := fmt.Sprintf("failed to send command %s to %s: %v", method, device, err)

		p.mu.Lock()
		p.pending.remove(correlationID)
		p.logActivity(p.nowMs(), ActivityError, device, msg)
		note, _ := p.finishLocked(&notice{signals: []models.Signal{models.Toast{Message: msg, IsError: true}}},
			CauseCommand, 0)
		p.mu.Unlock()

		p.notify(note)

		return "", err
	}

	p.mu.Lock()
	p.logActivity(p.nowMs(), ActivityInfo, device, fmt.Sprintf("command %s sent", method))
	note, _ := p.finishLocked(&notice{changed: true}, CauseCommand, 0)
	p.mu.Unlock()

	p.notify(note)

	return correlationID, nil
}

// SelectDevice selects id, or clears the selection when id is empty.
func (p *Projector) SelectDevice(id models.DeviceID) error {
	p.mu.Lock()

	if id != "" {
		if _, ok := p.devices[id]; !ok {
			p.mu.Unlock()

			return fmt.Errorf("%w: unknown device %q", models.ErrInvalid, id)
		}
	}

	if p.selected == id {
		p.mu.Unlock()

		return nil
	}

	p.selected = id
	note, _ := p.finishLocked(&notice{changed: true}, CauseMutation, 0)
	p.mu.Unlock()

	p.notify(note)

	return nil
}

// SetLoading sets the loading flag.
func (p *Projector) SetLoading(loading bool) {
	p.mu.Lock()

	if p.loading == loading {
		p.mu.Unlock()

		return
	}

	p.loading = loading
	note, _ := p.finishLocked(&notice{changed: true}, CauseMutation, 0)
	p.mu.Unlock()

	p.notify(note)
}

// ToggleWatch flips the watch flag of id and returns the new value. It
// reports false for an unknown device.
func (p *Projector) ToggleWatch(id models.DeviceID) (watched, ok bool) {
	p.mu.Lock()

	d, ok := p.devices[id]
	if !ok {
		p.mu.Unlock()

		return false, false
	}

	d.watched = !d.watched
	watched = d.watched
	note, _ := p.finishLocked(&notice{changed: true}, CauseMutation, 0)
	p.mu.Unlock()

	p.notify(note)

	return watched, true
}

// SetDevices replaces the fleet with metas in the given order. Duplicate
// ids keep their first occurrence. Devices present before and after keep
// their runtime data; a selection that no longer exists is cleared.
func (p *Projector) SetDevices(metas []models.DeviceMeta) {
	order := make([]models.DeviceID, 0, len(metas))
	byID := make(map[models.DeviceID]models.DeviceMeta, len(metas))

	for _, meta := range metas {
		if meta.ID == "" {
			continue
		}

		if _, dup := byID[meta.ID]; dup {
			continue
		}

		byID[meta.ID] = meta
		order = append(order, meta.ID)
	}

	p.mu.Lock()

	if p.sameFleetLocked(order, byID) {
		p.mu.Unlock()

		return
	}

	devices := make(map[models.DeviceID]*deviceRuntime, len(order))

	for _, id := range order {
		if d, ok := p.devices[id]; ok {
			d.meta = byID[id].Clone()
			devices[id] = d

			continue
		}

		devices[id] = newDeviceRuntime(byID[id], p.cfg.Capacities)
	}

	p.devices = devices
	p.order = order

	if _, ok := p.devices[p.selected]; !ok {
		p.selected = ""
	}

	note, _ := p.finishLocked(&notice{changed: true}, CauseMutation, 0)
	p.mu.Unlock()

	p.notify(note)
}

func (p *Projector) sameFleetLocked(order []models.DeviceID, byID map[models.DeviceID]models.DeviceMeta) bool {
	if !slices.Equal(order, p.order) {
		return false
	}

	for _, id := range order {
		if !p.devices[id].meta.Equal(byID[id]) {
			return false
		}
	}

	return true
}
