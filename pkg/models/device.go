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

// Package models holds the fleet domain types shared by the service side
// (metadata store, message bus, hub) and the projector.
package models

import (
	"strings"
)

// DeviceID identifies a device for the lifetime of the process.
type DeviceID string

func (id DeviceID) String() string {
	return string(id)
}

// DeviceMeta is the static description of a device as stored in the
// metadata store.
type DeviceMeta struct {
	ID       DeviceID `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Site     string   `json:"site,omitempty" yaml:"site,omitempty"`
	Model    string   `json:"model,omitempty" yaml:"model,omitempty"`
	Firmware string   `json:"firmware,omitempty" yaml:"firmware,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// NewDeviceMeta returns a DeviceMeta with only the id and name set.
func NewDeviceMeta(id DeviceID, name string) DeviceMeta {
	return DeviceMeta{ID: id, Name: name}
}

// Clone returns a copy that shares no slices with m.
func (m DeviceMeta) Clone() DeviceMeta {
	if m.Tags != nil {
		m.Tags = append([]string(nil), m.Tags...)
	}

	return m
}

// Equal reports whether two descriptions are identical, tags included.
func (m DeviceMeta) Equal(o DeviceMeta) bool {
	if m.ID != o.ID || m.Name != o.Name || m.Site != o.Site || m.Model != o.Model || m.Firmware != o.Firmware {
		return false
	}

	if len(m.Tags) != len(o.Tags) {
		return false
	}

	for i := range m.Tags {
		if m.Tags[i] != o.Tags[i] {
			return false
		}
	}

	return true
}

// ParseTags splits a comma separated tag list, dropping empty entries.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}

	return tags
}

// MetricPoint is one telemetry sample. ID resolves to a name through the
// metric dictionary.
type MetricPoint struct {
	ID    uint16  `json:"id"`
	Value float64 `json:"value"`
}

// MetricName is one metric dictionary entry.
type MetricName struct {
	ID   uint16 `json:"id"`
	Name string `json:"name"`
}

// AlarmSeverity is ordered: Info < Warning < Error < Critical.
type AlarmSeverity uint8

const (
	SeverityInfo AlarmSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// SeverityFromWire maps a wire value to a severity. Anything above Error is
// Critical.
func SeverityFromWire(v uint8) AlarmSeverity {
	if v >= uint8(SeverityCritical) {
		return SeverityCritical
	}

	return AlarmSeverity(v)
}

func (s AlarmSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "critical"
	}
}

// AlarmRecord is one alarm occurrence retained in a device's alarm buffer.
type AlarmRecord struct {
	TsMs     int64         `json:"ts_ms"`
	Code     uint32        `json:"code"`
	Message  string        `json:"message"`
	Severity AlarmSeverity `json:"severity"`
}

// EventRecord is an informational device event.
type EventRecord struct {
	TsMs    int64  `json:"ts_ms"`
	Message string `json:"message"`
}

// TelemetrySample is one received telemetry batch kept in device history.
type TelemetrySample struct {
	TsMs   int64         `json:"ts_ms"`
	Points []MetricPoint `json:"points"`
}

// CommandStatus tracks the lifecycle of an outbound command.
type CommandStatus int

const (
	CommandPending CommandStatus = iota
	CommandSuccess
	CommandFailed
	CommandTimeout
)

func (s CommandStatus) String() string {
	switch s {
	case CommandPending:
		return "pending"
	case CommandSuccess:
		return "success"
	case CommandFailed:
		return "failed"
	case CommandTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Done reports whether the command reached a terminal state.
func (s CommandStatus) Done() bool {
	return s != CommandPending
}

// PendingCommand is the projector's record of an in-flight or completed
// command.
type PendingCommand struct {
	CorrelationID string        `json:"correlation_id"`
	Device        DeviceID      `json:"device"`
	Method        string        `json:"method"`
	Status        CommandStatus `json:"status"`
	SentAtMs      int64         `json:"sent_at_ms"`
	Payload       string        `json:"payload,omitempty"`
	Error         string        `json:"error,omitempty"`
}
