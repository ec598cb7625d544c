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

package models

// ConnState is the state of one connection supervisor.
type ConnState int

const (
	// StateDisconnected is the idle state before the first attempt and after stop.
	StateDisconnected ConnState = iota
	// StateConnecting means a connection attempt is in flight.
	StateConnecting
	// StateConnected means the link is up and the attempt counter is zero.
	StateConnected
	// StateBackoff means the supervisor is waiting out a retry delay.
	StateBackoff
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// ServiceEvent is the closed set of records flowing from the service side
// into the projector. The marker method keeps the set closed to this
// package.
type ServiceEvent interface {
	serviceEvent()
}

// DeviceMetaUpsert announces a device or a change to its description.
type DeviceMetaUpsert struct {
	Meta DeviceMeta
}

// DeviceRemoved drops a device from the fleet.
type DeviceRemoved struct {
	Device DeviceID
}

// Telemetry carries one sample batch from a device.
type Telemetry struct {
	Device DeviceID
	TsMs   int64
	Points []MetricPoint
}

// Alarm is one alarm raised by a device.
type Alarm struct {
	Device   DeviceID
	TsMs     int64
	Code     uint32
	Message  string
	Severity AlarmSeverity
}

// DeviceOnlineChanged reports a device going online or offline.
type DeviceOnlineChanged struct {
	Device DeviceID
	Online bool
	TsMs   int64
}

// CommandAck resolves an outbound command by correlation id.
type CommandAck struct {
	CorrelationID string
	Success       bool
	Payload       string
	Error         string
}

// ConnectionState is published by a supervisor on every transition.
type ConnectionState struct {
	Service   string
	Connected bool
	Detail    string
	State     ConnState
	Attempt   uint32
}

// MetricDictionary pushes metric id to name entries, full or incremental.
type MetricDictionary struct {
	Entries []MetricName
}

func (DeviceMetaUpsert) serviceEvent()    {}
func (DeviceRemoved) serviceEvent()       {}
func (Telemetry) serviceEvent()           {}
func (Alarm) serviceEvent()               {}
func (DeviceOnlineChanged) serviceEvent() {}
func (CommandAck) serviceEvent()          {}
func (ConnectionState) serviceEvent()     {}
func (MetricDictionary) serviceEvent()    {}

// EventKind names the variant of an event for logging.
func EventKind(ev ServiceEvent) string {
	switch ev.(type) {
	case DeviceMetaUpsert:
		return "device_meta_upsert"
	case DeviceRemoved:
		return "device_removed"
	case Telemetry:
		return "telemetry"
	case Alarm:
		return "alarm"
	case DeviceOnlineChanged:
		return "device_online_changed"
	case CommandAck:
		return "command_ack"
	case ConnectionState:
		return "connection_state"
	case MetricDictionary:
		return "metric_dictionary"
	default:
		return "unknown"
	}
}
