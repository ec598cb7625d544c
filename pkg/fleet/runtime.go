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

package fleet

import (
	"maps"

	"github.com/carverauto/fleetwatch/pkg/bounded"
	"github.com/carverauto/fleetwatch/pkg/models"
)

// deviceRuntime is the projector's mutable record for one device.
type deviceRuntime struct {
	meta      models.DeviceMeta
	online    bool
	seen      bool
	lastSeen  int64
	statusSet bool
	statusTs  int64
	latest    map[uint16]float64
	events    *bounded.Buffer[models.EventRecord]
	alarms    *bounded.Buffer[models.AlarmRecord]
	telemetry *bounded.Buffer[models.TelemetrySample]
	watched   bool
}

func newDeviceRuntime(meta models.DeviceMeta, caps CapacityConfig) *deviceRuntime {
	return &deviceRuntime{
		meta:      meta.Clone(),
		latest:    make(map[uint16]float64),
		events:    bounded.New[models.EventRecord](caps.EventsPerDevice),
		alarms:    bounded.New[models.AlarmRecord](caps.AlarmsPerDevice),
		telemetry: bounded.New[models.TelemetrySample](caps.TelemetryHistory),
	}
}

func (d *deviceRuntime) observe(ts int64) {
	if !d.seen || ts > d.lastSeen {
		d.lastSeen = ts
		d.seen = true
	}
}

func (d *deviceRuntime) snapshot() DeviceSnapshot {
	return DeviceSnapshot{
		Meta:       d.meta.Clone(),
		Online:     d.online,
		Seen:       d.seen,
		LastSeenMs: d.lastSeen,
		Latest:     maps.Clone(d.latest),
		Events:     d.events.Slice(),
		Alarms:     d.alarms.Slice(),
		Telemetry:  d.telemetry.Slice(),
		Watched:    d.watched,
	}
}

// DeviceSnapshot is a point-in-time copy of one device's runtime state.
// Buffers are ordered oldest to newest. LastSeenMs is meaningful only when
// Seen is true.
type DeviceSnapshot struct {
	Meta       models.DeviceMeta        `json:"meta"`
	Online     bool                     `json:"online"`
	Seen       bool                     `json:"seen"`
	LastSeenMs int64                    `json:"last_seen_ms"`
	Latest     map[uint16]float64       `json:"latest"`
	Events     []models.EventRecord     `json:"events"`
	Alarms     []models.AlarmRecord     `json:"alarms"`
	Telemetry  []models.TelemetrySample `json:"telemetry"`
	Watched    bool                     `json:"watched"`
}
