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

	"github.com/carverauto/fleetwatch/pkg/models"
)

// Devices returns snapshots of every device in first-seen order.
func (p *Projector) Devices() []DeviceSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]DeviceSnapshot, 0, len(p.order))

	for _, id := range p.order {
		out = append(out, p.devices[id].snapshot())
	}

	return out
}

// DeviceIDs returns the device ids in first-seen order.
func (p *Projector) DeviceIDs() []models.DeviceID {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]models.DeviceID(nil), p.order...)
}

// Device returns one device.
func (p *Projector) Device(id models.DeviceID) (DeviceSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	d, ok := p.devices[id]
	if !ok {
		return DeviceSnapshot{}, false
	}

	return d.snapshot(), true
}

// DeviceCount returns how many devices are known.
func (p *Projector) DeviceCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.devices)
}

// OnlineCount returns how many known devices last reported online.
func (p *Projector) OnlineCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := 0

	for _, d := range p.devices {
		if d.online {
			n++
		}
	}

	return n
}

// MetricName resolves a metric id through the dictionary.
func (p *Projector) MetricName(id uint16) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	name, ok := p.metrics[id]

	return name, ok
}

// MetricNames returns a copy of the dictionary.
func (p *Projector) MetricNames() map[uint16]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return maps.Clone(p.metrics)
}

// SelectedID returns the selected device id, empty when none.
func (p *Projector) SelectedID() models.DeviceID {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.selected
}

// Selected returns the selected device.
func (p *Projector) Selected() (DeviceSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	d, ok := p.devices[p.selected]
	if !ok {
		return DeviceSnapshot{}, false
	}

	return d.snapshot(), true
}

// PendingCommand looks up a command by correlation id.
func (p *Projector) PendingCommand(correlationID string) (models.PendingCommand, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cmd, ok := p.pending.get(correlationID)
	if !ok {
		return models.PendingCommand{}, false
	}

	return *cmd, true
}

// PendingCommands returns every retained command, oldest first.
func (p *Projector) PendingCommands() []models.PendingCommand {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.pending.list()
}

// IsLoading reports the flag last set by SetLoading.
func (p *Projector) IsLoading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.loading
}

// Activity returns the fleet activity log, oldest first.
func (p *Projector) Activity() []ActivityEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.activity.Slice()
}

// Stats returns a copy of the apply and command counters.
func (p *Projector) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.stats
}
