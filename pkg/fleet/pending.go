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
	"slices"

	"github.com/carverauto/fleetwatch/pkg/models"
)

// pendingTable holds commands by correlation id in insertion order.
type pendingTable struct {
	limit int
	byID  map[string]*models.PendingCommand
	order []string
}

func newPendingTable(limit int) *pendingTable {
	return &pendingTable{
		limit: limit,
		byID:  make(map[string]*models.PendingCommand),
	}
}

func (t *pendingTable) get(id string) (*models.PendingCommand, bool) {
	cmd, ok := t.byID[id]

	return cmd, ok
}

// insert adds cmd and evicts down to the limit: the oldest finished entry
// goes first, then the oldest entry. It returns the evicted ids.
func (t *pendingTable) insert(cmd models.PendingCommand) []string {
	if _, ok := t.byID[cmd.CorrelationID]; !ok {
		t.order = append(t.order, cmd.CorrelationID)
	}

	t.byID[cmd.CorrelationID] = &cmd

	var evicted []string

	for len(t.order) > t.limit {
		idx := slices.IndexFunc(t.order, func(id string) bool {
			return t.byID[id].Status.Done()
		})
		if idx < 0 {
			idx = 0
		}

		id := t.order[idx]
		t.order = slices.Delete(t.order, idx, idx+1)
		delete(t.byID, id)

		evicted = append(evicted, id)
	}

	return evicted
}

// remove drops id and reports whether it was present.
func (t *pendingTable) remove(id string) bool {
	if _, ok := t.byID[id]; !ok {
		return false
	}

	delete(t.byID, id)
	t.order = slices.DeleteFunc(t.order, func(o string) bool { return o == id })

	return true
}

// expire moves Pending commands sent at or before cutoff to Timeout.
func (t *pendingTable) expire(cutoffMs int64) []models.PendingCommand {
	var expired []models.PendingCommand

	for _, id := range t.order {
		cmd := t.byID[id]
		if cmd.Status == models.CommandPending && cmd.SentAtMs <= cutoffMs {
			cmd.Status = models.CommandTimeout
			expired = append(expired, *cmd)
		}
	}

	return expired
}

func (t *pendingTable) list() []models.PendingCommand {
	out := make([]models.PendingCommand, 0, len(t.order))

	for _, id := range t.order {
		out = append(out, *t.byID[id])
	}

	return out
}
