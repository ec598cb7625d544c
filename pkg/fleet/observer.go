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
	"sync"

	"github.com/carverauto/fleetwatch/pkg/models"
)

// Cause says what produced a notification.
type Cause int

const (
	// CauseIngest is an applied batch or a reaper pass.
	CauseIngest Cause = iota
	// CauseMutation is an observer call such as SelectDevice.
	CauseMutation
	// CauseCommand is a command submission.
	CauseCommand
)

func (c Cause) String() string {
	switch c {
	case CauseIngest:
		return "ingest"
	case CauseMutation:
		return "mutation"
	case CauseCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Notification is delivered once per state change. Signals holds the
// outbound signals raised by that change, in order.
type Notification struct {
	Seq     uint64
	Cause   Cause
	Applied int
	Signals []models.Signal
}

// Observer receives notifications. It may call back into the projector.
type Observer func(Notification)

type observerSet struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]Observer
	order  []uint64
}

// Subscribe registers fn and returns a func that removes it.
func (p *Projector) Subscribe(fn Observer) (unsubscribe func()) {
	s := &p.observers

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byID == nil {
		s.byID = make(map[uint64]Observer)
	}

	s.nextID++
	id := s.nextID
	s.byID[id] = fn
	s.order = append(s.order, id)

	var once sync.Once

	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			delete(s.byID, id)

			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)

					break
				}
			}
		})
	}
}

func (s *observerSet) snapshot() []Observer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Observer, 0, len(s.order))

	for _, id := range s.order {
		out = append(out, s.byID[id])
	}

	return out
}

// notify hands note to every observer through the dispatcher. It must be
// called without holding p.mu.
func (p *Projector) notify(note Notification) {
	observers := p.observers.snapshot()
	if len(observers) == 0 {
		return
	}

	p.dispatcher.Dispatch(func() {
		for _, fn := range observers {
			fn(note)
		}
	})
}
