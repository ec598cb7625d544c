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

// Package events provides the multi-producer, single-consumer channel that
// carries service events from the external clients to the fleet projector.
package events

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gammazero/deque"

	"github.com/carverauto/fleetwatch/pkg/logger"
	"github.com/carverauto/fleetwatch/pkg/models"
)

// Queue is an unbounded FIFO of service events. With a positive limit the
// oldest Telemetry event is dropped to make room; other variants are never
// dropped, so the queue can exceed the limit when it holds no telemetry.
type Queue struct {
	mu      sync.Mutex
	items   deque.Deque[models.ServiceEvent]
	limit   int
	closed  bool
	dropped uint64

	logger     logger.Logger
	closedOnce atomic.Bool
}

// NewQueue creates a queue. limit <= 0 means unbounded.
func NewQueue(limit int, log logger.Logger) *Queue {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Queue{limit: limit, logger: log}
}

// Send appends ev. It returns models.ErrChannelClosed after Close.
func (q *Queue) Send(ev models.ServiceEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return models.ErrChannelClosed
	}

	if q.limit > 0 && q.items.Len() >= q.limit {
		q.dropOldestTelemetryLocked()
	}

	q.items.PushBack(ev)

	return nil
}

// Emit is Send for producers that cannot act on a failure. The first
// channel-closed error is logged, later ones are silent.
func (q *Queue) Emit(ev models.ServiceEvent) {
	q.emit(ev, "", &q.closedOnce)
}

func (q *Queue) emit(ev models.ServiceEvent, producer string, once *atomic.Bool) {
	err := q.Send(ev)
	if err == nil {
		return
	}

	if errors.Is(err, models.ErrChannelClosed) && !once.CompareAndSwap(false, true) {
		return
	}

	q.logger.Debug().
		Err(err).
		Str("producer", producer).
		Str("event", models.EventKind(ev)).
		Msg("Event channel closed, dropping events")
}

// Producer returns a named sender with its own log-once state.
func (q *Queue) Producer(name string) *Producer {
	return &Producer{queue: q, name: name}
}

// Drain removes up to limit events without blocking. limit <= 0 drains everything.
func (q *Queue) Drain(limit int) []models.ServiceEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.items.Len()
	if limit > 0 && n > limit {
		n = limit
	}

	if n == 0 {
		return nil
	}

	out := make([]models.ServiceEvent, n)
	for i := range out {
		out[i] = q.items.PopFront()
	}

	return out
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.items.Len()
}

// Dropped returns how many telemetry events were discarded by the limit.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.dropped
}

// Close rejects further sends. Queued events can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}

func (q *Queue) dropOldestTelemetryLocked() {
	idx := q.items.Index(func(ev models.ServiceEvent) bool {
		_, ok := ev.(models.Telemetry)

		return ok
	})
	if idx < 0 {
		return
	}

	q.items.Remove(idx)
	q.dropped++
}

// Producer is a named handle onto a Queue.
type Producer struct {
	queue      *Queue
	name       string
	closedOnce atomic.Bool
}

// Emit sends ev, logging the first channel-closed failure for this producer.
func (p *Producer) Emit(ev models.ServiceEvent) {
	p.queue.emit(ev, p.name, &p.closedOnce)
}

// Send forwards to the queue.
func (p *Producer) Send(ev models.ServiceEvent) error {
	return p.queue.Send(ev)
}
