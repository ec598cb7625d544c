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

// Package executor runs observer work on one goroutine and bridges
// blocking calls back onto it.
package executor

import (
	"context"
	"sync"

	"github.com/carverauto/fleetwatch/pkg/logger"
)

// Loop runs posted funcs one at a time, in the order they were posted.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	logger  logger.Logger
}

// NewLoop returns a loop that does nothing until Run is called.
func NewLoop(log logger.Logger) *Loop {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: log,
	}
}

// Post queues fn. It never blocks.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Dispatch is Post under the name the projector expects of a dispatcher.
func (l *Loop) Dispatch(fn func()) {
	l.Post(fn)
}

// Len returns the number of funcs waiting to run.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.pending)
}

// Run executes posted funcs until ctx ends. Funcs still queued when ctx
// ends are discarded.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for _, fn := range l.take() {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			l.run(fn)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	batch := l.pending
	l.pending = nil

	return batch
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("Recovered panic in loop task")
		}
	}()

	fn()
}

// Go runs work on its own goroutine and posts done with the result back
// onto loop. When ctx ends first, done sees the context error.
func Go[T any](ctx context.Context, loop *Loop, work func(context.Context) (T, error), done func(T, error)) {
	go func() {
		result, err := work(ctx)

		if ctx.Err() != nil && err == nil {
			err = ctx.Err()
		}

		loop.Post(func() {
			if done != nil {
				done(result, err)
			}
		})
	}()
}
