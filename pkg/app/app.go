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

package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/fleetwatch/pkg/executor"
	"github.com/carverauto/fleetwatch/pkg/fleet"
	"github.com/carverauto/fleetwatch/pkg/hub"
	"github.com/carverauto/fleetwatch/pkg/logger"
	"github.com/carverauto/fleetwatch/pkg/models"
)

// App runs the hub, the projector and the observer loop as one service.
type App struct {
	cfg       *Config
	logger    logger.Logger
	hub       *hub.Hub
	projector *fleet.Projector
	loop      *executor.Loop

	mu          sync.Mutex
	cancel      context.CancelFunc
	group       *errgroup.Group
	unsubscribe func()
}

// New wires a hub and a projector that dispatches observers on its own loop.
func New(cfg *Config, log logger.Logger, hubOpts ...hub.Option) *App {
	if log == nil {
		log = logger.NewTestLogger()
	}

	h := hub.New(cfg.Hub(), logger.Component(log, "hub"), hubOpts...)
	loop := executor.NewLoop(logger.Component(log, "loop"))
	projector := fleet.New(cfg.Fleet(), h.Events(), h, logger.Component(log, "fleet"),
		fleet.WithDispatcher(loop))

	return &App{
		cfg:       cfg,
		logger:    log,
		hub:       h,
		projector: projector,
		loop:      loop,
	}
}

// Hub returns the service hub.
func (a *App) Hub() *hub.Hub {
	return a.hub
}

// Projector returns the fleet projector.
func (a *App) Projector() *fleet.Projector {
	return a.projector
}

// Start brings up the hub, then the loop and the ingest loop, registers the
// console observer and begins the initial device load.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.group != nil {
		return nil
	}

	if err := a.hub.Start(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, runCtx := errgroup.WithContext(runCtx)

	group.Go(func() error { return a.loop.Run(runCtx) })
	group.Go(func() error { return a.projector.Run(runCtx) })

	a.unsubscribe = a.projector.Subscribe(newConsoleObserver(a.projector, logger.Component(a.logger, "console")))
	a.cancel = cancel
	a.group = group

	a.initialLoad(runCtx)

	return nil
}

// initialLoad fills the fleet from the metadata store through the bridge.
func (a *App) initialLoad(ctx context.Context) {
	p := a.projector

	a.loop.Post(func() { p.SetLoading(true) })

	executor.Go(ctx, a.loop, func(ctx context.Context) ([]models.DeviceMeta, error) {
		if err := a.hub.WaitConnected(ctx); err != nil {
			return nil, err
		}

		return a.hub.ListDevices(ctx)
	}, func(metas []models.DeviceMeta, err error) {
		defer p.SetLoading(false)

		if err != nil {
			if !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("Initial device load failed")
			}

			return
		}

		p.SetDevices(metas)
		a.logger.Info().Int("devices", len(metas)).Msg("Initial device load complete")
	})
}

// Stop cancels the loops and stops the hub.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel, group, unsubscribe := a.cancel, a.group, a.unsubscribe
	a.cancel, a.group, a.unsubscribe = nil, nil, nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()

		if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().Err(err).Msg("Runtime loop ended with error")
		}
	}

	if unsubscribe != nil {
		unsubscribe()
	}

	if err := a.hub.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop hub: %w", err)
	}

	return nil
}
