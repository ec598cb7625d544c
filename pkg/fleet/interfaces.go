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

//go:generate mockgen -destination=mock_fleet.go -package=fleet github.com/carverauto/fleetwatch/pkg/fleet Commander,Source

import (
	"context"

	"github.com/carverauto/fleetwatch/pkg/models"
)

// Commander submits device commands under caller-chosen correlation ids.
type Commander interface {
	NewCorrelationID() string
	SubmitCommand(ctx context.Context, correlationID string, device models.DeviceID, method, params string) error
}

// Source is the consumer side of the event channel.
type Source interface {
	Drain(limit int) []models.ServiceEvent
}

// Dispatcher runs observer callbacks. The executor loop is one.
type Dispatcher interface {
	Dispatch(fn func())
}

type inlineDispatcher struct{}

func (inlineDispatcher) Dispatch(fn func()) { fn() }
