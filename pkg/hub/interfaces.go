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

package hub

//go:generate mockgen -destination=mock_hub.go -package=hub github.com/carverauto/fleetwatch/pkg/hub MetadataStore,MessageBus

import (
	"context"
	"encoding/json"

	"github.com/carverauto/fleetwatch/pkg/models"
)

// MetadataStore is the metadata repository as seen by the hub.
type MetadataStore interface {
	Run(ctx context.Context) error
	IsConnected() bool
	WaitConnected(ctx context.Context) error
	ListDevices(ctx context.Context) ([]models.DeviceMeta, error)
	FetchDevice(ctx context.Context, id models.DeviceID) (*models.DeviceMeta, error)
	FetchMetricDictionary(ctx context.Context) ([]models.MetricName, error)
	UpdateDeviceConfig(ctx context.Context, id models.DeviceID, config string) error
	ScanKeys(ctx context.Context, pattern string, cursor uint64, count int64) ([]models.KeyItem, uint64, error)
	GetKeyValue(ctx context.Context, key string) (models.KeyValue, error)
}

// MessageBus is the bus client as seen by the hub.
type MessageBus interface {
	StartSubscriptions(ctx context.Context) error
	StopSubscriptions()
	IsRunning() bool
	SendCommand(ctx context.Context, device models.DeviceID, method string, params json.RawMessage, correlationID string) error
}
