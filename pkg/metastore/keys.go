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

package metastore

import "github.com/carverauto/fleetwatch/pkg/models"

// Hash fields of a device record.
const (
	fieldName          = "name"
	fieldSite          = "site"
	fieldModel         = "model"
	fieldFirmware      = "firmware"
	fieldTags          = "tags"
	fieldConfigUpdated = "config_updated_ms"
)

type keys struct {
	prefix string
}

func (k keys) devices() string {
	return k.prefix + ":devices"
}

func (k keys) device(id models.DeviceID) string {
	return k.prefix + ":device:" + string(id)
}

func (k keys) deviceConfig(id models.DeviceID) string {
	return k.device(id) + ":config"
}

func (k keys) metrics() string {
	return k.prefix + ":metrics"
}
