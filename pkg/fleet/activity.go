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

import "github.com/carverauto/fleetwatch/pkg/models"

// ActivityLevel grades a fleet activity log entry.
type ActivityLevel string

const (
	ActivityInfo  ActivityLevel = "info"
	ActivityWarn  ActivityLevel = "warn"
	ActivityError ActivityLevel = "error"
)

// ActivityEntry is one line of the fleet-wide activity log. Device is empty
// for entries not tied to a device.
type ActivityEntry struct {
	TsMs    int64           `json:"ts_ms"`
	Level   ActivityLevel   `json:"level"`
	Device  models.DeviceID `json:"device,omitempty"`
	Message string          `json:"message"`
}

func alarmLevel(sev models.AlarmSeverity) ActivityLevel {
	switch {
	case sev >= models.SeverityError:
		return ActivityError
	case sev == models.SeverityWarning:
		return ActivityWarn
	default:
		return ActivityInfo
	}
}
