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
	"github.com/carverauto/fleetwatch/pkg/fleet"
	"github.com/carverauto/fleetwatch/pkg/logger"
	"github.com/carverauto/fleetwatch/pkg/models"
)

// newConsoleObserver logs outbound signals and a summary line per batch.
func newConsoleObserver(p *fleet.Projector, log logger.Logger) fleet.Observer {
	return func(n fleet.Notification) {
		for _, sig := range n.Signals {
			logSignal(log, sig)
		}

		if n.Cause != fleet.CauseIngest || n.Applied == 0 {
			return
		}

		stats := p.Stats()

		log.Debug().
			Uint64("seq", n.Seq).
			Int("applied", n.Applied).
			Int("devices", p.DeviceCount()).
			Int("online", p.OnlineCount()).
			Uint64("telemetry_dropped", stats.TelemetryDropped).
			Msg("Batch applied")
	}
}

func logSignal(log logger.Logger, sig models.Signal) {
	switch s := sig.(type) {
	case models.AlarmReceived:
		log.Warn().
			Str("device_id", string(s.Device)).
			Uint32("code", s.Code).
			Str("severity", s.Severity.String()).
			Msg("Alarm received")
	case models.Toast:
		ev := log.Info()
		if s.IsError {
			ev = log.Error()
		}

		ev.Msg(s.Message)
	case models.ConnectionStateChanged:
		log.Info().
			Str("service", s.Service).
			Bool("connected", s.Connected).
			Str("detail", s.Detail).
			Msg("Connection state changed")
	}
}
