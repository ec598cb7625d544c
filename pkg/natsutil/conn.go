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

// Package natsutil holds NATS connection and JetStream stream helpers.
package natsutil

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/fleetwatch/pkg/logger"
	"github.com/carverauto/fleetwatch/pkg/models"
)

// Handlers receives connection lifecycle callbacks. Nil fields are skipped.
type Handlers struct {
	OnDisconnect func(err error)
	OnClosed     func()
}

// ConnectWithSecurity creates a NATS connection with security configuration.
// Client-side reconnection is disabled: the caller owns the retry policy and
// redials after OnClosed fires.
func ConnectWithSecurity(natsURL string, security *models.SecurityConfig, log logger.Logger,
	handlers Handlers, extraOpts ...nats.Option) (*nats.Conn, error) {
	if log == nil {
		log = logger.NewTestLogger()
	}

	opts := []nats.Option{nats.NoReconnect()}

	tlsConf, err := ClientTLS(security, natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
	}

	if tlsConf != nil {
		opts = append(opts, nats.Secure(tlsConf))
	}

	opts = append(opts,
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			ev := log.Error().Err(err)
			if sub != nil {
				ev = ev.Str("subject", sub.Subject)
			}

			ev.Msg("NATS error")
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")

			if handlers.OnDisconnect != nil {
				handlers.OnDisconnect(err)
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Debug().Msg("NATS connection closed")

			if handlers.OnClosed != nil {
				handlers.OnClosed()
			}
		}),
	)

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}
