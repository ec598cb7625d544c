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

package natsutil

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/carverauto/fleetwatch/pkg/models"
)

// ErrCAParsingFailed is returned when the CA file holds no usable certificate.
var ErrCAParsingFailed = errors.New("failed to parse CA certificate")

// ClientTLS returns the tls.Config for dialing serverURL under sec, or nil
// for a plaintext link. Paths are expected to be resolved already (pkg/config
// does this against cert_dir). Without an explicit server name the URL host
// is verified.
func ClientTLS(sec *models.SecurityConfig, serverURL string) (*tls.Config, error) {
	if sec == nil || sec.Mode == "" || sec.Mode == models.SecurityModeNone {
		return nil, nil
	}

	if sec.Mode != models.SecurityModeMTLS {
		return nil, fmt.Errorf("%w: unsupported security mode %q", models.ErrInvalid, sec.Mode)
	}

	cert, err := tls.LoadX509KeyPair(sec.TLS.CertFile, sec.TLS.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: client certificate %s: %w", models.ErrInvalid, sec.TLS.CertFile, err)
	}

	caPEM, err := os.ReadFile(sec.TLS.CAFile)
	if err != nil {
		return nil, fmt.Errorf("%w: CA certificate: %w", models.ErrInvalid, err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrInvalid, sec.TLS.CAFile, ErrCAParsingFailed)
	}

	serverName := sec.ServerName
	if serverName == "" {
		serverName = hostname(serverURL)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		ServerName:   serverName,
		MinVersion:   tls.VersionTLS13,
	}, nil
}

func hostname(serverURL string) string {
	u, err := url.Parse(serverURL)
	if err != nil {
		return ""
	}

	return u.Hostname()
}
