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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetwatch/pkg/models"
)

// writeSelfSigned writes a self-signed cert and key under dir and returns
// TLS paths that use the cert as its own CA.
func writeSelfSigned(t *testing.T, dir string) models.TLSConfig {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "fleet-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	files := models.TLSConfig{
		CertFile: filepath.Join(dir, "client.pem"),
		KeyFile:  filepath.Join(dir, "client-key.pem"),
		CAFile:   filepath.Join(dir, "root.pem"),
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	require.NoError(t, os.WriteFile(files.CertFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(files.CAFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(files.KeyFile,
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))

	return files
}

func TestClientTLSPlaintextModes(t *testing.T) {
	for _, sec := range []*models.SecurityConfig{nil, {}, {Mode: models.SecurityModeNone}} {
		conf, err := ClientTLS(sec, "nats://bus.example:4222")
		require.NoError(t, err)
		assert.Nil(t, conf)
	}

	_, err := ClientTLS(&models.SecurityConfig{Mode: "spiffe"}, "nats://bus.example:4222")
	require.ErrorIs(t, err, models.ErrInvalid)
}

func TestClientTLSServerName(t *testing.T) {
	files := writeSelfSigned(t, t.TempDir())

	conf, err := ClientTLS(&models.SecurityConfig{Mode: models.SecurityModeMTLS, TLS: files}, "nats://bus.example:4222")
	require.NoError(t, err)
	assert.Equal(t, "bus.example", conf.ServerName)
	assert.Len(t, conf.Certificates, 1)
	assert.NotNil(t, conf.RootCAs)

	conf, err = ClientTLS(&models.SecurityConfig{
		Mode:       models.SecurityModeMTLS,
		ServerName: "nats.fleet.internal",
		TLS:        files,
	}, "nats://10.0.0.5:4222")
	require.NoError(t, err)
	assert.Equal(t, "nats.fleet.internal", conf.ServerName)
}

func TestClientTLSBadFiles(t *testing.T) {
	dir := t.TempDir()
	files := writeSelfSigned(t, dir)

	_, err := ClientTLS(&models.SecurityConfig{
		Mode: models.SecurityModeMTLS,
		TLS:  models.TLSConfig{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"},
	}, "")
	require.ErrorIs(t, err, models.ErrInvalid)

	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a certificate"), 0o600))

	files.CAFile = garbage

	_, err = ClientTLS(&models.SecurityConfig{Mode: models.SecurityModeMTLS, TLS: files}, "")
	require.ErrorIs(t, err, models.ErrInvalid)
	require.ErrorIs(t, err, ErrCAParsingFailed)
}
