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

package bus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"

	"github.com/carverauto/fleetwatch/pkg/models"
	fleetv1 "github.com/carverauto/fleetwatch/proto/fleetv1"
)

func mustMarshal(t *testing.T, m proto.Message) []byte {
	t.Helper()

	b, err := proto.Marshal(m)
	require.NoError(t, err)

	return b
}

func TestTelemetryFrameEncoding(t *testing.T) {
	frame := TelemetryFrame{
		DeviceID: "wt-007",
		TsMs:     1_700_000_000_123,
		Points: []models.MetricPoint{
			{ID: 1, Value: 42.5},
			{ID: math.MaxUint16, Value: -0.25},
		},
	}

	b, err := MarshalTelemetry(frame)
	require.NoError(t, err)

	got, err := DecodeTelemetry(b)
	require.NoError(t, err)
	assert.Equal(t, frame, got)

	var pb fleetv1.TelemetryFrame
	require.NoError(t, proto.Unmarshal(b, &pb))
	assert.Equal(t, "wt-007", pb.GetDeviceId())
	require.Len(t, pb.GetPoints(), 2)
	assert.Equal(t, uint32(math.MaxUint16), pb.GetPoints()[1].GetId())
}

func TestAlarmFrameSeverityMapping(t *testing.T) {
	tests := []struct {
		wire uint32
		want models.AlarmSeverity
	}{
		{0, models.SeverityInfo},
		{1, models.SeverityWarning},
		{2, models.SeverityError},
		{3, models.SeverityCritical},
		{9, models.SeverityCritical},
		{1 << 30, models.SeverityCritical},
	}

	for _, tc := range tests {
		b := mustMarshal(t, &fleetv1.AlarmFrame{
			DeviceId: "wt-1",
			Code:     7,
			Message:  "overtemp",
			Severity: tc.wire,
		})

		frame, err := DecodeAlarm(b)
		require.NoError(t, err)
		assert.Equal(t, tc.want, frame.Severity, "wire %d", tc.wire)
		assert.Equal(t, uint32(7), frame.Code)
		assert.Equal(t, "overtemp", frame.Message)
	}
}

func TestAlarmFrameEncoding(t *testing.T) {
	frame := AlarmFrame{DeviceID: "wt-3", TsMs: 11, Code: 201, Message: "generator overtemp", Severity: models.SeverityError}

	b, err := MarshalAlarm(frame)
	require.NoError(t, err)

	got, err := DecodeAlarm(b)
	require.NoError(t, err)
	assert.Equal(t, frame, got)
}

func TestStatusFrame(t *testing.T) {
	b, err := MarshalStatus(StatusFrame{TsMs: 5, Online: true})
	require.NoError(t, err)

	got, err := DecodeStatus(b)
	require.NoError(t, err)
	assert.Equal(t, StatusFrame{TsMs: 5, Online: true}, got)
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	b := mustMarshal(t, &fleetv1.StatusFrame{DeviceId: "wt-2", TsMs: 9, Online: true})
	b = protowire.AppendTag(b, 42, protowire.BytesType)
	b = protowire.AppendString(b, "future field")
	b = protowire.AppendTag(b, 43, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 1)

	got, err := DecodeStatus(b)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceID("wt-2"), got.DeviceID)
	assert.True(t, got.Online)
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	outOfRange := mustMarshal(t, &fleetv1.TelemetryFrame{
		DeviceId: "wt-1",
		Points:   []*fleetv1.MetricPoint{{Id: math.MaxUint16 + 1, Value: 1}},
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated varint", []byte{0xff}},
		{"truncated string", []byte{0x0a, 0x05, 'a'}},
		{"metric id out of range", outOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeTelemetry(tc.data)
			require.ErrorIs(t, err, models.ErrProtocol)
		})
	}

	_, err := DecodeTelemetry(outOfRange)
	require.ErrorIs(t, err, errMetricIDRange)
}

func TestMarshalRejectsInvalidUTF8(t *testing.T) {
	_, err := MarshalStatus(StatusFrame{DeviceID: models.DeviceID("\xff\xfe")})
	require.ErrorIs(t, err, models.ErrInvalid)
}

func TestDecodeCommandResponse(t *testing.T) {
	resp, err := DecodeCommandResponse([]byte(`{"correlation_id":"c-1","success":true,"payload":{"rpm":12}}`))
	require.NoError(t, err)
	assert.Equal(t, "c-1", resp.CorrelationID)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"rpm":12}`, string(resp.Payload))

	_, err = DecodeCommandResponse([]byte("not json"))
	require.ErrorIs(t, err, models.ErrProtocol)
}

func TestDeviceFor(t *testing.T) {
	id, err := deviceFor("explicit", "dfc.devices.telemetry.other")
	require.NoError(t, err)
	assert.Equal(t, models.DeviceID("explicit"), id)

	id, err = deviceFor("", "dfc.devices.telemetry.wt-3")
	require.NoError(t, err)
	assert.Equal(t, models.DeviceID("wt-3"), id)

	_, err = deviceFor("", "telemetry.")
	require.ErrorIs(t, err, errMissingDeviceID)
}
