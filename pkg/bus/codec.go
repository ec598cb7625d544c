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

//go:generate protoc -I ../../proto --go_out=../.. --go_opt=module=github.com/carverauto/fleetwatch ../../proto/fleet.proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/proto"

	"github.com/carverauto/fleetwatch/pkg/models"
	fleetv1 "github.com/carverauto/fleetwatch/proto/fleetv1"
)

var (
	errMetricIDRange   = errors.New("metric id out of range")
	errMissingDeviceID = errors.New("frame has no device id")
)

// TelemetryFrame is a decoded telemetry record.
type TelemetryFrame struct {
	DeviceID models.DeviceID
	TsMs     int64
	Points   []models.MetricPoint
}

// AlarmFrame is a decoded alarm record.
type AlarmFrame struct {
	DeviceID models.DeviceID
	TsMs     int64
	Code     uint32
	Message  string
	Severity models.AlarmSeverity
}

// StatusFrame is a decoded online/offline record.
type StatusFrame struct {
	DeviceID models.DeviceID
	TsMs     int64
	Online   bool
}

// CommandMessage is the JSON body published on the command topic.
type CommandMessage struct {
	CorrelationID string          `json:"correlation_id"`
	DeviceID      models.DeviceID `json:"device_id"`
	Method        string          `json:"method"`
	Params        json.RawMessage `json:"params"`
	SentAtMs      int64           `json:"sent_at_ms"`
}

// CommandResponse is the JSON body expected on the response topic.
type CommandResponse struct {
	CorrelationID string          `json:"correlation_id"`
	Success       bool            `json:"success"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// DecodeTelemetry parses a TelemetryFrame.
func DecodeTelemetry(b []byte) (TelemetryFrame, error) {
	var pb fleetv1.TelemetryFrame

	if err := proto.Unmarshal(b, &pb); err != nil {
		return TelemetryFrame{}, fmt.Errorf("%w: telemetry: %w", models.ErrProtocol, err)
	}

	frame := TelemetryFrame{
		DeviceID: models.DeviceID(pb.GetDeviceId()),
		TsMs:     pb.GetTsMs(),
	}

	if n := len(pb.GetPoints()); n > 0 {
		frame.Points = make([]models.MetricPoint, 0, n)
	}

	for _, p := range pb.GetPoints() {
		if p.GetId() > math.MaxUint16 {
			return TelemetryFrame{}, fmt.Errorf("%w: telemetry: %w: %d", models.ErrProtocol, errMetricIDRange, p.GetId())
		}

		frame.Points = append(frame.Points, models.MetricPoint{ID: uint16(p.GetId()), Value: p.GetValue()})
	}

	return frame, nil
}

// DecodeAlarm parses an AlarmFrame.
func DecodeAlarm(b []byte) (AlarmFrame, error) {
	var pb fleetv1.AlarmFrame

	if err := proto.Unmarshal(b, &pb); err != nil {
		return AlarmFrame{}, fmt.Errorf("%w: alarm: %w", models.ErrProtocol, err)
	}

	return AlarmFrame{
		DeviceID: models.DeviceID(pb.GetDeviceId()),
		TsMs:     pb.GetTsMs(),
		Code:     pb.GetCode(),
		Message:  pb.GetMessage(),
		Severity: models.SeverityFromWire(uint8(min(pb.GetSeverity(), math.MaxUint8))),
	}, nil
}

// DecodeStatus parses a StatusFrame.
func DecodeStatus(b []byte) (StatusFrame, error) {
	var pb fleetv1.StatusFrame

	if err := proto.Unmarshal(b, &pb); err != nil {
		return StatusFrame{}, fmt.Errorf("%w: status: %w", models.ErrProtocol, err)
	}

	return StatusFrame{
		DeviceID: models.DeviceID(pb.GetDeviceId()),
		TsMs:     pb.GetTsMs(),
		Online:   pb.GetOnline(),
	}, nil
}

// DecodeCommandResponse parses a JSON CommandResponse. The correlation id
// may be empty when the responder only set the correlation header.
func DecodeCommandResponse(b []byte) (CommandResponse, error) {
	var resp CommandResponse

	if err := json.Unmarshal(b, &resp); err != nil {
		return CommandResponse{}, fmt.Errorf("%w: command response: %w", models.ErrProtocol, err)
	}

	return resp, nil
}

// MarshalTelemetry encodes frame.
func MarshalTelemetry(frame TelemetryFrame) ([]byte, error) {
	pb := &fleetv1.TelemetryFrame{
		DeviceId: string(frame.DeviceID),
		TsMs:     frame.TsMs,
		Points:   make([]*fleetv1.MetricPoint, 0, len(frame.Points)),
	}

	for _, p := range frame.Points {
		pb.Points = append(pb.Points, &fleetv1.MetricPoint{Id: uint32(p.ID), Value: p.Value})
	}

	return marshal("telemetry", pb)
}

// MarshalAlarm encodes frame.
func MarshalAlarm(frame AlarmFrame) ([]byte, error) {
	return marshal("alarm", &fleetv1.AlarmFrame{
		DeviceId: string(frame.DeviceID),
		TsMs:     frame.TsMs,
		Code:     frame.Code,
		Message:  frame.Message,
		Severity: uint32(frame.Severity),
	})
}

// MarshalStatus encodes frame.
func MarshalStatus(frame StatusFrame) ([]byte, error) {
	return marshal("status", &fleetv1.StatusFrame{
		DeviceId: string(frame.DeviceID),
		TsMs:     frame.TsMs,
		Online:   frame.Online,
	})
}

func marshal(kind string, m proto.Message) ([]byte, error) {
	b, err := proto.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrInvalid, kind, err)
	}

	return b, nil
}
