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

package models

// Signal is an outbound notification from the projector to observers.
type Signal interface {
	signal()
}

// AlarmReceived is raised for alarms of severity Error or above.
type AlarmReceived struct {
	Device   DeviceID
	Code     uint32
	Severity AlarmSeverity
}

// Toast is a short user-facing message.
type Toast struct {
	Message string
	IsError bool
}

// ConnectionStateChanged forwards a supervisor transition.
type ConnectionStateChanged struct {
	Service   string
	Connected bool
	Detail    string
}

func (AlarmReceived) signal()          {}
func (Toast) signal()                  {}
func (ConnectionStateChanged) signal() {}
