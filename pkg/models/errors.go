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

import "errors"

// Error kinds. Operations wrap exactly one of these so callers can branch
// with errors.Is.
var (
	ErrInvalid       = errors.New("invalid")
	ErrIO            = errors.New("io error")
	ErrProtocol      = errors.New("protocol error")
	ErrTimeout       = errors.New("timeout")
	ErrNotConnected  = errors.New("not connected")
	ErrChannelClosed = errors.New("event channel closed")
	ErrMaxAttempts   = errors.New("max reconnect attempts reached")
)
