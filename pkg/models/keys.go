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

// KeyType is the type of a key in the metadata store.
type KeyType string

const (
	KeyTypeString  KeyType = "string"
	KeyTypeHash    KeyType = "hash"
	KeyTypeList    KeyType = "list"
	KeyTypeSet     KeyType = "set"
	KeyTypeZSet    KeyType = "zset"
	KeyTypeNone    KeyType = "none"
	KeyTypeUnknown KeyType = "unknown"
)

// ParseKeyType maps the server's TYPE reply to a KeyType.
func ParseKeyType(s string) KeyType {
	switch KeyType(s) {
	case KeyTypeString, KeyTypeHash, KeyTypeList, KeyTypeSet, KeyTypeZSet, KeyTypeNone:
		return KeyType(s)
	default:
		return KeyTypeUnknown
	}
}

// KeyItem is one entry of a key scan. TTL is in seconds; -1 means no
// expiry and -2 means the key vanished during the scan.
type KeyItem struct {
	Key  string  `json:"key"`
	Type KeyType `json:"type"`
	TTL  int64   `json:"ttl"`
}

// FieldValue is one hash field.
type FieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ScoredMember is one sorted set member.
type ScoredMember struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// KeyValue is the value of a key, tagged by Type. Only the field matching
// Type is populated.
type KeyValue struct {
	Type   KeyType        `json:"type"`
	String string         `json:"string,omitempty"`
	Hash   []FieldValue   `json:"hash,omitempty"`
	List   []string       `json:"list,omitempty"`
	Set    []string       `json:"set,omitempty"`
	ZSet   []ScoredMember `json:"zset,omitempty"`
}
