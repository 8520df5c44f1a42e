// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package record defines the harness's persisted entity shapes and their
// parsers. Every parser validates a loosely-typed wire payload into a
// strongly-typed immutable record, normalizing legacy aliases along the way.
package record

import "errors"

// ErrInvalid is wrapped by every parse failure so callers can distinguish a
// shape failure from a record that is simply absent.
var ErrInvalid = errors.New("invalid record")

// Scope is the tenant/user/workspace triple every record and subscription
// carries. It is immutable for the life of a record and comparable, so it
// can key maps directly (the synced store is keyed by Scope to make
// cross-scope leakage a compile-time impossibility rather than a runtime
// check).
type Scope struct {
	TenantID    string
	UserID      string
	WorkspaceID string
}

// Valid reports whether all three scope components are non-empty.
func (s Scope) Valid() bool {
	return s.TenantID != "" && s.UserID != "" && s.WorkspaceID != ""
}

// DirectoryID, RepositoryID, TaskID, ConversationID, SessionID and
// ControllerID are opaque non-empty string identifiers. They are distinct
// types so that passing a TaskID where a SessionID is expected is a compile
// error rather than a runtime one.
type (
	DirectoryID    string
	RepositoryID   string
	TaskID         string
	ConversationID string
	SessionID      string
	ControllerID   string
)

// asString extracts a required string field from a wire payload.
func asString(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// asOptionalString extracts a nullable string field. It distinguishes
// "absent" and "explicit null" (both return ok=true, val="") from "present
// but wrongly typed" (ok=false).
func asOptionalString(m map[string]any, key string) (val string, ok bool) {
	v, present := m[key]
	if !present || v == nil {
		return "", true
	}
	s, isString := v.(string)
	return s, isString
}

func asBool(m map[string]any, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// asNumber extracts a required numeric field. JSON numbers decode to
// float64 via encoding/json or map[string]any literals in tests.
func asNumber(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// asOptionalNonNegativeInt extracts a nullable non-negative integer. Any
// non-null, non-numeric, or negative value is a parse failure.
func asOptionalNonNegativeInt(m map[string]any, key string) (val *int, ok bool) {
	v, present := m[key]
	if !present || v == nil {
		return nil, true
	}
	n, isNum := asNumber(m, key)
	if !isNum || n < 0 {
		return nil, false
	}
	iv := int(n)
	return &iv, true
}

func asMap(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	mm, ok := v.(map[string]any)
	return mm, ok
}

func asOptionalMap(m map[string]any, key string) (map[string]any, bool) {
	v, present := m[key]
	if !present || v == nil {
		return nil, true
	}
	mm, ok := v.(map[string]any)
	return mm, ok
}
