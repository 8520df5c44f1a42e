// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import "time"

// rfc3339 is the textual timestamp format used for every stored time
// column, matching the spec's "all timestamps are ISO-8601 UTC" rule.
const rfc3339 = time.RFC3339Nano

func parseTime(s string) (time.Time, error) {
	return time.Parse(rfc3339, s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(rfc3339)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTimePtr(v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
