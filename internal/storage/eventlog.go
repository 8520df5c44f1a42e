// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/jmoyers/harness/internal/reduce"
	"github.com/jmoyers/harness/internal/record"
)

// AppendEvent durably records an observed event at its assigned cursor.
// Called by the gateway after a command produces one or more events and
// before they're broadcast, so a crash between persistence and broadcast
// loses only delivery (clients re-subscribe and re-list), never state.
func (d *DB) AppendEvent(scope record.Scope, cursor uint64, ev reduce.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("storage: marshal event data: %w", err)
	}
	_, err = d.sql.Exec(
		`INSERT INTO events (tenant_id, user_id, workspace_id, cursor, kind, ts, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		scope.TenantID, scope.UserID, scope.WorkspaceID,
		cursor, string(ev.Kind), formatTime(ev.Ts), data,
	)
	if err != nil {
		return fmt.Errorf("storage: append event: %w", err)
	}
	return nil
}

// LoadAllEvents returns every persisted event across every scope, ordered
// by cursor, for startup recovery: the gateway replays this sequence
// through syncedstore.Store.Replay to re-derive in-memory state. It also
// returns the highest cursor seen, so the gateway's cursor generator can
// resume strictly above it.
func (d *DB) LoadAllEvents() (events []reduce.Event, maxCursor uint64, err error) {
	rows, err := d.sql.Query(
		`SELECT tenant_id, user_id, workspace_id, cursor, kind, ts, data
		   FROM events ORDER BY cursor ASC`,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: load events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tenantID, userID, workspaceID, kind, tsRaw string
			cursor                                      uint64
			data                                        []byte
		)
		if err := rows.Scan(&tenantID, &userID, &workspaceID, &cursor, &kind, &tsRaw, &data); err != nil {
			return nil, 0, fmt.Errorf("storage: scan event: %w", err)
		}
		ts, err := parseTime(tsRaw)
		if err != nil {
			return nil, 0, fmt.Errorf("storage: parse event ts: %w", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, 0, fmt.Errorf("storage: unmarshal event data: %w", err)
		}
		events = append(events, reduce.Event{
			Kind:  reduce.Kind(kind),
			Scope: record.Scope{TenantID: tenantID, UserID: userID, WorkspaceID: workspaceID},
			Ts:    ts,
			Data:  payload,
		})
		if cursor > maxCursor {
			maxCursor = cursor
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("storage: iterate events: %w", err)
	}
	return events, maxCursor, nil
}
