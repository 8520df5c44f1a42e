// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// schemaVersion is the current schema's version number. migrations
// applies every numbered migration greater than the database's stored
// version, in order; new schema changes are added as a new entry here,
// never by editing an already-shipped one.
const schemaVersion = 1

// migrations holds one SQL statement set per schema version, 1-indexed
// (migrations[0] is version 1). Applying them in order from whatever
// version the database reports makes `gateway start` an idempotent
// migration runner on every boot, per the spec's crash-recovery
// requirement.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS directories (
			tenant_id    TEXT NOT NULL,
			user_id      TEXT NOT NULL,
			workspace_id TEXT NOT NULL,
			directory_id TEXT NOT NULL,
			data         TEXT NOT NULL,
			archived_at  TEXT,
			PRIMARY KEY (tenant_id, user_id, workspace_id, directory_id)
		)`,

		`CREATE TABLE IF NOT EXISTS repositories (
			tenant_id     TEXT NOT NULL,
			user_id       TEXT NOT NULL,
			workspace_id  TEXT NOT NULL,
			repository_id TEXT NOT NULL,
			data          TEXT NOT NULL,
			archived_at   TEXT,
			PRIMARY KEY (tenant_id, user_id, workspace_id, repository_id)
		)`,

		`CREATE TABLE IF NOT EXISTS conversations (
			tenant_id       TEXT NOT NULL,
			user_id         TEXT NOT NULL,
			workspace_id    TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			directory_id    TEXT NOT NULL,
			data            TEXT NOT NULL,
			PRIMARY KEY (tenant_id, user_id, workspace_id, conversation_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_directory
			ON conversations(tenant_id, user_id, workspace_id, directory_id)`,

		`CREATE TABLE IF NOT EXISTS tasks (
			tenant_id    TEXT NOT NULL,
			user_id      TEXT NOT NULL,
			workspace_id TEXT NOT NULL,
			task_id      TEXT NOT NULL,
			data         TEXT NOT NULL,
			PRIMARY KEY (tenant_id, user_id, workspace_id, task_id)
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			tenant_id    TEXT    NOT NULL,
			user_id      TEXT    NOT NULL,
			workspace_id TEXT    NOT NULL,
			cursor       INTEGER NOT NULL,
			kind         TEXT    NOT NULL,
			ts           TEXT    NOT NULL,
			data         TEXT    NOT NULL,
			PRIMARY KEY (tenant_id, user_id, workspace_id, cursor)
		)`,
	},
}

// migrate brings the database's meta.schema_version up to schemaVersion,
// applying each pending migration inside its own transaction.
func (d *DB) migrate() error {
	if _, err := d.sql.Exec(`CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}

	current, err := d.currentSchemaVersion()
	if err != nil {
		return err
	}

	for version := current + 1; version <= len(migrations); version++ {
		stmts := migrations[version-1]
		tx, err := d.sql.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", version, err)
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d: %w", version, err)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			fmt.Sprint(version),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record version: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", version, err)
		}
	}
	return nil
}

func (d *DB) currentSchemaVersion() (int, error) {
	var value string
	err := d.sql.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	var version int
	if _, err := fmt.Sscanf(value, "%d", &version); err != nil {
		return 0, fmt.Errorf("parse schema_version %q: %w", value, err)
	}
	return version, nil
}
