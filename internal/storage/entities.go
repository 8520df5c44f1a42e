// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoyers/harness/internal/record"
)

// ErrNotFound is returned by a Get when no row matches.
var ErrNotFound = errors.New("storage: not found")

// Each entity is stored as indexed scope/id columns (for native SQL
// lookups and the conversations-by-directory index) plus the full
// record marshaled as a JSON blob, rather than one column per field —
// the record types already carry ~10 optional fields apiece and a wide
// table per entity would just re-encode the same shape Go already
// validates in internal/record.

// UpsertDirectory inserts or replaces a directory row.
func (d *DB) UpsertDirectory(dir *record.Directory) error {
	data, err := json.Marshal(dir)
	if err != nil {
		return fmt.Errorf("storage: marshal directory: %w", err)
	}
	_, err = d.sql.Exec(
		`INSERT INTO directories (tenant_id, user_id, workspace_id, directory_id, data, archived_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tenant_id, user_id, workspace_id, directory_id) DO UPDATE SET
			data = excluded.data, archived_at = excluded.archived_at`,
		dir.Scope.TenantID, dir.Scope.UserID, dir.Scope.WorkspaceID, string(dir.ID),
		data, formatTimePtr(dir.ArchivedAt),
	)
	if err != nil {
		return fmt.Errorf("storage: upsert directory: %w", err)
	}
	return nil
}

// ListDirectories returns every directory in scope.
func (d *DB) ListDirectories(scope record.Scope) ([]*record.Directory, error) {
	rows, err := d.sql.Query(
		`SELECT data FROM directories WHERE tenant_id = ? AND user_id = ? AND workspace_id = ?`,
		scope.TenantID, scope.UserID, scope.WorkspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list directories: %w", err)
	}
	defer rows.Close()

	var out []*record.Directory
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("storage: scan directory: %w", err)
		}
		var dir record.Directory
		if err := json.Unmarshal(data, &dir); err != nil {
			return nil, fmt.Errorf("storage: unmarshal directory: %w", err)
		}
		out = append(out, &dir)
	}
	return out, rows.Err()
}

// UpsertRepository inserts or replaces a repository row.
func (d *DB) UpsertRepository(repo *record.Repository) error {
	data, err := json.Marshal(repo)
	if err != nil {
		return fmt.Errorf("storage: marshal repository: %w", err)
	}
	_, err = d.sql.Exec(
		`INSERT INTO repositories (tenant_id, user_id, workspace_id, repository_id, data, archived_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tenant_id, user_id, workspace_id, repository_id) DO UPDATE SET
			data = excluded.data, archived_at = excluded.archived_at`,
		repo.Scope.TenantID, repo.Scope.UserID, repo.Scope.WorkspaceID, string(repo.ID),
		data, formatTimePtr(repo.ArchivedAt),
	)
	if err != nil {
		return fmt.Errorf("storage: upsert repository: %w", err)
	}
	return nil
}

// ListRepositories returns every repository in scope.
func (d *DB) ListRepositories(scope record.Scope) ([]*record.Repository, error) {
	rows, err := d.sql.Query(
		`SELECT data FROM repositories WHERE tenant_id = ? AND user_id = ? AND workspace_id = ?`,
		scope.TenantID, scope.UserID, scope.WorkspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list repositories: %w", err)
	}
	defer rows.Close()

	var out []*record.Repository
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("storage: scan repository: %w", err)
		}
		var repo record.Repository
		if err := json.Unmarshal(data, &repo); err != nil {
			return nil, fmt.Errorf("storage: unmarshal repository: %w", err)
		}
		out = append(out, &repo)
	}
	return out, rows.Err()
}

// UpsertConversation inserts or replaces a conversation row.
func (d *DB) UpsertConversation(conv *record.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("storage: marshal conversation: %w", err)
	}
	_, err = d.sql.Exec(
		`INSERT INTO conversations (tenant_id, user_id, workspace_id, conversation_id, directory_id, data)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tenant_id, user_id, workspace_id, conversation_id) DO UPDATE SET
			directory_id = excluded.directory_id, data = excluded.data`,
		conv.Scope.TenantID, conv.Scope.UserID, conv.Scope.WorkspaceID,
		string(conv.ID), string(conv.DirectoryID), data,
	)
	if err != nil {
		return fmt.Errorf("storage: upsert conversation: %w", err)
	}
	return nil
}

// DeleteConversation hard-removes a conversation row (used for explicit
// deletes and for the directory-archived cascade).
func (d *DB) DeleteConversation(scope record.Scope, id record.ConversationID) error {
	_, err := d.sql.Exec(
		`DELETE FROM conversations WHERE tenant_id = ? AND user_id = ? AND workspace_id = ? AND conversation_id = ?`,
		scope.TenantID, scope.UserID, scope.WorkspaceID, string(id),
	)
	if err != nil {
		return fmt.Errorf("storage: delete conversation: %w", err)
	}
	return nil
}

// ListConversations returns every conversation in scope.
func (d *DB) ListConversations(scope record.Scope) ([]*record.Conversation, error) {
	rows, err := d.sql.Query(
		`SELECT data FROM conversations WHERE tenant_id = ? AND user_id = ? AND workspace_id = ?`,
		scope.TenantID, scope.UserID, scope.WorkspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list conversations: %w", err)
	}
	defer rows.Close()

	var out []*record.Conversation
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("storage: scan conversation: %w", err)
		}
		var conv record.Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			return nil, fmt.Errorf("storage: unmarshal conversation: %w", err)
		}
		out = append(out, &conv)
	}
	return out, rows.Err()
}

// UpsertTask inserts or replaces a task row.
func (d *DB) UpsertTask(task *record.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("storage: marshal task: %w", err)
	}
	_, err = d.sql.Exec(
		`INSERT INTO tasks (tenant_id, user_id, workspace_id, task_id, data)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(tenant_id, user_id, workspace_id, task_id) DO UPDATE SET data = excluded.data`,
		task.Scope.TenantID, task.Scope.UserID, task.Scope.WorkspaceID, string(task.ID), data,
	)
	if err != nil {
		return fmt.Errorf("storage: upsert task: %w", err)
	}
	return nil
}

// DeleteTask hard-removes a task row.
func (d *DB) DeleteTask(scope record.Scope, id record.TaskID) error {
	_, err := d.sql.Exec(
		`DELETE FROM tasks WHERE tenant_id = ? AND user_id = ? AND workspace_id = ? AND task_id = ?`,
		scope.TenantID, scope.UserID, scope.WorkspaceID, string(id),
	)
	if err != nil {
		return fmt.Errorf("storage: delete task: %w", err)
	}
	return nil
}

// ListTasks returns every task in scope.
func (d *DB) ListTasks(scope record.Scope) ([]*record.Task, error) {
	rows, err := d.sql.Query(
		`SELECT data FROM tasks WHERE tenant_id = ? AND user_id = ? AND workspace_id = ?`,
		scope.TenantID, scope.UserID, scope.WorkspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list tasks: %w", err)
	}
	defer rows.Close()

	var out []*record.Task
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("storage: scan task: %w", err)
		}
		var task record.Task
		if err := json.Unmarshal(data, &task); err != nil {
			return nil, fmt.Errorf("storage: unmarshal task: %w", err)
		}
		out = append(out, &task)
	}
	return out, rows.Err()
}

// GetConversation fetches a single conversation by id, or ErrNotFound.
func (d *DB) GetConversation(scope record.Scope, id record.ConversationID) (*record.Conversation, error) {
	var data []byte
	err := d.sql.QueryRow(
		`SELECT data FROM conversations WHERE tenant_id = ? AND user_id = ? AND workspace_id = ? AND conversation_id = ?`,
		scope.TenantID, scope.UserID, scope.WorkspaceID, string(id),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get conversation: %w", err)
	}
	var conv record.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("storage: unmarshal conversation: %w", err)
	}
	return &conv, nil
}

// GetTask fetches a single task by id, or ErrNotFound.
func (d *DB) GetTask(scope record.Scope, id record.TaskID) (*record.Task, error) {
	var data []byte
	err := d.sql.QueryRow(
		`SELECT data FROM tasks WHERE tenant_id = ? AND user_id = ? AND workspace_id = ? AND task_id = ?`,
		scope.TenantID, scope.UserID, scope.WorkspaceID, string(id),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get task: %w", err)
	}
	var task record.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("storage: unmarshal task: %w", err)
	}
	return &task, nil
}
