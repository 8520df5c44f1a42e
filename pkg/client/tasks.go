// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"

	"github.com/jmoyers/harness/internal/record"
)

// TaskClient provides access to task.* commands.
type TaskClient struct{ c *Client }

// List returns every task in the caller's scope, ordered by OrderIndex.
func (t *TaskClient) List(ctx context.Context) ([]*record.Task, error) {
	var out []*record.Task
	if err := t.c.Call(ctx, "task.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateParams are the fields accepted by Create.
type CreateParams struct {
	TaskID       string
	Title        string
	Body         string
	RepositoryID *string
	ProjectID    *string
}

// Create adds a task in the draft status at the end of the order. An
// empty TaskID mints a new one.
func (t *TaskClient) Create(ctx context.Context, p CreateParams) (*record.Task, error) {
	var out record.Task
	if err := t.c.Call(ctx, "task.create", map[string]any{
		"taskId":       p.TaskID,
		"title":        p.Title,
		"body":         p.Body,
		"repositoryId": p.RepositoryID,
		"projectId":    p.ProjectID,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update edits a task's title and/or body. A nil pointer leaves the
// corresponding field unchanged.
func (t *TaskClient) Update(ctx context.Context, taskID string, title, body *string) (*record.Task, error) {
	var out record.Task
	if err := t.c.Call(ctx, "task.update", map[string]any{
		"taskId": taskID,
		"title":  title,
		"body":   body,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ready transitions a draft task to ready.
func (t *TaskClient) Ready(ctx context.Context, taskID string) (*record.Task, error) {
	return t.transition(ctx, "task.ready", taskID)
}

// Draft transitions a ready task back to draft.
func (t *TaskClient) Draft(ctx context.Context, taskID string) (*record.Task, error) {
	return t.transition(ctx, "task.draft", taskID)
}

// Complete transitions an in-progress task to completed.
func (t *TaskClient) Complete(ctx context.Context, taskID string) (*record.Task, error) {
	return t.transition(ctx, "task.complete", taskID)
}

func (t *TaskClient) transition(ctx context.Context, cmdType, taskID string) (*record.Task, error) {
	var out record.Task
	if err := t.c.Call(ctx, cmdType, map[string]any{"taskId": taskID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reorder assigns OrderIndex to each task by its position in taskIDs.
func (t *TaskClient) Reorder(ctx context.Context, taskIDs []string) error {
	return t.c.Call(ctx, "task.reorder", map[string]any{"taskIds": taskIDs}, nil)
}

// Delete removes a task.
func (t *TaskClient) Delete(ctx context.Context, taskID string) error {
	return t.c.Call(ctx, "task.delete", map[string]any{"taskId": taskID}, nil)
}
