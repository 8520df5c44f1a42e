// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"sort"
	"time"

	"github.com/jmoyers/harness/internal/reduce"
	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/wire"
)

func (c *conn) handleTaskList(cmd wire.Command) (any, *wire.Error) {
	scope := c.currentScope()
	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return []any{}, nil
	}
	out := make([]*record.Task, 0, len(ss.Tasks))
	for _, t := range ss.Tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

type taskCreateArgs struct {
	TaskID       string  `json:"taskId"`
	Title        string  `json:"title"`
	Body         string  `json:"body"`
	RepositoryID *string `json:"repositoryId"`
	ProjectID    *string `json:"projectId"`
}

func (c *conn) handleTaskCreate(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[taskCreateArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.Title == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "title required")
	}
	id := args.TaskID
	if id == "" {
		id = newID("task")
	}
	scope := c.currentScope()

	orderIndex := 0
	if ss := c.server.Store.GetState().Scopes[scope]; ss != nil {
		for _, t := range ss.Tasks {
			if t.OrderIndex >= orderIndex {
				orderIndex = t.OrderIndex + 1
			}
		}
	}

	now := nowRFC3339()
	data := map[string]any{
		"taskId":     id,
		"title":      args.Title,
		"body":       args.Body,
		"status":     string(record.TaskDraft),
		"orderIndex": orderIndex,
		"scope":      scopeMap(scope),
		"createdAt":  now,
		"updatedAt":  now,
	}
	if args.RepositoryID != nil {
		data["repositoryId"] = *args.RepositoryID
	}
	if args.ProjectID != nil {
		data["projectId"] = *args.ProjectID
	}

	ev := reduce.Event{Kind: reduce.KindTaskCreated, Scope: scope, Ts: time.Now(), Data: data}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}

	task := c.server.Store.GetState().Scopes[scope].Tasks[record.TaskID(id)]
	if err := c.server.DB.UpsertTask(task); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	return task, nil
}

type taskUpdateArgs struct {
	TaskID string  `json:"taskId"`
	Title  *string `json:"title"`
	Body   *string `json:"body"`
}

func (c *conn) handleTaskUpdate(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[taskUpdateArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.TaskID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "taskId required")
	}
	scope := c.currentScope()
	existing, cmdErr := c.lookupTask(scope, args.TaskID)
	if cmdErr != nil {
		return nil, cmdErr
	}

	title := existing.Title
	if args.Title != nil {
		title = *args.Title
	}
	body := existing.Body
	if args.Body != nil {
		body = *args.Body
	}

	ev := reduce.Event{
		Kind:  reduce.KindTaskUpdated,
		Scope: scope,
		Ts:    time.Now(),
		Data:  taskEventData(existing, title, body, existing.Status),
	}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	task := c.server.Store.GetState().Scopes[scope].Tasks[existing.ID]
	if err := c.server.DB.UpsertTask(task); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	return task, nil
}

type taskIDArgs struct {
	TaskID string `json:"taskId"`
}

func (c *conn) handleTaskTransition(cmd wire.Command, to record.TaskStatus) (any, *wire.Error) {
	args, argErr := decodeArgs[taskIDArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.TaskID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "taskId required")
	}
	scope := c.currentScope()
	existing, cmdErr := c.lookupTask(scope, args.TaskID)
	if cmdErr != nil {
		return nil, cmdErr
	}
	if !record.TaskStatusTransitionAllowed(existing.Status, to) {
		return nil, wire.NewError(wire.ErrConflict, "invalid task status transition")
	}

	ev := reduce.Event{
		Kind:  reduce.KindTaskUpdated,
		Scope: scope,
		Ts:    time.Now(),
		Data:  taskEventData(existing, existing.Title, existing.Body, to),
	}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	task := c.server.Store.GetState().Scopes[scope].Tasks[existing.ID]
	if err := c.server.DB.UpsertTask(task); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	return task, nil
}

type taskReorderArgs struct {
	TaskIDs []string `json:"taskIds"`
}

func (c *conn) handleTaskReorder(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[taskReorderArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if len(args.TaskIDs) == 0 {
		return nil, wire.NewError(wire.ErrBadRequest, "taskIds required")
	}
	scope := c.currentScope()
	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "task not found")
	}

	reordered := make([]any, 0, len(args.TaskIDs))
	for i, id := range args.TaskIDs {
		task, ok := ss.Tasks[record.TaskID(id)]
		if !ok {
			return nil, wire.NewError(wire.ErrNotFound, "task not found: "+id)
		}
		reordered = append(reordered, taskEventData(task, task.Title, task.Body, task.Status, func(d map[string]any) {
			d["orderIndex"] = i
		}))
	}

	ev := reduce.Event{
		Kind:  reduce.KindTaskReordered,
		Scope: scope,
		Ts:    time.Now(),
		Data:  map[string]any{"tasks": reordered},
	}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}

	out := make([]*record.Task, 0, len(args.TaskIDs))
	next := c.server.Store.GetState().Scopes[scope]
	for _, id := range args.TaskIDs {
		task := next.Tasks[record.TaskID(id)]
		out = append(out, task)
		if err := c.server.DB.UpsertTask(task); err != nil {
			return nil, wire.NewError(wire.ErrStorageError, err.Error())
		}
	}
	return out, nil
}

func (c *conn) handleTaskDelete(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[taskIDArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.TaskID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "taskId required")
	}
	scope := c.currentScope()
	if _, cmdErr := c.lookupTask(scope, args.TaskID); cmdErr != nil {
		return nil, cmdErr
	}

	ev := reduce.Event{
		Kind:  reduce.KindTaskDeleted,
		Scope: scope,
		Ts:    time.Now(),
		Data:  map[string]any{"taskId": args.TaskID},
	}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	if err := c.server.DB.DeleteTask(scope, record.TaskID(args.TaskID)); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	return map[string]any{"taskId": args.TaskID, "deleted": true}, nil
}

func (c *conn) lookupTask(scope record.Scope, id string) (*record.Task, *wire.Error) {
	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "task not found")
	}
	task, ok := ss.Tasks[record.TaskID(id)]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "task not found")
	}
	return task, nil
}

func taskEventData(existing *record.Task, title, body string, status record.TaskStatus, mutators ...func(map[string]any)) map[string]any {
	data := map[string]any{
		"taskId":     string(existing.ID),
		"title":      title,
		"body":       body,
		"status":     string(status),
		"orderIndex": existing.OrderIndex,
		"scope":      scopeMap(existing.Scope),
		"createdAt":  existing.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":  nowRFC3339(),
	}
	if existing.RepositoryID != nil {
		data["repositoryId"] = string(*existing.RepositoryID)
	}
	if existing.ProjectID != nil {
		data["projectId"] = *existing.ProjectID
	}
	if existing.ClaimedBy != nil {
		data["claimedBy"] = string(*existing.ClaimedBy)
	}
	if existing.BranchName != nil {
		data["branchName"] = *existing.BranchName
	}
	if existing.BaseBranch != nil {
		data["baseBranch"] = *existing.BaseBranch
	}
	if status == record.TaskCompleted {
		data["completedAt"] = nowRFC3339()
	} else if existing.CompletedAt != nil {
		data["completedAt"] = existing.CompletedAt.UTC().Format(time.RFC3339)
	}
	for _, m := range mutators {
		m(data)
	}
	return data
}
