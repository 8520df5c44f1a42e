// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskDraft      TaskStatus = "draft"
	TaskReady      TaskStatus = "ready"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

// normalizeTaskStatus folds the legacy "queued" alias into "ready".
func normalizeTaskStatus(s string) (TaskStatus, bool) {
	if s == "queued" {
		s = "ready"
	}
	switch TaskStatus(s) {
	case TaskDraft, TaskReady, TaskInProgress, TaskCompleted:
		return TaskStatus(s), true
	}
	return "", false
}

// taskTransitions enumerates every status edge the reducer and command
// server accept. Skipping a state (e.g. draft -> in-progress) is rejected.
var taskTransitions = map[TaskStatus]map[TaskStatus]bool{
	TaskDraft:      {TaskReady: true},
	TaskReady:      {TaskDraft: true, TaskInProgress: true},
	TaskInProgress: {TaskCompleted: true},
	TaskCompleted:  {},
}

// TaskStatusTransitionAllowed reports whether from -> to is a reachable
// transition per invariant 3 of the data model.
func TaskStatusTransitionAllowed(from, to TaskStatus) bool {
	if from == to {
		return true
	}
	edges, ok := taskTransitions[from]
	return ok && edges[to]
}

// TaskScopeKind describes what a task is scoped to.
type TaskScopeKind string

const (
	TaskScopeGlobal     TaskScopeKind = "global"
	TaskScopeRepository TaskScopeKind = "repository"
	TaskScopeProject    TaskScopeKind = "project"
)

// Task is a unit of work tracked by the harness.
type Task struct {
	ID            TaskID
	Scope         Scope
	RepositoryID  *RepositoryID
	ProjectID     *string
	ScopeKind     TaskScopeKind
	Title         string
	Body          string
	Status        TaskStatus
	OrderIndex    int
	ClaimedBy     *ControllerID
	BranchName    *string
	BaseBranch    *string
	ClaimedAt     *time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ParseTask validates a wire payload into a Task record.
func ParseTask(v any) (*Task, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: task: not an object", ErrInvalid)
	}

	id, ok := asString(m, "taskId")
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: task: missing taskId", ErrInvalid)
	}
	title, ok := asOptionalString(m, "title")
	if !ok {
		return nil, fmt.Errorf("%w: task: bad title", ErrInvalid)
	}
	body, ok := asOptionalString(m, "body")
	if !ok {
		return nil, fmt.Errorf("%w: task: bad body", ErrInvalid)
	}
	scope, err := parseScope(m)
	if err != nil {
		return nil, fmt.Errorf("%w: task: %v", ErrInvalid, err)
	}

	statusRaw, ok := asString(m, "status")
	if !ok {
		return nil, fmt.Errorf("%w: task: missing status", ErrInvalid)
	}
	status, ok := normalizeTaskStatus(statusRaw)
	if !ok {
		return nil, fmt.Errorf("%w: task: unknown status %q", ErrInvalid, statusRaw)
	}

	orderIndex, ok := asNumber(m, "orderIndex")
	if !ok {
		return nil, fmt.Errorf("%w: task: missing orderIndex", ErrInvalid)
	}

	repoIDStr, ok := asOptionalString(m, "repositoryId")
	if !ok {
		return nil, fmt.Errorf("%w: task: bad repositoryId", ErrInvalid)
	}
	var repoID *RepositoryID
	if repoIDStr != "" {
		rid := RepositoryID(repoIDStr)
		repoID = &rid
	}

	projectID, ok := asOptionalString(m, "projectId")
	if !ok {
		return nil, fmt.Errorf("%w: task: bad projectId", ErrInvalid)
	}
	var projectIDPtr *string
	if projectID != "" {
		projectIDPtr = &projectID
	}

	scopeKindRaw, hasScopeKind := asString(m, "scopeKind")
	scopeKind := deriveScopeKind(scopeKindRaw, hasScopeKind, projectIDPtr, repoID)

	claimedByStr, ok := asOptionalString(m, "claimedBy")
	if !ok {
		return nil, fmt.Errorf("%w: task: bad claimedBy", ErrInvalid)
	}
	var claimedBy *ControllerID
	if claimedByStr != "" {
		cb := ControllerID(claimedByStr)
		claimedBy = &cb
	}

	branchName, ok := asOptionalString(m, "branchName")
	if !ok {
		return nil, fmt.Errorf("%w: task: bad branchName", ErrInvalid)
	}
	var branchNamePtr *string
	if branchName != "" {
		branchNamePtr = &branchName
	}

	baseBranch, ok := asOptionalString(m, "baseBranch")
	if !ok {
		return nil, fmt.Errorf("%w: task: bad baseBranch", ErrInvalid)
	}
	var baseBranchPtr *string
	if baseBranch != "" {
		baseBranchPtr = &baseBranch
	}

	claimedAt, ok := parseOptionalTime(m, "claimedAt")
	if !ok {
		return nil, fmt.Errorf("%w: task: bad claimedAt", ErrInvalid)
	}
	completedAt, ok := parseOptionalTime(m, "completedAt")
	if !ok {
		return nil, fmt.Errorf("%w: task: bad completedAt", ErrInvalid)
	}

	createdAt, ok := parseRequiredTime(m, "createdAt")
	if !ok {
		return nil, fmt.Errorf("%w: task: missing/bad createdAt", ErrInvalid)
	}
	updatedAt, ok := parseRequiredTime(m, "updatedAt")
	if !ok {
		return nil, fmt.Errorf("%w: task: missing/bad updatedAt", ErrInvalid)
	}

	return &Task{
		ID:           TaskID(id),
		Scope:        scope,
		RepositoryID: repoID,
		ProjectID:    projectIDPtr,
		ScopeKind:    scopeKind,
		Title:        title,
		Body:         body,
		Status:       status,
		OrderIndex:   int(orderIndex),
		ClaimedBy:    claimedBy,
		BranchName:   branchNamePtr,
		BaseBranch:   baseBranchPtr,
		ClaimedAt:    claimedAt,
		CompletedAt:  completedAt,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func deriveScopeKind(raw string, present bool, projectID *string, repoID *RepositoryID) TaskScopeKind {
	if present {
		switch TaskScopeKind(raw) {
		case TaskScopeGlobal, TaskScopeRepository, TaskScopeProject:
			return TaskScopeKind(raw)
		}
	}
	if projectID != nil {
		return TaskScopeProject
	}
	if repoID != nil {
		return TaskScopeRepository
	}
	return TaskScopeGlobal
}

func parseRequiredTime(m map[string]any, key string) (time.Time, bool) {
	s, ok := asString(m, key)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
