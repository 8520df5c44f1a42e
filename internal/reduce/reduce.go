// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package reduce

import (
	"time"

	"github.com/jmoyers/harness/internal/record"
)

// Result is the outcome of folding one Event into a State. Changed is false
// whenever the event was malformed or a no-op (e.g. session-status for an
// absent conversation); callers must not publish a state replacement to
// subscribers in that case.
type Result struct {
	State   State
	Changed bool

	UpsertedDirectoryIDs    []record.DirectoryID
	RemovedDirectoryIDs     []record.DirectoryID
	UpsertedConversationIDs []record.ConversationID
	RemovedConversationIDs  []record.ConversationID
	UpsertedRepositoryIDs   []record.RepositoryID
	RemovedRepositoryIDs    []record.RepositoryID
	UpsertedTaskIDs         []record.TaskID
	RemovedTaskIDs          []record.TaskID
}

func unchanged(state State) Result {
	return Result{State: state, Changed: false}
}

// Reduce folds one observed event into state, returning the next state and
// what changed. It never panics and never errors: a malformed or
// unrecognized event yields Changed=false with state returned unmodified.
func Reduce(state State, ev Event) Result {
	switch ev.Kind {
	case KindDirectoryUpserted:
		return reduceDirectoryUpserted(state, ev)
	case KindDirectoryArchived:
		return reduceDirectoryArchived(state, ev)
	case KindConversationCreated, KindConversationUpdated:
		return reduceConversationUpsert(state, ev)
	case KindConversationArchived, KindConversationDeleted:
		return reduceConversationRemove(state, ev)
	case KindRepositoryUpserted, KindRepositoryUpdated:
		return reduceRepositoryUpsert(state, ev)
	case KindRepositoryArchived:
		return reduceRepositoryArchived(state, ev)
	case KindTaskCreated, KindTaskUpdated:
		return reduceTaskUpsert(state, ev)
	case KindTaskDeleted:
		return reduceTaskDeleted(state, ev)
	case KindTaskReordered:
		return reduceTaskReordered(state, ev)
	case KindSessionStatus:
		return reduceSessionStatus(state, ev)
	default:
		return unchanged(state)
	}
}

func reduceDirectoryUpserted(state State, ev Event) Result {
	dir, err := record.ParseDirectory(ev.Data)
	if err != nil {
		return unchanged(state)
	}
	ss := state.scopedOrEmpty(ev.Scope).clone()
	directories := make(map[record.DirectoryID]*record.Directory, len(ss.Directories)+1)
	for k, v := range ss.Directories {
		directories[k] = v
	}
	directories[dir.ID] = dir
	ss.Directories = directories

	return Result{
		State:                state.cloneWithScope(ev.Scope, ss),
		Changed:              true,
		UpsertedDirectoryIDs: []record.DirectoryID{dir.ID},
	}
}

func reduceDirectoryArchived(state State, ev Event) Result {
	id, ok := ev.Data["directoryId"].(string)
	if !ok || id == "" {
		return unchanged(state)
	}
	dirID := record.DirectoryID(id)
	existing, ok := state.Scopes[ev.Scope]
	if !ok {
		return unchanged(state)
	}
	dir, ok := existing.Directories[dirID]
	if !ok {
		return unchanged(state)
	}

	archivedAt, ok := parseOptionalEventTime(ev, "archivedAt")
	if !ok {
		archivedAt = &ev.Ts
	}
	next := *dir
	next.ArchivedAt = archivedAt

	ss := existing.clone()
	directories := make(map[record.DirectoryID]*record.Directory, len(ss.Directories))
	for k, v := range ss.Directories {
		directories[k] = v
	}
	directories[dirID] = &next
	ss.Directories = directories

	var removedConversations []record.ConversationID
	conversations := ss.Conversations
	for id, conv := range existing.Conversations {
		if conv.DirectoryID == dirID {
			if removedConversations == nil {
				conversations = make(map[record.ConversationID]*record.Conversation, len(existing.Conversations))
				for k, v := range existing.Conversations {
					conversations[k] = v
				}
			}
			delete(conversations, id)
			removedConversations = append(removedConversations, id)
		}
	}
	ss.Conversations = conversations

	return Result{
		State:                  state.cloneWithScope(ev.Scope, ss),
		Changed:                true,
		UpsertedDirectoryIDs:   []record.DirectoryID{dirID},
		RemovedConversationIDs: removedConversations,
	}
}

func reduceConversationUpsert(state State, ev Event) Result {
	conv, err := record.ParseConversation(ev.Data)
	if err != nil {
		return unchanged(state)
	}
	ss := state.scopedOrEmpty(ev.Scope).clone()
	conversations := make(map[record.ConversationID]*record.Conversation, len(ss.Conversations)+1)
	for k, v := range ss.Conversations {
		conversations[k] = v
	}
	conversations[conv.ID] = conv
	ss.Conversations = conversations

	return Result{
		State:                   state.cloneWithScope(ev.Scope, ss),
		Changed:                 true,
		UpsertedConversationIDs: []record.ConversationID{conv.ID},
	}
}

func reduceConversationRemove(state State, ev Event) Result {
	id, ok := ev.Data["conversationId"].(string)
	if !ok || id == "" {
		return unchanged(state)
	}
	convID := record.ConversationID(id)
	existing, ok := state.Scopes[ev.Scope]
	if !ok {
		return unchanged(state)
	}
	if _, ok := existing.Conversations[convID]; !ok {
		return unchanged(state)
	}

	ss := existing.clone()
	conversations := make(map[record.ConversationID]*record.Conversation, len(ss.Conversations))
	for k, v := range ss.Conversations {
		conversations[k] = v
	}
	delete(conversations, convID)
	ss.Conversations = conversations

	return Result{
		State:                  state.cloneWithScope(ev.Scope, ss),
		Changed:                true,
		RemovedConversationIDs: []record.ConversationID{convID},
	}
}

func reduceRepositoryUpsert(state State, ev Event) Result {
	repo, err := record.ParseRepository(ev.Data)
	if err != nil {
		return unchanged(state)
	}
	ss := state.scopedOrEmpty(ev.Scope).clone()
	repositories := make(map[record.RepositoryID]*record.Repository, len(ss.Repositories)+1)
	for k, v := range ss.Repositories {
		repositories[k] = v
	}
	repositories[repo.ID] = repo
	ss.Repositories = repositories

	return Result{
		State:                 state.cloneWithScope(ev.Scope, ss),
		Changed:               true,
		UpsertedRepositoryIDs: []record.RepositoryID{repo.ID},
	}
}

func reduceRepositoryArchived(state State, ev Event) Result {
	id, ok := ev.Data["repositoryId"].(string)
	if !ok || id == "" {
		return unchanged(state)
	}
	repoID := record.RepositoryID(id)
	existing, ok := state.Scopes[ev.Scope]
	if !ok {
		return unchanged(state)
	}
	repo, ok := existing.Repositories[repoID]
	if !ok {
		return unchanged(state)
	}

	archivedAt, ok := parseOptionalEventTime(ev, "archivedAt")
	if !ok {
		archivedAt = &ev.Ts
	}
	next := *repo
	next.ArchivedAt = archivedAt

	ss := existing.clone()
	repositories := make(map[record.RepositoryID]*record.Repository, len(ss.Repositories))
	for k, v := range ss.Repositories {
		repositories[k] = v
	}
	repositories[repoID] = &next
	ss.Repositories = repositories

	return Result{
		State:                 state.cloneWithScope(ev.Scope, ss),
		Changed:               true,
		UpsertedRepositoryIDs: []record.RepositoryID{repoID},
	}
}

func reduceTaskUpsert(state State, ev Event) Result {
	task, err := record.ParseTask(ev.Data)
	if err != nil {
		return unchanged(state)
	}
	ss := state.scopedOrEmpty(ev.Scope).clone()
	tasks := make(map[record.TaskID]*record.Task, len(ss.Tasks)+1)
	for k, v := range ss.Tasks {
		tasks[k] = v
	}
	tasks[task.ID] = task
	ss.Tasks = tasks

	return Result{
		State:           state.cloneWithScope(ev.Scope, ss),
		Changed:         true,
		UpsertedTaskIDs: []record.TaskID{task.ID},
	}
}

func reduceTaskDeleted(state State, ev Event) Result {
	id, ok := ev.Data["taskId"].(string)
	if !ok || id == "" {
		return unchanged(state)
	}
	taskID := record.TaskID(id)
	existing, ok := state.Scopes[ev.Scope]
	if !ok {
		return unchanged(state)
	}
	if _, ok := existing.Tasks[taskID]; !ok {
		return unchanged(state)
	}

	ss := existing.clone()
	tasks := make(map[record.TaskID]*record.Task, len(ss.Tasks))
	for k, v := range ss.Tasks {
		tasks[k] = v
	}
	delete(tasks, taskID)
	ss.Tasks = tasks

	return Result{
		State:          state.cloneWithScope(ev.Scope, ss),
		Changed:        true,
		RemovedTaskIDs: []record.TaskID{taskID},
	}
}

// reduceTaskReordered is a bulk upsert of the embedded task list. If every
// embedded record fails to parse the event is a no-op; otherwise the
// records that parsed successfully are upserted and the rest are silently
// skipped.
func reduceTaskReordered(state State, ev Event) Result {
	raw, ok := ev.Data["tasks"].([]any)
	if !ok || len(raw) == 0 {
		return unchanged(state)
	}

	var parsed []*record.Task
	for _, item := range raw {
		task, err := record.ParseTask(item)
		if err != nil {
			continue
		}
		parsed = append(parsed, task)
	}
	if len(parsed) == 0 {
		return unchanged(state)
	}

	ss := state.scopedOrEmpty(ev.Scope).clone()
	tasks := make(map[record.TaskID]*record.Task, len(ss.Tasks)+len(parsed))
	for k, v := range ss.Tasks {
		tasks[k] = v
	}
	upserted := make([]record.TaskID, 0, len(parsed))
	for _, task := range parsed {
		tasks[task.ID] = task
		upserted = append(upserted, task.ID)
	}
	ss.Tasks = tasks

	return Result{
		State:           state.cloneWithScope(ev.Scope, ss),
		Changed:         true,
		UpsertedTaskIDs: upserted,
	}
}

// reduceSessionStatus updates the runtime fields projected onto a
// conversation record. It is a no-op when the conversation is absent: a
// session can briefly outlive or precede its conversation record and the
// reducer must not synthesize one.
func reduceSessionStatus(state State, ev Event) Result {
	id, ok := ev.Data["conversationId"].(string)
	if !ok || id == "" {
		return unchanged(state)
	}
	convID := record.ConversationID(id)
	existing, ok := state.Scopes[ev.Scope]
	if !ok {
		return unchanged(state)
	}
	conv, ok := existing.Conversations[convID]
	if !ok {
		return unchanged(state)
	}

	next := *conv
	changed := false
	if raw, ok := ev.Data["runtimeStatus"].(string); ok {
		status := record.RuntimeStatus(raw)
		switch status {
		case record.RuntimeRunning, record.RuntimeNeedsInput, record.RuntimeCompleted, record.RuntimeExited:
			if next.RuntimeStatus != status {
				next.RuntimeStatus = status
				changed = true
			}
		}
	}
	if raw, present := ev.Data["runtimeStatusModel"]; present {
		if s, ok := raw.(string); ok && s != next.RuntimeStatusModel {
			next.RuntimeStatusModel = s
			changed = true
		}
	}
	if raw, present := ev.Data["runtimeLive"]; present {
		if b, ok := raw.(bool); ok && b != next.RuntimeLive {
			next.RuntimeLive = b
			changed = true
		}
	}
	if raw, present := ev.Data["statusModel"]; present {
		if sm, ok := parseStatusModelData(raw); ok {
			next.LatestStatusModel = &sm
			changed = true
		}
	}
	if !changed {
		return unchanged(state)
	}

	ss := existing.clone()
	conversations := make(map[record.ConversationID]*record.Conversation, len(ss.Conversations))
	for k, v := range ss.Conversations {
		conversations[k] = v
	}
	conversations[convID] = &next
	ss.Conversations = conversations

	return Result{
		State:                   state.cloneWithScope(ev.Scope, ss),
		Changed:                 true,
		UpsertedConversationIDs: []record.ConversationID{convID},
	}
}

func parseStatusModelData(raw any) (record.StatusModel, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return record.StatusModel{}, false
	}
	sm, err := record.ParseStatusModel(m)
	if err != nil {
		return record.StatusModel{}, false
	}
	return sm, true
}

func parseOptionalEventTime(ev Event, key string) (*time.Time, bool) {
	v, present := ev.Data[key]
	if !present || v == nil {
		return nil, false
	}
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
