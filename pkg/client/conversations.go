// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"

	"github.com/jmoyers/harness/internal/record"
)

// ConversationClient provides access to conversation.* commands. A
// conversation is a single back-and-forth thread with a provider adapter,
// scoped to a directory; its ID doubles as the backing pty session's ID.
type ConversationClient struct{ c *Client }

// Create starts a new conversation under directoryID. conversationID may
// be empty to mint a new one.
func (cc *ConversationClient) Create(ctx context.Context, conversationID, directoryID, title, agentType string) (*record.Conversation, error) {
	var out record.Conversation
	if err := cc.c.Call(ctx, "conversation.create", map[string]any{
		"conversationId": conversationID,
		"directoryId":    directoryID,
		"title":          title,
		"agentType":      agentType,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns every conversation in the caller's scope.
func (cc *ConversationClient) List(ctx context.Context) ([]*record.Conversation, error) {
	var out []*record.Conversation
	if err := cc.c.Call(ctx, "conversation.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update edits a conversation's title and/or agent type. A nil pointer
// leaves the corresponding field unchanged.
func (cc *ConversationClient) Update(ctx context.Context, conversationID string, title, agentType *string) (*record.Conversation, error) {
	var out record.Conversation
	if err := cc.c.Call(ctx, "conversation.update", map[string]any{
		"conversationId": conversationID,
		"title":          title,
		"agentType":      agentType,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Archive archives a conversation and deletes its stored row.
func (cc *ConversationClient) Archive(ctx context.Context, conversationID string) error {
	return cc.c.Call(ctx, "conversation.archive", map[string]any{"conversationId": conversationID}, nil)
}

// TitleRefreshResult is the synchronous answer to a title-refresh request
// when no title-summarizer provider is configured.
type TitleRefreshResult struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// TitleRefresh asks the gateway to regenerate a conversation's title.
func (cc *ConversationClient) TitleRefresh(ctx context.Context, conversationID string) (*TitleRefreshResult, error) {
	var out TitleRefreshResult
	if err := cc.c.Call(ctx, "conversation.title.refresh", map[string]any{"conversationId": conversationID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
