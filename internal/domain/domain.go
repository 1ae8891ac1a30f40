package domain

import (
	"context"
	"time"
)

// OperationKind classifies outbound platform operations for quota accounting.
type OperationKind string

const (
	// OpPost is a primary scheduled post.
	OpPost OperationKind = "post"
	// OpReply is a reply to someone else's post.
	OpReply OperationKind = "reply"
	// OpRead is a read-only platform call (search, mentions, following).
	OpRead OperationKind = "read"
)

// Post is a single post on the platform, ours or someone else's.
type Post struct {
	ID        string
	Text      string
	AuthorID  string
	CreatedAt time.Time
}

// Identity is the authenticated account.
type Identity struct {
	ID       string
	Username string
}

// Generator produces persona-styled text from a prompt.
type Generator interface {
	Generate(ctx context.Context, persona, prompt string) (string, error)
}

// Platform is the posting-platform surface the agent consumes.
type Platform interface {
	CreatePost(ctx context.Context, text string) (string, error)
	CreateReply(ctx context.Context, parentID, text string) (string, error)
	SearchRecent(ctx context.Context, query string, maxResults int) ([]Post, error)
	ListFollowing(ctx context.Context, userID string) ([]string, error)
	ListMentionsSince(ctx context.Context, userID, sinceID string, maxResults int) ([]Post, error)
	GetSelf(ctx context.Context) (Identity, error)
}
