package discuss

import (
	"context"
	"fmt"
	"time"

	"github.com/nasermirzaei89/lms/votes"
)

// Reply is a votable answer inside a discussion.
type Reply struct {
	votes.Item

	DiscussionID   string
	AuthorID       string
	AuthorLabel    string
	CreatedAtLabel string
	Content        string
	// ReplyTo points at the quoted parent reply, if any. It is only used to
	// locate the parent, never to order or own replies.
	ReplyTo   *string
	CreatedAt time.Time
}

func (reply *Reply) Clone() *Reply {
	if reply == nil {
		return nil
	}

	clone := *reply
	clone.Item = reply.Item.Clone()

	if reply.ReplyTo != nil {
		replyTo := *reply.ReplyTo
		clone.ReplyTo = &replyTo
	}

	return &clone
}

type ReplyRepository interface {
	Insert(ctx context.Context, reply *Reply) (err error)
	Find(ctx context.Context, replyID string) (reply *Reply, err error)
	List(ctx context.Context, params *ListRepliesParams) (replies []*Reply, err error)
}

type ListRepliesParams struct {
	DiscussionID string
}

type ReplyNotFoundError struct {
	ID string
}

func (err ReplyNotFoundError) Error() string {
	return fmt.Sprintf("reply with id %q not found", err.ID)
}

type EmptyContentError struct {
	DiscussionID string
}

func (err EmptyContentError) Error() string {
	return fmt.Sprintf("reply content for discussion %q must not be empty", err.DiscussionID)
}

// ParentInOtherDiscussionError means a reply tried to quote a reply that
// belongs to another discussion.
type ParentInOtherDiscussionError struct {
	ReplyID      string
	DiscussionID string
}

func (err ParentInOtherDiscussionError) Error() string {
	return fmt.Sprintf("reply %q is not part of discussion %q", err.ReplyID, err.DiscussionID)
}
