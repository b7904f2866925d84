package discuss

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/lms/votes"
)

const createdAtLabelLayout = "Jan 2, 2006 15:04"

// FormatCreatedAt renders t the way replies display their creation time.
func FormatCreatedAt(t time.Time) string {
	return t.Format(createdAtLabelLayout)
}

type CreateReplyRequest struct {
	DiscussionID string
	AuthorID     string
	AuthorLabel  string
	Content      string
	ReplyTo      string
}

// NewReply validates the request and builds a reply with a fresh id. The
// content is trimmed; blank content yields EmptyContentError.
func NewReply(req CreateReplyRequest, now time.Time) (*Reply, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, EmptyContentError{DiscussionID: req.DiscussionID}
	}

	var replyTo *string
	if req.ReplyTo != "" {
		replyTo = &req.ReplyTo
	}

	authorLabel := req.AuthorLabel
	if authorLabel == "" {
		authorLabel = req.AuthorID
	}

	id := uuid.NewString()

	return &Reply{
		Item:           votes.NewItem(id, nil, nil),
		DiscussionID:   req.DiscussionID,
		AuthorID:       req.AuthorID,
		AuthorLabel:    authorLabel,
		CreatedAtLabel: FormatCreatedAt(now),
		Content:        content,
		ReplyTo:        replyTo,
		CreatedAt:      now,
	}, nil
}

type Service struct {
	replyRepo ReplyRepository
}

func NewService(replyRepo ReplyRepository) *Service {
	return &Service{
		replyRepo: replyRepo,
	}
}

func (svc *Service) CreateReply(ctx context.Context, req CreateReplyRequest) (*Reply, error) {
	reply, err := NewReply(req, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to build reply: %w", err)
	}

	if reply.ReplyTo != nil {
		parent, err := svc.replyRepo.Find(ctx, *reply.ReplyTo)
		if err != nil {
			return nil, fmt.Errorf("failed to find replied reply: %w", err)
		}

		if parent.DiscussionID != reply.DiscussionID {
			return nil, ParentInOtherDiscussionError{ReplyID: parent.ID, DiscussionID: reply.DiscussionID}
		}
	}

	err = svc.replyRepo.Insert(ctx, reply)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reply: %w", err)
	}

	return reply, nil
}

func (svc *Service) ListReplies(ctx context.Context, discussionID string) ([]*Reply, error) {
	replies, err := svc.replyRepo.List(ctx, &ListRepliesParams{DiscussionID: discussionID})
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}

	return replies, nil
}

// FindParent returns the reply quoted by reply, or nil when it is not part of
// replies.
func FindParent(replies []*Reply, reply *Reply) *Reply {
	if reply == nil || reply.ReplyTo == nil {
		return nil
	}

	for _, candidate := range replies {
		if candidate.ID == *reply.ReplyTo {
			return candidate
		}
	}

	return nil
}

func (svc *Service) GetReply(ctx context.Context, replyID string) (*Reply, error) {
	reply, err := svc.replyRepo.Find(ctx, replyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find reply: %w", err)
	}

	return reply, nil
}
