package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nasermirzaei89/lms/authcontext"
	"github.com/nasermirzaei89/lms/discuss"
	"github.com/nasermirzaei89/lms/interactions"
	"github.com/nasermirzaei89/lms/knowledge"
	"github.com/nasermirzaei89/lms/votes"
)

// Gateway serves the coordinator straight from the database. Errors the
// caller can not fix by retrying are reported as interactions.RejectedError.
type Gateway struct {
	knowledgeSvc *knowledge.Service
	discussSvc   *discuss.Service
	votesSvc     *votes.Service
}

var _ interactions.Gateway = (*Gateway)(nil)

func NewGateway(db *sql.DB) *Gateway {
	return &Gateway{
		knowledgeSvc: knowledge.NewService(NewArticleRepository(db)),
		discussSvc:   discuss.NewService(NewReplyRepository(db)),
		votesSvc:     votes.NewService(NewBallotRepository(db)),
	}
}

func reject(err error) error {
	var (
		articleNotFoundErr  knowledge.ArticleNotFoundError
		invalidCounterErr   knowledge.InvalidCounterError
		replyNotFoundErr    discuss.ReplyNotFoundError
		emptyContentErr     discuss.EmptyContentError
		parentErr           discuss.ParentInOtherDiscussionError
		invalidDirectionErr votes.InvalidDirectionError
	)

	switch {
	case errors.As(err, &articleNotFoundErr):
		return &interactions.RejectedError{Reason: "article not found", Err: err}
	case errors.As(err, &invalidCounterErr):
		return &interactions.RejectedError{Reason: "invalid counter", Err: err}
	case errors.As(err, &replyNotFoundErr):
		return &interactions.RejectedError{Reason: "reply not found", Err: err}
	case errors.As(err, &emptyContentErr):
		return &interactions.RejectedError{Reason: "empty content", Err: err}
	case errors.As(err, &parentErr):
		return &interactions.RejectedError{Reason: "parent reply is in another discussion", Err: err}
	case errors.As(err, &invalidDirectionErr):
		return &interactions.RejectedError{Reason: "invalid direction", Err: err}
	default:
		return err
	}
}

func (gw *Gateway) SubmitLike(ctx context.Context, articleID string) (int, error) {
	count, err := gw.knowledgeSvc.React(ctx, articleID, knowledge.CounterLikes)
	if err != nil {
		return 0, reject(err)
	}

	return count, nil
}

func (gw *Gateway) SubmitDislike(ctx context.Context, articleID string) (int, error) {
	count, err := gw.knowledgeSvc.React(ctx, articleID, knowledge.CounterDislikes)
	if err != nil {
		return 0, reject(err)
	}

	return count, nil
}

func (gw *Gateway) SubmitVote(ctx context.Context, replyID string, subject string, direction votes.Direction) error {
	if subject == "" || subject == authcontext.Anonymous {
		return &interactions.RejectedError{Reason: "anonymous subjects can not vote"}
	}

	_, err := gw.discussSvc.GetReply(ctx, replyID)
	if err != nil {
		return reject(err)
	}

	err = gw.votesSvc.Toggle(ctx, replyID, subject, direction)
	if err != nil {
		return reject(err)
	}

	return nil
}

func (gw *Gateway) SubmitReply(ctx context.Context, req discuss.CreateReplyRequest) (*discuss.Reply, error) {
	if req.AuthorID == "" || req.AuthorID == authcontext.Anonymous {
		return nil, &interactions.RejectedError{Reason: "anonymous subjects can not reply"}
	}

	reply, err := gw.discussSvc.CreateReply(ctx, req)
	if err != nil {
		return nil, reject(err)
	}

	return reply, nil
}

func (gw *Gateway) CreateArticle(ctx context.Context, title string) (*knowledge.Article, error) {
	article, err := gw.knowledgeSvc.CreateArticle(ctx, knowledge.CreateArticleRequest{Title: title})
	if err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	return article, nil
}

// LoadArticle reads the current counters of an article for hydrating a store.
func (gw *Gateway) LoadArticle(ctx context.Context, articleID string) (knowledge.Article, error) {
	article, err := gw.knowledgeSvc.GetArticle(ctx, articleID)
	if err != nil {
		return knowledge.Article{}, fmt.Errorf("failed to get article: %w", err)
	}

	return *article, nil
}

// LoadDiscussion reads every reply of a discussion together with its ballots.
func (gw *Gateway) LoadDiscussion(ctx context.Context, discussionID string) ([]*discuss.Reply, error) {
	replies, err := gw.discussSvc.ListReplies(ctx, discussionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}

	ids := make([]string, 0, len(replies))
	for _, reply := range replies {
		ids = append(ids, reply.ID)
	}

	items, err := gw.votesSvc.Items(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get reply votes: %w", err)
	}

	for _, reply := range replies {
		reply.Item = items[reply.ID]
	}

	return replies, nil
}
