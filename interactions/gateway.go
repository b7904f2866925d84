package interactions

import (
	"context"

	"github.com/nasermirzaei89/lms/discuss"
	"github.com/nasermirzaei89/lms/votes"
)

// Gateway is the remote side of every mutation. Implementations return
// RejectedError when the server declines and NetworkError for transport
// failures; anything else is reported as UnknownError.
type Gateway interface {
	// SubmitLike returns the server's like count after the like, or a
	// negative number when the server does not report it.
	SubmitLike(ctx context.Context, articleID string) (newLikeCount int, err error)
	SubmitDislike(ctx context.Context, articleID string) (newDislikeCount int, err error)
	SubmitVote(ctx context.Context, replyID string, subject string, direction votes.Direction) (err error)
	SubmitReply(ctx context.Context, req discuss.CreateReplyRequest) (reply *discuss.Reply, err error)
}
