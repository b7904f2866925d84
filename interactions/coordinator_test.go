package interactions_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nasermirzaei89/lms/authcontext"
	"github.com/nasermirzaei89/lms/discuss"
	"github.com/nasermirzaei89/lms/interactions"
	"github.com/nasermirzaei89/lms/knowledge"
	"github.com/nasermirzaei89/lms/votes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type gatewayResponse struct {
	count int
	reply *discuss.Reply
	err   error
}

// stubGateway blocks every call until the test sends a response on the
// channel for that call.
type stubGateway struct {
	mu        sync.Mutex
	responses map[string]chan gatewayResponse
	calls     []string
}

func newStubGateway() *stubGateway {
	return &stubGateway{responses: make(map[string]chan gatewayResponse)}
}

func (gw *stubGateway) channel(key string) chan gatewayResponse {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	ch, ok := gw.responses[key]
	if !ok {
		ch = make(chan gatewayResponse, 1)
		gw.responses[key] = ch
	}

	return ch
}

func (gw *stubGateway) respond(key string, resp gatewayResponse) {
	gw.channel(key) <- resp
}

func (gw *stubGateway) callCount() int {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	return len(gw.calls)
}

func (gw *stubGateway) await(ctx context.Context, key string) gatewayResponse {
	gw.mu.Lock()
	gw.calls = append(gw.calls, key)
	gw.mu.Unlock()

	select {
	case resp := <-gw.channel(key):
		return resp
	case <-ctx.Done():
		return gatewayResponse{err: ctx.Err()}
	}
}

func (gw *stubGateway) SubmitLike(ctx context.Context, articleID string) (int, error) {
	resp := gw.await(ctx, "like:"+articleID)

	return resp.count, resp.err
}

func (gw *stubGateway) SubmitDislike(ctx context.Context, articleID string) (int, error) {
	resp := gw.await(ctx, "dislike:"+articleID)

	return resp.count, resp.err
}

func (gw *stubGateway) SubmitVote(ctx context.Context, replyID string, _ string, direction votes.Direction) error {
	resp := gw.await(ctx, "vote:"+replyID+":"+direction.String())

	return resp.err
}

func (gw *stubGateway) SubmitReply(ctx context.Context, req discuss.CreateReplyRequest) (*discuss.Reply, error) {
	resp := gw.await(ctx, "reply:"+req.DiscussionID)

	return resp.reply, resp.err
}

func waitSettled(t *testing.T, m *interactions.Mutation) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	select {
	case <-m.Done():
	case <-ctx.Done():
		t.Fatalf("mutation %s on %q did not settle", m.Kind, m.EntityID)
	}

	return m.Err()
}

func newReply(id string, upvoters, downvoters []string) *discuss.Reply {
	return &discuss.Reply{Item: votes.NewItem(id, upvoters, downvoters), Content: id}
}

func threadIDs(t *testing.T, store *interactions.Store, discussionID string) []string {
	t.Helper()

	thread, ok := store.Thread(discussionID, true, discuss.DefaultPreviewLimit)
	require.True(t, ok)

	result := make([]string, 0, len(thread.Replies))
	for _, reply := range thread.Replies {
		result = append(result, reply.ID)
	}

	return result
}

func TestLikeCommitTakesServerCount(t *testing.T) {
	t.Parallel()

	store := interactions.NewStore()
	store.PutArticle(knowledge.Article{ID: "k1", LikeCount: 3})

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{})

	m, err := c.LikeKnowledge(context.Background(), "k1")
	require.NoError(t, err)

	article, _ := store.Article("k1")
	assert.Equal(t, 4, article.LikeCount)
	assert.True(t, c.IsPending("k1", interactions.KindLike))
	assert.Equal(t, interactions.StatePending, m.State())

	gw.respond("like:k1", gatewayResponse{count: 10})
	require.NoError(t, waitSettled(t, m))

	article, _ = store.Article("k1")
	assert.Equal(t, 10, article.LikeCount)
	assert.Equal(t, interactions.StateCommitted, m.State())
	assert.Equal(t, interactions.StateIdle, c.State("k1", interactions.KindLike))
}

func TestLikeCommitKeepsOptimisticCountWhenNotReported(t *testing.T) {
	t.Parallel()

	store := interactions.NewStore()
	store.PutArticle(knowledge.Article{ID: "k1", DislikeCount: 1})

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{})

	m, err := c.DislikeKnowledge(context.Background(), "k1")
	require.NoError(t, err)

	gw.respond("dislike:k1", gatewayResponse{count: -1})
	require.NoError(t, waitSettled(t, m))

	article, _ := store.Article("k1")
	assert.Equal(t, 2, article.DislikeCount)
}

func TestLikeRollbackRestoresExactValue(t *testing.T) {
	t.Parallel()

	store := interactions.NewStore()
	store.PutArticle(knowledge.Article{ID: "k1", LikeCount: 3, DislikeCount: 5})

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{})

	like, err := c.LikeKnowledge(context.Background(), "k1")
	require.NoError(t, err)

	dislike, err := c.DislikeKnowledge(context.Background(), "k1")
	require.NoError(t, err)

	article, _ := store.Article("k1")
	assert.Equal(t, 4, article.LikeCount)
	assert.Equal(t, 6, article.DislikeCount)

	gw.respond("like:k1", gatewayResponse{err: &interactions.NetworkError{Err: errors.New("connection reset")}})

	err = waitSettled(t, like)
	require.Error(t, err)

	var networkErr *interactions.NetworkError
	require.ErrorAs(t, err, &networkErr)
	assert.Equal(t, interactions.StateRolledBack, like.State())

	article, _ = store.Article("k1")
	assert.Equal(t, 3, article.LikeCount)
	assert.Equal(t, 6, article.DislikeCount, "pending dislike stays applied")

	gw.respond("dislike:k1", gatewayResponse{count: 6})
	require.NoError(t, waitSettled(t, dislike))
}

func TestLikeInFlightRejected(t *testing.T) {
	t.Parallel()

	store := interactions.NewStore()
	store.PutArticle(knowledge.Article{ID: "k1", LikeCount: 0})

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{})

	m, err := c.LikeKnowledge(context.Background(), "k1")
	require.NoError(t, err)

	_, err = c.LikeKnowledge(context.Background(), "k1")
	require.Error(t, err)

	var inFlightErr interactions.MutationInFlightError
	require.ErrorAs(t, err, &inFlightErr)
	assert.Equal(t, "k1", inFlightErr.EntityID)
	assert.Equal(t, interactions.KindLike, inFlightErr.Kind)
	assert.True(t, interactions.IsLocal(err))

	article, _ := store.Article("k1")
	assert.Equal(t, 1, article.LikeCount)

	gw.respond("like:k1", gatewayResponse{count: 1})
	require.NoError(t, waitSettled(t, m))

	// once settled the same action is accepted again
	m, err = c.LikeKnowledge(context.Background(), "k1")
	require.NoError(t, err)

	gw.respond("like:k1", gatewayResponse{count: 2})
	require.NoError(t, waitSettled(t, m))
	assert.Equal(t, 2, gw.callCount())
}

func TestLikeUnknownArticle(t *testing.T) {
	t.Parallel()

	gw := newStubGateway()
	c := interactions.NewCoordinator(interactions.NewStore(), gw, interactions.Config{})

	_, err := c.LikeKnowledge(context.Background(), "missing")

	var notFoundErr interactions.EntityNotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, 0, gw.callCount())
}

func TestVoteReplyInFlightRejected(t *testing.T) {
	t.Parallel()

	ctx := authcontext.WithSubject(context.Background(), "u1")

	store := interactions.NewStore()
	store.PutDiscussion("d1", []*discuss.Reply{newReply("r1", nil, nil)})

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{})

	m, err := c.VoteReply(ctx, "r1", votes.Up)
	require.NoError(t, err)

	_, err = c.VoteReply(ctx, "r1", votes.Up)

	var inFlightErr interactions.MutationInFlightError
	require.ErrorAs(t, err, &inFlightErr)

	reply, ok := store.Reply("r1")
	require.True(t, ok)
	assert.Equal(t, []string{"u1"}, reply.Upvoters())
	assert.Equal(t, 1, reply.NetScore())

	gw.respond("vote:r1:up", gatewayResponse{})
	require.NoError(t, waitSettled(t, m))
	assert.Equal(t, 1, gw.callCount())

	reply, _ = store.Reply("r1")
	assert.Equal(t, 1, reply.NetScore())
}

func TestVoteReplyRollback(t *testing.T) {
	t.Parallel()

	ctx := authcontext.WithSubject(context.Background(), "u1")

	store := interactions.NewStore()
	store.PutDiscussion("d1", []*discuss.Reply{newReply("r1", []string{"u2"}, []string{"u1"})})

	before, _ := store.Reply("r1")

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{})

	m, err := c.VoteReply(ctx, "r1", votes.Up)
	require.NoError(t, err)

	reply, _ := store.Reply("r1")
	assert.Equal(t, []string{"u1", "u2"}, reply.Upvoters())
	assert.Empty(t, reply.Downvoters())

	gw.respond("vote:r1:up", gatewayResponse{err: &interactions.RejectedError{Reason: "voting closed"}})

	err = waitSettled(t, m)

	var rejectedErr *interactions.RejectedError
	require.ErrorAs(t, err, &rejectedErr)
	assert.Equal(t, "voting closed", rejectedErr.Reason)
	assert.False(t, interactions.IsLocal(err))

	reply, _ = store.Reply("r1")
	assert.True(t, before.Item.Equal(reply.Item))
}

func TestVoteReplyResortsDiscussion(t *testing.T) {
	t.Parallel()

	ctx := authcontext.WithSubject(context.Background(), "u1")

	store := interactions.NewStore()
	store.PutDiscussion("d1", []*discuss.Reply{
		newReply("A", nil, nil),
		newReply("B", nil, nil),
		newReply("C", nil, nil),
	})

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{})

	assert.Equal(t, []string{"A", "B", "C"}, threadIDs(t, store, "d1"))

	up, err := c.VoteReply(ctx, "C", votes.Up)
	require.NoError(t, err)

	down, err := c.VoteReply(ctx, "A", votes.Down)
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "B", "A"}, threadIDs(t, store, "d1"))

	gw.respond("vote:C:up", gatewayResponse{err: errors.New("boom")})

	err = waitSettled(t, up)

	var unknownErr *interactions.UnknownError
	require.ErrorAs(t, err, &unknownErr)

	assert.Equal(t, []string{"B", "C", "A"}, threadIDs(t, store, "d1"))

	gw.respond("vote:A:down", gatewayResponse{})
	require.NoError(t, waitSettled(t, down))

	thread, ok := store.Thread("d1", false, 2)
	require.True(t, ok)
	assert.Len(t, thread.Visible(), 2)
	assert.True(t, thread.HasMore())
	assert.Equal(t, 1, thread.HiddenCount())
}

func TestVoteReplyOppositeVoteWhilePending(t *testing.T) {
	t.Parallel()

	ctx := authcontext.WithSubject(context.Background(), "u1")

	store := interactions.NewStore()
	store.PutDiscussion("d1", []*discuss.Reply{newReply("r1", nil, nil)})

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{})

	up, err := c.VoteReply(ctx, "r1", votes.Up)
	require.NoError(t, err)

	down, err := c.VoteReply(ctx, "r1", votes.Down)
	require.NoError(t, err)

	reply, _ := store.Reply("r1")
	assert.Equal(t, -1, reply.NetScore())

	// the failed upvote must not undo the later downvote
	gw.respond("vote:r1:up", gatewayResponse{err: &interactions.RejectedError{Reason: "nope"}})
	require.Error(t, waitSettled(t, up))

	reply, _ = store.Reply("r1")
	assert.True(t, reply.HasDownvoted("u1"))

	gw.respond("vote:r1:down", gatewayResponse{})
	require.NoError(t, waitSettled(t, down))
}

func TestVoteReplyOverlappingVotesRejected(t *testing.T) {
	t.Parallel()

	rejected := gatewayResponse{err: &interactions.RejectedError{Reason: "voting closed"}}

	tests := []struct {
		name       string
		upvoters   []string
		downvoters []string
		first      string
		second     string
		up         gatewayResponse
		down       gatewayResponse
		expected   votes.Direction
	}{
		{
			name:     "both rejected, upvote answered first",
			first:    "vote:r1:up",
			second:   "vote:r1:down",
			up:       rejected,
			down:     rejected,
			expected: votes.None,
		},
		{
			name:     "both rejected, downvote answered first",
			first:    "vote:r1:down",
			second:   "vote:r1:up",
			up:       rejected,
			down:     rejected,
			expected: votes.None,
		},
		{
			name:     "upvote rejected, downvote committed",
			first:    "vote:r1:up",
			second:   "vote:r1:down",
			up:       rejected,
			down:     gatewayResponse{},
			expected: votes.Down,
		},
		{
			name:     "upvote committed, downvote rejected",
			first:    "vote:r1:down",
			second:   "vote:r1:up",
			up:       gatewayResponse{},
			down:     rejected,
			expected: votes.Up,
		},
		{
			name:       "both rejected over an earlier downvote",
			downvoters: []string{"u1"},
			first:      "vote:r1:up",
			second:     "vote:r1:down",
			up:         rejected,
			down:       rejected,
			expected:   votes.Down,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := authcontext.WithSubject(context.Background(), "u1")

			store := interactions.NewStore()
			store.PutDiscussion("d1", []*discuss.Reply{newReply("r1", tt.upvoters, tt.downvoters)})

			gw := newStubGateway()
			c := interactions.NewCoordinator(store, gw, interactions.Config{})

			up, err := c.VoteReply(ctx, "r1", votes.Up)
			require.NoError(t, err)

			down, err := c.VoteReply(ctx, "r1", votes.Down)
			require.NoError(t, err)

			responses := map[string]gatewayResponse{"vote:r1:up": tt.up, "vote:r1:down": tt.down}
			mutations := map[string]*interactions.Mutation{"vote:r1:up": up, "vote:r1:down": down}

			for _, key := range []string{tt.first, tt.second} {
				gw.respond(key, responses[key])
				_ = waitSettled(t, mutations[key])
			}

			reply, ok := store.Reply("r1")
			require.True(t, ok)
			assert.Equal(t, tt.expected, reply.DirectionOf("u1"))
			assert.Equal(t, tt.expected == votes.Up, reply.HasUpvoted("u1"))
			assert.Equal(t, tt.expected == votes.Down, reply.HasDownvoted("u1"))

			// the ballot starts from what the server holds on the next vote
			next, err := c.VoteReply(ctx, "r1", votes.Up)
			require.NoError(t, err)

			reply, _ = store.Reply("r1")
			assert.Equal(t, tt.expected.Toggled(votes.Up), reply.DirectionOf("u1"))

			gw.respond("vote:r1:up", gatewayResponse{})
			require.NoError(t, waitSettled(t, next))
		})
	}
}

func TestVoteReplyValidation(t *testing.T) {
	t.Parallel()

	store := interactions.NewStore()
	store.PutDiscussion("d1", []*discuss.Reply{newReply("r1", nil, nil)})

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{})

	tests := []struct {
		name      string
		ctx       context.Context
		replyID   string
		direction votes.Direction
		field     string
	}{
		{name: "anonymous", ctx: context.Background(), replyID: "r1", direction: votes.Up, field: "subject"},
		{name: "no direction", ctx: authcontext.WithSubject(context.Background(), "u1"), replyID: "r1", direction: votes.None, field: "direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.VoteReply(tt.ctx, tt.replyID, tt.direction)

			var validationErr interactions.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}

	_, err := c.VoteReply(authcontext.WithSubject(context.Background(), "u1"), "missing", votes.Up)

	var notFoundErr interactions.EntityNotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	assert.Equal(t, 0, gw.callCount())

	reply, _ := store.Reply("r1")
	assert.Equal(t, 0, reply.NetScore())
}

func TestReconcileAfterReset(t *testing.T) {
	t.Parallel()

	ctx := authcontext.WithSubject(context.Background(), "u1")

	store := interactions.NewStore()
	store.PutArticle(knowledge.Article{ID: "k1", LikeCount: 3})
	store.PutDiscussion("d1", []*discuss.Reply{newReply("r1", nil, nil)})

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{})

	like, err := c.LikeKnowledge(ctx, "k1")
	require.NoError(t, err)

	vote, err := c.VoteReply(ctx, "r1", votes.Up)
	require.NoError(t, err)

	store.Reset()
	store.PutArticle(knowledge.Article{ID: "k1", LikeCount: 50})

	gw.respond("like:k1", gatewayResponse{err: &interactions.NetworkError{Err: errors.New("offline")}})
	gw.respond("vote:r1:up", gatewayResponse{})

	require.Error(t, waitSettled(t, like))
	require.NoError(t, waitSettled(t, vote))

	article, ok := store.Article("k1")
	require.True(t, ok)
	assert.Equal(t, 50, article.LikeCount, "stale rollback must not touch reloaded data")

	_, ok = store.Reply("r1")
	assert.False(t, ok)
}

func TestSubmitReply(t *testing.T) {
	t.Parallel()

	ctx := authcontext.WithSubject(context.Background(), "u1")

	t.Run("commit swaps in server reply", func(t *testing.T) {
		t.Parallel()

		store := interactions.NewStore()
		store.PutDiscussion("d1", []*discuss.Reply{newReply("r1", []string{"u9"}, nil)})

		gw := newStubGateway()
		c := interactions.NewCoordinator(store, gw, interactions.Config{})

		m, err := c.SubmitReply(ctx, interactions.SubmitReplyRequest{
			DiscussionID: "d1",
			Content:      "  my answer ",
			ReplyTo:      "r1",
		})
		require.NoError(t, err)

		provisionalID := m.ReplyID()
		assert.Equal(t, []string{"r1", provisionalID}, threadIDs(t, store, "d1"))

		provisional, ok := store.Reply(provisionalID)
		require.True(t, ok)
		assert.Equal(t, "my answer", provisional.Content)
		assert.Equal(t, "u1", provisional.AuthorID)
		require.NotNil(t, provisional.ReplyTo)
		assert.Equal(t, "r1", *provisional.ReplyTo)

		gw.respond("reply:d1", gatewayResponse{reply: &discuss.Reply{
			Item:         votes.NewItem("srv-1", nil, nil),
			DiscussionID: "d1",
			Content:      "my answer",
		}})
		require.NoError(t, waitSettled(t, m))

		assert.Equal(t, "srv-1", m.ReplyID())
		assert.Equal(t, []string{"r1", "srv-1"}, threadIDs(t, store, "d1"))

		_, ok = store.Reply(provisionalID)
		assert.False(t, ok)
	})

	t.Run("rollback removes provisional reply", func(t *testing.T) {
		t.Parallel()

		store := interactions.NewStore()
		store.PutDiscussion("d1", nil)

		gw := newStubGateway()
		c := interactions.NewCoordinator(store, gw, interactions.Config{})

		m, err := c.SubmitReply(ctx, interactions.SubmitReplyRequest{DiscussionID: "d1", Content: "hi"})
		require.NoError(t, err)
		assert.Len(t, threadIDs(t, store, "d1"), 1)

		_, err = c.SubmitReply(ctx, interactions.SubmitReplyRequest{DiscussionID: "d1", Content: "again"})

		var inFlightErr interactions.MutationInFlightError
		require.ErrorAs(t, err, &inFlightErr)

		gw.respond("reply:d1", gatewayResponse{err: &interactions.RejectedError{Reason: "discussion locked"}})
		require.Error(t, waitSettled(t, m))

		assert.Empty(t, threadIDs(t, store, "d1"))
	})

	t.Run("blank content is rejected locally", func(t *testing.T) {
		t.Parallel()

		store := interactions.NewStore()
		store.PutDiscussion("d1", nil)

		gw := newStubGateway()
		c := interactions.NewCoordinator(store, gw, interactions.Config{})

		_, err := c.SubmitReply(ctx, interactions.SubmitReplyRequest{DiscussionID: "d1", Content: " \n "})

		var validationErr interactions.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "content", validationErr.Field)

		var emptyErr discuss.EmptyContentError
		require.ErrorAs(t, err, &emptyErr)

		assert.Empty(t, threadIDs(t, store, "d1"))
		assert.Equal(t, 0, gw.callCount())
	})

	t.Run("unknown discussion", func(t *testing.T) {
		t.Parallel()

		c := interactions.NewCoordinator(interactions.NewStore(), newStubGateway(), interactions.Config{})

		_, err := c.SubmitReply(ctx, interactions.SubmitReplyRequest{DiscussionID: "nope", Content: "hi"})

		var notFoundErr interactions.EntityNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})
}

func TestGatewayTimeoutIsNetworkError(t *testing.T) {
	t.Parallel()

	store := interactions.NewStore()
	store.PutArticle(knowledge.Article{ID: "k1", LikeCount: 1})

	c := interactions.NewCoordinator(store, newStubGateway(), interactions.Config{GatewayTimeout: 20 * time.Millisecond})

	m, err := c.LikeKnowledge(context.Background(), "k1")
	require.NoError(t, err)

	err = waitSettled(t, m)

	var networkErr *interactions.NetworkError
	require.ErrorAs(t, err, &networkErr)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	article, _ := store.Article("k1")
	assert.Equal(t, 1, article.LikeCount)
}

func TestCallerCancellationDoesNotAbortReconciliation(t *testing.T) {
	t.Parallel()

	store := interactions.NewStore()
	store.PutArticle(knowledge.Article{ID: "k1"})

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{})

	ctx, cancel := context.WithCancel(context.Background())

	m, err := c.LikeKnowledge(ctx, "k1")
	require.NoError(t, err)

	cancel()

	waitCtx, waitCancel := context.WithCancel(context.Background())
	waitCancel()
	require.ErrorIs(t, m.Wait(waitCtx), context.Canceled)

	gw.respond("like:k1", gatewayResponse{count: 1})
	require.NoError(t, m.Wait(context.Background()))

	c.Wait()

	article, _ := store.Article("k1")
	assert.Equal(t, 1, article.LikeCount)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()

	metrics := &interactions.Metrics{}
	metrics.Register(registry)
	metrics.Register(registry)

	store := interactions.NewStore()
	store.PutArticle(knowledge.Article{ID: "k1"})

	gw := newStubGateway()
	c := interactions.NewCoordinator(store, gw, interactions.Config{Metrics: metrics})

	m, err := c.LikeKnowledge(context.Background(), "k1")
	require.NoError(t, err)

	_, err = c.LikeKnowledge(context.Background(), "k1")
	require.Error(t, err)

	gw.respond("like:k1", gatewayResponse{err: &interactions.NetworkError{Err: errors.New("offline")}})
	require.Error(t, waitSettled(t, m))

	m, err = c.LikeKnowledge(context.Background(), "k1")
	require.NoError(t, err)

	gw.respond("like:k1", gatewayResponse{count: 1})
	require.NoError(t, waitSettled(t, m))

	c.Wait()

	count, err := testutil.GatherAndCount(registry,
		"lms_interactions_mutations_started_total",
		"lms_interactions_mutations_committed_total",
		"lms_interactions_mutations_rolled_back_total",
		"lms_interactions_mutations_in_flight_rejected_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
