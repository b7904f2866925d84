package interactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nasermirzaei89/lms/authcontext"
	"github.com/nasermirzaei89/lms/discuss"
	"github.com/nasermirzaei89/lms/knowledge"
	"github.com/nasermirzaei89/lms/votes"
)

type Config struct {
	// GatewayTimeout bounds every gateway call. Zero leaves timeouts to the
	// gateway itself.
	GatewayTimeout time.Duration
	Metrics        *Metrics
}

// Coordinator applies user actions to the store right away and reconciles
// them with the gateway in the background. At most one mutation per entity
// and kind is pending at any time.
type Coordinator struct {
	store   *Store
	gateway Gateway
	config  Config

	mu      sync.Mutex
	pending map[mutationKey]*Mutation
	ballots map[ballotKey]*ballotChain
	wg      sync.WaitGroup
}

func NewCoordinator(store *Store, gateway Gateway, config Config) *Coordinator {
	return &Coordinator{
		store:   store,
		gateway: gateway,
		config:  config,
		pending: make(map[mutationKey]*Mutation),
		ballots: make(map[ballotKey]*ballotChain),
	}
}

func (c *Coordinator) IsPending(entityID string, kind Kind) bool {
	return c.State(entityID, kind) == StatePending
}

// State reports StatePending while a mutation for the pair is in flight and
// StateIdle otherwise. Settled outcomes are available on the Mutation.
func (c *Coordinator) State(entityID string, kind Kind) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[mutationKey{entityID: entityID, kind: kind}]; ok {
		return StatePending
	}

	return StateIdle
}

// Wait blocks until every dispatched mutation has settled.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) LikeKnowledge(ctx context.Context, articleID string) (*Mutation, error) {
	return c.react(ctx, articleID, KindLike, knowledge.CounterLikes, c.gateway.SubmitLike)
}

func (c *Coordinator) DislikeKnowledge(ctx context.Context, articleID string) (*Mutation, error) {
	return c.react(ctx, articleID, KindDislike, knowledge.CounterDislikes, c.gateway.SubmitDislike)
}

func (c *Coordinator) react(
	ctx context.Context,
	articleID string,
	kind Kind,
	counter knowledge.Counter,
	submit func(ctx context.Context, articleID string) (int, error),
) (*Mutation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := mutationKey{entityID: articleID, kind: kind}

	err := c.checkInFlight(key)
	if err != nil {
		return nil, err
	}

	generation := c.store.currentGeneration()

	var previous int

	ok := c.store.updateArticle(generation, articleID, func(article knowledge.Article) knowledge.Article {
		previous = article.Count(counter)

		return article.WithCount(counter, previous+1)
	})
	if !ok {
		return nil, EntityNotFoundError{EntityID: articleID, Kind: kind}
	}

	m := newMutation(articleID, kind, snapshot{generation: generation, count: previous})

	serverCount := -1

	c.dispatch(ctx, key, m, reconciler{
		call: func(ctx context.Context) error {
			count, err := submit(ctx, articleID)
			serverCount = count

			return err
		},
		commit: func() {
			if serverCount < 0 {
				return
			}

			c.store.updateArticle(generation, articleID, func(article knowledge.Article) knowledge.Article {
				return article.WithCount(counter, serverCount)
			})
		},
		rollback: func() {
			c.store.updateArticle(generation, articleID, func(article knowledge.Article) knowledge.Article {
				return article.WithCount(counter, m.snapshot.count)
			})
		},
	})

	return m, nil
}

// VoteReply toggles the subject's vote on a reply. The subject comes from
// ctx and must not be anonymous. An upvote and a downvote by the same subject
// may be pending together; a rejected one is taken out of the ballot while
// the other stays applied.
func (c *Coordinator) VoteReply(ctx context.Context, replyID string, direction votes.Direction) (*Mutation, error) {
	if !direction.IsValid() {
		return nil, ValidationError{Field: "direction", Reason: fmt.Sprintf("%q is not a vote direction", direction)}
	}

	subject := authcontext.GetSubject(ctx)
	if subject == authcontext.Anonymous {
		return nil, ValidationError{Field: "subject", Reason: "voting requires a signed in subject"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	kind := voteKind(direction)
	key := mutationKey{entityID: replyID, kind: kind}

	err := c.checkInFlight(key)
	if err != nil {
		return nil, err
	}

	generation := c.store.currentGeneration()
	ballot := ballotKey{replyID: replyID, subject: subject}

	chain, ok := c.ballots[ballot]
	if ok && chain.generation != generation {
		chain = nil
	}

	ok = c.store.updateReply(generation, replyID, func(reply *discuss.Reply) {
		if chain == nil {
			chain = &ballotChain{generation: generation, base: reply.DirectionOf(subject)}
		}

		reply.Item = reply.Toggle(subject, direction)
	})
	if !ok {
		return nil, EntityNotFoundError{EntityID: replyID, Kind: kind}
	}

	m := newMutation(replyID, kind, snapshot{generation: generation, subject: subject, direction: direction})

	chain.push(m, direction)
	c.ballots[ballot] = chain

	settle := func(rejected bool) {
		chain.settle(m, rejected)

		if chain.empty() && c.ballots[ballot] == chain {
			delete(c.ballots, ballot)
		}
	}

	c.dispatch(ctx, key, m, reconciler{
		call: func(ctx context.Context) error {
			return c.gateway.SubmitVote(ctx, replyID, subject, direction)
		},
		commit: func() {
			settle(false)
		},
		rollback: func() {
			settle(true)

			c.store.updateReply(generation, replyID, func(reply *discuss.Reply) {
				reply.Item = reply.WithBallot(subject, chain.visible())
			})
		},
	})

	return m, nil
}

type SubmitReplyRequest struct {
	DiscussionID string
	Content      string
	ReplyTo      string
	AuthorLabel  string
}

// SubmitReply appends a provisional reply to the cached discussion and sends
// it to the gateway. The provisional reply is replaced by the server's reply
// on success and removed on failure. Blank content is rejected up front.
func (c *Coordinator) SubmitReply(ctx context.Context, req SubmitReplyRequest) (*Mutation, error) {
	subject := authcontext.GetSubject(ctx)
	if subject == authcontext.Anonymous {
		return nil, ValidationError{Field: "subject", Reason: "replying requires a signed in subject"}
	}

	createReq := discuss.CreateReplyRequest{
		DiscussionID: req.DiscussionID,
		AuthorID:     subject,
		AuthorLabel:  req.AuthorLabel,
		Content:      req.Content,
		ReplyTo:      req.ReplyTo,
	}

	provisional, err := discuss.NewReply(createReq, time.Now())
	if err != nil {
		return nil, ValidationError{Field: "content", Reason: "must not be empty", Err: err}
	}

	createReq.Content = provisional.Content

	c.mu.Lock()
	defer c.mu.Unlock()

	key := mutationKey{entityID: req.DiscussionID, kind: KindReply}

	err = c.checkInFlight(key)
	if err != nil {
		return nil, err
	}

	generation := c.store.currentGeneration()

	if !c.store.appendReply(generation, provisional) {
		return nil, EntityNotFoundError{EntityID: req.DiscussionID, Kind: KindReply}
	}

	m := newMutation(req.DiscussionID, KindReply, snapshot{generation: generation, provisionalID: provisional.ID})

	var created *discuss.Reply

	c.dispatch(ctx, key, m, reconciler{
		call: func(ctx context.Context) error {
			reply, err := c.gateway.SubmitReply(ctx, createReq)
			created = reply

			return err
		},
		commit: func() {
			if created == nil {
				return
			}

			if c.store.replaceReply(generation, provisional.ID, created) {
				m.resultID = created.ID
			}
		},
		rollback: func() {
			c.store.removeReply(generation, provisional.ID)
		},
	})

	return m, nil
}

func (c *Coordinator) checkInFlight(key mutationKey) error {
	if _, ok := c.pending[key]; ok {
		c.config.Metrics.rejectedInFlight(key.kind)

		return MutationInFlightError{EntityID: key.entityID, Kind: key.kind}
	}

	return nil
}

type reconciler struct {
	call     func(ctx context.Context) error
	commit   func()
	rollback func()
}

// dispatch registers m as pending and runs the gateway call in the
// background. The caller holds c.mu.
func (c *Coordinator) dispatch(ctx context.Context, key mutationKey, m *Mutation, r reconciler) {
	c.pending[key] = m
	c.config.Metrics.started(key.kind)

	slog.DebugContext(ctx, "optimistic mutation applied", "entityId", key.entityID, "kind", key.kind)

	// the caller going away must not stop reconciliation
	ctx = context.WithoutCancel(ctx)

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		callCtx := ctx

		if c.config.GatewayTimeout > 0 {
			var cancel context.CancelFunc

			callCtx, cancel = context.WithTimeout(ctx, c.config.GatewayTimeout)
			defer cancel()
		}

		err := r.call(callCtx)

		c.finalize(ctx, key, m, r, err)
	}()
}

func (c *Coordinator) finalize(ctx context.Context, key mutationKey, m *Mutation, r reconciler, callErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, key)

	if callErr == nil {
		r.commit()
		c.config.Metrics.committed(key.kind)
		m.settle(StateCommitted, nil)

		return
	}

	class, classified := classify(callErr)

	r.rollback()
	c.config.Metrics.rolledBack(key.kind, class)

	slog.WarnContext(
		ctx,
		"optimistic mutation rolled back",
		"entityId", key.entityID,
		"kind", key.kind,
		"class", class,
		"error", callErr,
	)

	m.settle(StateRolledBack, fmt.Errorf("failed to %s %q: %w", key.kind, key.entityID, classified))
}

// IsLocal reports whether err was raised before anything reached the gateway.
func IsLocal(err error) bool {
	var (
		validationErr ValidationError
		inFlightErr   MutationInFlightError
		notFoundErr   EntityNotFoundError
	)

	return errors.As(err, &validationErr) || errors.As(err, &inFlightErr) || errors.As(err, &notFoundErr)
}
