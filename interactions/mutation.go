package interactions

import (
	"context"
	"fmt"

	"github.com/nasermirzaei89/lms/votes"
)

type Kind string

const (
	KindLike     Kind = "like"
	KindDislike  Kind = "dislike"
	KindUpvote   Kind = "upvote"
	KindDownvote Kind = "downvote"
	KindReply    Kind = "reply"
)

func voteKind(direction votes.Direction) Kind {
	if direction == votes.Down {
		return KindDownvote
	}

	return KindUpvote
}

type State int

const (
	StateIdle State = iota
	StatePending
	StateCommitted
	StateRolledBack
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(state))
	}
}

type mutationKey struct {
	entityID string
	kind     Kind
}

// snapshot holds what a mutation changed, enough to put it back.
type snapshot struct {
	generation uint64

	// like and dislike
	count int

	// upvote and downvote
	subject   string
	direction votes.Direction

	// reply
	provisionalID string
}

// Mutation is the handle of one optimistic mutation. The local change is
// already visible when the caller receives it; Done closes once the gateway
// answered and the change was committed or rolled back.
type Mutation struct {
	EntityID string
	Kind     Kind

	snapshot snapshot
	done     chan struct{}
	state    State
	err      error
	resultID string
}

func newMutation(entityID string, kind Kind, snap snapshot) *Mutation {
	return &Mutation{
		EntityID: entityID,
		Kind:     kind,
		snapshot: snap,
		done:     make(chan struct{}),
		state:    StatePending,
	}
}

func (m *Mutation) Done() <-chan struct{} {
	return m.done
}

func (m *Mutation) State() State {
	select {
	case <-m.done:
		return m.state
	default:
		return StatePending
	}
}

// Err returns the classified failure once the mutation rolled back, and nil
// while it is pending or after it committed.
func (m *Mutation) Err() error {
	select {
	case <-m.done:
		return m.err
	default:
		return nil
	}
}

// Wait blocks until the mutation settles or ctx is done.
func (m *Mutation) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return m.err
	case <-ctx.Done():
		return fmt.Errorf("failed to wait for %s on %q: %w", m.Kind, m.EntityID, ctx.Err())
	}
}

// ReplyID is the id of the reply a KindReply mutation appended: the
// provisional id while pending, the server's id after commit.
func (m *Mutation) ReplyID() string {
	select {
	case <-m.done:
		if m.resultID != "" {
			return m.resultID
		}
	default:
	}

	return m.snapshot.provisionalID
}

func (m *Mutation) settle(state State, err error) {
	m.state = state
	m.err = err
	close(m.done)
}
