package interactions

import (
	"github.com/nasermirzaei89/lms/votes"
)

type ballotKey struct {
	replyID string
	subject string
}

type ballotVote struct {
	mutation  *Mutation
	direction votes.Direction
	settled   bool
	rejected  bool
}

// ballotChain is one subject's ballot on one reply: the direction the server
// is known to hold plus the votes dispatched on top of it, oldest first.
// Votes leave the chain only once every earlier vote has settled.
type ballotChain struct {
	generation uint64
	base       votes.Direction
	votes      []*ballotVote
}

func (chain *ballotChain) push(m *Mutation, direction votes.Direction) {
	chain.votes = append(chain.votes, &ballotVote{mutation: m, direction: direction})
}

func (chain *ballotChain) settle(m *Mutation, rejected bool) {
	for _, vote := range chain.votes {
		if vote.mutation == m {
			vote.settled = true
			vote.rejected = rejected
		}
	}

	for len(chain.votes) > 0 && chain.votes[0].settled {
		if !chain.votes[0].rejected {
			chain.base = chain.base.Toggled(chain.votes[0].direction)
		}

		chain.votes = chain.votes[1:]
	}
}

// visible replays every vote not rejected on top of the base.
func (chain *ballotChain) visible() votes.Direction {
	direction := chain.base

	for _, vote := range chain.votes {
		if !vote.rejected {
			direction = direction.Toggled(vote.direction)
		}
	}

	return direction
}

func (chain *ballotChain) empty() bool {
	return len(chain.votes) == 0
}
