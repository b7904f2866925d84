package votes

import (
	"fmt"
	"maps"
	"slices"
)

type Direction int

const (
	None Direction = iota
	Up
	Down
)

func (direction Direction) IsValid() bool {
	switch direction {
	case Up, Down:
		return true
	default:
		return false
	}
}

func (direction Direction) String() string {
	switch direction {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// Toggled is the ballot left after requested is toggled on a ballot of
// direction.
func (direction Direction) Toggled(requested Direction) Direction {
	if !requested.IsValid() || direction == requested {
		return None
	}

	return requested
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return None, InvalidDirectionError{Direction: s}
	}
}

type InvalidDirectionError struct {
	Direction string
}

func (err InvalidDirectionError) Error() string {
	return fmt.Sprintf("invalid vote direction: %q", err.Direction)
}

// Item is anything that can receive upvotes and downvotes. Each subject holds
// at most one ballot, so a subject can never be both an upvoter and a
// downvoter of the same item.
type Item struct {
	ID      string
	ballots map[string]Direction
}

// NewItem builds an item from upvoter and downvoter sets. A subject listed in
// both ends up as a downvoter.
func NewItem(id string, upvoters, downvoters []string) Item {
	ballots := make(map[string]Direction, len(upvoters)+len(downvoters))

	for _, subject := range upvoters {
		ballots[subject] = Up
	}

	for _, subject := range downvoters {
		ballots[subject] = Down
	}

	return Item{ID: id, ballots: ballots}
}

func (item Item) Clone() Item {
	return Item{ID: item.ID, ballots: maps.Clone(item.ballots)}
}

func (item Item) Equal(other Item) bool {
	if item.ID != other.ID || len(item.ballots) != len(other.ballots) {
		return false
	}

	for subject, direction := range item.ballots {
		if other.ballots[subject] != direction {
			return false
		}
	}

	return true
}

func (item Item) DirectionOf(subject string) Direction {
	return item.ballots[subject]
}

func (item Item) HasUpvoted(subject string) bool {
	return item.ballots[subject] == Up
}

func (item Item) HasDownvoted(subject string) bool {
	return item.ballots[subject] == Down
}

func (item Item) UpvoteCount() int {
	return item.count(Up)
}

func (item Item) DownvoteCount() int {
	return item.count(Down)
}

// NetScore is the number of upvoters minus the number of downvoters.
func (item Item) NetScore() int {
	score := 0

	for _, direction := range item.ballots {
		switch direction {
		case Up:
			score++
		case Down:
			score--
		case None:
		}
	}

	return score
}

func (item Item) Upvoters() []string {
	return item.subjects(Up)
}

func (item Item) Downvoters() []string {
	return item.subjects(Down)
}

func (item Item) count(direction Direction) int {
	n := 0

	for _, d := range item.ballots {
		if d == direction {
			n++
		}
	}

	return n
}

func (item Item) subjects(direction Direction) []string {
	result := make([]string, 0)

	for subject, d := range item.ballots {
		if d == direction {
			result = append(result, subject)
		}
	}

	slices.Sort(result)

	return result
}

// Toggle casts or withdraws the subject's ballot in the given direction.
// Voting in the direction already held withdraws the vote; voting the other
// way replaces it. The receiver is left untouched.
func (item Item) Toggle(subject string, direction Direction) Item {
	result := item.Clone()
	if result.ballots == nil {
		result.ballots = make(map[string]Direction, 1)
	}

	toggled := result.ballots[subject].Toggled(direction)
	if toggled == None {
		delete(result.ballots, subject)

		return result
	}

	result.ballots[subject] = toggled

	return result
}

func (item Item) ToggleUpvote(subject string) Item {
	return item.Toggle(subject, Up)
}

func (item Item) ToggleDownvote(subject string) Item {
	return item.Toggle(subject, Down)
}

// WithBallot returns a copy of item where subject holds exactly direction.
// None removes the subject's ballot.
func (item Item) WithBallot(subject string, direction Direction) Item {
	result := item.Clone()
	if result.ballots == nil {
		result.ballots = make(map[string]Direction, 1)
	}

	if !direction.IsValid() {
		delete(result.ballots, subject)

		return result
	}

	result.ballots[subject] = direction

	return result
}
