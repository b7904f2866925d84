package votes

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Ballot struct {
	ItemID    string
	Subject   string
	Direction Direction
	CreatedAt time.Time
}

type BallotRepository interface {
	FindBySubject(ctx context.Context, itemID string, subject string) (ballot *Ballot, err error)
	Upsert(ctx context.Context, ballot *Ballot) (err error)
	DeleteBySubject(ctx context.Context, itemID string, subject string) (err error)
	ListByItems(ctx context.Context, itemIDs []string) (ballots []*Ballot, err error)
}

type BallotNotFoundError struct {
	ItemID  string
	Subject string
}

func (err BallotNotFoundError) Error() string {
	return fmt.Sprintf("ballot of %q on %q not found", err.Subject, err.ItemID)
}

// Service keeps the authoritative ballots with the same toggle rules as Item.
type Service struct {
	ballotRepo BallotRepository
}

func NewService(ballotRepo BallotRepository) *Service {
	return &Service{ballotRepo: ballotRepo}
}

func (svc *Service) Toggle(ctx context.Context, itemID string, subject string, direction Direction) error {
	if !direction.IsValid() {
		return InvalidDirectionError{Direction: direction.String()}
	}

	existing, err := svc.ballotRepo.FindBySubject(ctx, itemID, subject)
	if err != nil {
		var notFoundErr BallotNotFoundError
		if !errors.As(err, &notFoundErr) {
			return fmt.Errorf("failed to get existing ballot: %w", err)
		}
	}

	if existing != nil && existing.Direction == direction {
		err = svc.ballotRepo.DeleteBySubject(ctx, itemID, subject)
		if err != nil {
			return fmt.Errorf("failed to remove ballot: %w", err)
		}

		return nil
	}

	ballot := &Ballot{
		ItemID:    itemID,
		Subject:   subject,
		Direction: direction,
		CreatedAt: time.Now(),
	}

	err = svc.ballotRepo.Upsert(ctx, ballot)
	if err != nil {
		return fmt.Errorf("failed to set ballot: %w", err)
	}

	return nil
}

// Items builds an Item for each id from the stored ballots. Ids without
// ballots get an empty Item.
func (svc *Service) Items(ctx context.Context, itemIDs []string) (map[string]Item, error) {
	ballots, err := svc.ballotRepo.ListByItems(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list ballots: %w", err)
	}

	items := make(map[string]Item, len(itemIDs))
	for _, id := range itemIDs {
		items[id] = NewItem(id, nil, nil)
	}

	for _, ballot := range ballots {
		items[ballot.ItemID] = items[ballot.ItemID].WithBallot(ballot.Subject, ballot.Direction)
	}

	return items, nil
}
