package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/lms/votes"
)

const tableReplyVotes = "reply_votes"

type BallotRepository struct {
	db *sql.DB
}

var _ votes.BallotRepository = (*BallotRepository)(nil)

func NewBallotRepository(db *sql.DB) *BallotRepository {
	return &BallotRepository{db: db}
}

const (
	ballotFieldReplyID   = "reply_id"
	ballotFieldSubject   = "subject"
	ballotFieldDirection = "direction"
	ballotFieldCreatedAt = "created_at"
)

func ballotColumns() []string {
	return []string{
		ballotFieldReplyID,
		ballotFieldSubject,
		ballotFieldDirection,
		ballotFieldCreatedAt,
	}
}

func scanBallot(row sq.RowScanner) (*votes.Ballot, error) {
	var (
		ballot    votes.Ballot
		direction string
	)

	err := row.Scan(
		&ballot.ItemID,
		&ballot.Subject,
		&direction,
		&ballot.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ballot row: %w", err)
	}

	ballot.Direction, err = votes.ParseDirection(direction)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ballot direction: %w", err)
	}

	return &ballot, nil
}

func (repo *BallotRepository) FindBySubject(ctx context.Context, itemID string, subject string) (*votes.Ballot, error) {
	q := sq.Select(ballotColumns()...).
		From(tableReplyVotes).
		Where(sq.Eq{
			ballotFieldReplyID: itemID,
			ballotFieldSubject: subject,
		}).
		RunWith(repo.db)

	ballot, err := scanBallot(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, votes.BallotNotFoundError{ItemID: itemID, Subject: subject}
		}

		return nil, fmt.Errorf("failed to find ballot by subject: %w", err)
	}

	return ballot, nil
}

func (repo *BallotRepository) Upsert(ctx context.Context, ballot *votes.Ballot) error {
	query := fmt.Sprintf(`
INSERT INTO %s (reply_id, subject, direction, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(reply_id, subject)
DO UPDATE SET
    direction = excluded.direction,
    created_at = excluded.created_at
`, tableReplyVotes)

	_, err := repo.db.ExecContext(
		ctx,
		query,
		ballot.ItemID,
		ballot.Subject,
		ballot.Direction.String(),
		ballot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ballot: %w", err)
	}

	return nil
}

func (repo *BallotRepository) DeleteBySubject(ctx context.Context, itemID string, subject string) error {
	q := sq.Delete(tableReplyVotes).
		Where(sq.Eq{
			ballotFieldReplyID: itemID,
			ballotFieldSubject: subject,
		}).
		RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete ballot: %w", err)
	}

	return nil
}

func (repo *BallotRepository) ListByItems(ctx context.Context, itemIDs []string) ([]*votes.Ballot, error) {
	ballots := make([]*votes.Ballot, 0)

	if len(itemIDs) == 0 {
		return ballots, nil
	}

	q := sq.Select(ballotColumns()...).
		From(tableReplyVotes).
		Where(sq.Eq{ballotFieldReplyID: itemIDs}).
		RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query ballots: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close ballot rows", "error", err)
		}
	}()

	for rows.Next() {
		ballot, err := scanBallot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}

		ballots = append(ballots, ballot)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate ballot rows: %w", err)
	}

	return ballots, nil
}
