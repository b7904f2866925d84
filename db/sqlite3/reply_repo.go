package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/lms/discuss"
	"github.com/nasermirzaei89/lms/votes"
)

const tableReplies = "replies"

type ReplyRepository struct {
	db *sql.DB
}

var _ discuss.ReplyRepository = (*ReplyRepository)(nil)

func NewReplyRepository(db *sql.DB) *ReplyRepository {
	return &ReplyRepository{db: db}
}

const (
	replyFieldID           = "id"
	replyFieldDiscussionID = "discussion_id"
	replyFieldAuthorID     = "author_id"
	replyFieldAuthorLabel  = "author_label"
	replyFieldReplyTo      = "reply_to"
	replyFieldContent      = "content"
	replyFieldCreatedAt    = "created_at"
)

func replyColumns() []string {
	return []string{
		replyFieldID,
		replyFieldDiscussionID,
		replyFieldAuthorID,
		replyFieldAuthorLabel,
		replyFieldReplyTo,
		replyFieldContent,
		replyFieldCreatedAt,
	}
}

func scanReply(row sq.RowScanner) (*discuss.Reply, error) {
	var (
		reply discuss.Reply
		id    string
	)

	err := row.Scan(
		&id,
		&reply.DiscussionID,
		&reply.AuthorID,
		&reply.AuthorLabel,
		&reply.ReplyTo,
		&reply.Content,
		&reply.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan reply row: %w", err)
	}

	reply.Item = votes.NewItem(id, nil, nil)
	reply.CreatedAtLabel = discuss.FormatCreatedAt(reply.CreatedAt)

	return &reply, nil
}

func (repo *ReplyRepository) Insert(ctx context.Context, reply *discuss.Reply) error {
	q := sq.Insert(tableReplies).
		Columns(replyColumns()...).
		Values(
			reply.ID,
			reply.DiscussionID,
			reply.AuthorID,
			reply.AuthorLabel,
			reply.ReplyTo,
			reply.Content,
			reply.CreatedAt,
		).
		RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *ReplyRepository) Find(ctx context.Context, replyID string) (*discuss.Reply, error) {
	q := sq.Select(replyColumns()...).
		From(tableReplies).
		Where(sq.Eq{replyFieldID: replyID}).
		RunWith(repo.db)

	reply, err := scanReply(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, discuss.ReplyNotFoundError{ID: replyID}
		}

		return nil, fmt.Errorf("failed to find reply: %w", err)
	}

	return reply, nil
}

func (repo *ReplyRepository) List(
	ctx context.Context,
	params *discuss.ListRepliesParams,
) ([]*discuss.Reply, error) {
	query := sq.Select(replyColumns()...).
		From(tableReplies).
		OrderBy(replyFieldCreatedAt+" ASC", replyFieldID+" ASC")

	if params.DiscussionID != "" {
		query = query.Where(sq.Eq{replyFieldDiscussionID: params.DiscussionID})
	}

	query = query.RunWith(repo.db)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	replies := make([]*discuss.Reply, 0)

	for rows.Next() {
		reply, err := scanReply(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reply failed: %w", err)
		}

		replies = append(replies, reply)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return replies, nil
}
