package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/lms/knowledge"
)

const tableArticles = "knowledge_articles"

type ArticleRepository struct {
	db *sql.DB
}

var _ knowledge.ArticleRepository = (*ArticleRepository)(nil)

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

const (
	articleFieldID           = "id"
	articleFieldTitle        = "title"
	articleFieldLikeCount    = "like_count"
	articleFieldDislikeCount = "dislike_count"
	articleFieldCreatedAt    = "created_at"
)

func articleColumns() []string {
	return []string{
		articleFieldID,
		articleFieldTitle,
		articleFieldLikeCount,
		articleFieldDislikeCount,
		articleFieldCreatedAt,
	}
}

func counterColumn(counter knowledge.Counter) (string, error) {
	switch counter {
	case knowledge.CounterLikes:
		return articleFieldLikeCount, nil
	case knowledge.CounterDislikes:
		return articleFieldDislikeCount, nil
	default:
		return "", knowledge.InvalidCounterError{Counter: counter}
	}
}

func scanArticle(row sq.RowScanner) (*knowledge.Article, error) {
	var article knowledge.Article

	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.LikeCount,
		&article.DislikeCount,
		&article.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan article row: %w", err)
	}

	return &article, nil
}

func (repo *ArticleRepository) Insert(ctx context.Context, article *knowledge.Article) error {
	q := sq.Insert(tableArticles).
		Columns(articleColumns()...).
		Values(
			article.ID,
			article.Title,
			article.LikeCount,
			article.DislikeCount,
			article.CreatedAt,
		).
		RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *ArticleRepository) Find(ctx context.Context, articleID string) (*knowledge.Article, error) {
	q := sq.Select(articleColumns()...).
		From(tableArticles).
		Where(sq.Eq{articleFieldID: articleID}).
		RunWith(repo.db)

	article, err := scanArticle(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, knowledge.ArticleNotFoundError{ID: articleID}
		}

		return nil, fmt.Errorf("failed to find article: %w", err)
	}

	return article, nil
}

func (repo *ArticleRepository) Increment(
	ctx context.Context,
	articleID string,
	counter knowledge.Counter,
) (int, error) {
	column, err := counterColumn(counter)
	if err != nil {
		return 0, err
	}

	q := sq.Update(tableArticles).
		Set(column, sq.Expr(column+" + 1")).
		Where(sq.Eq{articleFieldID: articleID}).
		Suffix("RETURNING " + column).
		RunWith(repo.db)

	var count int

	err = q.QueryRowContext(ctx).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, knowledge.ArticleNotFoundError{ID: articleID}
		}

		return 0, fmt.Errorf("failed to increment %s: %w", column, err)
	}

	return count, nil
}
