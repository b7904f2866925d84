package knowledge

import (
	"context"
	"fmt"
	"time"
)

type Counter string

const (
	CounterLikes    Counter = "likes"
	CounterDislikes Counter = "dislikes"
)

func (counter Counter) IsValid() bool {
	switch counter {
	case CounterLikes, CounterDislikes:
		return true
	default:
		return false
	}
}

// Article is a knowledge center entry. Only the aggregate like and dislike
// counters are known; who liked it is tracked by the server alone.
type Article struct {
	ID           string
	Title        string
	LikeCount    int
	DislikeCount int
	CreatedAt    time.Time
}

func (article Article) Count(counter Counter) int {
	switch counter {
	case CounterLikes:
		return article.LikeCount
	case CounterDislikes:
		return article.DislikeCount
	default:
		return 0
	}
}

// WithCount returns a copy of article with counter set to value. Counters
// never go below zero.
func (article Article) WithCount(counter Counter, value int) Article {
	value = max(value, 0)

	switch counter {
	case CounterLikes:
		article.LikeCount = value
	case CounterDislikes:
		article.DislikeCount = value
	}

	return article
}

type ArticleRepository interface {
	Insert(ctx context.Context, article *Article) (err error)
	Find(ctx context.Context, articleID string) (article *Article, err error)
	Increment(ctx context.Context, articleID string, counter Counter) (count int, err error)
}

type ArticleNotFoundError struct {
	ID string
}

func (err ArticleNotFoundError) Error() string {
	return fmt.Sprintf("article with id %q not found", err.ID)
}

type InvalidCounterError struct {
	Counter Counter
}

func (err InvalidCounterError) Error() string {
	return fmt.Sprintf("invalid counter: %q", err.Counter)
}
