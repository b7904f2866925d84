package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	articleRepo ArticleRepository
}

func NewService(articleRepo ArticleRepository) *Service {
	return &Service{
		articleRepo: articleRepo,
	}
}

type CreateArticleRequest struct {
	Title string
}

func (svc *Service) CreateArticle(ctx context.Context, req CreateArticleRequest) (*Article, error) {
	article := &Article{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		CreatedAt: time.Now(),
	}

	err := svc.articleRepo.Insert(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	return article, nil
}

func (svc *Service) GetArticle(ctx context.Context, articleID string) (*Article, error) {
	article, err := svc.articleRepo.Find(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to find article: %w", err)
	}

	return article, nil
}

// React bumps the article's like or dislike counter and returns its new value.
func (svc *Service) React(ctx context.Context, articleID string, counter Counter) (int, error) {
	if !counter.IsValid() {
		return 0, InvalidCounterError{Counter: counter}
	}

	count, err := svc.articleRepo.Increment(ctx, articleID, counter)
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", counter, err)
	}

	return count, nil
}
