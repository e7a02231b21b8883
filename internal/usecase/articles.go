package usecase

import (
	"context"
	"fmt"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// Articles serves read access to published articles.
type Articles struct {
	repo ports.ArticleRepository
}

// NewArticles wires the article repository.
func NewArticles(repo ports.ArticleRepository) *Articles {
	return &Articles{repo: repo}
}

// List returns every article, newest first.
func (a *Articles) List(ctx context.Context, caller domain.Principal) ([]domain.Article, error) {
	if !caller.Role.Can(domain.PermReadArticles) {
		return nil, domain.ErrForbidden
	}
	articles, err := a.repo.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// Get returns a single article or domain.ErrArticleNotFound.
func (a *Articles) Get(ctx context.Context, caller domain.Principal, id int64) (domain.Article, error) {
	if !caller.Role.Can(domain.PermReadArticles) {
		return domain.Article{}, domain.ErrForbidden
	}
	article, err := a.repo.ArticleByID(ctx, id)
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	return article, nil
}
