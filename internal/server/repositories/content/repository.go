package content

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type Repository interface {
	Articles(ctx context.Context, filter models.ContentFilter, limit int) ([]*models.Article, error)
	Categories(ctx context.Context) ([]*models.Category, error)
	Products(ctx context.Context, filter models.ContentFilter, limit int) ([]*models.Product, error)

	UpsertCategory(ctx context.Context, c *models.Category) (int64, error)
	UpsertAuthor(ctx context.Context, a *models.Author) (int64, error)
	UpsertArticle(ctx context.Context, a *models.Article) (int64, error)
	UpsertProduct(ctx context.Context, p *models.Product) (int64, error)

	// WithTransaction runs fn in a transaction; repository calls made with
	// the ctx passed to fn join it.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
