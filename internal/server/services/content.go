package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/events"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Page selects how many rows a collection query returns. Limit is the
// GraphQL "limit" argument; PageSize is "pagination.pageSize".
type Page struct {
	Limit    int
	PageSize int
}

type ContentService struct {
	repomanager  repomanager.RepositoryManager
	publisher    events.Publisher
	logger       logging.Logger
	defaultLimit int
	maxLimit     int
	amountLimit  int
}

func NewContentService(m repomanager.RepositoryManager, publisher events.Publisher, logger logging.Logger, cfg *config.Config) *ContentService {
	return &ContentService{
		repomanager:  m,
		publisher:    publisher,
		logger:       logger,
		defaultLimit: cfg.GraphQLDefaultLimit,
		maxLimit:     cfg.GraphQLMaxLimit,
		amountLimit:  cfg.GraphQLAmountLimit,
	}
}

// resolveLimit applies the configured defaults: an explicit pageSize may go
// up to amountLimit, a plain limit up to maxLimit.
func (s *ContentService) resolveLimit(p Page) int {
	switch {
	case p.PageSize > 0:
		return min(p.PageSize, s.amountLimit)
	case p.Limit > 0:
		return min(p.Limit, s.maxLimit)
	default:
		return s.defaultLimit
	}
}

// Articles returns published articles, most recent first.
func (s *ContentService) Articles(ctx context.Context, filter models.ContentFilter, page Page) ([]*models.Article, error) {
	articles, err := s.repomanager.Content().Articles(ctx, filter, s.resolveLimit(page))
	if err != nil {
		s.logger.Error(ctx, "listing articles failed", "error", err)
		return nil, common.ErrorInternal
	}
	return articles, nil
}

func (s *ContentService) Categories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repomanager.Content().Categories(ctx)
	if err != nil {
		s.logger.Error(ctx, "listing categories failed", "error", err)
		return nil, common.ErrorInternal
	}
	return categories, nil
}

func (s *ContentService) Products(ctx context.Context, filter models.ContentFilter, page Page) ([]*models.Product, error) {
	products, err := s.repomanager.Content().Products(ctx, filter, s.resolveLimit(page))
	if err != nil {
		s.logger.Error(ctx, "listing products failed", "error", err)
		return nil, common.ErrorInternal
	}
	return products, nil
}

func requireSlug(kind, title, slug string) error {
	if strings.TrimSpace(title) == "" {
		return common.NewError(common.ErrorValidation, kind+" title is required")
	}
	if strings.TrimSpace(slug) == "" {
		return common.NewError(common.ErrorValidation, kind+" slug is required")
	}
	return nil
}

// CreateCategory inserts or updates a category by slug.
func (s *ContentService) CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	if err := requireSlug("category", c.Name, c.Slug); err != nil {
		return nil, err
	}
	if c.DocumentID == "" {
		c.DocumentID = uuid.NewString()
	}
	id, err := s.repomanager.Content().UpsertCategory(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("upsert category %s: %w", c.Slug, err)
	}
	c.ID = id
	s.publish(ctx, "category", c)
	return c, nil
}

func (s *ContentService) CreateAuthor(ctx context.Context, a *models.Author) (*models.Author, error) {
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Email) == "" {
		return nil, common.NewError(common.ErrorValidation, "author name and email are required")
	}
	id, err := s.repomanager.Content().UpsertAuthor(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("upsert author %s: %w", a.Email, err)
	}
	a.ID = id
	s.publish(ctx, "author", a)
	return a, nil
}

// CreateArticle inserts or updates an article by slug. Category and
// Author, when set, must already carry their ids.
func (s *ContentService) CreateArticle(ctx context.Context, a *models.Article) (*models.Article, error) {
	if err := requireSlug("article", a.Title, a.Slug); err != nil {
		return nil, err
	}
	if a.DocumentID == "" {
		a.DocumentID = uuid.NewString()
	}
	if a.Blocks == nil {
		a.Blocks = models.Blocks{}
	}
	id, err := s.repomanager.Content().UpsertArticle(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("upsert article %s: %w", a.Slug, err)
	}
	a.ID = id
	s.publish(ctx, "article", a)
	return a, nil
}

func (s *ContentService) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if err := requireSlug("product", p.Title, p.Slug); err != nil {
		return nil, err
	}
	if p.Price < 0 {
		return nil, common.NewError(common.ErrorValidation, "product price must not be negative")
	}
	if p.DocumentID == "" {
		p.DocumentID = uuid.NewString()
	}
	id, err := s.repomanager.Content().UpsertProduct(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("upsert product %s: %w", p.Slug, err)
	}
	p.ID = id
	s.publish(ctx, "product", p)
	return p, nil
}

func (s *ContentService) publish(ctx context.Context, model string, entry any) {
	if err := s.publisher.Publish(ctx, events.New(events.EntryCreate, model, entry)); err != nil {
		s.logger.Warn(ctx, "event publish failed", "event", events.EntryCreate, "model", model, "error", err)
	}
}
