package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// CategoryLatest is the blog filter that shows every category.
const CategoryLatest = "Latest"

// BlogPage is one view of the blog: the category tabs, the selected tab
// and the articles under it.
type BlogPage struct {
	Categories  []string
	Selected    string
	Description string
	Articles    []models.Article
}

// Chip is a shop category filter. Value is the raw category; Label is
// what the user sees.
type Chip struct {
	Label string
	Value string
}

type ShopPage struct {
	Categories []Chip
	Selected   string
	Products   []models.Product
}

// ContentService reads blog and shop content. It does not depend on the
// session; every query runs as the public role.
type ContentService struct {
	client client.Client
	logger logging.Logger
}

func NewContentService(c client.Client, logger logging.Logger) *ContentService {
	return &ContentService{client: c, logger: logger}
}

// Blog loads the category tabs and the articles of category. An empty
// category or CategoryLatest selects everything; names match case-insensitively.
func (s *ContentService) Blog(ctx context.Context, category string) (*BlogPage, error) {
	var (
		articles   []models.Article
		categories []models.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		articles, err = s.client.Articles(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.client.Categories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := &BlogPage{Categories: []string{CategoryLatest}, Selected: CategoryLatest}
	for _, c := range categories {
		page.Categories = append(page.Categories, c.Name)
		if category != "" && strings.EqualFold(c.Name, category) {
			page.Selected = c.Name
			page.Description = c.Description
		}
	}
	if category != "" && !strings.EqualFold(category, CategoryLatest) && page.Selected == CategoryLatest {
		s.logger.Debug(ctx, "unknown blog category", "category", category)
		page.Selected = category
		return page, nil
	}

	if page.Selected == CategoryLatest {
		page.Articles = articles
		return page, nil
	}
	for _, a := range articles {
		if a.CategoryName() == page.Selected {
			page.Articles = append(page.Articles, a)
		}
	}
	return page, nil
}

func (s *ContentService) Article(ctx context.Context, slug string) (*models.Article, error) {
	return s.client.ArticleBySlug(ctx, slug)
}

// Shop loads the catalogue. Chips list the distinct product categories in
// catalogue order; category, when set, narrows the products to one of them.
func (s *ContentService) Shop(ctx context.Context, category string) (*ShopPage, error) {
	products, err := s.client.Products(ctx, "")
	if err != nil {
		return nil, err
	}

	title := cases.Title(language.English)
	page := &ShopPage{}
	seen := make(map[string]struct{})
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		page.Categories = append(page.Categories, Chip{Label: title.String(p.Category), Value: p.Category})
		if category != "" && strings.EqualFold(p.Category, category) {
			page.Selected = p.Category
		}
	}

	if category == "" {
		page.Products = products
		return page, nil
	}
	if page.Selected == "" {
		page.Selected = category
		return page, nil
	}
	for _, p := range products {
		if p.Category == page.Selected {
			page.Products = append(page.Products, p)
		}
	}
	return page, nil
}

func (s *ContentService) Product(ctx context.Context, slug string) (*models.Product, error) {
	return s.client.ProductBySlug(ctx, slug)
}

// MediaURL makes a media path returned by the API absolute.
func (s *ContentService) MediaURL(path string) string {
	return s.client.AbsoluteURL(path)
}
