package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

// SeedSummary counts the rows written by SeedDemoContent.
type SeedSummary struct {
	Categories int
	Authors    int
	Articles   int
	Products   int
}

var demoCategories = []models.Category{
	{Name: "news", Slug: "news", Description: "Shop announcements"},
	{Name: "tech", Slug: "tech", Description: "Gear and gadgets"},
	{Name: "food", Slug: "food", Description: "Recipes and tastings"},
	{Name: "nature", Slug: "nature", Description: "Outdoors"},
}

var demoAuthors = []models.Author{
	{Name: "David Doe", Email: "daviddoe@example.com"},
	{Name: "Sarah Baker", Email: "sarahbaker@example.com"},
}

var demoProducts = []models.Product{
	{Title: "Trail backpack", Slug: "trail-backpack", Description: "28L pack for day hikes.", Price: 89.9, Category: "outdoor", InStock: true},
	{Title: "Camp stove", Slug: "camp-stove", Description: "Compact gas stove.", Price: 45, Category: "outdoor", InStock: false},
	{Title: "Mechanical keyboard", Slug: "mechanical-keyboard", Description: "Tenkeyless, brown switches.", Price: 120, Category: "tech gear", InStock: true},
	{Title: "USB-C hub", Slug: "usb-c-hub", Description: "Seven ports.", Price: 39.5, Category: "tech gear", InStock: true},
	{Title: "Coffee beans", Slug: "coffee-beans", Description: "Single origin, 500g.", Price: 14.25, Category: "pantry", InStock: true},
}

// demoWeeks holds how many articles to publish per week, counting back
// from the current week. The counts cover each feed template.
var demoWeeks = []int{6, 3, 1, 4, 2, 5}

// SeedDemoContent upserts demo categories, authors, products and articles
// spread over several past weeks. It is idempotent on slugs.
func (s *ContentService) SeedDemoContent(ctx context.Context, now time.Time) (*SeedSummary, error) {
	sum := &SeedSummary{}

	err := s.repomanager.Content().WithTransaction(ctx, func(ctx context.Context) error {
		categories := make([]*models.Category, 0, len(demoCategories))
		for _, c := range demoCategories {
			created, err := s.CreateCategory(ctx, &c)
			if err != nil {
				return err
			}
			categories = append(categories, created)
			sum.Categories++
		}

		authors := make([]*models.Author, 0, len(demoAuthors))
		for _, a := range demoAuthors {
			created, err := s.CreateAuthor(ctx, &a)
			if err != nil {
				return err
			}
			authors = append(authors, created)
			sum.Authors++
		}

		for _, p := range demoProducts {
			if _, err := s.CreateProduct(ctx, &p); err != nil {
				return err
			}
			sum.Products++
		}

		n := 0
		for week, count := range demoWeeks {
			for i := 0; i < count; i++ {
				published := now.AddDate(0, 0, -7*week).Add(-time.Duration(i) * 7 * time.Hour)
				n++
				article := &models.Article{
					Title:       fmt.Sprintf("Story %d", n),
					Description: fmt.Sprintf("Demo story %d of the seeded blog.", n),
					Slug:        fmt.Sprintf("story-%d", n),
					PublishedAt: &published,
					Category:    categories[n%len(categories)],
					Author:      authors[n%len(authors)],
					Blocks: models.Blocks{
						{Component: models.BlockRichText, Body: fmt.Sprintf("## Story %d\n\nSeeded content.", n)},
					},
				}
				if _, err := s.CreateArticle(ctx, article); err != nil {
					return err
				}
				sum.Articles++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "seeding failed", "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "demo content seeded",
		"categories", sum.Categories, "authors", sum.Authors, "articles", sum.Articles, "products", sum.Products)
	return sum, nil
}
