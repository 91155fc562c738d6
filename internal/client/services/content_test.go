package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
)

type ContentServiceSuite struct {
	suite.Suite
	fc  *fakeClient
	svc *ContentService
	ctx context.Context
}

func (s *ContentServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.fc = &fakeClient{
		categories: []models.Category{
			{Name: "news", Description: "What happened"},
			{Name: "tech", Description: "Gadgets"},
		},
		articles: []models.Article{
			{Slug: "a", Category: &models.Category{Name: "news"}},
			{Slug: "b", Category: &models.Category{Name: "tech"}},
			{Slug: "c"},
			{Slug: "d", Category: &models.Category{Name: "news"}},
		},
		products: []models.Product{
			{Slug: "tent", Category: "outdoor"},
			{Slug: "drone", Category: "tech gear"},
			{Slug: "lamp", Category: "outdoor"},
			{Slug: "mystery"},
		},
	}
	s.svc = NewContentService(s.fc, testLogger())
}

func TestContentServiceSuite(t *testing.T) {
	suite.Run(t, new(ContentServiceSuite))
}

func slugsOf(articles []models.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Slug)
	}
	return out
}

func productSlugs(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Slug)
	}
	return out
}

func (s *ContentServiceSuite) TestBlog_LatestShowsEverything() {
	for _, category := range []string{"", "Latest", "latest"} {
		page, err := s.svc.Blog(s.ctx, category)
		s.Require().NoError(err)
		s.Equal([]string{"Latest", "news", "tech"}, page.Categories)
		s.Equal(CategoryLatest, page.Selected)
		s.Empty(page.Description)
		s.Equal([]string{"a", "b", "c", "d"}, slugsOf(page.Articles))
	}
}

func (s *ContentServiceSuite) TestBlog_CategoryFilter() {
	page, err := s.svc.Blog(s.ctx, "NEWS")
	s.Require().NoError(err)
	s.Equal("news", page.Selected)
	s.Equal("What happened", page.Description)
	s.Equal([]string{"a", "d"}, slugsOf(page.Articles))
}

func (s *ContentServiceSuite) TestBlog_UnknownCategory() {
	page, err := s.svc.Blog(s.ctx, "sports")
	s.Require().NoError(err)
	s.Equal("sports", page.Selected)
	s.Empty(page.Articles)
}

func (s *ContentServiceSuite) TestBlog_Error() {
	s.fc.contentErr = &client.APIError{Kind: client.ErrNetwork, Message: "network error"}
	_, err := s.svc.Blog(s.ctx, "")
	s.ErrorIs(err, client.ErrNetwork)
}

func (s *ContentServiceSuite) TestShop_ChipsAreTitleCasedInCatalogueOrder() {
	page, err := s.svc.Shop(s.ctx, "")
	s.Require().NoError(err)
	s.Equal([]Chip{
		{Label: "Outdoor", Value: "outdoor"},
		{Label: "Tech Gear", Value: "tech gear"},
	}, page.Categories)
	s.Empty(page.Selected)
	s.Len(page.Products, 4)
}

func (s *ContentServiceSuite) TestShop_CategoryFilter() {
	page, err := s.svc.Shop(s.ctx, "Outdoor")
	s.Require().NoError(err)
	s.Equal("outdoor", page.Selected)
	s.Equal([]string{"tent", "lamp"}, productSlugs(page.Products))

	page, err = s.svc.Shop(s.ctx, "toys")
	s.Require().NoError(err)
	s.Empty(page.Products)
}

func (s *ContentServiceSuite) TestDetailLookups() {
	a, err := s.svc.Article(s.ctx, "b")
	s.Require().NoError(err)
	s.Equal("tech", a.CategoryName())

	_, err = s.svc.Product(s.ctx, "nope")
	s.ErrorIs(err, client.ErrNotFound)

	s.Equal("http://cms.test/u/1.png", s.svc.MediaURL("/u/1.png"))
}

func TestContentService_ShopError(t *testing.T) {
	fc := &fakeClient{contentErr: errors.New("boom")}
	_, err := NewContentService(fc, testLogger()).Shop(context.Background(), "")
	require.Error(t, err)
	assert.EqualError(t, err, "boom")
}
