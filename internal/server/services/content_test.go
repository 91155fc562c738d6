package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/events"
	"github.com/dmitrijs2005/storefront/internal/server/events/mocks"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ContentServiceSuite struct {
	suite.Suite

	ctrl      *gomock.Controller
	publisher *mocks.MockPublisher
	rm        *fakeRepoManager
	svc       *ContentService
}

func (s *ContentServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.rm = newFakeRepoManager()
	s.svc = NewContentService(s.rm, s.publisher, testLogger(), testConfig())
}

func TestContentServiceSuite(t *testing.T) {
	suite.Run(t, new(ContentServiceSuite))
}

func (s *ContentServiceSuite) TestResolveLimit() {
	tests := []struct {
		page Page
		want int
	}{
		{Page{}, 10},
		{Page{Limit: 5}, 5},
		{Page{Limit: 50}, 20},
		{Page{PageSize: 50}, 50},
		{Page{PageSize: 500}, 100},
		{Page{Limit: 3, PageSize: 40}, 40},
		{Page{Limit: -1, PageSize: -1}, 10},
	}
	for _, tt := range tests {
		s.Equal(tt.want, s.svc.resolveLimit(tt.page), "%+v", tt.page)
	}
}

func (s *ContentServiceSuite) TestArticlesPassesFilterAndLimit() {
	published := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	s.rm.content.articles = []*models.Article{{ID: 1, Title: "A", PublishedAt: &published}}

	got, err := s.svc.Articles(context.Background(), models.ContentFilter{Category: "tech"}, Page{PageSize: 50})
	s.Require().NoError(err)
	s.Len(got, 1)
	s.Equal(50, s.rm.content.lastLimit)
	s.Equal("tech", s.rm.content.lastFilter.Category)
}

func (s *ContentServiceSuite) TestRepositoryErrorsAreInternal() {
	s.rm.content.err = errors.New("db down")

	_, err := s.svc.Articles(context.Background(), models.ContentFilter{}, Page{})
	s.ErrorIs(err, common.ErrorInternal)
	_, err = s.svc.Products(context.Background(), models.ContentFilter{}, Page{})
	s.ErrorIs(err, common.ErrorInternal)
	_, err = s.svc.Categories(context.Background())
	s.ErrorIs(err, common.ErrorInternal)
}

func (s *ContentServiceSuite) TestCreateArticlePublishesEntryCreate() {
	s.publisher.EXPECT().
		Publish(gomock.Any(), gomock.Cond(func(e events.Event) bool {
			return e.Name == events.EntryCreate && e.Model == "article"
		})).
		Return(nil)

	a, err := s.svc.CreateArticle(context.Background(), &models.Article{Title: "Hello", Slug: "hello"})
	s.Require().NoError(err)
	s.EqualValues(1, a.ID)
	s.NotEmpty(a.DocumentID)
	s.NotNil(a.Blocks)
}

func (s *ContentServiceSuite) TestPublishFailureDoesNotFailCreate() {
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	_, err := s.svc.CreateProduct(context.Background(), &models.Product{Title: "Mug", Slug: "mug", Price: 9})
	s.NoError(err)
}

func (s *ContentServiceSuite) TestCreateValidation() {
	_, err := s.svc.CreateArticle(context.Background(), &models.Article{Title: "No slug"})
	s.ErrorIs(err, common.ErrorValidation)
	_, err = s.svc.CreateProduct(context.Background(), &models.Product{Title: "Mug", Slug: "mug", Price: -1})
	s.ErrorIs(err, common.ErrorValidation)
	_, err = s.svc.CreateAuthor(context.Background(), &models.Author{Name: "Anon"})
	s.ErrorIs(err, common.ErrorValidation)
	_, err = s.svc.CreateCategory(context.Background(), &models.Category{Name: "x"})
	s.ErrorIs(err, common.ErrorValidation)
}

func (s *ContentServiceSuite) TestSeedDemoContent() {
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

	sum, err := s.svc.SeedDemoContent(context.Background(), now)
	s.Require().NoError(err)

	s.Equal(len(demoCategories), sum.Categories)
	s.Equal(len(demoAuthors), sum.Authors)
	s.Equal(len(demoProducts), sum.Products)
	s.Equal(21, sum.Articles)
	s.Equal(1, s.rm.content.txCount)

	for _, a := range s.rm.content.articles {
		s.Require().NotNil(a.PublishedAt)
		s.False(a.PublishedAt.After(now), a.Slug)
		s.NotZero(a.Category.ID)
		s.NotZero(a.Author.ID)
	}
}

func (s *ContentServiceSuite) TestSeedDemoContentRollsBackOnError() {
	s.rm.content.err = errors.New("constraint")

	_, err := s.svc.SeedDemoContent(context.Background(), time.Now())
	s.Error(err)
}
