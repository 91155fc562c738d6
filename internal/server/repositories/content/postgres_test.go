package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var articleCols = []string{"id", "document_id", "title", "description", "slug", "cover_url", "display_size", "blocks", "published_at",
	"category_id", "category_document_id", "category_name", "category_slug", "category_description",
	"author_id", "author_name", "author_email", "author_avatar_url"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestArticles_MapsJoins(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	published := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(articleCols).
		AddRow(int64(1), "a1", "Hello", "desc", "hello", "/uploads/c.png", "large",
			[]byte(`[{"__component":"shared.rich-text","body":"# Hi"}]`), published,
			int64(5), "c5", "news", "news", "All the news", int64(9), "Ann", "ann@example.com", "/uploads/ann.png").
		AddRow(int64(2), "a2", "Bare", "", "bare", "", "", []byte(`[]`), published,
			nil, nil, nil, nil, nil, nil, nil, nil, nil)

	mock.ExpectQuery(`FROM articles a LEFT JOIN categories c`).
		WithArgs("", "news", 10).
		WillReturnRows(rows)

	got, err := repo.Articles(context.Background(), models.ContentFilter{Category: "news"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "Hello", first.Title)
	require.NotNil(t, first.PublishedAt)
	assert.True(t, published.Equal(*first.PublishedAt))
	require.NotNil(t, first.Category)
	assert.Equal(t, "news", first.Category.Name)
	require.NotNil(t, first.Author)
	assert.Equal(t, "Ann", first.Author.Name)
	require.Len(t, first.Blocks, 1)
	assert.Equal(t, models.BlockRichText, first.Blocks[0].Component)

	second := got[1]
	assert.Nil(t, second.Category)
	assert.Nil(t, second.Author)
	assert.NotNil(t, second.Blocks)
}

func TestArticles_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM articles`).WillReturnError(errors.New("boom"))

	_, err := repo.Articles(context.Background(), models.ContentFilter{}, 10)
	assert.ErrorContains(t, err, "db error")
}

func TestCategories(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT id, document_id, name, slug, description FROM categories ORDER BY name`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "name", "slug", "description"}).
			AddRow(int64(1), "c1", "food", "food", "Eat").
			AddRow(int64(2), "c2", "tech", "tech", "Build"))

	got, err := repo.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "tech", got[1].Name)
}

func TestProducts(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM products WHERE`).
		WithArgs("mug", "", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "title", "description", "slug", "price", "category", "in_stock", "image_url"}).
			AddRow(int64(3), "p3", "Mug", "Ceramic", "mug", 12.5, "kitchen", true, "/uploads/mug.png"))

	got, err := repo.Products(context.Background(), models.ContentFilter{Slug: "mug"}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 12.5, got[0].Price)
	assert.True(t, got[0].InStock)
}

func TestUpsertCategory(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^INSERT INTO categories .* ON CONFLICT \(slug\) DO UPDATE`).
		WithArgs("c1", "news", "news", "d").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))

	id, err := repo.UpsertCategory(context.Background(), &models.Category{DocumentID: "c1", Name: "news", Slug: "news", Description: "d"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, id)
}

func TestUpsertArticle_NullRelations(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^INSERT INTO articles`).
		WithArgs("a1", "T", "", "t", "", "", sqlmock.AnyArg(), nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

	id, err := repo.UpsertArticle(context.Background(), &models.Article{DocumentID: "a1", Title: "T", Slug: "t"})
	require.NoError(t, err)
	assert.EqualValues(t, 8, id)
}

func TestWithTransaction(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`^INSERT INTO authors`).
		WithArgs("Ann", "ann@example.com", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	err := repo.WithTransaction(context.Background(), func(ctx context.Context) error {
		_, err := repo.UpsertAuthor(ctx, &models.Author{Name: "Ann", Email: "ann@example.com"})
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_Rollback(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := repo.WithTransaction(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
