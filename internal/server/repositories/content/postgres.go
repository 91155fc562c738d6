// Package content is the sqlx-backed store for articles, categories,
// authors and products.
package content

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/jmoiron/sqlx"
)

type ctxKey struct{}

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, ctxKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) executor(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(ctxKey{}).(*sqlx.Tx); ok && tx != nil {
		return tx
	}
	return r.db
}

type articleRow struct {
	ID          int64         `db:"id"`
	DocumentID  string        `db:"document_id"`
	Title       string        `db:"title"`
	Description string        `db:"description"`
	Slug        string        `db:"slug"`
	CoverURL    string        `db:"cover_url"`
	DisplaySize string        `db:"display_size"`
	Blocks      models.Blocks `db:"blocks"`
	PublishedAt sql.NullTime  `db:"published_at"`

	CategoryID          sql.NullInt64  `db:"category_id"`
	CategoryDocumentID  sql.NullString `db:"category_document_id"`
	CategoryName        sql.NullString `db:"category_name"`
	CategorySlug        sql.NullString `db:"category_slug"`
	CategoryDescription sql.NullString `db:"category_description"`

	AuthorID        sql.NullInt64  `db:"author_id"`
	AuthorName      sql.NullString `db:"author_name"`
	AuthorEmail     sql.NullString `db:"author_email"`
	AuthorAvatarURL sql.NullString `db:"author_avatar_url"`
}

func (row articleRow) model() *models.Article {
	a := &models.Article{
		ID:          row.ID,
		DocumentID:  row.DocumentID,
		Title:       row.Title,
		Description: row.Description,
		Slug:        row.Slug,
		CoverURL:    row.CoverURL,
		DisplaySize: row.DisplaySize,
		Blocks:      row.Blocks,
	}
	if a.Blocks == nil {
		a.Blocks = models.Blocks{}
	}
	if row.PublishedAt.Valid {
		t := row.PublishedAt.Time
		a.PublishedAt = &t
	}
	if row.CategoryID.Valid {
		a.Category = &models.Category{
			ID:          row.CategoryID.Int64,
			DocumentID:  row.CategoryDocumentID.String,
			Name:        row.CategoryName.String,
			Slug:        row.CategorySlug.String,
			Description: row.CategoryDescription.String,
		}
	}
	if row.AuthorID.Valid {
		a.Author = &models.Author{
			ID:        row.AuthorID.Int64,
			Name:      row.AuthorName.String,
			Email:     row.AuthorEmail.String,
			AvatarURL: row.AuthorAvatarURL.String,
		}
	}
	return a
}

// Articles returns published articles, newest first.
func (r *PostgresRepository) Articles(ctx context.Context, filter models.ContentFilter, limit int) ([]*models.Article, error) {
	query := `
		SELECT a.id, a.document_id, a.title, a.description, a.slug, a.cover_url, a.display_size, a.blocks, a.published_at,
		       c.id AS category_id, c.document_id AS category_document_id, c.name AS category_name,
		       c.slug AS category_slug, c.description AS category_description,
		       au.id AS author_id, au.name AS author_name, au.email AS author_email, au.avatar_url AS author_avatar_url
		FROM articles a
		LEFT JOIN categories c ON c.id = a.category_id
		LEFT JOIN authors au ON au.id = a.author_id
		WHERE a.published_at IS NOT NULL
		  AND ($1 = '' OR a.slug = $1)
		  AND ($2 = '' OR c.name = $2)
		ORDER BY a.published_at DESC, a.id DESC
		LIMIT $3
	`
	var rows []articleRow
	if err := sqlx.SelectContext(ctx, r.executor(ctx), &rows, query, filter.Slug, filter.Category, limit); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	out := make([]*models.Article, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *PostgresRepository) Categories(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT id, document_id, name, slug, description FROM categories ORDER BY name`

	var out []*models.Category
	if err := sqlx.SelectContext(ctx, r.executor(ctx), &out, query); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Products(ctx context.Context, filter models.ContentFilter, limit int) ([]*models.Product, error) {
	query := `
		SELECT id, document_id, title, description, slug, price, category, in_stock, image_url
		FROM products
		WHERE ($1 = '' OR slug = $1)
		  AND ($2 = '' OR lower(category) = lower($2))
		ORDER BY id
		LIMIT $3
	`
	var out []*models.Product
	if err := sqlx.SelectContext(ctx, r.executor(ctx), &out, query, filter.Slug, filter.Category, limit); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) returningID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := r.executor(ctx).QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) UpsertCategory(ctx context.Context, c *models.Category) (int64, error) {
	query := `
		INSERT INTO categories (document_id, name, slug, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description
		RETURNING id
	`
	return r.returningID(ctx, query, c.DocumentID, c.Name, c.Slug, c.Description)
}

func (r *PostgresRepository) UpsertAuthor(ctx context.Context, a *models.Author) (int64, error) {
	query := `
		INSERT INTO authors (name, email, avatar_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, avatar_url = EXCLUDED.avatar_url
		RETURNING id
	`
	return r.returningID(ctx, query, a.Name, a.Email, a.AvatarURL)
}

func (r *PostgresRepository) UpsertArticle(ctx context.Context, a *models.Article) (int64, error) {
	var categoryID, authorID sql.NullInt64
	if a.Category != nil {
		categoryID = sql.NullInt64{Int64: a.Category.ID, Valid: true}
	}
	if a.Author != nil {
		authorID = sql.NullInt64{Int64: a.Author.ID, Valid: true}
	}
	var publishedAt sql.NullTime
	if a.PublishedAt != nil {
		publishedAt = sql.NullTime{Time: *a.PublishedAt, Valid: true}
	}

	query := `
		INSERT INTO articles (document_id, title, description, slug, cover_url, display_size, blocks, category_id, author_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			cover_url = EXCLUDED.cover_url,
			display_size = EXCLUDED.display_size,
			blocks = EXCLUDED.blocks,
			category_id = EXCLUDED.category_id,
			author_id = EXCLUDED.author_id,
			published_at = EXCLUDED.published_at
		RETURNING id
	`
	return r.returningID(ctx, query, a.DocumentID, a.Title, a.Description, a.Slug, a.CoverURL, a.DisplaySize,
		a.Blocks, categoryID, authorID, publishedAt)
}

func (r *PostgresRepository) UpsertProduct(ctx context.Context, p *models.Product) (int64, error) {
	query := `
		INSERT INTO products (document_id, title, description, slug, price, category, in_stock, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			in_stock = EXCLUDED.in_stock,
			image_url = EXCLUDED.image_url
		RETURNING id
	`
	return r.returningID(ctx, query, p.DocumentID, p.Title, p.Description, p.Slug, p.Price, p.Category, p.InStock, p.ImageURL)
}
