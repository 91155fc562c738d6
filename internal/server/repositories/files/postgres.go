// Package files stores metadata of uploaded media.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.UploadFile) (*models.UploadFile, error) {
	query := `
		INSERT INTO upload_files (document_id, name, alternative_text, caption, hash, ext, mime, size_kb, url, provider, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, 0))
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		f.DocumentID, f.Name, f.AlternativeText, f.Caption, f.Hash, f.Ext, f.Mime, f.Size, f.URL, f.Provider, f.CreatedBy,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.UploadFile, error) {
	query := `
		SELECT id, document_id, name, alternative_text, caption, hash, ext, mime, size_kb, url, provider, created_by, created_at
		FROM upload_files WHERE id = $1
	`
	f := &models.UploadFile{}
	var createdBy sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&f.ID, &f.DocumentID, &f.Name, &f.AlternativeText, &f.Caption,
		&f.Hash, &f.Ext, &f.Mime, &f.Size, &f.URL, &f.Provider, &createdBy, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	f.CreatedBy = createdBy.Int64
	return f, nil
}
