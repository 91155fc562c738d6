package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/content"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/files"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/permissions"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	Permissions(db dbx.DBTX) permissions.Repository
	Files(db dbx.DBTX) files.Repository
	Content() content.Repository
}
