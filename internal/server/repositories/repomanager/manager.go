package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/claimkeeper/internal/dbx"
	"github.com/dmitrijs2005/claimkeeper/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/claimkeeper/internal/server/repositories/claims"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can get
// the same repositories on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Claims(db dbx.DBTX) claims.Repository
	Attachments(db dbx.DBTX) attachments.Repository
}
