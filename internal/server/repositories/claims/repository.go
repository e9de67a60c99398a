// Package claims persists claim rows in PostgreSQL.
package claims

import (
	"context"

	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
)

// Repository describes the claim operations used by the services. All
// methods run against whatever dbx.DBTX the repository was built with, so
// they take part in a transaction when bound to one.
type Repository interface {
	// HasClaimFor reports whether employeeID already has a claim dated date.
	HasClaimFor(ctx context.Context, employeeID string, date models.Date) (bool, error)

	// Insert stores a new pending claim with an empty response. It returns
	// common.ErrDuplicateSubmission when the (employee, date) pair is taken.
	Insert(ctx context.Context, c *models.NewClaim, date models.Date) (*models.Claim, error)

	// InsertRecord stores a complete claim including status and response.
	InsertRecord(ctx context.Context, c *models.Claim) (*models.Claim, error)

	// GetByID returns common.ErrorNotFound for unknown ids.
	GetByID(ctx context.Context, id int64) (*models.Claim, error)

	// List returns claims newest date first; an empty employeeID lists all.
	List(ctx context.Context, employeeID string) ([]*models.Claim, error)

	// UpdateStatus overwrites status and response; common.ErrorNotFound for unknown ids.
	UpdateStatus(ctx context.Context, id int64, status models.ClaimStatus, response string) (*models.Claim, error)

	Count(ctx context.Context) (int64, error)

	// CountByStatus groups all claims by status.
	CountByStatus(ctx context.Context) (map[models.ClaimStatus]int64, error)
}
