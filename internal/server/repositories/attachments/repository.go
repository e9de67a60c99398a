// Package attachments persists attachment metadata rows. The file content
// itself is owned by the blob store.
package attachments

import (
	"context"

	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
)

type Repository interface {
	// Insert stores the metadata row and fills in the generated ID.
	Insert(ctx context.Context, a *models.Attachment) (*models.Attachment, error)

	// ListByClaim returns the claim's attachments in insertion order.
	ListByClaim(ctx context.Context, claimID int64) ([]*models.Attachment, error)
}
