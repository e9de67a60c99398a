package attachments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/claimkeeper/internal/dbx"
	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, a *models.Attachment) (*models.Attachment, error) {
	query :=
		`INSERT INTO claim_attachments (claim_id, file_name, file_path, file_size, mime_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query, a.ClaimID, a.FileName, a.StoredName, a.Size, a.MimeType).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByClaim(ctx context.Context, claimID int64) ([]*models.Attachment, error) {
	query :=
		`SELECT id, claim_id, file_name, file_path, file_size, mime_type FROM claim_attachments
		 WHERE claim_id = $1
		 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to select attachments: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Attachment, 0)
	for rows.Next() {
		a := &models.Attachment{}
		if err := rows.Scan(&a.ID, &a.ClaimID, &a.FileName, &a.StoredName, &a.Size, &a.MimeType); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
