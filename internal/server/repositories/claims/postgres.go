package claims

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/claimkeeper/internal/common"
	"github.com/dmitrijs2005/claimkeeper/internal/dbx"
	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
)

const claimColumns = `id, employee_id, employee_name, title, date, amount, category, description,
	COALESCE(status, 'pending'), COALESCE(response, '')`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(row scanner) (*models.Claim, error) {
	c := &models.Claim{}
	err := row.Scan(&c.ID, &c.EmployeeID, &c.EmployeeName, &c.Title, &c.Date, &c.Amount,
		&c.Category, &c.Description, &c.Status, &c.Response)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) HasClaimFor(ctx context.Context, employeeID string, date models.Date) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM claims WHERE employee_id = $1 AND date = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, employeeID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, c *models.NewClaim, date models.Date) (*models.Claim, error) {
	query :=
		`INSERT INTO claims (employee_id, employee_name, title, date, amount, category, description, status, response)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', '')
		 RETURNING ` + claimColumns

	claim, err := scanClaim(r.db.QueryRowContext(ctx, query,
		c.EmployeeID, c.EmployeeName, c.Title, date, c.Amount, c.Category, c.Description))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return claim, nil
}

func (r *PostgresRepository) InsertRecord(ctx context.Context, c *models.Claim) (*models.Claim, error) {
	query :=
		`INSERT INTO claims (employee_id, employee_name, title, date, amount, category, description, status, response)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING ` + claimColumns

	claim, err := scanClaim(r.db.QueryRowContext(ctx, query,
		c.EmployeeID, c.EmployeeName, c.Title, c.Date, c.Amount, c.Category, c.Description, string(c.Status), c.Response))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return claim, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`

	claim, err := scanClaim(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return claim, nil
}

func (r *PostgresRepository) List(ctx context.Context, employeeID string) ([]*models.Claim, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if employeeID == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+claimColumns+` FROM claims ORDER BY date DESC, id ASC`)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+claimColumns+` FROM claims WHERE employee_id = $1 ORDER BY date DESC, id ASC`, employeeID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select claims: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status models.ClaimStatus, response string) (*models.Claim, error) {
	query :=
		`UPDATE claims SET status = $1, response = $2
		 WHERE id = $3
		 RETURNING ` + claimColumns

	claim, err := scanClaim(r.db.QueryRowContext(ctx, query, string(status), response, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return claim, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM claims`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountByStatus(ctx context.Context) (map[models.ClaimStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT COALESCE(status, 'pending'), COUNT(*) FROM claims GROUP BY 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to count claims: %w", err)
	}
	defer rows.Close()

	result := make(map[models.ClaimStatus]int64)
	for rows.Next() {
		var (
			status models.ClaimStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		result[status] += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
