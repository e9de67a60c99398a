package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/claimkeeper/internal/logging"
	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
	"github.com/dmitrijs2005/claimkeeper/internal/server/repositories/repomanager"
)

// Stats counts claims by review status.
type Stats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// QueryService serves the read side: claims with resolved attachment URLs,
// newest date first.
type QueryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	urls        URLResolver
	log         logging.Logger
}

func NewQueryService(db *sql.DB, m repomanager.RepositoryManager, urls URLResolver, log logging.Logger) *QueryService {
	return &QueryService{
		db:          db,
		repomanager: m,
		urls:        urls,
		log:         log.With("module", "query"),
	}
}

func (s *QueryService) GetAll(ctx context.Context) ([]*models.ClaimWithAttachments, error) {
	return s.list(ctx, "")
}

// GetByID returns common.ErrorNotFound for unknown ids.
func (s *QueryService) GetByID(ctx context.Context, id int64) (*models.ClaimWithAttachments, error) {
	claim, err := s.repomanager.Claims(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	result, err := withAttachments(ctx, s.repomanager.Attachments(s.db), s.urls, claim)
	if err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// GetByEmployee validates the id format before touching the database.
func (s *QueryService) GetByEmployee(ctx context.Context, employeeID string) ([]*models.ClaimWithAttachments, error) {
	if err := ValidateEmployeeID(employeeID); err != nil {
		return nil, err
	}
	return s.list(ctx, employeeID)
}

func (s *QueryService) list(ctx context.Context, employeeID string) ([]*models.ClaimWithAttachments, error) {
	claims, err := s.repomanager.Claims(s.db).List(ctx, employeeID)
	if err != nil {
		s.log.Error(ctx, "failed to list claims", "employee_id", employeeID, "error", err)
		return nil, classify(err)
	}

	attRepo := s.repomanager.Attachments(s.db)
	result := make([]*models.ClaimWithAttachments, 0, len(claims))
	for _, c := range claims {
		cwa, err := withAttachments(ctx, attRepo, s.urls, c)
		if err != nil {
			s.log.Error(ctx, "failed to load attachments", "claim_id", c.ID, "error", err)
			return nil, classify(err)
		}
		result = append(result, cwa)
	}
	return result, nil
}

func (s *QueryService) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repomanager.Claims(s.db).CountByStatus(ctx)
	if err != nil {
		return nil, classify(err)
	}
	st := &Stats{
		Pending:  counts[models.StatusPending],
		Approved: counts[models.StatusApproved],
		Rejected: counts[models.StatusRejected],
	}
	for _, n := range counts {
		st.Total += n
	}
	return st, nil
}
