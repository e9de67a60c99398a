// Package services contains the claim business logic. ClaimService owns the
// write paths (submission, review, sample data); QueryService the read paths.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/claimkeeper/internal/common"
	"github.com/dmitrijs2005/claimkeeper/internal/dbx"
	"github.com/dmitrijs2005/claimkeeper/internal/logging"
	"github.com/dmitrijs2005/claimkeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/claimkeeper/internal/server/config"
	"github.com/dmitrijs2005/claimkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
	"github.com/dmitrijs2005/claimkeeper/internal/server/repositories/repomanager"
)

// Submission states, used in log records.
const (
	stateValidating        = "validating"
	stateCheckingDuplicate = "checking_duplicate"
	stateWriting           = "writing"
	stateCommitted         = "committed"
	stateRolledBack        = "rolled_back"
)

// ClaimService submits and reviews claims.
type ClaimService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	metrics     *metrics.Metrics
	log         logging.Logger
	loc         *time.Location
	maxSize     int64
	now         func() time.Time
}

// NewClaimService constructs a ClaimService. Claim dates are assigned in
// cfg's time zone and uploads are capped at cfg.MaxAttachmentSize.
func NewClaimService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store,
	met *metrics.Metrics, log logging.Logger, cfg *config.Config) (*ClaimService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &ClaimService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		metrics:     met,
		log:         log.With("module", "claims"),
		loc:         loc,
		maxSize:     cfg.MaxAttachmentSize,
		now:         time.Now,
	}, nil
}

// Today is the date a submission made now would get.
func (s *ClaimService) Today() models.Date {
	return models.DateOf(s.now().In(s.loc))
}

// Submit validates req, enforces one claim per employee per day and stores
// the claim with its attachments atomically. Blobs written for a failed
// attempt are deleted again.
//
// Errors keep their kind for validation (common.ErrorValidation), the daily
// limit (common.ErrDuplicateSubmission) and oversized uploads
// (common.ErrPayloadTooLarge); anything else is common.ErrorInternal.
func (s *ClaimService) Submit(ctx context.Context, req *SubmitRequest) (*models.ClaimWithAttachments, error) {
	start := time.Now()
	defer s.metrics.ObserveSubmit(start)

	log := s.log.With("employee_id", req.EmployeeID)

	nc, err := validateSubmit(req, s.maxSize)
	if err != nil {
		return nil, s.reject(ctx, log, stateValidating, err)
	}

	date := s.Today()
	exists, err := s.repomanager.Claims(s.db).HasClaimFor(ctx, nc.EmployeeID, date)
	if err != nil {
		return nil, s.reject(ctx, log, stateCheckingDuplicate, err)
	}
	if exists {
		return nil, s.reject(ctx, log, stateCheckingDuplicate, common.ErrDuplicateSubmission)
	}

	var (
		stored []string
		total  int64
		result *models.ClaimWithAttachments
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		claim, err := s.repomanager.Claims(tx).Insert(ctx, nc, date)
		if err != nil {
			return err
		}

		attRepo := s.repomanager.Attachments(tx)
		views := make([]models.AttachmentView, 0, len(req.Attachments))
		for _, up := range req.Attachments {
			blob, err := s.blobs.Put(ctx, up.FileName, up.Content, up.ContentType)
			if err != nil {
				return err
			}
			stored = append(stored, blob.Ref)

			att, err := attRepo.Insert(ctx, &models.Attachment{
				ClaimID:    claim.ID,
				FileName:   up.FileName,
				StoredName: blob.Ref,
				Size:       blob.Size,
				MimeType:   blob.MimeType,
			})
			if err != nil {
				return err
			}
			views = append(views, attachmentView(s.blobs, att))
			total += blob.Size
		}

		result = &models.ClaimWithAttachments{Claim: *claim, Attachments: views}
		return nil
	})
	if err != nil {
		s.compensate(ctx, log, stored)
		return nil, s.reject(ctx, log, stateWriting, err)
	}

	s.metrics.IncrementSubmitted(total)
	log.Info(ctx, "claim submitted",
		"state", stateCommitted,
		"claim_id", result.ID,
		"date", result.Date.String(),
		"attachments", len(result.Attachments))
	return result, nil
}

// reject classifies err, counts and logs it, and returns what the caller sees.
func (s *ClaimService) reject(ctx context.Context, log logging.Logger, stage string, err error) error {
	err = classify(err)
	reason := failureReason(err)
	s.metrics.IncrementFailure(reason)

	args := []any{"state", stateRolledBack, "stage", stage, "reason", reason, "error", err}
	if reason == metrics.ReasonInternal {
		log.Error(ctx, "claim submission failed", args...)
	} else {
		log.Info(ctx, "claim submission rejected", args...)
	}
	return err
}

// compensate removes blobs stored by a failed attempt. It keeps going on
// errors and never reports them to the caller.
func (s *ClaimService) compensate(ctx context.Context, log logging.Logger, refs []string) {
	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		if err := s.blobs.Delete(ctx, ref); err != nil {
			s.metrics.IncrementCompensation(metrics.CompensationFailed)
			log.Error(ctx, "failed to delete orphaned attachment", "ref", ref, "error", err)
			continue
		}
		s.metrics.IncrementCompensation(metrics.CompensationDeleted)
		log.Debug(ctx, "deleted orphaned attachment", "ref", ref)
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrDuplicateSubmission),
		errors.Is(err, common.ErrPayloadTooLarge),
		errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorInternal):
		return err
	default:
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return metrics.ReasonValidation
	case errors.Is(err, common.ErrDuplicateSubmission):
		return metrics.ReasonDuplicate
	case errors.Is(err, common.ErrPayloadTooLarge):
		return metrics.ReasonTooLarge
	default:
		return metrics.ReasonInternal
	}
}

// Review sets the status and response of a claim. Status must be one of
// pending, approved or rejected.
func (s *ClaimService) Review(ctx context.Context, id int64, status, response string) (*models.ClaimWithAttachments, error) {
	st, err := models.ParseClaimStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}

	claim, err := s.repomanager.Claims(s.db).UpdateStatus(ctx, id, st, response)
	if err != nil {
		return nil, classify(err)
	}

	result, err := withAttachments(ctx, s.repomanager.Attachments(s.db), s.blobs, claim)
	if err != nil {
		return nil, classify(err)
	}

	s.metrics.IncrementReviewed(string(st))
	s.log.Info(ctx, "claim reviewed", "claim_id", id, "status", st)
	return result, nil
}
