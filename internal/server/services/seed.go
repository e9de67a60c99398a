package services

import (
	"context"

	"github.com/dmitrijs2005/claimkeeper/internal/dbx"
	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
	"github.com/shopspring/decimal"
)

type sampleClaim struct {
	employeeID, employeeName, title, date, amount, category, description string
	status                                                                models.ClaimStatus
	response                                                              string
}

var sampleClaims = []sampleClaim{
	{"ATS0123", "Veera", "Travel Expense Reimbursement", "2024-05-15", "37500.50", "Travel",
		"Expenses for client meeting in Mumbai including flight, hotel, and meals.", models.StatusPending, ""},
	{"ATS0456", "Raghava", "Office Supplies Purchase", "2024-05-10", "10450.30", "Office Supplies",
		"Purchased notebooks, pens, and printer paper for the marketing department.", models.StatusApproved,
		"Approved. Reimbursement will be processed in the next payroll cycle."},
	{"ATS0124", "Pavan", "Training Course Fee", "2024-05-05", "62500.00", "Training",
		"Fee for Advanced Project Management certification course.", models.StatusRejected,
		"Rejected. This training was not pre-approved by your department manager."},
	{"ATS0789", "Priya Sharma", "Laptop Purchase", "2024-05-18", "85000.00", "Equipment",
		"New MacBook Pro for design team member", models.StatusPending, ""},
	{"ATS0345", "Rahul Patel", "Medical Checkup", "2024-05-12", "5000.00", "Medical",
		"Annual health checkup at Apollo Hospital", models.StatusApproved, "Approved as per company health policy"},
}

func (c sampleClaim) toClaim() (*models.Claim, error) {
	date, err := models.ParseDate(c.date)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return nil, err
	}
	return &models.Claim{
		EmployeeID:   c.employeeID,
		EmployeeName: c.employeeName,
		Title:        c.title,
		Date:         date,
		Amount:       amount,
		Category:     c.category,
		Description:  c.description,
		Status:       c.status,
		Response:     c.response,
	}, nil
}

// SeedSamples inserts the demo claims if the claims table is empty and
// returns how many rows were added.
func (s *ClaimService) SeedSamples(ctx context.Context) (int, error) {
	inserted := 0
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Claims(tx)

		n, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		for _, sc := range sampleClaims {
			c, err := sc.toClaim()
			if err != nil {
				return err
			}
			if _, err := repo.InsertRecord(ctx, c); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, classify(err)
	}

	if inserted > 0 {
		s.log.Info(ctx, "sample claims inserted", "count", inserted)
	}
	return inserted, nil
}
