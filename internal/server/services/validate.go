package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/claimkeeper/internal/common"
	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
	"github.com/shopspring/decimal"
)

// SubmitRequest is a claim submission as received from a client. Amount is
// kept as text so that parsing errors are reported as validation failures.
type SubmitRequest struct {
	EmployeeID   string
	EmployeeName string
	Title        string
	Amount       string
	Category     string
	Description  string
	Attachments  []models.Upload
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

// ValidateEmployeeID returns common.ErrorValidation for malformed ids.
func ValidateEmployeeID(id string) error {
	if !models.ValidEmployeeID(id) {
		return validationError("invalid employee id %q", id)
	}
	return nil
}

// validateSubmit checks the request fields and declared upload sizes and
// returns the normalized claim. Nothing is read from the uploads.
func validateSubmit(req *SubmitRequest, maxSize int64) (*models.NewClaim, error) {
	nc := &models.NewClaim{
		EmployeeID:   strings.TrimSpace(req.EmployeeID),
		EmployeeName: strings.TrimSpace(req.EmployeeName),
		Title:        strings.TrimSpace(req.Title),
		Category:     strings.TrimSpace(req.Category),
		Description:  strings.TrimSpace(req.Description),
	}
	amount := strings.TrimSpace(req.Amount)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"employee_id", nc.EmployeeID},
		{"employee_name", nc.EmployeeName},
		{"title", nc.Title},
		{"amount", amount},
		{"category", nc.Category},
		{"description", nc.Description},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, validationError("missing required fields: %s", strings.Join(missing, ", "))
	}

	if err := ValidateEmployeeID(nc.EmployeeID); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"employee_name", nc.EmployeeName, models.MaxEmployeeNameLen},
		{"title", nc.Title, models.MaxTitleLen},
		{"category", nc.Category, models.MaxCategoryLen},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			return nil, validationError("%s must be at most %d characters", f.name, f.max)
		}
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, validationError("amount %q is not a number", amount)
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return nil, validationError("amount must be positive")
	}
	if d.GreaterThanOrEqual(models.MaxAmount) {
		return nil, validationError("amount must be less than %s", models.MaxAmount)
	}
	nc.Amount = d

	for i, up := range req.Attachments {
		if up.Content == nil {
			return nil, validationError("attachment %d has no content", i)
		}
		if up.Size > maxSize {
			return nil, fmt.Errorf("%w: %q is %d bytes, limit is %d", common.ErrPayloadTooLarge, up.FileName, up.Size, maxSize)
		}
	}

	return nc, nil
}
