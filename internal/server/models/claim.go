// Package models defines the claim and attachment records persisted by the
// repositories and returned by the services.
package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ClaimStatus is the review state of a claim.
type ClaimStatus string

const (
	StatusPending  ClaimStatus = "pending"
	StatusApproved ClaimStatus = "approved"
	StatusRejected ClaimStatus = "rejected"
)

// ParseClaimStatus accepts the three known statuses, case-insensitively.
func ParseClaimStatus(s string) (ClaimStatus, error) {
	switch st := ClaimStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown claim status %q", s)
	}
}

// Column limits of the claims table.
const (
	MaxEmployeeNameLen = 30
	MaxTitleLen        = 30
	MaxCategoryLen     = 50
)

// MaxAmount is the first value that no longer fits NUMERIC(10, 2).
var MaxAmount = decimal.NewFromInt(100_000_000)

var employeeIDRx = regexp.MustCompile(`^ATS0\d{3}$`)

// ValidEmployeeID reports whether id is "ATS0" followed by three digits,
// other than the reserved ATS0000.
func ValidEmployeeID(id string) bool {
	return employeeIDRx.MatchString(id) && id != "ATS0000"
}

// Claim is one reimbursement request as stored in the claims table.
type Claim struct {
	ID           int64           `json:"id"`
	EmployeeID   string          `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	Title        string          `json:"title"`
	Date         Date            `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Status       ClaimStatus     `json:"status"`
	Response     string          `json:"response"`
}

// NewClaim carries the validated, client-supplied fields of a submission.
// Date, status and response are assigned by the server.
type NewClaim struct {
	EmployeeID   string
	EmployeeName string
	Title        string
	Amount       decimal.Decimal
	Category     string
	Description  string
}

// ClaimWithAttachments is the read model returned to callers.
type ClaimWithAttachments struct {
	Claim
	Attachments []AttachmentView `json:"attachments"`
}

// claimAlias drops Claim's methods so it can be embedded without recursion.
type claimAlias Claim

// MarshalJSON renders the amount with exactly two decimals, as NUMERIC(10, 2)
// does.
func (c Claim) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		claimAlias
		Amount string `json:"amount"`
	}{claimAlias(c), c.Amount.StringFixed(2)})
}

func (c ClaimWithAttachments) MarshalJSON() ([]byte, error) {
	atts := c.Attachments
	if atts == nil {
		atts = []AttachmentView{}
	}
	return json.Marshal(struct {
		claimAlias
		Amount      string           `json:"amount"`
		Attachments []AttachmentView `json:"attachments"`
	}{claimAlias(c.Claim), c.Amount.StringFixed(2), atts})
}
