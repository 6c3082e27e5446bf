// Package validation orchestrates the assessment of one merchant request:
// directory resolution, address and registry comparison, and composite risk
// evaluation.
package validation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/locusaudit/merchant-validation/internal/directory"
	"github.com/locusaudit/merchant-validation/internal/risk"
)

// Status is the outcome classification of one validation.
type Status string

// Validation statuses. INVALID means no directory record was resolved;
// ERROR means an unrecovered fault occurred during assessment.
const (
	StatusValid      Status = "VALID"
	StatusSuspicious Status = "SUSPICIOUS"
	StatusInvalid    Status = "INVALID"
	StatusError      Status = "ERROR"
)

// Request is one merchant validation request. MerchantName is the only
// required field.
type Request struct {
	MerchantName      string           `json:"merchant_name"`
	Address           string           `json:"address,omitempty"`
	PlaceID           string           `json:"place_id,omitempty"`
	Phone             string           `json:"phone,omitempty"`
	TransactionAmount *decimal.Decimal `json:"transaction_amount,omitempty"`
	TransactionType   string           `json:"transaction_type,omitempty"`
}

// Result is the outcome of one merchant validation.
type Result struct {
	MerchantRecord     *directory.Record   `json:"merchant_info,omitempty"`
	RiskAssessment     risk.Assessment     `json:"risk_assessment"`
	AddressComparison  *AddressComparison  `json:"address_comparison,omitempty"`
	RegistryComparison *RegistryComparison `json:"registry_comparison,omitempty"`
	Status             Status              `json:"validation_status"`
	Timestamp          time.Time           `json:"timestamp"`
	SearchQuery        string              `json:"search_query"`
}

// deriveStatus applies the status invariant: INVALID without a record, then
// SUSPICIOUS for HIGH or CRITICAL risk, otherwise VALID.
func deriveStatus(record *directory.Record, assessment risk.Assessment) Status {
	if record == nil {
		return StatusInvalid
	}
	if assessment.Level == risk.LevelCritical || assessment.Level == risk.LevelHigh {
		return StatusSuspicious
	}
	return StatusValid
}
