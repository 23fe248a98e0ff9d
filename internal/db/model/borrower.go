package model

import (
	"github.com/stacklend-io/risk-engine/internal/types"
)

const BorrowerProfileCollection = "borrower_profiles"

type BorrowerProfile struct {
	BorrowerID       string `bson:"_id"`                // Primary key - borrower identity
	CreditScore      uint64 `bson:"credit_score"`       // Last computed credit score in [0, 100]
	TotalBorrowed    uint64 `bson:"total_borrowed"`     // Borrowed amount summed over positions
	CollateralValue  uint64 `bson:"collateral_value"`   // Collateral summed over positions
	LiquidationRisk  uint64 `bson:"liquidation_risk"`   // Risk score of the last assessment
	DefaultHistory   uint64 `bson:"default_history"`    // Count of recorded defaults
	LastAssessmentAt uint64 `bson:"last_assessment_at"` // Logical time of the last assessment, 0 if never
}

// NewBorrowerProfile returns the reset profile registration establishes:
// neutral credit score, zero exposure, clean history.
func NewBorrowerProfile(borrowerID string) *BorrowerProfile {
	return &BorrowerProfile{
		BorrowerID:  borrowerID,
		CreditScore: types.NeutralCreditScore,
	}
}
