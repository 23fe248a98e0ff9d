package model

import (
	"fmt"
)

const LendingPositionCollection = "lending_positions"

type LendingPosition struct {
	ID               string `bson:"_id"` // "<borrower>:<symbol>"
	BorrowerID       string `bson:"borrower_id"`
	AssetSymbol      string `bson:"asset_symbol"`
	BorrowedAmount   uint64 `bson:"borrowed_amount"`
	CollateralAmount uint64 `bson:"collateral_amount"`
	LtvRatio         uint64 `bson:"ltv_ratio"`
	HealthFactor     uint64 `bson:"health_factor"`
	CreatedAt        uint64 `bson:"created_at"` // Logical time of the admitting assessment
}

// PositionID derives the primary key for a (borrower, asset) pair. Borrower
// IDs may contain ':' but symbols cannot, so splitting on the last ':' is
// unambiguous.
func PositionID(borrowerID, assetSymbol string) string {
	return fmt.Sprintf("%s:%s", borrowerID, assetSymbol)
}
