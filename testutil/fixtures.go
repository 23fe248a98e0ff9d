package testutil

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/types"
)

// RandomBorrowerID returns a borrower identity that passes validation.
func RandomBorrowerID() string {
	return fmt.Sprintf("%s-%s", gofakeit.Username(), gofakeit.DigitN(4))
}

// RandomTicker returns an uppercase asset symbol that passes validation.
func RandomTicker() string {
	ticker := make([]byte, 4)
	for i := range ticker {
		ticker[i] = randUpper()
	}
	return string(ticker)
}

// RandomAsset builds a collateral asset with plausible field values.
func RandomAsset(updatedAt uint64) *model.CollateralAsset {
	price := uint64(gofakeit.Number(1, 1_000_000))
	volatility := uint64(gofakeit.Number(0, 100))
	return model.NewCollateralAsset(RandomTicker(), price, volatility, updatedAt)
}

// RandomPosition builds an open lending position for the given pair with
// consistent derived ratios.
func RandomPosition(borrowerID, assetSymbol string, borrowed, collateral, createdAt uint64) *model.LendingPosition {
	health := uint64(types.MaxHealthFactor)
	ltv := uint64(0)
	if collateral > 0 {
		ltv = borrowed * 100 / collateral
	}
	if borrowed > 0 && collateral > 0 {
		health = collateral * 100 / (borrowed * types.LiquidationThreshold)
	}

	return &model.LendingPosition{
		ID:               model.PositionID(borrowerID, assetSymbol),
		BorrowerID:       borrowerID,
		AssetSymbol:      assetSymbol,
		BorrowedAmount:   borrowed,
		CollateralAmount: collateral,
		LtvRatio:         ltv,
		HealthFactor:     health,
		CreatedAt:        createdAt,
	}
}

func randUpper() byte {
	return byte('A' + gofakeit.Number(0, 25))
}
