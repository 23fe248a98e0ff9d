package services

import (
	"context"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"

	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/types"
)

// Scoring primitives. All percent arithmetic is integer with truncating
// division; intermediate products go through sdkmath.Int so caller-supplied
// amounts near the uint64 ceiling cannot wrap.

// ltvRatio is borrowed amount as a truncated percent of collateral.
// Callers must validate collateralAmount > 0 first.
func ltvRatio(borrowedAmount, collateralAmount uint64) uint64 {
	ltv := sdkmath.NewIntFromUint64(borrowedAmount).
		MulRaw(100).
		Quo(sdkmath.NewIntFromUint64(collateralAmount))
	return clampUint64(ltv)
}

// healthFactor scores position solvency against the liquidation threshold.
// Debt-free positions get the sentinel value.
func healthFactor(collateralAmount, borrowedAmount uint64) uint64 {
	if borrowedAmount == 0 {
		return types.MaxHealthFactor
	}

	hf := sdkmath.NewIntFromUint64(collateralAmount).
		MulRaw(100).
		Quo(sdkmath.NewIntFromUint64(borrowedAmount).MulRaw(types.LiquidationThreshold))
	return clampUint64(hf)
}

// creditScoreOf derives a profile's score from its default history and
// collateral utilization. The result clamps at zero and cannot exceed the
// base score.
func creditScoreOf(profile *model.BorrowerProfile) uint64 {
	penalty := sdkmath.NewIntFromUint64(profile.DefaultHistory).MulRaw(types.DefaultPenalty)

	utilization := sdkmath.ZeroInt()
	if profile.CollateralValue > 0 {
		utilization = sdkmath.NewIntFromUint64(profile.TotalBorrowed).
			MulRaw(100).
			Quo(sdkmath.NewIntFromUint64(profile.CollateralValue))
	}

	score := sdkmath.NewInt(types.BaseCreditScore).Sub(penalty).Sub(utilization)
	if score.IsNegative() {
		return 0
	}
	return score.Uint64()
}

// volatilityRiskOf classifies an asset into exactly {0, 50, 100}. A nil
// asset means the symbol has never been priced.
func volatilityRiskOf(asset *model.CollateralAsset) uint64 {
	if asset == nil {
		return types.NeutralVolatilityRisk
	}
	if asset.Volatility > types.VolatilityLimit {
		return types.HighVolatilityRisk
	}
	return 0
}

func riskScoreOf(creditScore, volatilityRisk uint64) uint64 {
	return (creditScore + volatilityRisk) / 2
}

func clampUint64(v sdkmath.Int) uint64 {
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}

// CreditScore scores a borrower. Missing profiles yield the neutral
// default, not an error.
func (s *Service) CreditScore(ctx context.Context, borrowerID string) (uint64, *types.Error) {
	profile, err := s.db.GetBorrowerProfile(ctx, borrowerID)
	if err != nil {
		if db.IsNotFoundError(err) {
			return types.NeutralCreditScore, nil
		}
		return 0, types.NewInternalServiceError(
			fmt.Errorf("failed to get borrower profile: %w", err),
		)
	}
	return creditScoreOf(profile), nil
}

// VolatilityRisk classifies an asset symbol. Unknown symbols yield the
// neutral classification, not an error.
func (s *Service) VolatilityRisk(ctx context.Context, assetSymbol string) (uint64, *types.Error) {
	asset, err := s.db.GetCollateralAsset(ctx, assetSymbol)
	if err != nil {
		if db.IsNotFoundError(err) {
			return types.NeutralVolatilityRisk, nil
		}
		return 0, types.NewInternalServiceError(
			fmt.Errorf("failed to get collateral asset: %w", err),
		)
	}
	return volatilityRiskOf(asset), nil
}
