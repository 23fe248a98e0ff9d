package services

import (
	"context"
	"fmt"
	"net/http"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
	"github.com/stacklend-io/risk-engine/internal/types"
	"github.com/stacklend-io/risk-engine/pkg"
)

// AssessBorrowingRisk gates a borrowing request and, on approval, records
// the position and refreshed borrower exposure. Open to any caller; the
// caller identity is carried for audit logging only.
//
// The three gates evaluate in order against a consistent read set and the
// first failure aborts with no writes:
//
//  1. InsufficientCollateral when the LTV ratio reaches the admission limit
//     (zero collateral has no defined LTV and fails here).
//  2. RiskTooHigh when the health factor is at or below 100.
//  3. MarketVolatility when the asset's volatility risk is 50 or above,
//     which also rejects assets that were never priced.
func (s *Service) AssessBorrowingRisk(
	ctx context.Context,
	callerID string,
	borrowerID string,
	assetSymbol string,
	borrowAmount uint64,
	collateralAmount uint64,
) (*types.AssessmentResult, *types.Error) {
	if err := pkg.ValidateBorrowerID(borrowerID); err != nil {
		return nil, types.NewError(http.StatusBadRequest, types.InvalidBorrower, err)
	}
	if err := pkg.ValidateAssetSymbol(assetSymbol); err != nil {
		return nil, types.NewValidationFailedError(err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	creditScore, verr := s.CreditScore(ctx, borrowerID)
	if verr != nil {
		return nil, verr
	}
	volatilityRisk, verr := s.VolatilityRisk(ctx, assetSymbol)
	if verr != nil {
		return nil, verr
	}

	if collateralAmount == 0 {
		metrics.RecordAssessmentDecision(false, "insufficient_collateral")
		return nil, types.NewErrorWithMsg(
			http.StatusUnprocessableEntity,
			types.InsufficientCollateral,
			"collateral amount must be positive",
		)
	}

	ltv := ltvRatio(borrowAmount, collateralAmount)
	if ltv >= types.MaxLtvRatio {
		metrics.RecordAssessmentDecision(false, "insufficient_collateral")
		return nil, types.NewError(
			http.StatusUnprocessableEntity,
			types.InsufficientCollateral,
			fmt.Errorf("ltv ratio %d is at or above the %d limit", ltv, types.MaxLtvRatio),
		)
	}

	health := healthFactor(collateralAmount, borrowAmount)
	if health <= 100 {
		metrics.RecordAssessmentDecision(false, "risk_too_high")
		return nil, types.NewError(
			http.StatusUnprocessableEntity,
			types.RiskTooHigh,
			fmt.Errorf("health factor %d is at or below 100", health),
		)
	}

	if volatilityRisk >= types.NeutralVolatilityRisk {
		metrics.RecordAssessmentDecision(false, "market_volatility")
		return nil, types.NewError(
			http.StatusUnprocessableEntity,
			types.MarketVolatility,
			fmt.Errorf("volatility risk %d for %s is too high", volatilityRisk, assetSymbol),
		)
	}

	riskScore := riskScoreOf(creditScore, volatilityRisk)
	now := s.clock.Now()

	position := &model.LendingPosition{
		ID:               model.PositionID(borrowerID, assetSymbol),
		BorrowerID:       borrowerID,
		AssetSymbol:      assetSymbol,
		BorrowedAmount:   borrowAmount,
		CollateralAmount: collateralAmount,
		LtvRatio:         ltv,
		HealthFactor:     health,
		CreatedAt:        now,
	}
	if err := s.db.UpsertLendingPosition(ctx, position); err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to upsert lending position: %w", err),
		)
	}

	totalBorrowed, collateralValue, err := s.borrowerExposure(ctx, borrowerID)
	if err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to aggregate borrower exposure: %w", err),
		)
	}

	if err := s.db.UpdateBorrowerAssessment(
		ctx, borrowerID, totalBorrowed, collateralValue, creditScore, riskScore, now,
	); err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to update borrower assessment: %w", err),
		)
	}

	metrics.RecordAssessmentDecision(true, "approved")

	log.Ctx(ctx).Info().
		Str("caller_id", callerID).
		Str("borrower_id", borrowerID).
		Str("asset_symbol", assetSymbol).
		Uint64("ltv_ratio", ltv).
		Uint64("health_factor", health).
		Uint64("risk_score", riskScore).
		Msg("Approved borrowing position")

	result := &types.AssessmentResult{
		RiskScore:    riskScore,
		LtvRatio:     ltv,
		HealthFactor: health,
		Approved:     true,
	}

	// The position is committed at this point. A push failure surfaces as
	// the operation's error without rolling the admission back; the store
	// stays the source of truth.
	if err := s.emitAssessmentEvent(ctx, borrowerID, assetSymbol, collateralAmount, borrowAmount, result, now); err != nil {
		return nil, err
	}

	return result, nil
}

// borrowerExposure sums the borrower's open positions after a write.
func (s *Service) borrowerExposure(ctx context.Context, borrowerID string) (uint64, uint64, error) {
	positions, err := s.db.GetLendingPositionsByBorrower(ctx, borrowerID)
	if err != nil {
		return 0, 0, err
	}

	borrowed := sdkmath.ZeroInt()
	collateral := sdkmath.ZeroInt()
	for _, position := range positions {
		borrowed = borrowed.Add(sdkmath.NewIntFromUint64(position.BorrowedAmount))
		collateral = collateral.Add(sdkmath.NewIntFromUint64(position.CollateralAmount))
	}
	return clampUint64(borrowed), clampUint64(collateral), nil
}
