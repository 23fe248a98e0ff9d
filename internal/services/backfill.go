package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/types"
)

// BackfillExposure recomputes every stored position's derived ratios and
// every affected borrower's exposure totals from the positions themselves.
// This is the repair path for records written by older binaries or left
// inconsistent by an interrupted write.
func (s *Service) BackfillExposure(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	positions, err := s.db.GetAllLendingPositions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list lending positions: %w", err)
	}

	borrowers := make(map[string]struct{})
	var repaired int
	for _, position := range positions {
		borrowers[position.BorrowerID] = struct{}{}

		if position.CollateralAmount == 0 {
			// Should not exist: admission requires collateral. Keep the
			// record but flag it instead of dividing by zero.
			log.Ctx(ctx).Warn().
				Str("position_id", position.ID).
				Msg("Position with zero collateral left untouched")
			continue
		}

		ltv := ltvRatio(position.BorrowedAmount, position.CollateralAmount)
		health := healthFactor(position.CollateralAmount, position.BorrowedAmount)
		if ltv == position.LtvRatio && health == position.HealthFactor {
			continue
		}

		position.LtvRatio = ltv
		position.HealthFactor = health
		if err := s.db.UpsertLendingPosition(ctx, position); err != nil {
			return fmt.Errorf("failed to rewrite position %s: %w", position.ID, err)
		}
		repaired++
	}

	now := s.clock.Now()
	for borrowerID := range borrowers {
		totalBorrowed, collateralValue, err := s.borrowerExposure(ctx, borrowerID)
		if err != nil {
			return fmt.Errorf("failed to aggregate exposure for %s: %w", borrowerID, err)
		}

		creditScore, verr := s.CreditScore(ctx, borrowerID)
		if verr != nil {
			return verr
		}

		// The repair cannot replay which asset the last assessment priced,
		// so the recorded liquidation risk is kept where a profile exists
		// and seeded from the neutral classification where it does not.
		liquidationRisk := riskScoreOf(creditScore, types.NeutralVolatilityRisk)
		if profile, err := s.db.GetBorrowerProfile(ctx, borrowerID); err == nil {
			liquidationRisk = profile.LiquidationRisk
		}

		if err := s.db.UpdateBorrowerAssessment(
			ctx, borrowerID, totalBorrowed, collateralValue,
			creditScore, liquidationRisk, now,
		); err != nil {
			return fmt.Errorf("failed to update exposure for %s: %w", borrowerID, err)
		}
	}

	log.Ctx(ctx).Info().
		Int("positions", len(positions)).
		Int("repaired", repaired).
		Int("borrowers", len(borrowers)).
		Msg("Backfilled position ratios and borrower exposure")

	return nil
}
