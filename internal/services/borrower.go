package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/types"
	"github.com/stacklend-io/risk-engine/pkg"
)

// RegisterBorrower creates a borrower profile with neutral defaults. Owner
// only. Re-registration resets an existing profile.
func (s *Service) RegisterBorrower(ctx context.Context, callerID, borrowerID string) *types.Error {
	if err := s.requireOwner(callerID); err != nil {
		return err
	}
	if err := pkg.ValidateBorrowerID(borrowerID); err != nil {
		return types.NewError(http.StatusBadRequest, types.InvalidBorrower, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.db.SaveBorrowerProfile(ctx, model.NewBorrowerProfile(borrowerID)); err != nil {
		return types.NewInternalServiceError(
			fmt.Errorf("failed to save borrower profile: %w", err),
		)
	}

	log.Ctx(ctx).Info().Str("borrower_id", borrowerID).Msg("Registered borrower")
	return nil
}

// GetBorrowerPositions lists a borrower's open positions, optionally
// narrowed to one asset. Open to any caller.
func (s *Service) GetBorrowerPositions(
	ctx context.Context, borrowerID, assetSymbol string,
) ([]*model.LendingPosition, *types.Error) {
	if assetSymbol != "" {
		position, err := s.db.GetLendingPosition(ctx, borrowerID, assetSymbol)
		if err != nil {
			if db.IsNotFoundError(err) {
				return []*model.LendingPosition{}, nil
			}
			return nil, types.NewInternalServiceError(
				fmt.Errorf("failed to get lending position: %w", err),
			)
		}
		return []*model.LendingPosition{position}, nil
	}

	positions, err := s.db.GetLendingPositionsByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to get lending positions: %w", err),
		)
	}
	return positions, nil
}
