package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/types"
	"github.com/stacklend-io/risk-engine/pkg"
)

// UpdateAssetPrice overwrites the asset record wholesale: liquidity score
// resets and risk weight is rederived from volatility. Owner only.
func (s *Service) UpdateAssetPrice(
	ctx context.Context, callerID, symbol string, price, volatility uint64,
) *types.Error {
	if err := s.requireOwner(callerID); err != nil {
		return err
	}
	return s.applyAssetUpdate(ctx, symbol, price, volatility)
}

// applyAssetUpdate is the single asset write path, shared by the owner
// operation, the price refresh poller and the queue consumer.
func (s *Service) applyAssetUpdate(
	ctx context.Context, symbol string, price, volatility uint64,
) *types.Error {
	if err := pkg.ValidateAssetSymbol(symbol); err != nil {
		return types.NewValidationFailedError(err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	asset := model.NewCollateralAsset(symbol, price, volatility, s.clock.Now())
	if err := s.db.SaveCollateralAsset(ctx, asset); err != nil {
		return types.NewInternalServiceError(
			fmt.Errorf("failed to save collateral asset: %w", err),
		)
	}

	log.Ctx(ctx).Debug().
		Str("symbol", symbol).
		Uint64("price", price).
		Uint64("volatility", volatility).
		Uint64("risk_weight", asset.RiskWeight).
		Msg("Updated collateral asset")
	return nil
}
