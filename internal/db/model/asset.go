package model

import (
	"github.com/stacklend-io/risk-engine/internal/types"
)

const CollateralAssetCollection = "collateral_assets"

type CollateralAsset struct {
	Symbol         string `bson:"_id"`             // Primary key - uppercase ticker
	Price          uint64 `bson:"price"`           // Oracle price in protocol base units
	Volatility     uint64 `bson:"volatility"`      // Percent in [0, 100]
	LiquidityScore uint64 `bson:"liquidity_score"` // Market depth score in [0, 100]
	RiskWeight     uint64 `bson:"risk_weight"`     // 100 baseline, 150 above the volatility limit
	LastUpdatedAt  uint64 `bson:"last_updated_at"` // Logical time of the last price update
}

// NewCollateralAsset builds the full record a price update stores. Every
// update rewrites the asset wholesale: liquidity resets to its baseline and
// the risk weight is rederived from volatility.
func NewCollateralAsset(symbol string, price, volatility, updatedAt uint64) *CollateralAsset {
	riskWeight := uint64(types.BaseRiskWeight)
	if volatility > types.VolatilityLimit {
		riskWeight = types.PenalizedRiskWeight
	}

	return &CollateralAsset{
		Symbol:         symbol,
		Price:          price,
		Volatility:     volatility,
		LiquidityScore: types.ResetLiquidityScore,
		RiskWeight:     riskWeight,
		LastUpdatedAt:  updatedAt,
	}
}
