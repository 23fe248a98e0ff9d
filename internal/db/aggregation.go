package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/types"
)

// PortfolioAggregates are the portfolio-wide totals the monitoring engine
// starts from.
type PortfolioAggregates struct {
	TotalBorrowed          uint64
	TotalCollateral        uint64
	PositionCount          uint64
	MaxBorrowerBorrowed    uint64
	BorrowersWithPositions uint64
	MultiAssetBorrowers    uint64
}

// AssetExposureResult is the position footprint of one collateral asset.
type AssetExposureResult struct {
	AssetSymbol   string `bson:"_id"`
	Collateral    uint64 `bson:"collateral"`
	Borrowed      uint64 `bson:"borrowed"`
	PositionCount uint64 `bson:"position_count"`
}

// HealthBandResult counts liquidation-eligible positions and their debt.
type HealthBandResult struct {
	Positions uint64
	Debt      uint64
}

// CalculatePortfolioAggregates computes portfolio totals and borrower
// concentration using aggregation pipelines, without loading positions into
// memory.
func (db *Database) CalculatePortfolioAggregates(ctx context.Context) (*PortfolioAggregates, error) {
	collection := db.collection(model.LendingPositionCollection)

	// Pipeline for overall totals
	totalsPipeline := bson.A{
		bson.M{
			"$group": bson.M{
				"_id":              nil,
				"total_borrowed":   bson.M{"$sum": "$borrowed_amount"},
				"total_collateral": bson.M{"$sum": "$collateral_amount"},
				"position_count":   bson.M{"$sum": 1},
			},
		},
	}

	cursor, err := collection.Aggregate(ctx, totalsPipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	aggregates := &PortfolioAggregates{}

	if cursor.Next(ctx) {
		var result struct {
			TotalBorrowed   uint64 `bson:"total_borrowed"`
			TotalCollateral uint64 `bson:"total_collateral"`
			PositionCount   uint64 `bson:"position_count"`
		}
		if err := cursor.Decode(&result); err != nil {
			return nil, err
		}
		aggregates.TotalBorrowed = result.TotalBorrowed
		aggregates.TotalCollateral = result.TotalCollateral
		aggregates.PositionCount = result.PositionCount
	}

	// If there are no positions, skip the borrower pipeline
	if aggregates.PositionCount == 0 {
		return aggregates, nil
	}

	// Pipeline for per-borrower concentration: first fold positions per
	// borrower, then reduce to the portfolio-level extremes.
	borrowerPipeline := bson.A{
		bson.M{
			"$group": bson.M{
				"_id":      "$borrower_id",
				"borrowed": bson.M{"$sum": "$borrowed_amount"},
				"assets":   bson.M{"$sum": 1},
			},
		},
		bson.M{
			"$group": bson.M{
				"_id":          nil,
				"max_borrowed": bson.M{"$max": "$borrowed"},
				"borrowers":    bson.M{"$sum": 1},
				"multi_asset": bson.M{
					"$sum": bson.M{
						"$cond": bson.A{bson.M{"$gt": bson.A{"$assets", 1}}, 1, 0},
					},
				},
			},
		},
	}

	borrowerCursor, err := collection.Aggregate(ctx, borrowerPipeline)
	if err != nil {
		return nil, err
	}
	defer borrowerCursor.Close(ctx)

	if borrowerCursor.Next(ctx) {
		var result struct {
			MaxBorrowed uint64 `bson:"max_borrowed"`
			Borrowers   uint64 `bson:"borrowers"`
			MultiAsset  uint64 `bson:"multi_asset"`
		}
		if err := borrowerCursor.Decode(&result); err != nil {
			return nil, err
		}
		aggregates.MaxBorrowerBorrowed = result.MaxBorrowed
		aggregates.BorrowersWithPositions = result.Borrowers
		aggregates.MultiAssetBorrowers = result.MultiAsset
	}

	return aggregates, nil
}

// CalculateAssetExposure folds positions per collateral asset, largest
// collateral first.
func (db *Database) CalculateAssetExposure(ctx context.Context) ([]*AssetExposureResult, error) {
	pipeline := bson.A{
		bson.M{
			"$group": bson.M{
				"_id":            "$asset_symbol",
				"collateral":     bson.M{"$sum": "$collateral_amount"},
				"borrowed":       bson.M{"$sum": "$borrowed_amount"},
				"position_count": bson.M{"$sum": 1},
			},
		},
		bson.M{
			"$sort": bson.M{"collateral": -1},
		},
	}

	cursor, err := db.collection(model.LendingPositionCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*AssetExposureResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}

// CountPositionsInHealthBand counts positions with a health factor at or
// below the band and sums their debt.
func (db *Database) CountPositionsInHealthBand(ctx context.Context, maxHealthFactor uint64) (*HealthBandResult, error) {
	pipeline := bson.A{
		bson.M{
			"$match": bson.M{
				"health_factor": bson.M{"$lte": maxHealthFactor},
			},
		},
		bson.M{
			"$group": bson.M{
				"_id":       nil,
				"positions": bson.M{"$sum": 1},
				"debt":      bson.M{"$sum": "$borrowed_amount"},
			},
		},
	}

	cursor, err := db.collection(model.LendingPositionCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	band := &HealthBandResult{}
	if cursor.Next(ctx) {
		var result struct {
			Positions uint64 `bson:"positions"`
			Debt      uint64 `bson:"debt"`
		}
		if err := cursor.Decode(&result); err != nil {
			return nil, err
		}
		band.Positions = result.Positions
		band.Debt = result.Debt
	}

	return band, nil
}

// CountPositionsSurvivingShock counts positions that would stay above the
// liquidation health factor after collateral loses shockPct percent of its
// value. The shocked collateral is c' = floor(c*(100-s)/100), the same
// truncating scale-down the scorer applies, and survival is
// floor(c'*100 / (b*LiquidationThreshold)) > 100, which is equivalent to
// c'*100 >= 101*b*LiquidationThreshold. Debt-free positions always survive.
func (db *Database) CountPositionsSurvivingShock(ctx context.Context, shockPct uint64) (uint64, error) {
	if shockPct >= 100 {
		return 0, fmt.Errorf("shock percent must be below 100, got %d", shockPct)
	}

	shockedCollateral := bson.M{
		"$floor": bson.M{
			"$divide": bson.A{
				bson.M{"$multiply": bson.A{"$collateral_amount", int64(100 - shockPct)}},
				100,
			},
		},
	}
	filter := bson.M{
		"$expr": bson.M{
			"$gte": bson.A{
				bson.M{"$multiply": bson.A{shockedCollateral, 100}},
				bson.M{"$multiply": bson.A{"$borrowed_amount", int64(101 * types.LiquidationThreshold)}},
			},
		},
	}

	count, err := db.collection(model.LendingPositionCollection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}

	return uint64(count), nil
}

// CountPositionsWithLtvBelow counts positions with a stored LTV strictly
// below the given percent.
func (db *Database) CountPositionsWithLtvBelow(ctx context.Context, maxLtv uint64) (uint64, error) {
	filter := bson.M{"ltv_ratio": bson.M{"$lt": maxLtv}}

	count, err := db.collection(model.LendingPositionCollection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}

	return uint64(count), nil
}
