package model

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stacklend-io/risk-engine/internal/config"
	"github.com/stacklend-io/risk-engine/internal/utils"
)

var collectionIndexes = map[string][]mongo.IndexModel{
	BorrowerProfileCollection: nil,
	CollateralAssetCollection: nil,
	LendingPositionCollection: {
		{Keys: bson.D{{Key: "borrower_id", Value: 1}}},
		{Keys: bson.D{{Key: "asset_symbol", Value: 1}}},
		{Keys: bson.D{{Key: "health_factor", Value: 1}}},
		{Keys: bson.D{{Key: "ltv_ratio", Value: 1}}},
	},
	ProtocolStateCollection: nil,
	MonitoringReportCollection: {
		{Keys: bson.D{{Key: "generated_at", Value: -1}}},
	},
}

// Setup creates the collections and secondary indexes the engine relies on.
// Safe to run repeatedly.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to disconnect setup client")
		}
	}()

	database := client.Database(cfg.DbName)

	existing, err := database.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for name, indexes := range collectionIndexes {
		if !utils.Contains(existing, name) {
			if err := database.CreateCollection(ctx, name); err != nil {
				return fmt.Errorf("failed to create collection %s: %w", name, err)
			}
			log.Ctx(ctx).Debug().Str("collection", name).Msg("collection created")
		}

		if len(indexes) == 0 {
			continue
		}
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}

	return nil
}
