package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stacklend-io/risk-engine/internal/db/model"
)

// SaveCollateralAsset stores the asset record wholesale. Price updates
// always rewrite the full document.
func (db *Database) SaveCollateralAsset(ctx context.Context, asset *model.CollateralAsset) error {
	filter := bson.M{"_id": asset.Symbol}
	opts := options.Replace().SetUpsert(true)

	_, err := db.collection(model.CollateralAssetCollection).
		ReplaceOne(ctx, filter, asset, opts)
	return err
}

func (db *Database) GetCollateralAsset(ctx context.Context, symbol string) (*model.CollateralAsset, error) {
	filter := bson.M{"_id": symbol}
	res := db.collection(model.CollateralAssetCollection).FindOne(ctx, filter)

	var asset model.CollateralAsset
	if err := res.Decode(&asset); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     symbol,
				Message: "collateral asset not found",
			}
		}
		return nil, err
	}

	return &asset, nil
}

func (db *Database) GetAllCollateralAssets(ctx context.Context) ([]*model.CollateralAsset, error) {
	cursor, err := db.collection(model.CollateralAssetCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assets []*model.CollateralAsset
	if err := cursor.All(ctx, &assets); err != nil {
		return nil, err
	}

	return assets, nil
}
