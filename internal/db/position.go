package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stacklend-io/risk-engine/internal/db/model"
)

// UpsertLendingPosition stores the position for its (borrower, asset) pair,
// replacing any previous assessment of the same pair.
func (db *Database) UpsertLendingPosition(ctx context.Context, position *model.LendingPosition) error {
	filter := bson.M{"_id": position.ID}
	opts := options.Replace().SetUpsert(true)

	_, err := db.collection(model.LendingPositionCollection).
		ReplaceOne(ctx, filter, position, opts)
	return err
}

func (db *Database) GetLendingPosition(ctx context.Context, borrowerID, assetSymbol string) (*model.LendingPosition, error) {
	positionID := model.PositionID(borrowerID, assetSymbol)
	filter := bson.M{"_id": positionID}
	res := db.collection(model.LendingPositionCollection).FindOne(ctx, filter)

	var position model.LendingPosition
	if err := res.Decode(&position); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     positionID,
				Message: "lending position not found",
			}
		}
		return nil, err
	}

	return &position, nil
}

func (db *Database) GetLendingPositionsByBorrower(ctx context.Context, borrowerID string) ([]*model.LendingPosition, error) {
	filter := bson.M{"borrower_id": borrowerID}
	cursor, err := db.collection(model.LendingPositionCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var positions []*model.LendingPosition
	if err := cursor.All(ctx, &positions); err != nil {
		return nil, err
	}

	return positions, nil
}

// GetAllLendingPositions loads every open position. Used by offline repair
// paths, not by the monitoring engine, which aggregates server-side.
func (db *Database) GetAllLendingPositions(ctx context.Context) ([]*model.LendingPosition, error) {
	cursor, err := db.collection(model.LendingPositionCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var positions []*model.LendingPosition
	if err := cursor.All(ctx, &positions); err != nil {
		return nil, err
	}

	return positions, nil
}

// GetPositionsBelowHealth lists positions with a health factor at or below
// the given band, most distressed first.
func (db *Database) GetPositionsBelowHealth(ctx context.Context, maxHealthFactor uint64, limit int64) ([]*model.LendingPosition, error) {
	filter := bson.M{"health_factor": bson.M{"$lte": maxHealthFactor}}
	opts := options.Find().
		SetSort(bson.M{"health_factor": 1}).
		SetLimit(limit)

	cursor, err := db.collection(model.LendingPositionCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var positions []*model.LendingPosition
	if err := cursor.All(ctx, &positions); err != nil {
		return nil, err
	}

	return positions, nil
}
