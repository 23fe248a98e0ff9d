package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stacklend-io/risk-engine/internal/db/model"
)

const protocolStateID = "singleton"

type protocolStateDoc struct {
	ID                   string `bson:"_id"`
	*model.ProtocolState `bson:",inline"`
}

func (db *Database) GetProtocolState(ctx context.Context) (*model.ProtocolState, error) {
	filter := map[string]any{"_id": protocolStateID}
	res := db.collection(model.ProtocolStateCollection).FindOne(ctx, filter)

	var doc protocolStateDoc
	err := res.Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     protocolStateID,
				Message: "protocol state not found",
			}
		}
		return nil, err
	}

	return doc.ProtocolState, nil
}

func (db *Database) UpsertProtocolState(ctx context.Context, state *model.ProtocolState) error {
	collection := db.collection(model.ProtocolStateCollection)

	doc := protocolStateDoc{
		ID:            protocolStateID,
		ProtocolState: state,
	}

	filter := bson.M{
		"_id": protocolStateID,
	}
	update := bson.M{"$set": doc}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
