package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stacklend-io/risk-engine/internal/db/model"
)

func (db *Database) InsertMonitoringReport(ctx context.Context, doc *model.MonitoringReportDocument) error {
	_, err := db.collection(model.MonitoringReportCollection).InsertOne(ctx, doc)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     doc.ID.Hex(),
						Message: "monitoring report already recorded",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetLatestMonitoringReport(ctx context.Context) (*model.MonitoringReportDocument, error) {
	opts := options.FindOne().SetSort(bson.M{"generated_at": -1})
	res := db.collection(model.MonitoringReportCollection).FindOne(ctx, bson.M{}, opts)

	var doc model.MonitoringReportDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     "latest",
				Message: "no monitoring report recorded yet",
			}
		}
		return nil, err
	}

	return &doc, nil
}

// GetMonitoringReports returns the most recent reports, newest first.
func (db *Database) GetMonitoringReports(ctx context.Context, limit int64) ([]*model.MonitoringReportDocument, error) {
	opts := options.Find().
		SetSort(bson.M{"generated_at": -1}).
		SetLimit(limit)

	cursor, err := db.collection(model.MonitoringReportCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*model.MonitoringReportDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	return docs, nil
}
