package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stacklend-io/risk-engine/internal/db/model"
)

// SaveBorrowerProfile stores the profile wholesale. Registration goes
// through here, so an existing profile is reset rather than rejected.
func (db *Database) SaveBorrowerProfile(ctx context.Context, profile *model.BorrowerProfile) error {
	filter := bson.M{"_id": profile.BorrowerID}
	opts := options.Replace().SetUpsert(true)

	_, err := db.collection(model.BorrowerProfileCollection).
		ReplaceOne(ctx, filter, profile, opts)
	return err
}

func (db *Database) GetBorrowerProfile(ctx context.Context, borrowerID string) (*model.BorrowerProfile, error) {
	filter := bson.M{"_id": borrowerID}
	res := db.collection(model.BorrowerProfileCollection).FindOne(ctx, filter)

	var profile model.BorrowerProfile
	if err := res.Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     borrowerID,
				Message: "borrower profile not found",
			}
		}
		return nil, err
	}

	return &profile, nil
}

// UpdateBorrowerAssessment writes the exposure snapshot an approved
// assessment produces. The profile is created on first contact, matching
// the behavior of assessing a borrower that never registered.
func (db *Database) UpdateBorrowerAssessment(
	ctx context.Context,
	borrowerID string,
	totalBorrowed, collateralValue uint64,
	creditScore, liquidationRisk uint64,
	assessedAt uint64,
) error {
	filter := bson.M{"_id": borrowerID}
	update := bson.M{
		"$set": bson.M{
			"total_borrowed":     totalBorrowed,
			"collateral_value":   collateralValue,
			"credit_score":       creditScore,
			"liquidation_risk":   liquidationRisk,
			"last_assessment_at": assessedAt,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.BorrowerProfileCollection).
		UpdateOne(ctx, filter, update, opts)
	return err
}
