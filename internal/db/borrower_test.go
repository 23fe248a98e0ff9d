//go:build integration

package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/types"
	"github.com/stacklend-io/risk-engine/testutil"
)

func TestBorrowerProfile(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("not found", func(t *testing.T) {
		profile, err := testDB.GetBorrowerProfile(ctx, testutil.RandomBorrowerID())
		assert.True(t, db.IsNotFoundError(err))
		assert.Nil(t, profile)
	})

	t.Run("registration stores the neutral profile", func(t *testing.T) {
		borrowerID := testutil.RandomBorrowerID()
		require.NoError(t, testDB.SaveBorrowerProfile(ctx, model.NewBorrowerProfile(borrowerID)))

		found, err := testDB.GetBorrowerProfile(ctx, borrowerID)
		require.NoError(t, err)
		assert.Equal(t, uint64(types.NeutralCreditScore), found.CreditScore)
		assert.Zero(t, found.TotalBorrowed)
		assert.Zero(t, found.DefaultHistory)
		assert.Zero(t, found.LastAssessmentAt)
	})

	t.Run("re-registration resets an assessed profile", func(t *testing.T) {
		borrowerID := testutil.RandomBorrowerID()
		require.NoError(t, testDB.SaveBorrowerProfile(ctx, model.NewBorrowerProfile(borrowerID)))
		require.NoError(t, testDB.UpdateBorrowerAssessment(ctx, borrowerID, 500, 1000, 100, 50, 2000))

		require.NoError(t, testDB.SaveBorrowerProfile(ctx, model.NewBorrowerProfile(borrowerID)))

		found, err := testDB.GetBorrowerProfile(ctx, borrowerID)
		require.NoError(t, err)
		assert.Equal(t, uint64(types.NeutralCreditScore), found.CreditScore)
		assert.Zero(t, found.TotalBorrowed)
		assert.Zero(t, found.LastAssessmentAt)
	})
}

func TestUpdateBorrowerAssessment(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("updates an existing profile", func(t *testing.T) {
		borrowerID := testutil.RandomBorrowerID()
		require.NoError(t, testDB.SaveBorrowerProfile(ctx, model.NewBorrowerProfile(borrowerID)))

		require.NoError(t, testDB.UpdateBorrowerAssessment(ctx, borrowerID, 500, 1000, 100, 50, 2000))

		found, err := testDB.GetBorrowerProfile(ctx, borrowerID)
		require.NoError(t, err)
		assert.Equal(t, uint64(500), found.TotalBorrowed)
		assert.Equal(t, uint64(1000), found.CollateralValue)
		assert.Equal(t, uint64(100), found.CreditScore)
		assert.Equal(t, uint64(50), found.LiquidationRisk)
		assert.Equal(t, uint64(2000), found.LastAssessmentAt)
	})

	t.Run("creates the profile on first contact", func(t *testing.T) {
		borrowerID := testutil.RandomBorrowerID()
		require.NoError(t, testDB.UpdateBorrowerAssessment(ctx, borrowerID, 10, 2000, 50, 25, 3000))

		found, err := testDB.GetBorrowerProfile(ctx, borrowerID)
		require.NoError(t, err)
		assert.Equal(t, uint64(50), found.CreditScore)
		assert.Equal(t, uint64(10), found.TotalBorrowed)
	})
}
