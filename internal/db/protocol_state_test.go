//go:build integration

package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/db/model"
)

func TestProtocolState(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("not found before the first cycle", func(t *testing.T) {
		state, err := testDB.GetProtocolState(ctx)
		assert.True(t, db.IsNotFoundError(err))
		assert.Nil(t, state)
	})

	t.Run("upserts the singleton", func(t *testing.T) {
		states := []*model.ProtocolState{
			{
				TotalBorrowed:        500,
				TotalCollateralValue: 2000,
				RiskScore:            20,
				LastMonitoredAt:      1000,
				NextCycleAt:          1600,
			},
			{
				TotalBorrowed:        1800,
				TotalCollateralValue: 2000,
				RiskScore:            90,
				EmergencyMode:        true,
				LastMonitoredAt:      1600,
				NextCycleAt:          2200,
			},
		}

		for _, state := range states {
			require.NoError(t, testDB.UpsertProtocolState(ctx, state))

			found, err := testDB.GetProtocolState(ctx)
			require.NoError(t, err)
			assert.Equal(t, state, found)
		}
	})
}
