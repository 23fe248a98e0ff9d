package services

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklend-io/risk-engine/internal/types"
)

// Seeds the canonical fixture: borrower alice with a clean profile and a
// calm STX market.
func seedAssessmentFixture(t *testing.T, h *testHarness) {
	t.Helper()
	require.Nil(t, h.service.RegisterBorrower(t.Context(), testOwnerID, "alice"))
	require.Nil(t, h.service.UpdateAssetPrice(t.Context(), testOwnerID, "STX", 200, 10))
}

func TestAssessBorrowingRisk_GateOrder(t *testing.T) {
	h := newTestHarness(t)
	ctx := t.Context()
	seedAssessmentFixture(t, h)

	t.Run("zero collateral fails the collateral gate", func(t *testing.T) {
		_, err := h.service.AssessBorrowingRisk(ctx, "alice", "alice", "STX", 1000, 0)
		require.NotNil(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
		assert.Equal(t, types.InsufficientCollateral, err.ErrorCode)
	})

	t.Run("ltv at the limit fails the collateral gate", func(t *testing.T) {
		_, err := h.service.AssessBorrowingRisk(ctx, "alice", "alice", "STX", 1600, 2000)
		require.NotNil(t, err)
		assert.Equal(t, types.InsufficientCollateral, err.ErrorCode)
	})

	t.Run("admissible ltv with weak health fails the health gate", func(t *testing.T) {
		_, err := h.service.AssessBorrowingRisk(ctx, "alice", "alice", "STX", 1000, 2000)
		require.NotNil(t, err)
		assert.Equal(t, types.RiskTooHigh, err.ErrorCode)
	})

	t.Run("health factor just above 100 still fails", func(t *testing.T) {
		// 2000*100/(100*85) = 23
		_, err := h.service.AssessBorrowingRisk(ctx, "alice", "alice", "STX", 100, 2000)
		require.NotNil(t, err)
		assert.Equal(t, types.RiskTooHigh, err.ErrorCode)
	})

	t.Run("rejections write nothing", func(t *testing.T) {
		positions, perr := h.service.GetBorrowerPositions(ctx, "alice", "")
		require.Nil(t, perr)
		assert.Empty(t, positions)
		assert.Empty(t, h.consumer.assessmentEvents)

		profile, err := h.db.GetBorrowerProfile(ctx, "alice")
		require.NoError(t, err)
		assert.Zero(t, profile.TotalBorrowed)
		assert.Zero(t, profile.LastAssessmentAt)
	})
}

func TestAssessBorrowingRisk_Approval(t *testing.T) {
	h := newTestHarness(t)
	ctx := t.Context()
	seedAssessmentFixture(t, h)

	result, err := h.service.AssessBorrowingRisk(ctx, "alice", "alice", "STX", 10, 2000)
	require.Nil(t, err)

	assert.True(t, result.Approved)
	assert.Equal(t, uint64(50), result.RiskScore)
	assert.Equal(t, uint64(0), result.LtvRatio)
	assert.Equal(t, uint64(235), result.HealthFactor)

	position, perr := h.db.GetLendingPosition(ctx, "alice", "STX")
	require.NoError(t, perr)
	assert.Equal(t, uint64(10), position.BorrowedAmount)
	assert.Equal(t, uint64(2000), position.CollateralAmount)
	assert.Equal(t, uint64(0), position.LtvRatio)
	assert.Equal(t, uint64(235), position.HealthFactor)
	assert.Equal(t, h.clock.Now(), position.CreatedAt)

	profile, perr := h.db.GetBorrowerProfile(ctx, "alice")
	require.NoError(t, perr)
	assert.Equal(t, uint64(10), profile.TotalBorrowed)
	assert.Equal(t, uint64(2000), profile.CollateralValue)
	assert.Equal(t, uint64(100), profile.CreditScore)
	assert.Equal(t, uint64(50), profile.LiquidationRisk)
	assert.Equal(t, h.clock.Now(), profile.LastAssessmentAt)

	require.Len(t, h.consumer.assessmentEvents, 1)
	event := h.consumer.assessmentEvents[0]
	assert.Equal(t, "alice", event.BorrowerID)
	assert.Equal(t, "STX", event.AssetSymbol)
	assert.Equal(t, uint64(10), event.BorrowedAmount)
	assert.Equal(t, uint64(2000), event.CollateralAmount)
	assert.Equal(t, uint64(50), event.RiskScore)
}

func TestAssessBorrowingRisk_ReassessmentReplacesPosition(t *testing.T) {
	h := newTestHarness(t)
	ctx := t.Context()
	seedAssessmentFixture(t, h)

	_, err := h.service.AssessBorrowingRisk(ctx, "alice", "alice", "STX", 10, 2000)
	require.Nil(t, err)

	h.clock.Advance(60)
	_, err = h.service.AssessBorrowingRisk(ctx, "alice", "alice", "STX", 20, 4000)
	require.Nil(t, err)

	positions, perr := h.service.GetBorrowerPositions(ctx, "alice", "")
	require.Nil(t, perr)
	require.Len(t, positions, 1)
	assert.Equal(t, uint64(20), positions[0].BorrowedAmount)
	assert.Equal(t, uint64(4000), positions[0].CollateralAmount)

	profile, gerr := h.db.GetBorrowerProfile(ctx, "alice")
	require.NoError(t, gerr)
	assert.Equal(t, uint64(20), profile.TotalBorrowed)
	assert.Equal(t, uint64(4000), profile.CollateralValue)
}

func TestAssessBorrowingRisk_MarketVolatility(t *testing.T) {
	h := newTestHarness(t)
	ctx := t.Context()
	require.Nil(t, h.service.RegisterBorrower(ctx, testOwnerID, "alice"))

	t.Run("volatile asset is rejected", func(t *testing.T) {
		require.Nil(t, h.service.UpdateAssetPrice(ctx, testOwnerID, "MEME", 5, 60))

		_, err := h.service.AssessBorrowingRisk(ctx, "alice", "alice", "MEME", 10, 2000)
		require.NotNil(t, err)
		assert.Equal(t, types.MarketVolatility, err.ErrorCode)
	})

	t.Run("unpriced asset is rejected as neutral risk", func(t *testing.T) {
		_, err := h.service.AssessBorrowingRisk(ctx, "alice", "alice", "GHOST", 10, 2000)
		require.NotNil(t, err)
		assert.Equal(t, types.MarketVolatility, err.ErrorCode)
	})
}

func TestAssessBorrowingRisk_UnregisteredBorrower(t *testing.T) {
	h := newTestHarness(t)
	ctx := t.Context()
	require.Nil(t, h.service.UpdateAssetPrice(ctx, testOwnerID, "STX", 200, 10))

	result, err := h.service.AssessBorrowingRisk(ctx, "bob", "bob", "STX", 10, 2000)
	require.Nil(t, err)

	// neutral credit 50, calm asset 0
	assert.Equal(t, uint64(25), result.RiskScore)

	profile, perr := h.db.GetBorrowerProfile(ctx, "bob")
	require.NoError(t, perr)
	assert.Equal(t, uint64(50), profile.CreditScore)
}

func TestAssessBorrowingRisk_InvalidInputs(t *testing.T) {
	h := newTestHarness(t)
	ctx := t.Context()

	t.Run("bad borrower id", func(t *testing.T) {
		_, err := h.service.AssessBorrowingRisk(ctx, "caller", "no spaces", "STX", 10, 2000)
		require.NotNil(t, err)
		assert.Equal(t, http.StatusBadRequest, err.StatusCode)
		assert.Equal(t, types.InvalidBorrower, err.ErrorCode)
	})

	t.Run("bad asset symbol", func(t *testing.T) {
		_, err := h.service.AssessBorrowingRisk(ctx, "caller", "alice", "stx", 10, 2000)
		require.NotNil(t, err)
		assert.Equal(t, http.StatusBadRequest, err.StatusCode)
		assert.Equal(t, types.ValidationError, err.ErrorCode)
	})
}

func TestAssessBorrowingRisk_PushFailureSurfaces(t *testing.T) {
	h := newTestHarness(t)
	ctx := t.Context()
	seedAssessmentFixture(t, h)

	h.consumer.pushErr = errors.New("broker down")

	_, err := h.service.AssessBorrowingRisk(ctx, "alice", "alice", "STX", 10, 2000)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)

	// the admission itself is already committed
	position, perr := h.db.GetLendingPosition(ctx, "alice", "STX")
	require.NoError(t, perr)
	assert.Equal(t, uint64(10), position.BorrowedAmount)
}

func TestRegisterBorrower(t *testing.T) {
	h := newTestHarness(t)
	ctx := t.Context()

	t.Run("owner only", func(t *testing.T) {
		err := h.service.RegisterBorrower(ctx, "mallory", "alice")
		require.NotNil(t, err)
		assert.Equal(t, http.StatusForbidden, err.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		err := h.service.RegisterBorrower(ctx, testOwnerID, "")
		require.NotNil(t, err)
		assert.Equal(t, types.InvalidBorrower, err.ErrorCode)
	})

	t.Run("re-registration resets the profile", func(t *testing.T) {
		seedAssessmentFixture(t, h)
		_, aerr := h.service.AssessBorrowingRisk(ctx, "alice", "alice", "STX", 10, 2000)
		require.Nil(t, aerr)

		require.Nil(t, h.service.RegisterBorrower(ctx, testOwnerID, "alice"))

		profile, err := h.db.GetBorrowerProfile(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(types.NeutralCreditScore), profile.CreditScore)
		assert.Zero(t, profile.TotalBorrowed)
		assert.Zero(t, profile.DefaultHistory)
	})
}

func TestUpdateAssetPrice(t *testing.T) {
	h := newTestHarness(t)
	ctx := t.Context()

	t.Run("owner only", func(t *testing.T) {
		err := h.service.UpdateAssetPrice(ctx, "mallory", "STX", 200, 10)
		require.NotNil(t, err)
		assert.Equal(t, http.StatusForbidden, err.StatusCode)
	})

	t.Run("derives risk weight from volatility", func(t *testing.T) {
		require.Nil(t, h.service.UpdateAssetPrice(ctx, testOwnerID, "STX", 200, 10))
		require.Nil(t, h.service.UpdateAssetPrice(ctx, testOwnerID, "MEME", 5, 60))

		calm, err := h.db.GetCollateralAsset(ctx, "STX")
		require.NoError(t, err)
		assert.Equal(t, uint64(types.BaseRiskWeight), calm.RiskWeight)
		assert.Equal(t, uint64(types.ResetLiquidityScore), calm.LiquidityScore)

		volatile, err := h.db.GetCollateralAsset(ctx, "MEME")
		require.NoError(t, err)
		assert.Equal(t, uint64(types.PenalizedRiskWeight), volatile.RiskWeight)
	})

	t.Run("rejects malformed symbols", func(t *testing.T) {
		err := h.service.UpdateAssetPrice(ctx, testOwnerID, "stx!", 200, 10)
		require.NotNil(t, err)
		assert.Equal(t, types.ValidationError, err.ErrorCode)
	})
}

func TestGetBorrowerPositions(t *testing.T) {
	h := newTestHarness(t)
	ctx := t.Context()
	seedAssessmentFixture(t, h)
	require.Nil(t, h.service.UpdateAssetPrice(ctx, testOwnerID, "BTC", 60000, 20))

	_, err := h.service.AssessBorrowingRisk(ctx, "alice", "alice", "STX", 10, 2000)
	require.Nil(t, err)
	_, err = h.service.AssessBorrowingRisk(ctx, "alice", "alice", "BTC", 100, 90000)
	require.Nil(t, err)

	t.Run("all positions", func(t *testing.T) {
		positions, perr := h.service.GetBorrowerPositions(ctx, "alice", "")
		require.Nil(t, perr)
		assert.Len(t, positions, 2)
	})

	t.Run("filtered by asset", func(t *testing.T) {
		positions, perr := h.service.GetBorrowerPositions(ctx, "alice", "BTC")
		require.Nil(t, perr)
		require.Len(t, positions, 1)
		assert.Equal(t, "BTC", positions[0].AssetSymbol)
	})

	t.Run("no position for the asset", func(t *testing.T) {
		positions, perr := h.service.GetBorrowerPositions(ctx, "alice", "ETH")
		require.Nil(t, perr)
		assert.Empty(t, positions)
	})
}
