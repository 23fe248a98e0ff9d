//go:build integration

package e2etest

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklend-io/risk-engine/internal/queue"
	"github.com/stacklend-io/risk-engine/internal/types"
)

func TestBorrowingAssessmentOverHTTP(t *testing.T) {
	tm := StartManager(t)

	resp := tm.request(t, http.MethodPost, "/v1/borrowers", testOwnerID,
		map[string]string{"borrowerId": "alice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = tm.request(t, http.MethodPut, "/v1/assets/STX", testOwnerID,
		map[string]uint64{"price": 200, "volatility": 10})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assess := func(borrow, collateral uint64) *http.Response {
		return tm.request(t, http.MethodPost, "/v1/risk/assessments", "alice", map[string]any{
			"borrowerId":       "alice",
			"assetSymbol":      "STX",
			"borrowAmount":     borrow,
			"collateralAmount": collateral,
		})
	}

	t.Run("admissible ltv with weak health is rejected", func(t *testing.T) {
		resp := assess(1000, 2000)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var body struct {
			ErrorCode string `json:"errorCode"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, types.RiskTooHigh.String(), body.ErrorCode)
	})

	t.Run("health factor just above liquidation still fails", func(t *testing.T) {
		resp := assess(100, 2000)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("small borrow is approved and published", func(t *testing.T) {
		resp := assess(10, 2000)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		result := decodeInto[types.AssessmentResult](t, resp)
		assert.True(t, result.Approved)
		assert.Equal(t, uint64(50), result.RiskScore)
		assert.Equal(t, uint64(0), result.LtvRatio)
		assert.Equal(t, uint64(235), result.HealthFactor)

		var event queue.AssessmentEvent
		require.NoError(t, json.Unmarshal(tm.ConsumeOne(t, queue.AssessmentEventsQueue), &event))
		assert.Equal(t, "alice", event.BorrowerID)
		assert.Equal(t, "STX", event.AssetSymbol)
		assert.Equal(t, uint64(10), event.BorrowedAmount)
		assert.Equal(t, uint64(2000), event.CollateralAmount)
		assert.Equal(t, queue.SchemaVersion, event.SchemaVersion)
	})

	t.Run("stored position is readable", func(t *testing.T) {
		resp := tm.request(t, http.MethodGet, "/v1/borrowers/alice/positions", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		positions := decodeInto[[]map[string]any](t, resp)
		require.Len(t, positions, 1)
		assert.Equal(t, "STX", positions[0]["assetSymbol"])
	})
}

func TestMonitoringCycleOverHTTP(t *testing.T) {
	tm := StartManager(t)

	resp := tm.request(t, http.MethodPut, "/v1/assets/STX", testOwnerID,
		map[string]uint64{"price": 200, "volatility": 10})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = tm.request(t, http.MethodPost, "/v1/risk/assessments", "bob", map[string]any{
		"borrowerId":       "bob",
		"assetSymbol":      "STX",
		"borrowAmount":     uint64(10),
		"collateralAmount": uint64(2000),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tm.ConsumeOne(t, queue.AssessmentEventsQueue)

	t.Run("indicators only run", func(t *testing.T) {
		resp := tm.request(t, http.MethodPost, "/v1/risk/monitoring", "", types.MonitoringOptions{
			MonitoringIntensity: 25,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		report := decodeInto[types.MonitoringReport](t, resp)
		assert.True(t, report.MonitoringComplete)
		assert.Nil(t, report.Liquidation)
		assert.Nil(t, report.Stress)
		assert.Nil(t, report.Correlation)
		assert.Equal(t, uint64(2000), report.Indicators.TotalValueLocked)

		var event queue.MonitoringReportEvent
		require.NoError(t, json.Unmarshal(tm.ConsumeOne(t, queue.MonitoringReportsQueue), &event))
		assert.Equal(t, uint64(2000), event.TotalValueLocked)
		assert.False(t, event.EmergencyMode)
	})

	t.Run("state and latest report are served", func(t *testing.T) {
		resp := tm.request(t, http.MethodGet, "/v1/risk/state", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		state := decodeInto[map[string]any](t, resp)
		assert.Equal(t, false, state["emergencyMode"])
		assert.Equal(t, types.ModeNormal.String(), state["mode"])

		resp = tm.request(t, http.MethodGet, "/v1/risk/reports/latest", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestPriceFeedIngestion(t *testing.T) {
	tm := StartManager(t)

	t.Run("queued price update lands in the store", func(t *testing.T) {
		tm.PublishPriceUpdate(t, queue.PriceUpdateEvent{
			SchemaVersion: queue.SchemaVersion,
			Symbol:        "MEME",
			Price:         5,
			Volatility:    60,
		})

		require.Eventually(t, func() bool {
			resp := tm.request(t, http.MethodGet, "/v1/assets/MEME/volatility-risk", "", nil)
			if resp.StatusCode != http.StatusOK {
				return false
			}
			body := decodeInto[map[string]any](t, resp)
			return body["volatilityRisk"] == float64(types.HighVolatilityRisk)
		}, eventuallyWaitTimeOut, eventuallyPollTime)
	})

	t.Run("oracle refresh picks up stub tickers", func(t *testing.T) {
		tm.Oracle.SetTicker("ORCL", 300, 5)

		require.Eventually(t, func() bool {
			resp := tm.request(t, http.MethodGet, "/v1/assets/ORCL/volatility-risk", "", nil)
			if resp.StatusCode != http.StatusOK {
				return false
			}
			body := decodeInto[map[string]any](t, resp)
			return body["volatilityRisk"] == float64(0)
		}, eventuallyWaitTimeOut, eventuallyPollTime)
	})
}
