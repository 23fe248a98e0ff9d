package api

import (
	"net/http"

	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/types"
)

type assessmentRequest struct {
	BorrowerID       string `json:"borrowerId"`
	AssetSymbol      string `json:"assetSymbol"`
	BorrowAmount     uint64 `json:"borrowAmount"`
	CollateralAmount uint64 `json:"collateralAmount"`
}

type protocolStateResponse struct {
	TotalBorrowed        uint64 `json:"totalBorrowed"`
	TotalCollateralValue uint64 `json:"totalCollateralValue"`
	RiskScore            uint64 `json:"riskScore"`
	EmergencyMode        bool   `json:"emergencyMode"`
	Mode                 string `json:"mode"`
	LastMonitoredAt      uint64 `json:"lastMonitoredAt"`
	NextCycleAt          uint64 `json:"nextCycleAt"`
}

type reportResponse struct {
	GeneratedAt int64                  `json:"generatedAt"`
	LogicalTime uint64                 `json:"logicalTime"`
	Report      types.MonitoringReport `json:"report"`
}

func (s *Server) handleAssessBorrowingRisk(w http.ResponseWriter, r *http.Request) {
	var req assessmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.AssessBorrowingRisk(
		r.Context(), callerID(r),
		req.BorrowerID, req.AssetSymbol,
		req.BorrowAmount, req.CollateralAmount,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handleRunMonitoring runs one monitoring cycle on demand. Without a body
// the run uses the configured toggle defaults.
func (s *Server) handleRunMonitoring(w http.ResponseWriter, r *http.Request) {
	opts := s.service.DefaultMonitoringOptions()
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &opts) {
			return
		}
	}

	report, err := s.service.ExecuteRiskMonitoring(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleProtocolState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetProtocolState(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, newProtocolStateResponse(state))
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.GetLatestMonitoringReport(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, reportResponse{
		GeneratedAt: doc.GeneratedAt,
		LogicalTime: doc.LogicalTime,
		Report:      doc.Report,
	})
}

func newProtocolStateResponse(state *model.ProtocolState) protocolStateResponse {
	return protocolStateResponse{
		TotalBorrowed:        state.TotalBorrowed,
		TotalCollateralValue: state.TotalCollateralValue,
		RiskScore:            state.RiskScore,
		EmergencyMode:        state.EmergencyMode,
		Mode:                 state.Mode().String(),
		LastMonitoredAt:      state.LastMonitoredAt,
		NextCycleAt:          state.NextCycleAt,
	}
}
