package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklend-io/risk-engine/internal/db/model"
)

type registerBorrowerRequest struct {
	BorrowerID string `json:"borrowerId"`
}

type creditScoreResponse struct {
	BorrowerID  string `json:"borrowerId"`
	CreditScore uint64 `json:"creditScore"`
}

type positionResponse struct {
	BorrowerID       string `json:"borrowerId"`
	AssetSymbol      string `json:"assetSymbol"`
	BorrowedAmount   uint64 `json:"borrowedAmount"`
	CollateralAmount uint64 `json:"collateralAmount"`
	LtvRatio         uint64 `json:"ltvRatio"`
	HealthFactor     uint64 `json:"healthFactor"`
	CreatedAt        uint64 `json:"createdAt"`
}

func newPositionResponse(position *model.LendingPosition) positionResponse {
	return positionResponse{
		BorrowerID:       position.BorrowerID,
		AssetSymbol:      position.AssetSymbol,
		BorrowedAmount:   position.BorrowedAmount,
		CollateralAmount: position.CollateralAmount,
		LtvRatio:         position.LtvRatio,
		HealthFactor:     position.HealthFactor,
		CreatedAt:        position.CreatedAt,
	}
}

func (s *Server) handleRegisterBorrower(w http.ResponseWriter, r *http.Request) {
	var req registerBorrowerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.service.RegisterBorrower(r.Context(), callerID(r), req.BorrowerID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]string{"borrowerId": req.BorrowerID})
}

func (s *Server) handleCreditScore(w http.ResponseWriter, r *http.Request) {
	borrowerID := chi.URLParam(r, "id")

	score, err := s.service.CreditScore(r.Context(), borrowerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, creditScoreResponse{
		BorrowerID:  borrowerID,
		CreditScore: score,
	})
}

func (s *Server) handleBorrowerPositions(w http.ResponseWriter, r *http.Request) {
	borrowerID := chi.URLParam(r, "id")
	assetSymbol := r.URL.Query().Get("asset")

	positions, err := s.service.GetBorrowerPositions(r.Context(), borrowerID, assetSymbol)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]positionResponse, 0, len(positions))
	for _, position := range positions {
		resp = append(resp, newPositionResponse(position))
	}
	writeJSON(w, r, http.StatusOK, resp)
}
