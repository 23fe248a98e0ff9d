package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type updateAssetRequest struct {
	Price      uint64 `json:"price"`
	Volatility uint64 `json:"volatility"`
}

type volatilityRiskResponse struct {
	AssetSymbol    string `json:"assetSymbol"`
	VolatilityRisk uint64 `json:"volatilityRisk"`
}

func (s *Server) handleUpdateAssetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var req updateAssetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.service.UpdateAssetPrice(
		r.Context(), callerID(r), symbol, req.Price, req.Volatility,
	); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"symbol": symbol})
}

func (s *Server) handleVolatilityRisk(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	risk, err := s.service.VolatilityRisk(r.Context(), symbol)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, volatilityRiskResponse{
		AssetSymbol:    symbol,
		VolatilityRisk: risk,
	})
}
