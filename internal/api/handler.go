package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/types"
)

// CallerIDHeader carries the explicit caller credential every operation
// receives. Authorization never derives from ambient connection state.
const CallerIDHeader = "X-Caller-Id"

type errorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func callerID(r *http.Request) string {
	return r.Header.Get(CallerIDHeader)
}

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err *types.Error) {
	if err.StatusCode >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
	} else {
		log.Ctx(r.Context()).Warn().Err(err).
			Str("error_code", err.ErrorCode.String()).
			Msg("Request rejected")
	}

	writeJSON(w, r, err.StatusCode, errorResponse{
		ErrorCode: err.ErrorCode.String(),
		Message:   err.Error(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, types.NewErrorWithMsg(
			http.StatusBadRequest, types.BadRequest, "invalid request body",
		))
		return false
	}
	return true
}
