package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Ultramusic201/Anzu/internal/core"
	"github.com/Ultramusic201/Anzu/internal/fx"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the detail goes to the log
// only.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrRateNotSet):
		status = http.StatusConflict
	case errors.Is(err, fx.ErrFetchFailed):
		status = http.StatusBadGateway
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrLimitOrder),
		errors.Is(err, core.ErrCreditMismatch),
		errors.Is(err, core.ErrInvalidCadence),
		errors.Is(err, core.ErrEmptySelection),
		errors.Is(err, core.ErrCategoryForIncome),
		errors.Is(err, core.ErrUnknownCategory):
		status = http.StatusBadRequest
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	respondJSON(w, status, errorBody{Error: err.Error()})
}
