package handlers

import (
	"context"
	"net/http"
	"time"

	"fitChallengeAPI/internal/types/challenge"
	"fitChallengeAPI/services"
)

type ProgressHandler struct {
	progressService *services.ProgressService
}

func NewProgressHandler(progressService *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
	}
}

// GetLedger answers POST /challenge-details with the raw days map.
func (h *ProgressHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req challenge.LedgerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ledger, err := h.progressService.GetLedger(ctx, &req)
	if err != nil {
		respondWithServiceError(w, "GetLedger", err)
		return
	}

	respondWithJSON(w, http.StatusOK, challenge.LedgerResponse{
		ChallengeID: ledger.ChallengeID.String(),
		UserID:      ledger.UserID.String(),
		Days:        ledger.Days,
	})
}

func (h *ProgressHandler) UpdateDay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req challenge.UpdateDayRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.progressService.UpdateDay(ctx, &req); err != nil {
		respondWithServiceError(w, "UpdateDay", err)
		return
	}

	respondWithJSON(w, http.StatusOK, messageResponse{Message: "Value updated successfully"})
}
