package handlers

import (
	"context"
	"net/http"
	"time"

	"fitChallengeAPI/internal/types/challenge"
	"fitChallengeAPI/middleware"
	"fitChallengeAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ChallengeHandler struct {
	challengeService  *services.ChallengeService
	enrollmentService *services.EnrollmentService
	progressService   *services.ProgressService
}

func NewChallengeHandler(challengeService *services.ChallengeService, enrollmentService *services.EnrollmentService, progressService *services.ProgressService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService:  challengeService,
		enrollmentService: enrollmentService,
		progressService:   progressService,
	}
}

func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	challenges, err := h.challengeService.ListChallenges(ctx)
	if err != nil {
		respondWithServiceError(w, "ListChallenges", err)
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req challenge.CreateChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.challengeService.CreateChallenge(ctx, &req)
	if err != nil {
		respondWithServiceError(w, "CreateChallenge", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

// JoinChallenge enrolls the caller. The overwrite path answers 200, a new
// ledger answers 201 with its id.
func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req challenge.JoinChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "Challenge ID is required")
		return
	}
	challengeID, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challengeId")
		return
	}

	enrollment, err := h.enrollmentService.Enroll(ctx, userID, challengeID, req.Overwrite)
	if err != nil {
		respondWithServiceError(w, "JoinChallenge", err)
		return
	}

	if enrollment.Path == services.EnrollOverwrite {
		respondWithJSON(w, http.StatusOK, messageResponse{Message: "Challenge updated successfully"})
		return
	}
	respondWithJSON(w, http.StatusCreated, messageResponse{
		Message: "Joined challenge successfully",
		Data:    enrollment.Ledger.ID,
	})
}

func (h *ChallengeHandler) ChallengeQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	challengeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	invite, err := h.challengeService.ChallengeInvite(ctx, challengeID)
	if err != nil {
		respondWithServiceError(w, "ChallengeQR", err)
		return
	}

	respondWithJSON(w, http.StatusOK, invite)
}

func (h *ChallengeHandler) ProgressSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	summary, err := h.progressService.Summary(ctx, userID, challengeID)
	if err != nil {
		respondWithServiceError(w, "ProgressSummary", err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
