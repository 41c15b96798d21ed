package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"fitChallengeAPI/services"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

type messageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// decodeJSON reads the request body into v. An empty body leaves v at its
// zero value so the service reports which fields are missing.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// respondWithServiceError maps service errors to status codes. Internal
// errors are logged and never shown to the client.
func respondWithServiceError(w http.ResponseWriter, op string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrValidation):
		respondWithError(w, http.StatusBadRequest, publicMessage(err, services.ErrValidation))
	case errors.Is(err, services.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, publicMessage(err, services.ErrUnauthorized))
	case errors.Is(err, services.ErrNotFound):
		respondWithError(w, http.StatusNotFound, publicMessage(err, services.ErrNotFound))
	case errors.Is(err, services.ErrConflict):
		respondWithError(w, http.StatusConflict, publicMessage(err, services.ErrConflict))
	default:
		log.Printf("%s: %v", op, err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// publicMessage strips the trailing sentinel from "Challenge not found: not found".
func publicMessage(err, sentinel error) string {
	return strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
}
