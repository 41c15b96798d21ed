package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/user"
	"fitChallengeAPI/services"
)

const (
	maxWebhookBody      = int64(65536)
	webhookClockSkew    = 5 * time.Minute
	clerkSecretPrefix   = "whsec_"
	svixSignaturePrefix = "v1,"
)

type WebhookHandler struct {
	userService *services.UserService
	secret      []byte
	clock       clock.Clock
}

// NewWebhookHandler takes the Clerk signing secret as shown in the Clerk
// dashboard, with or without the whsec_ prefix.
func NewWebhookHandler(userService *services.UserService, signingSecret string, clk clock.Clock) (*WebhookHandler, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(signingSecret, clerkSecretPrefix))
	if err != nil {
		return nil, fmt.Errorf("invalid CLERK_WEBHOOK_SECRET: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("CLERK_WEBHOOK_SECRET is empty")
	}
	return &WebhookHandler{
		userService: userService,
		secret:      key,
		clock:       clk,
	}, nil
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if err := h.verifySignature(r.Header, body); err != nil {
		log.Printf("HandleClerkWebhook: rejected: %v", err)
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event user.ClerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	log.Printf("Received webhook event: %s", event.Type)

	switch event.Type {
	case "user.created", "user.updated":
		var data user.ClerkUserData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
			return
		}
		u, created, err := h.userService.SyncClerkUser(r.Context(), &data)
		if err != nil {
			respondWithServiceError(w, "HandleClerkWebhook", err)
			return
		}
		if created {
			log.Printf("Created user %s for Clerk ID %s", u.ID, data.ID)
		}
	default:
		log.Printf("Unhandled webhook event type: %s", event.Type)
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// verifySignature checks the svix headers Clerk sends. The signature header
// may carry several space separated "v1,<base64>" entries.
func (h *WebhookHandler) verifySignature(header http.Header, body []byte) error {
	id := header.Get("svix-id")
	ts := header.Get("svix-timestamp")
	signatures := header.Get("svix-signature")
	if id == "" || ts == "" || signatures == "" {
		return fmt.Errorf("missing signature headers")
	}

	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("bad timestamp %q", ts)
	}
	sent := time.Unix(sec, 0)
	if skew := h.clock.Now().Sub(sent); skew > webhookClockSkew || skew < -webhookClockSkew {
		return fmt.Errorf("timestamp %s outside tolerance", sent.UTC().Format(time.RFC3339))
	}

	mac := hmac.New(sha256.New, h.secret)
	fmt.Fprintf(mac, "%s.%s.", id, ts)
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, sig := range strings.Fields(signatures) {
		raw, ok := strings.CutPrefix(sig, svixSignaturePrefix)
		if !ok {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			continue
		}
		if hmac.Equal(got, expected) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}
