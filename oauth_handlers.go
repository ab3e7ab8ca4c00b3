package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
)

// OAuthHandler exposes the authorization-code exchange endpoint. It sits
// outside the authenticated routes: callers trade a provider code for the
// access token they will authenticate with afterwards.
type OAuthHandler struct {
	client *OAuthClient
	logger *log.Logger
}

// NewOAuthHandler creates an OAuthHandler backed by client.
func NewOAuthHandler(client *OAuthClient, logger *log.Logger) *OAuthHandler {
	return &OAuthHandler{client: client, logger: logger}
}

// handleTradeCode processes POST /oauth/token.
func (h *OAuthHandler) handleTradeCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidPayload, "Invalid parameters",
			"an authorization code is required")
		return
	}
	token, err := h.client.TradeCode(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, ErrAuthInvalid) {
			writeError(w, http.StatusBadRequest, CodeInvalidPayload, "Invalid parameters",
				"the authorization code could not be exchanged")
			return
		}
		h.logger.Printf("error trading authorization code: %v", err)
		writeError(w, http.StatusServiceUnavailable, CodeUndefined, "Service Unavailable",
			"The identity provider could not be reached.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}
