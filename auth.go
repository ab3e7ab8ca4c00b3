package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Authenticator resolves a bearer credential to a user id. The resolved id
// is the only identity the store ever partitions by; caller-supplied owner
// fields are discarded.
type Authenticator interface {
	ResolveIdentity(ctx context.Context, credential string) (string, error)
}

// OAuthClient talks to a remote OAuth2 provider: it trades authorization
// codes for access tokens and verifies tokens back into user ids.
type OAuthClient struct {
	ServerURL    string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

func (c *OAuthClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *OAuthClient) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ServerURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: provider returned %d", ErrAuthInvalid, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// TradeCode exchanges an authorization code for an access token.
func (c *OAuthClient) TradeCode(ctx context.Context, code string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"code":          code,
	}
	if err := c.post(ctx, "/token", body, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: no access token in provider response", ErrAuthInvalid)
	}
	return out.AccessToken, nil
}

// VerifyToken resolves an access token to the user id it was issued for.
func (c *OAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	var out struct {
		User string `json:"user"`
	}
	if err := c.post(ctx, "/verify", map[string]string{"token": token}, &out); err != nil {
		return "", err
	}
	if out.User == "" {
		return "", fmt.Errorf("%w: no user in provider response", ErrAuthInvalid)
	}
	return out.User, nil
}

// ResolveIdentity implements Authenticator.
func (c *OAuthClient) ResolveIdentity(ctx context.Context, credential string) (string, error) {
	return c.VerifyToken(ctx, credential)
}

// StaticAuthenticator maps fixed bearer tokens to user ids. Used in
// development and tests, where no remote provider is available.
type StaticAuthenticator map[string]string

// ResolveIdentity implements Authenticator.
func (a StaticAuthenticator) ResolveIdentity(_ context.Context, credential string) (string, error) {
	if user, ok := a[credential]; ok {
		return user, nil
	}
	return "", ErrAuthInvalid
}

// ParseStaticTokens parses a comma-separated list of token:user pairs.
func ParseStaticTokens(s string) StaticAuthenticator {
	tokens := make(StaticAuthenticator)
	for _, pair := range strings.Split(s, ",") {
		token, user, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || user == "" {
			continue
		}
		tokens[token] = user
	}
	return tokens
}
