package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeCodePostsCredentialsToProvider(t *testing.T) {
	var got map[string]string
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "yeah"}`))
	}))
	defer provider.Close()

	client := &OAuthClient{ServerURL: provider.URL, ClientID: "abc", ClientSecret: "cake"}
	token, err := client.TradeCode(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "yeah", token)
	assert.Equal(t, map[string]string{
		"client_id":     "abc",
		"client_secret": "cake",
		"code":          "1234",
	}, got)
}

func TestTradeCodeRejectedByProvider(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errno": "999"}`, http.StatusBadRequest)
	}))
	defer provider.Close()

	client := &OAuthClient{ServerURL: provider.URL}
	_, err := client.TradeCode(context.Background(), "1234")
	assert.ErrorIs(t, err, ErrAuthInvalid)
}

func TestTradeCodeUnreachableProvider(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	provider.Close() // nothing listens here anymore

	client := &OAuthClient{ServerURL: provider.URL}
	_, err := client.TradeCode(context.Background(), "1234")
	assert.ErrorIs(t, err, ErrAuthUnreachable)
}

func TestVerifyTokenResolvesUser(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/verify", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user": "bob"}`))
	}))
	defer provider.Close()

	client := &OAuthClient{ServerURL: provider.URL}
	user, err := client.ResolveIdentity(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, "bob", user)
}

func TestVerifyTokenWithoutUserIsInvalid(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer provider.Close()

	client := &OAuthClient{ServerURL: provider.URL}
	_, err := client.VerifyToken(context.Background(), "secret")
	assert.ErrorIs(t, err, ErrAuthInvalid)
}

func TestStaticAuthenticator(t *testing.T) {
	auth := StaticAuthenticator{"secret": "bob"}
	user, err := auth.ResolveIdentity(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, "bob", user)

	_, err = auth.ResolveIdentity(context.Background(), "wrong")
	assert.ErrorIs(t, err, ErrAuthInvalid)
}

func TestParseStaticTokens(t *testing.T) {
	auth := ParseStaticTokens("t1:bob, t2:alice,,broken,:nouser")
	assert.Equal(t, StaticAuthenticator{"t1": "bob", "t2": "alice"}, auth)
}
