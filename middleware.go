package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"
)

// loggingMiddleware logs HTTP requests with method, path, status, and duration.
func loggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{w, http.StatusOK}
			next.ServeHTTP(rw, r)
			logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.statusCode, time.Since(start))
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and writes the header.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type contextKey string

const userIDKey contextKey = "userID"

// userIDFrom returns the authenticated user id stored in the request context.
func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// authMiddleware resolves the caller's identity from the Authorization bearer
// token and stores it in the request context. A missing, invalid, or
// unverifiable credential terminates the request with a 401 body.
func authMiddleware(auth Authenticator, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, prefix) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="recordstore"`)
				writeUnauthorized(w)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
			userID, err := auth.ResolveIdentity(r.Context(), token)
			if err != nil {
				if errors.Is(err, ErrAuthUnreachable) {
					logger.Printf("identity provider unreachable: %v", err)
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="recordstore", error="invalid_token"`)
				writeUnauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, CodeMissingAuthToken, "Unauthorized",
		"Please authenticate yourself to use this endpoint.")
}
