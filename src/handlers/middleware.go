// src/handlers/middleware.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/security/validation"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
	sessionIDContextKey contextKey = "sessionID"
)

// SessionIDHeader carries the anonymous session identifier. Uploads and
// queries are scoped to it; there are no user accounts.
const SessionIDHeader = "X-Session-ID"

// ContextualLoggerMiddleware creates a logger with a requestID for each request.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionMiddleware resolves the caller's session from the X-Session-ID
// header, minting a fresh one when absent, and echoes it back so clients can
// persist it.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger := logger.FromContext(r.Context())

		sessionID := r.Header.Get(SessionIDHeader)
		if sessionID == "" {
			sessionID = uuid.New().String()
			ctxLogger.Debug("Minted new session", "sessionID", sessionID)
		} else if err := validation.ValidateSessionID(sessionID); err != nil {
			ctxLogger.Warn("Rejected malformed session ID", "error", err)
			sendJSONError(w, "Invalid session ID", http.StatusBadRequest)
			return
		}
		w.Header().Set(SessionIDHeader, sessionID)

		enrichedLogger := ctxLogger.With(slog.String("sessionID", sessionID))
		ctx := logger.ToContext(r.Context(), enrichedLogger)
		ctx = context.WithValue(ctx, sessionIDContextKey, sessionID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionIDFromContext retrieves the session ID placed by SessionMiddleware.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDContextKey).(string)
	return sessionID, ok && sessionID != ""
}
