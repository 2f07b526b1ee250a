package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pillarscan/internal/constants"
	apperrors "pillarscan/internal/errors"
	loggerpkg "pillarscan/internal/logger"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

type contextKey string

const (
	loggerContextKey contextKey = "logger"
	userIDContextKey contextKey = "userID"
)

// generateRequestID generates a random request ID using crypto/rand.
func generateRequestID() string {
	b := make([]byte, constants.RequestIDByteSize)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b)
}

// requestIDMiddleware attaches a request ID and a request-scoped logger to the
// context. Priority: existing request ID, Lambda request ID, generated one.
func (r *Router) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestID := loggerpkg.GetRequestID(req.Context())

		if requestID == "" {
			if lc, ok := lambdacontext.FromContext(req.Context()); ok && lc.AwsRequestID != "" {
				requestID = lc.AwsRequestID
			}
		}

		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := loggerpkg.WithRequestID(req.Context(), requestID)
		log := r.logger.With("requestID", requestID)
		ctx = context.WithValue(ctx, loggerContextKey, log)

		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// requestTimeoutMiddleware bounds each request with its own deadline.
func (r *Router) requestTimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()

			req = req.WithContext(ctx)
			next.ServeHTTP(w, req)

			if ctx.Err() == context.DeadlineExceeded {
				logger := r.getLoggerFromContext(req.Context())
				logger.Warn("request timeout exceeded", "request", map[string]any{
					"method":  req.Method,
					"path":    req.URL.Path,
					"timeout": timeout,
				})
			}
		})
	}
}

// corsMiddleware handles CORS headers for cross-origin requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, req)
	})
}

// setContentTypeJSONMiddleware sets Content-Type to application/json for all
// responses.
func setContentTypeJSONMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, req)
	})
}

// authenticateRequestMiddleware resolves the bearer token to a user ID
// through the Verifier and stores it in the request context.
func (r *Router) authenticateRequestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logger := r.getLoggerFromContext(req.Context())

		token := bearerToken(req)
		if token == "" {
			writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "bearer token is required")
			return
		}

		userID, err := r.verifier.Verify(req.Context(), token)
		if err != nil {
			statusCode := apperrors.GetStatusCode(err)
			if statusCode < 400 || statusCode >= 600 {
				statusCode = http.StatusUnauthorized
			}
			writeErrorResponse(w, statusCode, "Unauthorized", apperrors.GetErrorMessage(err))
			return
		}

		logger.Debug("request authenticated", "user_id", userID)

		ctx := context.WithValue(req.Context(), userIDContextKey, userID)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// requestLoggingMiddleware logs incoming requests and their responses.
func (r *Router) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logger := r.getLoggerFromContext(req.Context())
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		attrs := []any{"request", map[string]string{
			"method":     req.Method,
			"path":       req.URL.Path,
			"remoteAddr": req.RemoteAddr,
		}}
		attrs = append(attrs, loggerpkg.GetDeadlineInfo(req.Context())...)
		logger.Info("processing incoming client request", attrs...)

		next.ServeHTTP(wrapped, req)

		logger.Info("response sent to client", "response", map[string]any{
			"status":   wrapped.statusCode,
			"duration": time.Since(start).String(),
		})
	})
}

func bearerToken(req *http.Request) string {
	header := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// requireUserID extracts the authenticated user ID from the request context.
// Absence means the auth middleware did not run; the handler bails out.
func (r *Router) requireUserID(w http.ResponseWriter, req *http.Request) (string, bool) {
	userID, ok := req.Context().Value(userIDContextKey).(string)
	if !ok || userID == "" {
		writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "user not found in context")
		return "", false
	}
	return userID, true
}

// getLoggerFromContext returns the request-scoped logger or falls back to the
// router's logger.
func (r *Router) getLoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return r.logger
}
