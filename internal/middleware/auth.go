package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"captionclash/internal/domain"
	"captionclash/internal/service"
	"captionclash/pkg/errors"
	"captionclash/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// IdentityContextKey is the key for the resolved caller identity
	IdentityContextKey ContextKey = "identity"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// IdentityFromContext returns the caller identity, or nil when the request
// carried no valid token.
func IdentityFromContext(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(IdentityContextKey).(*domain.Identity)
	return identity
}

// Auth creates an authentication middleware that requires a valid bearer token.
func Auth(authService service.AuthService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, appErr := resolveIdentity(r, authService, log)
			if appErr != nil {
				writeErrorResponse(w, appErr, log)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the identity when a token is present and continues
// anonymously when it is not.
func OptionalAuth(authService service.AuthService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, appErr := resolveIdentity(r, authService, log)
			if appErr != nil {
				writeErrorResponse(w, appErr, log)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveIdentity(r *http.Request, authService service.AuthService, log *logger.Logger) (*domain.Identity, *errors.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.NewAuthenticationError("Authorization header is required")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errors.NewAuthenticationError("Invalid authorization header format")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return nil, errors.NewAuthenticationError("Token is required")
	}

	identity, err := authService.ParseToken(r.Context(), token)
	if err != nil {
		log.WithError(err).Debug("Token validation failed")
		return nil, errors.NewAuthenticationError("Invalid or expired token")
	}

	return identity, nil
}

// AdminKey guards moderator endpoints with a static API key carried in the
// X-Admin-Key header.
func AdminKey(key string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Admin API is not configured"), log)
				return
			}

			provided := r.Header.Get("X-Admin-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid admin key"), log)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID creates a middleware that adds a unique request ID to each request
func RequestID(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := generateRequestID()

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			r = r.WithContext(ctx)

			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r)
		})
	}
}

func generateRequestID() string {
	return fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
}

// writeErrorResponse writes an error response in the API's error shape.
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, log *logger.Logger) {
	log.WithError(appErr).Debug("Request rejected")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	fmt.Fprintf(w, `{"status":"error","message":%q}`, appErr.Message)
}
