package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"athena-be/internal/domain"
	"athena-be/internal/service"
	"athena-be/pkg/errors"
	"athena-be/pkg/logger"

	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// UserContextKey is the key for user information in context
	UserContextKey ContextKey = "user"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"

	requestIDHeader = "X-Request-ID"
)

// Auth rejects requests without a valid bearer token
func Auth(authService service.AuthService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Authorization header is required"), logger)
				return
			}

			userProfile, appErr := authenticate(r.Context(), authService, authHeader, logger)
			if appErr != nil {
				writeErrorResponse(w, r, appErr, logger)
				return
			}

			logger.WithField("user_id", userProfile.Sub).Debug("User authenticated successfully")
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userProfile)))
		})
	}
}

// OptionalAuth creates an optional authentication middleware
// If token is provided, it validates it, otherwise continues without authentication
func OptionalAuth(authService service.AuthService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			userProfile, appErr := authenticate(r.Context(), authService, authHeader, logger)
			if appErr != nil {
				writeErrorResponse(w, r, appErr, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userProfile)))
		})
	}
}

func authenticate(ctx context.Context, authService service.AuthService, authHeader string, logger *logger.Logger) (*domain.UserProfile, *errors.AppError) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errors.NewAuthenticationError("Invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return nil, errors.NewAuthenticationError("Token is required")
	}

	userProfile, err := authService.ValidateToken(ctx, token)
	if err != nil {
		logger.WithError(err).Warn("Token validation failed")
		if appErr, ok := errors.As(err); ok {
			return nil, appErr
		}
		return nil, errors.NewAuthenticationError("Invalid or expired token")
	}
	return userProfile, nil
}

// WithUser stores the caller profile in ctx
func WithUser(ctx context.Context, user *domain.UserProfile) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext returns the authenticated caller, or nil
func UserFromContext(ctx context.Context) *domain.UserProfile {
	if user, ok := ctx.Value(UserContextKey).(*domain.UserProfile); ok {
		return user
	}
	return nil
}

// RequestID tags each request with an id, reusing an incoming X-Request-ID
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set(requestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the id set by RequestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, r *http.Request, appErr *errors.AppError, logger *logger.Logger) {
	logger.WithError(appErr).WithField("request_id", RequestIDFromContext(r.Context())).Debug("Request rejected")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(errors.ErrorResponse{Error: appErr.Message})
}
