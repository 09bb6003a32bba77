package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"athena-be/internal/domain"
	"athena-be/internal/service"
	"athena-be/pkg/errors"
	"athena-be/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Service implements the AuthService interface over HMAC-signed JWTs
type Service struct {
	secret []byte
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new auth service
func NewService(secret string, logger *logger.Logger) service.AuthService {
	return &Service{
		secret: []byte(secret),
		logger: logger.Named("auth"),
		now:    time.Now,
	}
}

// ValidateToken verifies signature and expiry and returns the caller profile
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.UserProfile, error) {
	if len(s.secret) == 0 {
		s.logger.Error("AUTH_JWT_SECRET not configured")
		return nil, errors.NewAuthenticationError("JWT validation not configured")
	}
	if !isJWTToken(tokenString) {
		return nil, errors.NewAuthenticationError("Unrecognized token format")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Verify the signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		s.logger.WithError(err).Debug("Failed to parse/validate JWT token")
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAuthenticationError("Token has expired")
		}
		return nil, errors.NewAuthenticationError("Invalid JWT token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.NewAuthenticationError("Invalid JWT token")
	}

	profile := &domain.UserProfile{
		Sub:     getStringValue(claims, "sub"),
		Email:   getStringValue(claims, "email"),
		Name:    getStringValue(claims, "name"),
		Picture: getStringValue(claims, "picture"),
		Wallet:  getStringValue(claims, "wallet_address"),
	}

	// Provider-specific metadata overrides nothing that is already set
	if userMeta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		if profile.Name == "" {
			profile.Name = getStringValue(userMeta, "name")
		}
		if profile.Picture == "" {
			profile.Picture = getStringValue(userMeta, "avatar_url")
		}
	}

	if profile.Sub == "" && profile.Wallet != "" {
		profile.Sub = profile.Wallet
	}
	if profile.Sub == "" {
		s.logger.Error("No user identifier found in JWT token")
		return nil, errors.NewAuthenticationError("Invalid JWT token: no user identifier")
	}

	s.logger.WithField("user_id", profile.Sub).Debug("JWT token validated successfully")
	return profile, nil
}

// isJWTToken checks for three non-empty dot separated segments
func isJWTToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

func getStringValue(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
