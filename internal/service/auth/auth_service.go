package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"captionclash/internal/domain"
	"captionclash/pkg/logger"
)

// Service validates platform-issued bearer tokens (HS256) and resolves the
// caller identity from their claims.
type Service struct {
	secret []byte
	log    *logger.Logger
}

// NewService creates an auth service with the shared platform signing secret.
func NewService(secret string, log *logger.Logger) *Service {
	return &Service{
		secret: []byte(secret),
		log:    log,
	}
}

// ParseToken validates the token signature and expiry and returns the
// identity carried in the "sub" and "username" claims.
func (s *Service) ParseToken(ctx context.Context, tokenString string) (*domain.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	username, _ := claims["username"].(string)

	return &domain.Identity{
		UserID:   sub,
		Username: username,
	}, nil
}
