package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captionclash/pkg/logger"
)

const testSecret = "test-signing-secret"

func mintToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestService_ParseToken(t *testing.T) {
	svc := NewService(testSecret, logger.NewNop())
	ctx := context.Background()

	token := mintToken(t, testSecret, jwt.MapClaims{
		"sub":      "user-123",
		"username": "meme_lord",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	identity, err := svc.ParseToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.UserID)
	assert.Equal(t, "meme_lord", identity.Username)
}

func TestService_ParseToken_MissingUsername(t *testing.T) {
	svc := NewService(testSecret, logger.NewNop())

	token := mintToken(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	identity, err := svc.ParseToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.UserID)
	assert.Empty(t, identity.Username)
}

func TestService_ParseToken_Invalid(t *testing.T) {
	svc := NewService(testSecret, logger.NewNop())
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "garbage token",
			token: "not-a-jwt",
		},
		{
			name: "wrong secret",
			token: mintToken(t, "other-secret", jwt.MapClaims{
				"sub": "user-123",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "expired",
			token: mintToken(t, testSecret, jwt.MapClaims{
				"sub": "user-123",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
		},
		{
			name: "no subject",
			token: mintToken(t, testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := svc.ParseToken(ctx, tt.token)
			assert.Error(t, err)
			assert.Nil(t, identity)
		})
	}
}
