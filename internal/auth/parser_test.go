package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodrigoSHL/waste-manager-nx/internal/auth"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParser(t *testing.T) {
	parser := auth.NewParser("secret")
	userID := uuid.New()

	token := sign(t, "secret", jwt.MapClaims{
		"sub":  userID.String(),
		"role": "ADMIN",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	principal, err := parser.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, principal.UserID)
	assert.Equal(t, "ADMIN", principal.Role)
	assert.True(t, principal.IsAdmin())
}

func TestParser_Rejects(t *testing.T) {
	parser := auth.NewParser("secret")

	cases := map[string]string{
		"wrong secret": sign(t, "other", jwt.MapClaims{
			"sub": uuid.NewString(),
			"exp": time.Now().Add(time.Hour).Unix(),
		}),
		"expired": sign(t, "secret", jwt.MapClaims{
			"sub": uuid.NewString(),
			"exp": time.Now().Add(-time.Hour).Unix(),
		}),
		"bad subject": sign(t, "secret", jwt.MapClaims{
			"sub": "not-a-uuid",
			"exp": time.Now().Add(time.Hour).Unix(),
		}),
		"garbage": "not.a.token",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse(token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}
