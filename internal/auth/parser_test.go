package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rms-service-orders/internal/model"
)

func TestParseRoundTrip(t *testing.T) {
	parser := NewParser("secret")
	principal := model.Principal{UserID: uuid.New(), Role: model.UserRoleWorker, Name: "João"}

	token, err := parser.Issue(principal, time.Hour)
	require.NoError(t, err)

	got, err := parser.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
}

func TestParseRejects(t *testing.T) {
	parser := NewParser("secret")
	principal := model.Principal{UserID: uuid.New(), Role: model.UserRoleAdmin}

	expired, err := parser.Issue(principal, -time.Minute)
	require.NoError(t, err)
	_, err = parser.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := NewParser("other").Issue(principal, time.Hour)
	require.NoError(t, err)
	_, err = parser.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "owner",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = parser.Parse(badRole)
	assert.ErrorIs(t, err, ErrInvalidRole)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = parser.Parse(noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = parser.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
