package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crs-api/internal/models"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Minute, Issuer: "crs-api"})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newTestAuthService()

	token, expiresAt, err := svc.IssueToken(TokenSubject{UserID: "stu-1", Email: "stu@crs.test"})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "stu-1", claims.Subject)
}

func TestAuthServiceRejectsForeignSignature(t *testing.T) {
	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "crs-api"})
	token, _, err := other.IssueToken(TokenSubject{UserID: "stu-1"})
	require.NoError(t, err)

	_, err = newTestAuthService().ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsExpiredAndForeignIssuer(t *testing.T) {
	svc := newTestAuthService()

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		UserID: "stu-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "crs-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		UserID:           "stu-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	})
	signed, err = foreign.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}

func TestAuthServiceIssueRequiresUser(t *testing.T) {
	_, _, err := newTestAuthService().IssueToken(TokenSubject{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
