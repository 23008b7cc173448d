package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/admin-api/internal/models"
	"github.com/saferoute/admin-api/pkg/config"
)

func signToken(t *testing.T, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "test-secret"})

	signed := signToken(t, "test-secret", &models.JWTClaims{
		UserID:   "ba-1",
		Email:    "admin@saferoute.ph",
		Name:     "Maria Santos",
		Role:     models.RoleBarangayAdmin,
		Barangay: "Carig Sur",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "ba-1", claims.UserID)
	assert.Equal(t, models.RoleBarangayAdmin, claims.Role)
	assert.Equal(t, "Carig Sur", claims.Barangay)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "right"})
	signed := signToken(t, "wrong", &models.JWTClaims{UserID: "x"})

	_, err := svc.ValidateToken(signed)
	require.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "test-secret"})
	signed := signToken(t, "test-secret", &models.JWTClaims{
		UserID: "x",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := svc.ValidateToken(signed)
	require.Error(t, err)
}

func TestViewerFromClaims(t *testing.T) {
	viewer := ViewerFromClaims(&models.JWTClaims{
		UserID:   "ba-1",
		Role:     models.RoleBarangayAdmin,
		Barangay: "carig norte",
	})
	assert.Equal(t, "Carig Norte", viewer.Barangay)
	assert.False(t, viewer.AllBarangays())

	assert.True(t, ViewerFromClaims(&models.JWTClaims{Role: models.RoleSuperAdmin}).AllBarangays())
}
