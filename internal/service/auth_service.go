package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/saferoute/admin-api/internal/models"
	"github.com/saferoute/admin-api/pkg/config"
	appErrors "github.com/saferoute/admin-api/pkg/errors"
)

// AuthService validates the bearer tokens minted by the account system.
// This API never handles credentials; it only trusts the ambient claims a
// valid token carries (role, home barangay, acting-admin name).
type AuthService struct {
	cfg config.JWTConfig
}

// NewAuthService constructs the token validator.
func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{cfg: cfg}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// ViewerFromClaims derives the composer viewer from request claims.
func ViewerFromClaims(claims *models.JWTClaims) Viewer {
	return Viewer{
		UserID:   claims.UserID,
		Role:     claims.Role,
		Barangay: models.NormalizeBarangay(claims.Barangay),
	}
}
