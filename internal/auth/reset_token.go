package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tfournier/catalyst/internal/models"
)

// ResetTokenManager signs and validates the tokens embedded in password
// reset links. A token is bound to one identity and one point in time;
// the service layer rejects it once the identity's password has changed
// after the token was issued, which makes every link single use.
type ResetTokenManager struct {
	secret string
	ttl    time.Duration
}

// NewResetTokenManager creates a new ResetTokenManager
func NewResetTokenManager(secret string, ttl time.Duration) *ResetTokenManager {
	return &ResetTokenManager{
		secret: secret,
		ttl:    ttl,
	}
}

// Generate creates a signed reset token for the given identity
func (rm *ResetTokenManager) Generate(role models.Role, identityID int64) (string, error) {
	now := time.Now()
	claims := &models.ResetClaims{
		Role:       role,
		IdentityID: identityID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(rm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(rm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies a reset token and returns its claims
func (rm *ResetTokenManager) Validate(tokenString string) (*models.ResetClaims, error) {
	claims := &models.ResetClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(rm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse reset token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.IdentityID == 0 {
		return nil, models.ErrUnauthorized
	}
	if _, err := models.ParseRole(string(claims.Role)); err != nil {
		return nil, models.ErrUnauthorized
	}

	return claims, nil
}
