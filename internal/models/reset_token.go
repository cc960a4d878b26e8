package models

import "github.com/golang-jwt/jwt/v5"

// ResetClaims are the claims carried by a password reset link token
type ResetClaims struct {
	Role       Role  `json:"role"`
	IdentityID int64 `json:"identity_id"`
	jwt.RegisteredClaims
}
