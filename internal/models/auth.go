package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the access token payload issued by the identity provider.
type JWTClaims struct {
	UserID     string   `json:"user_id"`
	Role       UserRole `json:"role"`
	SchoolCode string   `json:"school_code"`
	Email      string   `json:"email"`
	FullName   string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Identity tags every timetable mutation with its tenant and issuer.
type Identity struct {
	SchoolCode string `json:"school_code" validate:"required"`
	CreatedBy  string `json:"created_by" validate:"required"`
}

// IdentityFromClaims derives the mutation identity from token claims.
func IdentityFromClaims(claims *JWTClaims) Identity {
	if claims == nil {
		return Identity{}
	}
	return Identity{SchoolCode: claims.SchoolCode, CreatedBy: claims.UserID}
}
