package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func signTestToken(t *testing.T, method jwt.SigningMethod, secret string, claims models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() models.JWTClaims {
	return models.JWTClaims{
		UserID:     "admin-1",
		Role:       models.RoleAdmin,
		SchoolCode: "SCH01",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "school-console",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "school-console"})

	claims, err := svc.ValidateToken(signTestToken(t, jwt.SigningMethodHS256, "secret", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, "SCH01", claims.SchoolCode)
	assert.Equal(t, models.Identity{SchoolCode: "SCH01", CreatedBy: "admin-1"}, models.IdentityFromClaims(claims))
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "school-console"})

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	foreignIssuer := validClaims()
	foreignIssuer.Issuer = "someone-else"

	noRole := validClaims()
	noRole.Role = ""

	cases := map[string]string{
		"wrong secret": signTestToken(t, jwt.SigningMethodHS256, "other", validClaims()),
		"expired":      signTestToken(t, jwt.SigningMethodHS256, "secret", expired),
		"wrong issuer": signTestToken(t, jwt.SigningMethodHS256, "secret", foreignIssuer),
		"wrong method": signTestToken(t, jwt.SigningMethodHS512, "secret", validClaims()),
		"missing role": signTestToken(t, jwt.SigningMethodHS256, "secret", noRole),
		"not a jwt":    "garbage",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
		})
	}
}
