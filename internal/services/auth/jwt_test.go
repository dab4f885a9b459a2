package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-signing-key"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func claimsFor(subject string, expires time.Time) Claims {
	return Claims{
		Email: "maya@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
}

func TestJWTVerifier_ValidToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("user-123", time.Now().Add(time.Hour)))

	userID, err := v.UserIDFromToken(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	valid := time.Now().Add(time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("other-secret"), claimsFor("user-123", valid))},
		{"expired", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("user-123", time.Now().Add(-time.Hour)))},
		{"other algorithm", signToken(t, jwt.SigningMethodHS512, []byte(testSecret), claimsFor("user-123", valid))},
		{"garbage", "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := v.UserIDFromToken(context.Background(), tt.token)
			assert.Error(t, err)
			assert.Empty(t, userID)
		})
	}
}

func TestJWTVerifier_MissingSubject(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("", time.Now().Add(time.Hour)))

	_, err := v.UserIDFromToken(context.Background(), token)

	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", BearerToken("Bearer abc.def.ghi"))
	assert.Equal(t, "abc", BearerToken("bearer   abc "))
	assert.Empty(t, BearerToken("Basic dXNlcjpwYXNz"))
	assert.Empty(t, BearerToken("abc"))
	assert.Empty(t, BearerToken(""))
}
