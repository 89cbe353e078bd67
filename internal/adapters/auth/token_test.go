package auth

import (
	"testing"
	"time"

	"eventreserve/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTProvider_RoundTrip(t *testing.T) {
	issuer, verifier := NewJWTProvider("test-secret")

	token, err := issuer.Issue("user-1", "ada@example.com", domain.RoleParticipant, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, domain.RoleParticipant, role)
}

func TestJWTProvider_TokensAreUnique(t *testing.T) {
	issuer, _ := NewJWTProvider("test-secret")

	// Two tokens for the same subject issued within the same second must
	// still differ: refresh tokens are stored keyed by their value.
	first, err := issuer.Issue("user-1", "ada@example.com", domain.RoleParticipant, time.Hour)
	require.NoError(t, err)
	second, err := issuer.Issue("user-1", "ada@example.com", domain.RoleParticipant, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestJWTProvider_RejectsExpired(t *testing.T) {
	issuer, verifier := NewJWTProvider("test-secret")

	token, err := issuer.Issue("user-1", "ada@example.com", domain.RoleAdminOrg, -time.Minute)
	require.NoError(t, err)

	_, _, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestJWTProvider_RejectsWrongSecret(t *testing.T) {
	issuer, _ := NewJWTProvider("secret-a")
	_, verifier := NewJWTProvider("secret-b")

	token, err := issuer.Issue("user-1", "ada@example.com", domain.RoleParticipant, time.Minute)
	require.NoError(t, err)

	_, _, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestJWTProvider_RejectsUnsignedToken(t *testing.T) {
	_, verifier := NewJWTProvider("test-secret")

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "user-1",
		"role": string(domain.RoleAdminOrg),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestJWTProvider_RejectsUnknownRole(t *testing.T) {
	_, verifier := NewJWTProvider("test-secret")

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Email: "ada@example.com",
		Role:  "SUPERUSER",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, _, err = verifier.Verify(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role claim")
}

func TestJWTProvider_RejectsGarbage(t *testing.T) {
	_, verifier := NewJWTProvider("test-secret")

	_, _, err := verifier.Verify("not.a.jwt")
	require.Error(t, err)
}
