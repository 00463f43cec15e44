package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestPasswordHasher(t *testing.T) {
	t.Parallel()

	// MinCost keeps the suite fast; the production cost is asserted separately.
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("campfire")
	require.NoError(t, err)
	second, err := h.Hash("campfire")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "salted hashes must differ")
	assert.True(t, h.Verify("campfire", first))
	assert.True(t, h.Verify("campfire", second))
	assert.False(t, h.Verify("Campfire", first))
	assert.False(t, h.Verify("campfire", "not-a-hash"))
}

func TestNewPasswordHasher_DefaultCost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, DefaultCost, NewPasswordHasher(99).cost)
	assert.Equal(t, 12, DefaultCost)
}

func TestTokenManager_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewTokenManager(testSecret)
	token, err := m.Issue(Identity{UserID: 42, Email: "ranger@example.com", Username: "ranger"})
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.ID)
	assert.Equal(t, "ranger@example.com", claims.Email)
	assert.Equal(t, "ranger", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.RegisteredClaims.ID)
}

func TestTokenManager_Expiry(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenManager(testSecret).WithClock(func() time.Time { return issuedAt })
	token, err := issuer.Issue(Identity{UserID: 1, Email: "a@b.c", Username: "a"})
	require.NoError(t, err)

	sixDays := issuer.WithClock(func() time.Time { return issuedAt.Add(6 * 24 * time.Hour) })
	_, err = sixDays.Verify(token)
	assert.NoError(t, err)

	eightDays := issuer.WithClock(func() time.Time { return issuedAt.Add(8 * 24 * time.Hour) })
	_, err = eightDays.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Rejects(t *testing.T) {
	t.Parallel()

	m := NewTokenManager(testSecret)
	valid, err := m.Issue(Identity{UserID: 7, Email: "x@y.z", Username: "x"})
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, signErr := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, signErr)
		return s
	}
	baseClaims := func() Claims {
		now := time.Now()
		return Claims{
			ID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				Audience:  jwt.ClaimStrings{Audience},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
	}

	wrongIssuer := baseClaims()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := baseClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other-client"}
	noExpiry := baseClaims()
	noExpiry.ExpiresAt = nil
	noUser := baseClaims()
	noUser.ID = 0

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"tampered", valid + "x"},
		{"other secret", NewTokenManager("another-secret-another-secret-123").mustIssue(t)},
		{"none algorithm", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, baseClaims())},
		{"wrong issuer", sign(jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer)},
		{"wrong audience", sign(jwt.SigningMethodHS256, []byte(testSecret), wrongAudience)},
		{"missing expiry", sign(jwt.SigningMethodHS256, []byte(testSecret), noExpiry)},
		{"missing user id", sign(jwt.SigningMethodHS256, []byte(testSecret), noUser)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, verifyErr := m.Verify(tt.token)
			assert.ErrorIs(t, verifyErr, ErrInvalidToken)
		})
	}
}

func TestTokenManager_IssueWithoutSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager("").Issue(Identity{UserID: 1})
	assert.Error(t, err)
}

func (m *TokenManager) mustIssue(t *testing.T) string {
	t.Helper()
	token, err := m.Issue(Identity{UserID: 7, Email: "x@y.z", Username: "x"})
	require.NoError(t, err)
	return token
}
