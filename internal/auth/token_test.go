package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func TestTokenManager_IssueVerify(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Issue("665f1c2b9d1e4a0012345678", "alice")
	require.NoError(t, err)

	identity, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "665f1c2b9d1e4a0012345678", identity.UserID)
	assert.Equal(t, "alice", identity.Username)
}

func TestTokenManager_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	m := NewTokenManager("secret", time.Hour, WithClock(clock.Now))

	token, err := m.Issue("u1", "alice")
	require.NoError(t, err)

	clock.t = clock.t.Add(59 * time.Minute)
	_, err = m.Verify(token)
	assert.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Minute)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenManager_VerifyFailures(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	foreign, err := other.Issue("u1", "alice")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: domain.ErrMissingToken},
		{name: "garbage", token: "not-a-jwt", want: domain.ErrInvalidToken},
		{name: "wrong secret", token: foreign, want: domain.ErrInvalidToken},
		{name: "alg none", token: noneToken, want: domain.ErrInvalidToken},
		{name: "missing exp", token: noExpiry, want: domain.ErrInvalidToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Verify(tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Equal(t, "", BearerToken(""))
	assert.Equal(t, "", BearerToken("Bearer"))
	assert.Equal(t, "", BearerToken("Basic abc"))
}
