package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndResolve(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.Issue("user_2abc", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/ws/attempt", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	userID, err := v.UserID(req)
	require.NoError(t, err)
	require.Equal(t, "user_2abc", userID)

	req = httptest.NewRequest("GET", "/ws/attempt?token="+token, nil)
	userID, err = v.UserID(req)
	require.NoError(t, err)
	require.Equal(t, "user_2abc", userID)
}

func TestMissingTokenIsAnonymous(t *testing.T) {
	v := NewVerifier("secret")
	userID, err := v.UserID(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Empty(t, userID)
}

func TestRejectsForeignAndExpiredTokens(t *testing.T) {
	other, err := NewVerifier("other").Issue("u1", time.Hour)
	require.NoError(t, err)
	_, err = NewVerifier("secret").Parse(other)
	require.ErrorIs(t, err, ErrInvalidToken)

	v := NewVerifier("secret")
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := v.Issue("u1", time.Hour)
	require.NoError(t, err)
	_, err = NewVerifier("secret").Parse(expired)
	require.ErrorIs(t, err, ErrInvalidToken)
}
