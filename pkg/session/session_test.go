package session_test

import (
	"context"
	"testing"

	"github.com/gambit-chess/engine/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *session.Manager {
	return session.NewManager([]byte("test-signing-key-at-least-32-bytes!"))
}

func TestAnonymousTokenRoundTrips(t *testing.T) {
	m := testManager()
	fp := session.Fingerprint("ua", "en-US", "203.0.113.5")

	token, issued := m.IssueAnonymous(fp)
	require.NotEmpty(t, token)

	validated, err := m.ValidateAnonymous(context.Background(), token, fp)
	require.NoError(t, err)
	assert.Equal(t, issued.SessionID, validated.SessionID)
}

func TestAnonymousTokenRejectsFingerprintMismatch(t *testing.T) {
	m := testManager()
	token, _ := m.IssueAnonymous(session.Fingerprint("ua", "en-US", "203.0.113.5"))

	_, err := m.ValidateAnonymous(context.Background(), token, session.Fingerprint("ua", "en-US", "198.51.100.9"))
	assert.Error(t, err)
}

func TestAnonymousTokenRejectsTampering(t *testing.T) {
	m := testManager()
	fp := session.Fingerprint("ua", "en-US", "203.0.113.5")
	token, _ := m.IssueAnonymous(fp)

	_, err := m.ValidateAnonymous(context.Background(), token+"x", fp)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrips(t *testing.T) {
	m := testManager()
	access, _ := m.IssueAccess("user-1")

	userID, err := m.ValidateAccess(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestRefreshRotationIssuesFreshPair(t *testing.T) {
	m := testManager()
	_, refresh := m.IssueAccess("user-1")

	access2, refresh2, err := m.Rotate(context.Background(), refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access2)
	assert.NotEqual(t, refresh, refresh2)
}

func TestRefreshReuseRevokesFamily(t *testing.T) {
	m := testManager()
	_, refresh := m.IssueAccess("user-1")

	_, refresh2, err := m.Rotate(context.Background(), refresh)
	require.NoError(t, err)

	// Reusing the retired first refresh token must revoke the family.
	_, _, err = m.Rotate(context.Background(), refresh)
	assert.Error(t, err)

	// Even the latest-issued token from that family is now rejected.
	_, _, err = m.Rotate(context.Background(), refresh2)
	assert.Error(t, err)
}
