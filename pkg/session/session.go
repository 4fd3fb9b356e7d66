// Package session implements Session & Authorization (spec.md §4.6): signed
// anonymous session tokens bound to a client fingerprint, and registered-
// identity access/refresh token rotation with family-based reuse detection.
// No ecosystem session/JWT library appears anywhere in the retrieved pack,
// so this is a stdlib HMAC token, in the teacher's small-struct /
// explicit-error-return style.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gambit-chess/engine/pkg/gambiterr"
	"github.com/seekerror/logw"
)

// AnonymousTTL is how long an anonymous session lives without activity
// (spec.md §4.6 "stores it with a TTL in the Live Store").
const AnonymousTTL = 24 * time.Hour

// AccessTokenTTL is the lifetime of a registered identity's short-lived
// access token (spec.md §4.6 "short-lived signed access token").
const AccessTokenTTL = 15 * time.Minute

// Fingerprint derives the client fingerprint spec.md §4.6 defines:
// SHA-256(userAgent || acceptLanguage || remoteAddress).
func Fingerprint(userAgent, acceptLanguage, remoteAddress string) string {
	h := sha256.New()
	h.Write([]byte(userAgent))
	h.Write([]byte(acceptLanguage))
	h.Write([]byte(remoteAddress))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Manager issues and validates session tokens. One Manager is shared
// process-wide, holding the HMAC signing key and in-memory bookkeeping for
// registered-identity refresh-token families. Anonymous session existence
// is authoritative in the Live Store (pkg/store), not here.
type Manager struct {
	key []byte

	mu       sync.Mutex
	families map[string]*RefreshFamily
}

// NewManager constructs a Manager with the given HMAC signing key. The key
// should be at least 32 bytes, generated once per deployment and kept
// stable across restarts (rotating it invalidates every outstanding
// token).
func NewManager(key []byte) *Manager {
	return &Manager{key: key, families: map[string]*RefreshFamily{}}
}

// AnonymousToken is the signed token returned to an anonymous client,
// binding (sessionID, fingerprint, expiry) per spec.md §4.6.
type AnonymousToken struct {
	SessionID   string
	Fingerprint string
	Expiry      time.Time
}

// IssueAnonymous creates a new anonymous session id and signs a token
// binding it to fingerprint, expiring after AnonymousTTL.
func (m *Manager) IssueAnonymous(fingerprint string) (string, AnonymousToken) {
	id := randomID()
	tok := AnonymousToken{SessionID: id, Fingerprint: fingerprint, Expiry: time.Now().Add(AnonymousTTL)}
	return m.signAnonymous(tok), tok
}

func (m *Manager) signAnonymous(tok AnonymousToken) string {
	payload := fmt.Sprintf("%s|%s|%d", tok.SessionID, tok.Fingerprint, tok.Expiry.Unix())
	mac := m.sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + mac
}

// ValidateAnonymous verifies signature, expiry, and that fingerprint
// matches the token's bound value (spec.md §4.6 "validation verifies
// signature, expiry, and that the re-derived fingerprint matches"). The
// caller is still responsible for confirming the session exists in the
// Live Store and bumping lastActivity.
func (m *Manager) ValidateAnonymous(ctx context.Context, token, fingerprint string) (AnonymousToken, error) {
	payload, mac, ok := splitToken(token)
	if !ok {
		return AnonymousToken{}, gambiterr.Authorizationf(gambiterr.Unauthorized, "malformed session token")
	}
	if !hmac.Equal([]byte(mac), []byte(m.sign(payload))) {
		return AnonymousToken{}, gambiterr.Authorizationf(gambiterr.Unauthorized, "invalid session token signature")
	}

	parts := strings.SplitN(payload, "|", 3)
	if len(parts) != 3 {
		return AnonymousToken{}, gambiterr.Authorizationf(gambiterr.Unauthorized, "malformed session token payload")
	}
	var expiryUnix int64
	if _, err := fmt.Sscanf(parts[2], "%d", &expiryUnix); err != nil {
		return AnonymousToken{}, gambiterr.Authorizationf(gambiterr.Unauthorized, "malformed session token expiry")
	}
	tok := AnonymousToken{SessionID: parts[0], Fingerprint: parts[1], Expiry: time.Unix(expiryUnix, 0)}

	if time.Now().After(tok.Expiry) {
		return AnonymousToken{}, gambiterr.Authorizationf(gambiterr.Unauthorized, "session token expired")
	}
	if subtle.ConstantTimeCompare([]byte(tok.Fingerprint), []byte(fingerprint)) != 1 {
		logw.Infof(ctx, "session: fingerprint mismatch for session %q", tok.SessionID)
		return AnonymousToken{}, gambiterr.Authorizationf(gambiterr.Unauthorized, "fingerprint mismatch")
	}
	return tok, nil
}

// RefreshFamily tracks one registered identity's chain of refresh tokens.
// Reuse of any retired token in the family invalidates the whole family
// (spec.md §4.6 "reuse of a retired refresh token invalidates its whole
// family").
type RefreshFamily struct {
	UserID    string
	FamilyID  string
	Current   string
	Retired   map[string]bool
	Revoked   bool
	IssuedAt  time.Time
	UpdatedAt time.Time
}

// IssueAccess mints a new access/refresh pair for userID, starting a fresh
// refresh-token family.
func (m *Manager) IssueAccess(userID string) (access, refresh string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	familyID := randomID()
	refresh = randomID()
	m.families[familyID] = &RefreshFamily{
		UserID:    userID,
		FamilyID:  familyID,
		Current:   refresh,
		Retired:   map[string]bool{},
		IssuedAt:  time.Now(),
		UpdatedAt: time.Now(),
	}
	access = m.signAccess(userID, time.Now().Add(AccessTokenTTL))
	return access, familyID + ":" + refresh
}

func (m *Manager) signAccess(userID string, expiry time.Time) string {
	payload := fmt.Sprintf("%s|%d", userID, expiry.Unix())
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + m.sign(payload)
}

// ValidateAccess verifies an access token's signature and expiry, returning
// the bound user id.
func (m *Manager) ValidateAccess(token string) (string, error) {
	payload, mac, ok := splitToken(token)
	if !ok {
		return "", gambiterr.Authorizationf(gambiterr.Unauthorized, "malformed access token")
	}
	if !hmac.Equal([]byte(mac), []byte(m.sign(payload))) {
		return "", gambiterr.Authorizationf(gambiterr.Unauthorized, "invalid access token signature")
	}
	parts := strings.SplitN(payload, "|", 2)
	if len(parts) != 2 {
		return "", gambiterr.Authorizationf(gambiterr.Unauthorized, "malformed access token payload")
	}
	var expiryUnix int64
	if _, err := fmt.Sscanf(parts[1], "%d", &expiryUnix); err != nil {
		return "", gambiterr.Authorizationf(gambiterr.Unauthorized, "malformed access token expiry")
	}
	if time.Now().After(time.Unix(expiryUnix, 0)) {
		return "", gambiterr.Authorizationf(gambiterr.Unauthorized, "access token expired")
	}
	return parts[0], nil
}

// Rotate exchanges a refresh token (as returned by IssueAccess, formatted
// "{familyID}:{token}") for a fresh access/refresh pair. Presenting a
// retired token revokes the whole family and returns an error, per spec.md
// §4.6's reuse-detection contract.
func (m *Manager) Rotate(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	familyID, presented, ok := strings.Cut(refreshToken, ":")
	if !ok {
		return "", "", gambiterr.Authorizationf(gambiterr.Unauthorized, "malformed refresh token")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fam, ok := m.families[familyID]
	if !ok || fam.Revoked {
		return "", "", gambiterr.Authorizationf(gambiterr.Unauthorized, "unknown or revoked refresh family")
	}
	if fam.Retired[presented] {
		fam.Revoked = true
		logw.Errorf(ctx, "session: retired refresh token reused for user %q; family %q revoked", fam.UserID, familyID)
		return "", "", gambiterr.Authorizationf(gambiterr.Unauthorized, "refresh token reuse detected; family revoked")
	}
	if fam.Current != presented {
		return "", "", gambiterr.Authorizationf(gambiterr.Unauthorized, "stale refresh token")
	}

	fam.Retired[presented] = true
	fam.Current = randomID()
	fam.UpdatedAt = time.Now()

	access = m.signAccess(fam.UserID, time.Now().Add(AccessTokenTTL))
	return access, familyID + ":" + fam.Current, nil
}

// Invalidate revokes a refresh family outright, e.g. on logout.
func (m *Manager) Invalidate(familyID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fam, ok := m.families[familyID]; ok {
		fam.Revoked = true
	}
}

func (m *Manager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func splitToken(token string) (payloadB64, mac string, ok bool) {
	idx := strings.LastIndex(token, ".")
	if idx < 0 {
		return "", "", false
	}
	encoded, mac := token[:idx], token[idx+1:]
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}
	return string(raw), mac, true
}

func randomID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand.Read failing means the platform CSPRNG is broken;
		// fall back to a time-seeded value rather than issuing an
		// all-zero session id.
		binary.BigEndian.PutUint64(buf[:8], uint64(time.Now().UnixNano()))
	}
	return base64.RawURLEncoding.EncodeToString(buf[:])
}
