// internal/session/session.go
//
// Admin session: passcode check plus a signed cookie.
//
// Context
//   The admin console is guarded by one shared passcode.  A successful login
//   issues an HS256 JWT stored in the HttpOnly cookie “genba_admin”; every
//   admin request re-verifies signature, issuer, and expiry server-side.
//   Nothing on the client decides whether someone is logged in.
//
//   The passcode itself is never stored, only its bcrypt hash
//   (`admin.passcode_hash`).  Generate one with:
//
//       htpasswd -bnBC 12 "" 'the-passcode' | tr -d ':\n'
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CookieName holds the signed admin token.
	CookieName = "genba_admin"

	issuer     = "genba"
	subject    = "admin"
	defaultTTL = 14 * 24 * time.Hour
)

// ErrBadPasscode is returned by CheckPasscode on mismatch.
var ErrBadPasscode = errors.New("invalid passcode")

// Manager issues and verifies admin sessions.
type Manager struct {
	secret []byte
	hash   []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager needs the HMAC secret (≥32 bytes) and the bcrypt passcode
// hash.
func NewManager(secret, passcodeHash string) (*Manager, error) {
	if len(secret) < 32 {
		return nil, errors.New("session: secret must be at least 32 bytes")
	}
	if _, err := bcrypt.Cost([]byte(passcodeHash)); err != nil {
		return nil, fmt.Errorf("session: passcode hash: %w", err)
	}
	return &Manager{
		secret: []byte(secret),
		hash:   []byte(passcodeHash),
		ttl:    defaultTTL,
		now:    time.Now,
	}, nil
}

// CheckPasscode compares pass against the configured hash.
func (m *Manager) CheckPasscode(pass string) error {
	if err := bcrypt.CompareHashAndPassword(m.hash, []byte(pass)); err != nil {
		return ErrBadPasscode
	}
	return nil
}

// Login sets a fresh session cookie.  Callers invoke it after
// CheckPasscode succeeds.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request) error {
	now := m.now()
	exp := now.Add(m.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("session sign: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
	return nil
}

// Logout clears the session cookie.
func (m *Manager) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Subject returns the verified session subject.
//
// ok == false when the cookie is missing, forged, or expired.
func (m *Manager) Subject(r *http.Request) (sub string, ok bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(c.Value, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}
