// internal/session/cookie.go
//
// Signed session-id cookie.
//
// Context
//   The cookie carries only an opaque browser id, never the token:
//
//      base64url( uuid | HMAC_SHA256(hashKey, uuid) )
//
//   Verification is constant-time.  A missing, malformed, or tampered
//   cookie is treated as a new browser and a fresh id is minted.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Cookies issues and verifies the session-id cookie.
type Cookies struct {
	Name   string
	Key    []byte
	MaxAge time.Duration
}

// NewCookies returns a Cookies signer.
func NewCookies(name string, key []byte, maxAge time.Duration) *Cookies {
	return &Cookies{Name: name, Key: key, MaxAge: maxAge}
}

// Read returns the verified sid, or ok == false.
func (c *Cookies) Read(r *http.Request) (sid string, ok bool) {
	ck, err := r.Cookie(c.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil || len(raw) != 16+sha256.Size {
		return "", false
	}
	id, sig := raw[:16], raw[16:]
	if !hmac.Equal(sig, c.sign(id)) {
		return "", false
	}
	u, err := uuid.FromBytes(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// Ensure returns the existing sid or mints a new one and sets the cookie.
// fresh reports whether a new id was issued.
func (c *Cookies) Ensure(w http.ResponseWriter, r *http.Request) (sid string, fresh bool) {
	if sid, ok := c.Read(r); ok {
		return sid, false
	}
	u := uuid.New()
	c.write(w, r, u)
	return u.String(), true
}

// Refresh re-sends the cookie for sid with a new expiry, capped at until
// when until is non-zero.
func (c *Cookies) Refresh(w http.ResponseWriter, r *http.Request, sid string, until time.Time) {
	u, err := uuid.Parse(sid)
	if err != nil {
		return
	}
	c.writeUntil(w, r, u, until)
}

func (c *Cookies) write(w http.ResponseWriter, r *http.Request, u uuid.UUID) {
	c.writeUntil(w, r, u, time.Time{})
}

func (c *Cookies) writeUntil(w http.ResponseWriter, r *http.Request, u uuid.UUID, until time.Time) {
	exp := time.Now().Add(c.MaxAge)
	if !until.IsZero() && until.Before(exp) {
		exp = until
	}
	id := u[:]
	val := make([]byte, 0, 16+sha256.Size)
	val = append(val, id...)
	val = append(val, c.sign(id)...)

	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    base64.RawURLEncoding.EncodeToString(val),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

func (c *Cookies) sign(id []byte) []byte {
	mac := hmac.New(sha256.New, c.Key)
	mac.Write(id)
	return mac.Sum(nil)
}
