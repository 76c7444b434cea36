// internal/form/csrf.go
//
// Forms: stateless CSRF token utilities.
//
// Context
//   Every page with a form embeds a hidden `csrf_token` input generated at
//   render time.  The server verifies it on POST to ensure the request
//   originated from a form it rendered for the same browser.  The token is
//   stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro+sid) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  sid – the browser's session id; signed but not carried.
//   •  HMAC – keyed with session.csrf_key from config.
//
//   Validation checks the signature and ensures the timestamp is within
//   maxAge.  Any instance holding the key can verify any token, but only
//   for the browser it was issued to.
//
// Workflow
//   •  SetSecret(key)         → called once from main with the configured key.
//   •  GenerateToken(sid)     → returns token string for the view.
//   •  VerifyToken(tok, sid)  → constant-time verify; false on any failure.
//   •  TokenFor(r)            → GenerateToken for the sid in r's context.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/session"
)

const (
	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig
	maxAge     = 2 * time.Hour        // token valid window
)

var (
	secretMu  sync.RWMutex
	secretKey []byte
)

// SetSecret installs the signing key.  Tokens issued under a previous key
// stop verifying.
func SetSecret(key []byte) {
	secretMu.Lock()
	defer secretMu.Unlock()
	secretKey = append([]byte(nil), key...)
}

// GenerateToken creates a new CSRF token bound to sid.  Call once per form
// render.
func GenerateToken(sid string) (string, error) {
	sec := fetchSecret()

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, sign(sec, nonce, ts, sid)...)

	return encode(buf), nil
}

// VerifyToken returns true if tok was issued for sid and passes HMAC and age
// checks.  A request without a session id never verifies.
func VerifyToken(tok, sid string) bool {
	if sid == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	// Timestamp window check.
	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	if time.Since(issued) > maxAge || time.Until(issued) > time.Minute {
		// Future timestamp (clock skew) or older than maxAge.
		return false
	}

	return hmac.Equal(sig, sign(fetchSecret(), nonce, tsBytes, sid))
}

// TokenFor issues a token for the browser behind r.
func TokenFor(r *http.Request) (string, error) {
	return GenerateToken(session.SIDFrom(r.Context()))
}

// sign covers sid last; nonce and ts are fixed width, so the input is
// unambiguous.
func sign(sec, nonce, ts []byte, sid string) []byte {
	mac := hmac.New(sha256.New, sec)
	mac.Write(nonce)
	mac.Write(ts)
	mac.Write([]byte(sid))
	return mac.Sum(nil)
}

// fetchSecret returns the process-wide key.  Without SetSecret a random key
// is generated, so tokens do not survive a restart.
func fetchSecret() []byte {
	secretMu.RLock()
	k := secretKey
	secretMu.RUnlock()
	if k != nil {
		return k
	}

	secretMu.Lock()
	defer secretMu.Unlock()
	if secretKey == nil {
		secretKey = make([]byte, 32)
		_, _ = rand.Read(secretKey)
		zap.L().Warn("form: CSRF key not configured, using an ephemeral key")
	}
	return secretKey
}

func encode(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }
