// internal/auth/token.go
//
// Token expiry.  The API issues JWTs; their exp claim bounds the cookie
// lifetime and lets Attach expire a session without a round trip.  The
// signature is not checked here because the API, which owns the key, checks
// it on every call.  Opaque tokens report ok == false.

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var tokenParser = jwt.NewParser()

// ExpiryFromToken returns the exp claim of tok, unverified.
func ExpiryFromToken(tok string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := tokenParser.ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}
	at, err := claims.GetExpirationTime()
	if err != nil || at == nil {
		return time.Time{}, false
	}
	return at.Time, true
}
