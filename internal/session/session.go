// internal/session/session.go
//
// Durable per-browser key-value storage.
//
// Context
//   The auth controller persists two values between requests: the bearer
//   token and the JSON-serialised user record.  Both must survive a page
//   reload and a process restart (mysql and redis drivers), so they live in
//   a Backend keyed by the browser’s session id (sid).  Store binds a
//   Backend to one sid and exposes the three-method surface the controller
//   consumes: Get, Set, and Remove.
//
//   The token is stored in plaintext.  Anyone with read access to the
//   backend can act as the user until the token expires.
//
// Drivers
//   •  memory – LRU-bounded map, lost on restart (default, dev).
//   •  mysql  – sqlx table `session_kv`.
//   •  redis  – one hash per sid with a sliding expiry.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"errors"
	"fmt"
)

// Keys written by the auth controller.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("session: unknown driver")

// Backend stores string values per (sid, key).  Get reports found == false
// for a missing key without error.  Implementations are safe for concurrent
// use.
type Backend interface {
	Get(ctx context.Context, sid, key string) (val string, found bool, err error)
	Set(ctx context.Context, sid, key, val string) error
	Remove(ctx context.Context, sid string, keys ...string) error
	Close() error
}

// Store is a Backend bound to one browser.
type Store struct {
	backend Backend
	sid     string
}

// NewStore binds b to sid.
func NewStore(b Backend, sid string) *Store {
	return &Store{backend: b, sid: sid}
}

// SID returns the bound session id.
func (s *Store) SID() string { return s.sid }

// Get returns the value for key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.backend.Get(ctx, s.sid, key)
	if err != nil {
		return "", false, fmt.Errorf("session get %s: %w", key, err)
	}
	return v, ok, nil
}

// Set writes key.
func (s *Store) Set(ctx context.Context, key, val string) error {
	if err := s.backend.Set(ctx, s.sid, key, val); err != nil {
		return fmt.Errorf("session set %s: %w", key, err)
	}
	return nil
}

// Remove deletes keys.  Missing keys are not an error.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.backend.Remove(ctx, s.sid, keys...); err != nil {
		return fmt.Errorf("session remove: %w", err)
	}
	return nil
}

type sidKey struct{}

// WithSID returns a copy of ctx carrying the browser's session id.
func WithSID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sidKey{}, sid)
}

// SIDFrom returns the session id stored by WithSID, or "".
func SIDFrom(ctx context.Context) string {
	sid, _ := ctx.Value(sidKey{}).(string)
	return sid
}
