// internal/auth/state.go
//
// Session state, navigation intents, and user-visible notices.
//
// Context
//   State is a tagged value with three variants: Unknown (not hydrated yet),
//   Anonymous, and Authenticated(user).  An Authenticated state always
//   carries a user; a token is held in both the storage and the gateway
//   header whenever the controller reports Authenticated.
//
//   Controller operations never navigate.  They return an Intent that the
//   HTTP layer turns into a redirect.
//
//------------------------------------------------------------------------------

package auth

import (
	"time"

	"github.com/yanizio/jobboard/internal/api"
)

/*──────────────────────────── state ───────────────────────────────────────*/

// Kind discriminates State.
type Kind int

const (
	Unknown Kind = iota
	Anonymous
	Authenticated
)

func (k Kind) String() string {
	switch k {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is one of Unknown, Anonymous, or Authenticated(user).  The zero
// value is Unknown.
type State struct {
	kind Kind
	user api.User
}

// AnonymousState and AuthenticatedState build the resolved variants.
func AnonymousState() State               { return State{kind: Anonymous} }
func AuthenticatedState(u api.User) State { return State{kind: Authenticated, user: u} }

func (s State) Kind() Kind            { return s.kind }
func (s State) IsAuthenticated() bool { return s.kind == Authenticated }
func (s State) IsAdmin() bool         { return s.kind == Authenticated && s.user.IsAdmin }

// User returns the signed-in user.  ok is false unless Authenticated.
func (s State) User() (u api.User, ok bool) {
	if s.kind != Authenticated {
		return api.User{}, false
	}
	return s.user, true
}

// PendingOTP carries the registration state between "signup accepted" and
// "code verified".  OTPToken is empty when the pending state came from a
// login attempt on an unverified account.
type PendingOTP struct {
	Email    string
	OTPToken string
}

// Snapshot is a consistent copy of the controller's state.
type Snapshot struct {
	State   State
	Loading bool // Unknown, or an operation is in flight
	Pending *PendingOTP

	// ExpiresAt is the token's exp claim when the token is a JWT.
	ExpiresAt time.Time
}

// Expired reports an authenticated session whose token is past its exp.
func (s Snapshot) Expired(now time.Time) bool {
	return s.State.IsAuthenticated() && !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

/*──────────────────────────── intents ─────────────────────────────────────*/

// Intent is where the caller should navigate after an operation.
type Intent int

const (
	IntentNone Intent = iota
	IntentVerifyOTP
	IntentLogin
	IntentRegister
	IntentDashboard
	IntentAdminDashboard
)

// Path returns the route for i, or "" for IntentNone.
func (i Intent) Path() string {
	switch i {
	case IntentVerifyOTP:
		return "/verify-otp"
	case IntentLogin:
		return "/login"
	case IntentRegister:
		return "/register"
	case IntentDashboard:
		return "/dashboard"
	case IntentAdminDashboard:
		return "/admin/dashboard"
	default:
		return ""
	}
}

func (i Intent) String() string {
	if p := i.Path(); p != "" {
		return p
	}
	return "none"
}

// HomeIntent is the landing page for an authenticated user.
func HomeIntent(u api.User) Intent {
	if u.IsAdmin {
		return IntentAdminDashboard
	}
	return IntentDashboard
}

/*──────────────────────────── notices ─────────────────────────────────────*/

// Level grades a Notice.
type Level int

const (
	LevelSuccess Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	default:
		return "error"
	}
}

// Notice is a one-shot user-visible message (a "toast").
type Notice struct {
	Level Level
	Text  string
}

// maxNotices bounds the per-browser queue; older notices are dropped first.
const maxNotices = 8
