// internal/acl/guard.go
//
// Route guard decisions.
//
// Context
// -------
// Every protected page declares a Requirement.  Decide maps the current
// auth Snapshot and that Requirement to one of three outcomes:
//
//   1. Loading          – the session is still being resolved; render a
//                         neutral placeholder and decide nothing yet.
//   2. Redirect(target) – /login when auth is required and absent, or
//                         /dashboard when admin is required and absent.
//   3. Allow            – render the page.
//
// EntryRedirect covers the public entry routes.  An authenticated browser
// never sees /login, /register, or /verify-otp, and is taken off / once,
// right after it becomes authenticated.
//
// Notes
// -----
//   - Both functions are pure; middleware.go does the waiting and writing.
//   - Oxford commas, two spaces after periods.
package acl

import (
	"github.com/yanizio/jobboard/internal/auth"
)

// Requirement is what a route needs from the session.  Admin implies Auth.
type Requirement struct {
	Auth  bool
	Admin bool
}

// Common requirements.
var (
	Public        = Requirement{}
	Authenticated = Requirement{Auth: true}
	Admin         = Requirement{Auth: true, Admin: true}
)

// Outcome discriminates Decision.
type Outcome int

const (
	Loading Outcome = iota
	Allow
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "loading"
	}
}

// Decision is the guard's verdict.  Target is set only for Redirect.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Redirect targets.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Decide applies the guard rules in order.
func Decide(s auth.Snapshot, req Requirement) Decision {
	if s.Loading {
		return Decision{Outcome: Loading}
	}
	if (req.Auth || req.Admin) && !s.State.IsAuthenticated() {
		return Decision{Outcome: Redirect, Target: LoginPath}
	}
	if req.Admin && !s.State.IsAdmin() {
		return Decision{Outcome: Redirect, Target: DashboardPath}
	}
	return Decision{Outcome: Allow}
}

// entryRoutes are public pages an authenticated user should not linger on.
// The value reports whether the redirect applies on every visit (true) or
// only on the first request after sign-in (false).
var entryRoutes = map[string]bool{
	"/":           false,
	"/login":      true,
	"/register":   true,
	"/verify-otp": true,
}

// IsEntryRoute reports whether path is a public entry route.
func IsEntryRoute(path string) bool {
	_, ok := entryRoutes[path]
	return ok
}

// EntryRedirect returns the home page for an authenticated user on a public
// entry route.  arrived reports that the session has just become
// authenticated.
func EntryRedirect(s auth.Snapshot, path string, arrived bool) (target string, ok bool) {
	always, entry := entryRoutes[path]
	if !entry || s.Loading || !s.State.IsAuthenticated() {
		return "", false
	}
	if !always && !arrived {
		return "", false
	}
	u, _ := s.State.User()
	return auth.HomeIntent(u).Path(), true
}
