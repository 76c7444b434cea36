// internal/acl/middleware.go
//
// Chi middleware helpers that enforce the route guard.

package acl

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/auth"
	"github.com/yanizio/jobboard/internal/metrics"
	"github.com/yanizio/jobboard/internal/session"
)

// ErrTokenExpired is the cause passed to Controller.Expire when the token's
// exp claim has passed.
var ErrTokenExpired = errors.New("acl: token expired")

// DefaultReadyWait bounds how long a guarded request waits for the session
// to resolve before the loading page is shown instead.
const DefaultReadyWait = 2 * time.Second

// Guard binds the guard rules to the cookie signer and controller registry.
type Guard struct {
	Cookies   *session.Cookies
	Registry  *auth.Registry
	ReadyWait time.Duration

	// Loading renders the neutral placeholder.  Nil writes a bare page.
	Loading http.Handler

	Now func() time.Time
}

type arrivalKey struct{}

// Attach resolves the browser's controller and stores it, with the sid that
// CSRF tokens are bound to, in the request context.  A token past its exp is expired here without an API call.
func (g *Guard) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, fresh := g.Cookies.Ensure(w, r)
		ctl := g.Registry.Get(sid)

		snap := ctl.Snapshot()
		if snap.Expired(g.now()) {
			ctl.Expire(r.Context(), ErrTokenExpired)
		} else if !fresh && snap.State.IsAuthenticated() && !snap.ExpiresAt.IsZero() {
			g.Cookies.Refresh(w, r, sid, snap.ExpiresAt)
		}

		ctx := auth.WithController(session.WithSID(r.Context(), sid), ctl)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require guards a route group.  It waits up to ReadyWait for the session to
// resolve, then renders the loading page, redirects with 303, or serves.
func (g *Guard) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctl := auth.FromContext(r.Context())
			if ctl == nil {
				zap.L().Error("acl: Require mounted without Attach", zap.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			snap := g.settle(r.Context(), ctl)
			d := Decide(snap, req)
			metrics.GuardDecisions.WithLabelValues(d.Outcome.String()).Inc()

			switch d.Outcome {
			case Loading:
				g.loading(w, r)
			case Redirect:
				http.Redirect(w, r, d.Target, http.StatusSeeOther)
			default:
				// Consumed so that a later visit to / is not redirected.
				ctl.TakeArrival()
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RedirectAuthenticated sends an authenticated browser away from public
// entry routes to its home page.  Non-entry paths pass through.
func (g *Guard) RedirectAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctl := auth.FromContext(r.Context())
		if ctl == nil || r.Method != http.MethodGet || !IsEntryRoute(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		snap := g.settle(r.Context(), ctl)
		if snap.Loading {
			metrics.GuardDecisions.WithLabelValues(Loading.String()).Inc()
			g.loading(w, r)
			return
		}
		arrived := snap.State.IsAuthenticated() && ctl.TakeArrival()
		if target, ok := EntryRedirect(snap, r.URL.Path, arrived); ok {
			metrics.GuardDecisions.WithLabelValues(Redirect.String()).Inc()
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Controller returns the request's controller.  Handlers mounted behind
// Attach can rely on it being non-nil.
func Controller(r *http.Request) *auth.Controller {
	return auth.FromContext(r.Context())
}

func (g *Guard) settle(ctx context.Context, ctl *auth.Controller) auth.Snapshot {
	wait := g.ReadyWait
	if wait <= 0 {
		wait = DefaultReadyWait
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	return ctl.WaitSettled(ctx)
}

// loading writes the placeholder.  The page refreshes itself; no redirect
// decision is made while the session is unresolved.
func (g *Guard) loading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Refresh", "1")
	w.Header().Set("Cache-Control", "no-store")
	if g.Loading != nil {
		g.Loading.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<!doctype html><title>Loading</title><p>Loading…</p>"))
}

func (g *Guard) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
