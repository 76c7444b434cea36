// internal/component/page.go
//
// Handler helpers shared by the page components.
//
// Context
//   Components never hold an API client of their own.  The browser's
//   controller owns the gateway (and with it the bearer token), so a
//   handler asks for the slice of the gateway it needs with GatewayAs and
//   reports API failures through Fail.  A 401 from any call means the
//   token was rejected: the session is expired locally and the browser is
//   sent to the login page.
//
//------------------------------------------------------------------------------

package component

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/acl"
	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/auth"
	"github.com/yanizio/jobboard/internal/view"
)

// ErrNoGateway is returned when the request carries no controller, or its
// gateway lacks the methods a page needs.
var ErrNoGateway = errors.New("component: gateway unavailable")

// ErrRejectedToken is the Expire cause recorded for an API 401.
var ErrRejectedToken = errors.New("component: api rejected the session token")

// GatewayAs returns the request controller's gateway as T.
func GatewayAs[T any](r *http.Request) (T, error) {
	var zero T
	ctl := auth.FromContext(r.Context())
	if ctl == nil {
		return zero, ErrNoGateway
	}
	gw, ok := ctl.Gateway().(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrNoGateway, ctl.Gateway())
	}
	return gw, nil
}

// Go redirects to the intent's path with 303.  IntentNone goes home.
func Go(w http.ResponseWriter, r *http.Request, i auth.Intent) {
	target := i.Path()
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Fail reports err to the browser.  fallback is shown when the API sent no
// message of its own.
func Fail(w http.ResponseWriter, r *http.Request, v *view.Engine, err error, fallback string) {
	if api.IsUnauthorized(err) {
		if ctl := auth.FromContext(r.Context()); ctl != nil {
			ctl.Expire(r.Context(), ErrRejectedToken)
		}
		http.Redirect(w, r, acl.LoginPath, http.StatusSeeOther)
		return
	}

	status := http.StatusBadGateway
	switch {
	case errors.Is(err, ErrNoGateway):
		status = http.StatusInternalServerError
	case api.Status(err) == http.StatusForbidden:
		status = http.StatusForbidden
	case api.Status(err) == http.StatusNotFound:
		status = http.StatusNotFound
	}
	zap.L().Warn("page request failed",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	v.Error(w, r, status, api.Message(err, fallback))
}

// Render renders comp/name and logs template failures, which are bugs.
func Render(w http.ResponseWriter, r *http.Request, v *view.Engine, comp, name string, p view.Page) {
	RenderStatus(w, r, v, http.StatusOK, comp, name, p)
}

// RenderStatus is Render with an explicit status, used to re-show a form
// with 422 after a failed submit.
func RenderStatus(w http.ResponseWriter, r *http.Request, v *view.Engine, status int, comp, name string, p view.Page) {
	if err := v.RenderStatus(w, r, status, comp, name, p); err != nil {
		zap.L().Error("render page",
			zap.String("component", comp),
			zap.String("page", name),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Flash queues a notice on the request's controller, shown on the next
// rendered page.
func Flash(r *http.Request, lvl auth.Level, text string) {
	if ctl := auth.FromContext(r.Context()); ctl != nil {
		ctl.Flash(lvl, text)
	}
}
