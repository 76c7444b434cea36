// modules/debug/debug.go
//
// Diagnostics module that echoes request info, the browser's session
// snapshot, and process health as JSON.  Mounted only when debug is
// enabled; it never prints secrets or the bearer token.
package debug

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yanizio/jobboard/internal/auth"
	"github.com/yanizio/jobboard/internal/middleware"
	"github.com/yanizio/jobboard/internal/module"
	"github.com/yanizio/jobboard/internal/requestinfo"
)

func init() {
	// Register at exact path /debug
	module.Register("/debug", handler)
}

type session struct {
	State      string     `json:"state"`
	Loading    bool       `json:"loading"`
	User       string     `json:"user,omitempty"`
	Admin      bool       `json:"admin"`
	PendingOTP string     `json:"pending_otp,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// handler writes a JSON blob with selected context fields.
func handler(env *module.Env, w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"request_id": middleware.RequestID(r.Context()),
		"path":       r.URL.Path,
		"query":      r.URL.RawQuery,
		"request":    requestinfo.FromContext(r.Context()),
	}
	if ctl := auth.FromContext(r.Context()); ctl != nil {
		out["session"] = snapshot(ctl.Snapshot())
	}
	if env != nil {
		if env.Breaker != nil {
			out["api_breaker"] = env.Breaker()
		}
		if env.Controllers != nil {
			out["controllers"] = env.Controllers()
		}
		if c := env.Config; c != nil {
			out["config"] = map[string]any{
				"api_base_url":   c.API.BaseURL,
				"session_driver": c.Session.Driver,
				"force_https":    c.HTTP.ForceHTTPS,
				"tracing":        c.Tracing.Enabled,
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func snapshot(s auth.Snapshot) session {
	out := session{
		State:   s.State.Kind().String(),
		Loading: s.Loading,
		Admin:   s.State.IsAdmin(),
	}
	if u, ok := s.State.User(); ok {
		out.User = u.Email
	}
	if s.Pending != nil {
		out.PendingOTP = s.Pending.Email
	}
	if !s.ExpiresAt.IsZero() {
		t := s.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}
