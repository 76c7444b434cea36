// internal/pagetest/harness.go
//
// Router harness for component tests.
//
// Context
//   Harness wires the real guard, controller registry, memory session
//   backend, and view engine around a fake API, then mounts the components
//   under test.  Browser() returns a signed session cookie, optionally
//   pre-seeded with a token, so a test can start signed in without going
//   through the login form.
//
//------------------------------------------------------------------------------

package pagetest

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/acl"
	"github.com/yanizio/jobboard/internal/auth"
	"github.com/yanizio/jobboard/internal/component"
	"github.com/yanizio/jobboard/internal/form"
	"github.com/yanizio/jobboard/internal/session"
	"github.com/yanizio/jobboard/internal/view"
)

const csrfKey = "pagetest-csrf-key-0123456789abcdef"

// ResendCooldown is the OTP resend cooldown every harness uses.
const ResendCooldown = time.Minute

// Harness is one isolated web client.
type Harness struct {
	API      *API
	Backend  *session.Memory
	Registry *auth.Registry
	Guard    *acl.Guard
	View     *view.Engine
	Router   chi.Router
}

// New mounts comps on a fresh router.
func New(t testing.TB, comps ...component.Component) *Harness {
	t.Helper()
	form.SetSecret([]byte(csrfKey))

	h := &Harness{API: NewAPI(), Backend: session.NewMemory(256)}
	h.Registry = auth.NewRegistry(func(sid string) (auth.Storage, auth.Gateway) {
		return session.NewStore(h.Backend, sid), h.API.Client()
	}, auth.RegistryOptions{ResendCooldown: ResendCooldown, Logger: zap.NewNop()})
	t.Cleanup(h.Registry.Close)

	h.View = view.New(view.Options{CacheSize: 64})
	h.Guard = &acl.Guard{
		Cookies:   session.NewCookies("sid", []byte("0123456789abcdef0123456789abcdef"), time.Hour),
		Registry:  h.Registry,
		ReadyWait: time.Second,
		Loading:   h.View.Loading(),
	}

	r := chi.NewRouter()
	r.Use(h.Guard.Attach)
	deps := component.Deps{View: h.View, Guard: h.Guard, Log: zap.NewNop()}
	if err := component.Mount(r, deps, comps...); err != nil {
		t.Fatalf("mount: %v", err)
	}
	h.Router = r
	return h
}

// Browser returns a session cookie for a new browser.  A non-empty email
// seeds that account's token.  Either way the browser's bootstrap has
// finished when Browser returns, so unguarded pages see the final state.
func (h *Harness) Browser(t testing.TB, email string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	sid, _ := h.Guard.Cookies.Ensure(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if email != "" {
		if err := h.Backend.Set(context.Background(), sid, session.KeyToken, "tok-"+email); err != nil {
			t.Fatalf("seed token: %v", err)
		}
	}
	select {
	case <-h.Registry.Get(sid).Ready():
	case <-time.After(5 * time.Second):
		t.Fatalf("bootstrap did not finish")
	}
	return rec.Result().Cookies()[0]
}

// Controller returns the controller behind ck.
func (h *Harness) Controller(t testing.TB, ck *http.Cookie) *auth.Controller {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(ck)
	sid, ok := h.Guard.Cookies.Read(req)
	if !ok {
		t.Fatalf("cookie does not verify")
	}
	return h.Registry.Get(sid)
}

// Get issues a GET with ck (may be nil).
func (h *Harness) Get(path string, ck *http.Cookie) *httptest.ResponseRecorder {
	return h.do(httptest.NewRequest(http.MethodGet, path, nil), ck)
}

// Post submits vals as an urlencoded form with a CSRF token issued to ck's
// browser.  With a nil ck the token verifies for no one.
func (h *Harness) Post(t testing.TB, path string, vals url.Values, ck *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	if vals == nil {
		vals = url.Values{}
	}
	vals.Set("csrf_token", h.token(t, ck))
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req, ck)
}

// PostFile submits vals plus one file part as multipart/form-data.
func (h *Harness) PostFile(t testing.TB, path string, vals url.Values, field, name, body string, ck *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("csrf_token", h.token(t, ck))
	for k, vs := range vals {
		for _, v := range vs {
			_ = mw.WriteField(k, v)
		}
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("multipart: %v", err)
		}
		_, _ = fw.Write([]byte(body))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req, ck)
}

func (h *Harness) do(req *http.Request, ck *http.Cookie) *httptest.ResponseRecorder {
	if ck != nil {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	h.Router.ServeHTTP(rec, req)
	return rec
}

// token issues a CSRF token for the browser behind ck.
func (h *Harness) token(t testing.TB, ck *http.Cookie) string {
	t.Helper()
	var sid string
	if ck != nil {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(ck)
		sid, _ = h.Guard.Cookies.Read(req)
	}
	tok, err := form.GenerateToken(sid)
	if err != nil {
		t.Fatalf("csrf: %v", err)
	}
	return tok
}
