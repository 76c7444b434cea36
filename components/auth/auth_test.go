// components/auth/auth_test.go

package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/pagetest"
)

func setup(t *testing.T) *pagetest.Harness {
	t.Helper()
	h := pagetest.New(t, New())
	h.API.AddUser(api.User{Name: "Ann", Email: "ann@x.com"}, "secret1")
	h.API.AddUser(api.User{Name: "Root", Email: "root@x.com", IsAdmin: true}, "secret1")
	return h
}

func login(email, pw string) url.Values {
	return url.Values{"email": {email}, "password": {pw}}
}

func TestLoginPageRenders(t *testing.T) {
	h := setup(t)
	rec := h.Get("/login", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="csrf_token"`)
	assert.Contains(t, rec.Body.String(), "Welcome back")
}

func TestLoginRoutesByRole(t *testing.T) {
	cases := map[string]string{
		"ann@x.com":  "/dashboard",
		"root@x.com": "/admin/dashboard",
	}
	for email, want := range cases {
		t.Run(email, func(t *testing.T) {
			h := setup(t)
			ck := h.Browser(t, "")
			rec := h.Post(t, "/login", login(email, "secret1"), ck)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, want, rec.Header().Get("Location"))
			assert.True(t, h.Controller(t, ck).Snapshot().State.IsAuthenticated())
		})
	}
}

func TestLoginFailureShowsNotice(t *testing.T) {
	h := setup(t)
	ck := h.Browser(t, "")
	rec := h.Post(t, "/login", login("ann@x.com", "wrong"), ck)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Invalid credentials")
	assert.Contains(t, body, `value="ann@x.com"`)
	assert.NotContains(t, body, "wrong", "password must not be echoed")
}

func TestLoginValidation(t *testing.T) {
	h := setup(t)
	rec := h.Post(t, "/login", login("not-an-email", ""), h.Browser(t, ""))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Enter a valid email address.")
	assert.Contains(t, rec.Body.String(), "This field is required.")
	assert.NotContains(t, h.API.Calls(), "login")
}

func TestMissingCSRFIsRejected(t *testing.T) {
	h := setup(t)
	req := strings.NewReader(login("ann@x.com", "secret1").Encode())
	r := httptest.NewRequest(http.MethodPost, "/login", req)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Router.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Security token invalid")
}

func TestUnverifiedLoginGoesToOTP(t *testing.T) {
	h := setup(t)
	ck := h.Browser(t, "")
	rec := h.Post(t, "/register", url.Values{
		"name": {"Bob"}, "email": {"bob@x.com"},
		"password": {"secret1"}, "confirm_password": {"secret1"},
	}, ck)
	require.Equal(t, "/verify-otp", rec.Header().Get("Location"))

	rec = h.Post(t, "/login", login("bob@x.com", "secret1"), ck)
	assert.Equal(t, "/verify-otp", rec.Header().Get("Location"))

	page := h.Get("/verify-otp", ck)
	assert.Contains(t, page.Body.String(), "Please verify your OTP first")
	assert.Contains(t, page.Body.String(), "bob@x.com")
}

func TestRegisterVerifyThenLogin(t *testing.T) {
	h := setup(t)
	ck := h.Browser(t, "")

	rec := h.Post(t, "/register", url.Values{
		"name": {"Bob"}, "email": {"bob@x.com"},
		"password": {"secret1"}, "confirm_password": {"secret1"},
	}, ck)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/verify-otp", rec.Header().Get("Location"))

	rec = h.Post(t, "/verify-otp", url.Values{"otp": {"000000"}}, ck)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid OTP")

	rec = h.Post(t, "/verify-otp", url.Values{"otp": {pagetest.ValidOTP}}, ck)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	rec = h.Post(t, "/login", login("bob@x.com", "secret1"), ck)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestRegisterPasswordsMustMatch(t *testing.T) {
	h := setup(t)
	rec := h.Post(t, "/register", url.Values{
		"name": {"Bob"}, "email": {"bob@x.com"},
		"password": {"secret1"}, "confirm_password": {"secret2"},
	}, h.Browser(t, ""))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Does not match.")
}

func TestVerifyWithoutPendingGoesToRegister(t *testing.T) {
	h := setup(t)
	rec := h.Get("/verify-otp", h.Browser(t, ""))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register", rec.Header().Get("Location"))
}

func TestResendRespectsCooldown(t *testing.T) {
	h := setup(t)
	ck := h.Browser(t, "")
	h.Post(t, "/register", url.Values{
		"name": {"Bob"}, "email": {"bob@x.com"},
		"password": {"secret1"}, "confirm_password": {"secret1"},
	}, ck)

	// Registration counts as the first send.
	rec := h.Post(t, "/verify-otp/resend", nil, ck)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please wait before requesting another code.")
	assert.Contains(t, rec.Body.String(), "Resend code in")
	assert.NotContains(t, h.API.Calls(), "resend_otp")
}

func TestLogoutIsPostOnly(t *testing.T) {
	h := setup(t)
	ck := h.Browser(t, "ann@x.com")

	rec := h.Get("/logout", ck)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = h.Post(t, "/logout", nil, ck)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, h.Controller(t, ck).Snapshot().State.IsAuthenticated())

	page := h.Get("/login", ck)
	assert.Contains(t, page.Body.String(), "Logged out successfully")
}

var csrfField = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func TestLogoutRejectsTokenFromAnotherBrowser(t *testing.T) {
	h := setup(t)
	victim := h.Browser(t, "ann@x.com")
	other := h.Browser(t, "")

	// A token scraped from a page rendered for a different browser.
	m := csrfField.FindStringSubmatch(h.Get("/login", other).Body.String())
	require.Len(t, m, 2)

	req := httptest.NewRequest(http.MethodPost, "/logout",
		strings.NewReader(url.Values{"csrf_token": {m[1]}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(victim)
	rec := httptest.NewRecorder()
	h.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, h.Controller(t, victim).Snapshot().State.IsAuthenticated())
}

func TestSignedInBrowserSkipsLoginPage(t *testing.T) {
	h := setup(t)
	ck := h.Browser(t, "root@x.com")
	rec := h.Get("/login", ck)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
}
