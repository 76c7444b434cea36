// internal/session/cookie_test.go

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCookiesEnsureAndRead(t *testing.T) {
	c := NewCookies("sid", []byte("0123456789abcdef0123456789abcdef"), time.Hour)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sid, fresh := c.Ensure(rec, req)
	if !fresh || sid == "" {
		t.Fatalf("Ensure on empty request = %q, %v", sid, fresh)
	}

	resp := rec.Result()
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range resp.Cookies() {
		req2.AddCookie(ck)
	}
	got, ok := c.Read(req2)
	if !ok || got != sid {
		t.Fatalf("Read = %q, %v; want %q", got, ok, sid)
	}

	again, fresh := c.Ensure(httptest.NewRecorder(), req2)
	if fresh || again != sid {
		t.Fatalf("Ensure with valid cookie minted a new id")
	}
}

func TestCookiesRejectTampered(t *testing.T) {
	c := NewCookies("sid", []byte("0123456789abcdef0123456789abcdef"), time.Hour)
	other := NewCookies("sid", []byte("ffffffffffffffffffffffffffffffff"), time.Hour)

	rec := httptest.NewRecorder()
	other.Ensure(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}
	if _, ok := c.Read(req); ok {
		t.Fatalf("cookie signed with another key was accepted")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "garbage"})
	if _, ok := c.Read(req); ok {
		t.Fatalf("garbage cookie accepted")
	}
}

func TestCookiesRefreshCapsExpiry(t *testing.T) {
	c := NewCookies("sid", []byte("0123456789abcdef0123456789abcdef"), 24*time.Hour)
	rec := httptest.NewRecorder()
	until := time.Now().Add(time.Hour)

	c.Refresh(rec, httptest.NewRequest(http.MethodGet, "/", nil), "6f1c1f0e-3c44-4c8e-9f57-4b8d1a3f0e11", until)

	cks := rec.Result().Cookies()
	if len(cks) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cks))
	}
	if cks[0].Expires.After(until.Add(time.Second)) {
		t.Fatalf("expiry %v not capped at %v", cks[0].Expires, until)
	}
}
