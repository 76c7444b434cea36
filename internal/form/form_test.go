// internal/form/form_test.go
//
// Run: go test ./internal/form -v

package form

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/yanizio/jobboard/internal/session"
)

const testSID = "5f0c7a52-3a8e-4b8e-9d7e-2f1d7c1e9a10"

type signup struct {
	Name     string   `form:"name" validate:"required,min=2"`
	Email    string   `form:"email" validate:"required,email"`
	Password string   `form:"password" validate:"required,min=6"`
	Confirm  string   `form:"confirmPassword" validate:"eqfield=Password"`
	Skills   []string `form:"skills"`
	Openings int      `form:"openings" validate:"min=0"`
}

func postForm(t *testing.T, v url.Values) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(v.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r.WithContext(session.WithSID(r.Context(), testSID))
}

func validToken(t *testing.T) string {
	t.Helper()
	SetSecret([]byte("0123456789abcdef0123456789abcdef"))
	tok, err := GenerateToken(testSID)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func TestCSRFRoundTrip(t *testing.T) {
	tok := validToken(t)
	if !VerifyToken(tok, testSID) {
		t.Fatalf("fresh token rejected")
	}
	if VerifyToken(tok[:len(tok)-2]+"AA", testSID) {
		t.Fatalf("tampered token accepted")
	}
	SetSecret([]byte("another-key-another-key-another!!"))
	if VerifyToken(tok, testSID) {
		t.Fatalf("token verified under a different key")
	}
}

func TestCSRFTokenIsBoundToBrowser(t *testing.T) {
	tok := validToken(t)
	if VerifyToken(tok, "0d6e4b1c-8f4e-4c4e-a7a1-6f0b9d2c3e44") {
		t.Fatalf("token accepted for another browser")
	}
	if VerifyToken(tok, "") {
		t.Fatalf("token accepted without a session id")
	}
}

func TestDecodeRejectsTokenFromAnotherBrowser(t *testing.T) {
	SetSecret([]byte("0123456789abcdef0123456789abcdef"))
	foreign, err := GenerateToken("0d6e4b1c-8f4e-4c4e-a7a1-6f0b9d2c3e44")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	var in signup
	err = Decode(postForm(t, url.Values{
		"csrf_token":      {foreign},
		"name":            {"Bob"},
		"email":           {"bob@x.com"},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
	}), &in)
	if !IsValidationError(err) || Fields(err)[0].Name != "" {
		t.Fatalf("err = %v", err)
	}
	if in.Name != "" {
		t.Fatalf("decoded despite a foreign token: %+v", in)
	}
}

func TestTokenForUsesRequestSession(t *testing.T) {
	SetSecret([]byte("0123456789abcdef0123456789abcdef"))
	r := postForm(t, url.Values{})
	tok, err := TokenFor(r)
	if err != nil {
		t.Fatalf("TokenFor: %v", err)
	}
	if !VerifyToken(tok, testSID) {
		t.Fatalf("token not issued for the request's session")
	}
}

func TestDecodeValid(t *testing.T) {
	r := postForm(t, url.Values{
		"csrf_token":      {validToken(t)},
		"name":            {"  Bob  "},
		"email":           {"bob@x.com"},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
		"skills":          {"go, sql"},
		"openings":        {"3"},
	})
	var in signup
	if err := Decode(r, &in); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if in.Name != "Bob" || in.Openings != 3 {
		t.Fatalf("decoded %+v", in)
	}
	if len(in.Skills) != 2 {
		t.Fatalf("skills = %q", in.Skills)
	}
}

func TestDecodeFieldErrors(t *testing.T) {
	r := postForm(t, url.Values{
		"csrf_token":      {validToken(t)},
		"name":            {"B"},
		"email":           {"not-an-email"},
		"password":        {"123"},
		"confirmPassword": {"456"},
	})
	var in signup
	err := Decode(r, &in)
	if !IsValidationError(err) {
		t.Fatalf("err = %v", err)
	}
	got := map[string]string{}
	for _, f := range Fields(err) {
		got[f.Name] = f.Message
	}
	want := map[string]string{
		"name":            "Must be at least 2 characters.",
		"email":           "Enter a valid email address.",
		"password":        "Must be at least 6 characters.",
		"confirmPassword": "Does not match.",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: got %q want %q", k, got[k], v)
		}
	}
}

func TestDecodeRejectsMissingCSRF(t *testing.T) {
	var in signup
	err := Decode(postForm(t, url.Values{"name": {"Bob"}}), &in)
	if !IsValidationError(err) || Fields(err)[0].Name != "" {
		t.Fatalf("err = %v", err)
	}
}

func TestStateLookups(t *testing.T) {
	SetSecret([]byte("0123456789abcdef0123456789abcdef"))
	st, err := NewState(postForm(t, url.Values{}), Invalid(ErrorField{Name: "otp", Message: "Digits only."}), map[string]string{"email": "a@x.com"})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if st.CSRF == "" || st.Error("otp") != "Digits only." || st.Error("email") != "" {
		t.Fatalf("state = %+v", st)
	}
	if st.Value("email") != "a@x.com" {
		t.Fatalf("value lost")
	}
}

func TestExpiredToken(t *testing.T) {
	SetSecret([]byte("0123456789abcdef0123456789abcdef"))
	nonce := make([]byte, 16)
	ts := make([]byte, 8)
	old := uint64(time.Now().Add(-3 * time.Hour).UnixMicro())
	for i := 7; i >= 0; i-- {
		ts[i] = byte(old)
		old >>= 8
	}
	raw := append(append(append([]byte{}, nonce...), ts...), sign(fetchSecret(), nonce, ts, testSID)...)
	if VerifyToken(encode(raw), testSID) {
		t.Fatalf("stale token accepted")
	}
}
