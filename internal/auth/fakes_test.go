// internal/auth/fakes_test.go
//
// In-memory Storage and Gateway doubles shared by the package tests.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/yanizio/jobboard/internal/api"
)

// fakeStore fails calls made with a finished context, as the redis and mysql
// backends do.
type fakeStore struct {
	mu     sync.Mutex
	kv     map[string]string
	getErr error
}

func newFakeStore() *fakeStore { return &fakeStore{kv: map[string]string{}} }

func (s *fakeStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.kv[key]
	return v, ok, nil
}

func (s *fakeStore) Set(ctx context.Context, key, val string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = val
	return nil
}

func (s *fakeStore) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.kv, k)
	}
	return nil
}

func (s *fakeStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	return v, ok
}

func (s *fakeStore) putUser(u api.User) {
	b, _ := json.Marshal(u)
	s.mu.Lock()
	s.kv[KeyUser] = string(b)
	s.mu.Unlock()
}

// fakeGateway answers from a table of accounts.  Tokens are "tok-<email>".
type fakeGateway struct {
	mu       sync.Mutex
	token    string
	users    map[string]api.User // by email
	password map[string]string
	verified map[string]bool

	signups    []api.SignupRequest
	verifies   []api.VerifyOTPRequest
	resends    []string
	profileErr error

	// loginGate and profileGate, when set, block the call until closed.
	loginGate   chan struct{}
	profileGate chan struct{}
	// entered is signalled when a gated call starts waiting.
	entered chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:    map[string]api.User{},
		password: map[string]string{},
		verified: map[string]bool{},
		entered:  make(chan struct{}, 4),
	}
}

func (g *fakeGateway) addUser(u api.User, password string, verified bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[u.Email] = u
	g.password[u.Email] = password
	g.verified[u.Email] = verified
}

func (g *fakeGateway) Signup(_ context.Context, in api.SignupRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.signups = append(g.signups, in)
	if _, taken := g.users[in.Email]; taken {
		return "", &api.Error{Op: "signup", Status: http.StatusBadRequest, Message: "User already exists"}
	}
	g.users[in.Email] = api.User{ID: "u-" + in.Email, Name: in.Name, Email: in.Email}
	g.password[in.Email] = in.Password
	return "otp-" + in.Email, nil
}

func (g *fakeGateway) VerifyOTP(_ context.Context, in api.VerifyOTPRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifies = append(g.verifies, in)
	if in.OTP != "123456" {
		return &api.Error{Op: "verify_otp", Status: http.StatusBadRequest, Message: "Invalid OTP"}
	}
	g.verified[in.Email] = true
	return nil
}

func (g *fakeGateway) ResendOTP(_ context.Context, email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resends = append(g.resends, email)
	return nil
}

func (g *fakeGateway) Login(_ context.Context, cred api.Credentials) (string, error) {
	g.wait(g.loginGate)
	g.mu.Lock()
	defer g.mu.Unlock()
	if pw, ok := g.password[cred.Email]; !ok || pw != cred.Password {
		return "", &api.Error{Op: "login", Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	if !g.verified[cred.Email] {
		return "", &api.Error{Op: "login", Status: http.StatusForbidden, Message: unverifiedMessage}
	}
	return "tok-" + cred.Email, nil
}

func (g *fakeGateway) GetProfile(context.Context) (api.User, error) {
	g.wait(g.profileGate)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.profileErr != nil {
		return api.User{}, g.profileErr
	}
	for email, u := range g.users {
		if g.token == "tok-"+email {
			return u, nil
		}
	}
	return api.User{}, &api.Error{Op: "get_profile", Status: http.StatusUnauthorized, Message: "Invalid token"}
}

func (g *fakeGateway) SetToken(tok string) {
	g.mu.Lock()
	g.token = tok
	g.mu.Unlock()
}

func (g *fakeGateway) ClearToken() { g.SetToken("") }

func (g *fakeGateway) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

func (g *fakeGateway) wait(gate chan struct{}) {
	if gate == nil {
		return
	}
	g.entered <- struct{}{}
	<-gate
}

var errBoom = errors.New("boom")
