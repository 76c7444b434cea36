// internal/acl/guard_test.go
//
// Decision table for the route guard.
//
// Run: go test ./internal/acl -v

package acl

import (
	"testing"

	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/auth"
)

var (
	member = api.User{ID: "u1", Name: "Mia"}
	admin  = api.User{ID: "u2", Name: "Ada", IsAdmin: true}
)

func TestDecide(t *testing.T) {
	anon := auth.Snapshot{State: auth.AnonymousState()}
	user := auth.Snapshot{State: auth.AuthenticatedState(member)}
	root := auth.Snapshot{State: auth.AuthenticatedState(admin)}
	busy := auth.Snapshot{State: auth.AuthenticatedState(admin), Loading: true}
	unresolved := auth.Snapshot{Loading: true}

	cases := []struct {
		name string
		snap auth.Snapshot
		req  Requirement
		want Decision
	}{
		{"unknown public", unresolved, Public, Decision{Outcome: Loading}},
		{"unknown admin", unresolved, Admin, Decision{Outcome: Loading}},
		{"busy admin", busy, Admin, Decision{Outcome: Loading}},
		{"anon public", anon, Public, Decision{Outcome: Allow}},
		{"anon auth", anon, Authenticated, Decision{Outcome: Redirect, Target: "/login"}},
		{"anon admin", anon, Admin, Decision{Outcome: Redirect, Target: "/login"}},
		{"admin flag alone", anon, Requirement{Admin: true}, Decision{Outcome: Redirect, Target: "/login"}},
		{"user auth", user, Authenticated, Decision{Outcome: Allow}},
		{"user admin", user, Admin, Decision{Outcome: Redirect, Target: "/dashboard"}},
		{"admin admin", root, Admin, Decision{Outcome: Allow}},
	}
	for _, tc := range cases {
		if got := Decide(tc.snap, tc.req); got != tc.want {
			t.Errorf("%s: got %+v want %+v", tc.name, got, tc.want)
		}
	}
}

func TestEntryRedirect(t *testing.T) {
	user := auth.Snapshot{State: auth.AuthenticatedState(member)}
	root := auth.Snapshot{State: auth.AuthenticatedState(admin)}
	anon := auth.Snapshot{State: auth.AnonymousState()}

	cases := []struct {
		name    string
		snap    auth.Snapshot
		path    string
		arrived bool
		want    string
	}{
		{"user on login", user, "/login", false, "/dashboard"},
		{"admin on register", root, "/register", false, "/admin/dashboard"},
		{"user on otp", user, "/verify-otp", false, "/dashboard"},
		{"admin home after sign-in", root, "/", true, "/admin/dashboard"},
		{"user home later", user, "/", false, ""},
		{"user on jobs", user, "/jobs", true, ""},
		{"anon on login", anon, "/login", true, ""},
		{"loading", auth.Snapshot{Loading: true}, "/login", true, ""},
	}
	for _, tc := range cases {
		got, ok := EntryRedirect(tc.snap, tc.path, tc.arrived)
		if got != tc.want || ok != (tc.want != "") {
			t.Errorf("%s: got %q,%v want %q", tc.name, got, ok, tc.want)
		}
	}
}
