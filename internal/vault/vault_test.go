// internal/vault/vault_test.go
//
// Unit-tests for reference parsing.  GetKV and the renewal loop need a live
// Vault and are exercised in staging only.

package vault

import "testing"

func TestParseRef(t *testing.T) {
	cases := []struct {
		in       string
		path     string
		key      string
		wantFail bool
	}{
		{in: "secret/jobboard/session#hash_key", path: "secret/jobboard/session", key: "hash_key"},
		{in: "kv/app#a#b", path: "kv/app#a", key: "b"},
		{in: "secret/jobboard", wantFail: true},
		{in: "secret#key", wantFail: true},
		{in: "#key", wantFail: true},
		{in: "secret/x#", wantFail: true},
	}
	for _, c := range cases {
		path, key, err := ParseRef(c.in)
		if c.wantFail {
			if err == nil {
				t.Errorf("ParseRef(%q) expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRef(%q) error: %v", c.in, err)
			continue
		}
		if path != c.path || key != c.key {
			t.Errorf("ParseRef(%q) = %q, %q; want %q, %q", c.in, path, key, c.path, c.key)
		}
	}
}

func TestSplitMount(t *testing.T) {
	m, r := splitMount("secret/jobboard/session")
	if m != "secret" || r != "jobboard/session" {
		t.Fatalf("splitMount = %q, %q", m, r)
	}
	if m, r := splitMount(""); m != "" || r != "" {
		t.Fatalf("splitMount(\"\") = %q, %q", m, r)
	}
}
