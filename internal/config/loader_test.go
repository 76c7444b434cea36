// internal/config/loader_test.go
//
// Loader tests: YAML over defaults, env overlay, vault references, and
// validation failures.  Each test writes its own conf/global.yaml into a
// temp root.
//
// Run: go test ./internal/config -v

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const baseYAML = `
http:
  listen_addr: ":9090"
api:
  base_url: "http://api.test/api"
session:
  hash_key: "0123456789abcdef0123456789abcdef-hash"
  csrf_key: "0123456789abcdef0123456789abcdef-csrf"
`

func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return root
}

type fakeSecrets map[string]string

func (f fakeSecrets) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	v, ok := f[path+"#"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestLoadDefaultsAndYAML(t *testing.T) {
	root := writeRoot(t, baseYAML)

	cfg, err := LoadFrom(context.Background(), root, fakeSecrets{})
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":9090" {
		t.Errorf("listen_addr = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.Session.Driver != "memory" || cfg.Session.CookieName != "jobboard_sid" {
		t.Errorf("session defaults lost: %+v", cfg.Session)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("api.timeout = %v", cfg.API.Timeout)
	}
	if cfg.Paths.Root != root {
		t.Errorf("root = %q, want %q", cfg.Paths.Root, root)
	}
	if Get() != cfg {
		t.Errorf("Get() did not return the cached config")
	}
}

func TestLoadEnvOverlay(t *testing.T) {
	root := writeRoot(t, baseYAML)
	t.Setenv("JOBBOARD_API__BASE_URL", "https://jobs.example.com/api")
	t.Setenv("JOBBOARD_ACL__READY_WAIT", "500ms")

	cfg, err := LoadFrom(context.Background(), root, fakeSecrets{})
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.API.BaseURL != "https://jobs.example.com/api" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.ACL.ReadyWait != 500*time.Millisecond {
		t.Errorf("ready_wait = %v", cfg.ACL.ReadyWait)
	}
}

func TestLoadResolvesVaultRefs(t *testing.T) {
	root := writeRoot(t, `
api:
  base_url: "http://api.test/api"
session:
  hash_key: "vault:secret/jobboard/session#hash_key"
  csrf_key: "vault:secret/jobboard/session#csrf_key"
`)
	secrets := fakeSecrets{
		"secret/jobboard/session#hash_key": "hash-hash-hash-hash-hash-hash-hash-hash",
		"secret/jobboard/session#csrf_key": "csrf-csrf-csrf-csrf-csrf-csrf-csrf-csrf",
	}

	cfg, err := LoadFrom(context.Background(), root, secrets)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.Session.HashKey != secrets["secret/jobboard/session#hash_key"] {
		t.Errorf("hash_key = %q", cfg.Session.HashKey)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing base url": `
session:
  hash_key: "0123456789abcdef0123456789abcdef-hash"
  csrf_key: "0123456789abcdef0123456789abcdef-csrf"
`,
		"unknown driver": baseYAML + `
  driver: sqlite
`,
		"redis without addr": baseYAML + `
  driver: redis
`,
		"shared keys": `
api:
  base_url: "http://api.test/api"
session:
  hash_key: "0123456789abcdef0123456789abcdef-same"
  csrf_key: "0123456789abcdef0123456789abcdef-same"
`,
	}
	for name, yaml := range cases {
		root := writeRoot(t, yaml)
		if _, err := LoadFrom(context.Background(), root, fakeSecrets{}); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadMissingSecret(t *testing.T) {
	root := writeRoot(t, `
api:
  base_url: "http://api.test/api"
session:
  hash_key: "vault:secret/jobboard/session#hash_key"
  csrf_key: "0123456789abcdef0123456789abcdef-csrf"
`)
	if _, err := LoadFrom(context.Background(), root, fakeSecrets{}); err == nil {
		t.Fatalf("expected error for unresolvable secret")
	}
}
