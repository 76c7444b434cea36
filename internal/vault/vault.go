// internal/vault/vault.go
//
// Vault client wrapper used by the config loader.
//
// Context
// -------
//   - Provides a concurrency‑safe client around the HashiCorp Vault Go SDK.
//   - Adds background token renewal, simple KV‑v2 helpers, and per‑key caching.
//   - ParseRef splits the `<mount>/<path>#<key>` references that appear in
//     `conf/global.yaml` (session hash key, CSRF key, Redis password, DSN).
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, zap.S().Infof)     // during boot.
//  2. pw,  err := cli.GetKV(ctx, path, key, ttl)    // config secrets.
//
// Build tags: none.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Create once at startup.  Zero value is
// invalid.
type Client struct {
	api   *vault.Client
	logFn func(string, ...any)

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client and starts a background token‑renewal loop.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token (falls back to ~/.vault‑token).
func New(ctx context.Context, logFn func(string, ...any)) (*Client, error) {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := &Client{
		api:   apiCli,
		logFn: logFn,
		cache: make(map[string]cached),
	}

	go c.renewLoop(ctx)

	return c, nil
}

// GetKV fetches a single key from a KV‑v2 secret.  If ttl > 0 the result is
// cached for that duration.  Subsequent callers within the TTL receive the
// cached copy.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non‑empty")
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}

	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}

	return sval, nil
}

//
// SECTION 2.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for ctx.Err() == nil {
		wait := c.renewOnce(ctx)
		backoff(ctx, wait)
	}
}

// renewOnce probes the token, runs a renewer until it stops, and returns
// how long to back off before probing again.
func (c *Client) renewOnce(ctx context.Context) time.Duration {
	sec, err := c.api.Auth().Token().RenewSelf(0)
	if err != nil {
		c.logFn("vault: token renew self failed: %v", err)
		return 30 * time.Second
	}
	if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
		c.logFn("vault: token is not renewable, sleeping 1h")
		return time.Hour
	}

	renewer, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
		Secret: sec,
	})
	if err != nil {
		c.logFn("vault: watcher init error: %v", err)
		return 30 * time.Second
	}
	go renewer.Start()
	defer renewer.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case err := <-renewer.DoneCh():
			if err != nil {
				c.logFn("vault: token renewal stopped: %v", err)
			}
			return 15 * time.Second
		case ev := <-renewer.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.logFn("vault: token renewed, ttl=%ds", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

// ErrBadRef is returned by ParseRef for references without a path or key.
var ErrBadRef = errors.New("vault: reference must look like <mount>/<path>#<key>")

// ParseRef splits "secret/jobboard/session#hash_key" into its secret path and
// key.  The `vault:` prefix must already be stripped.
func ParseRef(ref string) (secretPath, key string, err error) {
	i := strings.LastIndexByte(ref, '#')
	if i <= 0 || i == len(ref)-1 {
		return "", "", ErrBadRef
	}
	secretPath, key = ref[:i], ref[i+1:]
	if mount, rel := splitMount(secretPath); mount == "" || rel == "" {
		return "", "", ErrBadRef
	}
	return secretPath, key, nil
}

func splitMount(p string) (mount, rel string) {
	if p == "" {
		return "", ""
	}
	parts := strings.SplitN(p, "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
