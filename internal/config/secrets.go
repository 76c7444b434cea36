// internal/config/secrets.go
//
// `vault:` reference resolution.
//
// Context
// -------
// Any string leaf in the merged Koanf tree may read
//
//	vault:<mount>/<path>#<key>
//
// e.g. `vault:secret/jobboard/session#hash_key`.  Each reference is
// fetched once through a SecretResolver and written back into the tree so
// the typed model only ever sees plain strings.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/vault"
)

// vaultPrefix marks a leaf that must be resolved before unmarshal.
const vaultPrefix = "vault:"

// SecretResolver fetches one key from a KV-v2 secret.  *vault.Client
// satisfies it.
type SecretResolver interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// resolveSecrets rewrites every `vault:` leaf in k.  When secrets is nil and
// at least one reference exists, a Vault client is created from VAULT_ADDR
// and VAULT_TOKEN.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, secrets SecretResolver) error {
	refs := map[string]string{}
	for key, val := range k.All() {
		s, ok := val.(string)
		if ok && strings.HasPrefix(s, vaultPrefix) {
			refs[key] = strings.TrimPrefix(s, vaultPrefix)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	if secrets == nil {
		cli, err := vault.New(ctx, zap.S().Infof)
		if err != nil {
			return err
		}
		secrets = cli
	}

	for key, ref := range refs {
		path, field, err := vault.ParseRef(ref)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		val, err := secrets.GetKV(ctx, path, field, 0)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return err
		}
		zap.S().Debugw("config secret resolved", "key", key, "path", path)
	}
	return nil
}
