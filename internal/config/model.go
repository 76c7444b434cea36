// internal/config/model.go
//
// Typed configuration model for the job-board web client.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                            – dotenv values,
//   • `conf/global.yaml`                         – primary static file,
//   • `JOBBOARD_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling (see secrets.go), so the
// model never stores Vault URIs, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
// 

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	PublicURL  string `koanf:"public_url"  validate:"omitempty,url"`

	// TrustProxy honours X-Forwarded-For from a reverse proxy that sets it.
	TrustProxy bool `koanf:"trust_proxy"`
}

//
// API section
//

// API points at the remote job-board REST service.  Every authenticated and
// unauthenticated call is addressed relative to BaseURL.
type API struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout"  validate:"gt=0"`
	Breaker Breaker       `koanf:"breaker"`
}

// Breaker tunes the circuit breaker wrapped around the API transport.
type Breaker struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"       validate:"gt=0"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gt=0,lte=1"`
	MinRequests  uint32        `koanf:"min_requests"`
}

//
// Session section
//

// Session selects the durable key-value backend and cookie settings.
//
// HashKey signs the session-id cookie and CSRFKey signs form tokens.  Both
// are usually `vault:` references in production.
type Session struct {
	Driver     string        `koanf:"driver"      validate:"oneof=memory mysql redis"`
	CookieName string        `koanf:"cookie_name" validate:"required"`
	HashKey    string        `koanf:"hash_key"    validate:"required,min=32"`
	CSRFKey    string        `koanf:"csrf_key"    validate:"required,min=32"`
	MaxAge     time.Duration `koanf:"max_age"     validate:"gt=0"`
	MaxEntries int           `koanf:"max_entries" validate:"gte=1"`

	// mysql rows idle longer than MaxAge are deleted every PurgeInterval.
	MySQLDSN      string        `koanf:"mysql_dsn"      validate:"required_if=Driver mysql"`
	PurgeInterval time.Duration `koanf:"purge_interval" validate:"gt=0"`

	RedisAddr     string `koanf:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

//
// Auth section
//

// Auth tunes the per-browser controller registry.
type Auth struct {
	IdleTTL        time.Duration `koanf:"idle_ttl"        validate:"gt=0"`
	MaxControllers int           `koanf:"max_controllers" validate:"gte=1"`
	ResendCooldown time.Duration `koanf:"resend_cooldown"`
}

//
// ACL section
//

// ACL tunes the route guard.  ReadyWait bounds how long a guarded request
// waits for an in-flight bootstrap before the loading page is served.
type ACL struct {
	ReadyWait time.Duration `koanf:"ready_wait"`
}

//
// Misc sections
//

// View controls template lookup.  OverrideDir, when set, is searched before
// the templates embedded in each component.
type View struct {
	OverrideDir string `koanf:"override_dir"`
	CacheSize   int    `koanf:"cache_size" validate:"gte=1"`
}

// Log controls the zap logger.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// Tracing configures the OpenTelemetry exporter.
type Tracing struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"     validate:"required_if=Enabled true"`
	SampleRate  float64 `koanf:"sample_rate"  validate:"gte=0,lte=1"`
	Environment string  `koanf:"environment"`
}

// Geo points at an optional GeoLite2-City database.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

// Debug toggles the /debug diagnostics module.
type Debug struct {
	Enabled bool `koanf:"enabled"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or JOBBOARD_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // JOBBOARD_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP    HTTP    `koanf:"http"`
	API     API     `koanf:"api"`
	Session Session `koanf:"session"`
	Auth    Auth    `koanf:"auth"`
	ACL     ACL     `koanf:"acl"`
	View    View    `koanf:"view"`
	Log     Log     `koanf:"log"`
	Tracing Tracing `koanf:"tracing"`
	Geo     Geo     `koanf:"geo"`
	Debug   Debug   `koanf:"debug"`
	Paths   Paths   `koanf:"-"` // not loaded from config files
}

// Defaults returns the baseline every overlay is merged over.  Secrets have
// no default and must come from YAML, env, or Vault.
func Defaults() Config {
	return Config{
		HTTP: HTTP{ListenAddr: ":8080"},
		API: API{
			Timeout: 15 * time.Second,
			Breaker: Breaker{
				MaxRequests:  1,
				Interval:     60 * time.Second,
				Timeout:      30 * time.Second,
				FailureRatio: 0.5,
				MinRequests:  5,
			},
		},
		Session: Session{
			Driver:        "memory",
			CookieName:    "jobboard_sid",
			MaxAge:        7 * 24 * time.Hour,
			MaxEntries:    10000,
			PurgeInterval: time.Hour,
		},
		Auth: Auth{
			IdleTTL:        30 * time.Minute,
			MaxControllers: 5000,
			ResendCooldown: 60 * time.Second,
		},
		ACL:     ACL{ReadyWait: 2 * time.Second},
		View:    View{CacheSize: 256},
		Log:     Log{Level: "info"},
		Tracing: Tracing{SampleRate: 1.0, Environment: "development"},
	}
}
