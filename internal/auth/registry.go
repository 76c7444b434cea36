// internal/auth/registry.go
//
// Per-browser controller registry.
//
// Context
// -------
// Each browser sid owns exactly one Controller for as long as it is active.
// The Registry creates controllers lazily on first request, starts their
// Bootstrap in the background, and keeps them in a sync.Map with a
// lastSeen stamp.  singleflight collapses concurrent first requests from
// the same browser (a page plus its assets) into one creation.
//
// The evictor (evictor.go) drops controllers idle longer than IdleTTL and
// trims the least recently used ones when the map outgrows MaxEntries.  An
// evicted browser simply bootstraps again from durable storage on its next
// request.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/jobboard/internal/metrics"
)

// Registry defaults.
const (
	DefaultIdleTTL          = 30 * time.Minute
	DefaultMaxEntries       = 5000
	DefaultEvictInterval    = 5 * time.Minute
	DefaultBootstrapTimeout = 10 * time.Second
)

// Factory builds the storage and gateway bound to one browser.
type Factory func(sid string) (Storage, Gateway)

// RegistryOptions tunes a Registry.  Zero values select the defaults above.
type RegistryOptions struct {
	IdleTTL          time.Duration
	MaxEntries       int
	EvictInterval    time.Duration
	BootstrapTimeout time.Duration
	ResendCooldown   time.Duration
	Logger           *zap.Logger
}

type entry struct {
	ctl      *Controller
	lastSeen int64 // UnixNano
}

// Registry maps browser sids to live Controllers.
type Registry struct {
	factory Factory
	opts    RegistryOptions
	log     *zap.Logger

	sfg singleflight.Group
	m   sync.Map // sid -> *entry

	evictTicker *time.Ticker
	stop        chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

// NewRegistry constructs a Registry and starts the background evictor.
func NewRegistry(f Factory, opts RegistryOptions) *Registry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = DefaultEvictInterval
	}
	if opts.BootstrapTimeout <= 0 {
		opts.BootstrapTimeout = DefaultBootstrapTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	r := &Registry{
		factory: f,
		opts:    opts,
		log:     opts.Logger.Named("auth"),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	r.evictTicker = time.NewTicker(opts.EvictInterval)
	go r.evictLoop()
	return r
}

// Get returns the Controller for sid, creating and bootstrapping it on
// first use.
func (r *Registry) Get(sid string) *Controller {
	if v, ok := r.m.Load(sid); ok {
		return r.touch(v.(*entry))
	}

	v, _, _ := r.sfg.Do(sid, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := r.m.Load(sid); ok {
			return r.touch(v.(*entry)), nil
		}
		store, gw := r.factory(sid)
		ctl := New(store, gw, Options{
			ResendCooldown: r.opts.ResendCooldown,
			Logger:         r.log.With(zap.String("sid", shortSID(sid))),
		})
		r.m.Store(sid, &entry{ctl: ctl, lastSeen: r.now().UnixNano()})
		metrics.ActiveControllers.Inc()

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.opts.BootstrapTimeout)
			defer cancel()
			if err := ctl.Bootstrap(ctx); err != nil {
				ctl.log.Debug("bootstrap ended early", zap.Error(err))
			}
		}()
		return ctl, nil
	})
	return v.(*Controller)
}

// Len reports the number of live controllers.
func (r *Registry) Len() int {
	n := 0
	r.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Close stops the evictor.  Controllers are left for the garbage collector.
func (r *Registry) Close() {
	r.stopOnce.Do(func() {
		r.evictTicker.Stop()
		close(r.stop)
	})
}

func (r *Registry) touch(ent *entry) *Controller {
	atomic.StoreInt64(&ent.lastSeen, r.now().UnixNano())
	return ent.ctl
}

// shortSID keeps log lines useful without writing whole session ids.
func shortSID(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}
