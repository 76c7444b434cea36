// evictor.go houses the eviction loop for Registry.  Every EvictInterval it
// scans the map and removes:
//
//   - controllers idle longer than IdleTTL
//   - least-recently-used controllers when map size exceeds MaxEntries
//
// Each eviction event is logged and updates Prometheus counters.
package auth

import (
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/metrics"
)

func (r *Registry) evictLoop() {
	for {
		select {
		case <-r.stop:
			return
		case now := <-r.evictTicker.C:
			r.sweep(now)
		}
	}
}

// sweep runs one idle pass and one LRU pass against now.
func (r *Registry) sweep(now time.Time) {
	var count int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	r.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := time.Duration(now.UnixNano() - atomic.LoadInt64(&ent.lastSeen))
		if idle > r.opts.IdleTTL {
			r.evict(key.(string), "idle", idle)
			return true
		}
		count++
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if count <= r.opts.MaxEntries {
		return
	}
	type kv struct {
		key string
		at  int64
	}
	all := make([]kv, 0, count)
	r.m.Range(func(key, value any) bool {
		all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&value.(*entry).lastSeen)})
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
	for i := 0; i < len(all)-r.opts.MaxEntries; i++ {
		r.evict(all[i].key, "lru", time.Duration(now.UnixNano()-all[i].at))
	}
}

func (r *Registry) evict(sid, reason string, idle time.Duration) {
	if _, loaded := r.m.LoadAndDelete(sid); !loaded {
		return
	}
	r.log.Debug("controller evicted",
		zap.String("sid", shortSID(sid)),
		zap.String("reason", reason),
		zap.Duration("idle", idle.Truncate(time.Second)),
	)
	metrics.ControllerEvictTotal.Inc()
	metrics.ActiveControllers.Dec()
}
