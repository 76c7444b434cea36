// internal/session/purge.go
//
// Purge loop for backends whose rows never expire on their own (mysql).
// Memory evicts by LRU and redis by key TTL, so they are skipped.

package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/metrics"
)

const purgeTimeout = 30 * time.Second

// Purger deletes sessions not written since before.
type Purger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// StartPurger deletes sessions idle longer than maxAge every interval until
// ctx is done.  The returned channel closes when the loop exits; it is
// already closed when b is not a Purger.
func StartPurger(ctx context.Context, b Backend, maxAge, every time.Duration, log *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	p, ok := b.(Purger)
	if !ok || every <= 0 {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				purgeOnce(ctx, p, now.Add(-maxAge), log)
			}
		}
	}()
	return done
}

func purgeOnce(ctx context.Context, p Purger, before time.Time, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()
	n, err := p.Purge(ctx, before)
	if err != nil {
		log.Warn("session purge failed", zap.Error(err))
		return
	}
	metrics.SessionsPurged.Add(float64(n))
	if n > 0 {
		log.Info("sessions purged", zap.Int64("rows", n), zap.Time("before", before))
	}
}
