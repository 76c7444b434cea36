// internal/server/timeouts.go
//
// HTTP server helper with hardened timeouts and graceful shutdown.
//
//   • ReadHeaderTimeout – abort slow-loris headers (10 s)
//   • ReadTimeout       – bounds résumé uploads on the apply form (60 s)
//   • WriteTimeout      – guard wait plus the slowest API call (45 s)
//   • IdleTimeout       – close keep-alives on idle clients (120 s)

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ShutdownGrace bounds how long in-flight requests may finish on exit.
const ShutdownGrace = 15 * time.Second

// New constructs an *http.Server with the defaults above.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Run serves until ctx is cancelled, then drains connections for at most
// ShutdownGrace.  A listener failure is returned immediately.
func Run(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("http server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return <-errc
}
