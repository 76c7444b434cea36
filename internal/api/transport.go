// internal/api/transport.go
//
// Shared HTTP plumbing for every per-browser Client.
//
// Context
// -------
// One Transport exists per process.  It owns the pooled *http.Client, a
// circuit breaker that trips when the API keeps failing, and the tracer and
// histogram used to observe each call.  Per-browser state (the bearer
// token) lives in Client, never here.
//
// Failure accounting
// ------------------
//   • Transport errors and 5xx replies count as breaker failures.
//   • 4xx replies are the caller's problem and count as successes.
//   • While the breaker is open every call fails fast with ErrUnavailable.
//
// There are no automatic retries.  A failed call is reported once.

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/metrics"
)

const (
	tracerName   = "github.com/yanizio/jobboard/internal/api"
	maxBodyBytes = 4 << 20
)

// Config holds Transport tunables.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
}

// BreakerConfig mirrors gobreaker.Settings plus the trip ratio.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// reply is a fully-read response.
type reply struct {
	status int
	body   []byte
}

// Transport is safe for concurrent use.
type Transport struct {
	base    *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*reply]
	tracer  trace.Tracer
}

// NewTransport validates cfg.BaseURL and builds the pooled client and
// breaker.
func NewTransport(cfg Config) (*Transport, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api: bad base url %q", cfg.BaseURL)
	}

	hc := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   50,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}

	bc := cfg.Breaker
	if bc.Name == "" {
		bc.Name = "jobboard-api"
	}
	if bc.FailureRatio <= 0 {
		bc.FailureRatio = 0.5
	}
	if bc.MinRequests == 0 {
		bc.MinRequests = 5
	}
	settings := gobreaker.Settings{
		Name:        bc.Name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bc.FailureRatio
		},
		// Cancelled calls do not count against the API.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Warn("api circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	}
	metrics.BreakerState.WithLabelValues(bc.Name).Set(0)

	return &Transport{
		base:    base,
		http:    hc,
		breaker: gobreaker.NewCircuitBreaker[*reply](settings),
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// NewClient returns a Client with no bearer token.
func (t *Transport) NewClient() *Client { return &Client{t: t} }

// BreakerState reports the breaker state for diagnostics.
func (t *Transport) BreakerState() string { return t.breaker.State().String() }

// endpoint joins the base URL and a path such as "/auth/login".
func (t *Transport) endpoint(path string) string {
	u := *t.base
	u.Path = t.base.Path + path
	return u.String()
}

// send executes req through the breaker.  A non-nil reply always has a
// status below 500.
func (t *Transport) send(ctx context.Context, op string, req *http.Request) (*reply, error) {
	ctx, span := t.tracer.Start(ctx, "api."+op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
		))
	defer span.End()

	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	rep, err := t.breaker.Execute(func() (*reply, error) {
		resp, err := t.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
		}
		if resp.StatusCode >= 500 {
			return nil, newError(op, resp.StatusCode, body)
		}
		return &reply{status: resp.StatusCode, body: body}, nil
	})

	status := "error"
	switch {
	case err == nil:
		status = strconv.Itoa(rep.status)
	case Status(err) != 0:
		status = strconv.Itoa(Status(err))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "breaker_open"
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	metrics.APIRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", rep.status))
	return rep, nil
}

// stateValue maps gobreaker states to gauge values.
func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
