package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"BlogCurator/internal/domain"
	"BlogCurator/internal/metrics"
	"BlogCurator/internal/ports"
)

// LimiterConfig sets the local request budget for one AI backend.
type LimiterConfig struct {
	RequestsPerMinute int
	Burst             int
	MaxInFlight       int
	Timeout           time.Duration
}

// Client wraps a Completer with a shared token bucket, an in-flight bound and a
// per-attempt timeout. It never retries; retry policy belongs to the caller.
type Client struct {
	backend  ports.Completer
	limiter  *rate.Limiter
	inflight *semaphore.Weighted
	timeout  time.Duration
	logger   *slog.Logger
}

var _ ports.AIClient = (*Client)(nil)

// NewClient builds the throttled gateway. One instance must be shared by every
// classification task so the budget is global.
func NewClient(backend ports.Completer, cfg LimiterConfig, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	inflight := cfg.MaxInFlight
	if inflight <= 0 {
		inflight = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		backend:  backend,
		limiter:  rate.NewLimiter(limit, burst),
		inflight: semaphore.NewWeighted(int64(inflight)),
		timeout:  timeout,
		logger:   logger,
	}
}

// NewUnthrottled returns a client without a rate budget, for tests and local runs.
func NewUnthrottled(backend ports.Completer, timeout time.Duration) *Client {
	return NewClient(backend, LimiterConfig{MaxInFlight: 1 << 10, Timeout: timeout}, nil)
}

// Request waits for rate budget, dispatches one attempt and returns the complete
// payload or a typed failure.
func (c *Client) Request(ctx context.Context, prompt domain.Prompt) (domain.RawResponse, error) {
	ctx, span := otel.Tracer("llm").Start(ctx, "AIClient.Request")
	defer span.End()
	span.SetAttributes(attribute.String("ai.backend", c.backend.Name()))

	if err := c.waitForBudget(ctx); err != nil {
		metrics.RecordAIRequest(c.backend.Name(), "throttled", 0)
		return domain.RawResponse{}, err
	}

	if err := c.inflight.Acquire(ctx, 1); err != nil {
		metrics.RecordAIRequest(c.backend.Name(), "throttled", 0)
		return domain.RawResponse{}, &domain.ThrottledError{Err: err}
	}
	defer c.inflight.Release(1)

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.backend.Complete(attemptCtx, prompt)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			metrics.RecordAIRequest(c.backend.Name(), "timeout", 0)
			return domain.RawResponse{}, &domain.TimeoutError{After: elapsed.Round(time.Millisecond)}
		}
		metrics.RecordAIRequest(c.backend.Name(), "error", 0)
		var svcErr *domain.ServiceError
		if errors.As(err, &svcErr) {
			return domain.RawResponse{}, svcErr
		}
		return domain.RawResponse{}, &domain.ServiceError{Err: err}
	}

	if strings.TrimSpace(text) == "" {
		metrics.RecordAIRequest(c.backend.Name(), "error", 0)
		return domain.RawResponse{}, &domain.ServiceError{Err: errors.New("empty response payload")}
	}

	metrics.RecordAIRequest(c.backend.Name(), "ok", elapsed.Seconds())
	c.logger.Debug("ai request completed", "backend", c.backend.Name(), "latency", elapsed)

	return domain.RawResponse{Text: text, Backend: c.backend.Name(), Latency: elapsed}, nil
}

// waitForBudget reserves one token. Without a deadline it suspends until the token
// is available; when the caller's deadline would pass first it fails immediately.
func (c *Client) waitForBudget(ctx context.Context) error {
	now := time.Now()
	reservation := c.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return &domain.ThrottledError{Err: fmt.Errorf("request exceeds limiter burst %d", c.limiter.Burst())}
	}

	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return nil
	}

	if deadline, ok := ctx.Deadline(); ok && now.Add(delay).After(deadline) {
		reservation.CancelAt(now)
		return &domain.ThrottledError{Wait: delay, Err: context.DeadlineExceeded}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		metrics.RecordThrottleWait(delay.Seconds())
		return nil
	case <-ctx.Done():
		reservation.Cancel()
		return &domain.ThrottledError{Wait: delay, Err: ctx.Err()}
	}
}
