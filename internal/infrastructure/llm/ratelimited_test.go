package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogCurator/internal/domain"
)

type stubCompleter struct {
	calls atomic.Int32
	fn    func(ctx context.Context, prompt domain.Prompt) (string, error)
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	s.calls.Add(1)
	return s.fn(ctx, prompt)
}

func replying(text string) *stubCompleter {
	return &stubCompleter{fn: func(context.Context, domain.Prompt) (string, error) { return text, nil }}
}

func TestClientRequestReturnsPayload(t *testing.T) {
	backend := replying(`{"ai_ml": 80}`)
	client := NewUnthrottled(backend, time.Second)

	raw, err := client.Request(context.Background(), domain.Prompt{User: "hello"})
	require.NoError(t, err)
	assert.Equal(t, `{"ai_ml": 80}`, raw.Text)
	assert.Equal(t, "stub", raw.Backend)
	assert.EqualValues(t, 1, backend.calls.Load())
}

func TestClientRequestWrapsBackendFailure(t *testing.T) {
	backend := &stubCompleter{fn: func(context.Context, domain.Prompt) (string, error) {
		return "", errors.New("connection refused")
	}}
	client := NewUnthrottled(backend, time.Second)

	_, err := client.Request(context.Background(), domain.Prompt{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServiceFailure)
	assert.True(t, domain.IsTransient(err))
}

func TestClientRequestKeepsStatusCode(t *testing.T) {
	backend := &stubCompleter{fn: func(context.Context, domain.Prompt) (string, error) {
		return "", &domain.ServiceError{StatusCode: 503, Err: errors.New("unavailable")}
	}}
	client := NewUnthrottled(backend, time.Second)

	_, err := client.Request(context.Background(), domain.Prompt{})
	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 503, svcErr.StatusCode)
}

func TestClientRequestEmptyPayloadIsServiceFailure(t *testing.T) {
	client := NewUnthrottled(replying("   "), time.Second)

	_, err := client.Request(context.Background(), domain.Prompt{})
	assert.ErrorIs(t, err, domain.ErrServiceFailure)
}

func TestClientRequestTimesOut(t *testing.T) {
	backend := &stubCompleter{fn: func(ctx context.Context, _ domain.Prompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	client := NewUnthrottled(backend, 20*time.Millisecond)

	start := time.Now()
	_, err := client.Request(context.Background(), domain.Prompt{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClientThrottlesWithDeadline(t *testing.T) {
	backend := replying("{}")
	client := NewClient(backend, LimiterConfig{RequestsPerMinute: 1, Burst: 1, MaxInFlight: 1, Timeout: time.Second}, nil)

	_, err := client.Request(context.Background(), domain.Prompt{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = client.Request(ctx, domain.Prompt{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrThrottled)
	assert.Less(t, time.Since(start), 40*time.Millisecond, "deadline must short-circuit the wait")
	assert.EqualValues(t, 1, backend.calls.Load(), "no request is dispatched while throttled")

	var throttled *domain.ThrottledError
	require.ErrorAs(t, err, &throttled)
	assert.Greater(t, throttled.Wait, time.Duration(0))
}

func TestClientSuspendsWithoutDeadline(t *testing.T) {
	backend := replying("{}")
	// one token every 50ms
	client := NewClient(backend, LimiterConfig{RequestsPerMinute: 1200, Burst: 1, MaxInFlight: 1, Timeout: time.Second}, nil)

	_, err := client.Request(context.Background(), domain.Prompt{})
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Request(context.Background(), domain.Prompt{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.EqualValues(t, 2, backend.calls.Load())
}

func TestClientBoundsInFlightRequests(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	backend := &stubCompleter{fn: func(ctx context.Context, _ domain.Prompt) (string, error) {
		started <- struct{}{}
		select {
		case <-release:
			return "{}", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}}
	client := NewClient(backend, LimiterConfig{MaxInFlight: 1, Timeout: time.Second}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := client.Request(context.Background(), domain.Prompt{})
		done <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := client.Request(ctx, domain.Prompt{})
	assert.ErrorIs(t, err, domain.ErrThrottled)

	close(release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, backend.calls.Load())
}
