package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"BlogCurator/internal/domain"
	"BlogCurator/internal/metrics"
	"BlogCurator/internal/ports"
)

// Config tunes prompts, retries, fallback and batch concurrency.
type Config struct {
	SystemPrompt      string
	MaxContentChars   int
	Threshold         float64
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMax        time.Duration
	KeywordSaturation float64
	DefaultScores     domain.CategoryScores
	Concurrency       int
}

// Classifier produces a ClassificationResult for every article it is given. It
// never fails: AI problems degrade the provenance instead.
type Classifier struct {
	taxonomy *domain.Taxonomy
	ai       ports.AIClient
	cache    ports.ClassificationCache
	cfg      Config
	logger   *slog.Logger

	flights singleflight.Group
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option customises a Classifier.
type Option func(*Classifier)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

// New validates cfg against the taxonomy. ai may be nil, in which case every
// classification goes straight to the fallback tiers.
func New(taxonomy *domain.Taxonomy, ai ports.AIClient, cache ports.ClassificationCache, cfg Config, logger *slog.Logger, opts ...Option) (*Classifier, error) {
	if taxonomy == nil {
		return nil, &domain.ConfigurationError{Field: "categories", Reason: "taxonomy is required"}
	}
	if cfg.MaxAttempts < 1 {
		return nil, &domain.ConfigurationError{Field: "classifier.maxAttempts", Reason: "must be at least 1"}
	}
	for id, v := range cfg.DefaultScores {
		if !taxonomy.Contains(id) {
			return nil, &domain.ConfigurationError{Field: "classifier.defaultScores", Reason: fmt.Sprintf("unknown category %q", id)}
		}
		if v < 0 || v > 100 {
			return nil, &domain.ConfigurationError{Field: "classifier.defaultScores", Reason: fmt.Sprintf("score %g for %q outside [0,100]", v, id)}
		}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cache == nil {
		cache = NewMemoryCache(1024, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Classifier{
		taxonomy: taxonomy,
		ai:       ai,
		cache:    cache,
		cfg:      cfg,
		logger:   logger.With("component", "classifier"),
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify returns the cached result for the article's fingerprint or computes,
// caches and returns a new one. Concurrent calls for the same fingerprint share a
// single computation.
func (c *Classifier) Classify(ctx context.Context, article domain.Article) domain.ClassificationResult {
	ctx, span := otel.Tracer("classifier").Start(ctx, "Classifier.Classify")
	defer span.End()

	fp := Fingerprint(article)
	span.SetAttributes(attribute.String("article.id", article.ID), attribute.String("fingerprint", string(fp)))

	if cached, ok := c.lookup(ctx, fp); ok {
		metrics.RecordCacheLookup(true)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return forArticle(cached, article.ID)
	}
	metrics.RecordCacheLookup(false)

	v, _, _ := c.flights.Do(string(fp), func() (any, error) {
		if cached, ok := c.lookup(ctx, fp); ok {
			return cached, nil
		}
		result := c.compute(ctx, article, fp)
		c.cache.Put(ctx, fp, result)
		return result, nil
	})

	result := forArticle(v.(domain.ClassificationResult), article.ID)
	span.SetAttributes(attribute.String("provenance", string(result.Provenance)))
	return result
}

// lookup returns a cached result only if its scores still fit the taxonomy. Entries
// written under a different category set are treated as misses and recomputed.
func (c *Classifier) lookup(ctx context.Context, fp domain.Fingerprint) (domain.ClassificationResult, bool) {
	cached, ok := c.cache.Get(ctx, fp)
	if !ok {
		return domain.ClassificationResult{}, false
	}
	if err := c.checkScores(cached.Scores); err != nil {
		c.logger.Warn("discarding stale cached classification", "fingerprint", fp, "error", err)
		return domain.ClassificationResult{}, false
	}
	return cached, true
}

func (c *Classifier) checkScores(scores domain.CategoryScores) error {
	for id, v := range scores {
		if !c.taxonomy.Contains(id) {
			return fmt.Errorf("unknown category %q", id)
		}
		if math.IsNaN(v) || v < 0 || v > 100 {
			return fmt.Errorf("score %g for %q outside [0,100]", v, id)
		}
	}
	return nil
}

func (c *Classifier) compute(ctx context.Context, article domain.Article, fp domain.Fingerprint) domain.ClassificationResult {
	provenance := domain.ProvenanceAI
	scores, err := c.requestScores(ctx, article)

	var reason string
	if err != nil {
		reason = err.Error()
		scores, provenance = c.fallback(article)
	}

	result := domain.ClassificationResult{
		ArticleID:      article.ID,
		Fingerprint:    fp,
		Scores:         scores.Above(c.cfg.Threshold),
		Provenance:     provenance,
		FallbackReason: reason,
		ClassifiedAt:   c.now().UTC(),
	}

	metrics.RecordClassification(string(provenance))
	if provenance.Degraded() {
		c.logger.Warn("degraded classification",
			"article_id", article.ID,
			"provenance", provenance,
			"reason", reason,
		)
	}
	return result
}

// requestScores runs the bounded attempt loop. Service errors and timeouts back off
// exponentially, malformed payloads are re-asked at once, throttling relies on the
// client's own suspension and stops when the caller's deadline is in play. Any other
// error ends the loop.
func (c *Classifier) requestScores(ctx context.Context, article domain.Article) (domain.CategoryScores, error) {
	if c.ai == nil {
		return nil, errors.New("ai client not configured")
	}

	prompt := BuildPrompt(article, c.taxonomy, PromptOptions{
		System:          c.cfg.SystemPrompt,
		MaxContentChars: c.cfg.MaxContentChars,
		Threshold:       c.cfg.Threshold,
	})

	state := newRetryState(c.cfg.MaxAttempts, c.cfg.BackoffBase, c.cfg.BackoffMax)
	var lastErr error

	for state.next() {
		raw, err := c.ai.Request(ctx, prompt)
		if err == nil {
			scores, perr := ParseScores(raw.Text, c.taxonomy)
			if perr == nil {
				return scores, nil
			}
			lastErr = perr
			c.logger.Debug("malformed ai response", "article_id", article.ID, "attempt", state.attempt, "error", perr)
			continue
		}

		lastErr = err
		c.logger.Debug("ai request failed", "article_id", article.ID, "attempt", state.attempt, "error", err)

		if errors.Is(err, domain.ErrThrottled) {
			if _, hasDeadline := ctx.Deadline(); hasDeadline || ctx.Err() != nil {
				break
			}
			continue
		}

		if !domain.IsTransient(err) || !state.more() {
			break
		}
		if err := c.sleep(ctx, state.backoff()); err != nil {
			lastErr = fmt.Errorf("backoff interrupted: %w", err)
			break
		}
	}

	return nil, fmt.Errorf("after %d attempt(s): %w", state.attempt, lastErr)
}

// fallback picks the keyword tier when it clears the threshold, else the default map.
func (c *Classifier) fallback(article domain.Article) (domain.CategoryScores, domain.Provenance) {
	keyword := KeywordScores(article, c.taxonomy, c.cfg.KeywordSaturation)
	if len(keyword.Above(c.cfg.Threshold)) > 0 {
		return keyword, domain.ProvenanceKeyword
	}
	return c.cfg.DefaultScores.Clone(), domain.ProvenanceDefault
}

func forArticle(result domain.ClassificationResult, articleID string) domain.ClassificationResult {
	result.ArticleID = articleID
	result.Scores = result.Scores.Clone()
	return result
}

// retryState is the explicit attempt counter and next-delay of the retry loop.
type retryState struct {
	attempt     int
	maxAttempts int
	delay       time.Duration
	maxDelay    time.Duration
}

func newRetryState(maxAttempts int, base, maxDelay time.Duration) *retryState {
	if maxDelay > 0 && base > maxDelay {
		base = maxDelay
	}
	return &retryState{maxAttempts: maxAttempts, delay: base, maxDelay: maxDelay}
}

// next starts a new attempt if the budget allows.
func (s *retryState) next() bool {
	if s.attempt >= s.maxAttempts {
		return false
	}
	s.attempt++
	return true
}

func (s *retryState) more() bool {
	return s.attempt < s.maxAttempts
}

// backoff returns the current delay and doubles it up to maxDelay.
func (s *retryState) backoff() time.Duration {
	d := s.delay
	s.delay *= 2
	if s.maxDelay > 0 && s.delay > s.maxDelay {
		s.delay = s.maxDelay
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
