package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"BlogCurator/internal/domain"
	"BlogCurator/internal/ports"
	"BlogCurator/internal/scanner"
)

const defaultScanner = "rss"

// Source binds a feed to the scanner strategy that reads it.
type Source struct {
	Feed    domain.Feed
	Scanner string
}

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []Source
	window   time.Duration
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with configured feeds. window is how
// far back from the fetch day items are accepted; zero means 24h.
func NewStrategySource(reg *scanner.Registry, sources []Source, window time.Duration, log *slog.Logger) *StrategySource {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &StrategySource{
		registry: reg,
		sources:  sources,
		window:   window,
		logger:   log.With("component", "strategy-source"),
	}
}

// FetchDaily scans every active feed for items published in the window ending at day.
// A failing feed is logged and skipped; an error is returned only when every feed failed.
func (s *StrategySource) FetchDaily(ctx context.Context, day time.Time) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	req := scanner.Request{Since: day.Add(-s.window), Until: day}
	s.logger.Debug("fetch daily", "feeds", len(s.sources), "since", req.Since, "until", req.Until)

	var (
		aggregated []domain.Article
		failures   []error
		attempted  int
	)
	for _, src := range s.sources {
		if !src.Feed.Active() {
			s.logger.Debug("skip inactive feed", "feed", src.Feed.ID)
			continue
		}
		attempted++

		name := src.Scanner
		if name == "" {
			name = defaultScanner
		}
		strategy, err := s.registry.Resolve(name)
		if err != nil {
			s.logger.Warn("feed skipped", "feed", src.Feed.ID, "error", err)
			failures = append(failures, fmt.Errorf("feed %s: %w", src.Feed.ID, err))
			continue
		}

		req.Feed = src.Feed
		results, err := strategy.Scan(ctx, req)
		if err != nil {
			s.logger.Warn("feed scan failed", "feed", src.Feed.ID, "scanner", name, "error", err)
			failures = append(failures, fmt.Errorf("feed %s: %w", src.Feed.ID, err))
			continue
		}

		for i := range results {
			if results[i].FeedID == "" {
				results[i].FeedID = src.Feed.ID
			}
		}
		s.logger.Debug("feed produced articles", "feed", src.Feed.ID, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	if attempted > 0 && len(failures) == attempted {
		return nil, fmt.Errorf("all feeds failed: %w", errors.Join(failures...))
	}

	s.logger.Info("strategy source done", "feeds", attempted, "failed", len(failures), "articles", len(aggregated))
	return aggregated, nil
}
