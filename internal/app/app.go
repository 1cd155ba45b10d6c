package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"BlogCurator/internal/classifier"
	"BlogCurator/internal/config"
	"BlogCurator/internal/curation"
	"BlogCurator/internal/domain"
	"BlogCurator/internal/infrastructure/engagement"
	"BlogCurator/internal/infrastructure/llm"
	"BlogCurator/internal/infrastructure/parser"
	"BlogCurator/internal/infrastructure/scheduler"
	"BlogCurator/internal/infrastructure/storage"
	"BlogCurator/internal/infrastructure/telegram"
	"BlogCurator/internal/logging"
	"BlogCurator/internal/observability"
	"BlogCurator/internal/ports"
	"BlogCurator/internal/ranking"
	"BlogCurator/internal/relevance"
	"BlogCurator/internal/scanner"
	"BlogCurator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	repo      *storage.SQLRepository
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	shutdown  func()
	now       func() time.Time
}

// New opens storage and builds every adapter the pipeline needs. Configuration
// problems are returned as *domain.ConfigurationError.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	taxonomy, err := cfg.Taxonomy()
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.InitTracer(ctx, cfg.Tracing, baseLogger.With("component", "tracing"))
	if err != nil {
		return nil, err
	}

	repo, err := storage.Open(ctx, cfg.Database.Dialect, cfg.Database.DSN)
	if err != nil {
		shutdown()
		return nil, err
	}

	a := &Application{cfg: cfg, logger: baseLogger, repo: repo, shutdown: shutdown, now: time.Now}
	if err := a.wire(ctx, taxonomy); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Application) wire(ctx context.Context, taxonomy *domain.Taxonomy) error {
	cfg := a.cfg

	ai, err := newAIClient(ctx, cfg.AI, a.logger.With("component", "ai-client"))
	if err != nil {
		return err
	}

	memory := classifier.NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL)
	var cache ports.ClassificationCache = memory
	if cfg.Cache.Persistent {
		cache = classifier.NewTieredCache(memory, a.repo, a.logger)
	}

	defaults := make(domain.CategoryScores, len(cfg.Classifier.DefaultScores))
	for id, v := range cfg.Classifier.DefaultScores {
		defaults[domain.CategoryID(id)] = v
	}
	cls, err := classifier.New(taxonomy, ai, cache, classifier.Config{
		SystemPrompt:      cfg.Classifier.SystemPrompt,
		MaxContentChars:   cfg.Classifier.MaxContentChars,
		Threshold:         cfg.Classifier.Threshold,
		MaxAttempts:       cfg.Classifier.MaxAttempts,
		BackoffBase:       cfg.Classifier.BackoffBase,
		BackoffMax:        cfg.Classifier.BackoffMax,
		KeywordSaturation: cfg.Classifier.KeywordSaturation,
		DefaultScores:     defaults,
		Concurrency:       cfg.Classifier.Concurrency,
	}, a.logger)
	if err != nil {
		return err
	}

	normalizer, err := relevance.NewNormalizer(taxonomy, cfg.Ranking.SumCap)
	if err != nil {
		return err
	}

	w := cfg.Ranking.Weights
	engine, err := ranking.NewEngine(taxonomy,
		ranking.Weights{Relevance: w.Relevance, Recency: w.Recency, Authority: w.Authority, Engagement: w.Engagement},
		ranking.RecencyConfig{HalfLife: cfg.Ranking.RecencyHalfLife, Grace: cfg.Ranking.RecencyGrace},
	)
	if err != nil {
		return err
	}

	generator, err := curation.NewGenerator(taxonomy, curation.Config{
		MaxPerCategory:    cfg.Lists.MaxPerCategory,
		EditorsChoiceSize: cfg.Lists.EditorsChoiceSize,
		PerFeedCap:        cfg.Lists.PerFeedCap,
		Threshold:         cfg.Classifier.Threshold,
	})
	if err != nil {
		return err
	}

	feeds := cfg.FeedList()
	sources := make([]parser.Source, len(feeds))
	for i, feed := range feeds {
		sources[i] = parser.Source{Feed: feed, Scanner: cfg.Feeds[i].Scanner}
	}
	registry := scanner.NewRegistry(parser.NewRSSScanner(nil))
	source := parser.NewStrategySource(registry, sources, 0, a.logger)

	deps := usecase.PipelineDeps{
		Source:     source,
		Repository: a.repo,
		Classifier: cls,
		Normalizer: normalizer,
		Ranker:     engine,
		Generator:  generator,
		Taxonomy:   taxonomy,
		Feeds:      domain.NewFeedDirectory(feeds),
		Logger:     a.logger.With("component", "pipeline"),
	}
	if cfg.Engagement.Endpoint != "" {
		deps.Engagement = engagement.NewClient(cfg.Engagement.Endpoint, cfg.Engagement.APIKey, nil)
	}
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier, err := telegram.NewNotifier(tg, "", nil)
		if err != nil {
			a.logger.Warn("telegram notifications disabled", "error", err)
		} else {
			deps.Notifier = notifier
		}
	}

	a.pipeline = usecase.NewPipeline(deps)
	a.scheduler = usecase.NewScheduler(
		scheduler.NewCronScheduler(cfg.Scheduler.Location(), a.logger),
		a.pipeline,
		usecase.Schedule{Ingest: cfg.Scheduler.IngestCron, Curate: cfg.Scheduler.CurateCron},
		a.logger.With("component", "jobs"),
	)
	return nil
}

// newAIClient returns nil when the provider is "none": every classification then
// uses the fallback tiers.
func newAIClient(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (ports.AIClient, error) {
	var backend ports.Completer
	switch cfg.Provider {
	case "openai":
		backend = llm.NewChatGPTClient(cfg.OpenAI, nil)
	case "gemini":
		gemini, err := llm.NewGeminiClient(ctx, cfg.Gemini, "", nil)
		if err != nil {
			return nil, err
		}
		backend = gemini
	default:
		logger.Warn("no ai provider configured, classifications will use keyword fallback")
		return nil, nil
	}

	logger.Info("ai backend selected", "backend", backend.Name(), "rpm", cfg.RequestsPerMinute, "max_in_flight", cfg.MaxInFlight)
	return llm.NewClient(backend, llm.LimiterConfig{
		RequestsPerMinute: cfg.RequestsPerMinute,
		Burst:             cfg.Burst,
		MaxInFlight:       cfg.MaxInFlight,
		Timeout:           cfg.Timeout,
	}, logger), nil
}

// Ingest runs one daily ingestion for day.
func (a *Application) Ingest(ctx context.Context, day time.Time) (usecase.IngestReport, error) {
	return a.pipeline.ProcessDay(ctx, day.In(a.cfg.Scheduler.Location()))
}

// Curate builds the reading list for period; an empty period means the previous week.
func (a *Application) Curate(ctx context.Context, period string) (usecase.CurationReport, error) {
	now := a.now().In(a.cfg.Scheduler.Location())
	if period == "" {
		period = domain.WeekPeriod(now.AddDate(0, 0, -7))
	}
	asOf, err := usecase.CurationTime(period, now)
	if err != nil {
		return usecase.CurationReport{}, err
	}
	return a.pipeline.CurateWeek(ctx, period, asOf)
}

// ReadingList loads a stored reading list.
func (a *Application) ReadingList(ctx context.Context, period string) (domain.ReadingList, bool, error) {
	return a.pipeline.LatestReadingList(ctx, period)
}

// Run starts the scheduled jobs and the metrics endpoint and blocks until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	var srv *http.Server
	serveErr := make(chan error, 1)
	if addr := a.cfg.Metrics.Addr; addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("metrics endpoint: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.logger.Info("metrics endpoint listening", "addr", ln.Addr().String())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	if err := a.scheduler.Start(ctx); err != nil {
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("curator running",
		"ingest_cron", a.cfg.Scheduler.IngestCron,
		"curate_cron", a.cfg.Scheduler.CurateCron,
		"timezone", a.cfg.Scheduler.Location().String(),
	)

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("metrics endpoint: %w", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop timed out", "error", err)
	}
	if srv != nil {
		_ = srv.Shutdown(stopCtx)
	}
	return runErr
}

// Close releases storage and flushes traces.
func (a *Application) Close() error {
	if a.shutdown != nil {
		a.shutdown()
	}
	if a.repo != nil {
		return a.repo.Close()
	}
	return nil
}
