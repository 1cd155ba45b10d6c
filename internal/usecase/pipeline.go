package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"BlogCurator/internal/classifier"
	"BlogCurator/internal/curation"
	"BlogCurator/internal/domain"
	"BlogCurator/internal/metrics"
	"BlogCurator/internal/ports"
	"BlogCurator/internal/ranking"
	"BlogCurator/internal/relevance"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
// Engagement and Notifier are optional.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Repository ports.ArticleRepository
	Classifier *classifier.Classifier
	Normalizer *relevance.Normalizer
	Ranker     *ranking.Engine
	Generator  *curation.Generator
	Taxonomy   *domain.Taxonomy
	Feeds      domain.FeedDirectory
	Engagement ports.EngagementSource
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// Pipeline implements daily ingestion and weekly curation.
type Pipeline struct {
	source     ports.ArticleSource
	repository ports.ArticleRepository
	classifier *classifier.Classifier
	normalizer *relevance.Normalizer
	ranker     *ranking.Engine
	generator  *curation.Generator
	taxonomy   *domain.Taxonomy
	feeds      domain.FeedDirectory
	engagement ports.EngagementSource
	notifier   ports.Notifier
	logger     *slog.Logger
}

// IngestReport summarizes one ProcessDay run.
type IngestReport struct {
	Period     string
	Fetched    int
	Skipped    int
	Classified int
	Degraded   int
}

// CurationReport summarizes one CurateWeek run.
type CurationReport struct {
	RunID         string
	Period        string
	Articles      int
	Entries       int
	EditorsChoice int
	Notified      bool
	List          domain.ReadingList
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	feeds := deps.Feeds
	if feeds == nil {
		feeds = domain.FeedDirectory{}
	}
	return &Pipeline{
		source:     deps.Source,
		repository: deps.Repository,
		classifier: deps.Classifier,
		normalizer: deps.Normalizer,
		ranker:     deps.Ranker,
		generator:  deps.Generator,
		taxonomy:   deps.Taxonomy,
		feeds:      feeds,
		engagement: deps.Engagement,
		notifier:   deps.Notifier,
		logger:     logger,
	}
}

// ProcessDay fetches the articles of the 24h window ending at day, classifies the
// ones not stored yet and files them under the ISO week in which the window opens,
// so a Monday morning run still lands in the week being curated that day.
func (p *Pipeline) ProcessDay(ctx context.Context, day time.Time) (report IngestReport, err error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "Pipeline.ProcessDay")
	defer func() {
		finishStage(span, "ingest", err)
		span.End()
	}()

	report.Period = domain.WeekPeriod(day.Add(-24 * time.Hour))
	span.SetAttributes(attribute.String("period", report.Period))

	if p.source == nil {
		return report, nil
	}
	if p.classifier == nil || p.repository == nil {
		return report, errors.New("ingestion requires a classifier and a repository")
	}

	articles, err := p.source.FetchDaily(ctx, day)
	if err != nil {
		return report, fmt.Errorf("fetch daily: %w", err)
	}
	report.Fetched = len(articles)

	ids := make([]string, 0, len(articles))
	seen := make(map[string]bool, len(articles))
	unique := articles[:0:0]
	for _, art := range articles {
		if seen[art.ID] {
			continue
		}
		seen[art.ID] = true
		ids = append(ids, art.ID)
		unique = append(unique, art)
	}

	skip := map[string]bool{}
	if len(ids) > 0 {
		skip, err = p.repository.AlreadyStored(ctx, ids)
		if err != nil {
			return report, fmt.Errorf("load stored: %w", err)
		}
	}

	fresh := make([]domain.Article, 0, len(unique))
	for _, art := range unique {
		if !skip[art.ID] {
			fresh = append(fresh, art)
		}
	}
	report.Skipped = report.Fetched - len(fresh)

	results := p.classifier.ClassifyBatch(ctx, fresh)
	for i, article := range fresh {
		result := results[i]
		if result.Provenance.Degraded() {
			report.Degraded++
		}

		err = p.repository.SaveClassified(ctx, report.Period, domain.ClassifiedArticle{
			Article:        article,
			Classification: result,
		})
		if err != nil {
			return report, fmt.Errorf("persist article %s: %w", article.ID, err)
		}
		report.Classified++
	}

	p.logger.Info("ingestion finished",
		"period", report.Period,
		"fetched", report.Fetched,
		"skipped", report.Skipped,
		"classified", report.Classified,
		"degraded", report.Degraded,
	)
	return report, nil
}

// CurateWeek ranks the articles stored for period as of asOf, generates and
// persists the reading list and publishes a digest when a notifier is set.
func (p *Pipeline) CurateWeek(ctx context.Context, period string, asOf time.Time) (report CurationReport, err error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "Pipeline.CurateWeek")
	defer func() {
		finishStage(span, "curate", err)
		span.End()
	}()

	report.RunID = uuid.NewString()
	report.Period = period
	span.SetAttributes(attribute.String("period", period), attribute.String("run.id", report.RunID))
	logger := p.logger.With("run_id", report.RunID, "period", period)

	if _, err = domain.ParseWeekPeriod(period); err != nil {
		return report, err
	}
	if p.repository == nil || p.normalizer == nil || p.ranker == nil || p.generator == nil {
		return report, errors.New("curation requires repository, normalizer, ranker and generator")
	}

	stored, err := p.repository.LoadPeriod(ctx, period)
	if err != nil {
		return report, fmt.Errorf("load period: %w", err)
	}
	report.Articles = len(stored)

	normalized := make([]domain.ClassifiedArticle, len(stored))
	for i, ca := range stored {
		scores, nErr := p.normalizer.Normalize(ca.Classification.Scores)
		if nErr != nil {
			return report, fmt.Errorf("normalize article %s: %w", ca.Article.ID, nErr)
		}
		ca.Classification.Scores = scores
		normalized[i] = ca
	}

	engagement := p.loadEngagement(ctx, normalized, logger)
	ranked := p.ranker.Rank(normalized, p.feeds, engagement, asOf)

	list, err := p.generator.Generate(period, ranked, asOf)
	if err != nil {
		return report, fmt.Errorf("generate reading list: %w", err)
	}
	if err = p.repository.SaveReadingList(ctx, list); err != nil {
		return report, fmt.Errorf("persist reading list: %w", err)
	}
	report.List = list
	report.EditorsChoice = len(list.EditorsChoice)

	metrics.SetReadingListEntries("editors_choice", len(list.EditorsChoice))
	for id, entries := range list.Categories {
		report.Entries += len(entries)
		metrics.SetReadingListEntries(string(id), len(entries))
	}

	if p.notifier != nil && report.Entries+report.EditorsChoice > 0 {
		if nErr := p.notifier.PublishDigest(ctx, BuildDigest(list, p.taxonomy)); nErr != nil {
			logger.Warn("digest not delivered", "error", nErr)
		} else {
			report.Notified = true
		}
	}

	logger.Info("curation finished",
		"articles", report.Articles,
		"entries", report.Entries,
		"editors_choice", report.EditorsChoice,
		"notified", report.Notified,
	)
	return report, nil
}

// LatestReadingList returns the stored list for period.
func (p *Pipeline) LatestReadingList(ctx context.Context, period string) (domain.ReadingList, bool, error) {
	if p.repository == nil {
		return domain.ReadingList{}, false, errors.New("no repository configured")
	}
	return p.repository.LoadReadingList(ctx, period)
}

// loadEngagement never fails the run: missing signals count as zero.
func (p *Pipeline) loadEngagement(ctx context.Context, articles []domain.ClassifiedArticle, logger *slog.Logger) map[string]float64 {
	if p.engagement == nil || len(articles) == 0 {
		return nil
	}
	ids := make([]string, len(articles))
	for i, ca := range articles {
		ids[i] = ca.Article.ID
	}
	scores, err := p.engagement.Engagement(ctx, ids)
	if err != nil {
		logger.Warn("engagement signals unavailable", "error", err)
		return nil
	}
	return scores
}

// CurationTime picks the evaluation instant for a period: its end when the week is
// over, now otherwise.
func CurationTime(period string, now time.Time) (time.Time, error) {
	start, err := domain.ParseWeekPeriod(period)
	if err != nil {
		return time.Time{}, err
	}
	end := start.AddDate(0, 0, 7)
	if now.Before(end) {
		return now, nil
	}
	return end, nil
}

func finishStage(span trace.Span, stage string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordPipelineRun(stage, "error")
		return
	}
	metrics.RecordPipelineRun(stage, "ok")
}
