package ports

import (
	"context"
	"time"

	"BlogCurator/internal/domain"
)

// ArticleSource pulls fresh articles from upstream feeds.
type ArticleSource interface {
	FetchDaily(ctx context.Context, day time.Time) ([]domain.Article, error)
}

// Completer is the raw classification backend: submit a prompt, receive text.
// Production backends (OpenAI-compatible, Gemini) and test stubs share it.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt domain.Prompt) (string, error)
}

// AIClient is the throttled, timeout-bounded gateway the classifier talks to.
// Failures are *domain.ServiceError, *domain.TimeoutError or *domain.ThrottledError.
type AIClient interface {
	Request(ctx context.Context, prompt domain.Prompt) (domain.RawResponse, error)
}

// ClassificationCache stores results by content fingerprint. Absence is never an error.
type ClassificationCache interface {
	Get(ctx context.Context, fp domain.Fingerprint) (domain.ClassificationResult, bool)
	Put(ctx context.Context, fp domain.Fingerprint, result domain.ClassificationResult)
}

// ClassificationStore is durable classification storage behind the cache.
type ClassificationStore interface {
	GetClassification(ctx context.Context, fp domain.Fingerprint) (domain.ClassificationResult, bool, error)
	PutClassification(ctx context.Context, fp domain.Fingerprint, result domain.ClassificationResult) error
}

// ArticleRepository persists classified articles and reading lists.
type ArticleRepository interface {
	AlreadyStored(ctx context.Context, ids []string) (map[string]bool, error)
	SaveClassified(ctx context.Context, period string, article domain.ClassifiedArticle) error
	LoadPeriod(ctx context.Context, period string) ([]domain.ClassifiedArticle, error)
	SaveReadingList(ctx context.Context, list domain.ReadingList) error
	LoadReadingList(ctx context.Context, period string) (domain.ReadingList, bool, error)
}

// EngagementSource returns optional engagement signals (backlinks, social) keyed by article id.
type EngagementSource interface {
	Engagement(ctx context.Context, articleIDs []string) (map[string]float64, error)
}

// Notifier streams finished digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	AddJob(spec string, job func(time.Time)) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
