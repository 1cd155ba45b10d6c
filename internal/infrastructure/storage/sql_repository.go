package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"BlogCurator/internal/domain"
	"BlogCurator/internal/ports"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS classifications (
		fingerprint     TEXT PRIMARY KEY,
		article_id      TEXT NOT NULL,
		scores          TEXT NOT NULL,
		provenance      TEXT NOT NULL,
		fallback_reason TEXT NOT NULL DEFAULT '',
		classified_at   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		id           TEXT PRIMARY KEY,
		period       TEXT NOT NULL,
		feed_id      TEXT NOT NULL,
		published_at TEXT NOT NULL,
		provenance   TEXT NOT NULL,
		payload      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_period ON articles (period)`,
	`CREATE TABLE IF NOT EXISTS reading_lists (
		period       TEXT PRIMARY KEY,
		generated_at TEXT NOT NULL,
		payload      TEXT NOT NULL
	)`,
}

// SQLRepository persists classified articles, reading lists and the durable
// classification cache in SQLite or Postgres.
type SQLRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.ArticleRepository   = (*SQLRepository)(nil)
	_ ports.ClassificationStore = (*SQLRepository)(nil)
)

// Open connects to the database for dialect and applies the schema.
func Open(ctx context.Context, dialect, dsn string) (*SQLRepository, error) {
	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
	case DialectPostgres:
		driver = "pgx"
	default:
		return nil, &domain.ConfigurationError{Field: "database.dialect", Reason: fmt.Sprintf("unsupported dialect %q", dialect)}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	repo := NewSQLRepository(db, dialect)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLRepository wraps an existing connection pool.
func NewSQLRepository(db *sql.DB, dialect string) *SQLRepository {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	return &SQLRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// Migrate creates missing tables.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// AlreadyStored returns the subset of ids that already have a stored article.
func (r *SQLRepository) AlreadyStored(ctx context.Context, ids []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := r.builder.Select("id").From("articles").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stored query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stored: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// SaveClassified upserts the article snapshot under period.
func (r *SQLRepository) SaveClassified(ctx context.Context, period string, article domain.ClassifiedArticle) error {
	payload, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}

	query, args, err := r.builder.Insert("articles").
		Columns("id", "period", "feed_id", "published_at", "provenance", "payload").
		Values(
			article.Article.ID,
			period,
			article.Article.FeedID,
			formatTime(article.Article.PublishedAt),
			string(article.Classification.Provenance),
			string(payload),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			period = excluded.period,
			feed_id = excluded.feed_id,
			published_at = excluded.published_at,
			provenance = excluded.provenance,
			payload = excluded.payload`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build article upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}
	return nil
}

// LoadPeriod returns every classified article stored for period, ordered by id.
func (r *SQLRepository) LoadPeriod(ctx context.Context, period string) ([]domain.ClassifiedArticle, error) {
	query, args, err := r.builder.Select("payload").From("articles").
		Where(sq.Eq{"period": period}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build period query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query period: %w", err)
	}
	defer rows.Close()

	var articles []domain.ClassifiedArticle
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		var ca domain.ClassifiedArticle
		if err := json.Unmarshal([]byte(payload), &ca); err != nil {
			return nil, fmt.Errorf("decode article: %w", err)
		}
		articles = append(articles, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

// SaveReadingList stores list, superseding any earlier list for the same period.
func (r *SQLRepository) SaveReadingList(ctx context.Context, list domain.ReadingList) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal reading list: %w", err)
	}

	query, args, err := r.builder.Insert("reading_lists").
		Columns("period", "generated_at", "payload").
		Values(list.Period, formatTime(list.GeneratedAt), string(payload)).
		Suffix(`ON CONFLICT (period) DO UPDATE SET
			generated_at = excluded.generated_at,
			payload = excluded.payload`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reading list upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert reading list: %w", err)
	}
	return nil
}

func (r *SQLRepository) LoadReadingList(ctx context.Context, period string) (domain.ReadingList, bool, error) {
	query, args, err := r.builder.Select("payload").From("reading_lists").Where(sq.Eq{"period": period}).ToSql()
	if err != nil {
		return domain.ReadingList{}, false, fmt.Errorf("build reading list query: %w", err)
	}

	var payload string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ReadingList{}, false, nil
		}
		return domain.ReadingList{}, false, fmt.Errorf("query reading list: %w", err)
	}

	var list domain.ReadingList
	if err := json.Unmarshal([]byte(payload), &list); err != nil {
		return domain.ReadingList{}, false, fmt.Errorf("decode reading list: %w", err)
	}
	return list, true, nil
}

func (r *SQLRepository) GetClassification(ctx context.Context, fp domain.Fingerprint) (domain.ClassificationResult, bool, error) {
	query, args, err := r.builder.
		Select("article_id", "scores", "provenance", "fallback_reason", "classified_at").
		From("classifications").
		Where(sq.Eq{"fingerprint": string(fp)}).
		ToSql()
	if err != nil {
		return domain.ClassificationResult{}, false, fmt.Errorf("build classification query: %w", err)
	}

	var articleID, scores, provenance, reason, classifiedAt string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&articleID, &scores, &provenance, &reason, &classifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ClassificationResult{}, false, nil
	}
	if err != nil {
		return domain.ClassificationResult{}, false, fmt.Errorf("query classification: %w", err)
	}

	result := domain.ClassificationResult{
		ArticleID:      articleID,
		Fingerprint:    fp,
		Provenance:     domain.Provenance(provenance),
		FallbackReason: reason,
	}
	if err := json.Unmarshal([]byte(scores), &result.Scores); err != nil {
		return domain.ClassificationResult{}, false, fmt.Errorf("decode scores: %w", err)
	}
	if result.ClassifiedAt, err = time.Parse(time.RFC3339Nano, classifiedAt); err != nil {
		return domain.ClassificationResult{}, false, fmt.Errorf("parse classified_at: %w", err)
	}
	return result, true, nil
}

func (r *SQLRepository) PutClassification(ctx context.Context, fp domain.Fingerprint, result domain.ClassificationResult) error {
	scores := result.Scores
	if scores == nil {
		scores = domain.CategoryScores{}
	}
	encoded, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	query, args, err := r.builder.Insert("classifications").
		Columns("fingerprint", "article_id", "scores", "provenance", "fallback_reason", "classified_at").
		Values(string(fp), result.ArticleID, string(encoded), string(result.Provenance), result.FallbackReason, formatTime(result.ClassifiedAt)).
		Suffix(`ON CONFLICT (fingerprint) DO UPDATE SET
			article_id = excluded.article_id,
			scores = excluded.scores,
			provenance = excluded.provenance,
			fallback_reason = excluded.fallback_reason,
			classified_at = excluded.classified_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build classification upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert classification: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
