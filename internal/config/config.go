package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"BlogCurator/internal/domain"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "BLOG_CURATOR_CONFIG"

	databaseDSNEnv     = "DATABASE_DSN"
	databaseDialectEnv = "DATABASE_DIALECT"
	aiProviderEnv      = "AI_PROVIDER"
	aiRateLimitEnv     = "AI_RATE_LIMIT"
	aiTimeoutEnv       = "AI_TIMEOUT"
	openAIKeyEnv       = "OPENAI_API_KEY"
	openAIModelEnv     = "OPENAI_MODEL"
	geminiKeyEnv       = "GEMINI_API_KEY"
	geminiModelEnv     = "GEMINI_MODEL"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	logLevelEnv        = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	AI            AIConfig           `yaml:"ai"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	Cache         CacheConfig        `yaml:"cache"`
	Ranking       RankingConfig      `yaml:"ranking"`
	Lists         ListsConfig        `yaml:"lists"`
	Engagement    EngagementConfig   `yaml:"engagement"`
	Notifications NotificationConfig `yaml:"notifications"`
	Tracing       TracingConfig      `yaml:"tracing"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Categories    []CategoryConfig   `yaml:"categories" validate:"dive"`
	Feeds         []FeedConfig       `yaml:"feeds" validate:"dive"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// DatabaseConfig describes the SQL backend (sqlite file or Postgres DSN).
type DatabaseConfig struct {
	Dialect string `yaml:"dialect" validate:"oneof=sqlite postgres"`
	DSN     string `yaml:"dsn" validate:"required"`
}

// SchedulerConfig defines when ingestion and curation run.
type SchedulerConfig struct {
	IngestCron string         `yaml:"ingestCron" validate:"required"`
	CurateCron string         `yaml:"curateCron" validate:"required"`
	Timezone   string         `yaml:"timezone"`
	location   *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// AIConfig describes the classification service and its local rate budget.
type AIConfig struct {
	Provider          string        `yaml:"provider" validate:"oneof=openai gemini none"`
	RequestsPerMinute int           `yaml:"requestsPerMinute" validate:"gte=1"`
	Burst             int           `yaml:"burst" validate:"gte=0"`
	MaxInFlight       int           `yaml:"maxInFlight" validate:"gte=1"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	OpenAI            OpenAIConfig  `yaml:"openai"`
	Gemini            GeminiConfig  `yaml:"gemini"`
}

// OpenAIConfig defines how to contact an OpenAI-compatible chat completions API.
type OpenAIConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
}

// ClassifierConfig tunes prompt construction, retries and fallback.
type ClassifierConfig struct {
	SystemPrompt      string             `yaml:"systemPrompt"`
	MaxContentChars   int                `yaml:"maxContentChars" validate:"gte=1"`
	Threshold         float64            `yaml:"threshold" validate:"gte=0,lte=100"`
	MaxAttempts       int                `yaml:"maxAttempts" validate:"gte=1,lte=10"`
	BackoffBase       time.Duration      `yaml:"backoffBase" validate:"gte=0"`
	BackoffMax        time.Duration      `yaml:"backoffMax" validate:"gte=0"`
	KeywordSaturation float64            `yaml:"keywordSaturation" validate:"gt=0"`
	DefaultScores     map[string]float64 `yaml:"defaultScores"`
	Concurrency       int                `yaml:"concurrency" validate:"gte=1"`
}

// CacheConfig bounds the in-memory classification cache.
type CacheConfig struct {
	Size       int           `yaml:"size" validate:"gte=1"`
	TTL        time.Duration `yaml:"ttl" validate:"gte=0"`
	Persistent bool          `yaml:"persistent"`
}

// RankingConfig holds FinalScore weights and the recency curve.
type RankingConfig struct {
	Weights         WeightsConfig `yaml:"weights"`
	RecencyHalfLife time.Duration `yaml:"recencyHalfLife" validate:"gt=0"`
	RecencyGrace    time.Duration `yaml:"recencyGrace" validate:"gte=0"`
	SumCap          float64       `yaml:"sumCap" validate:"gte=0"`
}

// WeightsConfig is the linear combination applied to the four ranking signals.
type WeightsConfig struct {
	Relevance  float64 `yaml:"relevance" validate:"gte=0"`
	Recency    float64 `yaml:"recency" validate:"gte=0"`
	Authority  float64 `yaml:"authority" validate:"gte=0"`
	Engagement float64 `yaml:"engagement" validate:"gte=0"`
}

// ListsConfig shapes the generated reading lists.
type ListsConfig struct {
	MaxPerCategory    int `yaml:"maxPerCategory" validate:"gte=1"`
	EditorsChoiceSize int `yaml:"editorsChoiceSize" validate:"gte=1"`
	PerFeedCap        int `yaml:"perFeedCap" validate:"gte=1"`
}

// EngagementConfig points at the optional engagement-signal service.
type EngagementConfig struct {
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
	APIKey   string `yaml:"apiKey"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// TracingConfig enables the OTLP exporter.
type TracingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Endpoint       string  `yaml:"endpoint"`
	ServiceVersion string  `yaml:"serviceVersion"`
	SampleRatio    float64 `yaml:"sampleRatio" validate:"gte=0,lte=1"`
}

// MetricsConfig sets the Prometheus listen address; empty disables the endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// CategoryConfig is one entry of the fixed category taxonomy.
type CategoryConfig struct {
	ID          string   `yaml:"id" validate:"required"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

// FeedConfig describes a single blog feed with its scanner strategy.
type FeedConfig struct {
	ID             string   `yaml:"id" validate:"required"`
	Name           string   `yaml:"name"`
	URL            string   `yaml:"url" validate:"required,url"`
	Description    string   `yaml:"description"`
	Scanner        string   `yaml:"scanner"`
	AuthorityScore float64  `yaml:"authorityScore" validate:"gte=0,lte=100"`
	CategoryHints  []string `yaml:"categoryHints"`
	Tags           []string `yaml:"tags"`
	Status         string   `yaml:"status" validate:"omitempty,oneof=active inactive"`
}

// Load reads .env and YAML configuration (path, or $BLOG_CURATOR_CONFIG) over the
// defaults, applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, &domain.ConfigurationError{Field: "file", Reason: fmt.Sprintf("cannot read %s: %v", path, err)}
		}
		if err := decode(raw, &cfg); err != nil {
			return Config{}, &domain.ConfigurationError{Field: "file", Reason: fmt.Sprintf("cannot parse %s: %v", path, err)}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode overlays the YAML document on cfg. Lists present in the file replace the
// defaults wholesale; maps are merged.
func decode(raw []byte, cfg *Config) error {
	return yaml.Unmarshal(raw, cfg)
}

// Validate checks struct constraints and cross-field rules. Every failure is a
// *domain.ConfigurationError.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return &domain.ConfigurationError{
				Field:  first.Namespace(),
				Reason: fmt.Sprintf("failed %q constraint (value %v)", first.Tag(), first.Value()),
			}
		}
		return &domain.ConfigurationError{Reason: err.Error()}
	}

	taxonomy, err := c.Taxonomy()
	if err != nil {
		return err
	}

	w := c.Ranking.Weights
	if w.Relevance+w.Recency+w.Authority+w.Engagement <= 0 {
		return &domain.ConfigurationError{Field: "ranking.weights", Reason: "weights must have a positive sum"}
	}

	for id := range c.Classifier.DefaultScores {
		if !taxonomy.Contains(domain.CategoryID(id)) {
			return &domain.ConfigurationError{Field: "classifier.defaultScores", Reason: fmt.Sprintf("unknown category %q", id)}
		}
	}

	seen := map[string]bool{}
	for _, f := range c.Feeds {
		if seen[f.ID] {
			return &domain.ConfigurationError{Field: "feeds", Reason: fmt.Sprintf("duplicate feed id %q", f.ID)}
		}
		seen[f.ID] = true
		for _, hint := range f.CategoryHints {
			if !taxonomy.Contains(domain.CategoryID(hint)) {
				return &domain.ConfigurationError{Field: "feeds." + f.ID, Reason: fmt.Sprintf("unknown category hint %q", hint)}
			}
		}
	}

	switch c.AI.Provider {
	case "openai":
		if c.AI.OpenAI.APIKey == "" || c.AI.OpenAI.Endpoint == "" || c.AI.OpenAI.Model == "" {
			return &domain.ConfigurationError{Field: "ai.openai", Reason: "endpoint, model and apiKey are required"}
		}
	case "gemini":
		if c.AI.Gemini.APIKey == "" || c.AI.Gemini.Model == "" {
			return &domain.ConfigurationError{Field: "ai.gemini", Reason: "model and apiKey are required"}
		}
	}

	return nil
}

// Taxonomy converts the configured categories to the validated domain taxonomy.
func (c Config) Taxonomy() (*domain.Taxonomy, error) {
	cats := make([]domain.Category, 0, len(c.Categories))
	for _, cat := range c.Categories {
		cats = append(cats, domain.Category{
			ID:          domain.CategoryID(cat.ID),
			Name:        cat.Name,
			Description: cat.Description,
			Keywords:    cat.Keywords,
		})
	}
	return domain.NewTaxonomy(cats)
}

// FeedList converts the configured feeds to domain feed metadata.
func (c Config) FeedList() []domain.Feed {
	feeds := make([]domain.Feed, 0, len(c.Feeds))
	for _, f := range c.Feeds {
		hints := make([]domain.CategoryID, 0, len(f.CategoryHints))
		for _, h := range f.CategoryHints {
			hints = append(hints, domain.CategoryID(h))
		}
		feeds = append(feeds, domain.Feed{
			ID:             f.ID,
			Name:           f.Name,
			URL:            f.URL,
			Description:    f.Description,
			AuthorityScore: f.AuthorityScore,
			CategoryHints:  hints,
			Tags:           f.Tags,
			Status:         domain.FeedStatus(f.Status),
		})
	}
	return feeds
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(databaseDialectEnv); v != "" {
		c.Database.Dialect = strings.ToLower(v)
	}

	if v := os.Getenv(aiProviderEnv); v != "" {
		c.AI.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(aiRateLimitEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AI.RequestsPerMinute = n
		}
	}
	if v := os.Getenv(aiTimeoutEnv); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.AI.Timeout = d
		} else if secs, err := strconv.Atoi(v); err == nil {
			c.AI.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.AI.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.AI.OpenAI.Model = v
	}
	if v := os.Getenv(geminiKeyEnv); v != "" {
		c.AI.Gemini.APIKey = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.AI.Gemini.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Dialect: "sqlite", DSN: "file:blogcurator.db?_pragma=busy_timeout(5000)"},
		Scheduler: SchedulerConfig{
			IngestCron: "0 6 * * *",
			CurateCron: "0 8 * * 1",
			Timezone:   defaultTimezone,
			location:   tz,
		},
		AI: AIConfig{
			Provider:          "none",
			RequestsPerMinute: 50,
			Burst:             1,
			MaxInFlight:       4,
			Timeout:           30 * time.Second,
			OpenAI: OpenAIConfig{
				Endpoint: "https://api.openai.com/v1/chat/completions",
				Model:    "gpt-4o-mini",
			},
			Gemini: GeminiConfig{Model: "gemini-2.0-flash"},
		},
		Classifier: ClassifierConfig{
			SystemPrompt:      "You classify developer blog articles into topical categories.",
			MaxContentChars:   2000,
			Threshold:         10,
			MaxAttempts:       3,
			BackoffBase:       time.Second,
			BackoffMax:        30 * time.Second,
			KeywordSaturation: 6,
			Concurrency:       10,
		},
		Cache: CacheConfig{Size: 5000, TTL: 0, Persistent: true},
		Ranking: RankingConfig{
			Weights:         WeightsConfig{Relevance: 0.4, Recency: 0.3, Authority: 0.2, Engagement: 0.1},
			RecencyHalfLife: 7 * 24 * time.Hour,
		},
		Lists:      ListsConfig{MaxPerCategory: 10, EditorsChoiceSize: 10, PerFeedCap: 2},
		Tracing:    TracingConfig{Endpoint: "localhost:4317", ServiceVersion: "dev", SampleRatio: 1},
		Metrics:    MetricsConfig{Addr: ":9090"},
		Categories: defaultCategories(),
		Feeds: []FeedConfig{
			{
				ID:             "go-blog",
				Name:           "The Go Blog",
				URL:            "https://go.dev/blog/feed.atom",
				Scanner:        "rss",
				AuthorityScore: 85,
				CategoryHints:  []string{"technical_excellence"},
				Status:         "active",
			},
		},
	}
}

func defaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{
			ID:          "technical_excellence",
			Name:        "Technical Excellence",
			Description: "Architecture, performance, code quality and engineering craft",
			Keywords:    []string{"architecture", "performance", "scalability", "refactoring", "testing", "code quality", "design pattern", "optimization", "reliability"},
		},
		{
			ID:          "career_growth",
			Name:        "Career Growth",
			Description: "Skills, learning paths, interviews and career progression",
			Keywords:    []string{"career", "promotion", "interview", "mentorship", "mentor", "learning", "skills", "resume", "senior engineer"},
		},
		{
			ID:          "leadership",
			Name:        "Leadership & Management",
			Description: "Engineering management, team building and culture",
			Keywords:    []string{"leadership", "management", "manager", "team", "hiring", "culture", "one-on-one", "feedback", "staff engineer"},
		},
		{
			ID:          "developer_experience",
			Name:        "Developer Experience",
			Description: "Tooling, productivity, workflows and developer platforms",
			Keywords:    []string{"tooling", "productivity", "ci/cd", "ide", "workflow", "automation", "onboarding", "developer experience", "build system"},
		},
		{
			ID:          "ai_ml",
			Name:        "AI & Machine Learning",
			Description: "Applied AI, machine learning systems and LLM engineering",
			Keywords:    []string{"machine learning", "llm", "neural", "inference", "embedding", "prompt", "model training", "artificial intelligence"},
		},
		{
			ID:          "security",
			Name:        "Security",
			Description: "Application and infrastructure security practices",
			Keywords:    []string{"security", "vulnerability", "authentication", "encryption", "oauth", "threat", "compliance", "supply chain"},
		},
		{
			ID:          "infrastructure_ops",
			Name:        "Infrastructure & Operations",
			Description: "Cloud, DevOps, observability and incident response",
			Keywords:    []string{"kubernetes", "cloud", "devops", "observability", "monitoring", "deployment", "incident", "sre", "postmortem"},
		},
		{
			ID:          "industry_trends",
			Name:        "Industry Trends",
			Description: "Open source, ecosystem news and where the industry is heading",
			Keywords:    []string{"open source", "industry", "trend", "startup", "ecosystem", "announcement", "release", "roadmap"},
		},
	}
}
