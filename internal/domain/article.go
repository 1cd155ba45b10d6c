package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Article is a cleaned blog post produced by ingestion. The pipeline never mutates
// source fields; derived data lives in ClassificationResult and RankedArticle.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	FeedID      string    `json:"feed_id"`
	PublishedAt time.Time `json:"published_at"`
	Tags        []string  `json:"tags,omitempty"`
}

// NewArticleID derives a stable identifier from the source feed and the article URL.
// When the URL is empty the fallback key (GUID, or title and publish date) is used.
func NewArticleID(feedID, url, fallback string) string {
	key := strings.TrimSpace(url)
	if key == "" {
		key = strings.TrimSpace(fallback)
	}
	sum := sha256.Sum256([]byte(feedID + "|" + key))
	return hex.EncodeToString(sum[:12])
}

// FeedStatus marks whether a feed is fetched during ingestion.
type FeedStatus string

const (
	FeedActive   FeedStatus = "active"
	FeedInactive FeedStatus = "inactive"
)

// Feed is read-only metadata about a blog source.
type Feed struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	URL            string       `json:"url"`
	Description    string       `json:"description,omitempty"`
	AuthorityScore float64      `json:"authority_score"`
	CategoryHints  []CategoryID `json:"category_hints,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
	Status         FeedStatus   `json:"status"`
}

// Active reports whether the feed should be fetched. An empty status counts as active.
func (f Feed) Active() bool {
	return f.Status == "" || f.Status == FeedActive
}

// FeedDirectory indexes feed metadata by feed identifier.
type FeedDirectory map[string]Feed

// NewFeedDirectory builds a lookup table from a feed list.
func NewFeedDirectory(feeds []Feed) FeedDirectory {
	dir := make(FeedDirectory, len(feeds))
	for _, f := range feeds {
		dir[f.ID] = f
	}
	return dir
}

// Lookup returns the feed or nil when it is unknown.
func (d FeedDirectory) Lookup(id string) *Feed {
	f, ok := d[id]
	if !ok {
		return nil
	}
	return &f
}

// WeekPeriod returns the ISO week identifier (e.g. 2026-W42) containing t.
func WeekPeriod(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// ParseWeekPeriod returns the Monday 00:00 UTC that starts the given ISO week. Only
// the canonical form produced by WeekPeriod is accepted.
func ParseWeekPeriod(period string) (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(period, "%d-W%d", &year, &week); err != nil {
		return time.Time{}, fmt.Errorf("parse period %q: %w", period, err)
	}
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("parse period %q: week out of range", period)
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset)
	start := monday.AddDate(0, 0, (week-1)*7)
	if WeekPeriod(start) != period {
		return time.Time{}, fmt.Errorf("parse period %q: not a canonical ISO week", period)
	}
	return start, nil
}
