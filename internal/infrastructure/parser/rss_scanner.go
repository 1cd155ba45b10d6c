package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"BlogCurator/internal/domain"
	"BlogCurator/internal/scanner"
)

// RSSScanner reads RSS/Atom/JSON feeds and returns the items inside the request window.
type RSSScanner struct {
	client *http.Client
	now    func() time.Time
}

// NewRSSScanner wires an HTTP client; nil uses a 20s-timeout default.
func NewRSSScanner(client *http.Client) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSScanner{client: client, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Scan fetches the feed and converts each item into an Article with plain-text content.
func (s *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if req.Feed.URL == "" {
		return nil, fmt.Errorf("feed %s has no url", req.Feed.ID)
	}

	fp := gofeed.NewParser()
	fp.Client = s.client
	fp.UserAgent = "BlogCurator/1.0"

	feed, err := fp.ParseURLWithContext(req.Feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.Feed.ID, err)
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	seen := map[string]struct{}{}
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		article := s.toArticle(req.Feed, item)
		if !req.Covers(article.PublishedAt) {
			continue
		}
		if _, dup := seen[article.ID]; dup {
			continue
		}
		seen[article.ID] = struct{}{}
		articles = append(articles, article)
	}
	return articles, nil
}

func (s *RSSScanner) toArticle(feed domain.Feed, item *gofeed.Item) domain.Article {
	published := s.now().UTC()
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.UTC()
	}

	fallback := item.GUID
	if fallback == "" {
		fallback = item.Title + "|" + published.Format(time.RFC3339)
	}

	body := item.Content
	if strings.TrimSpace(body) == "" {
		body = item.Description
	}

	var tags []string
	for _, c := range item.Categories {
		if c = strings.TrimSpace(c); c != "" {
			tags = append(tags, c)
		}
	}

	return domain.Article{
		ID:          domain.NewArticleID(feed.ID, item.Link, fallback),
		Title:       strings.TrimSpace(htmlToText(item.Title)),
		URL:         strings.TrimSpace(item.Link),
		Content:     htmlToText(body),
		Author:      itemAuthor(item),
		FeedID:      feed.ID,
		PublishedAt: published,
		Tags:        tags,
	}
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

// htmlToText drops markup, scripts and styles and collapses whitespace.
func htmlToText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, "<") {
		return strings.Join(strings.Fields(trimmed), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return strings.Join(strings.Fields(trimmed), " ")
	}
	doc.Find("script, style, noscript, iframe").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
