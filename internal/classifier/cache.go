package classifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"BlogCurator/internal/domain"
	"BlogCurator/internal/ports"
)

// MemoryCache is a bounded in-process classification cache.
type MemoryCache struct {
	lru *expirable.LRU[domain.Fingerprint, domain.ClassificationResult]
}

var _ ports.ClassificationCache = (*MemoryCache)(nil)

// NewMemoryCache creates an LRU holding up to size results. ttl <= 0 disables expiry.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{lru: expirable.NewLRU[domain.Fingerprint, domain.ClassificationResult](size, nil, ttl)}
}

func (m *MemoryCache) Get(_ context.Context, fp domain.Fingerprint) (domain.ClassificationResult, bool) {
	result, ok := m.lru.Get(fp)
	if !ok {
		return domain.ClassificationResult{}, false
	}
	result.Scores = result.Scores.Clone()
	return result, true
}

func (m *MemoryCache) Put(_ context.Context, fp domain.Fingerprint, result domain.ClassificationResult) {
	result.Scores = result.Scores.Clone()
	m.lru.Add(fp, result)
}

// Len reports the number of cached results.
func (m *MemoryCache) Len() int {
	return m.lru.Len()
}

// TieredCache reads through memory into a durable store. Store failures are logged
// and behave like a miss.
type TieredCache struct {
	memory *MemoryCache
	store  ports.ClassificationStore
	logger *slog.Logger
}

var _ ports.ClassificationCache = (*TieredCache)(nil)

func NewTieredCache(memory *MemoryCache, store ports.ClassificationStore, logger *slog.Logger) *TieredCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TieredCache{memory: memory, store: store, logger: logger.With("component", "classification-cache")}
}

func (t *TieredCache) Get(ctx context.Context, fp domain.Fingerprint) (domain.ClassificationResult, bool) {
	if result, ok := t.memory.Get(ctx, fp); ok {
		return result, true
	}

	result, ok, err := t.store.GetClassification(ctx, fp)
	if err != nil {
		t.logger.Warn("classification store lookup failed", "fingerprint", fp, "error", err)
		return domain.ClassificationResult{}, false
	}
	if !ok {
		return domain.ClassificationResult{}, false
	}

	t.memory.Put(ctx, fp, result)
	return result, true
}

func (t *TieredCache) Put(ctx context.Context, fp domain.Fingerprint, result domain.ClassificationResult) {
	t.memory.Put(ctx, fp, result)
	if err := t.store.PutClassification(ctx, fp, result); err != nil {
		t.logger.Warn("classification store write failed", "fingerprint", fp, "error", err)
	}
}
