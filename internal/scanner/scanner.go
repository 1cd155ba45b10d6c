package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"BlogCurator/internal/domain"
)

// Request carries all parameters required to scan one feed.
type Request struct {
	Feed  domain.Feed
	Since time.Time
	Until time.Time
}

// Covers reports whether published falls inside the request window. A zero Since
// leaves the window open at the start.
func (r Request) Covers(published time.Time) bool {
	if !r.Since.IsZero() && published.Before(r.Since) {
		return false
	}
	return r.Until.IsZero() || !published.After(r.Until)
}

// Scanner captures a single strategy implementation (RSS/Atom, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Article, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry pre-populated with the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists registered scanners in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
