package domain

import (
	"fmt"
	"strings"
)

// TaxonomySize is the fixed number of categories articles are scored against.
const TaxonomySize = 8

// CategoryID is the stable identifier of a category (e.g. "technical_excellence").
type CategoryID string

// Category is one topical bucket. Keywords feed the fallback classifier.
type Category struct {
	ID          CategoryID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Keywords    []string   `json:"keywords"`
}

// Taxonomy is the ordered, validated category set. Order defines iteration order
// everywhere so outputs never depend on map iteration.
type Taxonomy struct {
	categories []Category
	index      map[CategoryID]int
}

// NewTaxonomy validates the category list: exactly TaxonomySize unique, non-empty ids.
func NewTaxonomy(categories []Category) (*Taxonomy, error) {
	if len(categories) != TaxonomySize {
		return nil, &ConfigurationError{
			Field:  "categories",
			Reason: fmt.Sprintf("expected exactly %d categories, got %d", TaxonomySize, len(categories)),
		}
	}

	t := &Taxonomy{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[CategoryID]int, len(categories)),
	}
	for i, cat := range categories {
		id := CategoryID(strings.TrimSpace(string(cat.ID)))
		if id == "" {
			return nil, &ConfigurationError{Field: fmt.Sprintf("categories[%d].id", i), Reason: "empty id"}
		}
		if _, dup := t.index[id]; dup {
			return nil, &ConfigurationError{Field: fmt.Sprintf("categories[%d].id", i), Reason: fmt.Sprintf("duplicate id %q", id)}
		}
		cat.ID = id
		if cat.Name == "" {
			cat.Name = string(id)
		}
		t.index[id] = len(t.categories)
		t.categories = append(t.categories, cat)
	}
	return t, nil
}

// Categories returns a copy of the ordered categories.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	copy(out, t.categories)
	return out
}

// IDs returns category ids in taxonomy order.
func (t *Taxonomy) IDs() []CategoryID {
	ids := make([]CategoryID, len(t.categories))
	for i, c := range t.categories {
		ids[i] = c.ID
	}
	return ids
}

// Contains reports whether id belongs to the taxonomy.
func (t *Taxonomy) Contains(id CategoryID) bool {
	_, ok := t.index[id]
	return ok
}

// Position returns the taxonomy order of id, or -1.
func (t *Taxonomy) Position(id CategoryID) int {
	if i, ok := t.index[id]; ok {
		return i
	}
	return -1
}

// Lookup returns the category by id.
func (t *Taxonomy) Lookup(id CategoryID) (Category, bool) {
	i, ok := t.index[id]
	if !ok {
		return Category{}, false
	}
	return t.categories[i], true
}
