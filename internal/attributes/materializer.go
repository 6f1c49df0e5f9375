// Package attributes turns feed features into attribute taxonomies and terms
// in the catalog, creating whatever does not exist yet.
package attributes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kosarica/catalog-service/internal/catalog"
)

const maxSlugAttempts = 5

// Attribute is a named feature with its values.
type Attribute struct {
	Name   string
	Values []string
}

// Materialized is an attribute resolved to catalog ids. TermIDs follow the
// order of the input values.
type Materialized struct {
	Name       string
	TaxonomyID int64
	Taxonomy   string
	TermIDs    []int64
}

type store interface {
	catalog.TaxonomyStore
	catalog.TermStore
}

// Materializer resolves or creates attribute taxonomies and terms. The
// taxonomy cache lives until Reset and only saves lookups.
type Materializer struct {
	store  store
	logger *zerolog.Logger

	mu    sync.Mutex
	cache map[string]catalog.Taxonomy
}

// New creates a Materializer.
func New(s store, logger *zerolog.Logger) *Materializer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Materializer{store: s, logger: logger, cache: make(map[string]catalog.Taxonomy)}
}

// Reset clears the taxonomy cache. Call it at the start of each run.
func (m *Materializer) Reset() {
	m.mu.Lock()
	m.cache = make(map[string]catalog.Taxonomy)
	m.mu.Unlock()
}

// MaterializeAll materializes attrs in order. Empty attributes are skipped
// with a warning; failing attributes are left out and their errors joined.
func (m *Materializer) MaterializeAll(ctx context.Context, owner string, attrs []Attribute) ([]Materialized, error) {
	out := make([]Materialized, 0, len(attrs))
	var errs []error
	for _, a := range attrs {
		name := strings.TrimSpace(a.Name)
		values := nonEmpty(a.Values)
		if name == "" || len(values) == 0 {
			m.logger.Warn().Str("owner", owner).Str("attribute", a.Name).Msg("Empty attribute skipped")
			continue
		}

		mat, err := m.materialize(ctx, name, values)
		if err != nil {
			m.logger.Error().Err(err).Str("owner", owner).Str("attribute", name).Msg("Cannot materialize attribute")
			errs = append(errs, err)
			continue
		}
		out = append(out, *mat)
	}
	return out, errors.Join(errs...)
}

// Materialize resolves a single attribute.
func (m *Materializer) Materialize(ctx context.Context, a Attribute) (*Materialized, error) {
	name := strings.TrimSpace(a.Name)
	values := nonEmpty(a.Values)
	if name == "" || len(values) == 0 {
		return nil, fmt.Errorf("attribute %q has no name or values", a.Name)
	}
	return m.materialize(ctx, name, values)
}

func (m *Materializer) materialize(ctx context.Context, name string, values []string) (*Materialized, error) {
	tax, err := m.taxonomy(ctx, name)
	if err != nil {
		return nil, err
	}

	taxonomy := TaxonomyName(tax.Slug)
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := m.term(ctx, taxonomy, v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return &Materialized{Name: name, TaxonomyID: tax.ID, Taxonomy: taxonomy, TermIDs: ids}, nil
}

func (m *Materializer) taxonomy(ctx context.Context, label string) (catalog.Taxonomy, error) {
	m.mu.Lock()
	cached, ok := m.cache[label]
	m.mu.Unlock()
	if ok {
		return cached, nil
	}

	tax, err := m.store.FindTaxonomyByLabel(ctx, label)
	if errors.Is(err, catalog.ErrNotFound) {
		tax, err = m.createTaxonomy(ctx, label)
	}
	if err != nil {
		return catalog.Taxonomy{}, fmt.Errorf("taxonomy %q: %w", label, err)
	}

	m.mu.Lock()
	m.cache[label] = *tax
	m.mu.Unlock()
	return *tax, nil
}

// createTaxonomy creates the taxonomy for label. The store hands back the
// existing row when the slug is taken, so a row with another label means two
// names share a slug and a suffixed one is tried.
func (m *Materializer) createTaxonomy(ctx context.Context, label string) (*catalog.Taxonomy, error) {
	slug := Slug(label)
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		tax, err := m.store.CreateTaxonomy(ctx, label, slug)
		if err != nil {
			return nil, err
		}
		if tax.Label == label {
			m.logger.Info().Str("attribute", label).Str("slug", tax.Slug).Msg("Attribute taxonomy created")
			return tax, nil
		}
		m.logger.Debug().Str("attribute", label).Str("slug", slug).Str("taken_by", tax.Label).Msg("Taxonomy slug taken")
		slug = UniqueSlug(label, attempt)
	}
	return nil, fmt.Errorf("no free slug after %d attempts", maxSlugAttempts)
}

func (m *Materializer) term(ctx context.Context, taxonomy, value string) (int64, error) {
	t, err := m.store.FindTermByName(ctx, taxonomy, value)
	if err == nil {
		return t.ID, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return 0, fmt.Errorf("term %q in %s: %w", value, taxonomy, err)
	}

	id, createErr := m.store.CreateTerm(ctx, taxonomy, value, 0)
	if createErr != nil {
		// A concurrent run may have created it first.
		if t, err := m.store.FindTermByName(ctx, taxonomy, value); err == nil {
			return t.ID, nil
		}
		return 0, fmt.Errorf("create term %q in %s: %w", value, taxonomy, createErr)
	}
	return id, nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
