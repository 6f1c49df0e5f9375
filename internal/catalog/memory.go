package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store for dry runs and tests.
type MemoryStore struct {
	mu sync.Mutex

	nextID     int64
	terms      map[int64]*Term
	products   map[int64]*Product
	taxonomies map[int64]*Taxonomy
	assets     map[int64]*Asset
	relations  map[int64]map[string][]int64

	// Fail, when set, is consulted before every write with the operation
	// name. A non-nil result is returned as the write error.
	Fail func(op string, key string) error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		terms:      make(map[int64]*Term),
		products:   make(map[int64]*Product),
		taxonomies: make(map[int64]*Taxonomy),
		assets:     make(map[int64]*Asset),
		relations:  make(map[int64]map[string][]int64),
	}
}

func (s *MemoryStore) fail(op, key string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op, key)
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) FindTermByMeta(ctx context.Context, taxonomy, key, value string) (*Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.sortedTermIDs() {
		t := s.terms[id]
		if t.Taxonomy == taxonomy && t.Meta[key] == value {
			return cloneTerm(t), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindTermByName(ctx context.Context, taxonomy, name string) (*Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.sortedTermIDs() {
		t := s.terms[id]
		if t.Taxonomy == taxonomy && t.Name == name {
			return cloneTerm(t), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateTerm(ctx context.Context, taxonomy, name string, parentID int64) (int64, error) {
	if err := s.fail("CreateTerm", name); err != nil {
		return 0, err
	}
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("term name is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.terms {
		if t.Taxonomy == taxonomy && t.Name == name && t.ParentID == parentID {
			return 0, fmt.Errorf("term %q already exists in %s", name, taxonomy)
		}
	}
	t := &Term{ID: s.id(), Taxonomy: taxonomy, Name: name, Slug: strings.ToLower(name), ParentID: parentID, Meta: map[string]string{}}
	s.terms[t.ID] = t
	return t.ID, nil
}

func (s *MemoryStore) UpdateTerm(ctx context.Context, id int64, name string, parentID int64) error {
	if err := s.fail("UpdateTerm", name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.terms[id]
	if !ok {
		return ErrNotFound
	}
	t.Name = name
	t.ParentID = parentID
	return nil
}

func (s *MemoryStore) SetTermMeta(ctx context.Context, termID int64, key, value string) error {
	if err := s.fail("SetTermMeta", key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.terms[termID]
	if !ok {
		return ErrNotFound
	}
	t.Meta[key] = value
	return nil
}

func (s *MemoryStore) FindProductIDBySKU(ctx context.Context, sku string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.products {
		if p.SKU == sku {
			return id, nil
		}
	}
	return 0, ErrNotFound
}

func (s *MemoryStore) GetProduct(ctx context.Context, id int64) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *MemoryStore) SaveProduct(ctx context.Context, p *Product) (int64, error) {
	if err := s.fail("SaveProduct", p.SKU); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneProduct(p)
	if stored.ID == 0 {
		for _, existing := range s.products {
			if existing.SKU == p.SKU {
				return 0, fmt.Errorf("duplicate sku %q", p.SKU)
			}
		}
		stored.ID = s.id()
	} else if prev, ok := s.products[stored.ID]; ok {
		// Meta and media are written through their own calls.
		stored.Meta = prev.Meta
		stored.ThumbnailID = prev.ThumbnailID
		stored.GalleryIDs = prev.GalleryIDs
	} else {
		return 0, ErrNotFound
	}
	if stored.Meta == nil {
		stored.Meta = map[string]string{}
	}
	s.products[stored.ID] = stored
	return stored.ID, nil
}

func (s *MemoryStore) SetProductMeta(ctx context.Context, productID int64, key, value string) error {
	if err := s.fail("SetProductMeta", key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return ErrNotFound
	}
	p.Meta[key] = value
	return nil
}

func (s *MemoryStore) SetObjectTerms(ctx context.Context, productID int64, taxonomy string, termIDs []int64, appendTerms bool) error {
	if err := s.fail("SetObjectTerms", taxonomy); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return ErrNotFound
	}
	rel := s.relations[productID]
	if rel == nil {
		rel = make(map[string][]int64)
		s.relations[productID] = rel
	}

	var next []int64
	if appendTerms {
		next = append(next, rel[taxonomy]...)
	}
	for _, id := range termIDs {
		if !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	rel[taxonomy] = next
	return nil
}

func (s *MemoryStore) ObjectTerms(ctx context.Context, productID int64, taxonomy string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.relations[productID][taxonomy]), nil
}

func (s *MemoryStore) SetThumbnail(ctx context.Context, productID, assetID int64) error {
	if err := s.fail("SetThumbnail", ""); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return ErrNotFound
	}
	p.ThumbnailID = assetID
	return nil
}

func (s *MemoryStore) SetGallery(ctx context.Context, productID int64, assetIDs []int64) error {
	if err := s.fail("SetGallery", ""); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return ErrNotFound
	}
	p.GalleryIDs = slices.Clone(assetIDs)
	return nil
}

func (s *MemoryStore) FindTaxonomyByLabel(ctx context.Context, label string) (*Taxonomy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.taxonomies {
		if t.Label == label {
			c := *t
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateTaxonomy(ctx context.Context, label, slug string) (*Taxonomy, error) {
	if err := s.fail("CreateTaxonomy", label); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.taxonomies {
		if t.Slug == slug {
			c := *t
			return &c, nil
		}
	}
	t := &Taxonomy{ID: s.id(), Label: label, Slug: slug}
	s.taxonomies[t.ID] = t
	c := *t
	return &c, nil
}

func (s *MemoryStore) FindAsset(ctx context.Context, filename, origin string) (*Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assets {
		if a.Filename == filename && a.Origin == origin {
			c := *a
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateAsset(ctx context.Context, a *Asset) (int64, error) {
	if err := s.fail("CreateAsset", a.Filename); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	c.ID = s.id()
	s.assets[c.ID] = &c
	return c.ID, nil
}

// Terms returns the terms of taxonomy ordered by id.
func (s *MemoryStore) Terms(taxonomy string) []Term {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Term
	for _, id := range s.sortedTermIDs() {
		if t := s.terms[id]; t.Taxonomy == taxonomy {
			out = append(out, *cloneTerm(t))
		}
	}
	return out
}

// Products returns every product ordered by id.
func (s *MemoryStore) Products() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, *cloneProduct(s.products[id]))
	}
	return out
}

// Taxonomies returns every attribute taxonomy.
func (s *MemoryStore) Taxonomies() []Taxonomy {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Taxonomy, 0, len(s.taxonomies))
	for _, t := range s.taxonomies {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b Taxonomy) int { return int(a.ID - b.ID) })
	return out
}

// Assets returns the number of registered assets.
func (s *MemoryStore) Assets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}

func (s *MemoryStore) sortedTermIDs() []int64 {
	ids := make([]int64, 0, len(s.terms))
	for id := range s.terms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func cloneTerm(t *Term) *Term {
	c := *t
	c.Meta = make(map[string]string, len(t.Meta))
	for k, v := range t.Meta {
		c.Meta[k] = v
	}
	return &c
}

func cloneProduct(p *Product) *Product {
	c := *p
	c.Attributes = make([]ProductAttribute, len(p.Attributes))
	for i, a := range p.Attributes {
		a.TermIDs = slices.Clone(a.TermIDs)
		c.Attributes[i] = a
	}
	c.GalleryIDs = slices.Clone(p.GalleryIDs)
	if p.Meta != nil {
		c.Meta = make(map[string]string, len(p.Meta))
		for k, v := range p.Meta {
			c.Meta[k] = v
		}
	}
	return &c
}
