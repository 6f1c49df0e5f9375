// Package resolver maps feed natural keys to catalog ids.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/kosarica/catalog-service/internal/catalog"
)

// NotFound is the id returned for a key with no catalog entity.
const NotFound int64 = 0

// Resolver looks up categories by group id and products by SKU.
type Resolver struct {
	terms    catalog.TermStore
	products catalog.ProductStore
}

// New creates a Resolver.
func New(terms catalog.TermStore, products catalog.ProductStore) *Resolver {
	return &Resolver{terms: terms, products: products}
}

// Category returns the term id of the category with groupID, or NotFound.
func (r *Resolver) Category(ctx context.Context, groupID string) (int64, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" || groupID == "0" {
		return NotFound, nil
	}
	term, err := r.terms.FindTermByMeta(ctx, catalog.TaxonomyCategory, catalog.MetaGroupID, groupID)
	if errors.Is(err, catalog.ErrNotFound) {
		return NotFound, nil
	}
	if err != nil {
		return NotFound, err
	}
	return term.ID, nil
}

// ProductBySKU returns the product id for sku, or NotFound.
func (r *Resolver) ProductBySKU(ctx context.Context, sku string) (int64, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return NotFound, nil
	}
	id, err := r.products.FindProductIDBySKU(ctx, sku)
	if errors.Is(err, catalog.ErrNotFound) {
		return NotFound, nil
	}
	if err != nil {
		return NotFound, err
	}
	return id, nil
}
