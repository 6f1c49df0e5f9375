package importer

import (
	"context"
	"fmt"

	"github.com/kosarica/catalog-service/internal/bmecat"
	"github.com/kosarica/catalog-service/internal/catalog"
	"github.com/kosarica/catalog-service/internal/resolver"
)

// applyMapping adds the category to the product. Existing category
// assignments are kept.
func (e *Engine) applyMapping(ctx context.Context, out Outcome, m *bmecat.Mapping) Outcome {
	productID, err := e.resolver.ProductBySKU(ctx, m.SKU)
	if err != nil {
		return failed(out, fmt.Errorf("resolve product %s: %w", m.SKU, err))
	}
	categoryID, err := e.resolver.Category(ctx, m.GroupID)
	if err != nil {
		return failed(out, fmt.Errorf("resolve category %s: %w", m.GroupID, err))
	}

	if productID == resolver.NotFound || categoryID == resolver.NotFound {
		out.Status = StatusDropped
		out.Message = fmt.Sprintf("Unknown category %s or product %s", m.GroupID, m.SKU)
		return out
	}

	if err := e.store.SetObjectTerms(ctx, productID, catalog.TaxonomyCategory, []int64{categoryID}, true); err != nil {
		return failed(out, fmt.Errorf("map category %s to product %s: %w", m.GroupID, m.SKU, err))
	}
	out.Status = StatusApplied
	out.EntityID = productID
	out.Message = "Category mapped to product"
	return out
}
