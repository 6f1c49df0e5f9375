package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/catalog"
)

func TestResolver(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemoryStore()
	r := New(store, store)

	id, err := r.Category(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, NotFound, id)

	termID, err := store.CreateTerm(ctx, catalog.TaxonomyCategory, "Widgets", 0)
	require.NoError(t, err)
	require.NoError(t, store.SetTermMeta(ctx, termID, catalog.MetaGroupID, "10"))

	id, err = r.Category(ctx, " 10 ")
	require.NoError(t, err)
	assert.Equal(t, termID, id)

	id, err = r.Category(ctx, "0")
	require.NoError(t, err)
	assert.Equal(t, NotFound, id)

	id, err = r.ProductBySKU(ctx, "W-1")
	require.NoError(t, err)
	assert.Equal(t, NotFound, id)

	pid, err := store.SaveProduct(ctx, &catalog.Product{SKU: "W-1", Name: "Widget"})
	require.NoError(t, err)

	id, err = r.ProductBySKU(ctx, "W-1")
	require.NoError(t, err)
	assert.Equal(t, pid, id)

	// No fuzzy matching.
	id, err = r.ProductBySKU(ctx, "w-1")
	require.NoError(t, err)
	assert.Equal(t, NotFound, id)
}
