package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kosarica/catalog-service/internal/catalog"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// CatalogStore is the Postgres catalog.Store.
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore returns a store backed by pool.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

var _ catalog.Store = (*CatalogStore)(nil)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// notFound maps missing rows and dangling references to catalog.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == pgForeignKeyViolation {
		return catalog.ErrNotFound
	}
	return err
}

func termSlug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func (s *CatalogStore) FindTermByMeta(ctx context.Context, taxonomy, key, value string) (*catalog.Term, error) {
	return s.findTerm(ctx, `
		SELECT t.id, t.taxonomy, t.name, t.slug, t.parent_id
		FROM catalog_terms t
		JOIN catalog_term_meta m ON m.term_id = t.id
		WHERE t.taxonomy = $1 AND m.key = $2 AND m.value = $3
		ORDER BY t.id
		LIMIT 1
	`, taxonomy, key, value)
}

func (s *CatalogStore) FindTermByName(ctx context.Context, taxonomy, name string) (*catalog.Term, error) {
	return s.findTerm(ctx, `
		SELECT id, taxonomy, name, slug, parent_id
		FROM catalog_terms
		WHERE taxonomy = $1 AND name = $2
		ORDER BY id
		LIMIT 1
	`, taxonomy, name)
}

func (s *CatalogStore) findTerm(ctx context.Context, query string, args ...any) (*catalog.Term, error) {
	var t catalog.Term
	err := s.pool.QueryRow(ctx, query, args...).Scan(&t.ID, &t.Taxonomy, &t.Name, &t.Slug, &t.ParentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("error querying term: %w", err)
	}

	t.Meta, err = s.loadMeta(ctx, `SELECT key, value FROM catalog_term_meta WHERE term_id = $1`, t.ID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *CatalogStore) CreateTerm(ctx context.Context, taxonomy, name string, parentID int64) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("term name is empty")
	}
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO catalog_terms (taxonomy, name, slug, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, taxonomy, name, termSlug(name), parentID).Scan(&id)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return 0, fmt.Errorf("term %q already exists in %s", name, taxonomy)
		}
		return 0, fmt.Errorf("error creating term: %w", err)
	}
	return id, nil
}

func (s *CatalogStore) UpdateTerm(ctx context.Context, id int64, name string, parentID int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE catalog_terms SET name = $2, slug = $3, parent_id = $4 WHERE id = $1
	`, id, name, termSlug(name), parentID)
	if err != nil {
		return fmt.Errorf("error updating term %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *CatalogStore) SetTermMeta(ctx context.Context, termID int64, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO catalog_term_meta (term_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (term_id, key) DO UPDATE SET value = EXCLUDED.value
	`, termID, key, value)
	if err != nil {
		return notFound(err)
	}
	return nil
}

func (s *CatalogStore) FindProductIDBySKU(ctx context.Context, sku string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM catalog_products WHERE sku = $1`, sku).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, catalog.ErrNotFound
		}
		return 0, fmt.Errorf("error querying product %s: %w", sku, err)
	}
	return id, nil
}

func (s *CatalogStore) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	var (
		p     catalog.Product
		attrs []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, sku, name, description, status, visibility, stock_status,
		       manage_stock, backorders, reviews_allowed, sold_individually,
		       attributes, thumbnail_id, gallery_ids
		FROM catalog_products
		WHERE id = $1
	`, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Status, &p.Visibility, &p.StockStatus,
		&p.ManageStock, &p.Backorders, &p.ReviewsAllowed, &p.SoldIndividually,
		&attrs, &p.ThumbnailID, &p.GalleryIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("error querying product %d: %w", id, err)
	}
	if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
		return nil, fmt.Errorf("error decoding attributes of product %d: %w", id, err)
	}
	if len(p.GalleryIDs) == 0 {
		p.GalleryIDs = nil
	}

	p.Meta, err = s.loadMeta(ctx, `SELECT key, value FROM catalog_product_meta WHERE product_id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CatalogStore) SaveProduct(ctx context.Context, p *catalog.Product) (int64, error) {
	attrs := p.Attributes
	if attrs == nil {
		attrs = []catalog.ProductAttribute{}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return 0, fmt.Errorf("error encoding attributes: %w", err)
	}

	if p.ID == 0 {
		var id int64
		err := s.pool.QueryRow(ctx, `
			INSERT INTO catalog_products (
				sku, name, description, status, visibility, stock_status,
				manage_stock, backorders, reviews_allowed, sold_individually, attributes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id
		`, p.SKU, p.Name, p.Description, p.Status, p.Visibility, p.StockStatus,
			p.ManageStock, p.Backorders, p.ReviewsAllowed, p.SoldIndividually, attrsJSON,
		).Scan(&id)
		if err != nil {
			if pgCode(err) == pgUniqueViolation {
				return 0, fmt.Errorf("duplicate sku %q", p.SKU)
			}
			return 0, fmt.Errorf("error inserting product %s: %w", p.SKU, err)
		}
		return id, nil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE catalog_products SET
			sku = $2, name = $3, description = $4, status = $5, visibility = $6,
			stock_status = $7, manage_stock = $8, backorders = $9,
			reviews_allowed = $10, sold_individually = $11, attributes = $12,
			updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.SKU, p.Name, p.Description, p.Status, p.Visibility, p.StockStatus,
		p.ManageStock, p.Backorders, p.ReviewsAllowed, p.SoldIndividually, attrsJSON)
	if err != nil {
		return 0, fmt.Errorf("error updating product %s: %w", p.SKU, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, catalog.ErrNotFound
	}
	return p.ID, nil
}

func (s *CatalogStore) SetProductMeta(ctx context.Context, productID int64, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO catalog_product_meta (product_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, key) DO UPDATE SET value = EXCLUDED.value
	`, productID, key, value)
	if err != nil {
		return notFound(err)
	}
	return nil
}

func (s *CatalogStore) SetObjectTerms(ctx context.Context, productID int64, taxonomy string, termIDs []int64, appendTerms bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM catalog_products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return fmt.Errorf("error checking product %d: %w", productID, err)
	}
	if !exists {
		return catalog.ErrNotFound
	}

	if !appendTerms {
		if _, err := tx.Exec(ctx, `
			DELETE FROM catalog_object_terms WHERE product_id = $1 AND taxonomy = $2
		`, productID, taxonomy); err != nil {
			return fmt.Errorf("error clearing %s terms: %w", taxonomy, err)
		}
	}

	var next int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(position) + 1, 0) FROM catalog_object_terms
		WHERE product_id = $1 AND taxonomy = $2
	`, productID, taxonomy).Scan(&next); err != nil {
		return fmt.Errorf("error reading %s terms: %w", taxonomy, err)
	}

	batch := &pgx.Batch{}
	for i, termID := range termIDs {
		batch.Queue(`
			INSERT INTO catalog_object_terms (product_id, taxonomy, term_id, position)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (product_id, taxonomy, term_id) DO NOTHING
		`, productID, taxonomy, termID, next+i)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("error assigning %s terms: %w", taxonomy, notFound(err))
		}
	}

	return tx.Commit(ctx)
}

func (s *CatalogStore) ObjectTerms(ctx context.Context, productID int64, taxonomy string) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT term_id FROM catalog_object_terms
		WHERE product_id = $1 AND taxonomy = $2
		ORDER BY position, term_id
	`, productID, taxonomy)
	if err != nil {
		return nil, fmt.Errorf("error querying %s terms: %w", taxonomy, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error scanning %s terms: %w", taxonomy, err)
	}
	return ids, nil
}

func (s *CatalogStore) SetThumbnail(ctx context.Context, productID, assetID int64) error {
	return s.updateProduct(ctx, `UPDATE catalog_products SET thumbnail_id = $2, updated_at = NOW() WHERE id = $1`, productID, assetID)
}

func (s *CatalogStore) SetGallery(ctx context.Context, productID int64, assetIDs []int64) error {
	if assetIDs == nil {
		assetIDs = []int64{}
	}
	return s.updateProduct(ctx, `UPDATE catalog_products SET gallery_ids = $2, updated_at = NOW() WHERE id = $1`, productID, assetIDs)
}

func (s *CatalogStore) updateProduct(ctx context.Context, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *CatalogStore) FindTaxonomyByLabel(ctx context.Context, label string) (*catalog.Taxonomy, error) {
	var t catalog.Taxonomy
	err := s.pool.QueryRow(ctx, `
		SELECT id, label, slug FROM catalog_taxonomies WHERE label = $1 ORDER BY id LIMIT 1
	`, label).Scan(&t.ID, &t.Label, &t.Slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("error querying taxonomy %q: %w", label, err)
	}
	return &t, nil
}

// CreateTaxonomy uses INSERT ON CONFLICT DO NOTHING and falls back to the
// existing row when slug is taken.
func (s *CatalogStore) CreateTaxonomy(ctx context.Context, label, slug string) (*catalog.Taxonomy, error) {
	var t catalog.Taxonomy
	err := s.pool.QueryRow(ctx, `
		INSERT INTO catalog_taxonomies (label, slug)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO NOTHING
		RETURNING id, label, slug
	`, label, slug).Scan(&t.ID, &t.Label, &t.Slug)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("error creating taxonomy %q: %w", label, err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT id, label, slug FROM catalog_taxonomies WHERE slug = $1
	`, slug).Scan(&t.ID, &t.Label, &t.Slug)
	if err != nil {
		return nil, fmt.Errorf("error loading taxonomy %q: %w", slug, err)
	}
	return &t, nil
}

func (s *CatalogStore) FindAsset(ctx context.Context, filename, origin string) (*catalog.Asset, error) {
	var a catalog.Asset
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_key, filename, origin, storage_key, content_type, size, width, height
		FROM catalog_assets
		WHERE filename = $1 AND origin = $2
	`, filename, origin).Scan(
		&a.ID, &a.OwnerKey, &a.Filename, &a.Origin, &a.StorageKey,
		&a.ContentType, &a.Size, &a.Width, &a.Height,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("error querying asset %s: %w", filename, err)
	}
	return &a, nil
}

func (s *CatalogStore) CreateAsset(ctx context.Context, a *catalog.Asset) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO catalog_assets (owner_key, filename, origin, storage_key, content_type, size, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, a.OwnerKey, a.Filename, a.Origin, a.StorageKey, a.ContentType, a.Size, a.Width, a.Height).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error creating asset %s: %w", a.Filename, err)
	}
	return id, nil
}

// CountProducts returns the number of catalog products.
func (s *CatalogStore) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting products: %w", err)
	}
	return n, nil
}

func (s *CatalogStore) loadMeta(ctx context.Context, query string, id int64) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("error querying meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("error scanning meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}
