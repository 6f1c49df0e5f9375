// Package catalog defines the destination catalog store the importer writes
// to: category and tag terms, products with their meta, attribute
// taxonomies, and media assets.
package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("catalog: not found")

// Built-in taxonomies.
const (
	TaxonomyCategory = "product_cat"
	TaxonomyTag      = "product_tag"
)

// Term meta keys.
const (
	MetaGroupID     = "group_id"
	MetaOrder       = "order"
	MetaThumbnailID = "thumbnail_id"
)

// Product meta keys.
const (
	MetaStock               = "stock"
	MetaStockStatus         = "stock_status"
	MetaLength              = "length"
	MetaWidth               = "width"
	MetaHeight              = "height"
	MetaFreight             = "freight"
	MetaTranslationLanguage = "translation_language"
	MetaPrice               = "price"
	MetaTaxPrice            = "tax_price"
	MetaPriceNRP            = "price_nrp"
	MetaTaxPriceNRP         = "tax_price_nrp"
	MetaPriceUDP            = "price_udp"
	MetaTaxPriceUDP         = "tax_price_udp"
	MetaEAN                 = "ean"
	MetaManufacturerAID     = "manufacturer_aid"
	MetaManufacturerName    = "manufacturer_name"
	MetaDeliveryTime        = "delivery_time"
	MetaArticleStatus       = "article_status"
	MetaOrderPCE            = "order_pce"
	MetaOrderUnit           = "order_unit"
	MetaOrderNoCU           = "order_no_cu"
	MetaOrderMin            = "order_min"
	MetaOrderInterval       = "order_interval"
	MetaSupplierLogoPrefix  = "supplier_logo_"
)

// Product status and stock values.
const (
	StatusPublish     = "publish"
	VisibilityVisible = "visible"
	StockInStock      = "instock"
	BackordersNo      = "no"
)

// Term is a category, tag or attribute value.
type Term struct {
	ID       int64             `json:"id"`
	Taxonomy string            `json:"taxonomy"`
	Name     string            `json:"name"`
	Slug     string            `json:"slug"`
	ParentID int64             `json:"parentId"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// Taxonomy is a product attribute taxonomy.
type Taxonomy struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// ProductAttribute links a product to an attribute taxonomy.
type ProductAttribute struct {
	TaxonomyID int64   `json:"taxonomyId"`
	Taxonomy   string  `json:"taxonomy"`
	Position   int     `json:"position"`
	Visible    bool    `json:"visible"`
	Variation  bool    `json:"variation"`
	TermIDs    []int64 `json:"termIds"`
}

// Product is a catalog product keyed by SKU.
type Product struct {
	ID               int64              `json:"id"`
	SKU              string             `json:"sku"`
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	Status           string             `json:"status"`
	Visibility       string             `json:"visibility"`
	StockStatus      string             `json:"stockStatus"`
	ManageStock      bool               `json:"manageStock"`
	Backorders       string             `json:"backorders"`
	ReviewsAllowed   bool               `json:"reviewsAllowed"`
	SoldIndividually bool               `json:"soldIndividually"`
	Attributes       []ProductAttribute `json:"attributes,omitempty"`
	ThumbnailID      int64              `json:"thumbnailId"`
	GalleryIDs       []int64            `json:"galleryIds,omitempty"`
	Meta             map[string]string  `json:"meta,omitempty"`
}

// Asset is an imported media file.
type Asset struct {
	ID          int64  `json:"id"`
	OwnerKey    string `json:"ownerKey"`
	Filename    string `json:"filename"`
	Origin      string `json:"origin"`
	StorageKey  string `json:"storageKey"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// TermStore manages category and tag terms.
type TermStore interface {
	FindTermByMeta(ctx context.Context, taxonomy, key, value string) (*Term, error)
	FindTermByName(ctx context.Context, taxonomy, name string) (*Term, error)
	CreateTerm(ctx context.Context, taxonomy, name string, parentID int64) (int64, error)
	UpdateTerm(ctx context.Context, id int64, name string, parentID int64) error
	SetTermMeta(ctx context.Context, termID int64, key, value string) error
}

// ProductStore manages products and their term relations.
type ProductStore interface {
	FindProductIDBySKU(ctx context.Context, sku string) (int64, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	// SaveProduct inserts the product when ID is 0 and updates it otherwise.
	SaveProduct(ctx context.Context, p *Product) (int64, error)
	SetProductMeta(ctx context.Context, productID int64, key, value string) error
	// SetObjectTerms replaces the product's terms in taxonomy, or adds to
	// them when appendTerms is set.
	SetObjectTerms(ctx context.Context, productID int64, taxonomy string, termIDs []int64, appendTerms bool) error
	ObjectTerms(ctx context.Context, productID int64, taxonomy string) ([]int64, error)
	SetThumbnail(ctx context.Context, productID, assetID int64) error
	SetGallery(ctx context.Context, productID int64, assetIDs []int64) error
}

// TaxonomyStore manages attribute taxonomies.
type TaxonomyStore interface {
	FindTaxonomyByLabel(ctx context.Context, label string) (*Taxonomy, error)
	// CreateTaxonomy returns the existing taxonomy when slug is taken.
	CreateTaxonomy(ctx context.Context, label, slug string) (*Taxonomy, error)
}

// AssetStore registers imported media.
type AssetStore interface {
	FindAsset(ctx context.Context, filename, origin string) (*Asset, error)
	CreateAsset(ctx context.Context, a *Asset) (int64, error)
}

// Store is the full destination catalog.
type Store interface {
	TermStore
	ProductStore
	TaxonomyStore
	AssetStore
}
