// Package bmecat holds the typed payloads decoded from a BMEcat catalog feed.
// Each payload is a self-contained snapshot of one feed element and is what
// the staging queue stores as JSON.
package bmecat

import (
	"strconv"
	"strings"
)

// Element names of the three record kinds in a feed.
const (
	TagCategory = "CATALOG_STRUCTURE"
	TagArticle  = "ARTICLE"
	TagMapping  = "ARTICLE_TO_CATALOGGROUP_MAP"
)

// Category types that are applied to the catalog.
const (
	CategoryTypeNode = "node"
	CategoryTypeLeaf = "leaf"
)

// Mime purposes recognised on article images.
const (
	PurposeNormal = "normal"
	PurposeLogo   = "logo"
)

// Price types recognised on articles.
const (
	PriceNetCustomer = "net_customer"
	PriceNRP         = "nrp"
	PriceUDP         = "udp_price_1_excl_charge"
)

// Mime is a single MIME_INFO/MIME entry.
type Mime struct {
	Source  string `xml:"MIME_SOURCE" json:"source" jsonschema:"description=Path of the image relative to the image base URL"`
	Purpose string `xml:"MIME_PURPOSE" json:"purpose,omitempty" jsonschema:"enum=normal,enum=logo,enum="`
}

// Category is a CATALOG_STRUCTURE element.
type Category struct {
	Type     string `xml:"type,attr" json:"type" jsonschema:"enum=node,enum=leaf,enum=root"`
	GroupID  string `xml:"GROUP_ID" json:"groupId" jsonschema:"required"`
	ParentID string `xml:"PARENT_ID" json:"parentId,omitempty"`
	Name     string `xml:"GROUP_NAME" json:"name"`
	Order    string `xml:"GROUP_ORDER" json:"order,omitempty"`
	Images   []Mime `xml:"MIME_INFO>MIME" json:"images,omitempty"`
}

// Thumbnail returns the source of the first category image, or "".
func (c *Category) Thumbnail() string {
	for _, m := range c.Images {
		if s := strings.TrimSpace(m.Source); s != "" {
			return s
		}
	}
	return ""
}

// Applicable reports whether the category type and group id allow it to be
// written to the catalog.
func (c *Category) Applicable() bool {
	if c.Type != CategoryTypeNode && c.Type != CategoryTypeLeaf {
		return false
	}
	return !isZeroKey(c.GroupID)
}

// OrderRank returns GROUP_ORDER as a non-negative integer.
func (c *Category) OrderRank() int64 {
	return absInt(c.Order)
}

// Feature is an ARTICLE_FEATURES/FEATURE entry.
type Feature struct {
	Name    string `xml:"FNAME" json:"name"`
	Value   string `xml:"FVALUE" json:"value"`
	Details string `xml:"FVALUE_DETAILS" json:"details,omitempty"`
}

// CombinedValue joins the value with its details suffix.
func (f Feature) CombinedValue() string {
	v := strings.TrimSpace(f.Value)
	if d := strings.TrimSpace(f.Details); d != "" {
		return v + " " + d
	}
	return v
}

// Price is an ARTICLE_PRICE_DETAILS/ARTICLE_PRICE entry.
type Price struct {
	Type   string `xml:"price_type,attr" json:"type"`
	Amount string `xml:"PRICE_AMOUNT" json:"amount,omitempty"`
	Tax    string `xml:"TAX" json:"tax,omitempty"`
}

// ArticleDetails is the ARTICLE_DETAILS block.
type ArticleDetails struct {
	Title            string   `xml:"DESCRIPTION_SHORT" json:"title"`
	Description      string   `xml:"DESCRIPTION_LONG" json:"description,omitempty"`
	EAN              string   `xml:"EAN" json:"ean,omitempty"`
	ManufacturerAID  string   `xml:"MANUFACTURER_AID" json:"manufacturerAid,omitempty"`
	ManufacturerName string   `xml:"MANUFACTURER_NAME" json:"manufacturerName,omitempty"`
	DeliveryTime     string   `xml:"DELIVERY_TIME" json:"deliveryTime,omitempty"`
	Keywords         []string `xml:"KEYWORD" json:"keywords,omitempty"`
	Status           string   `xml:"ARTICLE_STATUS" json:"status,omitempty"`
}

// OrderDetails is the ARTICLE_ORDER_DETAILS block.
type OrderDetails struct {
	OrderUnit        string `xml:"ORDER_UNIT" json:"orderUnit,omitempty"`
	ContentUnit      string `xml:"CONTENT_UNIT" json:"contentUnit,omitempty"`
	NoCuPerOu        string `xml:"NO_CU_PER_OU" json:"noCuPerOu,omitempty"`
	QuantityMin      string `xml:"QUANTITY_MIN" json:"quantityMin,omitempty"`
	QuantityInterval string `xml:"QUANTITY_INTERVAL" json:"quantityInterval,omitempty"`
}

// Extensions is the USER_DEFINED_EXTENSIONS block.
type Extensions struct {
	StockQuantity       string `xml:"UDX.SECOMP.STOCK_QUANTITY" json:"stockQuantity,omitempty"`
	Length              string `xml:"UDX.SECOMP.LENGTH" json:"length,omitempty"`
	Width               string `xml:"UDX.SECOMP.WIDTH" json:"width,omitempty"`
	Height              string `xml:"UDX.SECOMP.HEIGHT" json:"height,omitempty"`
	Freight             string `xml:"UDX.SECOMP.FREIGHT" json:"freight,omitempty" jsonschema:"description=0 ships as parcel and 1 ships on a pallet"`
	TranslationLanguage string `xml:"UDX.SECOMP.TRANSLATION_LANGUAGE" json:"translationLanguage,omitempty"`
}

// Article is an ARTICLE element.
type Article struct {
	SKU        string         `xml:"SUPPLIER_AID" json:"sku" jsonschema:"required"`
	Details    ArticleDetails `xml:"ARTICLE_DETAILS" json:"details"`
	Features   []Feature      `xml:"ARTICLE_FEATURES>FEATURE" json:"features,omitempty"`
	Prices     []Price        `xml:"ARTICLE_PRICE_DETAILS>ARTICLE_PRICE" json:"prices,omitempty"`
	Extensions Extensions     `xml:"USER_DEFINED_EXTENSIONS" json:"extensions"`
	Images     []Mime         `xml:"MIME_INFO>MIME" json:"images,omitempty"`
	Order      OrderDetails   `xml:"ARTICLE_ORDER_DETAILS" json:"order"`
}

// Mapping is an ARTICLE_TO_CATALOGGROUP_MAP element.
type Mapping struct {
	SKU     string `xml:"ART_ID" json:"sku" jsonschema:"required"`
	GroupID string `xml:"CATALOG_GROUP_ID" json:"groupId" jsonschema:"required"`
}

// isZeroKey treats "", "0" and numeric zero spellings as an empty key.
func isZeroKey(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && n == 0 {
		return true
	}
	return false
}

func absInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if ferr != nil {
			return 0
		}
		n = int64(f)
	}
	if n < 0 {
		return -n
	}
	return n
}

// ParseNumber parses a feed decimal, accepting a comma as decimal separator.
// ok is false for empty or malformed input.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
