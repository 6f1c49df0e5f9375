package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/bmecat"
	"github.com/kosarica/catalog-service/internal/catalog"
	"github.com/kosarica/catalog-service/internal/media"
	"github.com/kosarica/catalog-service/internal/resolver"
)

// priceMeta maps a feed price type to its amount and tax meta keys.
var priceMeta = map[string][2]string{
	bmecat.PriceNetCustomer: {catalog.MetaPrice, catalog.MetaTaxPrice},
	bmecat.PriceNRP:         {catalog.MetaPriceNRP, catalog.MetaTaxPriceNRP},
	bmecat.PriceUDP:         {catalog.MetaPriceUDP, catalog.MetaTaxPriceUDP},
}

func (e *Engine) applyProduct(ctx context.Context, out Outcome, a *bmecat.Article) Outcome {
	existingID, err := e.resolver.ProductBySKU(ctx, a.SKU)
	if err != nil {
		return failed(out, fmt.Errorf("resolve product %s: %w", a.SKU, err))
	}

	p := &catalog.Product{ID: existingID}
	if existingID != resolver.NotFound {
		if loaded, err := e.store.GetProduct(ctx, existingID); err == nil {
			p = loaded
		}
	}
	p.SKU = a.SKU
	p.Name = a.Details.Title
	p.Description = e.sanitizer.Sanitize(a.Details.Description)
	p.Status = catalog.StatusPublish
	p.Visibility = catalog.VisibilityVisible
	p.StockStatus = catalog.StockInStock
	p.ManageStock = true
	p.Backorders = catalog.BackordersNo
	p.ReviewsAllowed = false
	p.SoldIndividually = false

	var errs []error
	mats, err := e.attrs.MaterializeAll(ctx, a.SKU, featureAttributes(a.Features))
	if err != nil {
		errs = append(errs, fmt.Errorf("attributes: %w", err))
	}
	p.Attributes = make([]catalog.ProductAttribute, 0, len(mats))
	for i, m := range mats {
		p.Attributes = append(p.Attributes, catalog.ProductAttribute{
			TaxonomyID: m.TaxonomyID,
			Taxonomy:   m.Taxonomy,
			Position:   i,
			Visible:    true,
			Variation:  true,
			TermIDs:    m.TermIDs,
		})
	}

	id, err := e.store.SaveProduct(ctx, p)
	if err == nil && id <= 0 {
		err = fmt.Errorf("store returned id %d", id)
	}
	if err != nil {
		// Nothing else is written for an unsaved product.
		errs = append(errs, fmt.Errorf("save product %s: %w", a.SKU, err))
		return failed(out, errors.Join(errs...))
	}
	out.EntityID = id
	if existingID != resolver.NotFound {
		out.Message = "Product was updated"
	} else {
		out.Message = "Product was imported"
	}

	errs = append(errs, e.saveExtensions(ctx, id, a.Extensions)...)
	errs = append(errs, e.savePrices(ctx, id, a.Prices)...)
	errs = append(errs, e.saveImages(ctx, id, a)...)
	for _, m := range mats {
		if err := e.store.SetObjectTerms(ctx, id, m.Taxonomy, m.TermIDs, false); err != nil {
			errs = append(errs, fmt.Errorf("assign %s terms: %w", m.Taxonomy, err))
		}
	}
	errs = append(errs, e.saveTags(ctx, id, a.Details.Keywords)...)
	errs = append(errs, e.setMeta(ctx, id, [][2]string{
		{catalog.MetaEAN, a.Details.EAN},
		{catalog.MetaManufacturerAID, a.Details.ManufacturerAID},
		{catalog.MetaManufacturerName, a.Details.ManufacturerName},
		{catalog.MetaDeliveryTime, a.Details.DeliveryTime},
		{catalog.MetaArticleStatus, a.Details.Status},
	})...)
	errs = append(errs, e.setMeta(ctx, id, [][2]string{
		{catalog.MetaOrderPCE, a.Order.OrderUnit},
		{catalog.MetaOrderUnit, a.Order.ContentUnit},
		{catalog.MetaOrderNoCU, a.Order.NoCuPerOu},
		{catalog.MetaOrderMin, a.Order.QuantityMin},
		{catalog.MetaOrderInterval, a.Order.QuantityInterval},
	})...)

	return finish(out, errs)
}

// featureAttributes groups feature values by name in order of first use.
func featureAttributes(features []bmecat.Feature) []attributes.Attribute {
	var out []attributes.Attribute
	index := make(map[string]int)
	for _, f := range features {
		name := strings.TrimSpace(f.Name)
		if i, ok := index[name]; ok {
			out[i].Values = append(out[i].Values, f.CombinedValue())
			continue
		}
		index[name] = len(out)
		out = append(out, attributes.Attribute{Name: name, Values: []string{f.CombinedValue()}})
	}
	return out
}

func (e *Engine) saveExtensions(ctx context.Context, id int64, x bmecat.Extensions) []error {
	var kv [][2]string
	if x.StockQuantity != "" {
		kv = append(kv, [2]string{catalog.MetaStock, x.StockQuantity})
		if qty, ok := bmecat.ParseNumber(x.StockQuantity); ok && qty > 0 {
			kv = append(kv, [2]string{catalog.MetaStockStatus, catalog.StockInStock})
		}
	}
	for _, dim := range []struct{ key, value string }{
		{catalog.MetaLength, x.Length},
		{catalog.MetaWidth, x.Width},
		{catalog.MetaHeight, x.Height},
	} {
		if n, ok := bmecat.ParseNumber(dim.value); ok && n != 0 {
			kv = append(kv, [2]string{dim.key, dim.value})
		}
	}
	if x.Freight != "" {
		kv = append(kv, [2]string{catalog.MetaFreight, x.Freight})
	}
	if x.TranslationLanguage != "" {
		kv = append(kv, [2]string{catalog.MetaTranslationLanguage, x.TranslationLanguage})
	}
	return e.setMeta(ctx, id, kv)
}

func (e *Engine) savePrices(ctx context.Context, id int64, prices []bmecat.Price) []error {
	var kv [][2]string
	for _, p := range prices {
		keys, ok := priceMeta[p.Type]
		if !ok {
			continue
		}
		if p.Amount != "" {
			kv = append(kv, [2]string{keys[0], p.Amount})
		}
		if p.Tax != "" {
			kv = append(kv, [2]string{keys[1], p.Tax})
		}
	}
	return e.setMeta(ctx, id, kv)
}

// saveImages sets the first normal image as thumbnail, the other normal
// images as gallery in feed order, and logos as indexed meta. Images that
// cannot be resolved are left out.
func (e *Engine) saveImages(ctx context.Context, id int64, a *bmecat.Article) []error {
	if e.media == nil || len(a.Images) == 0 {
		return nil
	}

	var (
		errs      []error
		thumbnail int64
		gallery   []int64
	)
	for i, img := range a.Images {
		if img.Source == "" {
			continue
		}
		if img.Purpose != bmecat.PurposeNormal && img.Purpose != bmecat.PurposeLogo {
			continue
		}
		assetID, err := e.media.Resolve(ctx, a.SKU, media.JoinURL(e.imageBaseURL, img.Source), img.Source)
		if err != nil {
			e.logger.Warn().Err(err).Str("sku", a.SKU).Str("image", img.Source).Msg("Product image not imported")
			continue
		}

		switch img.Purpose {
		case bmecat.PurposeLogo:
			key := catalog.MetaSupplierLogoPrefix + strconv.Itoa(i)
			if err := e.store.SetProductMeta(ctx, id, key, strconv.FormatInt(assetID, 10)); err != nil {
				errs = append(errs, fmt.Errorf("set %s: %w", key, err))
			}
		case bmecat.PurposeNormal:
			if thumbnail == 0 {
				thumbnail = assetID
			} else {
				gallery = append(gallery, assetID)
			}
		}
	}

	if thumbnail != 0 {
		if err := e.store.SetThumbnail(ctx, id, thumbnail); err != nil {
			errs = append(errs, fmt.Errorf("set thumbnail: %w", err))
		}
	}
	if len(gallery) > 0 {
		if err := e.store.SetGallery(ctx, id, gallery); err != nil {
			errs = append(errs, fmt.Errorf("set gallery: %w", err))
		}
	}
	return errs
}

// saveTags replaces the product tags with keywords.
func (e *Engine) saveTags(ctx context.Context, id int64, keywords []string) []error {
	var errs []error
	ids := make([]int64, 0, len(keywords))
	for _, k := range keywords {
		term, err := e.store.FindTermByName(ctx, catalog.TaxonomyTag, k)
		if err == nil {
			ids = append(ids, term.ID)
			continue
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			errs = append(errs, fmt.Errorf("tag %q: %w", k, err))
			continue
		}
		tagID, err := e.store.CreateTerm(ctx, catalog.TaxonomyTag, k, 0)
		if err != nil {
			errs = append(errs, fmt.Errorf("create tag %q: %w", k, err))
			continue
		}
		ids = append(ids, tagID)
	}
	if err := e.store.SetObjectTerms(ctx, id, catalog.TaxonomyTag, ids, false); err != nil {
		errs = append(errs, fmt.Errorf("assign tags: %w", err))
	}
	return errs
}

func (e *Engine) setMeta(ctx context.Context, id int64, kv [][2]string) []error {
	var errs []error
	for _, pair := range kv {
		if err := e.store.SetProductMeta(ctx, id, pair[0], pair[1]); err != nil {
			errs = append(errs, fmt.Errorf("set %s: %w", pair[0], err))
		}
	}
	return errs
}
