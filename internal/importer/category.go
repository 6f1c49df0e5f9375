package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kosarica/catalog-service/internal/bmecat"
	"github.com/kosarica/catalog-service/internal/catalog"
	"github.com/kosarica/catalog-service/internal/media"
	"github.com/kosarica/catalog-service/internal/resolver"
)

func (e *Engine) applyCategory(ctx context.Context, out Outcome, c *bmecat.Category) Outcome {
	if !c.Applicable() {
		out.Status = StatusSkipped
		out.Message = fmt.Sprintf("Category type %q or group id %q not applicable", c.Type, c.GroupID)
		return out
	}

	// -1 keeps the stored thumbnail when the download fails.
	thumbID := int64(0)
	if src := c.Thumbnail(); src != "" && e.media != nil {
		id, err := e.media.Resolve(ctx, c.GroupID, media.JoinURL(e.imageBaseURL, src), src)
		if err != nil {
			e.logger.Warn().Err(err).Str("group_id", c.GroupID).Str("image", src).Msg("Category image not imported")
			thumbID = -1
		} else {
			thumbID = id
		}
	}

	termID, err := e.resolver.Category(ctx, c.GroupID)
	if err != nil {
		return failed(out, fmt.Errorf("resolve category %s: %w", c.GroupID, err))
	}
	parentID, err := e.resolver.Category(ctx, c.ParentID)
	if err != nil {
		return failed(out, fmt.Errorf("resolve parent %s: %w", c.ParentID, err))
	}

	if termID != resolver.NotFound {
		if err := e.store.UpdateTerm(ctx, termID, c.Name, parentID); err != nil {
			return failed(out, fmt.Errorf("update category %s: %w", c.GroupID, err))
		}
		out.Message = "Category was updated"
	} else {
		termID, err = e.store.CreateTerm(ctx, catalog.TaxonomyCategory, c.Name, parentID)
		if err != nil {
			return failed(out, fmt.Errorf("create category %s: %w", c.GroupID, err))
		}
		out.Message = "Category was imported"
	}
	out.EntityID = termID

	var errs []error
	meta := [][2]string{
		{catalog.MetaOrder, strconv.FormatInt(c.OrderRank(), 10)},
		{catalog.MetaGroupID, c.GroupID},
	}
	if thumbID >= 0 {
		meta = append(meta, [2]string{catalog.MetaThumbnailID, strconv.FormatInt(thumbID, 10)})
	}
	for _, kv := range meta {
		if err := e.store.SetTermMeta(ctx, termID, kv[0], kv[1]); err != nil {
			errs = append(errs, fmt.Errorf("set %s: %w", kv[0], err))
		}
	}

	return finish(out, errs)
}

func failed(out Outcome, err error) Outcome {
	out.Status = StatusFailed
	out.Err = err
	return out
}

// finish marks a saved entity as applied or partial depending on errs.
func finish(out Outcome, errs []error) Outcome {
	if err := errors.Join(errs...); err != nil {
		out.Status = StatusPartial
		out.Err = err
		return out
	}
	out.Status = StatusApplied
	return out
}
