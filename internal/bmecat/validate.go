package bmecat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid feed element")

// Validate rejects categories that can never be applied.
func (c *Category) Validate() error {
	c.normalize()
	if isZeroKey(c.GroupID) {
		return fmt.Errorf("%w: category without GROUP_ID", ErrInvalid)
	}
	if c.Type != CategoryTypeNode && c.Type != CategoryTypeLeaf {
		return fmt.Errorf("%w: category %s has unsupported type %q", ErrInvalid, c.GroupID, c.Type)
	}
	return nil
}

// Validate rejects articles without a SKU.
func (a *Article) Validate() error {
	a.normalize()
	if a.SKU == "" {
		return fmt.Errorf("%w: article without SUPPLIER_AID", ErrInvalid)
	}
	return nil
}

// Validate rejects mappings missing either key.
func (m *Mapping) Validate() error {
	m.SKU = strings.TrimSpace(m.SKU)
	m.GroupID = strings.TrimSpace(m.GroupID)
	if m.SKU == "" || isZeroKey(m.GroupID) {
		return fmt.Errorf("%w: mapping %q -> %q is missing a key", ErrInvalid, m.SKU, m.GroupID)
	}
	return nil
}

func (c *Category) normalize() {
	c.Type = strings.TrimSpace(c.Type)
	c.GroupID = strings.TrimSpace(c.GroupID)
	c.ParentID = strings.TrimSpace(c.ParentID)
	c.Name = strings.TrimSpace(c.Name)
}

func (a *Article) normalize() {
	a.SKU = strings.TrimSpace(a.SKU)
	a.Details.Title = strings.TrimSpace(a.Details.Title)
	keywords := a.Details.Keywords[:0]
	for _, k := range a.Details.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	a.Details.Keywords = keywords
	for i := range a.Images {
		a.Images[i].Source = strings.TrimSpace(a.Images[i].Source)
		a.Images[i].Purpose = strings.TrimSpace(a.Images[i].Purpose)
	}
	for i := range a.Prices {
		a.Prices[i].Type = strings.TrimSpace(a.Prices[i].Type)
	}
}
