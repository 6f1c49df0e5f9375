// Package staging is the durable queue between feed extraction and the
// catalog transform. Records are handed out by Drain and deleted in the same
// step, so a record is processed at most once.
package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kosarica/catalog-service/internal/bmecat"
)

// Kind is the record type of a staged feed element.
type Kind string

const (
	KindCategory Kind = "category"
	KindProduct  Kind = "product"
	KindMapping  Kind = "mapping"
)

// DefaultDrainLimit is used when Drain is called with a non-positive limit.
const DefaultDrainLimit = 200

// ErrRecordNotFound is returned by Remove for an unknown id.
var ErrRecordNotFound = errors.New("staged record not found")

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindCategory, KindProduct, KindMapping:
		return true
	}
	return false
}

// Record is a staged feed element.
type Record struct {
	ID        int64           `json:"id"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Category decodes the payload of a category record.
func (r Record) Category() (*bmecat.Category, error) {
	var c bmecat.Category
	if err := r.decode(KindCategory, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Article decodes the payload of a product record.
func (r Record) Article() (*bmecat.Article, error) {
	var a bmecat.Article
	if err := r.decode(KindProduct, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Mapping decodes the payload of a mapping record.
func (r Record) Mapping() (*bmecat.Mapping, error) {
	var m bmecat.Mapping
	if err := r.decode(KindMapping, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r Record) decode(want Kind, v any) error {
	if r.Kind != want {
		return fmt.Errorf("record %d is %s, not %s", r.ID, r.Kind, want)
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("decode record %d payload: %w", r.ID, err)
	}
	return nil
}

// Queue is the staging queue contract.
type Queue interface {
	// Enqueue stores payload as a new record and returns its id.
	Enqueue(ctx context.Context, kind Kind, payload any) (int64, error)
	// Drain removes and returns at most limit records, oldest first.
	Drain(ctx context.Context, limit int) ([]Record, error)
	// Remove deletes a single record.
	Remove(ctx context.Context, id int64) error
	// Count returns the number of queued records.
	Count(ctx context.Context) (int64, error)
	// CountByKind returns the number of queued records per kind.
	CountByKind(ctx context.Context) (map[Kind]int64, error)
	// Purge deletes every queued record and returns how many were removed.
	Purge(ctx context.Context) (int64, error)
}

func marshalPayload(kind Kind, payload any) ([]byte, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return data, nil
}

func drainLimit(limit int) int {
	if limit <= 0 {
		return DefaultDrainLimit
	}
	return limit
}
