// Package settings holds the operator-editable import settings and the
// persisted error flag of the last transform.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ErrNotFound is returned by KV.Get for a missing key.
var ErrNotFound = errors.New("setting not found")

// Setting keys.
const (
	KeyNotificationEmails = "notification_emails"
	KeyBatchLimit         = "import_batch_limit"
	KeyHasError           = "import_has_error"
)

// KV is a string key-value store.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Defaults are used for keys that were never set.
type Defaults struct {
	Recipients []string
	BatchLimit int
}

// View is a snapshot of all settings.
type View struct {
	Recipients []string `json:"notificationEmails"`
	BatchLimit int      `json:"batchLimit"`
	HasError   bool     `json:"hasError"`
}

// Settings reads and writes typed settings through a KV.
type Settings struct {
	kv       KV
	defaults Defaults
}

// New creates Settings over kv.
func New(kv KV, defaults Defaults) *Settings {
	return &Settings{kv: kv, defaults: defaults}
}

func (s *Settings) get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, true, nil
}

// Recipients returns the notification addresses.
func (s *Settings) Recipients(ctx context.Context) ([]string, error) {
	v, ok, err := s.get(ctx, KeyNotificationEmails)
	if err != nil {
		return nil, err
	}
	if !ok {
		return append([]string(nil), s.defaults.Recipients...), nil
	}
	return ParseRecipients(v), nil
}

// SetRecipients stores the notification addresses.
func (s *Settings) SetRecipients(ctx context.Context, recipients []string) error {
	return s.kv.Set(ctx, KeyNotificationEmails, strings.Join(ParseRecipients(strings.Join(recipients, ",")), ","))
}

// BatchLimit returns the transform batch limit. Unset or invalid values fall
// back to the default.
func (s *Settings) BatchLimit(ctx context.Context) (int, error) {
	v, ok, err := s.get(ctx, KeyBatchLimit)
	if err != nil {
		return s.defaults.BatchLimit, err
	}
	if ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n, nil
		}
	}
	return s.defaults.BatchLimit, nil
}

// SetBatchLimit stores the transform batch limit.
func (s *Settings) SetBatchLimit(ctx context.Context, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("batch limit must be positive, got %d", limit)
	}
	return s.kv.Set(ctx, KeyBatchLimit, strconv.Itoa(limit))
}

// HasError returns the persisted error flag.
func (s *Settings) HasError(ctx context.Context) (bool, error) {
	v, ok, err := s.get(ctx, KeyHasError)
	if err != nil || !ok {
		return false, err
	}
	b, _ := strconv.ParseBool(v)
	return b, nil
}

// SetHasError stores the error flag.
func (s *Settings) SetHasError(ctx context.Context, v bool) error {
	return s.kv.Set(ctx, KeyHasError, strconv.FormatBool(v))
}

// Snapshot returns every setting.
func (s *Settings) Snapshot(ctx context.Context) (View, error) {
	var (
		view View
		err  error
	)
	if view.Recipients, err = s.Recipients(ctx); err != nil {
		return view, err
	}
	if view.BatchLimit, err = s.BatchLimit(ctx); err != nil {
		return view, err
	}
	view.HasError, err = s.HasError(ctx)
	return view, err
}

// ParseRecipients splits a comma, semicolon or whitespace separated address
// list, dropping empties and duplicates.
func ParseRecipients(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || seen[strings.ToLower(f)] {
			continue
		}
		seen[strings.ToLower(f)] = true
		out = append(out, f)
	}
	return out
}

// MemoryKV is an in-process KV.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
