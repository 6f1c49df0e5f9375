package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipients(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", []string{}},
		{"comma", "a@x.ch, b@x.ch", []string{"a@x.ch", "b@x.ch"}},
		{"mixed separators", "a@x.ch;b@x.ch\nc@x.ch", []string{"a@x.ch", "b@x.ch", "c@x.ch"}},
		{"duplicates", "a@x.ch, A@x.ch,,", []string{"a@x.ch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRecipients(tt.raw))
		})
	}
}

func TestDefaultsAndOverrides(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV(), Defaults{Recipients: []string{"ops@x.ch"}, BatchLimit: 200})

	view, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, View{Recipients: []string{"ops@x.ch"}, BatchLimit: 200}, view)

	require.NoError(t, s.SetRecipients(ctx, []string{"a@x.ch", "b@x.ch"}))
	require.NoError(t, s.SetBatchLimit(ctx, 50))
	require.NoError(t, s.SetHasError(ctx, true))

	view, err = s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, View{Recipients: []string{"a@x.ch", "b@x.ch"}, BatchLimit: 50, HasError: true}, view)

	assert.Error(t, s.SetBatchLimit(ctx, 0))
}

func TestInvalidBatchLimitFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyBatchLimit, "lots"))
	s := New(kv, Defaults{BatchLimit: 200})

	n, err := s.BatchLimit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, n)
}

type brokenKV struct{}

func (brokenKV) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("connection refused")
}

func (brokenKV) Set(ctx context.Context, key, value string) error {
	return errors.New("connection refused")
}

func TestStoreErrorsSurface(t *testing.T) {
	s := New(brokenKV{}, Defaults{BatchLimit: 100})
	_, err := s.HasError(context.Background())
	assert.Error(t, err)

	n, err := s.BatchLimit(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 100, n)
}
