package staging

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/bmecat"
)

func TestMemoryQueueDrainLimit(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	for i := 0; i < 5; i++ {
		_, err := q.Enqueue(ctx, KindMapping, bmecat.Mapping{SKU: "S", GroupID: "1"})
		require.NoError(t, err)
	}

	batch, err := q.Drain(ctx, 3)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{batch[0].ID, batch[1].ID, batch[2].ID})

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, r := range batch {
		assert.ErrorIs(t, q.Remove(ctx, r.ID), ErrRecordNotFound)
	}

	rest, err := q.Drain(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	empty, err := q.Drain(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryQueueConcurrentDrain(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	for i := 0; i < 100; i++ {
		_, err := q.Enqueue(ctx, KindProduct, bmecat.Article{SKU: "X"})
		require.NoError(t, err)
	}

	var (
		mu   sync.Mutex
		seen = make(map[int64]int)
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				batch, err := q.Drain(ctx, 7)
				if err != nil || len(batch) == 0 {
					return
				}
				mu.Lock()
				for _, r := range batch {
					seen[r.ID]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 100)
	for id, n := range seen {
		assert.Equal(t, 1, n, "record %d drained more than once", id)
	}
}

func TestRecordPayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	_, err := q.Enqueue(ctx, KindCategory, bmecat.Category{Type: "leaf", GroupID: "10", Name: "Widgets"})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, Kind("bogus"), struct{}{})
	assert.Error(t, err)

	counts, err := q.CountByKind(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[KindCategory])

	batch, err := q.Drain(ctx, 1)
	require.NoError(t, err)
	cat, err := batch[0].Category()
	require.NoError(t, err)
	assert.Equal(t, "Widgets", cat.Name)

	_, err = batch[0].Article()
	assert.Error(t, err)
}

func TestMemoryQueuePurge(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	id, err := q.Enqueue(ctx, KindMapping, bmecat.Mapping{SKU: "A", GroupID: "2"})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, KindMapping, bmecat.Mapping{SKU: "B", GroupID: "2"})
	require.NoError(t, err)

	require.NoError(t, q.Remove(ctx, id))
	n, err := q.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
