package draft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relief/pkg/requestcontext"
)

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(),
		time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
}

func newTestCache(t *testing.T) (*Cache, *InMemoryKV) {
	t.Helper()
	kv := NewInMemoryKV()
	c, err := NewCache(kv)
	require.NoError(t, err)
	return c, kv
}

func TestCacheLoad(t *testing.T) {
	t.Run("missing draft is nil without error", func(t *testing.T) {
		c, _ := newTestCache(t)
		d, err := c.Load(testCtx(), "user-1", "ACME")
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("corrupt payload is dropped", func(t *testing.T) {
		c, kv := newTestCache(t)
		ctx := testCtx()
		require.NoError(t, kv.Set(ctx, "draft:user-1:ACME", "{not json"))

		d, err := c.Load(ctx, "user-1", "ACME")
		require.NoError(t, err)
		assert.Nil(t, d)

		_, err = kv.Get(ctx, "draft:user-1:ACME")
		require.Error(t, err)
	})
}

func TestCacheMerge(t *testing.T) {
	t.Run("first patch creates the draft with skeletons intact", func(t *testing.T) {
		c, _ := newTestCache(t)
		ctx := testCtx()

		d, err := c.Merge(ctx, "user-1", "ACME", Patch{
			Event: map[string]any{"eventType": "flood"},
		})
		require.NoError(t, err)

		assert.Equal(t, "flood", d.Event["eventType"])
		// Untouched skeleton keys survive the partial write.
		assert.Equal(t, "", d.Event["eventDate"])
		assert.Equal(t, float64(0), d.Event["requestedAmount"])
		assert.Equal(t, false, d.Agreement["acceptedTerms"])
		assert.Equal(t, requestcontext.Now(ctx), d.UpdatedAt)
	})

	t.Run("patches round-trip through storage", func(t *testing.T) {
		c, _ := newTestCache(t)
		ctx := testCtx()

		_, err := c.Merge(ctx, "user-1", "ACME", Patch{
			Event: map[string]any{"eventType": "flood", "requestedAmount": float64(125_00)},
		})
		require.NoError(t, err)
		_, err = c.Merge(ctx, "user-1", "ACME", Patch{
			Event:     map[string]any{"description": "basement flooded"},
			Agreement: map[string]any{"certifiedTruthful": true},
		})
		require.NoError(t, err)

		d, err := c.Load(ctx, "user-1", "ACME")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, "flood", d.Event["eventType"])
		assert.Equal(t, float64(125_00), d.Event["requestedAmount"])
		assert.Equal(t, "basement flooded", d.Event["description"])
		assert.Equal(t, true, d.Agreement["certifiedTruthful"])
		assert.Equal(t, false, d.Agreement["acceptedTerms"])
	})

	t.Run("nested maps merge key-wise", func(t *testing.T) {
		c, _ := newTestCache(t)
		ctx := testCtx()

		_, err := c.Merge(ctx, "user-1", "ACME", Patch{
			Profile: map[string]any{"address": map[string]any{"city": "Tulsa", "state": "OK"}},
		})
		require.NoError(t, err)
		d, err := c.Merge(ctx, "user-1", "ACME", Patch{
			Profile: map[string]any{"address": map[string]any{"zip": "74101"}},
		})
		require.NoError(t, err)

		addr, ok := d.Profile["address"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Tulsa", addr["city"])
		assert.Equal(t, "OK", addr["state"])
		assert.Equal(t, "74101", addr["zip"])
	})

	t.Run("drafts are scoped per fund", func(t *testing.T) {
		c, _ := newTestCache(t)
		ctx := testCtx()

		_, err := c.Merge(ctx, "user-1", "ACME", Patch{
			Event: map[string]any{"eventType": "flood"},
		})
		require.NoError(t, err)

		other, err := c.Load(ctx, "user-1", "BETA")
		require.NoError(t, err)
		assert.Nil(t, other)

		theirs, err := c.Load(ctx, "user-2", "ACME")
		require.NoError(t, err)
		assert.Nil(t, theirs)
	})
}

func TestCacheClear(t *testing.T) {
	t.Run("removes draft and assistant scratch", func(t *testing.T) {
		c, kv := newTestCache(t)
		ctx := testCtx()

		_, err := c.Merge(ctx, "user-1", "ACME", Patch{
			Event: map[string]any{"eventType": "flood"},
		})
		require.NoError(t, err)
		require.NoError(t, kv.Set(ctx, "assist:user-1:ACME", `{"turns":[]}`))

		require.NoError(t, c.Clear(ctx, "user-1", "ACME"))

		d, err := c.Load(ctx, "user-1", "ACME")
		require.NoError(t, err)
		assert.Nil(t, d)
		_, err = kv.Get(ctx, "assist:user-1:ACME")
		require.Error(t, err)
	})

	t.Run("clearing an absent draft is a no-op", func(t *testing.T) {
		c, _ := newTestCache(t)
		assert.NoError(t, c.Clear(testCtx(), "user-1", "ACME"))
	})
}
