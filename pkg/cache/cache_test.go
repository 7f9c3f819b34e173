package cache_test

import (
	"testing"
	"time"

	"github.com/soundprediction/go-livemem/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) *cache.BadgerCache {
	t.Helper()
	c, err := cache.NewBadgerCache("")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSetGetDelete(t *testing.T) {
	c := newCache(t)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete("k"))
	_, err = c.Get("k")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
}

func TestGetMissing(t *testing.T) {
	c := newCache(t)
	_, err := c.Get("missing")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
}

func TestTTLExpiry(t *testing.T) {
	c := newCache(t)

	require.NoError(t, c.Set("short", []byte("v"), 50*time.Millisecond))
	time.Sleep(150 * time.Millisecond)
	_, err := c.Get("short")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
}

func TestJSONRoundTrip(t *testing.T) {
	c := newCache(t)

	type payload struct {
		Name  string `json:"name"`
		Score float64 `json:"score"`
	}
	require.NoError(t, cache.SetJSON(c, "p", payload{Name: "n", Score: 0.82}, 0))

	var got payload
	require.NoError(t, cache.GetJSON(c, "p", &got))
	assert.Equal(t, payload{Name: "n", Score: 0.82}, got)
}
