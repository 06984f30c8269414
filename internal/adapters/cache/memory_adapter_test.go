package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter()

	_, err := c.Get(ctx, "geo:v1:geocode:abc")
	assert.ErrorIs(t, err, ErrCacheMiss)

	value := []byte(`{"lat":4.6,"lng":-74.1}`)
	require.NoError(t, c.Set(ctx, "geo:v1:geocode:abc", value, 0))
	value[0] = 'X'

	got, err := c.Get(ctx, "geo:v1:geocode:abc")
	require.NoError(t, err)
	assert.Equal(t, `{"lat":4.6,"lng":-74.1}`, string(got))

	ok, err := c.Exists(ctx, "geo:v1:geocode:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "geo:v1:geocode:abc"))
	ok, err = c.Exists(ctx, "geo:v1:geocode:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 20*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
