package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuslog/internal/store"
)

func TestNewRedisDisabled(t *testing.T) {
	r, err := store.NewRedis("  ")
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.False(t, r.Healthy(context.Background()))
	assert.NoError(t, r.Close())
}

func TestNewRedisURL(t *testing.T) {
	r, err := store.NewRedis("redis://:pw@127.0.0.1:1/2")
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "127.0.0.1:1", r.Client.Options().Addr)
	assert.Equal(t, 2, r.Client.Options().DB)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	assert.False(t, r.Healthy(ctx))

	_, err = store.NewRedis("redis://%zz")
	assert.Error(t, err)
}
