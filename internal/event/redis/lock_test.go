package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client backed by miniredis, an in-memory
// Redis that doesn't require a real server
func setupTestRedis(t *testing.T) *Redis {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return NewRedis(client, 30*time.Second)
}

func TestLockCardAndOrder(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()

	ok, err := r.LockCardAndOrder(ctx, 1, 2, "holder-a")
	require.NoError(t, err)
	assert.True(t, ok)

	// same card, different order: still blocked
	ok, err = r.LockCardAndOrder(ctx, 1, 3, "holder-b")
	require.NoError(t, err)
	assert.False(t, ok)

	// different card, same order: also blocked
	ok, err = r.LockCardAndOrder(ctx, 4, 2, "holder-b")
	require.NoError(t, err)
	assert.False(t, ok)

	// unrelated pair goes through
	ok, err = r.LockCardAndOrder(ctx, 4, 3, "holder-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFailedLockRollsBackPartialAcquisition(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()

	// holder-a holds only the order key
	ok, err := r.LockCardAndOrder(ctx, 10, 2, "holder-a")
	require.NoError(t, err)
	require.True(t, ok)

	// holder-b grabs card 1 but fails on order 2; the card lock must not
	// stay behind
	ok, err = r.LockCardAndOrder(ctx, 1, 2, "holder-b")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = r.LockCardAndOrder(ctx, 1, 99, "holder-c")
	require.NoError(t, err)
	assert.True(t, ok, "card 1 must be free again after the rollback")
}

func TestUnlockReleasesOnlyOwnLocks(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()

	ok, err := r.LockCardAndOrder(ctx, 1, 2, "holder-a")
	require.NoError(t, err)
	require.True(t, ok)

	// a stranger's unlock is a no-op
	require.NoError(t, r.UnlockCardAndOrder(ctx, 1, 2, "holder-b"))
	ok, err = r.LockCardAndOrder(ctx, 1, 2, "holder-c")
	require.NoError(t, err)
	assert.False(t, ok)

	// the owner's unlock frees the pair
	require.NoError(t, r.UnlockCardAndOrder(ctx, 1, 2, "holder-a"))
	ok, err = r.LockCardAndOrder(ctx, 1, 2, "holder-c")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlockAfterExpiryIsQuiet(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()

	assert.NoError(t, r.UnlockCardAndOrder(ctx, 1, 2, "holder-a"))
}
