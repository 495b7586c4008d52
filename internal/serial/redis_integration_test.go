//go:build integration

package serial

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vanshavali/pkg/testutil/containers"
)

func TestRedisAllocator(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	defer rc.Client.Close()

	alloc := NewRedis(rc.Client)
	require.NoError(t, rc.FlushAll(ctx))
	require.NoError(t, alloc.Ensure(ctx, 10))

	got, err := alloc.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got)

	// Ensure with a lower floor must not rewind the counter.
	require.NoError(t, alloc.Ensure(ctx, 3))
	got, err = alloc.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), got)
}

func TestRedisAllocatorConcurrentUniqueness(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	defer rc.Client.Close()

	require.NoError(t, rc.FlushAll(ctx))
	alloc := NewRedis(rc.Client)

	const workers = 16
	const perWorker = 50

	results := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				n, err := alloc.Next(ctx)
				assert.NoError(t, err)
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, workers*perWorker)
	for n := range results {
		assert.False(t, seen[n], "serial %d issued twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers*perWorker)
}
