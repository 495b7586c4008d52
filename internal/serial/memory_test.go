package serial

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySequential(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	for want := int64(1); want <= 5; want++ {
		got, err := m.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMemorySeeded(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(41)

	got, err := m.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestMemoryEnsure(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Ensure(ctx, 100))
	got, err := m.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(101), got)

	// Ensure never lowers the counter.
	require.NoError(t, m.Ensure(ctx, 5))
	got, err = m.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(102), got)
}

// TestMemoryConcurrentUniqueness hammers the allocator from many goroutines
// and verifies no serial number is ever handed out twice.
func TestMemoryConcurrentUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	const workers = 32
	const perWorker = 200

	results := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				n, err := m.Next(ctx)
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
