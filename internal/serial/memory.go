package serial

import (
	"context"
	"sync/atomic"
)

// Memory is a process-local atomic allocator. Suitable for single-instance
// deployments and tests; multi-instance deployments use the Redis or Mongo
// allocator so all writers share one counter.
type Memory struct {
	last atomic.Int64
}

// NewMemory creates an allocator whose next value is seed+1.
func NewMemory(seed int64) *Memory {
	m := &Memory{}
	m.last.Store(seed)
	return m
}

func (m *Memory) Next(_ context.Context) (int64, error) {
	return m.last.Add(1), nil
}

func (m *Memory) Ensure(_ context.Context, floor int64) error {
	for {
		current := m.last.Load()
		if current >= floor {
			return nil
		}
		if m.last.CompareAndSwap(current, floor) {
			return nil
		}
	}
}
