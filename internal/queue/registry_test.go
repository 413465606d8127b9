package queue

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreatesLazily(t *testing.T) {
	var built int32
	registry := NewRegistry(func(roomID string) Config {
		atomic.AddInt32(&built, 1)
		return Config{RoomID: roomID}
	})

	assert.Nil(t, registry.Get("r1"))

	m := registry.GetOrCreate("r1")
	require.NotNil(t, m)
	assert.Equal(t, "r1", m.RoomID())
	assert.Same(t, m, registry.Get("r1"))
	assert.Same(t, m, registry.GetOrCreate("r1"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&built))
}

func TestRegistryIsolatesRooms(t *testing.T) {
	registry := NewRegistry(func(roomID string) Config {
		return Config{RoomID: roomID}
	})

	assert.NotSame(t, registry.GetOrCreate("r1"), registry.GetOrCreate("r2"))
}

func TestRegistryConcurrentFirstAccess(t *testing.T) {
	var built int32
	registry := NewRegistry(func(roomID string) Config {
		atomic.AddInt32(&built, 1)
		return Config{RoomID: roomID}
	})

	const workers = 32
	managers := make([]*Manager, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			managers[i] = registry.GetOrCreate("contested")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		require.Same(t, managers[0], managers[i], fmt.Sprintf("worker %d got a different manager", i))
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&built))
}
