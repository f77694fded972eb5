package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetNXOnlyOnce(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	first, err := s.SetNX(ctx, "k", time.Minute)
	require.NoError(t, err)
	second, err := s.SetNX(ctx, "k", time.Minute)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }
	_, _ = s.SetNX(ctx, "k", time.Second)

	ok, _ := s.Exists(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = s.Exists(ctx, "k")
	assert.False(t, ok)

	again, _ := s.SetNX(ctx, "k", time.Second)
	assert.True(t, again)
}

func TestMemoryStore_ConcurrentSetNX(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.SetNX(context.Background(), "same", time.Minute); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, _ = s.SetNX(ctx, "k", time.Minute)
	require.NoError(t, s.Delete(ctx, "k"))
	ok, _ := s.Exists(ctx, "k")
	assert.False(t, ok)
}
