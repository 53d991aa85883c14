package oneshot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_ResolveThenWait(t *testing.T) {
	t.Parallel()

	s := New[int]()
	s.Resolve(42)

	v, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSignal_WaitThenResolve(t *testing.T) {
	t.Parallel()

	s := New[string]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Resolve("ready")
	}()

	v, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ready", v)
}

func TestSignal_FirstResolutionWins(t *testing.T) {
	t.Parallel()

	s := New[int]()
	s.Resolve(1)
	s.Resolve(2)

	v, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestSignal_ConcurrentResolvers(t *testing.T) {
	t.Parallel()

	s := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Resolve(n)
		}(i)
	}
	wg.Wait()

	v, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 0)
	assert.Less(t, v, 10)
}

func TestSignal_WaitCancelled(t *testing.T) {
	t.Parallel()

	s := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
