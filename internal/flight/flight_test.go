package flight

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRejectsConcurrentSameKey(t *testing.T) {
	s := NewSupervisor()

	started := make(chan struct{})
	release := make(chan struct{})
	var executions int32

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Do(context.Background(), "track:ep_1", func(ctx context.Context) error {
			atomic.AddInt32(&executions, 1)
			close(started)
			<-release
			return nil
		})
	}()

	<-started

	// Second toggle for the same track while the first is in flight
	err := s.Do(context.Background(), "track:ep_1", func(ctx context.Context) error {
		atomic.AddInt32(&executions, 1)
		return nil
	})
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&executions))
}

func TestDoAllowsDifferentKeys(t *testing.T) {
	s := NewSupervisor()

	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = s.Do(context.Background(), "track:ep_1", func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	defer close(release)

	err := s.Do(context.Background(), "track:ep_2", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
}

func TestDoReleasesKeyAfterCompletion(t *testing.T) {
	s := NewSupervisor()

	err := s.Do(context.Background(), "cart:add", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.False(t, s.Busy("cart:add"))

	err = s.Do(context.Background(), "cart:add", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
}
