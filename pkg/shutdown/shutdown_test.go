package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInFlightTracker_WaitsForWork(t *testing.T) {
	tracker := NewInFlightTracker("test", zap.NewNop())

	require.True(t, tracker.Add())
	assert.Equal(t, 1, tracker.Count())

	release := make(chan struct{})
	go func() {
		<-release
		tracker.Done()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tracker.Shutdown(ctx), context.DeadlineExceeded)
	assert.True(t, tracker.IsShuttingDown())
	assert.False(t, tracker.Add(), "no new work after shutdown starts")

	close(release)
	require.NoError(t, tracker.Shutdown(context.Background()))
	assert.Equal(t, 0, tracker.Count())
}

func TestInFlightTracker_ConcurrentAdd(t *testing.T) {
	tracker := NewInFlightTracker("test", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tracker.Add() {
				tracker.Done()
			}
		}()
	}
	wg.Wait()

	require.NoError(t, tracker.Shutdown(context.Background()))
}

func TestManager_ReverseOrder(t *testing.T) {
	m := NewManager(zap.NewNop(), time.Second)

	var order []string
	m.RegisterNoErr("database", func() { order = append(order, "database") })
	m.Register("listener", func(ctx context.Context) error {
		order = append(order, "listener")
		return errors.New("boom")
	})

	err := m.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listener: boom")
	assert.Equal(t, []string{"listener", "database"}, order)
}
