package shutdown

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// InFlightTracker tracks in-flight work (dispatches, webhook requests) to ensure
// graceful shutdown waits for work to complete
type InFlightTracker struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	closing  bool
	inFlight int
	logger   *zap.Logger
	name     string
}

// NewInFlightTracker creates a new in-flight work tracker
func NewInFlightTracker(name string, logger *zap.Logger) *InFlightTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InFlightTracker{
		logger: logger,
		name:   name,
	}
}

// Add increments the in-flight work counter
// Returns false if shutdown has been initiated (don't start new work)
func (ift *InFlightTracker) Add() bool {
	ift.mu.Lock()
	defer ift.mu.Unlock()

	if ift.closing {
		return false
	}
	ift.inFlight++
	ift.wg.Add(1)
	return true
}

// Done decrements the in-flight work counter
// Call this when work is complete (typically via defer)
func (ift *InFlightTracker) Done() {
	ift.mu.Lock()
	ift.inFlight--
	ift.mu.Unlock()
	ift.wg.Done()
}

// Count returns the number of units of work currently running
func (ift *InFlightTracker) Count() int {
	ift.mu.Lock()
	defer ift.mu.Unlock()
	return ift.inFlight
}

// Shutdown rejects new work and waits for all in-flight work to complete
// Returns ctx.Err() if the context ends first; the work keeps running
func (ift *InFlightTracker) Shutdown(ctx context.Context) error {
	ift.mu.Lock()
	ift.closing = true
	pending := ift.inFlight
	ift.mu.Unlock()

	ift.logger.Info("Waiting for in-flight work to complete",
		zap.String("tracker", ift.name),
		zap.Int("in_flight", pending),
	)

	done := make(chan struct{})
	go func() {
		ift.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ift.logger.Info("All in-flight work completed",
			zap.String("tracker", ift.name),
		)
		return nil
	case <-ctx.Done():
		ift.logger.Warn("Shutdown timeout - some work may be incomplete",
			zap.String("tracker", ift.name),
			zap.Int("in_flight", ift.Count()),
		)
		return ctx.Err()
	}
}

// IsShuttingDown returns true if shutdown has been initiated
func (ift *InFlightTracker) IsShuttingDown() bool {
	ift.mu.Lock()
	defer ift.mu.Unlock()
	return ift.closing
}
