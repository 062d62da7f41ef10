package client

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often an idle session is checked for expiry.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper runs fn every interval until stopped. Stop does not wait for a
// running fn, so fn may itself stop the sweeper.
type Sweeper struct {
	interval time.Duration
	fn       func(ctx context.Context)

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewSweeper(interval time.Duration, fn func(ctx context.Context)) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{interval: interval, fn: fn}
}

// Start launches the loop. Starting a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(ctx, s.stop, s.done)
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Wait blocks until the most recently started loop has exited.
func (s *Sweeper) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (s *Sweeper) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	defer func() {
		s.mu.Lock()
		if s.stop == stop {
			s.stop = nil
		}
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.fn(ctx)
		}
	}
}
