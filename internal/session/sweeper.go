package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sweeper is the background maintenance loop: it closes sessions past their
// expiry and prunes join-ledger rows that have aged out of the rate window.
type Sweeper struct {
	interval time.Duration
	running  bool
	mu       sync.Mutex
	stopChan chan struct{}
}

func NewSweeper(interval time.Duration) *Sweeper {
	if interval == 0 {
		interval = time.Minute
	}
	return &Sweeper{
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("[sweeper] starting with interval %v", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[sweeper] context cancelled, stopping")
			return
		case <-s.stopChan:
			log.Println("[sweeper] stop signal received")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.stopChan)
		s.running = false
		log.Println("[sweeper] stopped")
	}
}

func (s *Sweeper) sweep() {
	closed, err := CloseExpired()
	if err != nil {
		log.Printf("[sweeper] error closing expired sessions: %v", err)
	} else if closed > 0 {
		log.Printf("[sweeper] closed %d expired sessions", closed)
	}

	if err := PruneJoinAttempts(); err != nil {
		log.Printf("[sweeper] error pruning join attempts: %v", err)
	}
}
