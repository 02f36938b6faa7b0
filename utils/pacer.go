package utils

import (
	"sync"
	"time"
)

// Pacer enforces a minimum interval between requests to the origin site.
// The crawl is sequential on purpose, so this is a simple gate rather than
// a token bucket.
type Pacer struct {
	mu   sync.Mutex
	last time.Time
}

// NewPacer creates a Pacer whose first Wait returns immediately.
func NewPacer() *Pacer {
	return &Pacer{}
}

// Wait sleeps until at least interval has elapsed since the previous Wait.
func (p *Pacer) Wait(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if elapsed := time.Since(p.last); elapsed < interval {
			time.Sleep(interval - elapsed)
		}
	}
	p.last = time.Now()
}

// URLSet is a thread-safe set for tracking source URLs seen during a run.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Contains returns true if the URL has already been seen.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
