package store

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is how many Record calls pass between sweeps of idle keys.
const sweepEvery = 1024

type requestLog struct {
	times  []time.Time
	window time.Duration
}

// newest returns the latest request time; the log is never empty.
func (l *requestLog) newest() time.Time {
	return l.times[len(l.times)-1]
}

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Recorder,
// local to one server instance.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	logs    map[string]*requestLog
	now     func() time.Time
	records int
}

func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return NewRateLimitMemoryStoreWithClock(time.Now)
}

// NewRateLimitMemoryStoreWithClock reads the current time from now.
func NewRateLimitMemoryStoreWithClock(now func() time.Time) *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		logs: make(map[string]*requestLog),
		now:  now,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	log, ok := s.logs[key]
	if !ok {
		log = &requestLog{}
		s.logs[key] = log
	}

	// Times are appended in order, so expired ones form a prefix.
	cutoff := now.Add(-window)
	expired := 0

	for expired < len(log.times) && !log.times[expired].After(cutoff) {
		expired++
	}

	log.times = append(log.times[expired:], now)
	log.window = window

	s.records++
	if s.records%sweepEvery == 0 {
		s.sweep(now)
	}

	return int64(len(log.times)), nil
}

// Keys returns how many clients currently have a request log.
func (s *RateLimitMemoryStore) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.logs)
}

// sweep drops the logs of keys idle for longer than their window.
func (s *RateLimitMemoryStore) sweep(now time.Time) {
	for key, log := range s.logs {
		if now.Sub(log.newest()) > log.window {
			delete(s.logs, key)
		}
	}
}
