package ratelimit

import (
	"context"
	"time"
)

// Recorder counts requests per key over a sliding window.
type Recorder interface {
	// Record adds a request for key and returns how many requests key made
	// within the last window, this one included.
	Record(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Rule caps a key at Limit requests per Window.
type Rule struct {
	Limit  int64
	Window time.Duration
}

// PerMinute is a Rule allowing limit requests per minute.
func PerMinute(limit int64) Rule {
	return Rule{Limit: limit, Window: time.Minute}
}

// Decision is the outcome of one check. Limit is zero when the key is not limited.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// SlidingWindow enforces a Rule using a Recorder.
type SlidingWindow struct {
	recorder Recorder
	rule     Rule
}

func NewSlidingWindow(recorder Recorder, rule Rule) *SlidingWindow {
	return &SlidingWindow{recorder: recorder, rule: rule}
}

// Allow records the request even when it is denied, so a client that keeps
// retrying stays limited.
func (w *SlidingWindow) Allow(ctx context.Context, key string) (Decision, error) {
	count, err := w.recorder.Record(ctx, key, w.rule.Window)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:   count <= w.rule.Limit,
		Limit:     w.rule.Limit,
		Remaining: max(w.rule.Limit-count, 0),
	}, nil
}

// Unlimited allows every request.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}
