package ratelimit

import "net/http"

// Class groups requests that share a limit.
type Class string

const (
	// ClassRead covers lookups and redirects.
	ClassRead Class = "read"
	// ClassWrite covers requests that may create a mapping.
	ClassWrite Class = "write"
)

// ClassOf classifies a request by its HTTP method.
func ClassOf(method string) Class {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	default:
		return ClassWrite
	}
}

// Limiters holds one Limiter per request class.
type Limiters map[Class]Limiter

// For returns the limiter of class c, or Unlimited when none is configured.
func (l Limiters) For(c Class) Limiter {
	if limiter, ok := l[c]; ok && limiter != nil {
		return limiter
	}

	return Unlimited{}
}

// NewLimiters builds a sliding window limiter per class sharing one recorder.
// Classes with a non-positive limit are left unlimited.
func NewLimiters(recorder Recorder, rules map[Class]Rule) Limiters {
	limiters := make(Limiters, len(rules))

	for class, rule := range rules {
		if rule.Limit <= 0 {
			continue
		}

		limiters[class] = NewSlidingWindow(recorder, rule)
	}

	return limiters
}
