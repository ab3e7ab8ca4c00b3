package main

import (
	"sync"
	"time"
)

// msecTime returns the current wall-clock time in epoch milliseconds.
func msecTime() int64 {
	return time.Now().UnixMilli()
}

// Timestamper hands out unique, strictly increasing epoch-millisecond
// timestamps. A single instance is shared by every store backend, so
// last_modified values form one total order across all owners and resource
// types.
//
// When the wall clock has not advanced past the previously issued value
// (sub-millisecond call rates), the cursor is bumped by one instead of
// repeating; once the clock catches up, its value is adopted directly.
type Timestamper struct {
	mu   sync.Mutex
	last int64
}

// NewTimestamper creates a Timestamper starting from the current wall clock.
func NewTimestamper() *Timestamper {
	return &Timestamper{}
}

// Now returns the next timestamp. Safe for concurrent use: no two callers
// ever observe the same value, and values never decrease.
func (t *Timestamper) Now() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	current := msecTime()
	if current <= t.last {
		current = t.last + 1
	}
	t.last = current
	return current
}
