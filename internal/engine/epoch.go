package engine

import "sync/atomic"

// Epoch is a monotonically increasing generation counter used to discard
// stale asynchronous results. A workflow captures the current generation when
// it starts; resumptions compare their captured value against the live one
// and drop the result on mismatch. Optimistic-concurrency discard, not a lock.
type Epoch struct {
	n atomic.Uint64
}

// Bump invalidates all in-flight work and returns the new generation.
func (e *Epoch) Bump() uint64 {
	return e.n.Add(1)
}

// Current returns the live generation.
func (e *Epoch) Current() uint64 {
	return e.n.Load()
}

// Valid reports whether a captured generation is still live.
func (e *Epoch) Valid(gen uint64) bool {
	return e.n.Load() == gen
}
