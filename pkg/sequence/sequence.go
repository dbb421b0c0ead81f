// Package sequence provides a monotonically increasing counter for key allocation.
package sequence

import "go.uber.org/atomic"

// Sequence hands out strictly increasing int64 values. Values are never reused.
type Sequence struct {
	last atomic.Int64
}

// New returns a Sequence whose first Next call yields start.
func New(start int64) *Sequence {
	s := &Sequence{}
	s.last.Store(start - 1)
	return s
}

// Next allocates the next value.
func (s *Sequence) Next() int64 {
	return s.last.Inc()
}

// Last returns the most recently allocated value, or start-1 if none was allocated yet.
func (s *Sequence) Last() int64 {
	return s.last.Load()
}
