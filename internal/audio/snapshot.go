package audio

import "sync/atomic"

// Snapshot is a single-slot, last-write-wins mailbox holding the most recent
// raw capture buffer for visualization. Writers never block; readers may see
// a buffer that is replaced immediately after they load it.
type Snapshot struct {
	latest atomic.Pointer[[]float32]
}

// NewSnapshot creates an empty mailbox
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Store publishes a private copy of samples, replacing the previous buffer
func (s *Snapshot) Store(samples []float32) {
	cp := make([]float32, len(samples))
	copy(cp, samples)
	s.latest.Store(&cp)
}

// Load returns the latest buffer. Callers must treat it as read-only.
func (s *Snapshot) Load() []float32 {
	p := s.latest.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Reset empties the mailbox
func (s *Snapshot) Reset() {
	s.latest.Store(nil)
}
