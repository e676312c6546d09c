package entities

import "sync"

// Transcript holds the in-progress partial result and the ordered final segments
type Transcript struct {
	mu      sync.RWMutex
	partial string
	finals  []string
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{finals: make([]string, 0)}
}

// SetPartial replaces the current partial result
func (t *Transcript) SetPartial(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partial = text
}

// AppendFinal appends a finished segment and retires the partial it supersedes
func (t *Transcript) AppendFinal(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finals = append(t.finals, text)
	t.partial = ""
}

// Partial returns the current partial result
func (t *Transcript) Partial() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.partial
}

// Finals returns a copy of the final segments in arrival order
func (t *Transcript) Finals() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.finals))
	copy(out, t.finals)
	return out
}

// Reset clears both the partial and the finals
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partial = ""
	t.finals = make([]string, 0)
}
