// Package frames holds the frequency-domain snapshots captured during a
// session.
package frames

import "sync"

// Frame is one snapshot of byte magnitudes, one per frequency bin.
type Frame []uint8

// Clone returns an independent copy of f.
func (f Frame) Clone() Frame {
	if f == nil {
		return nil
	}
	out := make(Frame, len(f))
	copy(out, f)
	return out
}

// History is an append-only sequence of frames. Index 0 is the oldest frame.
// One goroutine may append while others read.
type History struct {
	mu     sync.RWMutex
	frames []Frame
}

// NewHistory returns an empty history with room for capacity frames.
func NewHistory(capacity int) *History {
	if capacity < 0 {
		capacity = 0
	}
	return &History{frames: make([]Frame, 0, capacity)}
}

// Append stores a copy of f at the end of the history.
func (h *History) Append(f Frame) {
	c := f.Clone()
	h.mu.Lock()
	h.frames = append(h.frames, c)
	h.mu.Unlock()
}

// Reset drops every frame.
func (h *History) Reset() {
	h.mu.Lock()
	h.frames = nil
	h.mu.Unlock()
}

// Get returns the frame at index i. The second result is false when i is out
// of range. The returned frame is shared with the history and must not be
// modified; use Clone for a private copy.
func (h *History) Get(i int) (Frame, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i < 0 || i >= len(h.frames) {
		return nil, false
	}
	return h.frames[i], true
}

// Len returns the number of stored frames.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.frames)
}
