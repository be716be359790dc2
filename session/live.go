package session

import "github.com/tasmanvs/MusicMaker/frames"

// Subscribe returns a channel receiving the frame pulled on each tick.
// Slow subscribers miss frames. Call cancel to unsubscribe.
func (s *Session) Subscribe(buffer int) (<-chan frames.Frame, func()) {
	ch := make(chan frames.Frame, max(buffer, 1))
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Session) publish(f frames.Frame) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- f:
		default:
		}
	}
}
