package session

// KeySpace is the key code that toggles playback.
const KeySpace = "Space"

func (s *Session) PointerDown(x float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PointerDown(x)
}

func (s *Session) PointerMove(x float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PointerMove(x, s.opts.Width, s.history.Len())
}

func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PointerUp()
}

// Wheel zooms in for negative deltaY and out otherwise. Out of range zooms
// are ignored and reported as false.
func (s *Session) Wheel(deltaY float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Wheel(deltaY, s.history.Len())
}

// Click selects the frame under x when ctrl is held.
func (s *Session) Click(x float64, ctrl bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Click(x, s.opts.Width, ctrl)
}

// Key handles a key press. Only Space is bound.
func (s *Session) Key(code string) error {
	if code != KeySpace {
		return nil
	}
	return s.TogglePlay()
}
