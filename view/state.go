package view

// State is the interactive view: viewport, selection marker and drag
// tracking. It is not safe for concurrent use; the owner serializes access.
type State struct {
	View      Viewport `json:"view"`
	Preferred float64  `json:"preferred"`
	Selected  int      `json:"selected"`

	dragging bool
	dragX    float64
}

// NewState returns a state showing up to width frames.
func NewState(width float64) State {
	if width < MinWidth {
		width = MinWidth
	}
	return State{View: Viewport{Width: width}, Preferred: width}
}

// PointerDown starts a drag at pixel x.
func (s *State) PointerDown(x float64) {
	s.dragging = true
	s.dragX = x
}

// PointerMove pans by the distance moved since the previous pointer event.
// It does nothing unless a drag is in progress.
func (s *State) PointerMove(x float64, canvasWidth, n int) {
	if !s.dragging {
		return
	}
	dx := x - s.dragX
	s.dragX = x
	s.View = s.View.Pan(dx, canvasWidth, n)
}

// PointerUp ends a drag.
func (s *State) PointerUp() { s.dragging = false }

// Wheel zooms according to the wheel delta. It reports whether the zoom was
// accepted.
func (s *State) Wheel(deltaY float64, n int) bool {
	v, ok := s.View.Zoom(WheelDirection(deltaY), n)
	if !ok {
		return false
	}
	s.View = v
	s.Preferred = v.Width
	return true
}

// Click moves the selection marker to the frame under x. Only modified
// clicks select; a plain click is ignored.
func (s *State) Click(x float64, canvasWidth int, modified bool) bool {
	if !modified {
		return false
	}
	s.Selected = s.View.FrameAt(x, canvasWidth)
	return true
}

// Follow fits the viewport to a growing history of n frames.
func (s *State) Follow(n int) {
	s.View = s.View.Fit(s.Preferred, n)
}

// Reset rewinds the offset and selection to the start of the history.
func (s *State) Reset() {
	s.View.Offset = 0
	s.Selected = 0
	s.dragging = false
}
