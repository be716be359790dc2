// Package capture decides whether analyzer frames are retained and provides
// the audio sources that feed the analyzer.
package capture

import "sync"

// Mode is the activity that put the controller into the capturing state.
type Mode int

const (
	ModeNone Mode = iota
	ModeTone
	ModeRecording
	ModePlayback
)

func (m Mode) String() string {
	switch m {
	case ModeTone:
		return "tone"
	case ModeRecording:
		return "recording"
	case ModePlayback:
		return "playback"
	default:
		return "idle"
	}
}

// Token identifies one capture session. Zero is never issued.
type Token uint64

// Controller is the Idle/Capturing state machine. Every Begin issues a new
// token and only the holder of the current token can end the session.
type Controller struct {
	mu      sync.Mutex
	mode    Mode
	current Token
	next    Token
	onReset func()
}

// NewController returns an idle controller. onReset runs on fresh begins and
// on Reset; it may be nil.
func NewController(onReset func()) *Controller {
	return &Controller{onReset: onReset}
}

// Begin enters the capturing state for mode. A fresh begin resets the history
// and view before capturing starts.
func (c *Controller) Begin(mode Mode, fresh bool) Token {
	if fresh {
		c.reset()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.current = c.next
	c.mode = mode
	return c.current
}

// End returns to idle if tok is the current session. It reports whether the
// state changed.
func (c *Controller) End(tok Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tok == 0 || tok != c.current {
		return false
	}
	c.current = 0
	c.mode = ModeNone
	return true
}

// Reset fires the reset hook without changing the capture state.
func (c *Controller) Reset() { c.reset() }

func (c *Controller) reset() {
	if c.onReset != nil {
		c.onReset()
	}
}

func (c *Controller) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != 0
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}
