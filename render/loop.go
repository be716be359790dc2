package render

import (
	"bufio"
	"context"
	"image"
	"image/png"
	"io"
	"time"
)

// Vsync delivers display refresh ticks.
type Vsync interface {
	C() <-chan time.Time
	Stop()
}

type tickerVsync struct{ t *time.Ticker }

// NewVsync returns a refresh source firing hz times per second.
func NewVsync(hz int) Vsync {
	if hz <= 0 {
		hz = 60
	}
	return tickerVsync{t: time.NewTicker(time.Second / time.Duration(hz))}
}

func (v tickerVsync) C() <-chan time.Time { return v.t.C }
func (v tickerVsync) Stop()               { v.t.Stop() }

// Loop calls frame on every refresh until ctx is done. It stops vs before
// returning ctx.Err().
func Loop(ctx context.Context, vs Vsync, frame func()) error {
	defer vs.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-vs.C():
			frame()
		}
	}
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	bw := bufio.NewWriter(w)
	if err := png.Encode(bw, img); err != nil {
		return err
	}
	return bw.Flush()
}
