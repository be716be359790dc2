package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const liveWriteTimeout = time.Second

// handleLive streams the frame pulled on every tick as a binary message, one
// byte per bin. The stream ends when the client goes away.
func (s *server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	frames, unsubscribe := s.sess.Subscribe(4)
	defer unsubscribe()

	// Only control frames are expected from the client.
	ctx := conn.CloseRead(r.Context())
	s.log.Debug("live client connected", "remote", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("live client gone", "remote", r.RemoteAddr)
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
			err := conn.Write(wctx, websocket.MessageBinary, f)
			cancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) && websocket.CloseStatus(err) == -1 {
					s.log.Debug("live write failed", "error", err)
				}
				return
			}
		}
	}
}
