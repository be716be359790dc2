package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tasmanvs/MusicMaker/db"
	"github.com/tasmanvs/MusicMaker/observe"
	"github.com/tasmanvs/MusicMaker/render"
	"github.com/tasmanvs/MusicMaker/session"
	"github.com/tasmanvs/MusicMaker/wav"
)

const maxUploadSize = 32 << 20

// server exposes a session over HTTP.
type server struct {
	sess    *session.Session
	log     *slog.Logger
	metrics http.Handler
}

func (a *app) serve(ctx context.Context) error {
	sess, cleanup, err := a.newSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &server{sess: sess, log: a.log, metrics: a.metricsHandler}
	httpSrv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           observe.Middleware(a.metrics, a.log)(srv.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.Run(gctx, render.NewVsync(int(a.cfg.View.RefreshHz)))
	})
	g.Go(func() error {
		green.Printf("HTTP server started on %s\n", a.cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("POST /api/input", s.handleInput)
	mux.HandleFunc("POST /api/tone", s.handleTone)
	mux.HandleFunc("POST /api/record/start", s.handleRecordStart)
	mux.HandleFunc("POST /api/record/stop", s.handleRecordStop)
	mux.HandleFunc("POST /api/play", s.handlePlay)
	mux.HandleFunc("GET /api/spectrogram.png", s.handleSnapshot)
	mux.HandleFunc("GET /api/sounds", s.handleListSounds)
	mux.HandleFunc("POST /api/sounds", s.handleSaveSound)
	mux.HandleFunc("POST /api/sounds/{idx}/load", s.handleLoadSound)
	mux.HandleFunc("POST /api/upload-audio", s.handleUpload)
	mux.HandleFunc("GET /api/export.wav", s.handleExport)
	mux.HandleFunc("GET /api/live", s.handleLive)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps session and store errors onto status codes.
func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, db.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrNoClip),
		errors.Is(err, session.ErrNotCapture), errors.Is(err, session.ErrStaleDecode):
		status = http.StatusConflict
	case errors.Is(err, db.ErrEmptyName), errors.Is(err, wav.ErrEmpty), errors.Is(err, wav.ErrUnsupported):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.ViewState())
}

// inputEvent is one pointer, wheel, click or key event from the client.
type inputEvent struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	DeltaY float64 `json:"delta_y"`
	Ctrl   bool    `json:"ctrl"`
	Code   string  `json:"code"`
}

func (s *server) handleInput(w http.ResponseWriter, r *http.Request) {
	var ev inputEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, fmt.Sprintf("Error parsing event: %v", err), http.StatusBadRequest)
		return
	}

	accepted := true
	switch ev.Type {
	case "pointerdown":
		s.sess.PointerDown(ev.X)
	case "pointermove":
		s.sess.PointerMove(ev.X)
	case "pointerup":
		s.sess.PointerUp()
	case "wheel":
		accepted = s.sess.Wheel(ev.DeltaY)
	case "click":
		accepted = s.sess.Click(ev.X, ev.Ctrl)
	case "key":
		if err := s.sess.Key(ev.Code); err != nil {
			s.writeError(w, err)
			return
		}
	default:
		http.Error(w, fmt.Sprintf("unknown event type %q", ev.Type), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accepted": accepted, "state": s.sess.ViewState()})
}

func (s *server) action(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.sess.ViewState())
	}
}

func (s *server) handleTone(w http.ResponseWriter, r *http.Request) {
	s.action(s.sess.PlayTone)(w, r)
}

func (s *server) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	s.action(s.sess.StartRecording)(w, r)
}

func (s *server) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	s.action(s.sess.StopRecording)(w, r)
}

func (s *server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.action(s.sess.TogglePlay)(w, r)
}

func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.sess.Snapshot(w); err != nil {
		s.log.Warn("snapshot failed", "error", err)
	}
}

// soundEntry is a saved sound without its payload.
type soundEntry struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

func (s *server) handleListSounds(w http.ResponseWriter, r *http.Request) {
	sounds, err := s.sess.Saved(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	entries := make([]soundEntry, 0, len(sounds))
	for i, snd := range sounds {
		entries = append(entries, soundEntry{Index: i, Name: snd.Name})
	}
	writeJSON(w, http.StatusOK, entries)
}

type saveRequest struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (s *server) handleSaveSound(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Error parsing request: %v", err), http.StatusBadRequest)
		return
	}
	trim := s.sess.Trim(req.Start, req.End)
	if err := s.sess.Save(r.Context(), req.Name, trim); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": req.Name, "trim": trim})
}

func (s *server) handleLoadSound(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		http.Error(w, "invalid sound index", http.StatusBadRequest)
		return
	}
	if err := s.sess.Load(r.Context(), idx); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.ViewState())
}

// handleUpload loads an uploaded audio file (multipart field "audio") as the
// current clip.
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, fmt.Sprintf("Error parsing form: %v", err), http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, fmt.Sprintf("Error getting file: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		http.Error(w, fmt.Sprintf("Error reading file: %v", err), http.StatusBadRequest)
		return
	}
	if err := s.sess.LoadData(r.Context(), data); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.ViewState())
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	trim := s.sess.Trim(q.Get("start"), q.Get("end"))
	data, err := s.sess.Export(trim)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", `attachment; filename="recording.wav"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
