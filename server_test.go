package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/tasmanvs/MusicMaker/db"
	"github.com/tasmanvs/MusicMaker/observe"
	"github.com/tasmanvs/MusicMaker/session"
	"github.com/tasmanvs/MusicMaker/types"
	"github.com/tasmanvs/MusicMaker/wav"
)

func testClip(seconds float64) *types.AudioClip {
	const sr = 8000
	data := make([]float32, int(seconds*sr))
	for i := range data {
		data[i] = float32(i%50)/50 - 0.5
	}
	return &types.AudioClip{SampleRate: sr, Channels: 1, Data: [][]float32{data}}
}

func newTestServer(t *testing.T) (*httptest.Server, *session.Session) {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sess, err := session.New(session.Options{
		Width:         100,
		Height:        64,
		DefaultFrames: 200,
		SampleRate:    8000,
		ToneDuration:  20 * time.Millisecond,
		Store:         db.NewMemoryStore(),
		Metrics:       metrics,
		Logger:        log,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	srv := &server{
		sess:    sess,
		log:     log,
		metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "# metrics\n") }),
	}
	ts := httptest.NewServer(observe.Middleware(metrics, log)(srv.routes()))
	t.Cleanup(ts.Close)
	return ts, sess
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func upload(t *testing.T, url string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "clip.wav")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/api/upload-audio", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestViewEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/view")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var vs session.ViewState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&vs))
	assert.Equal(t, 100, vs.Width)
	assert.Equal(t, "idle", vs.Mode)
	assert.Equal(t, "windowed", string(vs.Strategy))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestInputEvents(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/input", inputEvent{Type: "wheel", DeltaY: -1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Accepted bool              `json:"accepted"`
		State    session.ViewState `json:"state"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Accepted, "zoom on an empty history is rejected")

	resp = postJSON(t, ts.URL+"/api/input", inputEvent{Type: "click", X: 10})
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Accepted, "plain click does not select")

	resp = postJSON(t, ts.URL+"/api/input", inputEvent{Type: "key", Code: "Space"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "nothing to play")

	resp = postJSON(t, ts.URL+"/api/input", inputEvent{Type: "teleport"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportWithoutClip(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/export.wav")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUploadExportSaveLoad(t *testing.T) {
	ts, sess := newTestServer(t)

	resp := upload(t, ts.URL, wav.Encode(testClip(1), 0, 1))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, sess.ViewState().Duration)

	exp, err := http.Get(ts.URL + "/api/export.wav?start=0.5&end=bogus")
	require.NoError(t, err)
	defer exp.Body.Close()
	require.Equal(t, http.StatusOK, exp.StatusCode)
	assert.Equal(t, "audio/wav", exp.Header.Get("Content-Type"))
	body, err := io.ReadAll(exp.Body)
	require.NoError(t, err)
	assert.Len(t, body, wav.HeaderSize+4000*2, "bogus end falls back to the clip end")

	resp = postJSON(t, ts.URL+"/api/sounds", saveRequest{Name: "half", Start: "0", End: "0.5"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = postJSON(t, ts.URL+"/api/sounds", saveRequest{Name: "", Start: "0", End: "0.5"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	list, err := http.Get(ts.URL + "/api/sounds")
	require.NoError(t, err)
	defer list.Body.Close()
	var entries []soundEntry
	require.NoError(t, json.NewDecoder(list.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, soundEntry{Index: 0, Name: "half"}, entries[0])

	resp = postJSON(t, ts.URL+"/api/sounds/0/load", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0.5, sess.ViewState().Duration)

	resp = postJSON(t, ts.URL+"/api/sounds/7/load", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = postJSON(t, ts.URL+"/api/sounds/x/load", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsGarbage(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := upload(t, ts.URL, []byte{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestToneAndRecordStopConflict(t *testing.T) {
	ts, sess := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/tone", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, sess.ViewState().Capturing)

	resp = postJSON(t, ts.URL+"/api/record/stop", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSnapshotEndpoint(t *testing.T) {
	ts, sess := newTestServer(t)
	sess.Tick()
	resp, err := http.Get(ts.URL + "/api/spectrogram.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestMetricsRoute(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "# metrics\n", string(body))
}

func TestLiveStream(t *testing.T) {
	ts, sess := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/api/live", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	// Tick until the subscription is registered and a frame arrives.
	go func() {
		for ctx.Err() == nil {
			sess.Tick()
			time.Sleep(10 * time.Millisecond)
		}
	}()

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageBinary, typ)
	assert.Len(t, data, 256)
	conn.Close(websocket.StatusNormalClosure, "")
}
