package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bryanchriswhite/focusbridge/internal/status"
	"github.com/bryanchriswhite/focusbridge/internal/window"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, NewServer(status.NewTracker()).Handler(), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	tracker := status.NewTracker()
	tracker.SnapshotReplaced(4)
	tracker.ForegroundSet(window.Record{ID: 7}, 1234)

	rec := get(t, NewServer(tracker).Handler(), "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got status.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 4, got.Windows)
	assert.Equal(t, uint64(1), got.Notifications)
	require.NotNil(t, got.Foreground)
	assert.Equal(t, uint32(1234), got.Foreground.PID)
}

func TestForeground(t *testing.T) {
	tracker := status.NewTracker()
	h := NewServer(tracker).Handler()

	rec := get(t, h, "/api/foreground")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	tracker.ForegroundSet(window.Record{ID: 3}, 300)
	rec = get(t, h, "/api/foreground")
	require.Equal(t, http.StatusOK, rec.Code)

	var got status.Foreground
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(3), got.WindowID)
	assert.Equal(t, uint32(300), got.PID)
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewServer(status.NewTracker()).Handler()

	for _, path := range []string{"/api/health", "/api/status", "/api/foreground"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "POST %s", path)
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := get(t, NewServer(status.NewTracker()).Handler(), "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForegroundStream(t *testing.T) {
	tracker := status.NewTracker()
	tracker.ForegroundSet(window.Record{ID: 1}, 100)

	srv := httptest.NewServer(NewServer(tracker).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/foreground/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first status.Foreground
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, uint32(100), first.PID)

	// The handler subscribes before sending the initial value, so this update
	// cannot be missed.
	tracker.ForegroundSet(window.Record{ID: 2}, 200)

	var next status.Foreground
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, uint32(200), next.PID)
}
