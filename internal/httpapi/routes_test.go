package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/hub"
	"github.com/DoyleJ11/dinedecide/internal/ws"
)

func newRouter(t *testing.T) (http.Handler, *hub.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	log := zap.NewNop()
	h := hub.NewHub(ctx, log)
	return SetupRoutes(h, ws.Options{PeerBuffer: 4}, log), h
}

func TestHealthz(t *testing.T) {
	r, _ := newRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStats_EmptyRelay(t *testing.T) {
	r, _ := newRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st hub.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, hub.Stats{}, st)
}

func TestStats_HubGone(t *testing.T) {
	r, h := newRouter(t)
	require.True(t, h.Send(hub.ShutdownHub{}))

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
		return rec.Code == http.StatusServiceUnavailable
	}, 5*time.Second, 50*time.Millisecond)
}
