package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/town-engine/internal/cognition"
	"github.com/jwebster45206/town-engine/internal/config"
	"github.com/jwebster45206/town-engine/internal/metrics"
	"github.com/jwebster45206/town-engine/internal/rules"
	"github.com/jwebster45206/town-engine/internal/sim"
	"github.com/jwebster45206/town-engine/internal/transport/ws"
)

func testRouter(t *testing.T) (http.Handler, *sim.Engine) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tw := config.DefaultTown()

	collector := metrics.NewCollector("town")
	brain := cognition.NewGuard(&cognition.Stub{}, tw.Tuning.RateLimitCoolOff, log)
	brain.SetRecorder(collector)
	levels := rules.New(collector, rules.DefaultGoals, tw.Tuning.PlayerCooldown, log)

	engine, err := sim.New(sim.Options{Town: tw, Cognition: brain, Sink: levels, Logger: log, Seed: 7})
	require.NoError(t, err)
	levels.Bind(engine)

	hub := ws.NewHub(engine.Snapshot, log)
	t.Cleanup(hub.Close)

	return newRouter(routes{
		engine:    engine,
		levels:    levels,
		brain:     brain,
		hub:       hub,
		collector: collector,
		origins:   []string{"http://localhost:3000"},
		logger:    log,
	}), engine
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Routes(t *testing.T) {
	h, _ := testRouter(t)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/v1/town", "", http.StatusOK},
		{http.MethodGet, "/v1/level", "", http.StatusOK},
		{http.MethodPost, "/v1/npcs/ravi/summon", "", http.StatusAccepted},
		{http.MethodPost, "/v1/npcs/sync", `{"npcs":[{"id":"anya","currentAction":"reading"}]}`, http.StatusAccepted},
		{http.MethodPost, "/v1/npcs/ghost/select", "", http.StatusNotFound},
		{http.MethodPost, "/v1/chat", `{"npcId":"ravi","message":"hello"}`, http.StatusAccepted},
		{http.MethodPost, "/v1/player/intent", `{"dx":1,"dy":0}`, http.StatusNoContent},
		{http.MethodGet, "/v1/events/stream/current", "", http.StatusNotFound},
		{http.MethodGet, "/nowhere", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_MetricsUseRoutePatterns(t *testing.T) {
	h, _ := testRouter(t)

	do(h, http.MethodPost, "/v1/npcs/ravi/summon", "")
	do(h, http.MethodPost, "/v1/npcs/anya/summon", "")

	rec := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `town_http_requests_total{method="POST",route="/v1/npcs/{id}/{action}",status="202"} 2`)
	assert.NotContains(t, body, "/v1/npcs/ravi")
}

func TestRouter_CORSPreflight(t *testing.T) {
	h, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/chat", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
