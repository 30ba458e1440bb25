package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/serenissima/internal/agents"
	"github.com/talgya/serenissima/internal/engine"
	"github.com/talgya/serenissima/internal/geo"
	"github.com/talgya/serenissima/internal/graph"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	line := []geo.Coordinate{
		{Lat: 45.430, Lng: 12.330},
		{Lat: 45.431, Lng: 12.330},
	}
	g := graph.Build([][]geo.Coordinate{line})
	orch := engine.NewOrchestrator(g, nil, nil, 0, 6*60)
	require.NoError(t, orch.AddAgent(&agents.Persona{
		Name: "Bortolo Querini",
		Home: line[0],
		Shop: line[1],
		DailyRoutine: []agents.RoutineBlock{
			{StartTime: "06:00", EndTime: "22:00", Type: agents.RoutineHome},
		},
	}))
	return &Server{
		Orch:     orch,
		Eng:      engine.NewEngine(60),
		AdminKey: "secret",
	}
}

func TestHandleStatus(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Day 1 06:00", body["sim_time"])
	assert.Equal(t, "morning", body["time_of_day"])
	assert.Equal(t, "1", body["agents"])
	assert.Equal(t, 60.0, body["speed"])
}

func TestHandleAgents(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.handleAgents(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var views []AgentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Bortolo Querini", views[0].Name)
	assert.Equal(t, agents.ModeRoutine, views[0].Mode)
	assert.InDelta(t, 45.430, views[0].Position.Lat, 1e-6)
}

func TestHandleAgent(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.handleAgent(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agent/Bortolo%20Querini", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handleAgent(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agent/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDetoursWithoutJournal(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.handleDetours(rec, httptest.NewRequest(http.MethodGet, "/api/v1/detours", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSpeedAuth(t *testing.T) {
	s := testServer(t)
	handler := s.adminOnly(s.handleSpeed)

	post := func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(`{"speed": 120}`))
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, post("").Code)
	assert.Equal(t, http.StatusUnauthorized, post("Bearer wrong").Code)

	rec := post("Bearer secret")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 120.0, s.Eng.Speed)

	// GET is rejected even when authorized.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/speed", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// With no key configured the endpoint is fully disabled.
	s.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, post("Bearer secret").Code)
}

func TestHandleSpeedRejectsBadBody(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(`{"speed": -1}`))
	rec := httptest.NewRecorder()
	s.handleSpeed(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
