// Package api serves read-only observation endpoints over HTTP.
// GET endpoints are public; the speed control POST requires a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/serenissima/internal/agents"
	"github.com/talgya/serenissima/internal/engine"
	"github.com/talgya/serenissima/internal/geo"
	"github.com/talgya/serenissima/internal/persistence"
)

// Server exposes the simulation state.
type Server struct {
	Orch     *engine.Orchestrator
	Eng      *engine.Engine
	DB       *persistence.DB // may be nil
	Port     int
	AdminKey string // bearer token for POST endpoints; empty disables them

	started time.Time
}

// AgentView is the wire shape for one agent.
type AgentView struct {
	Name                string         `json:"name"`
	Mode                agents.Mode    `json:"mode"`
	RoutineType         string         `json:"routine_type"`
	Position            geo.Coordinate `json:"position"`
	CurrentNode         string         `json:"current_node"`
	TargetNode          string         `json:"target_node"`
	PathProgress        float64        `json:"path_progress"`
	DetoursToday        int            `json:"detours_today"`
	SpontaneousActivity string         `json:"spontaneous_activity,omitempty"`
	DetourThought       string         `json:"detour_thought,omitempty"`
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	s.started = time.Now()
	detourLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", s.handleAgent)
	mux.HandleFunc("/api/v1/detours", RateLimitMiddleware(detourLimiter, s.handleDetours))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sim := s.Orch.SimMinutes()
	writeJSON(w, map[string]any{
		"sim_time":    engine.FormatClock(sim),
		"time_of_day": engine.TimeOfDay(sim),
		"agents":      humanize.Comma(int64(s.Orch.AgentCount())),
		"speed":       s.Eng.Speed,
		"uptime":      humanize.Time(s.started),
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	states := s.Orch.States()
	views := make([]AgentView, 0, len(states))
	for _, st := range states {
		views = append(views, s.view(st))
	}
	writeJSON(w, views)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/agent/")
	st, ok := s.Orch.Snapshot(name)
	if !ok {
		http.Error(w, "unknown agent", http.StatusNotFound)
		return
	}
	writeJSON(w, s.view(st))
}

func (s *Server) handleDetours(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "journal disabled", http.StatusNotFound)
		return
	}
	events, err := s.DB.RecentDetourEvents(50)
	if err != nil {
		http.Error(w, "journal read failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Speed < 0 {
		http.Error(w, "bad speed", http.StatusBadRequest)
		return
	}
	s.Eng.Speed = body.Speed
	slog.Info("speed changed", "speed", body.Speed)
	writeJSON(w, map[string]any{"speed": body.Speed})
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled", http.StatusForbidden)
			return
		}
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) view(st *agents.State) AgentView {
	return AgentView{
		Name:                st.Persona.Name,
		Mode:                st.Mode,
		RoutineType:         string(st.CurrentRoutineType),
		Position:            s.Orch.Locate(st),
		CurrentNode:         string(st.CurrentNodeID),
		TargetNode:          string(st.TargetNodeID),
		PathProgress:        st.PathProgress,
		DetoursToday:        st.DetoursTakenToday,
		SpontaneousActivity: st.SpontaneousActivity,
		DetourThought:       st.DetourThought,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}
