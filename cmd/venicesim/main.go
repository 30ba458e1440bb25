// Command venicesim runs the 1740 Venice pedestrian simulation: agents with
// daily routines walking the street graph, with spontaneous detours chosen
// by an external decision service.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/serenissima/internal/agents"
	"github.com/talgya/serenissima/internal/api"
	"github.com/talgya/serenissima/internal/catalog"
	"github.com/talgya/serenissima/internal/config"
	"github.com/talgya/serenissima/internal/detour"
	"github.com/talgya/serenissima/internal/engine"
	"github.com/talgya/serenissima/internal/graph"
	"github.com/talgya/serenissima/internal/llm"
	"github.com/talgya/serenissima/internal/persistence"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file path")
	logLevel := flag.String("log.level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "bad log level %q\n", *logLevel)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	// ── Street graph ──────────────────────────────────────────────────
	lines, err := catalog.LoadLineLayers(cfg.Data.StreetLayers...)
	if err != nil {
		slog.Error("line layers load failed", "error", err)
		os.Exit(1)
	}
	g := graph.Build(lines)
	slog.Info("street graph built", "nodes", g.NodeCount(), "edges", g.EdgeCount())

	// ── Catalogs ──────────────────────────────────────────────────────
	var evaluator *detour.Evaluator
	if cfg.Data.POIs != "" {
		pois, err := catalog.LoadPOIs(cfg.Data.POIs)
		if err != nil {
			slog.Error("POI catalog load failed", "error", err)
			os.Exit(1)
		}
		evaluator = detour.NewEvaluator(g, pois, cfg.DetourConfig())
	}

	personas, err := catalog.LoadPersonas(cfg.Data.Personas)
	if err != nil {
		slog.Error("persona roster load failed", "error", err)
		os.Exit(1)
	}
	if cfg.Sim.MaxAgents > 0 && len(personas) > cfg.Sim.MaxAgents {
		personas = personas[:cfg.Sim.MaxAgents]
	}

	// ── Decision service ──────────────────────────────────────────────
	decider := llm.NewClient(
		cfg.Decision.URL,
		time.Duration(cfg.Decision.TimeoutSeconds)*time.Second,
		cfg.Decision.MaxPerMinute,
	)
	if decider.Enabled() {
		slog.Info("decision service enabled", "url", cfg.Decision.URL)
	} else {
		slog.Warn("decision service not configured, agents keep strictly to their routines")
	}

	// ── Journal ───────────────────────────────────────────────────────
	var journal *persistence.DB
	if cfg.Journal.Path != "" {
		journal, err = persistence.Open(cfg.Journal.Path)
		if err != nil {
			slog.Error("journal open failed", "error", err)
			os.Exit(1)
		}
		defer journal.Close()
		slog.Info("journal opened", "path", cfg.Journal.Path)
	}

	// ── Orchestrator ──────────────────────────────────────────────────
	startMinutes, err := agents.ParseClock(cfg.Sim.StartClock)
	if err != nil {
		slog.Error("bad start clock", "error", err)
		os.Exit(1)
	}
	var deciderIface engine.Decider
	if decider.Enabled() {
		deciderIface = decider
	}
	orch := engine.NewOrchestrator(g, evaluator, deciderIface,
		time.Duration(cfg.Decision.TimeoutSeconds)*time.Second, float64(startMinutes))
	if journal != nil {
		orch.OnDetourEvent = func(ev engine.DetourEvent) {
			err := journal.AppendDetourEvent(persistence.DetourRecord{
				SimMinutes:   ev.SimMinutes,
				Agent:        ev.Agent,
				ChoiceID:     ev.ChoiceID,
				Category:     ev.Category,
				Label:        ev.Label,
				Thought:      ev.Thought,
				DwellMinutes: ev.DwellMinutes,
			})
			if err != nil {
				slog.Warn("journal append failed", "error", err)
			}
		}
	}

	for _, p := range personas {
		if err := orch.AddAgent(p); err != nil {
			slog.Warn("agent not added", "agent", p.Name, "error", err)
		}
	}
	slog.Info("agents ready", "count", orch.AgentCount(), "start", engine.FormatClock(orch.SimMinutes()))

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(cfg.Sim.Speed)
	eng.Interval = time.Duration(cfg.Sim.TickIntervalMs) * time.Millisecond

	var lastSnapshot float64
	eng.OnTick = func(deltaMs, speed float64) {
		orch.Tick(deltaMs, speed)
		if journal == nil {
			return
		}
		now := orch.SimMinutes()
		if now-lastSnapshot >= cfg.Journal.SnapshotMinutes {
			lastSnapshot = now
			saveSnapshot(journal, orch, now)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.Port > 0 {
		server := &api.Server{
			Orch:     orch,
			Eng:      eng,
			DB:       journal,
			Port:     cfg.API.Port,
			AdminKey: os.Getenv("VENICESIM_ADMIN_KEY"),
		}
		server.Start()
	}

	// ── Run until signalled ───────────────────────────────────────────
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		slog.Info("shutting down")
		eng.Stop()
	}()

	eng.Run()
}

func saveSnapshot(journal *persistence.DB, orch *engine.Orchestrator, now float64) {
	states := orch.States()
	records := make([]persistence.AgentRecord, 0, len(states))
	for _, st := range states {
		pos := orch.Locate(st)
		records = append(records, persistence.AgentRecord{
			Name:          st.Persona.Name,
			Mode:          string(st.Mode),
			RoutineType:   string(st.CurrentRoutineType),
			CurrentNode:   string(st.CurrentNodeID),
			TargetNode:    string(st.TargetNodeID),
			Lat:           pos.Lat,
			Lng:           pos.Lng,
			PathProgress:  st.PathProgress,
			DetoursToday:  st.DetoursTakenToday,
			UpdatedMinute: now,
		})
	}
	if err := journal.SaveAgents(records); err != nil {
		slog.Warn("snapshot save failed", "error", err)
		return
	}
	slog.Debug("snapshot saved", "agents", len(records), "time", engine.FormatClock(now))
}
