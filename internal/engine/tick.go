// The real-time tick loop driving the simulation.
package engine

import (
	"log/slog"
	"time"
)

// Engine drives the movement tick loop. Each tick hands the orchestrator a
// fixed delta (the configured interval, not measured wall time, so the
// integration stays deterministic) while sleep compensation keeps the loop
// close to real time.
type Engine struct {
	Speed    float64       // simulated minutes per real second; 0 pauses
	Interval time.Duration // tick interval; tens of milliseconds for smooth motion
	Running  bool

	// OnTick runs every tick with the tick's real-time delta in milliseconds
	// and the current speed.
	OnTick func(deltaMs, speed float64)
}

// NewEngine creates an engine with the default 50ms tick.
func NewEngine(speed float64) *Engine {
	return &Engine{
		Speed:    speed,
		Interval: 50 * time.Millisecond,
	}
}

// Run starts the tick loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("engine started", "interval", e.Interval, "speed", e.Speed)

	deltaMs := float64(e.Interval) / float64(time.Millisecond)
	for e.Running {
		if e.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		if e.OnTick != nil {
			e.OnTick(deltaMs, e.Speed)
		}

		if elapsed := time.Since(start); elapsed < e.Interval {
			time.Sleep(e.Interval - elapsed)
		}
	}

	slog.Info("engine stopped")
}

// Stop halts the tick loop after the current tick.
func (e *Engine) Stop() {
	e.Running = false
}
