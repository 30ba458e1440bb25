package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEngineTicksWithFixedDelta(t *testing.T) {
	e := NewEngine(60)
	e.Interval = 5 * time.Millisecond

	var ticks atomic.Int64
	var badDelta atomic.Bool
	e.OnTick = func(deltaMs, speed float64) {
		ticks.Add(1)
		if deltaMs != 5 || speed != 60 {
			badDelta.Store(true)
		}
	}

	go e.Run()
	time.Sleep(60 * time.Millisecond)
	e.Stop()
	time.Sleep(20 * time.Millisecond)

	assert.Greater(t, ticks.Load(), int64(2))
	assert.False(t, badDelta.Load(), "delta is the configured interval, not wall time")
	assert.False(t, e.Running)
}

func TestEnginePausedAtZeroSpeed(t *testing.T) {
	e := NewEngine(0)
	e.Interval = 5 * time.Millisecond

	var ticks atomic.Int64
	e.OnTick = func(deltaMs, speed float64) { ticks.Add(1) }

	go e.Run()
	time.Sleep(30 * time.Millisecond)
	e.Stop()
	time.Sleep(150 * time.Millisecond)

	assert.Zero(t, ticks.Load())
}
