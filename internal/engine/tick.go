// Package engine provides the frame loop that drives a game session.
// The loop measures real elapsed time between frames, scales it by the
// simulation speed and hands it to the session as game seconds.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFPS is the nominal frame rate.
const DefaultFPS = 60

// Engine drives the game forward.
type Engine struct {
	FPS      int           // frames per second; OnSecond fires every FPS frames
	Interval time.Duration // wall time between frames

	// AutosaveFrames is the number of frames between OnAutosave calls.
	// Zero disables autosave.
	AutosaveFrames uint64

	// Callbacks for each layer, populated during setup.
	OnFrame    func(frame uint64, dt float64) // every frame, dt in game seconds
	OnSecond   func(frame uint64)             // every FPS frames
	OnAutosave func(frame uint64)             // every AutosaveFrames frames

	frame   atomic.Uint64
	speed   atomic.Uint64 // float64 bits
	running atomic.Bool

	stopOnce sync.Once
	stop     chan struct{}
}

// NewEngine creates an engine running at fps frames per second, real time.
func NewEngine(fps int) *Engine {
	if fps <= 0 {
		fps = DefaultFPS
	}
	e := &Engine{
		FPS:      fps,
		Interval: time.Second / time.Duration(fps),
		stop:     make(chan struct{}),
	}
	e.SetSpeed(1)
	return e
}

// Frame returns the number of frames stepped so far.
func (e *Engine) Frame() uint64 { return e.frame.Load() }

// SetFrame sets the frame counter, used when resuming.
func (e *Engine) SetFrame(f uint64) { e.frame.Store(f) }

// Speed returns the simulation speed multiplier: 1 is real time, 0 is paused.
func (e *Engine) Speed() float64 { return math.Float64frombits(e.speed.Load()) }

// SetSpeed changes the simulation speed. Negative and non-finite values
// pause the game.
func (e *Engine) SetSpeed(v float64) {
	if !(v >= 0) || math.IsInf(v, 0) {
		v = 0
	}
	e.speed.Store(math.Float64bits(v))
}

// Running reports whether Run is active.
func (e *Engine) Running() bool { return e.running.Load() }

// Run starts the frame loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("game engine started", "frame", e.Frame(), "fps", e.FPS, "speed", e.Speed())

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-e.stop:
			slog.Info("game engine stopped", "frame", e.Frame())
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			speed := e.Speed()
			if speed <= 0 {
				continue
			}
			e.Step(elapsed * speed)
		}
	}
}

// Stop halts the frame loop. It is safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// Step advances the game by one frame of dt game seconds.
func (e *Engine) Step(dt float64) {
	frame := e.frame.Add(1)

	if e.OnFrame != nil {
		e.OnFrame(frame, dt)
	}
	if e.FPS > 0 && frame%uint64(e.FPS) == 0 && e.OnSecond != nil {
		e.OnSecond(frame)
	}
	if e.AutosaveFrames > 0 && frame%e.AutosaveFrames == 0 && e.OnAutosave != nil {
		e.OnAutosave(frame)
	}
}

// Uptime renders a frame count as elapsed game time at fps.
func Uptime(frame uint64, fps int) string {
	if fps <= 0 {
		fps = DefaultFPS
	}
	secs := frame / uint64(fps)
	return fmt.Sprintf("%dh%02dm%02ds", secs/3600, secs/60%60, secs%60)
}
