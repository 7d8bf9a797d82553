package engine

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep_Callbacks(t *testing.T) {
	e := NewEngine(4)
	e.AutosaveFrames = 6

	var frames, seconds, saves int
	var total float64
	e.OnFrame = func(_ uint64, dt float64) { frames++; total += dt }
	e.OnSecond = func(uint64) { seconds++ }
	e.OnAutosave = func(uint64) { saves++ }

	for i := 0; i < 12; i++ {
		e.Step(0.25)
	}

	assert.Equal(t, 12, frames)
	assert.Equal(t, 3, seconds)
	assert.Equal(t, 2, saves)
	assert.InDelta(t, 3.0, total, 1e-9)
	assert.Equal(t, uint64(12), e.Frame())
}

func TestNewEngine_DefaultFPS(t *testing.T) {
	e := NewEngine(0)
	assert.Equal(t, DefaultFPS, e.FPS)
	assert.Equal(t, time.Second/DefaultFPS, e.Interval)
	assert.Equal(t, 1.0, e.Speed())
}

func TestSetSpeed(t *testing.T) {
	e := NewEngine(10)
	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		e.SetSpeed(v)
		assert.Zero(t, e.Speed(), "%v", v)
	}
	e.SetSpeed(2.5)
	assert.Equal(t, 2.5, e.Speed())
}

func TestRun_StopIsIdempotent(t *testing.T) {
	e := NewEngine(1000)
	var frames atomic.Int64
	e.OnFrame = func(uint64, float64) { frames.Add(1) }

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	require.Eventually(t, func() bool { return frames.Load() > 2 }, 2*time.Second, time.Millisecond)
	assert.True(t, e.Running())
	e.Stop()
	e.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.False(t, e.Running())
}

func TestRun_PausedSkipsFrames(t *testing.T) {
	e := NewEngine(1000)
	e.SetSpeed(0)
	var frames atomic.Int64
	e.OnFrame = func(uint64, float64) { frames.Add(1) }

	go e.Run()
	time.Sleep(20 * time.Millisecond)
	e.Stop()

	assert.Zero(t, frames.Load())
}

func TestUptime(t *testing.T) {
	assert.Equal(t, "1h02m05s", Uptime(60*3725, 60))
	assert.Equal(t, "0h00m01s", Uptime(60, 0))
}
