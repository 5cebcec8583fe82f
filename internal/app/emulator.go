package app

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"nescore/internal/logger"
	"nescore/internal/machine"
)

// maxCatchUpFrames bounds how many frames one Update may run after a stall.
const maxCatchUpFrames = 3

// Emulator drives a Machine at the configured frame rate.
type Emulator struct {
	machine *machine.Machine
	config  *Config
	log     *logger.Logger

	// Timing control
	lastUpdateTime  time.Time
	accumulatedTime time.Duration
	targetFrameTime time.Duration
	paced           bool

	// Performance monitoring
	frameCount       uint64
	droppedFrames    uint64
	emulationTime    time.Duration
	averageFrameTime time.Duration
	timingBuffer     *CircularTimingBuffer

	// State tracking
	isRunning     bool
	breakHit      bool
	lastResetTime time.Time

	now func() time.Time
}

// NewEmulator creates an emulator for m. It is paced against the wall
// clock until SetPaced(false).
func NewEmulator(m *machine.Machine, config *Config, log *logger.Logger) *Emulator {
	e := &Emulator{
		machine:      m,
		config:       config,
		log:          log,
		paced:        true,
		timingBuffer: NewCircularTimingBuffer(300), // 5 seconds at 60 FPS
		now:          time.Now,
	}
	e.SetTargetFrameRate(config.Emulation.FrameRate)
	e.Reset()
	return e
}

// Reset clears timing and counters.
func (e *Emulator) Reset() {
	e.lastUpdateTime = e.now()
	e.lastResetTime = e.lastUpdateTime
	e.accumulatedTime = 0
	e.frameCount = 0
	e.droppedFrames = 0
	e.emulationTime = 0
	e.averageFrameTime = 0
	e.breakHit = false
	e.timingBuffer.Reset()
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
	e.lastUpdateTime = e.now()
	e.accumulatedTime = 0
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// IsRunning returns whether the emulator is running
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// SetPaced selects wall-clock pacing. Unpaced, every Update runs exactly
// one frame.
func (e *Emulator) SetPaced(paced bool) {
	e.paced = paced
	e.lastUpdateTime = e.now()
	e.accumulatedTime = 0
}

// Update runs the frames owed since the last call. After a stall it runs
// at most maxCatchUpFrames and drops the rest.
func (e *Emulator) Update() error {
	if !e.isRunning {
		return nil
	}
	if !e.paced {
		return e.StepFrame()
	}

	now := e.now()
	e.accumulatedTime += now.Sub(e.lastUpdateTime)
	e.lastUpdateTime = now

	if e.machine.State() == machine.Paused {
		e.accumulatedTime = 0
		return nil
	}

	for ran := 0; e.accumulatedTime >= e.targetFrameTime; ran++ {
		if ran == maxCatchUpFrames {
			e.handleFrameDrop()
			break
		}
		if err := e.StepFrame(); err != nil {
			return err
		}
		e.accumulatedTime -= e.targetFrameTime
		if e.breakHit {
			e.accumulatedTime = 0
			break
		}
	}
	return nil
}

func (e *Emulator) handleFrameDrop() {
	dropped := uint64(e.accumulatedTime / e.targetFrameTime)
	e.droppedFrames += dropped
	e.accumulatedTime = 0
	e.log.Logf(logger.Debug, "emulator", "behind by %d frames, dropping", dropped)
}

// StepFrame runs one call of Machine.Frame. A paused machine is left alone.
func (e *Emulator) StepFrame() error {
	start := e.now()
	result, err := e.machine.Frame()
	switch {
	case errors.Is(err, machine.ErrPaused):
		return nil
	case err != nil:
		return fmt.Errorf("frame %d: %w", e.frameCount, err)
	}

	e.emulationTime = e.now().Sub(start)
	e.timingBuffer.Add(e.emulationTime)
	e.updatePerformanceMetrics()

	e.breakHit = result.Break
	if result.Break {
		e.log.Logf(logger.Info, "emulator", "break during frame %d", e.machine.FrameCount())
		return nil
	}
	e.frameCount++
	return nil
}

// RunFrames completes n frames as fast as possible. Breakpoints are run
// through; a paused machine returns ErrPaused.
func (e *Emulator) RunFrames(n int) error {
	target := e.frameCount + uint64(n)
	for e.frameCount < target {
		if e.machine.State() == machine.Paused {
			return machine.ErrPaused
		}
		if err := e.StepFrame(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emulator) updatePerformanceMetrics() {
	if e.averageFrameTime == 0 {
		e.averageFrameTime = e.emulationTime
		return
	}
	e.averageFrameTime = time.Duration(
		float64(e.averageFrameTime)*0.95 + float64(e.emulationTime)*0.05,
	)
}

// BreakHit reports whether the last frame stopped at a breakpoint.
func (e *Emulator) BreakHit() bool {
	return e.breakHit
}

// GetFrameCount returns the number of frames completed since Reset
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetDroppedFrames returns the number of frames skipped to catch up
func (e *Emulator) GetDroppedFrames() uint64 {
	return e.droppedFrames
}

// GetEmulationTime returns the time spent in emulation for the last frame
func (e *Emulator) GetEmulationTime() time.Duration {
	return e.emulationTime
}

// GetAverageFrameTime returns the smoothed emulation time per frame
func (e *Emulator) GetAverageFrameTime() time.Duration {
	return e.averageFrameTime
}

// GetFrameTimeJitter returns the standard deviation of recent frame times
func (e *Emulator) GetFrameTimeJitter() time.Duration {
	return time.Duration(math.Sqrt(float64(e.timingBuffer.GetVariance())))
}

// GetTargetFrameTime returns the wall-clock time per frame
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// GetEmulationSpeed returns how many times faster than real time the
// machine could run, as a percentage.
func (e *Emulator) GetEmulationSpeed() float64 {
	if e.averageFrameTime == 0 {
		return 0.0
	}
	return float64(e.targetFrameTime) / float64(e.averageFrameTime) * 100.0
}

// GetUptime returns the emulator uptime since last reset
func (e *Emulator) GetUptime() time.Duration {
	return e.now().Sub(e.lastResetTime)
}

// SetTargetFrameRate sets the target frame rate
func (e *Emulator) SetTargetFrameRate(fps int) {
	if fps > 0 {
		e.targetFrameTime = time.Second / time.Duration(fps)
	}
}

// CircularTimingBuffer keeps the last capacity durations.
type CircularTimingBuffer struct {
	mu       sync.RWMutex
	buffer   []time.Duration
	capacity int
	index    int
	size     int
}

// NewCircularTimingBuffer creates a new circular timing buffer
func NewCircularTimingBuffer(capacity int) *CircularTimingBuffer {
	return &CircularTimingBuffer{
		buffer:   make([]time.Duration, capacity),
		capacity: capacity,
	}
}

// Add adds a timing measurement to the buffer
func (ctb *CircularTimingBuffer) Add(duration time.Duration) {
	ctb.mu.Lock()
	defer ctb.mu.Unlock()

	ctb.buffer[ctb.index] = duration
	ctb.index = (ctb.index + 1) % ctb.capacity

	if ctb.size < ctb.capacity {
		ctb.size++
	}
}

// Len returns the number of stored durations
func (ctb *CircularTimingBuffer) Len() int {
	ctb.mu.RLock()
	defer ctb.mu.RUnlock()
	return ctb.size
}

// GetAverage calculates the average of stored durations
func (ctb *CircularTimingBuffer) GetAverage() time.Duration {
	ctb.mu.RLock()
	defer ctb.mu.RUnlock()
	return ctb.average()
}

func (ctb *CircularTimingBuffer) average() time.Duration {
	if ctb.size == 0 {
		return 0
	}

	var total time.Duration
	for i := 0; i < ctb.size; i++ {
		total += ctb.buffer[i]
	}
	return total / time.Duration(ctb.size)
}

// GetVariance calculates the variance of stored durations, in ns².
func (ctb *CircularTimingBuffer) GetVariance() time.Duration {
	ctb.mu.RLock()
	defer ctb.mu.RUnlock()

	if ctb.size < 2 {
		return 0
	}

	avg := ctb.average()
	var variance int64
	for i := 0; i < ctb.size; i++ {
		diff := int64(ctb.buffer[i] - avg)
		variance += diff * diff
	}
	return time.Duration(variance / int64(ctb.size))
}

// Reset clears the buffer
func (ctb *CircularTimingBuffer) Reset() {
	ctb.mu.Lock()
	defer ctb.mu.Unlock()
	ctb.index = 0
	ctb.size = 0
}
