package graphics

import (
	"errors"
	"fmt"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow runs the update function as fast as it returns and keeps
// the last frame it was shown.
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	maxFrames  int
	frameCount int
	last       Frame
	events     []InputEvent
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	return &HeadlessWindow{
		title:     title,
		width:     width,
		height:    height,
		running:   true,
		maxFrames: b.config.Frames,
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// Title returns the window title
func (w *HeadlessWindow) Title() string {
	return w.title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true once the frame limit is reached or the window
// was cleaned up.
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running || (w.maxFrames > 0 && w.frameCount >= w.maxFrames)
}

// Inject queues events for the next PollEvents, for scripted runs.
func (w *HeadlessWindow) Inject(events ...InputEvent) {
	w.events = append(w.events, events...)
}

// PollEvents returns injected events
func (w *HeadlessWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame keeps a copy of frame
func (w *HeadlessWindow) RenderFrame(frame *Frame) error {
	w.last = *frame
	w.frameCount++
	return nil
}

// Run calls update until it fails, quits, or the frame limit is reached.
func (w *HeadlessWindow) Run(update func() error) error {
	for !w.ShouldClose() {
		if err := update(); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
	}
	return nil
}

// LastFrame returns the last rendered frame
func (w *HeadlessWindow) LastFrame() *Frame {
	return &w.last
}

// FrameCount returns the number of frames rendered
func (w *HeadlessWindow) FrameCount() int {
	return w.frameCount
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}
