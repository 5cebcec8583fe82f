// Package graphics provides the windowed and headless front-ends that show
// machine frames and turn host input into controller events.
package graphics

import (
	"errors"

	"nescore/internal/input"
	"nescore/internal/ppu"
)

// Frame is one picture as produced by the PPU: 0xAARRGGBB pixels, row-major.
type Frame = [ppu.ScreenWidth * ppu.ScreenHeight]uint32

// ErrQuit is returned by an update function to end Window.Run.
var ErrQuit = errors.New("quit")

// Backend represents a graphics rendering backend
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if running in headless mode
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window
type Window interface {
	SetTitle(title string)
	GetSize() (width, height int)
	ShouldClose() bool

	// PollEvents returns the input events gathered since the last call.
	PollEvents() []InputEvent

	// RenderFrame shows a frame. The window keeps its own copy.
	RenderFrame(frame *Frame) error

	// Run calls update once per tick until update returns an error or the
	// window closes. ErrQuit ends Run without error.
	Run(update func() error) error

	Cleanup() error
}

// Config contains configuration for graphics backends
type Config struct {
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool
	Filter       string // "nearest", "linear"
	TPS          int    // ticks per second; 0 means 60

	// Keys holds ebiten key names for each player, in controller bit
	// order: A, B, Select, Start, Up, Down, Left, Right.
	Keys [2][8]string

	// Frames stops a headless window after this many frames; 0 runs until
	// update quits.
	Frames int
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Player  int          // controller port for button events
	Button  input.Button // for button events
	Hotkey  Hotkey       // for hotkey events
	Pressed bool
	X, Y    int // NES screen position for zapper events
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeButton InputEventType = iota
	InputEventTypeZapperMove
	InputEventTypeZapperTrigger
	InputEventTypeHotkey
	InputEventTypeQuit
)

// Hotkey is a front-end command bound to a function key.
type Hotkey int

const (
	HotkeyNone Hotkey = iota
	HotkeyPause
	HotkeyReset
	HotkeySaveState
	HotkeyLoadState
	HotkeyNextSlot
	HotkeyScreenshot
	HotkeyBreak
)

func (h Hotkey) String() string {
	switch h {
	case HotkeyPause:
		return "pause"
	case HotkeyReset:
		return "reset"
	case HotkeySaveState:
		return "save state"
	case HotkeyLoadState:
		return "load state"
	case HotkeyNextSlot:
		return "next slot"
	case HotkeyScreenshot:
		return "screenshot"
	case HotkeyBreak:
		return "break"
	}
	return "none"
}

// ControllerButtons lists the controller bits in Config.Keys order.
var ControllerButtons = [8]input.Button{
	input.ButtonA,
	input.ButtonB,
	input.ButtonSelect,
	input.ButtonStart,
	input.ButtonUp,
	input.ButtonDown,
	input.ButtonLeft,
	input.ButtonRight,
}

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	default:
		return NewEbitengineBackend(), nil
	}
}
