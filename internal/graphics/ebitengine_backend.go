//go:build !headless

package graphics

import (
	"errors"
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"nescore/internal/ppu"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	title   string
	width   int
	height  int
	game    *EbitengineGame
	running bool
	events  []InputEvent
}

// EbitengineGame implements ebiten.Game for the NES emulator
type EbitengineGame struct {
	window *EbitengineWindow
	update func() error

	frameImage *ebiten.Image
	pixels     []uint8
	filter     ebiten.Filter

	keys    [2][8]ebiten.Key
	hotkeys map[ebiten.Key]Hotkey

	windowWidth  int
	windowHeight int
	lastCursorX  int
	lastCursorY  int
	drawCount    int
}

// defaultHotkeys binds the front-end commands.
var defaultHotkeys = map[ebiten.Key]Hotkey{
	ebiten.KeyF1:  HotkeyPause,
	ebiten.KeyF2:  HotkeyReset,
	ebiten.KeyF5:  HotkeySaveState,
	ebiten.KeyF7:  HotkeyNextSlot,
	ebiten.KeyF9:  HotkeyLoadState,
	ebiten.KeyF10: HotkeyBreak,
	ebiten.KeyF12: HotkeyScreenshot,
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	var keys [2][8]ebiten.Key
	for player := range keys {
		k, err := ParseKeys(b.config.Keys[player])
		if err != nil {
			return nil, fmt.Errorf("player %d keys: %w", player+1, err)
		}
		keys[player] = k
	}

	game := &EbitengineGame{
		frameImage:   ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight),
		pixels:       make([]uint8, ppu.ScreenWidth*ppu.ScreenHeight*4),
		keys:         keys,
		hotkeys:      defaultHotkeys,
		windowWidth:  width,
		windowHeight: height,
		lastCursorX:  -1,
		lastCursorY:  -1,
	}
	if b.config.Filter == "linear" {
		game.filter = ebiten.FilterLinear
	}

	window := &EbitengineWindow{
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}
	game.window = window

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	ebiten.SetFullscreen(b.config.Fullscreen)
	if b.config.TPS > 0 {
		ebiten.SetTPS(b.config.TPS)
	}

	return window, nil
}

// ParseKeys resolves ebiten key names such as "J", "Enter" or "ArrowUp".
func ParseKeys(names [8]string) ([8]ebiten.Key, error) {
	var keys [8]ebiten.Key
	for i, name := range names {
		if err := keys[i].UnmarshalText([]byte(name)); err != nil {
			return keys, fmt.Errorf("button %d: %w", i, err)
		}
	}
	return keys, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false
func (b *EbitengineBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns the events gathered by the last tick
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame uploads a NES frame to the window texture
func (w *EbitengineWindow) RenderFrame(frame *Frame) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	fillRGBA(w.game.pixels, frame)
	w.game.frameImage.WritePixels(w.game.pixels)
	return nil
}

// Run starts the Ebitengine game loop. It returns when update fails or
// the window is closed.
func (w *EbitengineWindow) Run(update func() error) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	w.game.update = update
	err := ebiten.RunGame(w.game)
	w.running = false
	if errors.Is(err, ErrQuit) || errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	if !g.window.running {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.window.events = append(g.window.events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
	}
	g.processInput()

	if g.update == nil {
		return nil
	}
	if err := g.update(); err != nil {
		if errors.Is(err, ErrQuit) {
			return ebiten.Termination
		}
		log.Printf("[Ebitengine] Emulator update error: %v", err)
		return err
	}
	return nil
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{A: 255})

	scale, offsetX, offsetY := g.placement()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	op.Filter = g.filter
	screen.DrawImage(g.frameImage, op)

	g.drawCount++
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// placement fits the NES picture into the window keeping its aspect ratio.
func (g *EbitengineGame) placement() (scale, offsetX, offsetY float64) {
	scaleX := float64(g.windowWidth) / ppu.ScreenWidth
	scaleY := float64(g.windowHeight) / ppu.ScreenHeight
	scale = min(scaleX, scaleY)
	if scale <= 0 {
		scale = 1
	}
	offsetX = (float64(g.windowWidth) - ppu.ScreenWidth*scale) / 2
	offsetY = (float64(g.windowHeight) - ppu.ScreenHeight*scale) / 2
	return scale, offsetX, offsetY
}

// screenToNES maps a window position to NES pixels; off-picture positions
// come back out of range.
func (g *EbitengineGame) screenToNES(x, y int) (int, int) {
	scale, offsetX, offsetY := g.placement()
	nx := int((float64(x) - offsetX) / scale)
	ny := int((float64(y) - offsetY) / scale)
	if float64(x) < offsetX {
		nx = -1
	}
	if float64(y) < offsetY {
		ny = -1
	}
	return nx, ny
}

// processInput turns key and mouse changes into InputEvents
func (g *EbitengineGame) processInput() {
	var events []InputEvent

	for player, keys := range g.keys {
		for i, key := range keys {
			switch {
			case inpututil.IsKeyJustPressed(key):
				events = append(events, InputEvent{Type: InputEventTypeButton, Player: player, Button: ControllerButtons[i], Pressed: true})
			case inpututil.IsKeyJustReleased(key):
				events = append(events, InputEvent{Type: InputEventTypeButton, Player: player, Button: ControllerButtons[i], Pressed: false})
			}
		}
	}

	for key, hotkey := range g.hotkeys {
		if inpututil.IsKeyJustPressed(key) {
			events = append(events, InputEvent{Type: InputEventTypeHotkey, Hotkey: hotkey, Pressed: true})
		}
	}

	// The mouse is the light gun.
	cx, cy := ebiten.CursorPosition()
	if cx != g.lastCursorX || cy != g.lastCursorY {
		g.lastCursorX, g.lastCursorY = cx, cy
		x, y := g.screenToNES(cx, cy)
		events = append(events, InputEvent{Type: InputEventTypeZapperMove, X: x, Y: y})
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		events = append(events, InputEvent{Type: InputEventTypeZapperTrigger, Pressed: true})
	} else if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		events = append(events, InputEvent{Type: InputEventTypeZapperTrigger, Pressed: false})
	}

	g.window.events = append(g.window.events, events...)
}
