// Package app runs a machine in a window or headless, with audio output,
// save slots and battery saves.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nescore/internal/audio"
	"nescore/internal/debug"
	"nescore/internal/graphics"
	"nescore/internal/logger"
	"nescore/internal/machine"
	"nescore/internal/ppu"
)

// Options selects how an Application runs.
type Options struct {
	ConfigPath string
	Headless   bool

	// Frames stops a headless run after this many frames; 0 runs until
	// quit.
	Frames int

	// DumpDir, if set, receives a PNG of every DumpInterval-th frame.
	DumpDir      string
	DumpInterval int

	// WAVPath, if set, records all audio and writes it on Cleanup.
	WAVPath string

	// LogOutput echoes log entries as they are written.
	LogOutput io.Writer
}

// Application represents the main NES emulator application
type Application struct {
	// Core emulation components
	machine  *machine.Machine
	emulator *Emulator
	states   *StateManager
	battery  *BatteryStore
	log      *logger.Logger

	// Graphics backend
	graphicsBackend graphics.Backend
	window          graphics.Window
	frames          *graphics.FrameBuffer
	dumper          *debug.FrameDumper
	frame           graphics.Frame

	// Audio outputs; either may be nil
	player *audio.Player
	wav    *audio.WAVSink

	// Application state
	config  *Config
	options Options

	// Control flags
	running     bool
	paused      bool
	initialized bool
	headless    bool

	// Performance tracking
	frameCount          uint64
	startTime           time.Time
	lastFPSTime         time.Time
	frameCountAtLastFPS uint64
	currentFPS          float64

	// ROM management
	romPath string
	slot    int
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("Application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates a windowed application.
func NewApplication(configPath string) (*Application, error) {
	return NewApplicationWithOptions(Options{ConfigPath: configPath})
}

// NewApplicationWithMode creates a new NES emulator application with optional headless mode
func NewApplicationWithMode(configPath string, headless bool) (*Application, error) {
	return NewApplicationWithOptions(Options{ConfigPath: configPath, Headless: headless})
}

// NewApplicationWithOptions creates an application. A config file that
// cannot be loaded is reported and the defaults are used.
func NewApplicationWithOptions(opts Options) (*Application, error) {
	app := &Application{
		config:      NewConfig(),
		options:     opts,
		headless:    opts.Headless,
		log:         logger.New(logger.DefaultMaxEntries),
		startTime:   time.Now(),
		lastFPSTime: time.Now(),
	}
	app.log.SetEcho(opts.LogOutput)

	if opts.ConfigPath != "" {
		if err := app.config.LoadFromFile(opts.ConfigPath); err != nil {
			app.log.Logf(logger.Warn, "app", "could not load config from %s, using defaults: %v", opts.ConfigPath, err)
			app.config = NewConfig()
		}
	}
	app.log.SetLevel(app.config.LogLevel())

	if err := app.initializeComponents(); err != nil {
		app.Cleanup()
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}

	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	if err := app.initializeGraphicsBackend(); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	app.frames = &graphics.FrameBuffer{}
	frameSinks := frameTee{app.frames}
	if app.options.DumpDir != "" {
		app.dumper = debug.NewFrameDumper(app.options.DumpDir)
		app.dumper.SetDumpInterval(app.options.DumpInterval)
		app.dumper.SetMaxDumps(0)
		frameSinks = append(frameSinks, app.dumper)
	}

	app.battery = NewBatteryStore(app.config.Paths.BatteryRAM)

	opts := machine.Options{
		EmulateSound:       app.config.Emulation.EmulateSound,
		SampleRate:         app.config.Audio.SampleRate,
		PreferredFrameRate: app.config.Emulation.FrameRate,
		StatusSink:         logger.Tagged{Logger: app.log, Tag: "machine", Level: logger.Info},
		BatterySink:        app.battery,
		BatteryLoader:      app.battery,
		BreakSink:          app,
	}
	if len(frameSinks) == 1 {
		opts.FrameSink = app.frames
	} else {
		opts.FrameSink = frameSinks
	}
	opts.AudioSink = app.initializeAudio()

	app.machine = machine.New(opts)
	app.emulator = NewEmulator(app.machine, app.config, app.log)
	app.emulator.SetPaced(!app.headless)
	app.states = NewStateManager(app.config.Paths.SaveStates)

	app.initialized = true
	return nil
}

// initializeAudio opens the configured outputs and returns the sink to give
// the machine, or nil.
func (app *Application) initializeAudio() machine.AudioSink {
	var sinks audioTee

	if app.config.Audio.Enabled && !app.headless {
		player, err := audio.NewPlayer(app.config.Audio.SampleRate, app.config.Audio.BufferSize, app.config.Audio.Volume)
		if err != nil {
			app.log.Logf(logger.Warn, "audio", "running without sound output: %v", err)
		} else {
			app.player = player
			sinks = append(sinks, player)
		}
	}
	if app.options.WAVPath != "" {
		app.wav = audio.NewWAVSink(app.config.Audio.SampleRate)
		sinks = append(sinks, app.wav)
	}

	switch len(sinks) {
	case 0:
		return nil
	case 1:
		return sinks[0]
	}
	return sinks
}

// initializeGraphicsBackend initializes the graphics backend based on configuration
func (app *Application) initializeGraphicsBackend() error {
	backendType := graphics.BackendEbitengine
	if app.headless {
		backendType = graphics.BackendHeadless
	}

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return fmt.Errorf("failed to create graphics backend: %w", err)
	}

	graphicsConfig := graphics.Config{
		WindowTitle:  "nescore",
		WindowWidth:  app.config.Window.Width,
		WindowHeight: app.config.Window.Height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Window.VSync,
		Filter:       app.config.Window.Filter,
		TPS:          app.config.Emulation.FrameRate,
		Keys:         [2][8]string{app.config.Input.Player1Keys.Keys(), app.config.Input.Player2Keys.Keys()},
		Frames:       app.options.Frames,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return fmt.Errorf("failed to initialize graphics backend: %w", err)
		}
		app.log.Logf(logger.Warn, "app", "Ebitengine backend failed (%v), falling back to headless mode", err)
		app.headless = true
		app.graphicsBackend, err = graphics.CreateBackend(graphics.BackendHeadless)
		if err != nil {
			return fmt.Errorf("failed to create fallback headless backend: %w", err)
		}
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
		}
	}

	app.window, err = app.graphicsBackend.CreateWindow(
		graphicsConfig.WindowTitle,
		graphicsConfig.WindowWidth,
		graphicsConfig.WindowHeight,
	)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	return nil
}

// LoadROM loads a ROM file into the emulator
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	data, err := os.ReadFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "read ROM", Err: err}
	}

	if err := app.battery.Flush(); err != nil {
		app.log.Log(logger.Error, "battery", err)
	}
	if err := app.battery.SetROM(romPath); err != nil {
		app.log.Log(logger.Warn, "battery", err)
	}

	if err := app.machine.LoadROM(data); err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	app.romPath = romPath
	app.paused = false
	app.updateTitle()

	app.emulator.Reset()
	app.emulator.Start()
	return nil
}

// LoadStateFile restores a savestate written by ExportState or a slot.
func (app *Application) LoadStateFile(path string) error {
	if err := app.states.ImportState(app.machine, path); err != nil {
		return &ApplicationError{Component: "state", Operation: "import", Err: err}
	}
	app.log.Logf(logger.Info, "state", "restored %s", path)
	return nil
}

// Run starts the main application loop
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}
	if app.romPath == "" {
		return &ApplicationError{Component: "app", Operation: "run", Err: machine.ErrNoROM}
	}

	app.running = true
	app.startTime = time.Now()
	app.lastFPSTime = app.startTime
	defer func() { app.running = false }()

	if err := app.window.Run(app.update); err != nil {
		return &ApplicationError{Component: "window", Operation: "run", Err: err}
	}
	return nil
}

// update is called once per window tick.
func (app *Application) update() error {
	if err := app.processInput(); err != nil {
		return err
	}
	if err := app.emulator.Update(); err != nil {
		return err
	}
	return app.render()
}

// processInput forwards window events to the machine and handles hotkeys.
func (app *Application) processInput() error {
	for _, event := range app.window.PollEvents() {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			return graphics.ErrQuit
		case graphics.InputEventTypeButton:
			if event.Pressed {
				app.machine.ButtonDown(event.Player, event.Button)
			} else {
				app.machine.ButtonUp(event.Player, event.Button)
			}
		case graphics.InputEventTypeZapperMove:
			app.machine.ZapperMove(event.X, event.Y)
		case graphics.InputEventTypeZapperTrigger:
			if event.Pressed {
				app.machine.ZapperFireDown()
			} else {
				app.machine.ZapperFireUp()
			}
		case graphics.InputEventTypeHotkey:
			if event.Pressed {
				app.handleHotkey(event.Hotkey)
			}
		}
	}
	return nil
}

func (app *Application) handleHotkey(hotkey graphics.Hotkey) {
	app.log.Logf(logger.Debug, "input", "hotkey %s", hotkey)

	switch hotkey {
	case graphics.HotkeyPause:
		app.TogglePause()
	case graphics.HotkeyReset:
		app.Reset()
	case graphics.HotkeySaveState:
		if err := app.SaveState(app.slot); err != nil {
			app.log.Log(logger.Error, "state", err)
		}
	case graphics.HotkeyLoadState:
		if err := app.LoadState(app.slot); err != nil {
			app.log.Log(logger.Error, "state", err)
		}
	case graphics.HotkeyNextSlot:
		app.slot = (app.slot + 1) % app.states.MaxSlots()
		app.log.Logf(logger.Info, "state", "slot %d selected", app.slot)
		app.updateTitle()
	case graphics.HotkeyScreenshot:
		if path, err := app.Screenshot(); err != nil {
			app.log.Log(logger.Error, "screenshot", err)
		} else {
			app.log.Logf(logger.Info, "screenshot", "saved %s", path)
		}
	case graphics.HotkeyBreak:
		app.machine.RequestBreak()
	}
}

// OnBreak implements machine.BreakSink. A windowed run pauses at the
// breakpoint; headless runs carry on.
func (app *Application) OnBreak(midFrame bool) {
	app.log.Logf(logger.Info, "debug", "break (mid-frame: %v)", midFrame)
	if !app.headless {
		app.paused = true
		app.emulator.Stop()
		app.updateTitle()
	}
}

// render shows the newest frame if one arrived since the last tick.
func (app *Application) render() error {
	if !app.frames.Latest(&app.frame) {
		return nil
	}
	if err := app.window.RenderFrame(&app.frame); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	app.frameCount++
	app.updatePerformanceMetrics(time.Now())
	return nil
}

// updatePerformanceMetrics recomputes FPS once a second.
func (app *Application) updatePerformanceMetrics(now time.Time) {
	elapsed := now.Sub(app.lastFPSTime)
	if elapsed < time.Second {
		return
	}
	app.currentFPS = float64(app.frameCount-app.frameCountAtLastFPS) / elapsed.Seconds()
	app.frameCountAtLastFPS = app.frameCount
	app.lastFPSTime = now

	app.log.Logf(logger.Debug, "perf", "%.1f fps, %v per frame, %d dropped",
		app.currentFPS, app.emulator.GetAverageFrameTime(), app.emulator.GetDroppedFrames())
	if app.config.Debug.ShowFPS {
		app.updateTitle()
	}
}

func (app *Application) updateTitle() {
	title := "nescore"
	if app.romPath != "" {
		title += " - " + strings.TrimSuffix(filepath.Base(app.romPath), filepath.Ext(app.romPath))
	}
	title += fmt.Sprintf(" [slot %d]", app.slot)
	if app.paused {
		title += " (paused)"
	}
	if app.config.Debug.ShowFPS {
		title += fmt.Sprintf(" %.0f fps", app.currentFPS)
	}
	app.window.SetTitle(title)
}

// Stop ends Run at the next tick.
func (app *Application) Stop() {
	app.window.Cleanup()
}

// Pause stops emulation
func (app *Application) Pause() {
	app.machine.Pause()
	app.emulator.Stop()
	app.paused = true
	app.updateTitle()
}

// Resume continues after Pause or a breakpoint
func (app *Application) Resume() {
	app.machine.Resume()
	app.emulator.Start()
	app.paused = false
	app.updateTitle()
}

// TogglePause toggles between paused and running
func (app *Application) TogglePause() {
	if app.paused {
		app.Resume()
	} else {
		app.Pause()
	}
}

// SaveState saves the current state to a slot
func (app *Application) SaveState(slot int) error {
	if err := app.states.SaveState(app.machine, slot, app.romPath); err != nil {
		return &ApplicationError{Component: "state", Operation: "save", Err: err}
	}
	app.log.Logf(logger.Info, "state", "saved slot %d", slot)
	return nil
}

// LoadState loads a state from a slot
func (app *Application) LoadState(slot int) error {
	if err := app.states.LoadState(app.machine, slot, app.romPath); err != nil {
		return &ApplicationError{Component: "state", Operation: "load", Err: err}
	}
	app.log.Logf(logger.Info, "state", "loaded slot %d", slot)
	return nil
}

// Reset resets the console
func (app *Application) Reset() {
	if err := app.machine.Reset(); err != nil {
		app.log.Log(logger.Error, "app", err)
		return
	}
	app.emulator.Reset()
	if !app.paused {
		app.emulator.Start()
	}
}

// Screenshot writes the last shown frame below Paths.Screenshots.
func (app *Application) Screenshot() (string, error) {
	name := strings.TrimSuffix(filepath.Base(app.romPath), filepath.Ext(app.romPath))
	path := filepath.Join(app.config.Paths.Screenshots,
		fmt.Sprintf("%s_%s.png", name, time.Now().Format("20060102_150405.000")))
	return path, graphics.SavePNG(path, &app.frame, app.config.Window.Scale)
}

// SaveScreenshot writes the last shown frame to path at scale 1.
func (app *Application) SaveScreenshot(path string) error {
	return graphics.SavePNG(path, &app.frame, 1)
}

// Machine returns the emulated console.
func (app *Application) Machine() *machine.Machine {
	return app.machine
}

// Emulator returns the frame pacer.
func (app *Application) Emulator() *Emulator {
	return app.emulator
}

// Window returns the window frames are shown in.
func (app *Application) Window() graphics.Window {
	return app.window
}

// Logger returns the application log.
func (app *Application) Logger() *logger.Logger {
	return app.log
}

// IsRunning returns whether Run is in progress
func (app *Application) IsRunning() bool {
	return app.running
}

// IsPaused returns whether emulation is paused
func (app *Application) IsPaused() bool {
	return app.paused
}

// IsHeadless reports whether frames go to a headless window.
func (app *Application) IsHeadless() bool {
	return app.headless
}

// GetFPS returns the current frames per second
func (app *Application) GetFPS() float64 {
	return app.currentFPS
}

// GetFrameCount returns the number of frames shown
func (app *Application) GetFrameCount() uint64 {
	return app.frameCount
}

// GetUptime returns the application uptime
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// GetROMPath returns the current ROM path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// GetConfig returns the current configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// Slot returns the selected save slot
func (app *Application) Slot() int {
	return app.slot
}

// Cleanup flushes save data and releases all resources. Errors are logged
// and the first one is returned.
func (app *Application) Cleanup() error {
	var first error
	keep := func(component string, err error) {
		if err == nil {
			return
		}
		app.log.Log(logger.Error, component, err)
		if first == nil {
			first = err
		}
	}

	if app.battery != nil {
		keep("battery", app.battery.Flush())
	}
	if app.wav != nil {
		keep("audio", app.wav.Save(app.options.WAVPath))
	}
	if app.player != nil {
		keep("audio", app.player.Close())
		app.player = nil
	}
	if app.dumper != nil {
		keep("debug", app.dumper.Err())
	}
	if app.window != nil {
		keep("window", app.window.Cleanup())
	}
	if app.graphicsBackend != nil {
		keep("graphics", app.graphicsBackend.Cleanup())
	}

	app.initialized = false
	return first
}

// frameTee hands each frame to several sinks.
type frameTee []machine.FrameSink

func (t frameTee) WriteFrame(frame *[ppu.ScreenWidth * ppu.ScreenHeight]uint32) {
	for _, s := range t {
		s.WriteFrame(frame)
	}
}

// audioTee hands each sample to several sinks.
type audioTee []machine.AudioSink

func (t audioTee) WriteSample(sample float32) {
	for _, s := range t {
		s.WriteSample(sample)
	}
}
