// Package main implements the nescore NES emulator executable.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nescore/internal/app"
	"nescore/internal/cartridge"
	"nescore/internal/debug"
	"nescore/internal/graphics"
	"nescore/internal/version"
)

// headlessFrames is the run length of a headless session without -frames.
const headlessFrames = 120

var errUsage = errors.New("usage")

type flags struct {
	rom          string
	config       string
	headless     bool
	frames       int
	screenshot   string
	dumpDir      string
	dumpInterval int
	wav          string
	state        string
	statsview    bool
	memviz       string
	histogram    bool
	version      bool
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.rom, "rom", "", "Path to NES ROM file")
	flag.StringVar(&f.config, "config", "", "Path to configuration file (default "+app.DefaultConfigPath()+")")
	flag.BoolVar(&f.headless, "headless", false, "Run without a window")
	flag.IntVar(&f.frames, "frames", 0, fmt.Sprintf("Stop a headless run after this many frames (default %d)", headlessFrames))
	flag.StringVar(&f.screenshot, "screenshot", "", "Write the last frame to this PNG file on exit")
	flag.StringVar(&f.dumpDir, "dump", "", "Write every Nth frame as PNG into this directory")
	flag.IntVar(&f.dumpInterval, "dump-interval", 60, "Frames between dumps")
	flag.StringVar(&f.wav, "wav", "", "Record audio to this WAV file")
	flag.StringVar(&f.state, "state", "", "Restore this savestate after loading the ROM")
	flag.BoolVar(&f.statsview, "statsview", false, "Serve the runtime statistics dashboard")
	flag.StringVar(&f.memviz, "memviz", "", "Write a graphviz dump of the final machine state to this file")
	flag.BoolVar(&f.histogram, "histogram", false, "Print the colour histogram of the last frame")
	flag.BoolVar(&f.version, "version", false, "Show version information")
	flag.Usage = printUsage
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	if f.version {
		version.Get().Write(os.Stdout, supportedMappers())
		return
	}

	if err := run(f); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "nescore: %v\n", err)
		os.Exit(1)
	}
}

func run(f *flags) (err error) {
	if f.rom == "" {
		return errUsage
	}

	configPath := f.config
	if configPath == "" {
		configPath = app.DefaultConfigPath()
	}

	frames := f.frames
	if f.headless && frames <= 0 {
		frames = headlessFrames
	}

	application, err := app.NewApplicationWithOptions(app.Options{
		ConfigPath:   configPath,
		Headless:     f.headless,
		Frames:       frames,
		DumpDir:      f.dumpDir,
		DumpInterval: f.dumpInterval,
		WAVPath:      f.wav,
		LogOutput:    os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if cerr := application.Cleanup(); cerr != nil && err == nil {
			err = fmt.Errorf("cleanup: %w", cerr)
		}
	}()

	setupGracefulShutdown(application)

	config := application.GetConfig()
	if f.statsview || config.Debug.Statsview {
		debug.LaunchStatsview(config.Debug.StatsviewAddr, os.Stdout)
	}

	if err := application.LoadROM(f.rom); err != nil {
		return err
	}
	if f.state != "" {
		if err := application.LoadStateFile(f.state); err != nil {
			return err
		}
	}

	if !application.IsHeadless() {
		w, h := config.WindowResolution()
		fmt.Printf("Window: %dx%d (scale %dx), audio %s at %d Hz\n",
			w, h, config.Window.Scale, enabledString(config.Audio.Enabled), config.Audio.SampleRate)
	}

	if err := application.Run(); err != nil {
		return err
	}

	if f.screenshot != "" {
		if err := application.SaveScreenshot(f.screenshot); err != nil {
			return fmt.Errorf("screenshot: %w", err)
		}
	}
	if f.histogram {
		if hw, ok := application.Window().(*graphics.HeadlessWindow); ok {
			debug.WriteHistogram(os.Stdout, hw.LastFrame())
		}
	}
	if f.memviz != "" {
		if err := writeMemviz(application, f.memviz); err != nil {
			return fmt.Errorf("memviz: %w", err)
		}
	}

	fmt.Printf("Frames rendered: %d\n", application.GetFrameCount())
	fmt.Printf("Session time: %v\n", application.GetUptime())
	if !application.IsHeadless() {
		fmt.Printf("Average FPS: %.1f\n", application.GetFPS())
	}
	return nil
}

func writeMemviz(application *app.Application, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := debug.DumpState(out, application.Machine()); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// setupGracefulShutdown stops the run loop on SIGINT or SIGTERM so that
// battery RAM and recordings are flushed.
func setupGracefulShutdown(application *app.Application) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintln(os.Stderr, "\nInterrupt received, shutting down...")
		application.Stop()
	}()
}

func supportedMappers() []string {
	var names []string
	for _, id := range cartridge.SupportedIDs() {
		names = append(names, fmt.Sprintf("%s (%d)", cartridge.MapperName(id), id))
	}
	return names
}

// enabledString returns "enabled" or "disabled" based on boolean value
func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "nescore - NES emulator")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "USAGE:")
	fmt.Fprintln(out, "  nescore -rom <file> [options]")
	fmt.Fprintln(out, "  nescore -headless -rom <file> -frames 600 -screenshot out.png")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "OPTIONS:")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "CONTROLS (default):")
	fmt.Fprintln(out, "  Player 1: WASD d-pad, J = A, K = B, Enter = Start, Space = Select")
	fmt.Fprintln(out, "  Player 2: arrow keys, N = A, M = B, right Shift = Start, right Ctrl = Select")
	fmt.Fprintln(out, "  Mouse: zapper on port 2")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "HOTKEYS:")
	fmt.Fprintln(out, "  F1 pause   F2 reset   F5 save state   F7 next slot   F9 load state")
	fmt.Fprintln(out, "  F10 break  F12 screenshot   Esc quit")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "MAPPERS: %v\n", supportedMappers())
}
