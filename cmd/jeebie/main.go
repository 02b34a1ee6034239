package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/valerio/go-jeebie-color/jeebie"
	"github.com/valerio/go-jeebie-color/jeebie/backend"
	"github.com/valerio/go-jeebie-color/jeebie/backend/headless"
	"github.com/valerio/go-jeebie-color/jeebie/backend/terminal"
	"github.com/valerio/go-jeebie-color/jeebie/debug"
	"github.com/valerio/go-jeebie-color/jeebie/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "Jeebie"
	app.Description = "A Game Boy Color emulator"
	app.Usage = "jeebie [options] <ROM file>"
	app.Version = "2.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a user interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save PNG snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save snapshots (default: temp directory)",
		},
		cli.StringFlag{
			Name:  "wav",
			Usage: "Record the audio output to this WAV file",
		},
		cli.StringFlag{
			Name:  "save",
			Usage: "Battery save file, loaded at start and written at exit",
		},
		cli.StringFlag{
			Name:  "state-in",
			Usage: "Save state to restore after loading the ROM",
		},
		cli.StringFlag{
			Name:  "state-out",
			Usage: "Write a save state here at exit (also the F5/F7 slot)",
		},
		cli.StringFlag{
			Name:  "boot-rom",
			Usage: "Optional DMG (256 B) or CGB (2304 B) boot ROM",
		},
		cli.BoolFlag{
			Name:  "dmg",
			Usage: "Run color-compatible cartridges in monochrome mode",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging and the debug panel",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func setupLogging(debugEnabled bool) {
	level := slog.LevelInfo
	if debugEnabled {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runEmulator(c *cli.Context) error {
	setupLogging(c.Bool("debug"))

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() == 0 {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
		romPath = c.Args().Get(0)
	}

	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	var opts []jeebie.Option
	if path := c.String("boot-rom"); path != "" {
		boot, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read boot ROM: %w", err)
		}
		opts = append(opts, jeebie.WithBootROM(boot))
	}
	if c.Bool("dmg") {
		opts = append(opts, jeebie.WithForceDMG())
	}

	emu := jeebie.New(opts...)
	if err := emu.LoadCartridge(rom); err != nil {
		return err
	}

	r := newRunner(emu, rom)
	r.savePath = c.String("save")
	r.stateOut = c.String("state-out")

	if err := r.loadBattery(); err != nil {
		return err
	}
	if path := c.String("state-in"); path != "" {
		if err := r.loadStateFile(path); err != nil {
			return err
		}
	}

	if path := c.String("wav"); path != "" {
		rec, err := debug.NewWAVRecorder(path, emu.APU().SampleRate())
		if err != nil {
			return err
		}
		r.recorder = rec
	}

	title := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	cfg := backend.Config{
		Title:     title,
		ShowDebug: c.Bool("debug"),
		Debug:     debugView{emu},
	}

	if c.Bool("headless") {
		snapshots, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath)
		if err != nil {
			return err
		}
		r.backend = headless.New(c.Int("frames"), snapshots)
		r.limiter = timing.NewNoOpLimiter()
	} else {
		term := terminal.New()
		r.backend = term
		r.actions = term
		r.limiter = timing.NewAdaptiveLimiter()
	}

	return r.run(cfg)
}

// debugView feeds the terminal debug panel.
type debugView struct {
	emu *jeebie.Emulator
}

func (d debugView) CPUState() debug.CPUState { return debug.CaptureCPU(d.emu.CPU()) }

func (d debugView) Channels() [4]debug.ChannelState { return debug.CaptureChannels(d.emu.APU()) }

func (d debugView) Disassembly(count int) []string {
	return debug.Disassembly(d.emu.Bus(), d.emu.CPU().GetPC(), count)
}
