package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/valerio/go-jeebie-color/jeebie"
	"github.com/valerio/go-jeebie-color/jeebie/backend"
	"github.com/valerio/go-jeebie-color/jeebie/debug"
	"github.com/valerio/go-jeebie-color/jeebie/input"
	"github.com/valerio/go-jeebie-color/jeebie/timing"
)

// actionHandler is implemented by backends with actions of their own.
type actionHandler interface {
	HandleAction(act input.Action)
}

// runner drives one emulator session: pacing, frontend updates, input and
// the files written at exit.
type runner struct {
	emu      *jeebie.Emulator
	rom      []byte
	backend  backend.Backend
	actions  actionHandler
	limiter  timing.Limiter
	input    *input.Manager
	recorder *debug.WAVRecorder

	savePath string
	stateOut string
	slot     []byte

	paused bool
	step   bool
	quit   bool
}

func newRunner(emu *jeebie.Emulator, rom []byte) *runner {
	r := &runner{
		emu:     emu,
		rom:     rom,
		limiter: timing.NewNoOpLimiter(),
		input:   input.NewManager(emu),
	}
	r.bindActions()
	return r
}

func (r *runner) bindActions() {
	r.input.On(input.EmulatorQuit, func() { r.quit = true })
	r.input.On(input.EmulatorPauseToggle, func() {
		r.paused = !r.paused
		r.limiter.Reset()
		slog.Info("Pause toggled", "paused", r.paused)
	})
	r.input.On(input.EmulatorStepFrame, func() { r.step = true })
	r.input.On(input.EmulatorSnapshot, r.snapshot)
	r.input.On(input.EmulatorSaveState, r.saveSlot)
	r.input.On(input.EmulatorLoadState, r.loadSlot)
	r.input.On(input.EmulatorReset, r.reset)
	r.input.On(input.EmulatorDebugToggle, func() {
		if r.actions != nil {
			r.actions.HandleAction(input.EmulatorDebugToggle)
		}
	})

	toggles := []input.Action{input.AudioToggleChannel1, input.AudioToggleChannel2, input.AudioToggleChannel3, input.AudioToggleChannel4}
	solos := []input.Action{input.AudioSoloChannel1, input.AudioSoloChannel2, input.AudioSoloChannel3, input.AudioSoloChannel4}
	for i := range toggles {
		channel := i + 1
		r.input.On(toggles[i], func() {
			r.emu.APU().ToggleChannel(channel)
			slog.Info("Audio channel toggled", "channel", channel)
		})
		r.input.On(solos[i], func() {
			r.emu.APU().SoloChannel(channel)
			slog.Info("Audio channel solo", "channel", channel)
		})
	}
	r.input.On(input.AudioUnmuteAll, func() { r.emu.APU().UnmuteAll() })
}

// run loops until the backend or the user asks to quit, then writes the
// battery save, the state file and the WAV trailer.
func (r *runner) run(cfg backend.Config) (err error) {
	if err := r.backend.Init(cfg); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, r.shutdown())
	}()

	if r.recorder != nil {
		r.emu.OnAudio(func(samples []int16) {
			if err := r.recorder.Write(samples); err != nil {
				slog.Error("Failed to record audio", "error", err)
			}
		})
	}

	for !r.quit {
		r.limiter.WaitForNextFrame()

		if !r.paused || r.step {
			r.emu.RunUntilFrame()
			r.step = false
		}

		events, err := r.backend.Update(r.emu.GetCurrentFrame())
		if err != nil {
			return err
		}
		r.input.TriggerAll(events)
	}
	return nil
}

func (r *runner) shutdown() error {
	errs := []error{r.backend.Cleanup()}

	if r.recorder != nil {
		errs = append(errs, r.recorder.Close())
		slog.Info("Audio recorded", "frames", r.recorder.Frames())
	}
	errs = append(errs, r.writeBattery())
	if r.stateOut != "" {
		errs = append(errs, r.writeState(r.stateOut))
	}
	return errors.Join(errs...)
}

// loadBattery imports the battery file. A missing file is a fresh save.
func (r *runner) loadBattery() error {
	if r.savePath == "" {
		return nil
	}

	data, err := os.ReadFile(r.savePath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("No battery save yet", "path", r.savePath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read battery save: %w", err)
	}
	return r.emu.ImportSave(data)
}

func (r *runner) writeBattery() error {
	if r.savePath == "" {
		return nil
	}
	data := r.emu.ExportSave()
	if data == nil {
		return nil
	}
	if err := os.WriteFile(r.savePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write battery save: %w", err)
	}
	slog.Info("Battery save written", "path", r.savePath, "bytes", len(data))
	return nil
}

func (r *runner) loadStateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read save state: %w", err)
	}
	if err := r.emu.SetState(data); err != nil {
		return fmt.Errorf("failed to restore save state %s: %w", path, err)
	}
	slog.Info("Save state restored", "path", path)
	return nil
}

func (r *runner) writeState(path string) error {
	if err := os.WriteFile(path, r.emu.GetState(), 0644); err != nil {
		return fmt.Errorf("failed to write save state: %w", err)
	}
	slog.Info("Save state written", "path", path)
	return nil
}

// saveSlot keeps a state in memory, and on disk when --state-out is set.
func (r *runner) saveSlot() {
	r.slot = r.emu.GetState()
	if r.stateOut != "" {
		if err := r.writeState(r.stateOut); err != nil {
			slog.Error("Failed to save state", "error", err)
		}
		return
	}
	slog.Info("State saved", "bytes", len(r.slot))
}

func (r *runner) loadSlot() {
	if r.slot == nil {
		slog.Warn("No saved state to load")
		return
	}
	if err := r.emu.SetState(r.slot); err != nil {
		slog.Error("Failed to load state", "error", err)
		return
	}
	slog.Info("State loaded")
}

// reset restarts the cartridge and keeps its battery RAM.
func (r *runner) reset() {
	save := r.emu.ExportSave()
	if err := r.emu.LoadCartridge(r.rom); err != nil {
		slog.Error("Failed to reset", "error", err)
		return
	}
	if save != nil {
		if err := r.emu.ImportSave(save); err != nil {
			slog.Error("Failed to restore battery RAM after reset", "error", err)
		}
	}
	slog.Info("Emulator reset")
}

func (r *runner) snapshot() {
	name := "jeebie_snapshot_" + time.Now().Format("20060102_150405")
	if _, err := debug.SaveFramePNGToDir(r.emu.GetCurrentFrame(), name, ""); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
	}
}
