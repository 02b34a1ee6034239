package debug

import (
	"fmt"

	"github.com/valerio/go-jeebie-color/jeebie/audio"
	"github.com/valerio/go-jeebie-color/jeebie/cpu"
)

// CPUState is a copy of the register file for display.
type CPUState struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16
	Cycles                 uint64
	IME                    bool
	Halted                 bool
	Stopped                bool
	DoubleSpeed            bool
	Flags                  string
}

// CaptureCPU reads the registers of c.
func CaptureCPU(c *cpu.CPU) CPUState {
	return CPUState{
		A: c.GetA(), F: c.GetF(), B: c.GetB(), C: c.GetC(),
		D: c.GetD(), E: c.GetE(), H: c.GetH(), L: c.GetL(),
		SP:          c.GetSP(),
		PC:          c.GetPC(),
		Cycles:      c.GetCycles(),
		IME:         c.GetIME(),
		Halted:      c.IsHalted(),
		Stopped:     c.IsStopped(),
		DoubleSpeed: c.DoubleSpeed(),
		Flags:       c.GetFlagString(),
	}
}

// Lines formats the registers one pair per line.
func (s CPUState) Lines() []string {
	mode := "run"
	switch {
	case s.Stopped:
		mode = "stop"
	case s.Halted:
		mode = "halt"
	}
	speed := "1x"
	if s.DoubleSpeed {
		speed = "2x"
	}

	return []string{
		fmt.Sprintf("AF %02X%02X  %s", s.A, s.F, s.Flags),
		fmt.Sprintf("BC %02X%02X", s.B, s.C),
		fmt.Sprintf("DE %02X%02X", s.D, s.E),
		fmt.Sprintf("HL %02X%02X", s.H, s.L),
		fmt.Sprintf("SP %04X", s.SP),
		fmt.Sprintf("PC %04X", s.PC),
		fmt.Sprintf("IME %t %s %s", s.IME, mode, speed),
		fmt.Sprintf("cycles %d", s.Cycles),
	}
}

// ChannelState is the playback state of one APU channel.
type ChannelState struct {
	Enabled bool
	Volume  uint8
}

// CaptureChannels reads the four channels of a.
func CaptureChannels(a *audio.APU) [4]ChannelState {
	e1, e2, e3, e4 := a.GetChannelStatus()
	v1, v2, v3, v4 := a.GetChannelVolumes()
	return [4]ChannelState{{e1, v1}, {e2, v2}, {e3, v3}, {e4, v4}}
}

// Disassembly decodes count instructions starting at pc.
func Disassembly(bus cpu.Bus, pc uint16, count int) []string {
	lines := make([]string, 0, count)
	for range count {
		text, length := cpu.Disassemble(bus, pc)
		lines = append(lines, fmt.Sprintf("%04X  %s", pc, text))
		pc += uint16(length)
	}
	return lines
}
