package jeebie

import (
	"github.com/valerio/go-jeebie-color/jeebie/memory"
)

const programStart = 0x150

// buildROM returns a 32KiB image with a valid header that jumps to program
// at 0x150.
func buildROM(cartType, ramSize, cgbFlag uint8, program ...uint8) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x100:], []uint8{0xC3, programStart & 0xFF, programStart >> 8}) // JP 0x150
	copy(rom[0x134:], "TESTROM")
	rom[0x143] = cgbFlag
	rom[0x147] = cartType
	rom[0x149] = ramSize
	copy(rom[programStart:], program)
	rom[0x14D] = memory.HeaderChecksum(rom)
	return rom
}

// spin is JR -2, an endless loop.
var spin = []uint8{0x18, 0xFE}

func program(code ...[]uint8) []uint8 {
	var out []uint8
	for _, c := range code {
		out = append(out, c...)
	}
	return out
}

func ldA(n uint8) []uint8  { return []uint8{0x3E, n} }
func ldhA(n uint8) []uint8 { return []uint8{0xE0, n} }

func runTicks(e *Emulator, n int) {
	for range n {
		e.Tick()
	}
}
