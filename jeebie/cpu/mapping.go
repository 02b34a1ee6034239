package cpu

import (
	"fmt"
	"strings"

	"github.com/valerio/go-jeebie-color/jeebie/bit"
)

var opcodeNames = [256]string{
	"NOP", "LD BC, nn", "LD (BC), A", "INC BC", "INC B", "DEC B", "LD B, n", "RLCA", "LD (nn), SP", "ADD HL, BC", "LD A, (BC)", "DEC BC", "INC C", "DEC C", "LD C, n", "RRCA",
	"STOP", "LD DE, nn", "LD (DE), A", "INC DE", "INC D", "DEC D", "LD D, n", "RLA", "JR n", "ADD HL, DE", "LD A, (DE)", "DEC DE", "INC E", "DEC E", "LD E, n", "RRA",
	"JR NZ, n", "LD HL, nn", "LD (HL+), A", "INC HL", "INC H", "DEC H", "LD H, n", "DAA", "JR Z, n", "ADD HL, HL", "LD A, (HL+)", "DEC HL", "INC L", "DEC L", "LD L, n", "CPL",
	"JR NC, n", "LD SP, nn", "LD (HL-), A", "INC SP", "INC (HL)", "DEC (HL)", "LD (HL), n", "SCF", "JR C, n", "ADD HL, SP", "LD A, (HL-)", "DEC SP", "INC A", "DEC A", "LD A, n", "CCF",
	"LD B, B", "LD B, C", "LD B, D", "LD B, E", "LD B, H", "LD B, L", "LD B, (HL)", "LD B, A", "LD C, B", "LD C, C", "LD C, D", "LD C, E", "LD C, H", "LD C, L", "LD C, (HL)", "LD C, A",
	"LD D, B", "LD D, C", "LD D, D", "LD D, E", "LD D, H", "LD D, L", "LD D, (HL)", "LD D, A", "LD E, B", "LD E, C", "LD E, D", "LD E, E", "LD E, H", "LD E, L", "LD E, (HL)", "LD E, A",
	"LD H, B", "LD H, C", "LD H, D", "LD H, E", "LD H, H", "LD H, L", "LD H, (HL)", "LD H, A", "LD L, B", "LD L, C", "LD L, D", "LD L, E", "LD L, H", "LD L, L", "LD L, (HL)", "LD L, A",
	"LD (HL), B", "LD (HL), C", "LD (HL), D", "LD (HL), E", "LD (HL), H", "LD (HL), L", "HALT", "LD (HL), A", "LD A, B", "LD A, C", "LD A, D", "LD A, E", "LD A, H", "LD A, L", "LD A, (HL)", "LD A, A",
	"ADD A, B", "ADD A, C", "ADD A, D", "ADD A, E", "ADD A, H", "ADD A, L", "ADD A, (HL)", "ADD A, A", "ADC A, B", "ADC A, C", "ADC A, D", "ADC A, E", "ADC A, H", "ADC A, L", "ADC A, (HL)", "ADC A, A",
	"SUB B", "SUB C", "SUB D", "SUB E", "SUB H", "SUB L", "SUB (HL)", "SUB A", "SBC A, B", "SBC A, C", "SBC A, D", "SBC A, E", "SBC A, H", "SBC A, L", "SBC A, (HL)", "SBC A, A",
	"AND B", "AND C", "AND D", "AND E", "AND H", "AND L", "AND (HL)", "AND A", "XOR B", "XOR C", "XOR D", "XOR E", "XOR H", "XOR L", "XOR (HL)", "XOR A",
	"OR B", "OR C", "OR D", "OR E", "OR H", "OR L", "OR (HL)", "OR A", "CP B", "CP C", "CP D", "CP E", "CP H", "CP L", "CP (HL)", "CP A",
	"RET NZ", "POP BC", "JP NZ, nn", "JP nn", "CALL NZ, nn", "PUSH BC", "ADD A, n", "RST 0x00", "RET Z", "RET", "JP Z, nn", "PREFIX CB", "CALL Z, nn", "CALL nn", "ADC A, n", "RST 0x08",
	"RET NC", "POP DE", "JP NC, nn", "0xD3 - Illegal", "CALL NC, nn", "PUSH DE", "SUB n", "RST 0x10", "RET C", "RETI", "JP C, nn", "0xDB - Illegal", "CALL C, nn", "0xDD - Illegal", "SBC A, n", "RST 0x18",
	"LDH (n), A", "POP HL", "LD (C), A", "0xE3 - Illegal", "0xE4 - Illegal", "PUSH HL", "AND n", "RST 0x20", "ADD SP, n", "JP HL", "LD (nn), A", "0xEB - Illegal", "0xEC - Illegal", "0xED - Illegal", "XOR n", "RST 0x28",
	"LDH A, (n)", "POP AF", "LD A, (C)", "DI", "0xF4 - Illegal", "PUSH AF", "OR n", "RST 0x30", "LD HL, SP+n", "LD SP, HL", "LD A, (nn)", "EI", "0xFC - Illegal", "0xFD - Illegal", "CP n", "RST 0x38",
}

// operandLength returns how many immediate bytes follow the primary opcode.
func operandLength(code uint8) int {
	name := opcodeNames[code]
	switch {
	case strings.Contains(name, "nn"):
		return 2
	case strings.HasSuffix(name, " n"), strings.Contains(name, "(n)"), strings.Contains(name, "SP+n"), code == 0x10:
		return 1
	}
	return 0
}

// Disassemble decodes the instruction at pc without side effects and
// returns its mnemonic with immediates filled in and its length in bytes.
func Disassemble(bus Bus, pc uint16) (string, int) {
	code := bus.Read(pc)
	if code == 0xCB {
		return opcodeNamesCB[bus.Read(pc+1)], 2
	}

	name := opcodeNames[code]
	switch operandLength(code) {
	case 2:
		nn := bit.Combine(bus.Read(pc+2), bus.Read(pc+1))
		return strings.Replace(name, "nn", fmt.Sprintf("0x%04X", nn), 1), 3
	case 1:
		n := bus.Read(pc + 1)
		if code == 0x10 {
			return name, 2
		}
		return strings.Replace(name, "n", fmt.Sprintf("0x%02X", n), 1), 2
	}
	return name, 1
}

// GetOpcodeName returns the mnemonic of the instruction at the current PC.
func GetOpcodeName(c *CPU) string {
	name, _ := Disassemble(c.bus, c.pc)
	return name
}
