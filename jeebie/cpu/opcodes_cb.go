package cpu

import "fmt"

// The CB table is regular: bits 0-2 pick the operand (B, C, D, E, H, L,
// (HL), A), bits 3-7 pick the operation. Rotates and shifts fill 0x00-0x3F,
// then BIT, RES and SET with the bit index in bits 3-5.
var opcodesCB [256]Opcode

var opcodeNamesCB [256]string

var cbOperands = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

// register returns the register addressed by a 3-bit operand index. Index
// 6 is (HL) and has no register.
func (c *CPU) register(index uint8) *uint8 {
	switch index {
	case 0:
		return &c.b
	case 1:
		return &c.c
	case 2:
		return &c.d
	case 3:
		return &c.e
	case 4:
		return &c.h
	case 5:
		return &c.l
	case 7:
		return &c.a
	}
	return nil
}

func init() {
	shifts := [8]struct {
		name string
		fn   func(*CPU, *uint8)
	}{
		{"RLC", (*CPU).rlc},
		{"RRC", (*CPU).rrc},
		{"RL", (*CPU).rl},
		{"RR", (*CPU).rr},
		{"SLA", (*CPU).sla},
		{"SRA", (*CPU).sra},
		{"SWAP", (*CPU).swap},
		{"SRL", (*CPU).srl},
	}

	for code := 0; code < 256; code++ {
		operand := uint8(code & 0x07)
		index := uint8(code>>3) & 0x07

		switch code >> 6 {
		case 0:
			opcodesCB[code] = cbModify(operand, shifts[index].fn)
			opcodeNamesCB[code] = shifts[index].name + " " + cbOperands[operand]
		case 1:
			opcodesCB[code] = cbBit(operand, index)
			opcodeNamesCB[code] = fmt.Sprintf("BIT %d, %s", index, cbOperands[operand])
		case 2:
			opcodesCB[code] = cbModify(operand, func(c *CPU, r *uint8) { c.res(index, r) })
			opcodeNamesCB[code] = fmt.Sprintf("RES %d, %s", index, cbOperands[operand])
		case 3:
			opcodesCB[code] = cbModify(operand, func(c *CPU, r *uint8) { c.set(index, r) })
			opcodeNamesCB[code] = fmt.Sprintf("SET %d, %s", index, cbOperands[operand])
		}
	}
}

// cbModify builds a read-modify-write CB opcode. Register forms take 8
// cycles, (HL) forms 16.
func cbModify(operand uint8, fn func(*CPU, *uint8)) Opcode {
	if operand == 6 {
		return func(c *CPU) int {
			address := c.getHL()
			value := c.bus.Read(address)
			fn(c, &value)
			c.bus.Write(address, value)
			return 16
		}
	}
	return func(c *CPU) int {
		fn(c, c.register(operand))
		return 8
	}
}

// cbBit builds a BIT opcode. BIT only reads, so (HL) takes 12 cycles.
func cbBit(operand, index uint8) Opcode {
	if operand == 6 {
		return func(c *CPU) int {
			c.bit(index, c.bus.Read(c.getHL()))
			return 12
		}
	}
	return func(c *CPU) int {
		c.bit(index, *c.register(operand))
		return 8
	}
}
