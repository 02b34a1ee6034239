package cpu

import "github.com/valerio/go-jeebie-color/jeebie/bit"

// Opcode executes one instruction and returns its length in cycles (4 per
// master tick).
type Opcode func(*CPU) int

// opcodes is filled by init. Most of the table is regular and generated by
// block, the rest is listed in irregular.
var opcodes [256]Opcode

// condition is one of the four branch conditions, by the 2-bit index that
// conditional JR, JP, CALL and RET carry in bits 3-4.
func (c *CPU) condition(index uint8) bool {
	switch index {
	case 0:
		return !c.isSetFlag(zeroFlag)
	case 1:
		return c.isSetFlag(zeroFlag)
	case 2:
		return !c.isSetFlag(carryFlag)
	}
	return c.isSetFlag(carryFlag)
}

// pair accessors by the 2-bit index in bits 4-5. The stack ops use AF where
// the others use SP.
type pairAccess struct {
	get func(*CPU) uint16
	set func(*CPU, uint16)
}

var (
	pairsSP = [4]pairAccess{
		{(*CPU).getBC, (*CPU).setBC},
		{(*CPU).getDE, (*CPU).setDE},
		{(*CPU).getHL, (*CPU).setHL},
		{func(c *CPU) uint16 { return c.sp }, func(c *CPU, v uint16) { c.sp = v }},
	}
	pairsAF = [4]pairAccess{
		pairsSP[0],
		pairsSP[1],
		pairsSP[2],
		{(*CPU).getAF, (*CPU).setAF},
	}
)

// aluOps in the order of bits 3-5 of 0x80-0xBF and 0xC6-0xFE.
var aluOps = [8]func(*CPU, uint8){
	(*CPU).addToA,
	(*CPU).adc,
	(*CPU).sub,
	(*CPU).sbc,
	(*CPU).and,
	(*CPU).xor,
	(*CPU).or,
	(*CPU).cp,
}

var illegalOpcodes = []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}

func init() {
	for code := 0x40; code < 0x80; code++ {
		opcodes[code] = load(uint8(code>>3)&0x07, uint8(code)&0x07)
	}
	for code := 0x80; code < 0xC0; code++ {
		opcodes[code] = aluRegister(aluOps[(code>>3)&0x07], uint8(code)&0x07)
	}

	for r := uint8(0); r < 8; r++ {
		row := r << 3
		opcodes[row|0x04] = modify(r, (*CPU).inc)
		opcodes[row|0x05] = modify(r, (*CPU).dec)
		opcodes[row|0x06] = loadImmediate(r)
		opcodes[0xC6|row] = aluImmediate(aluOps[r])
		opcodes[0xC7|row] = restart(uint16(row))
	}

	for p := uint8(0); p < 4; p++ {
		row := p << 4
		opcodes[0x01|row] = loadPair(pairsSP[p])
		opcodes[0x03|row] = stepPair(pairsSP[p], 1)
		opcodes[0x0B|row] = stepPair(pairsSP[p], 0xFFFF)
		opcodes[0x09|row] = addPair(pairsSP[p])
		opcodes[0xC1|row] = pop(pairsAF[p])
		opcodes[0xC5|row] = push(pairsAF[p])
	}

	for cc := uint8(0); cc < 4; cc++ {
		row := cc << 3
		opcodes[0x20|row] = jumpRelative(cc)
		opcodes[0xC0|row] = returnIf(cc)
		opcodes[0xC2|row] = jumpIf(cc)
		opcodes[0xC4|row] = callIf(cc)
	}

	for code, fn := range irregular {
		opcodes[code] = fn
	}
	for _, code := range illegalOpcodes {
		opcodes[code] = (*CPU).illegal
	}
}

// operand reads an 8-bit operand by its 3-bit index, 6 being (HL).
func (c *CPU) operand(index uint8) uint8 {
	if index == 6 {
		return c.bus.Read(c.getHL())
	}
	return *c.register(index)
}

// load is LD r, r'. Anything touching (HL) takes 8 cycles. 0x76, the
// (HL), (HL) slot, is HALT and is overwritten by irregular.
func load(dst, src uint8) Opcode {
	if dst == 6 {
		return func(c *CPU) int {
			c.bus.Write(c.getHL(), *c.register(src))
			return 8
		}
	}
	if src == 6 {
		return func(c *CPU) int {
			*c.register(dst) = c.bus.Read(c.getHL())
			return 8
		}
	}
	return func(c *CPU) int {
		*c.register(dst) = *c.register(src)
		return 4
	}
}

func loadImmediate(dst uint8) Opcode {
	if dst == 6 {
		return func(c *CPU) int {
			c.bus.Write(c.getHL(), c.readImmediate())
			return 12
		}
	}
	return func(c *CPU) int {
		*c.register(dst) = c.readImmediate()
		return 8
	}
}

func aluRegister(fn func(*CPU, uint8), src uint8) Opcode {
	cycles := 4
	if src == 6 {
		cycles = 8
	}
	return func(c *CPU) int {
		fn(c, c.operand(src))
		return cycles
	}
}

func aluImmediate(fn func(*CPU, uint8)) Opcode {
	return func(c *CPU) int {
		fn(c, c.readImmediate())
		return 8
	}
}

// modify is INC r and DEC r. The (HL) forms are read-modify-write.
func modify(r uint8, fn func(*CPU, *uint8)) Opcode {
	if r == 6 {
		return func(c *CPU) int {
			address := c.getHL()
			value := c.bus.Read(address)
			fn(c, &value)
			c.bus.Write(address, value)
			return 12
		}
	}
	return func(c *CPU) int {
		fn(c, c.register(r))
		return 4
	}
}

func loadPair(p pairAccess) Opcode {
	return func(c *CPU) int {
		p.set(c, c.readImmediateWord())
		return 12
	}
}

// stepPair is the 16-bit INC and DEC, which leave the flags alone.
func stepPair(p pairAccess, delta uint16) Opcode {
	return func(c *CPU) int {
		p.set(c, p.get(c)+delta)
		return 8
	}
}

func addPair(p pairAccess) Opcode {
	return func(c *CPU) int {
		c.addToHL(p.get(c))
		return 8
	}
}

func push(p pairAccess) Opcode {
	return func(c *CPU) int {
		c.pushStack(p.get(c))
		return 16
	}
}

func pop(p pairAccess) Opcode {
	return func(c *CPU) int {
		p.set(c, c.popStack())
		return 12
	}
}

func restart(vector uint16) Opcode {
	return func(c *CPU) int {
		c.rst(vector)
		return 16
	}
}

func jumpRelative(cc uint8) Opcode {
	return func(c *CPU) int { return branch(c.jr(c.condition(cc)), 12, 8) }
}

func jumpIf(cc uint8) Opcode {
	return func(c *CPU) int { return branch(c.jp(c.condition(cc)), 16, 12) }
}

func callIf(cc uint8) Opcode {
	return func(c *CPU) int { return branch(c.call(c.condition(cc)), 24, 12) }
}

func returnIf(cc uint8) Opcode {
	return func(c *CPU) int { return branch(c.ret(c.condition(cc)), 20, 8) }
}

// accumulator rotates clear Z unlike their CB counterparts.
func rotateA(fn func(*CPU, *uint8)) Opcode {
	return func(c *CPU) int {
		fn(c, &c.a)
		c.resetFlag(zeroFlag)
		return 4
	}
}

// indirect loads through BC, DE and HL+/HL-. step is added to HL after the
// access.
func storeA(address func(*CPU) uint16, step uint16) Opcode {
	return func(c *CPU) int {
		c.bus.Write(address(c), c.a)
		if step != 0 {
			c.setHL(c.getHL() + step)
		}
		return 8
	}
}

func loadA(address func(*CPU) uint16, step uint16) Opcode {
	return func(c *CPU) int {
		c.a = c.bus.Read(address(c))
		if step != 0 {
			c.setHL(c.getHL() + step)
		}
		return 8
	}
}

var irregular = map[uint8]Opcode{
	0x00: func(c *CPU) int { return 4 },
	0x02: storeA((*CPU).getBC, 0),
	0x12: storeA((*CPU).getDE, 0),
	0x22: storeA((*CPU).getHL, 1),
	0x32: storeA((*CPU).getHL, 0xFFFF),
	0x0A: loadA((*CPU).getBC, 0),
	0x1A: loadA((*CPU).getDE, 0),
	0x2A: loadA((*CPU).getHL, 1),
	0x3A: loadA((*CPU).getHL, 0xFFFF),

	0x07: rotateA((*CPU).rlc),
	0x0F: rotateA((*CPU).rrc),
	0x17: rotateA((*CPU).rl),
	0x1F: rotateA((*CPU).rr),

	0x08: func(c *CPU) int {
		address := c.readImmediateWord()
		c.bus.Write(address, bit.Low(c.sp))
		c.bus.Write(address+1, bit.High(c.sp))
		return 20
	},
	0x10: func(c *CPU) int {
		// the second byte of STOP is ignored
		c.readImmediate()
		c.stop()
		return 4
	},
	0x18: func(c *CPU) int {
		c.jr(true)
		return 12
	},

	0x27: func(c *CPU) int { c.daa(); return 4 },
	0x2F: func(c *CPU) int { c.cpl(); return 4 },
	0x37: func(c *CPU) int { c.scf(); return 4 },
	0x3F: func(c *CPU) int { c.ccf(); return 4 },
	0x76: func(c *CPU) int { c.halt(); return 4 },

	0xC3: func(c *CPU) int {
		c.jp(true)
		return 16
	},
	0xC9: func(c *CPU) int {
		c.ret(true)
		return 16
	},
	0xD9: func(c *CPU) int {
		c.ret(true)
		c.interruptsEnabled = true
		return 16
	},
	0xCD: func(c *CPU) int {
		c.call(true)
		return 24
	},
	0xE9: func(c *CPU) int {
		c.pc = c.getHL()
		return 4
	},
	// fetch consumes the prefix, this entry is never dispatched
	0xCB: func(c *CPU) int { return 4 },

	0xE0: func(c *CPU) int {
		c.bus.Write(0xFF00+uint16(c.readImmediate()), c.a)
		return 12
	},
	0xF0: func(c *CPU) int {
		c.a = c.bus.Read(0xFF00 + uint16(c.readImmediate()))
		return 12
	},
	0xE2: func(c *CPU) int {
		c.bus.Write(0xFF00+uint16(c.c), c.a)
		return 8
	},
	0xF2: func(c *CPU) int {
		c.a = c.bus.Read(0xFF00 + uint16(c.c))
		return 8
	},
	0xEA: func(c *CPU) int {
		c.bus.Write(c.readImmediateWord(), c.a)
		return 16
	},
	0xFA: func(c *CPU) int {
		c.a = c.bus.Read(c.readImmediateWord())
		return 16
	},

	0xE8: func(c *CPU) int {
		c.sp = c.addSigned(c.readSignedImmediate())
		return 16
	},
	0xF8: func(c *CPU) int {
		c.setHL(c.addSigned(c.readSignedImmediate()))
		return 12
	},
	0xF9: func(c *CPU) int {
		c.sp = c.getHL()
		return 8
	},

	0xF3: func(c *CPU) int {
		c.interruptsEnabled = false
		c.eiPending = false
		return 4
	},
	0xFB: func(c *CPU) int {
		c.eiPending = true
		return 4
	},
}
