package cpu

import "github.com/valerio/go-jeebie-color/jeebie/bit"

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

func (c *CPU) inc(r *uint8) {
	c.setFlagToCondition(halfCarryFlag, *r&0x0F == 0x0F)
	*r++
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.resetFlag(subFlag)
}

func (c *CPU) dec(r *uint8) {
	c.setFlagToCondition(halfCarryFlag, *r&0x0F == 0)
	*r--
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.setFlag(subFlag)
}

// shiftFlags sets the flags every rotate and shift leaves behind.
func (c *CPU) shiftFlags(result uint8, carry bool) {
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlagToCondition(carryFlag, carry)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) rlc(r *uint8) {
	value := *r
	*r = value<<1 | value>>7
	c.shiftFlags(*r, value > 0x7F)
}

func (c *CPU) rl(r *uint8) {
	value := *r
	*r = value<<1 | c.flagToBit(carryFlag)
	c.shiftFlags(*r, value > 0x7F)
}

func (c *CPU) rrc(r *uint8) {
	value := *r
	*r = value>>1 | value<<7
	c.shiftFlags(*r, value&1 == 1)
}

func (c *CPU) rr(r *uint8) {
	value := *r
	*r = value>>1 | c.flagToBit(carryFlag)<<7
	c.shiftFlags(*r, value&1 == 1)
}

func (c *CPU) sla(r *uint8) {
	value := *r
	*r = value << 1
	c.shiftFlags(*r, value > 0x7F)
}

// sra keeps bit 7 in place.
func (c *CPU) sra(r *uint8) {
	value := *r
	*r = value>>1 | value&0x80
	c.shiftFlags(*r, value&1 == 1)
}

func (c *CPU) srl(r *uint8) {
	value := *r
	*r = value >> 1
	c.shiftFlags(*r, value&1 == 1)
}

func (c *CPU) swap(r *uint8) {
	*r = *r<<4 | *r>>4
	c.shiftFlags(*r, false)
}

func (c *CPU) bit(index uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) set(index uint8, r *uint8) {
	*r = bit.Set(index, *r)
}

func (c *CPU) res(index uint8, r *uint8) {
	*r = bit.Reset(index, *r)
}

// addToA sets the result of adding an 8 bit value to A, while setting all relevant flags.
func (c *CPU) addToA(value uint8) {
	c.adcToA(value, 0)
}

// adc adds value plus the carry flag to A.
func (c *CPU) adc(value uint8) {
	c.adcToA(value, c.flagToBit(carryFlag))
}

func (c *CPU) adcToA(value, carry uint8) {
	a := c.a
	result := a + value + carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, bit.HalfCarryAdd(a, value, carry))
	c.setFlagToCondition(carryFlag, bit.CarryAdd(a, value, carry))

	c.a = result
}

// sub will subtract the value from register A and set all relevant flags.
func (c *CPU) sub(value uint8) {
	c.a = c.subtract(value, 0)
}

func (c *CPU) sbc(value uint8) {
	c.a = c.subtract(value, c.flagToBit(carryFlag))
}

// cp compares A with value: a subtraction that only keeps the flags.
func (c *CPU) cp(value uint8) {
	c.subtract(value, 0)
}

func (c *CPU) subtract(value, carry uint8) uint8 {
	a := c.a
	result := a - value - carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, bit.HalfBorrowSub(a, value, carry))
	c.setFlagToCondition(carryFlag, bit.BorrowSub(a, value, carry))

	return result
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

// addToHL sets the result of adding a 16 bit value to HL. Z is untouched.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, bit.HalfCarryAdd16(hl, value))
	c.setFlagToCondition(carryFlag, bit.CarryAdd16(hl, value))

	c.setHL(hl + value)
}

// addSigned returns SP plus a signed immediate. Flags come from the
// unsigned add on the low byte, as for ADD SP, n and LD HL, SP+n.
func (c *CPU) addSigned(n int8) uint16 {
	offset := uint8(n)
	low := bit.Low(c.sp)

	c.resetFlag(zeroFlag)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, bit.HalfCarryAdd(low, offset, 0))
	c.setFlagToCondition(carryFlag, bit.CarryAdd(low, offset, 0))

	return c.sp + uint16(int16(n))
}

// daa adjusts A into packed BCD after an add or subtract.
func (c *CPU) daa() {
	a := c.a
	var correction uint8
	carry := c.isSetFlag(carryFlag)

	if c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) {
			correction |= 0x06
		}
		if carry {
			correction |= 0x60
		}
		a -= correction
	} else {
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			correction |= 0x06
		}
		if carry || a > 0x99 {
			correction |= 0x60
			carry = true
		}
		a += correction
	}

	c.a = a
	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) cpl() {
	c.a = ^c.a
	c.setFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) scf() {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlag(carryFlag)
}

func (c *CPU) ccf() {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
}

// jr performs a relative jump using the immediate value when cond holds.
// The offset is always consumed.
func (c *CPU) jr(cond bool) bool {
	n := c.readSignedImmediate()
	if cond {
		c.pc += uint16(int16(n))
	}
	return cond
}

// jp performs an absolute jump to the immediate word when cond holds.
func (c *CPU) jp(cond bool) bool {
	nn := c.readImmediateWord()
	if cond {
		c.pc = nn
	}
	return cond
}

func (c *CPU) call(cond bool) bool {
	nn := c.readImmediateWord()
	if cond {
		c.pushStack(c.pc)
		c.pc = nn
	}
	return cond
}

func (c *CPU) ret(cond bool) bool {
	if cond {
		c.pc = c.popStack()
	}
	return cond
}

func (c *CPU) rst(vector uint16) {
	c.pushStack(c.pc)
	c.pc = vector
}

// branch picks the cycle count of a conditional instruction.
func branch(taken bool, takenCycles, notTakenCycles int) int {
	if taken {
		return takenCycles
	}
	return notTakenCycles
}
