package bit

// Combine merges two bytes into a word, high byte first.
func Combine(high, low uint8) uint16 {
	return uint16(high)<<8 | uint16(low)
}

// Low returns the least significant byte of a word.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the most significant byte of a word.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet reports whether the bit at index is 1.
func IsSet(index, value uint8) bool {
	return (value>>index)&1 == 1
}

// IsSet16 is IsSet for words.
func IsSet16(index uint8, value uint16) bool {
	return (value>>index)&1 == 1
}

// Set returns value with the bit at index set to 1.
func Set(index, value uint8) uint8 {
	return value | 1<<index
}

// Reset returns value with the bit at index set to 0.
func Reset(index, value uint8) uint8 {
	return value &^ (1 << index)
}

// SetTo sets or resets the bit at index depending on on.
func SetTo(index, value uint8, on bool) uint8 {
	if on {
		return Set(index, value)
	}
	return Reset(index, value)
}

// Value returns 1 if the bit at index is set, 0 otherwise.
func Value(index, value uint8) uint8 {
	return (value >> index) & 1
}

// Bool converts a flag to 0 or 1.
func Bool(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// ExtractBits returns bits highBit..lowBit (inclusive) shifted down to bit 0.
// ExtractBits(0b11010110, 6, 4) == 0b101
func ExtractBits(value, highBit, lowBit uint8) uint8 {
	width := highBit - lowBit + 1
	return (value >> lowBit) & uint8(1<<width-1)
}

// HalfCarryAdd reports a carry out of bit 3 for a + b + carry.
func HalfCarryAdd(a, b, carry uint8) bool {
	return (a&0x0F)+(b&0x0F)+carry > 0x0F
}

// CarryAdd reports a carry out of bit 7 for a + b + carry.
func CarryAdd(a, b, carry uint8) bool {
	return uint16(a)+uint16(b)+uint16(carry) > 0xFF
}

// HalfBorrowSub reports a borrow from bit 4 for a - b - carry.
func HalfBorrowSub(a, b, carry uint8) bool {
	return int(a&0x0F)-int(b&0x0F)-int(carry) < 0
}

// BorrowSub reports a borrow for a - b - carry.
func BorrowSub(a, b, carry uint8) bool {
	return int(a)-int(b)-int(carry) < 0
}

// HalfCarryAdd16 reports a carry out of bit 11 for a 16 bit add.
func HalfCarryAdd16(a, b uint16) bool {
	return (a&0x0FFF)+(b&0x0FFF) > 0x0FFF
}

// CarryAdd16 reports a carry out of bit 15 for a 16 bit add.
func CarryAdd16(a, b uint16) bool {
	return uint32(a)+uint32(b) > 0xFFFF
}

// CheckedAdd adds two bytes and reports whether the result overflowed.
func CheckedAdd(a, b uint8) (uint8, bool) {
	return a + b, CarryAdd(a, b, 0)
}

// CheckedSub subtracts b from a and reports whether a borrow happened.
func CheckedSub(a, b uint8) (uint8, bool) {
	return a - b, BorrowSub(a, b, 0)
}
