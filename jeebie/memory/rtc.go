package memory

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// Clock supplies wall-clock time to the cartridge real-time clock.
type Clock interface {
	Now() time.Time
}

type systemClockFunc func() time.Time

func (s systemClockFunc) Now() time.Time {
	return s()
}

// SystemClock reads the host clock.
var SystemClock Clock = systemClockFunc(time.Now)

const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDaysLow
	rtcDaysHigh
	rtcRegisterCount
)

const (
	rtcHaltBit  = 0x40
	rtcCarryBit = 0x80
	// RAM dump, then live and latched registers as 4 byte words, then a
	// 4 byte unix timestamp.
	rtcSaveSize = rtcRegisterCount*4*2 + 4
)

// RTC is the MBC3 real-time clock. Live time only moves when something looks
// at it: every access first folds the wall time elapsed since the previous
// access into the live registers.
type RTC struct {
	clock      Clock
	live       [rtcRegisterCount]uint8
	latched    [rtcRegisterCount]uint8
	lastUpdate int64
}

func newRTC(clock Clock) *RTC {
	if clock == nil {
		clock = SystemClock
	}
	return &RTC{clock: clock, lastUpdate: clock.Now().Unix()}
}

func (r *RTC) halted() bool { return r.live[rtcDaysHigh]&rtcHaltBit != 0 }

func (r *RTC) days() int {
	return int(r.live[rtcDaysLow]) | int(r.live[rtcDaysHigh]&0x01)<<8
}

func (r *RTC) advance() {
	now := r.clock.Now().Unix()
	elapsed := now - r.lastUpdate
	r.lastUpdate = now
	if elapsed <= 0 || r.halted() {
		return
	}

	total := int64(r.live[rtcSeconds]) + int64(r.live[rtcMinutes])*60 +
		int64(r.live[rtcHours])*3600 + int64(r.days())*86400 + elapsed

	r.live[rtcSeconds] = uint8(total % 60)
	r.live[rtcMinutes] = uint8(total / 60 % 60)
	r.live[rtcHours] = uint8(total / 3600 % 24)

	days := total / 86400
	high := r.live[rtcDaysHigh] &^ 0x01
	if days > 0x1FF {
		high |= rtcCarryBit
		days &= 0x1FF
	}
	r.live[rtcDaysLow] = uint8(days)
	r.live[rtcDaysHigh] = high | uint8(days>>8)&0x01
}

// Latch copies live time into the registers visible to the CPU.
func (r *RTC) Latch() {
	r.advance()
	r.latched = r.live
}

func (r *RTC) Read(reg int) uint8 {
	return r.latched[reg]
}

func (r *RTC) Write(reg int, value uint8) {
	r.advance()
	switch reg {
	case rtcSeconds, rtcMinutes:
		value &= 0x3F
	case rtcHours:
		value &= 0x1F
	case rtcDaysHigh:
		value &= 0xC1
	}
	r.live[reg] = value
	r.latched[reg] = value
}

// Live returns the current registers, seconds first.
func (r *RTC) Live() [5]uint8 {
	r.advance()
	return r.live
}

func (r *RTC) export() []byte {
	r.advance()
	out := make([]byte, 0, rtcSaveSize)
	for _, v := range r.live {
		out = binary.LittleEndian.AppendUint32(out, uint32(v))
	}
	for _, v := range r.latched {
		out = binary.LittleEndian.AppendUint32(out, uint32(v))
	}
	return binary.LittleEndian.AppendUint32(out, uint32(r.lastUpdate))
}

// restore loads registers saved at some earlier time. The next access
// fast-forwards by the time elapsed since then.
func (r *RTC) restore(data []byte) {
	for i := range r.live {
		r.live[i] = uint8(binary.LittleEndian.Uint32(data[i*4:]))
		r.latched[i] = uint8(binary.LittleEndian.Uint32(data[(i+rtcRegisterCount)*4:]))
	}
	r.lastUpdate = int64(binary.LittleEndian.Uint32(data[rtcRegisterCount*8:]))
}

// MBC3 supports up to 2MiB ROM, 32KiB RAM and an optional RTC.
//   - 0x0000-0x1FFF: RAM and RTC enable
//   - 0x2000-0x3FFF: 7 bit ROM bank, 0 selects 1
//   - 0x4000-0x5FFF: RAM bank 0-3 or RTC register 0x08-0x0C
//   - 0x6000-0x7FFF: writing 0 then 1 latches the clock
type MBC3 struct {
	banks
	rtc        *RTC
	romBank    uint8
	ramSelect  uint8
	ramEnabled bool
	latchArmed bool
}

func NewMBC3(rom []uint8, ramSize int, hasRTC bool, clock Clock) *MBC3 {
	m := &MBC3{banks: banks{rom: rom, ram: make([]uint8, ramSize)}, romBank: 1}
	if hasRTC {
		m.rtc = newRTC(clock)
	}
	return m
}

func (m *MBC3) Kind() Kind { return KindMBC3 }

// RTC returns the attached clock, or nil.
func (m *MBC3) RTC() *RTC { return m.rtc }

func (m *MBC3) ReadROM(address uint16) uint8 { return m.readROMBank(0, address) }

func (m *MBC3) ReadBankedROM(address uint16) uint8 {
	return m.readROMBank(int(m.romBank), address)
}

func (m *MBC3) rtcRegister() (int, bool) {
	if m.rtc == nil || m.ramSelect < 0x08 || m.ramSelect > 0x0C {
		return 0, false
	}
	return int(m.ramSelect - 0x08), true
}

func (m *MBC3) ReadRAM(address uint16) uint8 {
	if !m.ramEnabled {
		return 0xFF
	}
	if m.ramSelect <= 0x03 {
		return m.readRAMBank(int(m.ramSelect), address)
	}
	if reg, ok := m.rtcRegister(); ok {
		return m.rtc.Read(reg)
	}
	return 0xFF
}

func (m *MBC3) WriteRAM(address uint16, value uint8) {
	if !m.ramEnabled {
		return
	}
	if m.ramSelect <= 0x03 {
		m.writeRAMBank(int(m.ramSelect), address, value)
		return
	}
	if reg, ok := m.rtcRegister(); ok {
		m.rtc.Write(reg, value)
	}
}

func (m *MBC3) WriteControl(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = ramEnableValue(value)
	case address <= 0x3FFF:
		m.romBank = value & 0x7F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address <= 0x5FFF:
		m.ramSelect = value & 0x0F
	case address <= 0x7FFF:
		if value == 1 && m.latchArmed && m.rtc != nil {
			m.rtc.Latch()
		}
		m.latchArmed = value == 0
	}
}

func (m *MBC3) ExportSave() []byte {
	out := m.exportRAM()
	if m.rtc != nil {
		out = append(out, m.rtc.export()...)
	}
	return out
}

// ImportSave accepts a plain RAM dump, or for RTC carts a RAM dump followed
// by the clock block.
func (m *MBC3) ImportSave(data []byte) error {
	switch {
	case len(data) == len(m.ram):
		copy(m.ram, data)
	case m.rtc != nil && len(data) == len(m.ram)+rtcSaveSize:
		copy(m.ram, data)
		m.rtc.restore(data[len(m.ram):])
	default:
		return fmt.Errorf("%w: got %d bytes for %d bytes of RAM", ErrSaveSize, len(data), len(m.ram))
	}
	return nil
}

func (m *MBC3) WriteState(w *state.Writer) {
	w.U8(m.romBank)
	w.U8(m.ramSelect)
	w.Bool(m.ramEnabled)
	w.Bool(m.latchArmed)
	w.Block(m.ram)
	w.Bool(m.rtc != nil)
	if m.rtc != nil {
		w.Raw(m.rtc.live[:])
		w.Raw(m.rtc.latched[:])
		w.U64(uint64(m.rtc.lastUpdate))
	}
}

func (m *MBC3) ReadState(r *state.Reader) {
	m.romBank = r.U8()
	m.ramSelect = r.U8()
	m.ramEnabled = r.Bool()
	m.latchArmed = r.Bool()
	r.Block(m.ram)
	if hasRTC := r.Bool(); hasRTC != (m.rtc != nil) {
		r.Fail(fmt.Errorf("%w: rtc presence differs", state.ErrMapperMismatch))
		return
	}
	if m.rtc != nil {
		r.Raw(m.rtc.live[:])
		r.Raw(m.rtc.latched[:])
		m.rtc.lastUpdate = int64(r.U64())
	}
}
