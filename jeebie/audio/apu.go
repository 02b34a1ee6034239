package audio

import (
	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// APU implements the Audio Processing Unit: two pulse channels (the first
// with sweep), a wave channel and a noise channel behind a 512 Hz frame
// sequencer and a stereo mixer.
// Reference: https://gbdev.io/pandocs/Audio.html
type APU struct {
	enabled bool // NR52 bit 7

	ch1 pulse
	ch2 pulse
	ch3 wave
	ch4 noise

	// raw NR10-NR51 as written, for read back
	registers [0x16]uint8
	nr50      uint8
	nr51      uint8

	// Frame sequencer state
	frameStep  int // next step (0-7)
	frameTicks int // ticks since the last step

	// Sample generation state
	sampleRate int
	sampleAcc  int // carry of sampleRate per tick, emits at TicksPerSecond
	buffer     []int16
	bufferPos  int
	bufferSize int
	onBuffer   func([]int16)
	gain       float64
	muted      [4]bool
}

// Option configures an APU.
type Option func(*APU)

// WithSampleRate sets the output sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(a *APU) {
		if rate > 0 {
			a.sampleRate = rate
		}
	}
}

// WithBufferFrames sets how many stereo frames are collected per callback.
func WithBufferFrames(frames int) Option {
	return func(a *APU) {
		if frames > 0 {
			a.bufferSize = frames * 2
		}
	}
}

// WithGain sets the master gain applied after the NR50 volume.
func WithGain(gain float64) Option {
	return func(a *APU) { a.gain = gain }
}

// New creates an APU with post-boot register values.
func New(opts ...Option) *APU {
	a := &APU{
		sampleRate: DefaultSampleRate,
		bufferSize: DefaultBufferFrames * 2,
		gain:       1.0,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.buffer = make([]int16, a.bufferSize)
	a.Reset(true)
	return a
}

// OnBuffer registers the callback receiving each full buffer of
// interleaved left/right samples. The slice is not reused afterwards.
func (a *APU) OnBuffer(fn func([]int16)) {
	a.onBuffer = fn
}

// SetGain changes the master gain. It is a user setting, not saved state.
func (a *APU) SetGain(gain float64) { a.gain = gain }

func (a *APU) SampleRate() int { return a.sampleRate }

// Reset powers the APU on. With postBoot the registers hold the values the
// boot ROM leaves, otherwise the APU starts powered off as the boot ROM
// expects.
// Reference: https://gbdev.io/pandocs/Power_Up_Sequence.html#hardware-registers
func (a *APU) Reset(postBoot bool) {
	a.enabled = true
	a.clearRegisters()
	a.frameStep = 0
	a.frameTicks = 0
	a.sampleAcc = 0
	a.bufferPos = 0
	a.ch3.ram = [waveRAMSize]uint8{}

	if !postBoot {
		a.enabled = false
		return
	}

	for _, r := range []struct {
		address uint16
		value   uint8
	}{
		{addr.NR10, 0x80},
		{addr.NR11, 0xBF},
		{addr.NR12, 0xF3},
		{addr.NR14, 0x3F}, // trigger bit already consumed by the boot sound
		{addr.NR21, 0x3F},
		{addr.NR22, 0x00},
		{addr.NR24, 0x3F},
		{addr.NR30, 0x7F},
		{addr.NR31, 0xFF},
		{addr.NR32, 0x9F},
		{addr.NR34, 0x3F},
		{addr.NR41, 0xFF},
		{addr.NR44, 0x3F},
		{addr.NR50, 0x77},
		{addr.NR51, 0xF3},
	} {
		a.WriteRegister(r.address, r.value)
	}
	// the boot sound leaves channel 1 running with its length expired
	a.ch1.enabled = true
}

// clearRegisters zeroes every channel register, as powering off does.
func (a *APU) clearRegisters() {
	wave := a.ch3.ram
	a.ch1 = newPulse(true)
	a.ch2 = newPulse(false)
	a.ch3 = newWave()
	a.ch3.ram = wave
	a.ch4 = newNoise()
	a.registers = [0x16]uint8{}
	a.nr50 = 0
	a.nr51 = 0
}

// Clock advances the APU by one master tick.
func (a *APU) Clock() {
	if a.enabled {
		a.frameTicks++
		if a.frameTicks == ticksPerStep {
			a.frameTicks = 0
			a.stepFrameSequencer()
		}

		a.ch1.step(cyclesPerTick)
		a.ch2.step(cyclesPerTick)
		a.ch3.step(cyclesPerTick)
		a.ch4.step(cyclesPerTick)
	}

	a.sampleAcc += a.sampleRate
	if a.sampleAcc >= TicksPerSecond {
		a.sampleAcc -= TicksPerSecond
		a.emitSample()
	}
}

// stepFrameSequencer runs the current step and moves to the next one.
//
//	Step   Length  Sweep  Envelope
//	0      Clock   -      -
//	1      -       -      -
//	2      Clock   Clock  -
//	3      -       -      -
//	4      Clock   -      -
//	5      -       -      -
//	6      Clock   Clock  -
//	7      -       -      Clock
//
// Reference: https://gbdev.io/pandocs/Audio_details.html#div-apu
func (a *APU) stepFrameSequencer() {
	switch a.frameStep {
	case 0, 4:
		a.clockLengths()
	case 2, 6:
		a.clockLengths()
		a.ch1.clockSweep()
	case 7:
		a.ch1.envelope.clock()
		a.ch2.envelope.clock()
		a.ch4.envelope.clock()
	}
	a.frameStep = (a.frameStep + 1) & 7
}

func (a *APU) clockLengths() {
	a.ch1.clockLength()
	a.ch2.clockLength()
	a.ch3.clockLength()
	a.ch4.clockLength()
}

// channelOutputs returns each channel's digital level, 0-15, and whether
// it is playing.
func (a *APU) channelOutputs() ([4]uint8, [4]bool) {
	return [4]uint8{a.ch1.output(), a.ch2.output(), a.ch3.output(), a.ch4.output()},
		[4]bool{a.ch1.enabled, a.ch2.enabled, a.ch3.enabled, a.ch4.enabled}
}

// mix converts the channel levels to one stereo frame. Each DAC maps 0-15
// to -15..15; channels that are not playing contribute nothing.
func (a *APU) mix() (int16, int16) {
	if !a.enabled {
		return 0, 0
	}

	levels, playing := a.channelOutputs()
	var left, right int
	for i := range levels {
		if !playing[i] || a.muted[i] {
			continue
		}
		analog := int(levels[i])*2 - 15
		if bit.IsSet(uint8(4+i), a.nr51) {
			left += analog
		}
		if bit.IsSet(uint8(i), a.nr51) {
			right += analog
		}
	}

	leftVolume := int((a.nr50>>4)&0x07) + 1
	rightVolume := int(a.nr50&0x07) + 1
	return a.scale(left * leftVolume), a.scale(right * rightVolume)
}

func (a *APU) scale(v int) int16 {
	scaled := float64(v) * a.gain * mixerScale
	switch {
	case scaled > 32767:
		return 32767
	case scaled < -32768:
		return -32768
	}
	return int16(scaled)
}

func (a *APU) emitSample() {
	left, right := a.mix()
	a.buffer[a.bufferPos] = left
	a.buffer[a.bufferPos+1] = right
	a.bufferPos += 2

	if a.bufferPos < len(a.buffer) {
		return
	}
	full := a.buffer
	a.buffer = make([]int16, a.bufferSize)
	a.bufferPos = 0
	if a.onBuffer != nil {
		a.onBuffer(full)
	}
}

// ReadRegister reads from an audio register or wave RAM.
func (a *APU) ReadRegister(address uint16) uint8 {
	switch {
	case address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd:
		return a.ch3.readRAM(address - addr.WaveRAMStart)
	case address == addr.NR52:
		status := uint8(0x70) | bit.Bool(a.enabled)<<7
		for i, on := range []bool{a.ch1.enabled, a.ch2.enabled, a.ch3.enabled, a.ch4.enabled} {
			if on {
				status = bit.Set(uint8(i), status)
			}
		}
		return status
	case address >= addr.NR10 && address <= addr.NR51:
		index := address - addr.NR10
		return a.registers[index] | readMasks[index]
	}
	return 0xFF
}

// WriteRegister writes to an audio register or wave RAM. While powered off
// only NR52 and wave RAM accept writes.
func (a *APU) WriteRegister(address uint16, value uint8) {
	switch {
	case address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd:
		a.ch3.writeRAM(address-addr.WaveRAMStart, value)
		return
	case address == addr.NR52:
		a.writePower(bit.IsSet(7, value))
		return
	case address < addr.NR10 || address > addr.NR51:
		return
	}

	if !a.enabled {
		return
	}
	a.registers[address-addr.NR10] = value

	switch address {
	case addr.NR10:
		a.ch1.writeSweep(value)
	case addr.NR11:
		a.ch1.writeLength(value)
	case addr.NR12:
		a.ch1.writeEnvelope(value)
	case addr.NR13:
		a.ch1.writePeriodLow(value)
	case addr.NR14:
		a.ch1.writeControl(value)
	case addr.NR21:
		a.ch2.writeLength(value)
	case addr.NR22:
		a.ch2.writeEnvelope(value)
	case addr.NR23:
		a.ch2.writePeriodLow(value)
	case addr.NR24:
		a.ch2.writeControl(value)
	case addr.NR30:
		a.ch3.writeDAC(value)
	case addr.NR31:
		a.ch3.writeLength(value)
	case addr.NR32:
		a.ch3.writeOutputLevel(value)
	case addr.NR33:
		a.ch3.writePeriodLow(value)
	case addr.NR34:
		a.ch3.writeControl(value)
	case addr.NR41:
		a.ch4.writeLength(value)
	case addr.NR42:
		a.ch4.writeEnvelope(value)
	case addr.NR43:
		a.ch4.writePolynomial(value)
	case addr.NR44:
		a.ch4.writeControl(value)
	case addr.NR50:
		a.nr50 = value
	case addr.NR51:
		a.nr51 = value
	}
}

// writePower handles NR52 bit 7. Powering off clears every register but
// keeps wave RAM; powering on restarts the frame sequencer.
func (a *APU) writePower(on bool) {
	switch {
	case a.enabled && !on:
		a.clearRegisters()
		a.enabled = false
	case !a.enabled && on:
		a.enabled = true
		a.frameStep = 0
		a.frameTicks = 0
	}
}

// MuteChannel mutes or unmutes a specific audio channel (1-4) for debugging
func (a *APU) MuteChannel(channel int, muted bool) {
	if channel >= 1 && channel <= 4 {
		a.muted[channel-1] = muted
	}
}

// ToggleChannel toggles muting for a specific channel
func (a *APU) ToggleChannel(channel int) {
	if channel >= 1 && channel <= 4 {
		a.muted[channel-1] = !a.muted[channel-1]
	}
}

// SoloChannel mutes all channels except the specified one
func (a *APU) SoloChannel(channel int) {
	for i := range a.muted {
		a.muted[i] = i != channel-1
	}
}

// UnmuteAll unmutes all channels
func (a *APU) UnmuteAll() {
	a.muted = [4]bool{}
}

// GetChannelStatus reports which channels are playing and not muted.
func (a *APU) GetChannelStatus() (ch1, ch2, ch3, ch4 bool) {
	return !a.muted[0] && a.ch1.enabled,
		!a.muted[1] && a.ch2.enabled,
		!a.muted[2] && a.ch3.enabled,
		!a.muted[3] && a.ch4.enabled
}

// GetChannelVolumes returns the current envelope volumes. Channel 3 reports
// its output level code.
func (a *APU) GetChannelVolumes() (ch1, ch2, ch3, ch4 uint8) {
	return a.ch1.envelope.volume, a.ch2.envelope.volume, a.ch3.outputLevel, a.ch4.envelope.volume
}

func (a *APU) WriteState(w *state.Writer) {
	w.Bool(a.enabled)
	a.ch1.writeState(w)
	a.ch2.writeState(w)
	a.ch3.writeState(w)
	a.ch4.writeState(w)
	w.Raw(a.registers[:])
	w.U8(a.nr50)
	w.U8(a.nr51)
	w.Int(a.frameStep)
	w.Int(a.frameTicks)
	w.Int(a.sampleAcc)

	w.Int(a.bufferPos)
	for _, s := range a.buffer[:a.bufferPos] {
		w.U16(uint16(s))
	}
}

func (a *APU) ReadState(r *state.Reader) {
	a.enabled = r.Bool()
	a.ch1.readState(r)
	a.ch2.readState(r)
	a.ch3.readState(r)
	a.ch4.readState(r)
	r.Raw(a.registers[:])
	a.nr50 = r.U8()
	a.nr51 = r.U8()
	a.frameStep = r.Int() & 7
	a.frameTicks = r.Int()
	a.sampleAcc = r.Int()
	if a.frameTicks < 0 || a.frameTicks >= ticksPerStep || a.sampleAcc < 0 || a.sampleAcc >= TicksPerSecond {
		r.Fail(state.ErrOutOfRange)
		return
	}

	pos := r.Int()
	if pos < 0 || pos > len(a.buffer)-2 || pos%2 != 0 {
		r.Fail(state.ErrOutOfRange)
		return
	}
	a.bufferPos = pos
	for i := range pos {
		a.buffer[i] = int16(r.U16())
	}
}
