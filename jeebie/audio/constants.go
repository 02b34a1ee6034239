package audio

import "github.com/valerio/go-jeebie-color/jeebie/timing"

// Timing constants
// Reference: https://gbdev.io/pandocs/Audio_details.html
const (
	// TicksPerSecond is the master tick rate the APU is clocked at.
	TicksPerSecond = timing.TicksPerSecond

	// cyclesPerTick is the number of T-cycles channel timers advance per tick.
	cyclesPerTick = 4

	// ticksPerStep is the number of ticks per frame sequencer step. The
	// sequencer runs at 512 Hz.
	ticksPerStep = TicksPerSecond / 512
)

// Defaults for the sample stream.
const (
	DefaultSampleRate = 44100
	// DefaultBufferFrames is the number of stereo frames per callback.
	DefaultBufferFrames = 1024

	// mixerScale brings the summed channel range up to 16 bit: 4 channels
	// of ±15, times master volume 8, times 64 peaks at 30720.
	mixerScale = 64
)

// Channel constants
const (
	// waveRAMSize is the size of wave pattern RAM in bytes (16 bytes = 32 nibbles)
	waveRAMSize = 16

	pulseLength = 64
	waveLength  = 256
	noiseLength = 64

	lfsrInitialValue = 0x7FFF

	maxPeriod = 2047
)

// dutyPatterns are the 8 step waveforms of the pulse channels, 12.5%,
// 25%, 50% and 75%. Bit 7 is step 0.
var dutyPatterns = [4]uint8{
	0b00000001,
	0b10000001,
	0b10000111,
	0b01111110,
}

// readMasks are ORed into register reads from NR10 to NR51: write only
// bits and unused bits read back as 1.
var readMasks = [0x16]uint8{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // unused, NR21-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // unused, NR41-NR44
	0x00, 0x00, // NR50, NR51
}
