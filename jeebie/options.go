package jeebie

import (
	"github.com/valerio/go-jeebie-color/jeebie/audio"
	"github.com/valerio/go-jeebie-color/jeebie/memory"
	"github.com/valerio/go-jeebie-color/jeebie/serial"
)

// Boot ROM sizes accepted by WithBootROM.
const (
	dmgBootROMSize = 0x100
	cgbBootROMSize = 0x900
)

type config struct {
	sampleRate   int
	bufferFrames int
	gain         float64
	bootROM      []byte
	clock        memory.Clock
	forceDMG     bool
	serialOpts   []serial.LogSinkOption
}

func defaultConfig() config {
	return config{
		sampleRate:   audio.DefaultSampleRate,
		bufferFrames: audio.DefaultBufferFrames,
		gain:         1.0,
		clock:        memory.SystemClock,
	}
}

// Option configures an Emulator.
type Option func(*config)

// WithSampleRate sets the audio output rate in Hz.
func WithSampleRate(rate int) Option {
	return func(c *config) { c.sampleRate = rate }
}

// WithAudioBufferSize sets how many stereo frames each audio callback gets.
func WithAudioBufferSize(frames int) Option {
	return func(c *config) { c.bufferFrames = frames }
}

// WithMasterGain scales the mixed audio output. It is a user setting and
// is not part of save states.
func WithMasterGain(gain float64) Option {
	return func(c *config) { c.gain = gain }
}

// WithBootROM maps a boot ROM over the cartridge until the program writes
// to 0xFF50. A 256 byte image is a monochrome boot ROM, 2304 bytes a color one.
func WithBootROM(data []byte) Option {
	return func(c *config) { c.bootROM = append([]byte(nil), data...) }
}

// WithClock sets the wall clock driving cartridge real-time clocks.
func WithClock(clock memory.Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithForceDMG runs color capable cartridges in monochrome mode.
func WithForceDMG() Option {
	return func(c *config) { c.forceDMG = true }
}

// WithSerialObserver receives every byte the program sends over the link port.
func WithSerialObserver(fn func(uint8)) Option {
	return func(c *config) { c.serialOpts = append(c.serialOpts, serial.WithObserver(fn)) }
}
