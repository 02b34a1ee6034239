package debug

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth = 16
	wavChannels = 2
	wavPCM      = 1
)

// WAVRecorder streams the APU's interleaved stereo buffers to a 16-bit PCM
// WAV file. The header sizes are patched on Close.
type WAVRecorder struct {
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	frames  int
}

// NewWAVRecorder creates path and prepares it for samples at sampleRate.
func NewWAVRecorder(path string, sampleRate int) (*WAVRecorder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAV file %s: %w", path, err)
	}

	return &WAVRecorder{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, wavBitDepth, wavChannels, wavPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: wavChannels, SampleRate: sampleRate},
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

// Write appends interleaved left/right samples. It can be registered
// directly as the emulator's audio callback through a closure.
func (r *WAVRecorder) Write(samples []int16) error {
	if len(samples)%wavChannels != 0 {
		return fmt.Errorf("odd sample count %d for stereo stream", len(samples))
	}

	r.buf.Data = r.buf.Data[:0]
	for _, s := range samples {
		r.buf.Data = append(r.buf.Data, int(s))
	}
	r.frames += len(samples) / wavChannels
	return r.encoder.Write(r.buf)
}

// Frames returns how many stereo frames have been written.
func (r *WAVRecorder) Frames() int { return r.frames }

// Close finalizes the header and closes the file.
func (r *WAVRecorder) Close() error {
	return errors.Join(r.encoder.Close(), r.file.Close())
}
