package serial

import (
	"log/slog"

	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/interrupt"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// ticksPerByte is 8 bits shifted at 8192 Hz, in 4-dot master ticks.
const ticksPerByte = 1024

// LogSink implements the serial port with no peer attached: outgoing bytes
// are logged as text, incoming bytes read as 0xFF. Handy for test roms that
// report over serial.
type LogSink struct {
	irq            interrupt.Requester
	sb, sc         uint8
	transferActive bool
	countdown      int
	logger         *slog.Logger

	// settings
	immediate bool
	defaultRX uint8 // shifted in when a transfer completes

	// line buffer for readable output
	line []byte
	// observers receive every outgoing byte
	observers []func(uint8)
}

type LogSinkOption func(*LogSink)

// WithImmediate completes transfers on the SC write instead of after the
// 8-bit shift time.
func WithImmediate() LogSinkOption { return func(s *LogSink) { s.immediate = true } }

// WithLogger replaces slog.Default as the line sink.
func WithLogger(l *slog.Logger) LogSinkOption { return func(s *LogSink) { s.logger = l } }

// WithObserver registers a function called with every byte sent.
func WithObserver(fn func(uint8)) LogSinkOption {
	return func(s *LogSink) { s.observers = append(s.observers, fn) }
}

// NewLogSink creates a new logging serial device. Completed transfers request
// the serial interrupt through irq.
func NewLogSink(irq interrupt.Requester, opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		irq:       irq,
		defaultRX: 0xFF,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

func (s *LogSink) Write(address uint16, value uint8) {
	switch address {
	case addr.SB:
		s.sb = value
	case addr.SC:
		s.sc = value
		s.maybeStartTransfer()
	}
}

func (s *LogSink) Read(address uint16) uint8 {
	switch address {
	case addr.SB:
		return s.sb
	case addr.SC:
		return s.sc | 0x7E
	}
	return 0xFF
}

// Clock advances an in-flight transfer by one master tick.
func (s *LogSink) Clock() {
	if !s.transferActive {
		return
	}
	s.countdown--
	if s.countdown <= 0 {
		s.completeTransfer()
	}
}

func (s *LogSink) Reset() {
	s.sb = 0x00
	s.sc = 0x00
	s.transferActive = false
	s.countdown = 0
	s.line = s.line[:0]
}

// Flush logs any partial line still buffered.
func (s *LogSink) Flush() {
	if len(s.line) > 0 {
		s.logger.Info("serial", "line", string(s.line))
		s.line = s.line[:0]
	}
}

func (s *LogSink) maybeStartTransfer() {
	if s.transferActive {
		return
	}
	// bit 7 starts a transfer, bit 0 selects the internal clock. With no
	// peer an external clock never shifts, so only internal transfers run.
	if !bit.IsSet(7, s.sc) || !bit.IsSet(0, s.sc) {
		return
	}

	b := s.sb
	for _, fn := range s.observers {
		fn(b)
	}
	if b == 0 || b == '\n' || b == '\r' {
		s.Flush()
	} else {
		s.line = append(s.line, b)
	}

	if s.immediate {
		s.completeTransfer()
		return
	}
	s.transferActive = true
	s.countdown = ticksPerByte
}

func (s *LogSink) completeTransfer() {
	s.sb = s.defaultRX
	s.sc = bit.Reset(7, s.sc)
	s.transferActive = false
	s.countdown = 0
	s.irq.RequestInterrupt(addr.SerialInterrupt)
}

func (s *LogSink) WriteState(w *state.Writer) {
	w.U8(s.sb)
	w.U8(s.sc)
	w.Bool(s.transferActive)
	w.Int(s.countdown)
}

func (s *LogSink) ReadState(r *state.Reader) {
	s.sb = r.U8()
	s.sc = r.U8()
	s.transferActive = r.Bool()
	s.countdown = r.Int()
	s.line = s.line[:0]
}
