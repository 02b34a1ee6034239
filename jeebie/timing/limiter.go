package timing

import "time"

// Limiter paces the main loop to the hardware frame rate.
type Limiter interface {
	// WaitForNextFrame blocks until the next frame is due. It returns at
	// once when the loop is behind.
	WaitForNextFrame()
	// Reset drops the schedule, after a pause or a state load.
	Reset()
}

// NewNoOpLimiter returns a limiter that never waits, for headless runs.
func NewNoOpLimiter() Limiter {
	return noOpLimiter{}
}

type noOpLimiter struct{}

func (noOpLimiter) WaitForNextFrame() {}
func (noOpLimiter) Reset()            {}

// Dots are the 4 MHz clock; the master tick is 4 dots, the CPU M-cycle in
// single speed.
const (
	DotsPerFrame  = 70224
	DotsPerSecond = 4194304
	DotsPerTick   = 4

	TicksPerFrame  = DotsPerFrame / DotsPerTick
	TicksPerSecond = DotsPerSecond / DotsPerTick

	// FrameDurationNanos is one frame, rounded down to the nanosecond.
	FrameDurationNanos = DotsPerFrame * int64(time.Second) / DotsPerSecond
)

// TargetFPS is the hardware frame rate, about 59.73 Hz.
func TargetFPS() float64 {
	return float64(DotsPerSecond) / float64(DotsPerFrame)
}

func FrameDuration() time.Duration {
	return time.Duration(FrameDurationNanos)
}
