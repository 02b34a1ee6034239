package timing

import (
	"log/slog"
	"time"
)

const (
	// spinWindow is how close to the deadline the limiter stops sleeping
	// and spins, since sleep overshoots by about a millisecond.
	spinWindow = 2 * time.Millisecond
	// maxLag is how far behind the limiter may fall before it gives up
	// catching up and restarts the schedule from now.
	maxLag = 5 * time.Duration(FrameDurationNanos)
	// reportEvery is the number of frames between measured rate reports.
	reportEvery = 300
)

// AdaptiveLimiter paces frames against an absolute schedule so that
// oversleeping one frame is paid back by the next ones.
type AdaptiveLimiter struct {
	frame    time.Duration
	deadline time.Time

	windowStart time.Time
	windowCount int
	measured    float64

	now   func() time.Time
	sleep func(time.Duration)
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	a := &AdaptiveLimiter{
		frame: FrameDuration(),
		now:   time.Now,
		sleep: time.Sleep,
	}
	a.Reset()
	return a
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := a.now()
	if lag := now.Sub(a.deadline); lag > maxLag {
		slog.Debug("Frame limiter fell behind, rescheduling", "lag", lag)
		a.deadline = now
	}

	for remaining := a.deadline.Sub(now); remaining > 0; remaining = a.deadline.Sub(now) {
		if remaining > spinWindow {
			a.sleep(remaining - spinWindow/2)
		}
		now = a.now()
	}

	a.deadline = a.deadline.Add(a.frame)
	a.measure(now)
}

// measure keeps the frame rate seen over the last reportEvery frames.
func (a *AdaptiveLimiter) measure(now time.Time) {
	a.windowCount++
	if a.windowCount < reportEvery {
		return
	}

	if elapsed := now.Sub(a.windowStart); elapsed > 0 {
		a.measured = float64(a.windowCount) / elapsed.Seconds()
		slog.Debug("Frame rate", "fps", a.measured, "target", TargetFPS())
	}
	a.windowStart = now
	a.windowCount = 0
}

// MeasuredFPS is the rate over the last complete window, 0 until one has
// elapsed.
func (a *AdaptiveLimiter) MeasuredFPS() float64 {
	return a.measured
}

// Reset restarts the schedule from now, used after a pause so the
// limiter does not rush through the frames it missed.
func (a *AdaptiveLimiter) Reset() {
	a.deadline = a.now()
	a.windowStart = a.deadline
	a.windowCount = 0
}
