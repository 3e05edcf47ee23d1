package game

import (
	"time"

	"voxelkit/internal/config"
)

// FrameClock measures frame times and caps the frame rate.
type FrameClock struct {
	next  time.Time
	start time.Time
	last  time.Time
}

func NewFrameClock() *FrameClock {
	return &FrameClock{last: time.Now()}
}

// Begin marks the start of a frame and returns the seconds since the
// previous Begin.
func (c *FrameClock) Begin() float64 {
	now := time.Now()
	dt := now.Sub(c.last).Seconds()
	c.last = now
	c.start = now
	return dt
}

// Elapsed returns the processing time since Begin and whether it crossed
// the slow frame threshold.
func (c *FrameClock) Elapsed() (time.Duration, bool) {
	d := time.Since(c.start)
	return d, d > time.Duration(config.GetSlowFrameThresholdMs())*time.Millisecond
}

// Wait blocks until the next frame is due under the FPS limit. It sleeps
// most of the interval and spins the last 200µs.
func (c *FrameClock) Wait() {
	limit := config.GetFPSLimit()
	if limit <= 0 {
		c.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)
	if c.next.IsZero() {
		c.next = time.Now().Add(target)
	} else {
		c.next = c.next.Add(target)
	}

	for {
		remaining := time.Until(c.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
	}

	// resync after a hitch instead of racing to catch up
	if late := -time.Until(c.next); late > target {
		c.next = time.Now().Add(target)
	}
}
