package game

import (
	"testing"
	"time"

	"voxelkit/internal/config"
)

func TestFrameClockLimit(t *testing.T) {
	prev := config.GetFPSLimit()
	defer config.SetFPSLimit(prev)

	config.SetFPSLimit(100)
	c := NewFrameClock()
	start := time.Now()
	for i := 0; i < 5; i++ {
		c.Begin()
		c.Wait()
	}
	if d := time.Since(start); d < 40*time.Millisecond {
		t.Errorf("5 frames at 100 fps took only %v", d)
	}

	config.SetFPSLimit(0)
	start = time.Now()
	c.Wait()
	if d := time.Since(start); d > 5*time.Millisecond {
		t.Errorf("unlimited wait blocked for %v", d)
	}
}

func TestFrameClockSlowFrame(t *testing.T) {
	prev := config.GetSlowFrameThresholdMs()
	defer config.SetSlowFrameThresholdMs(prev)
	config.SetSlowFrameThresholdMs(1)

	c := NewFrameClock()
	c.Begin()
	if _, slow := c.Elapsed(); slow {
		t.Errorf("fresh frame should not be slow")
	}
	time.Sleep(3 * time.Millisecond)
	if d, slow := c.Elapsed(); !slow || d < 3*time.Millisecond {
		t.Errorf("expected a slow frame, got %v slow=%v", d, slow)
	}
}
