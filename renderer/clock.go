package renderer

// FrameClock tracks frame timestamps in milliseconds. It never runs
// backwards: a timestamp older than Last contributes no elapsed time.
// Last is the latest timestamp seen, not the most recent one passed to Tick.
type FrameClock struct {
	Last    float64
	Elapsed float64
	Frames  int64
}

// Tick records a frame at ts and returns the time elapsed since the
// previous frame.
func (c *FrameClock) Tick(ts float64) float64 {
	delta := ts - c.Last
	if delta < 0 {
		delta = 0
	}
	c.Elapsed += delta
	c.Last += delta
	c.Frames++
	return delta
}
