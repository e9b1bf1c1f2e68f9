package renderer

import (
	"context"
	"log"
)

// FrameSource paces the render loop. Time reports seconds since the source
// started; EndFrame presents the frame just drawn and delivers any pending
// host events, such as size changes, before the next frame begins.
type FrameSource interface {
	ShouldClose() bool
	Time() float64
	EndFrame()
}

// Run draws frames until the source closes or ctx is cancelled. It returns
// ctx.Err() on cancellation and nil otherwise.
func (s *Surface) Run(ctx context.Context, src FrameSource) error {
	for !src.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.AdvanceFrame(src.Time() * 1000)
		src.EndFrame()
		s.logStats()
	}
	return nil
}

func (s *Surface) logStats() {
	if s.StatsInterval <= 0 {
		return
	}
	span := s.clock.Elapsed - s.statsElapsed
	if span < s.StatsInterval {
		return
	}
	frames := s.clock.Frames - s.statsFrames
	log.Printf("Rendered %d frames in %.1fs (%.1f fps)", frames, span/1000, float64(frames)*1000/span)
	s.statsElapsed = s.clock.Elapsed
	s.statsFrames = s.clock.Frames
}
