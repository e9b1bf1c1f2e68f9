package renderer

import (
	"fmt"
	"log"
	"math"
)

// PixelSource yields the pixels of the frame just drawn.
type PixelSource interface {
	ReadPixels() []byte
}

// FrameWriter consumes rendered frames.
type FrameWriter interface {
	WriteFrame(pixels []byte) error
}

// Recorder is a FrameSource driven by a fixed-step clock instead of the
// display. Every ended frame is read back and handed to a FrameWriter.
type Recorder struct {
	src   PixelSource
	dst   FrameWriter
	fps   int
	total int
	frame int
	err   error
}

// NewRecorder returns a Recorder producing duration seconds of video at fps.
func NewRecorder(src PixelSource, dst FrameWriter, fps int, duration float64) (*Recorder, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %g", duration)
	}
	return &Recorder{
		src:   src,
		dst:   dst,
		fps:   fps,
		total: int(math.Ceil(duration * float64(fps))),
	}, nil
}

func (r *Recorder) ShouldClose() bool {
	return r.err != nil || r.frame >= r.total
}

func (r *Recorder) Time() float64 {
	return float64(r.frame) / float64(r.fps)
}

func (r *Recorder) EndFrame() {
	if r.err != nil {
		return
	}
	if err := r.dst.WriteFrame(r.src.ReadPixels()); err != nil {
		r.err = fmt.Errorf("failed to write frame %d: %w", r.frame, err)
		return
	}
	r.frame++
	if r.frame%r.fps == 0 || r.frame == r.total {
		log.Printf("Recorded %d/%d frames", r.frame, r.total)
	}
}

// Frames returns the number of frames written so far.
func (r *Recorder) Frames() int { return r.frame }

// Total returns the number of frames the recording will contain.
func (r *Recorder) Total() int { return r.total }

// Err returns the first write failure.
func (r *Recorder) Err() error { return r.err }
