package graphicstest

import "github.com/richinsley/shaderquad/graphics"

// Host is a scripted graphics.Context. Each EndFrame advances Time by Step
// seconds; the host reports ShouldClose once CloseAfter frames have ended.
type Host struct {
	Width, Height int
	Step          float64
	CloseAfter    int

	// OnEndFrame, when set, runs after each frame with the number of frames
	// ended so far. Tests use it to inject resize events between frames.
	OnEndFrame func(frames int)

	Frames    int
	Destroyed bool

	now      float64
	onResize func(width, height int)
}

var _ graphics.Context = (*Host)(nil)

func (h *Host) MakeCurrent() {}

func (h *Host) Shutdown() { h.Destroyed = true }

func (h *Host) ShouldClose() bool {
	return h.CloseAfter > 0 && h.Frames >= h.CloseAfter
}

func (h *Host) EndFrame() {
	h.Frames++
	h.now += h.Step
	if h.OnEndFrame != nil {
		h.OnEndFrame(h.Frames)
	}
}

func (h *Host) GetFramebufferSize() (int, int) { return h.Width, h.Height }

func (h *Host) Time() float64 { return h.now }

func (h *Host) SetResizeCallback(f func(width, height int)) { h.onResize = f }

// Resize changes the framebuffer size and notifies the registered callback.
func (h *Host) Resize(width, height int) {
	h.Width, h.Height = width, height
	if h.onResize != nil {
		h.onResize(width, height)
	}
}
