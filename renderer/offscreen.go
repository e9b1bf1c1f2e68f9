package renderer

import (
	"fmt"
	"log"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Offscreen is an RGBA8 framebuffer the surface can render into when no
// visible window is presented, e.g. while recording.
type Offscreen struct {
	fbo       uint32
	textureID uint32
	width     int
	height    int
	pixels    []byte
}

// NewOffscreen creates the framebuffer and leaves it bound.
func NewOffscreen(width, height int) (*Offscreen, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid offscreen size %dx%d", width, height)
	}
	o := &Offscreen{}

	gl.GenFramebuffers(1, &o.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, o.fbo)
	gl.GenTextures(1, &o.textureID)
	o.allocate(width, height)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, o.textureID, 0)
	if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
		o.Destroy()
		return nil, fmt.Errorf("offscreen fbo is not complete")
	}
	log.Printf("Offscreen FBO: %dx%d RGBA8", width, height)
	return o, nil
}

func (o *Offscreen) allocate(width, height int) {
	o.width, o.height = width, height
	gl.BindTexture(gl.TEXTURE_2D, o.textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// Bind makes the offscreen framebuffer the render target.
func (o *Offscreen) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, o.fbo)
}

// Resize reallocates the colour attachment.
func (o *Offscreen) Resize(width, height int) {
	if width == o.width && height == o.height {
		return
	}
	o.allocate(width, height)
}

// Size returns the framebuffer size in pixels.
func (o *Offscreen) Size() (int, int) { return o.width, o.height }

// ReadPixels returns the framebuffer contents as bottom-up RGBA rows. The
// returned slice is reused by the next call.
func (o *Offscreen) ReadPixels() []byte {
	n := o.width * o.height * 4
	if cap(o.pixels) < n {
		o.pixels = make([]byte, n)
	}
	o.pixels = o.pixels[:n]

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, o.fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(o.width), int32(o.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(o.pixels))
	return o.pixels
}

// Destroy releases the framebuffer and its texture.
func (o *Offscreen) Destroy() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if o.textureID != 0 {
		gl.DeleteTextures(1, &o.textureID)
		o.textureID = 0
	}
	if o.fbo != 0 {
		gl.DeleteFramebuffers(1, &o.fbo)
		o.fbo = 0
	}
}
