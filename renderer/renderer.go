package renderer

import (
	"log"

	"github.com/richinsley/shaderquad/graphics"
	"github.com/richinsley/shaderquad/shader"
)

// Two independent triangles covering clip space.
var quadVertices = [...]float32{
	-1.0, -1.0, 1.0, -1.0, 1.0, 1.0,
	-1.0, -1.0, 1.0, 1.0, -1.0, 1.0,
}

const (
	quadComponents  = 2
	quadVertexCount = int32(len(quadVertices) / quadComponents)
)

var backgroundColor = [4]float32{1.0, 0.5, 0.7, 1.0}

// Surface owns the shader program, quad geometry and uniform state of a
// continuously animated full-screen quad.
type Surface struct {
	dev   graphics.Device
	store graphics.BackingStore

	program     uint32
	vao         uint32
	vbo         uint32
	positionLoc int32
	timeLoc     int32
	aspectLoc   int32

	width  int
	height int
	aspect float32
	clock  FrameClock
	err    error

	// StatsInterval is how much frame time, in milliseconds, passes between
	// frame rate log lines emitted by Run. Zero disables them.
	StatsInterval float64
	statsElapsed  float64
	statsFrames   int64
}

// NewSurface compiles src, uploads the quad and resolves the a_position
// attribute and the time and aspectRatio uniforms. Shader failures are
// logged and leave the surface drawing blank frames; Err reports them.
func NewSurface(dev graphics.Device, src shader.Program, width, height int) *Surface {
	s := &Surface{
		dev:           dev,
		width:         width,
		height:        height,
		aspect:        1,
		positionLoc:   graphics.InvalidLocation,
		timeLoc:       graphics.InvalidLocation,
		aspectLoc:     graphics.InvalidLocation,
		StatsInterval: 5000,
	}

	s.program, s.err = newProgram(dev, src.Vertex, src.Fragment)
	if s.err != nil {
		log.Printf("Shader program unavailable, frames will be blank: %v", s.err)
	}

	s.vao = dev.CreateVertexArray()
	dev.BindVertexArray(s.vao)
	s.vbo = dev.CreateBuffer(quadVertices[:])
	if s.program != 0 {
		s.positionLoc = dev.GetAttribLocation(s.program, src.Lookup("a_position"))
		if s.positionLoc != graphics.InvalidLocation {
			dev.EnableVertexAttribArray(uint32(s.positionLoc))
			dev.VertexAttribPointer(uint32(s.positionLoc), quadComponents, quadComponents*4)
		}
		s.timeLoc = dev.GetUniformLocation(s.program, src.Lookup("time"))
		s.aspectLoc = dev.GetUniformLocation(s.program, src.Lookup("aspectRatio"))
	}
	dev.BindVertexArray(0)

	return s
}

// Err returns the compile or link failure, if any.
func (s *Surface) Err() error { return s.err }

// Program returns the linked program handle, or 0 if none could be built.
func (s *Surface) Program() uint32 { return s.program }

// Clock returns a copy of the frame clock.
func (s *Surface) Clock() FrameClock { return s.clock }

// Aspect returns the aspect ratio last pushed to the aspectRatio uniform.
func (s *Surface) Aspect() float32 { return s.aspect }

// Size returns the current surface size in pixels.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// SetBackingStore sets the pixel store resized by OnResize.
func (s *Surface) SetBackingStore(store graphics.BackingStore) { s.store = store }

// Attach subscribes the surface to host size changes and applies the
// host's current framebuffer size.
func (s *Surface) Attach(host graphics.Context) {
	host.SetResizeCallback(s.OnResize)
	s.OnResize(host.GetFramebufferSize())
}

// AdvanceFrame draws one frame for the display refresh at timestampMillis.
func (s *Surface) AdvanceFrame(timestampMillis float64) {
	// The accumulated clock only feeds frame statistics; the shader sees
	// the raw timestamp in seconds.
	s.clock.Tick(timestampMillis)

	s.dev.ClearColor(backgroundColor[0], backgroundColor[1], backgroundColor[2], backgroundColor[3])
	s.dev.Clear()
	if s.program == 0 {
		return
	}

	s.dev.UseProgram(s.program)
	if s.timeLoc != graphics.InvalidLocation {
		s.dev.Uniform1f(s.timeLoc, float32(timestampMillis*0.001))
	}
	s.dev.BindVertexArray(s.vao)
	s.dev.DrawTriangles(0, quadVertexCount)
}

// OnResize resizes the backing store and updates the viewport and the
// aspectRatio uniform. Sizes with a zero or negative side are ignored.
func (s *Surface) OnResize(width, height int) {
	if width <= 0 || height <= 0 {
		log.Printf("Ignoring resize to degenerate size %dx%d", width, height)
		return
	}

	if s.store != nil {
		s.store.Resize(width, height)
	}
	s.width, s.height = width, height
	s.aspect = float32(width) / float32(height)

	s.dev.Viewport(0, 0, int32(width), int32(height))
	if s.program == 0 {
		return
	}
	s.dev.UseProgram(s.program)
	if s.aspectLoc != graphics.InvalidLocation {
		s.dev.Uniform1f(s.aspectLoc, s.aspect)
	}
}

// Destroy releases the program and the quad buffers.
func (s *Surface) Destroy() {
	if s.program != 0 {
		s.dev.DeleteProgram(s.program)
		s.program = 0
	}
	s.dev.DeleteBuffer(s.vbo)
	s.dev.DeleteVertexArray(s.vao)
}
