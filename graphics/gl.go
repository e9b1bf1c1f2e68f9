package graphics

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
)

var glInitOnce sync.Once

// InitGL loads the OpenGL function pointers. The context must be current on
// the calling thread. Subsequent calls are no-ops.
func InitGL() error {
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}
	return nil
}

// GL issues commands to the OpenGL context current on the calling thread.
type GL struct{}

func (GL) CreateShader(stage uint32, source string) uint32 {
	shader := gl.CreateShader(stage)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	return shader
}

func (GL) CompileShader(shader uint32) bool {
	gl.CompileShader(shader)
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status != gl.FALSE
}

func (GL) ShaderInfoLog(shader uint32) string {
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
	return strings.TrimRight(logText, "\x00")
}

func (GL) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (GL) CreateProgram() uint32 { return gl.CreateProgram() }

func (GL) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }

func (GL) LinkProgram(program uint32) bool {
	gl.LinkProgram(program)
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

func (GL) ProgramInfoLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
	return strings.TrimRight(logText, "\x00")
}

func (GL) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (GL) UseProgram(program uint32) { gl.UseProgram(program) }

func (GL) CreateVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (GL) BindVertexArray(vao uint32) { gl.BindVertexArray(vao) }

func (GL) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }

// CreateBuffer uploads data into a new STATIC_DRAW array buffer and leaves it
// bound to GL_ARRAY_BUFFER so a following VertexAttribPointer captures it.
func (GL) CreateBuffer(data []float32) uint32 {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	return vbo
}

func (GL) DeleteBuffer(buffer uint32) { gl.DeleteBuffers(1, &buffer) }

func (GL) GetAttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (GL) EnableVertexAttribArray(location uint32) { gl.EnableVertexAttribArray(location) }

func (GL) VertexAttribPointer(location uint32, size int32, stride int32) {
	gl.VertexAttribPointer(location, size, gl.FLOAT, false, stride, gl.PtrOffset(0))
}

func (GL) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (GL) Uniform1f(location int32, v float32) { gl.Uniform1f(location, v) }

func (GL) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (GL) Clear() { gl.Clear(gl.COLOR_BUFFER_BIT) }

func (GL) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }

func (GL) DrawTriangles(first, count int32) { gl.DrawArrays(gl.TRIANGLES, first, count) }
