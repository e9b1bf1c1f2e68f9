// Package graphicstest provides in-memory stand-ins for the graphics
// interfaces so rendering code can be exercised without a GL context.
package graphicstest

import (
	"fmt"
	"slices"

	"github.com/richinsley/shaderquad/graphics"
)

// Call is one recorded Device command.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

// Device records every command it receives and simulates the small amount
// of GL state the renderer depends on.
type Device struct {
	Calls []Call

	// CompileError, when set, is consulted for every compiled shader. A
	// non-empty return value fails the compile with that info log.
	CompileError func(stage uint32, source string) string
	// LinkError, when non-empty, fails every link with that info log.
	LinkError string

	// Attribs and Uniforms map names to the locations a linked program
	// reports. Unknown names resolve to graphics.InvalidLocation.
	Attribs  map[string]int32
	Uniforms map[string]int32

	// UniformValues holds the last value written to each location.
	UniformValues map[int32]float32
	LastViewport  [4]int32
	ClearRGBA     [4]float32
	Current       uint32
	Deleted       []uint32

	next    uint32
	sources map[uint32]shaderSource
	logs    map[uint32]string
}

type shaderSource struct {
	stage  uint32
	source string
}

// NewDevice returns a Device whose programs expose a_position, time and
// aspectRatio.
func NewDevice() *Device {
	return &Device{
		Attribs:       map[string]int32{"a_position": 0},
		Uniforms:      map[string]int32{"time": 0, "aspectRatio": 1},
		UniformValues: map[int32]float32{},
		sources:       map[uint32]shaderSource{},
		logs:          map[uint32]string{},
	}
}

var _ graphics.Device = (*Device)(nil)

func (d *Device) record(op string, args ...any) {
	d.Calls = append(d.Calls, Call{Op: op, Args: args})
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

// Ops returns the recorded operation names in order.
func (d *Device) Ops() []string {
	ops := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was recorded.
func (d *Device) Count(op string) int {
	n := 0
	for _, c := range d.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Find returns the recorded calls for op.
func (d *Device) Find(op string) []Call {
	var calls []Call
	for _, c := range d.Calls {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

// Reset forgets the recorded calls but keeps simulated state.
func (d *Device) Reset() {
	d.Calls = nil
}

// IsDeleted reports whether handle was passed to a Delete* call.
func (d *Device) IsDeleted(handle uint32) bool {
	return slices.Contains(d.Deleted, handle)
}

func (d *Device) CreateShader(stage uint32, source string) uint32 {
	h := d.handle()
	d.sources[h] = shaderSource{stage: stage, source: source}
	d.record("CreateShader", stage)
	return h
}

func (d *Device) CompileShader(shader uint32) bool {
	d.record("CompileShader", shader)
	if d.CompileError == nil {
		return true
	}
	src := d.sources[shader]
	if msg := d.CompileError(src.stage, src.source); msg != "" {
		d.logs[shader] = msg
		return false
	}
	return true
}

func (d *Device) ShaderInfoLog(shader uint32) string {
	d.record("ShaderInfoLog", shader)
	return d.logs[shader]
}

func (d *Device) DeleteShader(shader uint32) {
	d.record("DeleteShader", shader)
	d.Deleted = append(d.Deleted, shader)
}

func (d *Device) CreateProgram() uint32 {
	h := d.handle()
	d.record("CreateProgram", h)
	return h
}

func (d *Device) AttachShader(program, shader uint32) {
	d.record("AttachShader", program, shader)
}

func (d *Device) LinkProgram(program uint32) bool {
	d.record("LinkProgram", program)
	if d.LinkError != "" {
		d.logs[program] = d.LinkError
		return false
	}
	return true
}

func (d *Device) ProgramInfoLog(program uint32) string {
	d.record("ProgramInfoLog", program)
	return d.logs[program]
}

func (d *Device) DeleteProgram(program uint32) {
	d.record("DeleteProgram", program)
	d.Deleted = append(d.Deleted, program)
}

func (d *Device) UseProgram(program uint32) {
	d.record("UseProgram", program)
	d.Current = program
}

func (d *Device) CreateVertexArray() uint32 {
	h := d.handle()
	d.record("CreateVertexArray", h)
	return h
}

func (d *Device) BindVertexArray(vao uint32) {
	d.record("BindVertexArray", vao)
}

func (d *Device) DeleteVertexArray(vao uint32) {
	d.record("DeleteVertexArray", vao)
	d.Deleted = append(d.Deleted, vao)
}

func (d *Device) CreateBuffer(data []float32) uint32 {
	h := d.handle()
	d.record("CreateBuffer", slices.Clone(data))
	return h
}

func (d *Device) DeleteBuffer(buffer uint32) {
	d.record("DeleteBuffer", buffer)
	d.Deleted = append(d.Deleted, buffer)
}

func (d *Device) GetAttribLocation(program uint32, name string) int32 {
	d.record("GetAttribLocation", program, name)
	if loc, ok := d.Attribs[name]; ok && program != 0 {
		return loc
	}
	return graphics.InvalidLocation
}

func (d *Device) EnableVertexAttribArray(location uint32) {
	d.record("EnableVertexAttribArray", location)
}

func (d *Device) VertexAttribPointer(location uint32, size int32, stride int32) {
	d.record("VertexAttribPointer", location, size, stride)
}

func (d *Device) GetUniformLocation(program uint32, name string) int32 {
	d.record("GetUniformLocation", program, name)
	if loc, ok := d.Uniforms[name]; ok && program != 0 {
		return loc
	}
	return graphics.InvalidLocation
}

// Uniform1f ignores writes to InvalidLocation, as GL does.
func (d *Device) Uniform1f(location int32, v float32) {
	d.record("Uniform1f", location, v)
	if location == graphics.InvalidLocation {
		return
	}
	d.UniformValues[location] = v
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.record("ClearColor", r, g, b, a)
	d.ClearRGBA = [4]float32{r, g, b, a}
}

func (d *Device) Clear() {
	d.record("Clear")
}

func (d *Device) Viewport(x, y, width, height int32) {
	d.record("Viewport", x, y, width, height)
	d.LastViewport = [4]int32{x, y, width, height}
}

func (d *Device) DrawTriangles(first, count int32) {
	d.record("DrawTriangles", first, count)
}
