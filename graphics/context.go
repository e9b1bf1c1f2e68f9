package graphics

// InvalidLocation is returned for attribute and uniform names the linked
// program does not expose. Writes to it are skipped.
const InvalidLocation int32 = -1

// Context defines the interface for an OpenGL host surface.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
	// SetResizeCallback registers f to be called with the new framebuffer
	// size whenever the host surface changes size.
	SetResizeCallback(f func(width, height int))
}

// BackingStore is the pixel storage a surface renders into.
type BackingStore interface {
	Resize(width, height int)
}

// Device is the subset of OpenGL the renderer issues.
type Device interface {
	CreateShader(stage uint32, source string) uint32
	CompileShader(shader uint32) bool
	ShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32) bool
	ProgramInfoLog(program uint32) string
	DeleteProgram(program uint32)
	UseProgram(program uint32)

	CreateVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)
	CreateBuffer(data []float32) uint32
	DeleteBuffer(buffer uint32)

	GetAttribLocation(program uint32, name string) int32
	EnableVertexAttribArray(location uint32)
	VertexAttribPointer(location uint32, size int32, stride int32)
	GetUniformLocation(program uint32, name string) int32
	Uniform1f(location int32, v float32)

	ClearColor(r, g, b, a float32)
	Clear()
	Viewport(x, y, width, height int32)
	DrawTriangles(first, count int32)
}

// Shader stages accepted by Device.CreateShader.
const (
	VertexStage   uint32 = 0x8B31 // GL_VERTEX_SHADER
	FragmentStage uint32 = 0x8B30 // GL_FRAGMENT_SHADER
)
