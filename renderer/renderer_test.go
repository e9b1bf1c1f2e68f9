package renderer

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/shaderquad/graphics"
	"github.com/richinsley/shaderquad/graphics/graphicstest"
	"github.com/richinsley/shaderquad/shader"
)

func newTestSurface(t *testing.T, dev *graphicstest.Device) *Surface {
	t.Helper()
	s := NewSurface(dev, shader.Default(false), 800, 800)
	require.NoError(t, s.Err())
	return s
}

func TestNewSurfaceResolvesProgramAndUniforms(t *testing.T) {
	dev := graphicstest.NewDevice()
	s := newTestSurface(t, dev)

	assert.NotZero(t, s.Program())
	assert.GreaterOrEqual(t, s.timeLoc, int32(0))
	assert.GreaterOrEqual(t, s.aspectLoc, int32(0))
	assert.GreaterOrEqual(t, s.positionLoc, int32(0))

	uploads := dev.Find("CreateBuffer")
	require.Len(t, uploads, 1)
	assert.Equal(t, quadVertices[:], uploads[0].Args[0])
	assert.Len(t, quadVertices, 12)

	ptr := dev.Find("VertexAttribPointer")
	require.Len(t, ptr, 1)
	assert.Equal(t, []any{uint32(0), int32(2), int32(8)}, ptr[0].Args)

	// Both stages are released once linked.
	assert.Equal(t, 2, dev.Count("DeleteShader"))
	assert.Zero(t, dev.Count("DeleteProgram"))
}

func TestNewSurfaceInvalidFragmentShader(t *testing.T) {
	dev := graphicstest.NewDevice()
	dev.CompileError = func(stage uint32, source string) string {
		if stage == graphics.FragmentStage {
			return "0:3: 'vec9' : undeclared identifier"
		}
		return ""
	}

	var s *Surface
	require.NotPanics(t, func() {
		s = NewSurface(dev, shader.Default(false), 800, 800)
	})

	assert.Zero(t, s.Program())
	require.Error(t, s.Err())

	var shaderErr *ShaderError
	require.True(t, errors.As(s.Err(), &shaderErr))
	assert.Equal(t, "fragment", shaderErr.Stage)
	assert.NotEmpty(t, shaderErr.Log)
	assert.Contains(t, s.Err().Error(), "vec9")

	// The failed stage and the orphaned vertex stage are both released and
	// no program is created.
	assert.Equal(t, 2, dev.Count("DeleteShader"))
	assert.Zero(t, dev.Count("CreateProgram"))
	assert.Equal(t, graphics.InvalidLocation, s.timeLoc)
	assert.Equal(t, graphics.InvalidLocation, s.aspectLoc)
}

func TestNewSurfaceReportsBothStageFailures(t *testing.T) {
	dev := graphicstest.NewDevice()
	dev.CompileError = func(stage uint32, source string) string {
		return "syntax error"
	}

	s := NewSurface(dev, shader.Default(false), 800, 800)
	require.Error(t, s.Err())
	assert.Contains(t, s.Err().Error(), "vertex")
	assert.Contains(t, s.Err().Error(), "fragment")
	assert.Equal(t, 2, dev.Count("ShaderInfoLog"))
}

func TestNewSurfaceLinkFailure(t *testing.T) {
	dev := graphicstest.NewDevice()
	dev.LinkError = "error: v_uv not written by vertex shader"

	s := NewSurface(dev, shader.Default(false), 800, 800)
	assert.Zero(t, s.Program())

	var shaderErr *ShaderError
	require.ErrorAs(t, s.Err(), &shaderErr)
	assert.Equal(t, "link", shaderErr.Stage)
	assert.Equal(t, dev.LinkError, shaderErr.Log)
	assert.Equal(t, 1, dev.Count("DeleteProgram"))
}

func TestBrokenProgramDrawsBlankFrames(t *testing.T) {
	dev := graphicstest.NewDevice()
	dev.LinkError = "link failed"
	s := NewSurface(dev, shader.Default(false), 800, 800)
	dev.Reset()

	require.NotPanics(t, func() {
		s.OnResize(800, 600)
		s.AdvanceFrame(16)
	})
	assert.Equal(t, 1, dev.Count("Clear"))
	assert.Zero(t, dev.Count("DrawTriangles"))
	assert.Zero(t, dev.Count("UseProgram"))
	assert.Zero(t, dev.Count("Uniform1f"))
	assert.Equal(t, [4]int32{0, 0, 800, 600}, dev.LastViewport)
}

func TestMissingUniformIsTolerated(t *testing.T) {
	dev := graphicstest.NewDevice()
	delete(dev.Uniforms, "aspectRatio")
	s := newTestSurface(t, dev)
	assert.Equal(t, graphics.InvalidLocation, s.aspectLoc)

	dev.Reset()
	require.NotPanics(t, func() {
		s.OnResize(1600, 800)
		s.AdvanceFrame(1000)
	})
	assert.Equal(t, 1, dev.Count("DrawTriangles"))
	assert.Equal(t, float32(2), s.Aspect())
	assert.InDelta(t, 1.0, dev.UniformValues[0], 1e-6)
}

func TestAdvanceFrameOrdering(t *testing.T) {
	dev := graphicstest.NewDevice()
	s := newTestSurface(t, dev)
	dev.Reset()

	s.AdvanceFrame(100)
	s.AdvanceFrame(250)

	assert.Equal(t, 250.0, s.Clock().Last)
	assert.Equal(t, 250.0, s.Clock().Elapsed)
	assert.Equal(t, int64(2), s.Clock().Frames)
	assert.Equal(t, 2, dev.Count("DrawTriangles"))

	// Each frame clears before it draws.
	var seq []string
	for _, op := range dev.Ops() {
		if op == "Clear" || op == "DrawTriangles" {
			seq = append(seq, op)
		}
	}
	assert.Equal(t, []string{"Clear", "DrawTriangles", "Clear", "DrawTriangles"}, seq)
	assert.Equal(t, [4]float32{1.0, 0.5, 0.7, 1.0}, dev.ClearRGBA)
}

func TestAdvanceFrameUsesRawTimestamp(t *testing.T) {
	dev := graphicstest.NewDevice()
	s := newTestSurface(t, dev)

	// A timestamp that runs backwards adds no elapsed time, but the
	// uniform still carries the raw value.
	s.AdvanceFrame(5000)
	s.AdvanceFrame(4000)

	assert.Equal(t, 5000.0, s.Clock().Last)
	assert.Equal(t, 5000.0, s.Clock().Elapsed)
	assert.InDelta(t, 4.0, dev.UniformValues[s.timeLoc], 1e-6)
}

func TestResizeGuardsDegenerateSizes(t *testing.T) {
	dev := graphicstest.NewDevice()
	s := newTestSurface(t, dev)

	require.NotPanics(t, func() {
		s.OnResize(800, 600)
		s.OnResize(0, 600)
		s.OnResize(800, 0)
		s.OnResize(-1, -1)
	})

	aspect := float64(s.Aspect())
	assert.False(t, math.IsInf(aspect, 0) || math.IsNaN(aspect))
	assert.InDelta(t, 800.0/600.0, aspect, 1e-6)
	assert.Equal(t, [4]int32{0, 0, 800, 600}, dev.LastViewport)
	assert.Equal(t, 1, dev.Count("Viewport"))

	w, h := s.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}

type storeSpy struct{ sizes [][2]int }

func (s *storeSpy) Resize(width, height int) {
	s.sizes = append(s.sizes, [2]int{width, height})
}

func TestResizeUpdatesBackingStore(t *testing.T) {
	dev := graphicstest.NewDevice()
	s := newTestSurface(t, dev)
	store := &storeSpy{}
	s.SetBackingStore(store)

	s.OnResize(640, 480)
	s.OnResize(0, 480)
	assert.Equal(t, [][2]int{{640, 480}}, store.sizes)
}

func TestEndToEndInitialFrame(t *testing.T) {
	dev := graphicstest.NewDevice()
	host := &graphicstest.Host{Width: 800, Height: 800}
	s := newTestSurface(t, dev)

	s.Attach(host)
	assert.Equal(t, [4]int32{0, 0, 800, 800}, dev.LastViewport)
	assert.Equal(t, float32(1.0), dev.UniformValues[s.aspectLoc])

	dev.Reset()
	require.Zero(t, s.Clock().Last)
	s.AdvanceFrame(16)

	assert.InDelta(t, 0.016, dev.UniformValues[s.timeLoc], 1e-7)
	draws := dev.Find("DrawTriangles")
	require.Len(t, draws, 1)
	assert.Equal(t, []any{int32(0), int32(6)}, draws[0].Args)
	assert.Equal(t, 16.0, s.Clock().Last)
}

func TestEndToEndHostResize(t *testing.T) {
	dev := graphicstest.NewDevice()
	host := &graphicstest.Host{Width: 800, Height: 800}
	s := newTestSurface(t, dev)
	s.Attach(host)
	s.AdvanceFrame(16)
	before := s.Clock()
	timeValue := dev.UniformValues[s.timeLoc]

	dev.Reset()
	host.Resize(1600, 800)

	assert.Equal(t, float32(2.0), dev.UniformValues[s.aspectLoc])
	assert.Equal(t, [4]int32{0, 0, 1600, 800}, dev.LastViewport)
	assert.Equal(t, before, s.Clock())
	assert.Equal(t, timeValue, dev.UniformValues[s.timeLoc])
	assert.Zero(t, dev.Count("DrawTriangles"))
}

func TestTranslatedNamesAreResolved(t *testing.T) {
	dev := graphicstest.NewDevice()
	dev.Uniforms = map[string]int32{"_utime": 3, "_uaspectRatio": 4}
	dev.Attribs = map[string]int32{"_ua_position": 2}

	src := shader.Default(true)
	src.Names = map[string]string{
		"time":        "_utime",
		"aspectRatio": "_uaspectRatio",
		"a_position":  "_ua_position",
	}
	s := NewSurface(dev, src, 800, 800)
	require.NoError(t, s.Err())
	assert.Equal(t, int32(3), s.timeLoc)
	assert.Equal(t, int32(4), s.aspectLoc)
	assert.Equal(t, int32(2), s.positionLoc)
}

func TestDestroy(t *testing.T) {
	dev := graphicstest.NewDevice()
	s := newTestSurface(t, dev)
	program, vao, vbo := s.program, s.vao, s.vbo

	s.Destroy()
	assert.True(t, dev.IsDeleted(program))
	assert.True(t, dev.IsDeleted(vao))
	assert.True(t, dev.IsDeleted(vbo))
	assert.Zero(t, s.Program())
}

func TestShaderErrorMessages(t *testing.T) {
	assert.Equal(t, "failed to link program: bad", (&ShaderError{Stage: "link", Log: "bad"}).Error())
	assert.True(t, strings.HasPrefix((&ShaderError{Stage: "vertex", Log: "x"}).Error(), "failed to compile vertex shader"))
	assert.Equal(t, "0x1234", stageName(0x1234))
}
