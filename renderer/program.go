package renderer

import (
	"errors"
	"fmt"

	"github.com/richinsley/shaderquad/graphics"
)

// ShaderError reports a shader stage that failed to compile, or a program
// that failed to link (Stage "link"), together with the driver's info log.
type ShaderError struct {
	Stage string
	Log   string
}

func (e *ShaderError) Error() string {
	if e.Stage == "link" {
		return fmt.Sprintf("failed to link program: %s", e.Log)
	}
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}

// newProgram compiles both stages and links them. Both stages are always
// compiled so every diagnostic is reported. On any failure all intermediate
// objects are deleted and the returned handle is 0.
func newProgram(dev graphics.Device, vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, vsErr := compileShader(dev, vertexShaderSource, graphics.VertexStage)
	fragmentShader, fsErr := compileShader(dev, fragmentShaderSource, graphics.FragmentStage)
	if vsErr != nil || fsErr != nil {
		if vertexShader != 0 {
			dev.DeleteShader(vertexShader)
		}
		if fragmentShader != 0 {
			dev.DeleteShader(fragmentShader)
		}
		return 0, errors.Join(vsErr, fsErr)
	}

	program := dev.CreateProgram()
	dev.AttachShader(program, vertexShader)
	dev.AttachShader(program, fragmentShader)
	linked := dev.LinkProgram(program)

	dev.DeleteShader(vertexShader)
	dev.DeleteShader(fragmentShader)

	if !linked {
		infoLog := dev.ProgramInfoLog(program)
		dev.DeleteProgram(program)
		return 0, &ShaderError{Stage: "link", Log: infoLog}
	}
	return program, nil
}

func compileShader(dev graphics.Device, source string, shaderType uint32) (uint32, error) {
	shader := dev.CreateShader(shaderType, source)
	if dev.CompileShader(shader) {
		return shader, nil
	}
	infoLog := dev.ShaderInfoLog(shader)
	dev.DeleteShader(shader)
	return 0, &ShaderError{Stage: stageName(shaderType), Log: infoLog}
}

func stageName(shaderType uint32) string {
	switch shaderType {
	case graphics.VertexStage:
		return "vertex"
	case graphics.FragmentStage:
		return "fragment"
	default:
		return fmt.Sprintf("0x%X", shaderType)
	}
}
