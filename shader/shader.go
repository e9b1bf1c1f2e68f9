package shader

import (
	"fmt"
	"io/fs"
)

// ────────────────────────────────── Desktop GL ──────────────────────────────────

const vertexShaderSourceGL = `#version 410 core
in vec2 a_position;
out vec2 v_uv;
void main() {
    v_uv = a_position * 0.5 + 0.5;
    gl_Position = vec4(a_position, 0.0, 1.0);
}
`

const fragmentShaderSourceGL = `#version 410 core
in vec2 v_uv;
out vec4 fragColor;
uniform float time;
uniform float aspectRatio;
void main() {
    vec2 p = (v_uv * 2.0 - 1.0) * vec2(aspectRatio, 1.0);
    float wave = 0.5 + 0.5 * sin(10.0 * length(p) - 3.0 * time);
    fragColor = vec4(mix(vec3(1.0, 0.5, 0.7), vec3(0.2, 0.3, 0.9), wave), 1.0);
}
`

// ──────────────────────────────────── GLES ──────────────────────────────────────

const vertexShaderSourceGLES = `#version 300 es
in vec2 a_position;
out vec2 v_uv;
void main() {
    v_uv = a_position * 0.5 + 0.5;
    gl_Position = vec4(a_position, 0.0, 1.0);
}
`

const fragmentShaderSourceGLES = `#version 300 es
precision highp float;
in vec2 v_uv;
out vec4 fragColor;
uniform float time;
uniform float aspectRatio;
void main() {
    vec2 p = (v_uv * 2.0 - 1.0) * vec2(aspectRatio, 1.0);
    float wave = 0.5 + 0.5 * sin(10.0 * length(p) - 3.0 * time);
    fragColor = vec4(mix(vec3(1.0, 0.5, 0.7), vec3(0.2, 0.3, 0.9), wave), 1.0);
}
`

// ────────────────────────────────── Public API ─────────────────────────────────

// Program is a vertex/fragment source pair. Names maps the identifiers the
// renderer looks up (a_position, time, aspectRatio) to the identifiers the
// compiled sources actually declare, for sources that went through a
// translator that renames them.
type Program struct {
	Vertex   string
	Fragment string
	Names    map[string]string
}

// Lookup returns the identifier name is declared as in the sources.
func (p Program) Lookup(name string) string {
	if mapped, ok := p.Names[name]; ok && mapped != "" {
		return mapped
	}
	return name
}

// Default returns the built-in quad program.
func Default(isGLES bool) Program {
	if isGLES {
		return Program{Vertex: vertexShaderSourceGLES, Fragment: fragmentShaderSourceGLES}
	}
	return Program{Vertex: vertexShaderSourceGL, Fragment: fragmentShaderSourceGL}
}

// Load reads a vertex and fragment source pair from fsys by name.
func Load(fsys fs.FS, vertexName, fragmentName string) (Program, error) {
	vert, err := fs.ReadFile(fsys, vertexName)
	if err != nil {
		return Program{}, fmt.Errorf("failed to load vertex shader: %w", err)
	}
	frag, err := fs.ReadFile(fsys, fragmentName)
	if err != nil {
		return Program{}, fmt.Errorf("failed to load fragment shader: %w", err)
	}
	return Program{Vertex: string(vert), Fragment: string(frag)}, nil
}
