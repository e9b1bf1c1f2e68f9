package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	gst "github.com/richinsley/goshadertranslator"

	"github.com/richinsley/shaderquad/shader"
)

// Output compatibility levels a WebGL2 source can be translated to.
const (
	TargetGLSL410 = "glsl410"
	TargetGLSL330 = "glsl330"
	TargetESSL    = "essl"
)

var targets = []string{TargetGLSL410, TargetGLSL330, TargetESSL}

// ParseTarget normalizes and validates a target name. An empty name
// selects TargetGLSL410.
func ParseTarget(name string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(name))
	if t == "" {
		return TargetGLSL410, nil
	}
	for _, known := range targets {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown shader target %q (want one of %s)", name, strings.Join(targets, ", "))
}

// IsGLES reports whether target produces GLSL ES output.
func IsGLES(target string) bool {
	return target == TargetESSL
}

var (
	translator     *gst.ShaderTranslator
	translatorErr  error
	translatorOnce sync.Once
)

// GetTranslator returns the process-wide translator, creating it on first
// use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	translatorOnce.Do(func() {
		translator, translatorErr = gst.NewShaderTranslator(context.Background())
	})
	return translator, translatorErr
}

// Translated is the output of translating one shader stage.
type Translated struct {
	Code string
	// Names maps identifiers declared in the input to the identifiers the
	// translator emitted for them.
	Names map[string]string
}

type cacheKey struct {
	source string
	stage  string
	target string
}

var translationCache, _ = lru.New[cacheKey, *Translated](64)

// TranslateStage translates a WebGL2 source for stage ("vertex" or
// "fragment") to target. Results are cached, so callers must not modify
// the returned value.
func TranslateStage(source, stage, target string) (*Translated, error) {
	key := cacheKey{source: source, stage: stage, target: target}
	if cached, ok := translationCache.Get(key); ok {
		return cached, nil
	}

	t, err := GetTranslator()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader translator: %w", err)
	}

	outputFormat := gst.OutputFormatGLSL410
	switch target {
	case TargetGLSL330:
		outputFormat = gst.OutputFormatGLSL330
	case TargetESSL:
		outputFormat = gst.OutputFormatESSL
	}
	res, err := t.TranslateShader(source, stage, gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return nil, fmt.Errorf("%s shader translation failed: %w", stage, err)
	}

	out := &Translated{Code: res.Code, Names: make(map[string]string, len(res.Variables))}
	for name, v := range res.Variables {
		out.Names[name] = v.MappedName
	}
	translationCache.Add(key, out)
	return out, nil
}

// Program translates both stages of p to target and merges their name
// mappings into the returned program.
func Program(p shader.Program, target string) (shader.Program, error) {
	vs, err := TranslateStage(p.Vertex, "vertex", target)
	if err != nil {
		return shader.Program{}, err
	}
	fs, err := TranslateStage(p.Fragment, "fragment", target)
	if err != nil {
		return shader.Program{}, err
	}
	return shader.Program{
		Vertex:   vs.Code,
		Fragment: fs.Code,
		Names:    MergeNames(vs.Names, fs.Names),
	}, nil
}

// MergeNames combines per-stage name maps. Identifiers shared by both
// stages are mapped identically by the translator.
func MergeNames(maps ...map[string]string) map[string]string {
	merged := map[string]string{}
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}
