package options

import (
	"flag"
	"fmt"

	"github.com/richinsley/shaderquad/translator"
)

// ShaderOptions holds the viewer's command-line settings.
type ShaderOptions struct {
	Help       *bool
	Width      *int
	Height     *int
	ShaderDir  *string // directory holding the shader assets; empty uses the built-in pair
	Vertex     *string
	Fragment   *string
	WebGL      *bool   // sources are WebGL2 GLSL ES and must be translated
	Target     *string // translation output, see translator.ParseTarget
	VSync      *bool
	Record     *bool
	Duration   *float64
	FPS        *int
	OutputFile *string
	Codec      *string
	FFMPEGPath *string
}

// Register defines the viewer flags on fs.
func Register(fs *flag.FlagSet) *ShaderOptions {
	return &ShaderOptions{
		Help:       fs.Bool("help", false, "Show help message"),
		Width:      fs.Int("width", 800, "Width of the surface"),
		Height:     fs.Int("height", 800, "Height of the surface"),
		ShaderDir:  fs.String("shaders", "", "Directory containing the shader assets (built-in shaders if empty)"),
		Vertex:     fs.String("vertex", "VS.glsl", "Vertex shader asset name"),
		Fragment:   fs.String("fragment", "FS.glsl", "Fragment shader asset name"),
		WebGL:      fs.Bool("webgl", false, "Translate WebGL2 (GLSL ES 3.00) shader assets before compiling"),
		Target:     fs.String("target", translator.TargetGLSL410, "Shader translation target (glsl410, glsl330, essl)"),
		VSync:      fs.Bool("vsync", true, "Pace frames to the display refresh"),
		Record:     fs.Bool("record", false, "Render offscreen and encode to a video file"),
		Duration:   fs.Float64("duration", 10.0, "Duration to record in seconds"),
		FPS:        fs.Int("fps", 60, "Frames per second for recording"),
		OutputFile: fs.String("output", "output.mp4", "Output file name for recording"),
		Codec:      fs.String("codec", "h264", "Video codec for recording (h264, hevc)"),
		FFMPEGPath: fs.String("ffmpeg", "", "Path to ffmpeg executable"),
	}
}

// Validate checks the option values and normalizes Target.
func (o *ShaderOptions) Validate() error {
	if *o.Width <= 0 || *o.Height <= 0 {
		return fmt.Errorf("width and height must be positive, got %dx%d", *o.Width, *o.Height)
	}
	target, err := translator.ParseTarget(*o.Target)
	if err != nil {
		return err
	}
	*o.Target = target

	if !*o.Record {
		return nil
	}
	if *o.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", *o.FPS)
	}
	if *o.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", *o.Duration)
	}
	if *o.OutputFile == "" {
		return fmt.Errorf("output file is required when recording")
	}
	switch *o.Codec {
	case "h264", "hevc":
	default:
		return fmt.Errorf("unsupported codec %q (want h264 or hevc)", *o.Codec)
	}
	return nil
}
