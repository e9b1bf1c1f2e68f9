package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/richinsley/shaderquad/encoder"
	"github.com/richinsley/shaderquad/glfwcontext"
	"github.com/richinsley/shaderquad/graphics"
	"github.com/richinsley/shaderquad/options"
	"github.com/richinsley/shaderquad/renderer"
	"github.com/richinsley/shaderquad/shader"
	"github.com/richinsley/shaderquad/translator"
)

func init() {
	runtime.LockOSThread()
}

func loadProgram(opts *options.ShaderOptions) (shader.Program, error) {
	var prog shader.Program
	if *opts.ShaderDir == "" {
		// The GLES pair is valid WebGL2 input for the translator.
		prog = shader.Default(*opts.WebGL)
	} else {
		p, err := shader.Load(os.DirFS(*opts.ShaderDir), *opts.Vertex, *opts.Fragment)
		if err != nil {
			return shader.Program{}, err
		}
		prog = p
	}

	if !*opts.WebGL {
		return prog, nil
	}
	if translator.IsGLES(*opts.Target) {
		log.Printf("Warning: %s output will not compile on a desktop core profile context", *opts.Target)
	}
	log.Printf("Translating shaders to %s", *opts.Target)
	return translator.Program(prog, *opts.Target)
}

func runInteractive(ctx context.Context, win *glfwcontext.Context, surface *renderer.Surface) error {
	surface.Attach(win)
	log.Println("Starting interactive render loop...")
	return surface.Run(ctx, win)
}

func runRecord(ctx context.Context, opts *options.ShaderOptions, surface *renderer.Surface) error {
	width, height := *opts.Width, *opts.Height

	target, err := renderer.NewOffscreen(width, height)
	if err != nil {
		return err
	}
	defer target.Destroy()
	surface.SetBackingStore(target)
	surface.OnResize(width, height)

	enc, err := encoder.New(encoder.Options{
		Width:      width,
		Height:     height,
		FPS:        *opts.FPS,
		Codec:      *opts.Codec,
		OutputFile: *opts.OutputFile,
		FFmpegPath: *opts.FFMPEGPath,
	})
	if err != nil {
		return err
	}

	rec, err := renderer.NewRecorder(target, enc, *opts.FPS, *opts.Duration)
	if err != nil {
		enc.Close()
		return err
	}

	log.Println("Starting offscreen render loop...")
	runErr := surface.Run(ctx, rec)
	closeErr := enc.Close()
	if runErr != nil {
		return runErr
	}
	if rec.Err() != nil {
		return rec.Err()
	}
	if closeErr != nil {
		return closeErr
	}
	log.Printf("Successfully rendered %d frames to %s", rec.Frames(), *opts.OutputFile)
	return nil
}

func main() {
	opts := options.Register(flag.CommandLine)
	flag.Parse()

	if *opts.Help {
		fmt.Println("Fullscreen Shader Quad Viewer/Recorder")
		flag.PrintDefaults()
		return
	}
	if err := opts.Validate(); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	prog, err := loadProgram(opts)
	if err != nil {
		log.Fatalf("Failed to load shaders: %v", err)
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		log.Fatalf("Failed to initialize graphics: %v", err)
	}
	defer glfwcontext.TerminateGraphics()

	// When recording, the window only provides the GL context.
	win, err := glfwcontext.New(glfwcontext.Options{
		Width:   *opts.Width,
		Height:  *opts.Height,
		Visible: !*opts.Record,
		VSync:   *opts.VSync,
	})
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	defer win.Shutdown()

	if err := graphics.InitGL(); err != nil {
		log.Fatalf("Failed to initialize OpenGL: %v", err)
	}

	// A surface whose program failed to build still clears to the
	// background color.
	surface := renderer.NewSurface(graphics.GL{}, prog, *opts.Width, *opts.Height)
	defer surface.Destroy()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *opts.Record {
		err = runRecord(ctx, opts, surface)
	} else {
		err = runInteractive(ctx, win, surface)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Render loop failed: %v", err)
		os.Exit(1)
	}
}
