package encoder

import (
	"fmt"
	"io"
	"log"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Options describes the video an Encoder produces.
type Options struct {
	Width      int
	Height     int
	FPS        int
	Codec      string // "h264" or "hevc"
	OutputFile string
	FFmpegPath string
}

// Encoder pipes raw RGBA frames into an ffmpeg process.
type Encoder struct {
	opts      Options
	frameSize int
	pw        *io.PipeWriter
	done      chan error
	frames    int64
}

// runStream runs the ffmpeg command with in as its standard input.
var runStream = func(s *ffmpeg.Stream, in io.Reader) error {
	return s.WithInput(in).Run()
}

func videoCodec(codec string) string {
	if codec == "hevc" {
		return "libx265"
	}
	return "libx264"
}

// Args returns the ffmpeg input and output arguments for opts. Frames are
// read bottom-up from GL, hence the vertical flip.
func Args(opts Options) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"r":       opts.FPS,
	}

	outputArgs = ffmpeg.KwArgs{
		"vf":      "vflip",
		"c:v":     videoCodec(opts.Codec),
		"pix_fmt": "yuv420p",
	}
	if opts.Codec == "hevc" && strings.HasSuffix(opts.OutputFile, ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	return
}

// New starts ffmpeg and returns an Encoder feeding it.
func New(opts Options) (*Encoder, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid video size %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", opts.FPS)
	}
	if opts.OutputFile == "" {
		return nil, fmt.Errorf("no output file given")
	}

	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := Args(opts)

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(opts.OutputFile, outputArgs).
		OverWriteOutput().ErrorToStdOut()
	if opts.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(opts.FFmpegPath)
	}

	e := &Encoder{
		opts:      opts,
		frameSize: opts.Width * opts.Height * 4,
		pw:        pipeWriter,
		done:      make(chan error, 1),
	}

	go func() {
		err := runStream(ffmpegCmd, pipeReader)
		// Unblock WriteFrame if ffmpeg exits before the input is drained.
		pipeReader.CloseWithError(io.ErrClosedPipe)
		e.done <- err
	}()

	log.Printf("Encoding %dx%d@%d to %s with %s", opts.Width, opts.Height, opts.FPS, opts.OutputFile, videoCodec(opts.Codec))
	return e, nil
}

// WriteFrame sends one RGBA frame to ffmpeg.
func (e *Encoder) WriteFrame(pixels []byte) error {
	if len(pixels) != e.frameSize {
		return fmt.Errorf("frame is %d bytes, want %d", len(pixels), e.frameSize)
	}
	if _, err := e.pw.Write(pixels); err != nil {
		return fmt.Errorf("failed to write frame %d to ffmpeg: %w", e.frames, err)
	}
	e.frames++
	return nil
}

// Frames returns the number of frames written.
func (e *Encoder) Frames() int64 { return e.frames }

// Close ends the input stream and waits for ffmpeg to finish.
func (e *Encoder) Close() error {
	e.pw.Close()
	if err := <-e.done; err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	log.Printf("Encoded %d frames to %s", e.frames, e.opts.OutputFile)
	return nil
}
