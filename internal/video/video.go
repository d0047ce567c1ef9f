package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/ivlev/promo2video/internal/system"
)

// Sink receives frames in playback order. WriteFrame must not retain the
// frame after it returns.
type Sink interface {
	WriteFrame(frame *image.RGBA) error
	Close() error
}

// Params describes the raw stream fed to a sink.
type Params struct {
	Width, Height int
	FPS           int
	Encoder       string
	Quality       int
}

// Opener creates the sink for the silent video.
type Opener interface {
	Open(ctx context.Context, path string, p Params) (Sink, error)
}

// SinkOpenError means the video output could not be created. It is the only
// fatal error of the frame pipeline.
type SinkOpenError struct {
	Path string
	Err  error
}

func (e *SinkOpenError) Error() string {
	return fmt.Sprintf("open video sink %s: %v", e.Path, e.Err)
}

func (e *SinkOpenError) Unwrap() error { return e.Err }

// FFmpegOpener starts ffmpeg reading raw RGBA frames from stdin.
type FFmpegOpener struct {
	Binary string
}

func (o *FFmpegOpener) Open(ctx context.Context, path string, p Params) (Sink, error) {
	if p.Width <= 0 || p.Height <= 0 || p.FPS <= 0 {
		return nil, &SinkOpenError{Path: path, Err: fmt.Errorf("invalid stream %dx%d@%d", p.Width, p.Height, p.FPS)}
	}
	bin := o.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, &SinkOpenError{Path: path, Err: err}
	}
	// Проверяем, что выходной файл вообще можно создать, до запуска ffmpeg.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, &SinkOpenError{Path: path, Err: err}
	}
	f.Close()

	cmd := exec.CommandContext(ctx, bin, BuildArgs(path, p)...)
	out := &bytes.Buffer{}
	cmd.Stdout = out
	cmd.Stderr = out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &SinkOpenError{Path: path, Err: fmt.Errorf("stdin pipe error: %w", err)}
	}
	if err := cmd.Start(); err != nil {
		return nil, &SinkOpenError{Path: path, Err: fmt.Errorf("ffmpeg start error: %w", err)}
	}

	return &ffmpegSink{
		cmd:   cmd,
		stdin: stdin,
		out:   out,
		rect:  image.Rect(0, 0, p.Width, p.Height),
	}, nil
}

// BuildArgs returns the ffmpeg arguments for a raw RGBA stdin stream.
func BuildArgs(path string, p Params) []string {
	encoder := p.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	quality := p.Quality
	if quality <= 0 {
		quality = system.DefaultQuality(encoder)
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
		"-an",
		"-pix_fmt", "yuv420p",
		"-c:v", encoder,
	}
	args = append(args, system.QualityArgs(encoder, quality)...)
	return append(args, path)
}

type ffmpegSink struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   *bytes.Buffer
	rect  image.Rectangle

	once     sync.Once
	closeErr error
}

func (s *ffmpegSink) WriteFrame(frame *image.RGBA) error {
	if frame.Rect != s.rect {
		return fmt.Errorf("frame %v does not match stream %v", frame.Rect, s.rect)
	}
	return writeRawRGBA(s.stdin, frame)
}

// Close finishes the stream and waits for ffmpeg. Safe to call twice.
func (s *ffmpegSink) Close() error {
	s.once.Do(func() {
		s.stdin.Close()
		if err := s.cmd.Wait(); err != nil {
			s.closeErr = fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, strings.TrimSpace(s.out.String()))
		}
	})
	return s.closeErr
}

func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	if img.Stride == img.Rect.Dx()*4 {
		_, err := w.Write(img.Pix[:img.Rect.Dy()*img.Stride])
		return err
	}
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		i := img.PixOffset(img.Rect.Min.X, y)
		if _, err := w.Write(img.Pix[i : i+img.Rect.Dx()*4]); err != nil {
			return err
		}
	}
	return nil
}
