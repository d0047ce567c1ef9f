package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ivlev/promo2video/internal/system"
)

// AudioLoadError means the track could not be probed or is unusable.
type AudioLoadError struct {
	Path string
	Err  error
}

func (e *AudioLoadError) Error() string { return fmt.Sprintf("load audio %s: %v", e.Path, e.Err) }
func (e *AudioLoadError) Unwrap() error { return e.Err }

// MuxEncodeError means ffmpeg failed to produce the muxed file.
type MuxEncodeError struct {
	Err error
}

func (e *MuxEncodeError) Error() string { return fmt.Sprintf("mux audio: %v", e.Err) }
func (e *MuxEncodeError) Unwrap() error { return e.Err }

// Prober reports the duration of a media file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Runner executes ffmpeg with the given arguments.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

type FFprobe struct{}

func (FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	return system.GetMediaDuration(ctx, path)
}

type FFmpegRunner struct{}

func (FFmpegRunner) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w, output: %s", err, strings.TrimSpace(out.String()))
	}
	return nil
}

type Input struct {
	SilentVideo   string
	VideoDuration float64
	AudioPath     string
	Output        string
}

// Result describes the delivered file. Warning is set when muxing was
// attempted and the silent video was delivered instead.
type Result struct {
	Output    string
	WithAudio bool
	Plan      Plan
	Warning   error
}

type Muxer struct {
	Prober Prober
	Runner Runner
	Log    logrus.FieldLogger
}

func NewMuxer(log logrus.FieldLogger) *Muxer {
	return &Muxer{Prober: FFprobe{}, Runner: FFmpegRunner{}, Log: log}
}

// Finalize turns the silent video into the final output, muxing the audio
// track when one is available. Mux failures degrade to the silent video;
// the only error is failing to deliver the silent video itself.
func (m *Muxer) Finalize(ctx context.Context, in Input) (Result, error) {
	if in.AudioPath == "" {
		m.Log.Info("No audio track, saving silent video")
		return m.deliverSilent(in, nil)
	}
	if _, err := os.Stat(in.AudioPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.Log.WithField("audio", in.AudioPath).Info("Audio track not found, saving silent video")
			return m.deliverSilent(in, nil)
		}
		return m.deliverSilent(in, &AudioLoadError{Path: in.AudioPath, Err: err})
	}

	audioDur, err := m.Prober.Duration(ctx, in.AudioPath)
	if err != nil {
		return m.deliverSilent(in, &AudioLoadError{Path: in.AudioPath, Err: err})
	}
	plan, err := Reconcile(in.VideoDuration, audioDur)
	if err != nil {
		return m.deliverSilent(in, &AudioLoadError{Path: in.AudioPath, Err: err})
	}
	m.Log.WithFields(logrus.Fields{
		"audio":    fmt.Sprintf("%.2fs", audioDur),
		"video":    fmt.Sprintf("%.2fs", in.VideoDuration),
		"mode":     plan.Mode,
		"loops":    plan.Loops,
		"duration": fmt.Sprintf("%.2fs", plan.AudioDuration(audioDur)),
	}).Info("Adding audio")

	tmp := tempPath(in.Output)
	if err := m.Runner.Run(ctx, BuildArgs(in.SilentVideo, in.AudioPath, tmp, plan)); err != nil {
		os.Remove(tmp)
		return m.deliverSilent(in, &MuxEncodeError{Err: err})
	}
	if err := os.Rename(tmp, in.Output); err != nil {
		os.Remove(tmp)
		return m.deliverSilent(in, &MuxEncodeError{Err: err})
	}
	if in.SilentVideo != in.Output {
		if err := os.Remove(in.SilentVideo); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.Log.WithError(err).Warn("Could not remove silent video")
		}
	}
	return Result{Output: in.Output, WithAudio: true, Plan: plan}, nil
}

func (m *Muxer) deliverSilent(in Input, warning error) (Result, error) {
	if warning != nil {
		m.Log.WithError(warning).Warn("Saving video without audio")
	}
	if in.SilentVideo != in.Output {
		if err := os.Rename(in.SilentVideo, in.Output); err != nil {
			return Result{}, fmt.Errorf("move silent video to %s: %w", in.Output, err)
		}
	}
	return Result{Output: in.Output, Warning: warning}, nil
}

// BuildArgs builds the ffmpeg arguments that copy the video stream and
// loop or trim the audio to plan.Duration.
func BuildArgs(videoPath, audioPath, output string, plan Plan) []string {
	video := ffmpeg.Input(videoPath)
	var track *ffmpeg.Stream
	if plan.Loops > 0 {
		track = ffmpeg.Input(audioPath, ffmpeg.KwArgs{"stream_loop": plan.Loops})
	} else {
		track = ffmpeg.Input(audioPath)
	}

	return ffmpeg.Output([]*ffmpeg.Stream{video.Video(), track.Audio()}, output, ffmpeg.KwArgs{
		"c:v": "copy",
		"c:a": "aac",
		"b:a": "192k",
		"t":   fmt.Sprintf("%.3f", plan.Duration),
	}).OverWriteOutput().GetArgs()
}

// tempPath keeps the extension so ffmpeg picks the same container.
func tempPath(output string) string {
	dir, base := filepath.Split(output)
	return filepath.Join(dir, ".mux-"+base)
}
