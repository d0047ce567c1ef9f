package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/promo2video/internal/audio"
	"github.com/ivlev/promo2video/internal/compositor"
	"github.com/ivlev/promo2video/internal/config"
	"github.com/ivlev/promo2video/internal/scene"
	"github.com/ivlev/promo2video/internal/sprite"
	"github.com/ivlev/promo2video/internal/system"
	"github.com/ivlev/promo2video/internal/video"
)

const defaultStatsLog = "benchmark.log"

// Finisher turns the silent video into the delivered file.
type Finisher interface {
	Finalize(ctx context.Context, in audio.Input) (audio.Result, error)
}

type Project struct {
	Config   config.Config
	Opener   video.Opener
	Finisher Finisher
	Loader   sprite.Loader
	Log      logrus.FieldLogger
	Progress Progress

	// StatsLog receives one line per run when Config.ShowStats is set.
	StatsLog string
}

type Result struct {
	Summary Summary
	Output  audio.Result
	Stats   system.Stats
}

func NewProject(cfg config.Config, opener video.Opener, fin Finisher, loader sprite.Loader, log logrus.FieldLogger) *Project {
	return &Project{
		Config:   cfg,
		Opener:   opener,
		Finisher: fin,
		Loader:   loader,
		Log:      log,
		StatsLog: defaultStatsLog,
	}
}

// Run renders the whole video. Only configuration problems, a sink that cannot
// be opened or finished, and a failed delivery of the silent video are errors.
func (p *Project) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid configuration: %w", err)
	}

	sc, err := scene.New(cfg.Scene, cfg.Width, cfg.Height)
	if err != nil {
		return Result{}, fmt.Errorf("build scene: %w", err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	p.Log.WithFields(logrus.Fields{
		"characters": len(cfg.Characters),
		"size":       fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"fps":        cfg.Timeline.FPS,
		"frames":     cfg.Timeline.TotalFrames(),
		"workers":    cfg.Workers,
		"seed":       seed,
	}).Info("Starting promo render")

	silent := silentPath(cfg.OutputVideo)
	sink, err := p.Opener.Open(ctx, silent, video.Params{
		Width:   cfg.Width,
		Height:  cfg.Height,
		FPS:     cfg.Timeline.FPS,
		Encoder: cfg.VideoEncoder,
		Quality: cfg.Quality,
	})
	if err != nil {
		var openErr *video.SinkOpenError
		if !errors.As(err, &openErr) {
			err = &video.SinkOpenError{Path: silent, Err: err}
		}
		return Result{}, err
	}
	closed := false
	defer func() {
		if !closed {
			sink.Close()
		}
	}()

	seq := NewSequencer(cfg, SequencerDeps{
		Loader:     p.Loader,
		Scene:      sc,
		Compositor: compositor.New(cfg.SpriteHeightLimit(), cfg.ChromaThreshold),
		Rand:       rand.New(rand.NewSource(seed)),
		Log:        p.Log,
		Progress:   p.Progress,
	})

	renderStart := time.Now()
	summary, err := seq.Render(ctx, sink)
	if p.Progress != nil {
		_ = p.Progress.Finish()
	}
	closed = true
	closeErr := sink.Close()
	if err != nil {
		os.Remove(silent)
		return Result{Summary: summary}, fmt.Errorf("render frames: %w", err)
	}
	if closeErr != nil {
		os.Remove(silent)
		return Result{Summary: summary}, fmt.Errorf("finish silent video: %w", closeErr)
	}
	renderTime := time.Since(renderStart)
	p.Log.WithField("frames", summary.Frames).Infof("Frames rendered in %.2fs", renderTime.Seconds())

	muxStart := time.Now()
	out, err := p.Finisher.Finalize(ctx, audio.Input{
		SilentVideo:   silent,
		VideoDuration: cfg.Timeline.Duration(),
		AudioPath:     cfg.AudioPath,
		Output:        cfg.OutputVideo,
	})
	if err != nil {
		return Result{Summary: summary}, err
	}
	p.Log.WithFields(logrus.Fields{
		"output": out.Output,
		"audio":  out.WithAudio,
	}).Info("Video saved")

	res := Result{
		Summary: summary,
		Output:  out,
		Stats: system.Stats{
			Build:  cfg.BuildVersion,
			Input:  cfg.OutputVideo,
			Frames: summary.Frames,
			Render: renderTime,
			Mux:    time.Since(muxStart),
			Total:  time.Since(start),
		},
	}
	if cfg.ShowStats {
		res.Stats.CollectMemory()
		p.writeStats(res.Stats)
	}
	return res, nil
}

func (p *Project) writeStats(s system.Stats) {
	path := p.StatsLog
	if path == "" {
		path = defaultStatsLog
	}
	if err := s.AppendLog(path, time.Now()); err != nil {
		p.Log.WithError(err).Warnf("Could not write %s", path)
	}
}

// silentPath places the intermediate video beside the output.
func silentPath(output string) string {
	dir, base := filepath.Split(output)
	return filepath.Join(dir, ".silent-"+base)
}
