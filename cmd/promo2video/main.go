package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/ivlev/promo2video/internal/animation"
	"github.com/ivlev/promo2video/internal/audio"
	"github.com/ivlev/promo2video/internal/config"
	"github.com/ivlev/promo2video/internal/engine"
	"github.com/ivlev/promo2video/internal/logger"
	"github.com/ivlev/promo2video/internal/sprite"
	"github.com/ivlev/promo2video/internal/system"
	"github.com/ivlev/promo2video/internal/video"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

type runFunc func(ctx context.Context, cfg config.Config, log *logrus.Logger) error

func newApp(run runFunc) *cli.App {
	app := cli.NewApp()
	app.Name = "promo2video"
	app.Usage = "Render a festive promo video with dancing characters"
	app.UsageText = "promo2video generate [options]"
	app.Version = Version
	app.Commands = []cli.Command{
		{
			Name:    "generate",
			Aliases: []string{"g"},
			Usage:   "Render the video",
			Flags:   generateFlags(),
			Action: func(c *cli.Context) error {
				log := logger.New(os.Stderr, c.Bool("debug"))
				cfg, err := buildConfig(c)
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
				defer stop()
				return run(ctx, cfg, log)
			},
		},
	}
	return app
}

func generateFlags() []cli.Flag {
	def := config.Default()
	return []cli.Flag{
		cli.StringFlag{Name: "project, p", Usage: "YAML project file"},
		cli.StringSliceFlag{Name: "character, c", Usage: "character image (PNG, JPEG, GIF or PDF), repeatable"},
		cli.StringFlag{Name: "audio, a", Usage: "background music"},
		cli.StringFlag{Name: "output, o", Value: def.OutputVideo, Usage: "output video"},
		cli.StringFlag{Name: "preset", Usage: "format preset: 16:9, 9:16, 4:5"},
		cli.IntFlag{Name: "width", Value: def.Width, Usage: "canvas width"},
		cli.IntFlag{Name: "height", Value: def.Height, Usage: "canvas height"},
		cli.IntFlag{Name: "fps", Value: def.Timeline.FPS, Usage: "frames per second"},
		cli.Float64Flag{Name: "character-seconds", Value: def.Timeline.PerCharacterSeconds, Usage: "seconds on screen per character"},
		cli.Float64Flag{Name: "duration, d", Value: def.Timeline.TotalSeconds, Usage: "total video length in seconds"},
		cli.StringSliceFlag{Name: "animation", Usage: "allowed motion (bounce, wiggle, spin, shake, sway, hop), repeatable"},
		cli.IntFlag{Name: "workers, w", Value: runtime.NumCPU(), Usage: "frame rendering goroutines"},
		cli.Int64Flag{Name: "seed", Usage: "random seed, 0 picks one"},
		cli.StringFlag{Name: "encoder", Value: def.VideoEncoder, Usage: "video encoder, auto detects hardware H.264"},
		cli.IntFlag{Name: "quality, q", Usage: "encoder quality, 0 uses the encoder default"},
		cli.BoolFlag{Name: "stats", Usage: "print a performance report and append it to benchmark.log"},
		cli.BoolFlag{Name: "debug", Usage: "debug logging"},
	}
}

// buildConfig layers defaults, the project file and explicitly set flags.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("project"); path != "" {
		f, err := config.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("project file: %w", err)
		}
		if cfg, err = f.Apply(cfg); err != nil {
			return cfg, fmt.Errorf("project file %s: %w", path, err)
		}
	}

	if c.IsSet("character") {
		cfg.Characters = c.StringSlice("character")
	}
	if c.IsSet("audio") {
		cfg.AudioPath = c.String("audio")
	}
	if c.IsSet("output") {
		cfg.OutputVideo = c.String("output")
	}
	switch c.String("preset") {
	case "":
	case "16:9":
		cfg.Width, cfg.Height = 1920, 1080
	case "9:16":
		cfg.Width, cfg.Height = 1080, 1920
	case "4:5":
		cfg.Width, cfg.Height = 1080, 1350
	default:
		return cfg, fmt.Errorf("unknown preset %q", c.String("preset"))
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("fps") {
		cfg.Timeline.FPS = c.Int("fps")
	}
	if c.IsSet("character-seconds") {
		cfg.Timeline.PerCharacterSeconds = c.Float64("character-seconds")
	}
	if c.IsSet("duration") {
		cfg.Timeline.TotalSeconds = c.Float64("duration")
	}
	if c.IsSet("animation") {
		kinds, err := animation.ParseKinds(c.StringSlice("animation"))
		if err != nil {
			return cfg, err
		}
		cfg.Animations = kinds
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Int64("seed")
	}
	if c.IsSet("encoder") {
		cfg.VideoEncoder = c.String("encoder")
		cfg.Quality = 0
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	cfg.ShowStats = c.Bool("stats")
	cfg.BuildVersion = Version
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	if cfg.VideoEncoder == "auto" {
		cfg.VideoEncoder = system.GetBestH264Encoder(ctx)
		log.WithField("encoder", cfg.VideoEncoder).Info("Selected video encoder")
	}
	if cfg.Quality <= 0 {
		cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
	}
	if dir := filepath.Dir(cfg.OutputVideo); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	p := engine.NewProject(cfg, &video.FFmpegOpener{}, audio.NewMuxer(log), sprite.NewFileLoader(cfg.SpriteDPI), log)
	p.Progress = engine.NewProgressBar(os.Stderr, cfg.Timeline.TotalFrames(), "Rendering")

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if cfg.ShowStats {
		fmt.Print(res.Stats.Report())
	}
	return nil
}

func main() {
	if err := newApp(run).Run(os.Args); err != nil {
		logger.New(os.Stderr, false).Fatal(err)
	}
}
