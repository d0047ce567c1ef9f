package engine

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/promo2video/internal/animation"
	"github.com/ivlev/promo2video/internal/compositor"
	"github.com/ivlev/promo2video/internal/config"
	"github.com/ivlev/promo2video/internal/scene"
	"github.com/ivlev/promo2video/internal/sprite"
	"github.com/ivlev/promo2video/internal/system"
	"github.com/ivlev/promo2video/internal/transform"
	"github.com/ivlev/promo2video/internal/video"
)

// Activation records one character's time on screen.
type Activation struct {
	Index       int
	RosterIndex int
	Path        string
	Kind        animation.Kind
	Status      sprite.Status
	Frames      int
}

type Summary struct {
	Frames      int
	Activations []Activation
}

// Sequencer turns the roster and timeline into an ordered frame stream.
// The random source is only used from the goroutine calling Render.
type Sequencer struct {
	cfg        config.Config
	roster     []string
	loader     sprite.Loader
	scene      *scene.Renderer
	compositor *compositor.Compositor
	rng        animation.Rand
	log        logrus.FieldLogger
	progress   Progress
	pool       *system.ImagePool
}

type SequencerDeps struct {
	Loader     sprite.Loader
	Scene      *scene.Renderer
	Compositor *compositor.Compositor
	Rand       animation.Rand
	Log        logrus.FieldLogger
	Progress   Progress
}

func NewSequencer(cfg config.Config, d SequencerDeps) *Sequencer {
	progress := d.Progress
	if progress == nil {
		progress = noProgress{}
	}
	return &Sequencer{
		cfg:        cfg,
		roster:     cfg.Characters,
		loader:     d.Loader,
		scene:      d.Scene,
		compositor: d.Compositor,
		rng:        d.Rand,
		log:        d.Log,
		progress:   progress,
		pool:       system.NewImagePool(),
	}
}

// Render emits exactly Timeline.TotalFrames frames to sink.
func (s *Sequencer) Render(ctx context.Context, sink video.Sink) (Summary, error) {
	total := s.cfg.Timeline.TotalFrames()
	perChar := s.cfg.Timeline.FramesPerCharacter()
	if perChar < 1 {
		return Summary{}, fmt.Errorf("frames per character must be at least 1, got %d", perChar)
	}

	roster := s.roster
	if len(roster) == 0 {
		s.log.Warn("Empty character roster, using the stand-in figure")
		roster = []string{""}
	}

	var sum Summary
	for k := 0; sum.Frames < total; k++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		idx := k % len(roster)
		act := Activation{Index: k, RosterIndex: idx, Path: roster[idx]}
		sp := s.loadSprite(&act)

		act.Kind = animation.PickKind(s.rng, s.cfg.Animations)
		curve, err := animation.Generate(act.Kind, perChar, s.rng)
		if err != nil {
			return sum, err
		}

		s.log.WithFields(logrus.Fields{
			"character": fmt.Sprintf("%d/%d", idx+1, len(roster)),
			"kind":      act.Kind,
			"sprite":    act.Status,
		}).Info("Processing character")

		n := min(len(curve), total-sum.Frames)
		if err := s.emit(ctx, sink, sp, curve[:n], &sum); err != nil {
			return sum, err
		}
		act.Frames = n
		sum.Activations = append(sum.Activations, act)
	}
	return sum, nil
}

// loadSprite substitutes the stand-in figure for this activation only.
func (s *Sequencer) loadSprite(act *Activation) sprite.Sprite {
	res := s.loader.Load(act.Path)
	act.Status = res.Status
	if res.Status == sprite.Loaded {
		return res.Sprite
	}
	s.log.WithError(res.Err).WithFields(logrus.Fields{
		"path":   act.Path,
		"status": res.Status,
	}).Warn("Sprite unavailable, using the stand-in figure")
	return sprite.Fallback()
}

// emit computes frames in batches of Workers and writes each batch in order.
func (s *Sequencer) emit(ctx context.Context, sink video.Sink, sp sprite.Sprite, curve animation.Curve, sum *Summary) error {
	workers := max(1, s.cfg.Workers)
	batch := make([]*image.RGBA, workers)

	for start := 0; start < len(curve); start += workers {
		end := min(start+workers, len(curve))
		frames := batch[:end-start]

		if len(frames) == 1 {
			frames[0] = s.frame(sp, curve[start])
		} else {
			g, _ := errgroup.WithContext(ctx)
			for j := range frames {
				g.Go(func() error {
					frames[j] = s.frame(sp, curve[start+j])
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
		}

		for j, frame := range frames {
			if err := sink.WriteFrame(frame); err != nil {
				return fmt.Errorf("write frame %d: %w", sum.Frames, err)
			}
			s.pool.Put(frame)
			frames[j] = nil
			sum.Frames++
			_ = s.progress.Add(1)
			s.logProgress(sum.Frames)
		}
	}
	return nil
}

func (s *Sequencer) frame(sp sprite.Sprite, t animation.Transform) *image.RGBA {
	canvas := s.pool.Get(s.scene.Bounds())
	s.scene.Render(canvas)
	working, dx, dy := transform.Apply(sp, t)
	s.compositor.Composite(canvas, working, dx, dy)
	return canvas
}

// logProgress reports every five seconds of video.
func (s *Sequencer) logProgress(done int) {
	step := s.cfg.Timeline.FPS * 5
	if step <= 0 || done%step != 0 {
		return
	}
	total := s.cfg.Timeline.TotalFrames()
	s.log.Debugf("Progress: %.1f%%", float64(done)/float64(total)*100)
}
