package engine

import (
	"context"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/promo2video/internal/compositor"
	"github.com/ivlev/promo2video/internal/config"
	"github.com/ivlev/promo2video/internal/scene"
	"github.com/ivlev/promo2video/internal/sprite"
)

var (
	red     = color.RGBA{220, 20, 20, 255}
	green   = color.RGBA{20, 200, 20, 255}
	blue    = color.RGBA{20, 20, 220, 255}
	yellow  = color.RGBA{230, 210, 10, 255}
	magenta = color.RGBA{200, 20, 200, 255}
)

func solidSprite(c color.RGBA) sprite.Sprite {
	img := image.NewNRGBA(image.Rect(0, 0, 150, 150))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, 255
	}
	return sprite.Sprite{Img: img, Alpha: true}
}

// mapLoader serves solid sprites by path; anything else is missing.
type mapLoader map[string]color.RGBA

func (m mapLoader) Load(path string) sprite.LoadResult {
	c, ok := m[path]
	if !ok {
		return sprite.LoadResult{Status: sprite.Missing, Err: errors.New("not found")}
	}
	return sprite.LoadResult{Status: sprite.Loaded, Sprite: solidSprite(c)}
}

// recordingSink keeps the center pixel and a checksum of every frame.
type recordingSink struct {
	centers []color.RGBA
	sums    []uint32
	failAt  int
	closed  int
}

func (s *recordingSink) WriteFrame(frame *image.RGBA) error {
	if s.failAt > 0 && len(s.centers) == s.failAt {
		return errors.New("pipe closed")
	}
	b := frame.Bounds()
	s.centers = append(s.centers, frame.RGBAAt(b.Dx()/2, b.Dy()/2))
	s.sums = append(s.sums, crc32.ChecksumIEEE(frame.Pix))
	return nil
}

func (s *recordingSink) Close() error {
	s.closed++
	return nil
}

func testConfig(fps int, perChar, total float64, characters ...string) config.Config {
	cfg := config.Default()
	cfg.Width, cfg.Height = 640, 360
	cfg.Timeline = config.Timeline{FPS: fps, PerCharacterSeconds: perChar, TotalSeconds: total}
	cfg.Characters = characters
	cfg.Workers = 1
	cfg.Seed = 42
	return cfg
}

func newTestSequencer(t *testing.T, cfg config.Config, loader sprite.Loader) (*Sequencer, *test.Hook) {
	t.Helper()
	sc, err := scene.New(cfg.Scene, cfg.Width, cfg.Height)
	require.NoError(t, err)
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewSequencer(cfg, SequencerDeps{
		Loader:     loader,
		Scene:      sc,
		Compositor: compositor.New(cfg.SpriteHeightLimit(), cfg.ChromaThreshold),
		Rand:       rand.New(rand.NewSource(cfg.Seed)),
		Log:        log,
	}), hook
}

func render(t *testing.T, cfg config.Config, loader sprite.Loader) (Summary, *recordingSink) {
	t.Helper()
	seq, _ := newTestSequencer(t, cfg, loader)
	sink := &recordingSink{}
	sum, err := seq.Render(context.Background(), sink)
	require.NoError(t, err)
	return sum, sink
}

func TestTwoCharactersAlternate(t *testing.T) {
	cfg := testConfig(10, 1, 2, "a.png", "b.png")
	sum, sink := render(t, cfg, mapLoader{"a.png": red, "b.png": green})

	require.Equal(t, 20, sum.Frames)
	require.Len(t, sink.centers, 20)
	for i := 0; i < 10; i++ {
		assert.Equal(t, red, sink.centers[i], "frame %d", i)
		assert.Equal(t, green, sink.centers[10+i], "frame %d", 10+i)
	}
	require.Len(t, sum.Activations, 2)
	assert.Equal(t, 0, sum.Activations[0].RosterIndex)
	assert.Equal(t, 1, sum.Activations[1].RosterIndex)
}

func TestDefaultTimelineActivations(t *testing.T) {
	cfg := testConfig(30, 3, 60, "a.png", "b.png", "c.png")
	sum, sink := render(t, cfg, mapLoader{"a.png": red, "b.png": green, "c.png": blue})

	assert.Equal(t, 1800, sum.Frames)
	assert.Len(t, sink.centers, 1800)
	require.Len(t, sum.Activations, 20)
	for i, act := range sum.Activations {
		assert.Equal(t, 90, act.Frames)
		assert.Equal(t, i%3, act.RosterIndex)
	}
}

func TestRosterWraps(t *testing.T) {
	roster := mapLoader{"1": red, "2": green, "3": blue, "4": yellow, "5": magenta}
	cfg := testConfig(10, 1, 7, "1", "2", "3", "4", "5")
	sum, sink := render(t, cfg, roster)

	want := []int{0, 1, 2, 3, 4, 0, 1}
	require.Len(t, sum.Activations, len(want))
	for i, act := range sum.Activations {
		assert.Equal(t, want[i], act.RosterIndex)
		assert.Equal(t, roster[cfg.Characters[want[i]]], sink.centers[i*10])
	}
}

func TestTruncatesLastActivation(t *testing.T) {
	cfg := testConfig(10, 3, 4.5, "a.png")
	sum, sink := render(t, cfg, mapLoader{"a.png": red})

	assert.Equal(t, 45, sum.Frames)
	assert.Len(t, sink.centers, 45)
	require.Len(t, sum.Activations, 2)
	assert.Equal(t, 30, sum.Activations[0].Frames)
	assert.Equal(t, 15, sum.Activations[1].Frames)
}

func TestMissingSpriteUsesFallback(t *testing.T) {
	cfg := testConfig(10, 1, 2, "gone.png", "a.png")
	seq, hook := newTestSequencer(t, cfg, mapLoader{"a.png": red})
	sink := &recordingSink{}

	sum, err := seq.Render(context.Background(), sink)
	require.NoError(t, err)
	assert.Equal(t, 20, sum.Frames)
	assert.Equal(t, sprite.Missing, sum.Activations[0].Status)
	assert.Equal(t, sprite.Loaded, sum.Activations[1].Status)
	assert.NotEqual(t, red, sink.centers[0])
	assert.Equal(t, red, sink.centers[10])

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["path"] == "gone.png" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestEmptyRosterStillFillsTimeline(t *testing.T) {
	cfg := testConfig(10, 1, 3)
	sum, sink := render(t, cfg, mapLoader{})

	assert.Equal(t, 30, sum.Frames)
	assert.Len(t, sink.centers, 30)
	for _, act := range sum.Activations {
		assert.Equal(t, sprite.Missing, act.Status)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	loader := mapLoader{"a.png": red, "b.png": blue}
	cfg := testConfig(10, 1.3, 4, "a.png", "b.png")

	_, seqSink := render(t, cfg, loader)
	cfg.Workers = 4
	_, parSink := render(t, cfg, loader)

	require.Len(t, parSink.sums, 40)
	assert.Equal(t, seqSink.sums, parSink.sums)
}

func TestSeedIsReproducible(t *testing.T) {
	cfg := testConfig(10, 1, 6, "a.png")
	a, _ := render(t, cfg, mapLoader{"a.png": red})
	b, _ := render(t, cfg, mapLoader{"a.png": red})

	for i := range a.Activations {
		assert.Equal(t, a.Activations[i].Kind, b.Activations[i].Kind)
	}
}

func TestWriteErrorStopsRender(t *testing.T) {
	cfg := testConfig(10, 1, 2, "a.png")
	seq, _ := newTestSequencer(t, cfg, mapLoader{"a.png": red})
	sink := &recordingSink{failAt: 5}

	sum, err := seq.Render(context.Background(), sink)
	assert.Error(t, err)
	assert.Equal(t, 5, sum.Frames)
}

func TestCanceledContext(t *testing.T) {
	cfg := testConfig(10, 1, 2, "a.png")
	seq, _ := newTestSequencer(t, cfg, mapLoader{"a.png": red})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := seq.Render(ctx, &recordingSink{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Frames)
}
