package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/promo2video/internal/audio"
	"github.com/ivlev/promo2video/internal/video"
)

// fakeOpener creates the silent file like ffmpeg would and records frames.
type fakeOpener struct {
	err    error
	path   string
	params video.Params
	sink   *recordingSink
}

func (o *fakeOpener) Open(_ context.Context, path string, p video.Params) (video.Sink, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.path, o.params = path, p
	if err := os.WriteFile(path, []byte("silent"), 0644); err != nil {
		return nil, &video.SinkOpenError{Path: path, Err: err}
	}
	o.sink = &recordingSink{}
	return o.sink, nil
}

type countingProgress struct {
	added    int
	finished bool
}

func (p *countingProgress) Add(n int) error { p.added += n; return nil }
func (p *countingProgress) Finish() error   { p.finished = true; return nil }

func newTestProject(t *testing.T, opener video.Opener) (*Project, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := testConfig(10, 1, 2, "a.png", "b.png")
	cfg.OutputVideo = filepath.Join(dir, "promo.mp4")
	cfg.Workers = 2

	log, _ := test.NewNullLogger()
	muxer := &audio.Muxer{Log: log}
	p := NewProject(cfg, opener, muxer, mapLoader{"a.png": red, "b.png": green}, log)
	p.StatsLog = filepath.Join(dir, "benchmark.log")
	return p, dir
}

func TestProjectRunDeliversSilentVideo(t *testing.T) {
	opener := &fakeOpener{}
	p, dir := newTestProject(t, opener)
	progress := &countingProgress{}
	p.Progress = progress

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 20, res.Summary.Frames)
	assert.Equal(t, 20, res.Stats.Frames)
	assert.False(t, res.Output.WithAudio)
	assert.Equal(t, filepath.Join(dir, ".silent-promo.mp4"), opener.path)
	assert.Equal(t, video.Params{Width: 640, Height: 360, FPS: 10, Encoder: "libx264", Quality: 23}, opener.params)
	assert.FileExists(t, p.Config.OutputVideo)
	assert.NoFileExists(t, opener.path)
	assert.Equal(t, 1, opener.sink.closed)
	assert.Equal(t, 20, progress.added)
	assert.True(t, progress.finished)
	assert.NoFileExists(t, p.StatsLog)
}

func TestProjectRunSinkOpenFailure(t *testing.T) {
	opener := &fakeOpener{err: errors.New("permission denied")}
	p, _ := newTestProject(t, opener)

	res, err := p.Run(context.Background())
	var openErr *video.SinkOpenError
	require.True(t, errors.As(err, &openErr))
	assert.Zero(t, res.Summary.Frames)
	assert.Nil(t, opener.sink)
	assert.NoFileExists(t, p.Config.OutputVideo)
}

func TestProjectRunRejectsInvalidConfig(t *testing.T) {
	opener := &fakeOpener{}
	p, _ := newTestProject(t, opener)
	p.Config.Timeline.PerCharacterSeconds = 0.01

	_, err := p.Run(context.Background())
	assert.Error(t, err)
	assert.Nil(t, opener.sink)
}

func TestProjectRunWritesStats(t *testing.T) {
	p, _ := newTestProject(t, &fakeOpener{})
	p.Config.ShowStats = true
	p.Config.BuildVersion = "test-build"

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Stats.Total > 0)

	data, err := os.ReadFile(p.StatsLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Build: test-build")
	assert.Contains(t, string(data), "Frames: 20")
}

func TestSilentPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", ".silent-promo.mp4"), silentPath(filepath.Join("out", "promo.mp4")))
	assert.Equal(t, ".silent-promo.mp4", silentPath("promo.mp4"))
}
