package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs(t *testing.T) {
	args := BuildArgs("out.mp4", Params{Width: 1920, Height: 1080, FPS: 30})

	assert.Equal(t, "out.mp4", args[len(args)-1])
	assert.Contains(t, args, "1920x1080")
	assert.Contains(t, args, "libx264")
	assert.Contains(t, args, "-crf")
	assert.Subset(t, args, []string{"-f", "rawvideo", "-pixel_format", "rgba", "-i", "-"})

	args = BuildArgs("out.mp4", Params{Width: 2, Height: 2, FPS: 10, Encoder: "h264_nvenc", Quality: 30})
	assert.Contains(t, args, "-cq")
	assert.Contains(t, args, "30")
}

func TestOpenFailsForUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "out.mp4")
	op := &FFmpegOpener{Binary: "sh"}

	_, err := op.Open(context.Background(), path, Params{Width: 4, Height: 4, FPS: 1})
	require.Error(t, err)

	var sinkErr *SinkOpenError
	require.True(t, errors.As(err, &sinkErr))
	assert.Equal(t, path, sinkErr.Path)
}

func TestOpenFailsForMissingBinary(t *testing.T) {
	op := &FFmpegOpener{Binary: "definitely-not-ffmpeg-binary"}
	_, err := op.Open(context.Background(), filepath.Join(t.TempDir(), "out.mp4"), Params{Width: 4, Height: 4, FPS: 1})

	var sinkErr *SinkOpenError
	assert.True(t, errors.As(err, &sinkErr))
}

func TestOpenRejectsInvalidParams(t *testing.T) {
	_, err := (&FFmpegOpener{}).Open(context.Background(), "out.mp4", Params{})
	var sinkErr *SinkOpenError
	assert.True(t, errors.As(err, &sinkErr))
}

func TestWriteRawRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	var buf bytes.Buffer
	require.NoError(t, writeRawRGBA(&buf, img))
	assert.Equal(t, img.Pix, buf.Bytes())

	sub := img.SubImage(image.Rect(1, 0, 3, 2)).(*image.RGBA)
	buf.Reset()
	require.NoError(t, writeRawRGBA(&buf, sub))
	assert.Len(t, buf.Bytes(), 2*2*4)
	assert.Equal(t, img.Pix[4:12], buf.Bytes()[:8])
}
