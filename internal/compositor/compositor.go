package compositor

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/ivlev/promo2video/internal/sprite"
	"github.com/ivlev/promo2video/internal/transform"
)

// Compositor places sprites on the center of a canvas.
type Compositor struct {
	MaxHeight int
	// Threshold is the chroma key: an opaque pixel is kept when any
	// channel is below it.
	Threshold uint8
}

func New(maxHeight int, threshold uint8) *Compositor {
	return &Compositor{MaxHeight: maxHeight, Threshold: threshold}
}

// Composite draws sp onto canvas centered at (W/2+dx, H/2+dy) and returns
// the canvas rectangle that was written. An empty rectangle means the
// sprite fell entirely outside the canvas.
func (c *Compositor) Composite(canvas *image.RGBA, sp sprite.Sprite, dx, dy int) image.Rectangle {
	if sp.Img == nil || sp.Img.Bounds().Empty() {
		return image.Rectangle{}
	}
	sp = c.fit(sp)

	cb := canvas.Bounds()
	sw, sh := sp.Img.Bounds().Dx(), sp.Img.Bounds().Dy()
	center := image.Pt(cb.Min.X+cb.Dx()/2+dx, cb.Min.Y+cb.Dy()/2+dy)
	topLeft := center.Sub(image.Pt(sw/2, sh/2))

	placed := image.Rectangle{Min: topLeft, Max: topLeft.Add(image.Pt(sw, sh))}
	clip := placed.Intersect(cb)
	if clip.Empty() {
		return image.Rectangle{}
	}

	// Sprite origin of the clipped region.
	src := clip.Min.Sub(topLeft).Add(sp.Img.Bounds().Min)
	if sp.Alpha {
		blend(canvas, clip, sp.Img, src)
	} else {
		key(canvas, clip, sp.Img, src, c.Threshold)
	}
	return clip
}

// fit scales sp down to MaxHeight, keeping the aspect ratio.
func (c *Compositor) fit(sp sprite.Sprite) sprite.Sprite {
	b := sp.Img.Bounds()
	if c.MaxHeight <= 0 || b.Dy() <= c.MaxHeight {
		return sp
	}
	ratio := float64(c.MaxHeight) / float64(b.Dy())
	w := max(1, int(float64(b.Dx())*ratio))
	return transform.Resize(sp, w, c.MaxHeight, draw.ApproxBiLinear)
}

func blend(dst *image.RGBA, r image.Rectangle, src *image.NRGBA, sp image.Point) {
	for y := 0; y < r.Dy(); y++ {
		d := dst.Pix[dst.PixOffset(r.Min.X, r.Min.Y+y):]
		s := src.Pix[src.PixOffset(sp.X, sp.Y+y):]
		for x := 0; x < r.Dx(); x++ {
			i := x * 4
			a := uint32(s[i+3])
			if a == 0 {
				continue
			}
			ia := 255 - a
			d[i] = uint8((uint32(d[i])*ia + uint32(s[i])*a + 127) / 255)
			d[i+1] = uint8((uint32(d[i+1])*ia + uint32(s[i+1])*a + 127) / 255)
			d[i+2] = uint8((uint32(d[i+2])*ia + uint32(s[i+2])*a + 127) / 255)
			d[i+3] = 255
		}
	}
}

func key(dst *image.RGBA, r image.Rectangle, src *image.NRGBA, sp image.Point, threshold uint8) {
	for y := 0; y < r.Dy(); y++ {
		d := dst.Pix[dst.PixOffset(r.Min.X, r.Min.Y+y):]
		s := src.Pix[src.PixOffset(sp.X, sp.Y+y):]
		for x := 0; x < r.Dx(); x++ {
			i := x * 4
			if s[i] < threshold || s[i+1] < threshold || s[i+2] < threshold {
				d[i] = s[i]
				d[i+1] = s[i+1]
				d[i+2] = s[i+2]
				d[i+3] = 255
			}
		}
	}
}
