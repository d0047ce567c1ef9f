package transform

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ivlev/promo2video/internal/animation"
	"github.com/ivlev/promo2video/internal/sprite"
)

// Apply bakes scale, then rotation, into a copy of sp and returns the copy
// with the translation still to be applied by the compositor.
func Apply(sp sprite.Sprite, t animation.Transform) (sprite.Sprite, int, int) {
	out := sp.Clone()
	if out.Img == nil {
		return out, t.DX, t.DY
	}
	if t.Scale != 1 && t.Scale > 0 {
		out = Scale(out, t.Scale)
	}
	if t.Rotation != 0 {
		out = Rotate(out, t.Rotation)
	}
	return out, t.DX, t.DY
}

// Scale resamples sp to round(w*s) x round(h*s), never below 1x1.
func Scale(sp sprite.Sprite, s float64) sprite.Sprite {
	b := sp.Img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*s)))
	h := max(1, int(math.Round(float64(b.Dy())*s)))
	return Resize(sp, w, h, draw.CatmullRom)
}

// Resize resamples sp to exactly w x h with the given interpolator.
func Resize(sp sprite.Sprite, w, h int, scaler draw.Scaler) sprite.Sprite {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	scaler.Scale(dst, dst.Bounds(), sp.Img, sp.Img.Bounds(), draw.Src, nil)
	return sprite.Sprite{Img: dst, Alpha: sp.Alpha}
}

// Rotate turns sp counter-clockwise by deg degrees about its center and
// keeps the buffer size. Uncovered corners are white for opaque sprites,
// so the chroma key removes them, and transparent for alpha sprites.
func Rotate(sp sprite.Sprite, deg float64) sprite.Sprite {
	b := sp.Img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if !sp.Alpha {
		draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	}

	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	cx := float64(b.Dx()) / 2
	cy := float64(b.Dy()) / 2

	// Source to destination, y pointing down.
	m := f64.Aff3{
		cos, sin, (1-cos)*cx - sin*cy,
		-sin, cos, sin*cx + (1-cos)*cy,
	}
	op := draw.Src
	if !sp.Alpha {
		op = draw.Over
	}
	draw.BiLinear.Transform(dst, m, sp.Img, b, op, nil)
	return sprite.Sprite{Img: dst, Alpha: sp.Alpha}
}
