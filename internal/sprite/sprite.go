package sprite

import (
	"image"
	"image/color"
	"image/draw"
)

// Sprite is a character image. Alpha reports a four-channel source whose
// alpha drives blending; otherwise the sprite is opaque and its near-white
// background is keyed out when composited.
type Sprite struct {
	Img   *image.NRGBA
	Alpha bool
}

func (s Sprite) Bounds() image.Rectangle {
	if s.Img == nil {
		return image.Rectangle{}
	}
	return s.Img.Bounds()
}

// Clone returns a sprite backed by its own pixel buffer.
func (s Sprite) Clone() Sprite {
	if s.Img == nil {
		return s
	}
	img := image.NewNRGBA(s.Img.Rect)
	copy(img.Pix, s.Img.Pix)
	return Sprite{Img: img, Alpha: s.Alpha}
}

// FromImage converts a decoded image into a Sprite.
func FromImage(src image.Image) Sprite {
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if n, ok := src.(*image.NRGBA); ok {
		// Copy rows as is, a draw would round through premultiplied alpha.
		for y := 0; y < b.Dy(); y++ {
			row := n.Pix[n.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(img.Pix[y*img.Stride:(y+1)*img.Stride], row[:b.Dx()*4])
		}
		return Sprite{Img: img, Alpha: true}
	}
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)
	return Sprite{Img: img, Alpha: hasAlphaChannel(src)}
}

// hasAlphaChannel follows the color model of the decoded image, the way a
// PNG with an alpha channel differs from an RGB one.
func hasAlphaChannel(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.Alpha, *image.Alpha16:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	case *image.RGBA:
		return !m.Opaque()
	case *image.RGBA64:
		return !m.Opaque()
	default:
		return img.ColorModel() == color.NRGBAModel
	}
}
