package scene

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/promo2video/internal/config"
	"github.com/ivlev/promo2video/internal/raster"
)

// Renderer draws the festive background once and hands out copies of it.
// The background does not depend on the frame index.
type Renderer struct {
	cfg  config.Scene
	base *image.RGBA
}

func New(cfg config.Scene, width, height int) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	if len(cfg.Palette) == 0 {
		return nil, fmt.Errorf("empty pennant palette")
	}

	r := &Renderer{cfg: cfg}
	base := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(base, base.Bounds(), &image.Uniform{C: cfg.Background}, image.Point{}, draw.Src)

	r.drawPennants(base)
	if err := r.drawLogo(base); err != nil {
		return nil, err
	}
	if cfg.QRContent != "" {
		if err := r.drawQR(base); err != nil {
			return nil, err
		}
	}
	r.base = base
	return r, nil
}

func (r *Renderer) Bounds() image.Rectangle {
	return r.base.Bounds()
}

// Render copies the background into dst, which must match Bounds.
func (r *Renderer) Render(dst *image.RGBA) {
	copy(dst.Pix, r.base.Pix)
}

// Background returns a freshly allocated copy of the background.
func (r *Renderer) Background() *image.RGBA {
	dst := image.NewRGBA(r.base.Rect)
	r.Render(dst)
	return dst
}

func (r *Renderer) drawPennants(dst *image.RGBA) {
	c := r.cfg
	startX := (dst.Bounds().Dx() - c.PennantCount*c.PennantSpacing) / 2
	y := c.PennantTop

	for i := 0; i < c.PennantCount; i++ {
		x := startX + i*c.PennantSpacing
		pts := []image.Point{
			{x, y},
			{x + c.PennantWidth, y},
			{x + c.PennantWidth/2, y + c.PennantHeight},
		}
		raster.FillTriangle(dst, pts[0], pts[1], pts[2], c.Palette[i%len(c.Palette)])
		raster.StrokePolygon(dst, pts, 2, c.Outline)
	}
}

func (r *Renderer) drawLogo(dst *image.RGBA) error {
	c := r.cfg
	x := dst.Bounds().Dx() - c.LogoOffsetX

	brand, err := newFace(gobold.TTF, c.BrandSize)
	if err != nil {
		return fmt.Errorf("brand font: %w", err)
	}
	defer brand.Close()
	drawText(dst, brand, c.Brand, x, c.LogoTop, c.BrandColor)

	tagline, err := newFace(goregular.TTF, c.TaglineSize)
	if err != nil {
		return fmt.Errorf("tagline font: %w", err)
	}
	defer tagline.Close()
	drawText(dst, tagline, c.Tagline, x+c.TaglineShift, c.LogoTop+c.TaglineGap, c.TaglineColor)
	return nil
}

// drawQR places a QR code in the bottom-right corner.
func (r *Renderer) drawQR(dst *image.RGBA) error {
	c := r.cfg
	q, err := qrcode.New(c.QRContent, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr code: %w", err)
	}
	q.BackgroundColor = c.Background
	img := q.Image(c.QRSize)

	b := dst.Bounds()
	size := img.Bounds().Size()
	at := image.Pt(b.Max.X-c.QRMargin-size.X, b.Max.Y-c.QRMargin-size.Y)
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(size)}, img, img.Bounds().Min, draw.Src)
	return nil
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// drawText draws s with its baseline at y.
func drawText(dst draw.Image, face font.Face, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
