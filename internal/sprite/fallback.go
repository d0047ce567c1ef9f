package sprite

import (
	"image"
	"image/color"

	"github.com/ivlev/promo2video/internal/raster"
)

var (
	skin  = color.NRGBA{255, 220, 177, 255}
	ink   = color.NRGBA{0, 0, 0, 255}
	mouth = color.NRGBA{220, 30, 30, 255}
	straw = color.NRGBA{240, 200, 40, 255}
	band  = color.NRGBA{139, 69, 19, 255}
	shirt = color.NRGBA{200, 40, 40, 255}
	jeans = color.NRGBA{40, 60, 200, 255}
)

// Fallback draws the stand-in figure used when a roster entry cannot be
// loaded: a 300x400 opaque sprite on white with a straw hat.
func Fallback() Sprite {
	img := image.NewNRGBA(image.Rect(0, 0, 300, 400))
	raster.FillRect(img, img.Bounds(), color.NRGBA{255, 255, 255, 255})

	// head and face
	raster.FillCircle(img, 150, 100, 50, skin)
	raster.FillCircle(img, 130, 85, 8, ink)
	raster.FillCircle(img, 170, 85, 8, ink)
	raster.FillEllipse(img, 150, 110, 20, 10, 0, 180, mouth)

	// hat
	raster.FillRect(img, image.Rect(100, 40, 201, 71), straw)
	raster.FillRect(img, image.Rect(110, 70, 191, 86), band)

	raster.FillRect(img, image.Rect(120, 150, 181, 251), shirt)
	raster.FillRect(img, image.Rect(80, 170, 121, 201), skin)
	raster.FillRect(img, image.Rect(180, 170, 221, 201), skin)
	raster.FillRect(img, image.Rect(130, 250, 151, 351), jeans)
	raster.FillRect(img, image.Rect(150, 250, 171, 351), jeans)

	return Sprite{Img: img}
}
