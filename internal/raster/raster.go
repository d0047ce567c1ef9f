// Package raster fills and strokes simple shapes on image.RGBA and
// image.NRGBA buffers. Shapes are clipped to the destination bounds.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// Canvas is the subset of draw.Image the primitives need.
type Canvas interface {
	draw.Image
}

func FillRect(dst Canvas, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func FillCircle(dst Canvas, cx, cy, radius int, c color.Color) {
	FillEllipse(dst, cx, cy, radius, radius, 0, 360, c)
}

// FillEllipse fills the sector of the axis-aligned ellipse between the two
// angles, in degrees, measured clockwise from the positive x axis.
func FillEllipse(dst Canvas, cx, cy, rx, ry int, fromDeg, toDeg float64, c color.Color) {
	if rx <= 0 || ry <= 0 {
		return
	}
	full := toDeg-fromDeg >= 360
	bounds := image.Rect(cx-rx, cy-ry, cx+rx+1, cy+ry+1).Intersect(dst.Bounds())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			nx := float64(x-cx) / float64(rx)
			ny := float64(y-cy) / float64(ry)
			if nx*nx+ny*ny > 1 {
				continue
			}
			if !full {
				a := math.Atan2(float64(y-cy), float64(x-cx)) * 180 / math.Pi
				if a < 0 {
					a += 360
				}
				if a < fromDeg || a > toDeg {
					continue
				}
			}
			dst.Set(x, y, c)
		}
	}
}

// FillTriangle fills the triangle using edge functions over its bounding box.
func FillTriangle(dst Canvas, a, b, p image.Point, c color.Color) {
	bounds := boundingBox(a, b, p).Intersect(dst.Bounds())
	area := edge(a, b, p)
	if area == 0 {
		return
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pt := image.Pt(x, y)
			w0 := edge(b, p, pt)
			w1 := edge(p, a, pt)
			w2 := edge(a, b, pt)
			if area < 0 {
				w0, w1, w2 = -w0, -w1, -w2
			}
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				dst.Set(x, y, c)
			}
		}
	}
}

// StrokePolygon draws the closed outline of pts with the given line width.
func StrokePolygon(dst Canvas, pts []image.Point, width float64, c color.Color) {
	if len(pts) < 2 {
		return
	}
	half := width / 2
	pad := int(math.Ceil(half))
	for i := range pts {
		p0, p1 := pts[i], pts[(i+1)%len(pts)]
		bounds := boundingBox(p0, p1).Inset(-pad).Intersect(dst.Bounds())
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				if segmentDistance(float64(x), float64(y), p0, p1) <= half {
					dst.Set(x, y, c)
				}
			}
		}
	}
}

func edge(a, b, p image.Point) int {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

func boundingBox(pts ...image.Point) image.Rectangle {
	r := image.Rectangle{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

func segmentDistance(x, y float64, a, b image.Point) float64 {
	ax, ay := float64(a.X), float64(a.Y)
	bx, by := float64(b.X), float64(b.Y)
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((x-ax)*dx + (y-ay)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	px, py := ax+t*dx, ay+t*dy
	return math.Hypot(x-px, y-py)
}
