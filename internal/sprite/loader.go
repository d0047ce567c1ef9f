package sprite

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Status is the outcome of loading a roster entry.
type Status int

const (
	Loaded Status = iota
	Missing
	Corrupt
)

func (s Status) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Missing:
		return "missing"
	case Corrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// LoadResult carries the sprite when Status is Loaded, the cause otherwise.
type LoadResult struct {
	Status Status
	Sprite Sprite
	Err    error
}

// Loader resolves a roster entry into a sprite.
type Loader interface {
	Load(path string) LoadResult
}

// FileLoader decodes PNG, JPEG and GIF files, and rasterizes the first page
// of PDF artwork at DPI.
type FileLoader struct {
	DPI int
}

func NewFileLoader(dpi int) *FileLoader {
	if dpi <= 0 {
		dpi = 150
	}
	return &FileLoader{DPI: dpi}
}

func (l *FileLoader) Load(path string) LoadResult {
	if path == "" {
		return LoadResult{Status: Missing, Err: fmt.Errorf("empty sprite path")}
	}
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LoadResult{Status: Missing, Err: err}
		}
		return LoadResult{Status: Corrupt, Err: err}
	}
	if fi.IsDir() {
		return LoadResult{Status: Missing, Err: fmt.Errorf("%s is a directory", path)}
	}

	var img image.Image
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		img, err = l.renderPDF(path)
	} else {
		img, err = decodeFile(path)
	}
	if err != nil {
		return LoadResult{Status: Corrupt, Err: err}
	}
	if b := img.Bounds(); b.Empty() {
		return LoadResult{Status: Corrupt, Err: fmt.Errorf("%s has no pixels", path)}
	}
	return LoadResult{Status: Loaded, Sprite: FromImage(img)}
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// renderPDF rasterizes page 0 flattened onto white, so PDF artwork is
// always a chroma-keyed sprite.
func (l *FileLoader) renderPDF(path string) (image.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("pdf %s has no pages", path)
	}
	page, err := doc.ImageDPI(0, float64(l.DPI))
	if err != nil {
		return nil, fmt.Errorf("render pdf %s: %w", path, err)
	}

	flat := image.NewRGBA(image.Rect(0, 0, page.Bounds().Dx(), page.Bounds().Dy()))
	draw.Draw(flat, flat.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), page, page.Bounds().Min, draw.Over)
	return flat, nil
}
