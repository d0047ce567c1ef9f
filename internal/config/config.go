package config

import (
	"fmt"
	"image/color"
	"math"
	"runtime"

	"github.com/ivlev/promo2video/internal/animation"
)

// Reference height the sprite size limit is expressed against.
const (
	referenceHeight       = 1080
	referenceSpriteHeight = 600
)

type Config struct {
	Characters  []string
	AudioPath   string
	OutputVideo string

	Width    int
	Height   int
	Timeline Timeline

	// Animations restricts the motion kinds picked per activation. Empty means all.
	Animations []animation.Kind

	Workers         int
	Seed            int64
	MaxSpriteHeight int
	ChromaThreshold uint8
	SpriteDPI       int

	VideoEncoder string
	Quality      int
	ShowStats    bool
	BuildVersion string

	Scene Scene
}

// Timeline derives frame counts from the frame rate and durations.
type Timeline struct {
	FPS                 int
	PerCharacterSeconds float64
	TotalSeconds        float64
}

func (t Timeline) FramesPerCharacter() int {
	return int(math.Round(float64(t.FPS) * t.PerCharacterSeconds))
}

func (t Timeline) TotalFrames() int {
	return int(math.Round(float64(t.FPS) * t.TotalSeconds))
}

// Duration is the length of the rendered video in seconds.
func (t Timeline) Duration() float64 {
	if t.FPS <= 0 {
		return 0
	}
	return float64(t.TotalFrames()) / float64(t.FPS)
}

// Scene holds the constants of the decorated background.
type Scene struct {
	Background     color.RGBA
	Palette        []color.RGBA
	Outline        color.RGBA
	PennantCount   int
	PennantWidth   int
	PennantHeight  int
	PennantSpacing int
	PennantTop     int

	Brand        string
	Tagline      string
	BrandColor   color.RGBA
	TaglineColor color.RGBA
	BrandSize    float64
	TaglineSize  float64
	LogoOffsetX  int
	LogoTop      int
	TaglineShift int
	TaglineGap   int

	QRContent string
	QRSize    int
	QRMargin  int
}

func DefaultScene() Scene {
	return Scene{
		Background: color.RGBA{255, 255, 255, 255},
		Palette: []color.RGBA{
			{255, 107, 107, 255},
			{78, 205, 196, 255},
			{69, 183, 209, 255},
			{150, 206, 180, 255},
		},
		Outline:        color.RGBA{0, 0, 0, 255},
		PennantCount:   12,
		PennantWidth:   60,
		PennantHeight:  80,
		PennantSpacing: 80,
		PennantTop:     20,

		Brand:        "VIANA E MOURA",
		Tagline:      "construcoes",
		BrandColor:   color.RGBA{50, 50, 180, 255},
		TaglineColor: color.RGBA{50, 150, 200, 255},
		BrandSize:    32,
		TaglineSize:  22,
		LogoOffsetX:  300,
		LogoTop:      50,
		TaglineShift: 30,
		TaglineGap:   40,

		QRSize:   160,
		QRMargin: 24,
	}
}

// Default returns the 1920x1080, 30 fps, 3 s per character, 60 s configuration.
func Default() Config {
	return Config{
		OutputVideo: "output/promo.mp4",
		Width:       1920,
		Height:      1080,
		Timeline: Timeline{
			FPS:                 30,
			PerCharacterSeconds: 3,
			TotalSeconds:        60,
		},
		Workers:         runtime.NumCPU(),
		ChromaThreshold: 240,
		SpriteDPI:       150,
		VideoEncoder:    "libx264",
		Quality:         23,
		Scene:           DefaultScene(),
	}
}

// SpriteHeightLimit is MaxSpriteHeight, or 600/1080 of the canvas height when unset.
func (c Config) SpriteHeightLimit() int {
	if c.MaxSpriteHeight > 0 {
		return c.MaxSpriteHeight
	}
	return int(math.Round(float64(referenceSpriteHeight) * float64(c.Height) / referenceHeight))
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", c.Width, c.Height)
	}
	if c.Timeline.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", c.Timeline.FPS)
	}
	if c.Timeline.FramesPerCharacter() < 1 {
		return fmt.Errorf("character duration %.3fs is shorter than one frame at %d fps",
			c.Timeline.PerCharacterSeconds, c.Timeline.FPS)
	}
	if c.Timeline.TotalSeconds < 0 {
		return fmt.Errorf("invalid total duration %.3fs", c.Timeline.TotalSeconds)
	}
	for _, k := range c.Animations {
		if !k.Valid() {
			return fmt.Errorf("invalid animation kind %d", int(k))
		}
	}
	if c.OutputVideo == "" {
		return fmt.Errorf("output path is empty")
	}
	if len(c.Scene.Palette) == 0 {
		return fmt.Errorf("scene palette is empty")
	}
	return nil
}
