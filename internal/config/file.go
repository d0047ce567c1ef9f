package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/promo2video/internal/animation"
)

// File is the YAML project file. Zero values keep the defaults.
type File struct {
	Characters       []string   `yaml:"characters"`
	Audio            string     `yaml:"audio"`
	Output           string     `yaml:"output"`
	Width            int        `yaml:"width"`
	Height           int        `yaml:"height"`
	FPS              int        `yaml:"fps"`
	CharacterSeconds float64    `yaml:"character_seconds"`
	TotalSeconds     float64    `yaml:"total_seconds"`
	Animations       []string   `yaml:"animations"`
	Workers          int        `yaml:"workers"`
	Seed             int64      `yaml:"seed"`
	ChromaThreshold  int        `yaml:"chroma_threshold"`
	MaxSpriteHeight  int        `yaml:"max_sprite_height"`
	SpriteDPI        int        `yaml:"sprite_dpi"`
	Quality          int        `yaml:"quality"`
	Scene            *SceneFile `yaml:"scene"`
}

type SceneFile struct {
	Background  string   `yaml:"background"`
	Palette     []string `yaml:"palette"`
	Pennants    int      `yaml:"pennants"`
	Brand       string   `yaml:"brand"`
	Tagline     string   `yaml:"tagline"`
	LogoOffsetX int      `yaml:"logo_offset_x"`
	LogoTop     int      `yaml:"logo_top"`
	QR          string   `yaml:"qr"`
}

// ReadFile parses a project file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// WriteFile stores a project file, used to dump the effective configuration.
func WriteFile(f *File, path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a project file on top of Default and validates the result.
func Load(path string) (Config, error) {
	f, err := ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := f.Apply(Default())
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Apply overlays the non-zero fields of f on base.
func (f *File) Apply(base Config) (Config, error) {
	cfg := base
	if len(f.Characters) > 0 {
		cfg.Characters = append([]string(nil), f.Characters...)
	}
	if f.Audio != "" {
		cfg.AudioPath = f.Audio
	}
	if f.Output != "" {
		cfg.OutputVideo = f.Output
	}
	if f.Width > 0 {
		cfg.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Height = f.Height
	}
	if f.FPS > 0 {
		cfg.Timeline.FPS = f.FPS
	}
	if f.CharacterSeconds > 0 {
		cfg.Timeline.PerCharacterSeconds = f.CharacterSeconds
	}
	if f.TotalSeconds > 0 {
		cfg.Timeline.TotalSeconds = f.TotalSeconds
	}
	if len(f.Animations) > 0 {
		kinds, err := animation.ParseKinds(f.Animations)
		if err != nil {
			return Config{}, err
		}
		cfg.Animations = kinds
	}
	if f.Workers > 0 {
		cfg.Workers = f.Workers
	}
	if f.Seed != 0 {
		cfg.Seed = f.Seed
	}
	if f.ChromaThreshold > 0 {
		if f.ChromaThreshold > 255 {
			return Config{}, fmt.Errorf("chroma_threshold %d out of range", f.ChromaThreshold)
		}
		cfg.ChromaThreshold = uint8(f.ChromaThreshold)
	}
	if f.MaxSpriteHeight > 0 {
		cfg.MaxSpriteHeight = f.MaxSpriteHeight
	}
	if f.SpriteDPI > 0 {
		cfg.SpriteDPI = f.SpriteDPI
	}
	if f.Quality > 0 {
		cfg.Quality = f.Quality
	}
	if f.Scene != nil {
		scene, err := f.Scene.apply(cfg.Scene)
		if err != nil {
			return Config{}, err
		}
		cfg.Scene = scene
	}
	return cfg, nil
}

func (s *SceneFile) apply(base Scene) (Scene, error) {
	scene := base
	// Palette is shared with DefaultScene, copy before replacing.
	scene.Palette = append([]color.RGBA(nil), base.Palette...)
	if s.Background != "" {
		c, err := ParseHexColor(s.Background)
		if err != nil {
			return Scene{}, err
		}
		scene.Background = c
	}
	if len(s.Palette) > 0 {
		palette := make([]color.RGBA, 0, len(s.Palette))
		for _, hex := range s.Palette {
			c, err := ParseHexColor(hex)
			if err != nil {
				return Scene{}, err
			}
			palette = append(palette, c)
		}
		scene.Palette = palette
	}
	if s.Pennants > 0 {
		scene.PennantCount = s.Pennants
	}
	if s.Brand != "" {
		scene.Brand = s.Brand
	}
	if s.Tagline != "" {
		scene.Tagline = s.Tagline
	}
	if s.LogoOffsetX > 0 {
		scene.LogoOffsetX = s.LogoOffsetX
	}
	if s.LogoTop > 0 {
		scene.LogoTop = s.LogoTop
	}
	if s.QR != "" {
		scene.QRContent = s.QR
	}
	return scene, nil
}

// ParseHexColor accepts "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
