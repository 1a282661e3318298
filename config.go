package storyboard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the editor configuration, read from a TOML file.
type Config struct {
	Canvas  CanvasConfig      `toml:"canvas"`
	Publish PublishConfig     `toml:"publish"`
	Session SessionConfig     `toml:"session"`
	Log     LogConfig         `toml:"log"`
	Keys    KeysConfig        `toml:"keys"`
	Fonts   map[string]string `toml:"fonts"` // family -> .ttf path

	// Unrecognized lists keys in the file that matched no field.
	Unrecognized []string `toml:"-"`
}

// CanvasConfig sizes new content and bounds the camera.
type CanvasConfig struct {
	// Width is the page width new panels and uploads are fitted to.
	Width float64 `toml:"width"`
	// PanelHeight is the height of a panel drawn by a click.
	PanelHeight float64 `toml:"panel_height"`
	// ViewWidth and ViewHeight are the initial window size.
	ViewWidth  int `toml:"view_width"`
	ViewHeight int `toml:"view_height"`

	BubbleTarget    float64 `toml:"bubble_target"`
	BubbleURL       string  `toml:"bubble_url"`
	AssetDir        string  `toml:"asset_dir"`
	DuplicateOffset float64 `toml:"duplicate_offset"`
	MinDrawSize     float64 `toml:"min_draw_size"`
	Mobile          bool    `toml:"mobile"`

	MinZoom  float64 `toml:"min_zoom"`
	MaxZoom  float64 `toml:"max_zoom"`
	ZoomStep float64 `toml:"zoom_step"`
}

// PublishConfig controls publish gating.
type PublishConfig struct {
	// Placeholders are URL base names that mark an image still generating.
	Placeholders []string `toml:"placeholders"`
	// SecureScheme is the prefix a real image URL must carry.
	SecureScheme string `toml:"secure_scheme"`
}

// SessionConfig locates persisted state and exports.
type SessionConfig struct {
	StorePath string `toml:"store_path"`
	ExportDir string `toml:"export_dir"`
}

// LogConfig selects the log level and output file. An empty file means
// stderr.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// KeysConfig binds a key name to each tool.
type KeysConfig struct {
	Select   string `toml:"select"`
	Move     string `toml:"move"`
	Panel    string `toml:"panel"`
	Bubble   string `toml:"bubble"`
	Text     string `toml:"text"`
	Image    string `toml:"image"`
	MarkArea string `toml:"mark_area"`
}

// Defaults.
const (
	DefaultPageWidth       = 1024.0
	DefaultPanelHeight     = 800.0
	DefaultBubbleTarget    = 600.0
	DefaultDuplicateOffset = 10.0
	DefaultMinDrawSize     = 10.0
	DefaultZoomStep        = 1.05
	DefaultExportMargin    = 20.0
)

// NewDefaultConfig returns the built-in configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:           DefaultPageWidth,
			PanelHeight:     DefaultPanelHeight,
			ViewWidth:       1280,
			ViewHeight:      800,
			BubbleTarget:    DefaultBubbleTarget,
			BubbleURL:       "bubble.png",
			AssetDir:        "assets",
			DuplicateOffset: DefaultDuplicateOffset,
			MinDrawSize:     DefaultMinDrawSize,
			MinZoom:         0.05,
			MaxZoom:         8,
			ZoomStep:        DefaultZoomStep,
		},
		Publish: PublishConfig{
			Placeholders: []string{"purecolor.webp", "loading.webp", "placeholder.jpg"},
			SecureScheme: "https",
		},
		Session: SessionConfig{
			StorePath: "storyboard.db",
			ExportDir: "exports",
		},
		Log: LogConfig{Level: "info"},
		Keys: KeysConfig{
			Select:   "1",
			Move:     "2",
			Panel:    "3",
			Bubble:   "4",
			Text:     "5",
			Image:    "6",
			MarkArea: "7",
		},
		Fonts: map[string]string{},
	}
}

// LoadConfig reads path over the defaults and validates the result. A
// missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return cfg, fmt.Errorf("check config file %q: %w", path, err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return NewDefaultConfig(), fmt.Errorf("parse config file %q: %w", path, err)
	}
	for _, k := range md.Undecoded() {
		cfg.Unrecognized = append(cfg.Unrecognized, k.String())
	}
	cfg.validate()
	return cfg, nil
}

// validate resets invalid values to their defaults.
func (c *Config) validate() {
	d := NewDefaultConfig()
	if c.Canvas.Width <= 0 {
		c.Canvas.Width = d.Canvas.Width
	}
	if c.Canvas.PanelHeight <= 0 {
		c.Canvas.PanelHeight = d.Canvas.PanelHeight
	}
	if c.Canvas.ViewWidth <= 0 || c.Canvas.ViewHeight <= 0 {
		c.Canvas.ViewWidth, c.Canvas.ViewHeight = d.Canvas.ViewWidth, d.Canvas.ViewHeight
	}
	if c.Canvas.BubbleTarget <= 0 {
		c.Canvas.BubbleTarget = d.Canvas.BubbleTarget
	}
	if c.Canvas.DuplicateOffset < 0 {
		c.Canvas.DuplicateOffset = d.Canvas.DuplicateOffset
	}
	if c.Canvas.MinDrawSize < 0 {
		c.Canvas.MinDrawSize = d.Canvas.MinDrawSize
	}
	if c.Canvas.MinZoom <= 0 || c.Canvas.MaxZoom < c.Canvas.MinZoom {
		c.Canvas.MinZoom, c.Canvas.MaxZoom = d.Canvas.MinZoom, d.Canvas.MaxZoom
	}
	if c.Canvas.ZoomStep <= 1 {
		c.Canvas.ZoomStep = d.Canvas.ZoomStep
	}
	if c.Publish.SecureScheme == "" {
		c.Publish.SecureScheme = d.Publish.SecureScheme
	}
	if c.Session.StorePath == "" {
		c.Session.StorePath = d.Session.StorePath
	}
	if c.Session.ExportDir == "" {
		c.Session.ExportDir = d.Session.ExportDir
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Fonts == nil {
		c.Fonts = map[string]string{}
	}
}
