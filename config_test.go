package storyboard

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != DefaultPageWidth || cfg.Keys.Panel != "3" {
		t.Errorf("config = %+v, want defaults", cfg.Canvas)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storyboard.toml")
	data := `
theme = "dark"

[canvas]
width = 800
zoom_step = 0.5
mobile = true

[publish]
placeholders = ["pending.png"]

[keys]
panel = "p"

[fonts]
Wildwords = "fonts/wildwords.ttf"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != 800 || !cfg.Canvas.Mobile {
		t.Errorf("canvas = %+v, want width 800 on mobile", cfg.Canvas)
	}
	if cfg.Canvas.ZoomStep != DefaultZoomStep {
		t.Errorf("zoom step = %v, want invalid value reset to %v", cfg.Canvas.ZoomStep, DefaultZoomStep)
	}
	if cfg.Canvas.PanelHeight != DefaultPanelHeight {
		t.Errorf("panel height = %v, want default %v", cfg.Canvas.PanelHeight, DefaultPanelHeight)
	}
	if len(cfg.Publish.Placeholders) != 1 || cfg.Publish.SecureScheme != "https" {
		t.Errorf("publish = %+v", cfg.Publish)
	}
	if cfg.Keys.Panel != "p" || cfg.Keys.Select != "1" {
		t.Errorf("keys = %+v", cfg.Keys)
	}
	if cfg.Fonts["Wildwords"] != "fonts/wildwords.ttf" {
		t.Errorf("fonts = %v", cfg.Fonts)
	}
	if len(cfg.Unrecognized) != 1 || cfg.Unrecognized[0] != "theme" {
		t.Errorf("unrecognized = %v, want [theme]", cfg.Unrecognized)
	}
}

func TestLoadConfigSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[canvas\nwidth = "), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig accepted a malformed file")
	}
	if cfg == nil || cfg.Canvas.Width != DefaultPageWidth {
		t.Error("LoadConfig should still return the defaults on error")
	}
}
