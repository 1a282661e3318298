package storyboard

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestIsPlaceholderURL(t *testing.T) {
	cfg := NewDefaultConfig().Publish
	tests := []struct {
		url  string
		want bool
	}{
		{"", true},
		{"https://cdn.example.com/img/abc.webp", false},
		{"https://cdn.example.com/img/loading.webp", true},
		{"https://cdn.example.com/purecolor.webp?v=2", true},
		{"/images/placeholder.jpg", true},
		{"http://cdn.example.com/img/abc.webp", true},
		{"/uploads/abc.png", true},
		{"https://cdn.example.com/img/notloading.webp", false},
		{"https://cdn.example.com/loading.webp/abc.png", false},
		{"https://cdn.example.com/img/abc.webp#loading.webp", false},
	}
	for _, tt := range tests {
		if got := IsPlaceholderURL(tt.url, cfg); got != tt.want {
			t.Errorf("IsPlaceholderURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestShouldDisablePublish(t *testing.T) {
	cfg := NewDefaultConfig().Publish
	ready := imageNode("r", 0, 0, "https://cdn.example.com/r.png")
	pending := imageNode("p", 0, 0, TempImageURL)
	hiddenReal := imageNode("h", 0, 0, "https://cdn.example.com/h.png")
	hiddenReal.State = Hidden
	hiddenPage := pageNode("hp", 0, 0, 100, 100, imageNode("c", 0, 0, "https://cdn.example.com/c.png"))
	hiddenPage.State = Hidden

	tests := []struct {
		name string
		app  AppState
		want bool
	}{
		{"empty", nil, false},
		{"no images", AppState{markNode("m", 0, 0)}, false},
		{"all pending", AppState{pending}, true},
		{"one real", AppState{pending, ready}, false},
		{"hidden real ignored", AppState{pending, hiddenReal}, true},
		{"child of hidden page ignored", AppState{pending, hiddenPage}, true},
		{"nested real", AppState{pending, pageNode("pg", 0, 0, 100, 100, ready)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldDisablePublish(tt.app, cfg); got != tt.want {
				t.Errorf("ShouldDisablePublish = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExportPublishWithoutImages(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	c.Rebuild(ctx, Snapshot{App: AppState{markNode("m1", 0, 0)}})
	c.Scene().Camera().Zoom = 0.5

	_, err := c.Export(ctx, ExportOptions{Target: ExportPublish})
	if !errors.Is(err, ErrNoImages) {
		t.Errorf("Export = %v, want ErrNoImages", err)
	}
	if z := c.Scene().Camera().Zoom; z != 0.5 {
		t.Errorf("zoom after export = %v, want 0.5", z)
	}
}

func TestExportEmpty(t *testing.T) {
	c := newTestCanvas(t)
	if _, err := c.Export(context.Background(), ExportOptions{}); !errors.Is(err, ErrEmptyCanvas) {
		t.Errorf("Export = %v, want ErrEmptyCanvas", err)
	}
}

func TestExportDownload(t *testing.T) {
	ctx := context.Background()
	cfg := NewDefaultConfig()
	cfg.Session.ExportDir = t.TempDir()
	c := NewCanvas(Options{Config: cfg, Loader: testLoader(), Clipboard: &MemoryClipboard{}})
	c.Rebuild(ctx, Snapshot{App: AppState{imageNode("i1", 0, 0, "https://cdn.example.com/a.png")}})
	if err := c.Select("i1"); err != nil {
		t.Fatal(err)
	}

	res, err := c.Export(ctx, ExportOptions{Margin: 20})
	if err != nil {
		t.Fatal(err)
	}
	if b := res.Image.Bounds(); b.Dx() != 240 || b.Dy() != 140 {
		t.Errorf("image size = %dx%d, want 240x140", b.Dx(), b.Dy())
	}
	if len(res.ImageURLs) != 1 || res.ImageURLs[0] != "https://cdn.example.com/a.png" {
		t.Errorf("image urls = %v, want [a.png]", res.ImageURLs)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Errorf("export file: %v", err)
	}
	if c.Scene().Transformer().Target() == nil {
		t.Error("transformer not re-attached after export")
	}
}
