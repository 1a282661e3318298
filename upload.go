package storyboard

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

const uploadDir = "uploads"

// AddImage places the image at url in the middle of the view, scaled to the
// page width, and selects it.
func (c *Canvas) AddImage(ctx context.Context, url string) (*CNode, error) {
	img, err := c.factory.loadImage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("add image: %w", err)
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if pw := c.cfg.Canvas.Width; w > pw {
		h = h * pw / w
		w = pw
	}
	cx, cy := c.scene.Camera().Center()
	n := &CNode{
		Kind: KindImage,
		Attrs: Geometry{
			ID: NewID(), X: cx - w/2, Y: cy - h/2,
			ScaleX: 1, ScaleY: 1, Width: w, Height: h,
		},
		Image:    &ImagePayload{URLs: []ImageVariant{{ID: 0, URL: url}}},
		ImageURL: url,
	}
	if _, err := c.addTopLevel(ctx, n); err != nil {
		return nil, err
	}
	if err := c.Select(n.Attrs.ID); err != nil {
		return nil, err
	}
	out, _ := c.history.Find(n.Attrs.ID)
	return out, nil
}

// ImportFile copies a local image into the asset directory and adds it.
func (c *Canvas) ImportFile(ctx context.Context, fsys fs.FS, name string) (*CNode, error) {
	url, err := c.copyUpload(fsys, name)
	if err != nil {
		return nil, err
	}
	return c.AddImage(ctx, url)
}

func (c *Canvas) copyUpload(fsys fs.FS, name string) (string, error) {
	ext := strings.ToLower(path.Ext(name))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return "", fmt.Errorf("import %q: unsupported file type", name)
	}
	src, err := fsys.Open(name)
	if err != nil {
		return "", fmt.Errorf("import %q: %w", name, err)
	}
	defer src.Close()

	dir := filepath.Join(c.cfg.Canvas.AssetDir, uploadDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("import %q: %w", name, err)
	}
	base := NewID() + ext
	dst, err := os.Create(filepath.Join(dir, base))
	if err != nil {
		return "", fmt.Errorf("import %q: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("import %q: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("import %q: %w", name, err)
	}
	return "/" + uploadDir + "/" + base, nil
}

// handleDroppedFiles imports the files dropped on the window this frame.
func (c *Canvas) handleDroppedFiles(ctx context.Context) {
	fsys := ebiten.DroppedFiles()
	if fsys == nil {
		return
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		c.log.Warn("read dropped files", "err", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := c.ImportFile(ctx, fsys, e.Name()); err != nil {
			c.log.Warn("import dropped file", "name", e.Name(), "err", err)
		}
	}
}
