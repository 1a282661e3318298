package storyboard

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/phanxgames/storyboard/stage"
)

// ExportTarget is where an export goes.
type ExportTarget uint8

const (
	ExportDownload ExportTarget = iota
	ExportPublish
)

func (t ExportTarget) String() string {
	if t == ExportPublish {
		return "publish"
	}
	return "download"
}

// ExportFileName is the name a downloaded export is written under.
const ExportFileName = "Komiko.png"

// ExportOptions configures Export. A negative Margin uses the default.
type ExportOptions struct {
	Margin float64
	Target ExportTarget
}

// ExportResult is a rasterized canvas.
type ExportResult struct {
	Image *image.RGBA
	PNG   []byte
	// ImageURLs lists the display URLs of every visible image node.
	ImageURLs []string
	// Path is set for downloads.
	Path string
}

// Export rasterizes the whole content at 1:1 into one image. The view zoom
// and the transform handles are restored afterwards. A publish export with
// no visible image is refused with ErrNoImages and changes nothing.
func (c *Canvas) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	margin := opts.Margin
	if margin < 0 {
		margin = DefaultExportMargin
	}
	if c.editor != nil {
		c.CommitTextEdit()
	}

	cam := c.scene.Camera()
	zoom := cam.Zoom
	tr := c.scene.Transformer()
	attached := tr.Target()
	cam.Zoom = 1
	tr.Detach()
	bounds := c.layer.ClientRect()
	var img *image.RGBA
	if !bounds.Empty() {
		region := stage.Rect{
			X:      bounds.X - margin,
			Y:      bounds.Y - margin,
			Width:  bounds.Width + 2*margin,
			Height: bounds.Height + 2*margin,
		}
		r := stage.Rasterizer{Background: stage.ColorWhite}
		img = r.RenderRegion(c.layer, region, 1)
	}
	cam.Zoom = zoom
	if attached != nil {
		tr.Attach(attached)
	}
	c.scene.BatchDraw()

	if img == nil {
		return nil, ErrEmptyCanvas
	}
	res := &ExportResult{Image: img}
	for _, n := range visibleImages(c.history.app) {
		res.ImageURLs = append(res.ImageURLs, n.DisplayURL())
	}
	if opts.Target == ExportPublish && len(res.ImageURLs) == 0 {
		c.notice(slog.LevelError, "add at least one image before publishing", ErrNoImages)
		return nil, ErrNoImages
	}

	data, err := stage.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	res.PNG = data
	if opts.Target == ExportDownload {
		res.Path, err = stage.WritePNG(c.cfg.Session.ExportDir, ExportFileName, data)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}
	c.log.Info("export", "target", opts.Target, "width", img.Bounds().Dx(), "height", img.Bounds().Dy(), "images", len(res.ImageURLs))
	return res, nil
}
