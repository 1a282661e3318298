package storyboard

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
)

// TempImageURL stands in for an image that is still being generated.
const TempImageURL = "/images/loading.webp"

// pendingVariantID marks the variant a generation will replace.
const pendingVariantID = -1

// pendingGen is a generation in flight. before is the node as it was ahead of
// a ReplaceExtend request and nil for InsertGenerated.
type pendingGen struct {
	seq    uint64
	before *CNode
}

// GenerateFunc produces image variants. It runs on its own goroutine and
// must honor ctx.
type GenerateFunc func(ctx context.Context) ([]ImageVariant, error)

// Placement says where a generated image goes. An empty PanelID places it on
// the canvas near the view center. Width and Height are the expected image
// size; inside a panel the image is scaled to cover the panel.
type Placement struct {
	PanelID       string
	Width, Height float64
}

// ReplaceMode selects how ReplaceImage changes the variants of an image.
type ReplaceMode uint8

const (
	// ReplaceExtend appends the generated variants and shows the first.
	ReplaceExtend ReplaceMode = iota
	// ReplaceSwitch shows the variant at Index.
	ReplaceSwitch
	// ReplaceRefresh prepends URLs and shows the first of them.
	ReplaceRefresh
)

// ReplaceRequest is the input of ReplaceImage.
type ReplaceRequest struct {
	Mode     ReplaceMode
	Index    int
	URLs     []ImageVariant
	Generate GenerateFunc
}

// InsertGenerated adds an image node showing a placeholder and starts gen.
// The node and its Add are recorded at once so the canvas stays usable. When
// gen completes the variants and pixels are swapped in place without a new
// history entry. A failed generation leaves the placeholder.
func (c *Canvas) InsertGenerated(ctx context.Context, at Placement, gen GenerateFunc) (*CNode, error) {
	if gen == nil {
		return nil, errors.New("insert generated: no generate func")
	}
	n := &CNode{
		Kind:     KindImage,
		Attrs:    Geometry{ID: NewID(), ScaleX: 1, ScaleY: 1},
		Image:    &ImagePayload{URLs: []ImageVariant{{ID: pendingVariantID, URL: TempImageURL}}},
		ImageURL: TempImageURL,
	}
	w, h := at.Width, at.Height
	if w <= 0 || h <= 0 {
		w, h = placeholderSide, placeholderSide
	}
	parent := ParentLayer
	if at.PanelID != "" {
		p, _ := c.history.Find(at.PanelID)
		if p == nil || p.Kind != KindPage {
			return nil, fmt.Errorf("insert generated into %s: %w", at.PanelID, ErrNotFound)
		}
		k := max(p.Attrs.Width/w, p.Attrs.Height/h)
		w, h = w*k, h*k
		parent = p.Attrs.ID
	} else {
		cx, cy := c.scene.Camera().Center()
		if c.cfg.Canvas.Mobile {
			n.Attrs.X, n.Attrs.Y = cx-512, cy-1100
		} else {
			n.Attrs.X, n.Attrs.Y = cx-200, cy-500
		}
	}
	n.Attrs.Width, n.Attrs.Height = w, h
	if err := c.insert(ctx, parent, n); err != nil {
		return nil, err
	}
	if err := c.Select(n.Attrs.ID); err != nil {
		c.log.Warn("select generated", "id", n.Attrs.ID, "err", err)
	}
	c.generate(ctx, n.Attrs.ID, nil, gen)
	out, _ := c.history.Find(n.Attrs.ID)
	return out, nil
}

// ReplaceImage changes the variants of an image node. ReplaceSwitch and
// ReplaceRefresh record an AttrChange at once. ReplaceExtend shows a pending
// variant while Generate runs and records the AttrChange when the images
// arrive.
func (c *Canvas) ReplaceImage(ctx context.Context, id string, req ReplaceRequest) error {
	if req.Mode == ReplaceExtend {
		return c.extendImage(ctx, id, req.Generate)
	}
	err := c.UpdateElement(ctx, id, func(n *CNode) {
		if n.Image == nil {
			n.Image = &ImagePayload{}
		}
		im := n.Image
		switch req.Mode {
		case ReplaceSwitch:
			if req.Index >= 0 && req.Index < len(im.URLs) {
				im.Index = req.Index
			}
		case ReplaceRefresh:
			im.URLs = append(append([]ImageVariant(nil), req.URLs...), im.URLs...)
			im.Index = 0
		}
		n.ImageURL = n.DisplayURL()
	})
	if err != nil {
		return fmt.Errorf("replace image: %w", err)
	}
	return nil
}

// extendImage appends a pending variant without recording it and starts gen.
func (c *Canvas) extendImage(ctx context.Context, id string, gen GenerateFunc) error {
	if gen == nil {
		return fmt.Errorf("replace image %s: extend without generate func", id)
	}
	app := c.history.App()
	n, _ := app.Find(id)
	if n == nil || n.Kind != KindImage {
		return fmt.Errorf("replace image %s: %w", id, ErrNotFound)
	}
	if n.Image == nil {
		n.Image = &ImagePayload{}
	}
	if pendingIndex(n.Image) >= 0 {
		return fmt.Errorf("replace image %s: %w", id, ErrGenerating)
	}
	before := n.Clone()
	n.Image.Index = len(n.Image.URLs)
	n.Image.URLs = append(n.Image.URLs, ImageVariant{ID: pendingVariantID, URL: TempImageURL})
	n.ImageURL = TempImageURL
	c.history.Resync(app)
	if ln, err := c.lookup(id); err == nil {
		ln.Image = placeholderImage()
		c.scene.BatchDraw()
	}
	c.refreshSelection()
	c.generate(ctx, id, before, gen)
	return nil
}

// pendingIndex returns the index of the pending variant, or -1.
func pendingIndex(im *ImagePayload) int {
	for i, v := range im.URLs {
		if v.ID == pendingVariantID {
			return i
		}
	}
	return -1
}

// SelectVariant shows variant idx of an image node.
func (c *Canvas) SelectVariant(ctx context.Context, id string, idx int) error {
	n, _ := c.history.Find(id)
	if n == nil || n.Image == nil {
		return fmt.Errorf("select variant of %s: %w", id, ErrNotFound)
	}
	if idx < 0 || idx >= len(n.Image.URLs) {
		return fmt.Errorf("select variant %d of %s: %w", idx, id, ErrInvalidNode)
	}
	return c.ReplaceImage(ctx, id, ReplaceRequest{Mode: ReplaceSwitch, Index: idx})
}

// generate runs gen in the background and posts the result to the game
// loop. The first variant's pixels are loaded off the loop as well. Starting
// a generation for id supersedes any earlier one still in flight.
func (c *Canvas) generate(ctx context.Context, id string, before *CNode, gen GenerateFunc) {
	c.genSeq++
	seq := c.genSeq
	c.pending[id] = pendingGen{seq: seq, before: before}
	c.jobs.Add(1)
	go func() {
		defer c.jobs.Done()
		vs, err := gen(ctx)
		if err == nil && len(vs) == 0 {
			err = errors.New("generator returned no images")
		}
		var img image.Image
		if err == nil {
			img, err = c.factory.loadImage(ctx, vs[0].URL)
		}
		c.post(ctx, func() { c.completeGeneration(id, seq, vs, img, err) })
	}()
}

// Settle waits for background generations and applies their results.
func (c *Canvas) Settle() {
	c.jobs.Wait()
	c.drainTasks()
}

// completeGeneration swaps the pending variant of id for vs and shows the
// first of them. A generation started by InsertGenerated is applied without a
// history entry; one started by ReplaceExtend records an AttrChange from the
// node as it was before the request. A superseded result, or one whose
// pending variant is gone because an undo or rebuild replaced the node, is
// dropped.
func (c *Canvas) completeGeneration(id string, seq uint64, vs []ImageVariant, img image.Image, err error) {
	p, ok := c.pending[id]
	if !ok || p.seq != seq {
		c.log.Warn("generated image superseded, dropped", "id", id)
		return
	}
	delete(c.pending, id)
	before, extending := p.before, p.before != nil

	app := c.history.App()
	n, _ := app.Find(id)
	at := -1
	if n != nil && n.Image != nil {
		at = pendingIndex(n.Image)
	}
	if err != nil {
		c.log.Error("generate image", "id", id, "err", err)
		c.notice(slog.LevelError, "image generation failed", err)
		if extending && at >= 0 {
			c.restoreImage(app, n, before)
		}
		return
	}
	if at < 0 {
		c.log.Warn("generated image no longer pending, dropped", "id", id, "variants", len(vs))
		return
	}

	im := n.Image
	urls := append([]ImageVariant(nil), im.URLs[:at]...)
	urls = append(urls, vs...)
	im.URLs = append(urls, im.URLs[at+1:]...)
	im.Index = at
	n.ImageURL = n.DisplayURL()
	if extending {
		old := n.Clone()
		old.Image, old.ImageURL = before.Clone().Image, before.ImageURL
		c.history.Update(app, nil, NewAttrChange(old, n))
	} else {
		c.history.Resync(app)
	}

	if ln, err := c.lookup(id); err == nil {
		ln.Image = img
		c.scene.BatchDraw()
	}
	c.refreshSelection()
	c.log.Info("image ready", "id", id, "variants", len(vs))
}

// restoreImage puts back the variants n had before a failed extend.
func (c *Canvas) restoreImage(app AppState, n, before *CNode) {
	n.Image, n.ImageURL = before.Clone().Image, before.ImageURL
	c.history.Resync(app)
	c.reloadPixels(context.Background(), n.Attrs.ID, n.DisplayURL())
	c.refreshSelection()
}
