package stage

import (
	"image"
	"math"

	"github.com/fogleman/gg"
)

// Rasterizer renders node trees in software with gg for export. The zero value renders
// on a transparent background.
type Rasterizer struct {
	Background Color
}

// RenderRegion rasterizes the world-space region of root's subtree at the
// given scale. The result is Width*scale by Height*scale pixels.
func (r *Rasterizer) RenderRegion(root *Node, region Rect, scale float64) *image.RGBA {
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Ceil(region.Width * scale))
	h := int(math.Ceil(region.Height * scale))
	dc := r.newContext(w, h)
	dc.Scale(scale, scale)
	dc.Translate(-region.X, -region.Y)
	p := painter{dc: dc, lineScale: scale}
	p.node(root)
	return dc.Image().(*image.RGBA)
}

func (r *Rasterizer) newContext(w, h int) *gg.Context {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dc := gg.NewContext(w, h)
	if !r.Background.IsZero() {
		dc.SetColor(r.Background.NRGBA())
		dc.Clear()
	}
	return dc
}

// painter walks a tree and issues gg drawing calls. Strokes are not scaled
// by node transforms, only by lineScale.
type painter struct {
	dc        *gg.Context
	lineScale float64
}

func (p painter) node(n *Node) {
	if !n.Visible {
		return
	}
	dc := p.dc
	dc.Push()
	defer dc.Pop()

	dc.Translate(n.X, n.Y)
	if n.Rotation != 0 {
		dc.Rotate(n.Rotation)
	}
	if n.SkewX != 0 || n.SkewY != 0 {
		dc.Shear(math.Tan(n.SkewX), math.Tan(n.SkewY))
	}
	dc.Scale(n.ScaleX, n.ScaleY)

	switch n.Type {
	case NodeTypeRect:
		p.rect(n)
	case NodeTypeImage:
		p.image(n)
	case NodeTypeText:
		p.text(n)
	}

	if len(n.children) == 0 {
		return
	}
	if n.Clip != nil {
		dc.DrawRectangle(n.Clip.X, n.Clip.Y, n.Clip.Width, n.Clip.Height)
		dc.Clip()
	}
	for _, child := range n.children {
		p.node(child)
	}
}

func (p painter) rect(n *Node) {
	dc := p.dc
	dc.DrawRectangle(0, 0, n.Width, n.Height)
	if !n.Fill.IsZero() {
		dc.SetColor(n.Fill.NRGBA())
		dc.FillPreserve()
	}
	if n.StrokeWidth > 0 && !n.Stroke.IsZero() {
		dc.SetColor(n.Stroke.NRGBA())
		dc.SetLineWidth(n.StrokeWidth * p.lineScale)
		if len(n.Dash) > 0 {
			dash := make([]float64, len(n.Dash))
			for i, d := range n.Dash {
				dash[i] = d * p.lineScale
			}
			dc.SetDash(dash...)
		}
		dc.StrokePreserve()
		dc.SetDash()
	}
	dc.ClearPath()
}

func (p painter) image(n *Node) {
	if n.Image == nil {
		return
	}
	b := n.Image.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	w, h := n.Size()
	dc := p.dc
	dc.Push()
	dc.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	dc.DrawImage(n.Image, -b.Min.X, -b.Min.Y)
	dc.Pop()
}

func (p painter) text(n *Node) {
	run := n.Text
	if run == nil || run.Content == "" {
		return
	}
	dc := p.dc
	face := run.Face()
	dc.SetFontFace(face)
	boxW, _ := n.Size()
	ascent := fixedToFloat(face.Metrics().Ascent)
	adv := run.lineAdvance()
	// Center the ascent within each line box.
	lead := (adv - fixedToFloat(face.Metrics().Height)) / 2

	for i, line := range run.Lines() {
		x := run.lineOffset(line.Width, boxW)
		y := float64(i)*adv + lead + ascent
		if n.StrokeWidth > 0 && !n.Stroke.IsZero() {
			dc.SetColor(n.Stroke.NRGBA())
			r := n.StrokeWidth / 2
			for k := 0; k < 8; k++ {
				a := float64(k) * math.Pi / 4
				dc.DrawString(line.Text, x+r*math.Cos(a), y+r*math.Sin(a))
			}
		}
		dc.SetColor(n.Fill.NRGBA())
		dc.DrawString(line.Text, x, y)
	}
}
