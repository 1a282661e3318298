package storyboard

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/phanxgames/storyboard/stage"
)

// Paint defaults.
var (
	defaultPageStroke = stage.Color{R: 1, G: 0.647, B: 0, A: 1} // orange
	defaultMarkStroke = stage.Color{R: 1, G: 0.2, B: 0.2, A: 1}
	placeholderGray   = color.NRGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff}
)

const (
	markAreaStrokeWidth = 2.0
	placeholderSide     = 512
)

var markAreaDash = []float64{10, 5}

// Factory materializes CNodes as live stage subtrees.
//
// Build may record on the node what it rendered: a bubble's fitted size, the
// position of a centered text child and the display URL. Children that were
// hidden or failed to build are removed from the node so the state reflects
// only what is live.
type Factory struct {
	Loader ImageLoader
	Fonts  *stage.FontBook
	// BubbleTarget is the longer side bubble artwork is fitted to.
	BubbleTarget float64
	// BubbleURL is used for bubbles that carry no image URL.
	BubbleURL string
	// Placeholder reports whether url stands for an image still being
	// generated. Such URLs fall back to flat pixels when they cannot load.
	Placeholder func(url string) bool
	Logger      *slog.Logger

	// OnBuild runs for every live handle that stands for a node: the outer
	// group of a page or bubble, and every bare object.
	OnBuild func(*stage.Node)
	// OnEditText runs when a text node is double-clicked.
	OnEditText func(id string)

	// keepHidden builds hidden children as invisible live objects instead of
	// dropping them.
	keepHidden bool
}

// Build creates the live subtree for n. On error nothing is attached
// anywhere and OnBuild has not run for n.
func (f *Factory) Build(ctx context.Context, n *CNode) (*stage.Node, error) {
	return f.build(ctx, n, "")
}

func (f *Factory) build(ctx context.Context, n *CNode, container string) (*stage.Node, error) {
	normalizeScale(&n.Attrs)
	var (
		ln  *stage.Node
		err error
	)
	switch n.Kind {
	case KindPage:
		ln = f.page(ctx, n)
	case KindBubble:
		ln, err = f.bubble(ctx, n)
	case KindImage:
		ln, err = f.image(ctx, n, container)
	case KindText:
		ln = f.text(n, container)
	case KindMarkArea:
		ln = f.markArea(n, container)
	default:
		err = fmt.Errorf("build %s: %w", n.Attrs.ID, ErrUnknownKind)
	}
	if err != nil {
		return nil, err
	}
	if !n.Visible() {
		ln.Visible = false
	}
	if f.OnBuild != nil {
		f.OnBuild(ln)
	}
	return ln, nil
}

// normalizeScale treats a missing scale as 1.
func normalizeScale(g *Geometry) {
	if g.ScaleX == 0 {
		g.ScaleX = 1
	}
	if g.ScaleY == 0 {
		g.ScaleY = 1
	}
}

func applyGeometry(ln *stage.Node, g Geometry) {
	ln.Name = g.Name
	ln.X, ln.Y = g.X, g.Y
	ln.ScaleX, ln.ScaleY = g.ScaleX, g.ScaleY
	ln.Rotation = g.Rotation
	ln.SkewX, ln.SkewY = g.SkewX, g.SkewY
}

// colorOr parses s, using def when s is empty or invalid.
func colorOr(s string, def stage.Color) stage.Color {
	if s == "" {
		return def
	}
	return stage.MustColor(s, def)
}

func styleOf(n *CNode) Style {
	if n.Style == nil {
		return Style{}
	}
	return *n.Style
}

func (f *Factory) logger() *slog.Logger {
	if f.Logger == nil {
		return discardLogger()
	}
	return f.Logger
}

// container builds the outer group and the clipped children group shared by
// pages and bubbles. primary is the page rect or bubble artwork.
func (f *Factory) container(ctx context.Context, n *CNode, primary *stage.Node) *stage.Node {
	id := n.Attrs.ID
	ref := Ref{ID: id, Kind: n.Kind}

	g := stage.NewGroup(GroupID(id))
	applyGeometry(g, n.Attrs)
	g.Width, g.Height = n.Attrs.Width, n.Attrs.Height
	g.Draggable = true
	g.Ref = ref
	if n.Kind == KindPage {
		g.Resize = stage.ResizeBox
	}

	primary.Ref = ref
	wrap := stage.NewGroup(ChildrenID(id))
	wrap.Ref = ref
	g.AddChild(primary)
	g.AddChild(wrap)
	layoutContainer(g)
	g.OnResize = layoutContainer

	var kept []*CNode
	for _, ch := range n.SortedChildren() {
		if !ch.Visible() && !f.keepHidden {
			continue
		}
		if ch.Kind == KindText && ch.Attrs.X == 0 {
			f.centerText(ch, n)
		}
		cn, err := f.build(ctx, ch, id)
		if err != nil {
			f.logger().Warn("skip child", "container", id, "child", ch.Attrs.ID, "err", err)
			continue
		}
		wrap.AddChild(cn)
		kept = append(kept, ch)
	}
	n.Children = kept
	if len(n.ChildSorting) > 0 {
		n.ChildSorting = orderIDs(kept)
	}
	return g
}

// layoutContainer sizes the primary drawable and the children clip of a
// container group from the group's box.
func layoutContainer(g *stage.Node) {
	if g.NumChildren() < 2 {
		return
	}
	w, h := g.Width, g.Height
	g.Clip = &stage.Rect{Width: w, Height: h}
	primary, wrap := g.ChildAt(0), g.ChildAt(1)
	primary.Width, primary.Height = w, h
	sw := primary.StrokeWidth
	wrap.X, wrap.Y = sw/2, sw/2
	wrap.Width, wrap.Height = w, h
	wrap.Clip = &stage.Rect{Width: max(0, w-sw), Height: max(0, h-sw)}
}

func (f *Factory) page(ctx context.Context, n *CNode) *stage.Node {
	st := styleOf(n)
	rect := stage.NewRect(n.Attrs.ID, n.Attrs.Width, n.Attrs.Height)
	rect.Fill, _ = stage.ParseColor(st.Fill)
	rect.Stroke = colorOr(st.Stroke, defaultPageStroke)
	rect.StrokeWidth = st.StrokeWidth
	rect.Dash = st.Dash
	return f.container(ctx, n, rect)
}

func (f *Factory) bubble(ctx context.Context, n *CNode) (*stage.Node, error) {
	url := n.ImageURL
	if url == "" {
		url = f.BubbleURL
	}
	img, err := f.loadImage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("build bubble %s: %w", n.Attrs.ID, err)
	}
	n.ImageURL = url

	b := img.Bounds()
	target := f.BubbleTarget
	if target <= 0 {
		target = DefaultBubbleTarget
	}
	k := min(target/float64(b.Dx()), target/float64(b.Dy()))
	n.Attrs.Width = float64(b.Dx()) * k
	n.Attrs.Height = float64(b.Dy()) * k

	art := stage.NewImage(n.Attrs.ID, img)
	return f.container(ctx, n, art), nil
}

func (f *Factory) image(ctx context.Context, n *CNode, container string) (*stage.Node, error) {
	url := n.DisplayURL()
	img, err := f.loadImage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("build image %s: %w", n.Attrs.ID, err)
	}
	n.ImageURL = url

	ln := stage.NewImage(n.Attrs.ID, img)
	applyGeometry(ln, n.Attrs)
	if n.Attrs.HasSize() {
		ln.Width, ln.Height = n.Attrs.Width, n.Attrs.Height
	}
	ln.Draggable = true
	ln.Ref = Ref{ID: n.Attrs.ID, Kind: KindImage, Container: container}
	return ln, nil
}

func (f *Factory) textRun(n *CNode) *stage.TextRun {
	t := n.Text
	if t == nil {
		t = &TextPayload{}
	}
	return &stage.TextRun{
		Content:    t.Content,
		FontFamily: t.FontFamily,
		FontSize:   t.FontSize,
		Align:      stage.ParseAlign(t.Align),
		Fonts:      f.Fonts,
	}
}

func (f *Factory) text(n *CNode, container string) *stage.Node {
	st := styleOf(n)
	id := n.Attrs.ID
	ln := stage.NewText(id, f.textRun(n))
	applyGeometry(ln, n.Attrs)
	ln.Width = n.Attrs.Width
	ln.Fill = colorOr(st.Fill, stage.ColorBlack)
	ln.Stroke, _ = stage.ParseColor(st.Stroke)
	ln.StrokeWidth = st.StrokeWidth
	ln.Draggable = true
	ln.Ref = Ref{ID: id, Kind: KindText, Container: container}
	ln.OnDblClick = func(stage.ClickContext) {
		if f.OnEditText != nil {
			f.OnEditText(id)
		}
	}
	return ln
}

// centerText places a freshly created text child in the middle of its
// container and records the position.
func (f *Factory) centerText(ch, parent *CNode) {
	normalizeScale(&ch.Attrs)
	w, h := f.textRun(ch).Measure()
	if ch.Attrs.Width > 0 {
		w = ch.Attrs.Width
	}
	ch.Attrs.X = (parent.Attrs.Width - w*ch.Attrs.ScaleX) / 2
	ch.Attrs.Y = (parent.Attrs.Height - h*ch.Attrs.ScaleY) / 2
}

func (f *Factory) markArea(n *CNode, container string) *stage.Node {
	st := styleOf(n)
	ln := stage.NewRect(n.Attrs.ID, n.Attrs.Width, n.Attrs.Height)
	applyGeometry(ln, n.Attrs)
	ln.Stroke = colorOr(st.Stroke, defaultMarkStroke)
	ln.StrokeWidth = markAreaStrokeWidth
	ln.Dash = markAreaDash
	ln.Draggable = true
	ln.Resize = stage.ResizeBox
	ln.Ref = Ref{ID: n.Attrs.ID, Kind: KindMarkArea, Container: container}
	return ln
}

func (f *Factory) loadImage(ctx context.Context, url string) (image.Image, error) {
	if f.Loader == nil {
		return nil, fmt.Errorf("load %q: no image loader", url)
	}
	img, err := f.Loader.Load(ctx, url)
	if err == nil {
		if b := img.Bounds(); b.Dx() > 0 && b.Dy() > 0 {
			return img, nil
		}
		err = fmt.Errorf("load %q: empty image", url)
	}
	if f.Placeholder != nil && f.Placeholder(url) {
		return placeholderImage(), nil
	}
	return nil, err
}

// placeholderImage is shown for an image that is still being generated.
func placeholderImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, placeholderSide, placeholderSide))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = placeholderGray.R
		img.Pix[i+1] = placeholderGray.G
		img.Pix[i+2] = placeholderGray.B
		img.Pix[i+3] = placeholderGray.A
	}
	return img
}
