package stage

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font"
)

// cmdType identifies the kind of draw command.
type cmdType uint8

const (
	cmdFill   cmdType = iota // filled quad
	cmdStroke                // stroked screen-space segments
	cmdImage                 // DrawImage
	cmdText                  // one line of text
)

// drawCmd is a single draw instruction emitted during scene traversal. All
// geometry is in screen pixels.
type drawCmd struct {
	typ    cmdType
	node   *Node
	matrix [6]float64 // node to screen
	quad   [4]Vec2
	segs   [][2]Vec2
	width  float64
	color  Color
	img    image.Image
	line   string
	face   font.Face
	// clip bounds the command on screen. Rotated clips are approximated by
	// their bounding box.
	clip image.Rectangle
}

// renderer draws a node tree directly to an ebiten image. Decoded images are
// uploaded once and kept while a node still shows them.
type renderer struct {
	cmds     []drawCmd
	textures map[image.Image]*ebiten.Image
	used     map[image.Image]bool
	faces    map[font.Face]*text.GoXFace
	white    *ebiten.Image
	verts    []ebiten.Vertex
	inds     []uint16
}

// collect walks the tree and returns the draw commands for a w by h target.
func (r *renderer) collect(root *Node, cam *Camera, w, h int) []drawCmd {
	r.cmds = r.cmds[:0]
	r.walk(root, cam.viewMatrix(), cam.Zoom, image.Rect(0, 0, w, h))
	return r.cmds
}

func (r *renderer) walk(n *Node, parent [6]float64, zoom float64, clip image.Rectangle) {
	if !n.Visible || clip.Empty() {
		return
	}
	m := multiplyAffine(parent, computeLocalTransform(n))

	switch n.Type {
	case NodeTypeRect:
		r.rect(n, m, zoom, clip)
	case NodeTypeImage:
		if n.Image != nil && !n.Image.Bounds().Empty() {
			r.cmds = append(r.cmds, drawCmd{typ: cmdImage, node: n, matrix: m, img: n.Image, clip: clip})
		}
	case NodeTypeText:
		r.text(n, m, clip)
	}

	if len(n.children) == 0 {
		return
	}
	if c := n.Clip; c != nil {
		clip = clip.Intersect(pixelRect(worldAABB(m, c.X, c.Y, c.Width, c.Height)))
	}
	for _, child := range n.children {
		r.walk(child, m, zoom, clip)
	}
}

// pixelRect returns the smallest pixel rectangle covering b.
func pixelRect(b Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(b.X)), int(math.Floor(b.Y)),
		int(math.Ceil(b.X+b.Width)), int(math.Ceil(b.Y+b.Height)),
	)
}

func (r *renderer) rect(n *Node, m [6]float64, zoom float64, clip image.Rectangle) {
	var q [4]Vec2
	for i, p := range [4]Vec2{{0, 0}, {n.Width, 0}, {n.Width, n.Height}, {0, n.Height}} {
		q[i].X, q[i].Y = transformPoint(m, p.X, p.Y)
	}
	if !n.Fill.IsZero() {
		r.cmds = append(r.cmds, drawCmd{typ: cmdFill, node: n, quad: q, color: n.Fill, clip: clip})
	}
	if n.StrokeWidth <= 0 || n.Stroke.IsZero() {
		return
	}
	var segs [][2]Vec2
	for i := range q {
		a, b := q[i], q[(i+1)%4]
		if len(n.Dash) == 0 {
			segs = append(segs, [2]Vec2{a, b})
			continue
		}
		segs = dashSegments(segs, a, b, n.Dash, zoom)
	}
	r.cmds = append(r.cmds, drawCmd{typ: cmdStroke, node: n, segs: segs, width: n.StrokeWidth * zoom, color: n.Stroke, clip: clip})
}

// dashSegments appends the "on" pieces of the line a-b for the dash pattern,
// scaled to screen pixels. The pattern restarts on every edge.
func dashSegments(segs [][2]Vec2, a, b Vec2, dash []float64, scale float64) [][2]Vec2 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return segs
	}
	ux, uy := dx/length, dy/length
	pos := 0.0
	for i := 0; pos < length; i++ {
		d := dash[i%len(dash)] * scale
		if d <= 0 {
			if i >= len(dash) {
				break
			}
			continue
		}
		end := math.Min(pos+d, length)
		if i%2 == 0 {
			segs = append(segs, [2]Vec2{
				{a.X + ux*pos, a.Y + uy*pos},
				{a.X + ux*end, a.Y + uy*end},
			})
		}
		pos = end
	}
	return segs
}

func (r *renderer) text(n *Node, m [6]float64, clip image.Rectangle) {
	run := n.Text
	if run == nil || run.Content == "" {
		return
	}
	face := run.Face()
	boxW, _ := n.Size()
	adv := run.lineAdvance()
	lead := (adv - fixedToFloat(face.Metrics().Height)) / 2
	for i, line := range run.Lines() {
		x := run.lineOffset(line.Width, boxW)
		y := float64(i)*adv + lead
		if n.StrokeWidth > 0 && !n.Stroke.IsZero() {
			rad := n.StrokeWidth / 2
			for k := 0; k < 8; k++ {
				s, c := math.Sincos(float64(k) * math.Pi / 4)
				r.cmds = append(r.cmds, drawCmd{
					typ: cmdText, node: n, line: line.Text, face: face, color: n.Stroke, clip: clip,
					matrix: multiplyAffine(m, [6]float64{1, 0, 0, 1, x + rad*c, y + rad*s}),
				})
			}
		}
		r.cmds = append(r.cmds, drawCmd{
			typ: cmdText, node: n, line: line.Text, face: face, color: n.Fill, clip: clip,
			matrix: multiplyAffine(m, [6]float64{1, 0, 0, 1, x, y}),
		})
	}
}

// draw renders the tree onto dst and releases textures no node shows anymore.
func (r *renderer) draw(dst *ebiten.Image, root *Node, cam *Camera) {
	b := dst.Bounds()
	if r.used == nil {
		r.used = make(map[image.Image]bool)
	}
	clear(r.used)
	for _, c := range r.collect(root, cam, b.Dx(), b.Dy()) {
		target := dst
		if c.clip != b {
			target = dst.SubImage(c.clip).(*ebiten.Image)
		}
		switch c.typ {
		case cmdFill:
			r.fill(target, c.quad, c.color)
		case cmdStroke:
			for _, s := range c.segs {
				r.line(target, s[0], s[1], c.width, c.color)
			}
		case cmdImage:
			r.image(target, c)
		case cmdText:
			op := &text.DrawOptions{}
			op.GeoM = geoM(c.matrix)
			op.ColorScale.ScaleWithColor(c.color.NRGBA())
			text.Draw(target, c.line, r.face(c.face), op)
		}
	}
	for img, tex := range r.textures {
		if !r.used[img] {
			tex.Deallocate()
			delete(r.textures, img)
		}
	}
}

func (r *renderer) image(dst *ebiten.Image, c drawCmd) {
	tex, ok := r.textures[c.img]
	if !ok {
		if r.textures == nil {
			r.textures = make(map[image.Image]*ebiten.Image)
		}
		tex = ebiten.NewImageFromImage(c.img)
		r.textures[c.img] = tex
	}
	r.used[c.img] = true
	ib := c.img.Bounds()
	w, h := c.node.Size()
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(w/float64(ib.Dx()), h/float64(ib.Dy()))
	op.GeoM.Concat(geoM(c.matrix))
	dst.DrawImage(tex, op)
}

func (r *renderer) face(f font.Face) *text.GoXFace {
	if gf, ok := r.faces[f]; ok {
		return gf
	}
	if r.faces == nil {
		r.faces = make(map[font.Face]*text.GoXFace)
	}
	gf := text.NewGoXFace(f)
	r.faces[f] = gf
	return gf
}

// whitePixel returns a 1x1 white source for solid triangles.
func (r *renderer) whitePixel() *ebiten.Image {
	if r.white == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(ColorWhite.NRGBA())
		r.white = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return r.white
}

func (r *renderer) fill(dst *ebiten.Image, q [4]Vec2, c Color) {
	r.verts = r.verts[:0]
	for _, p := range q {
		r.verts = append(r.verts, vertex(p, c))
	}
	r.inds = append(r.inds[:0], 0, 1, 2, 0, 2, 3)
	dst.DrawTriangles(r.verts, r.inds, r.whitePixel(), &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

// line draws a segment of the given pixel width centered on a-b.
func (r *renderer) line(dst *ebiten.Image, a, b Vec2, width float64, c Color) {
	q, ok := lineQuad(a, b, width)
	if !ok {
		return
	}
	r.fill(dst, q, c)
}

// lineQuad returns the corners of a segment of the given width centered on
// a-b, extended by half the width at both ends so corners join.
func lineQuad(a, b Vec2, width float64) ([4]Vec2, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 || width <= 0 {
		return [4]Vec2{}, false
	}
	hw := width / 2
	ux, uy := dx/length*hw, dy/length*hw
	nx, ny := -uy, ux
	return [4]Vec2{
		{a.X - ux + nx, a.Y - uy + ny},
		{b.X + ux + nx, b.Y + uy + ny},
		{b.X + ux - nx, b.Y + uy - ny},
		{a.X - ux - nx, a.Y - uy - ny},
	}, true
}

func vertex(p Vec2, c Color) ebiten.Vertex {
	return ebiten.Vertex{
		DstX: float32(p.X), DstY: float32(p.Y),
		SrcX: 1, SrcY: 1,
		ColorR: float32(clamp01(c.R)), ColorG: float32(clamp01(c.G)),
		ColorB: float32(clamp01(c.B)), ColorA: float32(clamp01(c.A)),
	}
}

// geoM converts an affine matrix [a, b, c, d, tx, ty] to an ebiten.GeoM.
func geoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}
