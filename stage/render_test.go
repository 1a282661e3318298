package stage

import (
	"image"
	"testing"
)

func commandsOf(cmds []drawCmd, typ cmdType) []drawCmd {
	var out []drawCmd
	for _, c := range cmds {
		if c.typ == typ {
			out = append(out, c)
		}
	}
	return out
}

func TestCollectFollowsCamera(t *testing.T) {
	root := NewGroup("root")
	r := NewRect("r", 10, 10)
	r.Fill = ColorBlack
	root.AddChild(r)

	cam := newCamera(Rect{Width: 100, Height: 100})
	cam.X, cam.Y = 5, 5 // world (5,5) at screen center
	var rd renderer
	fills := commandsOf(rd.collect(root, cam, 100, 100), cmdFill)
	if len(fills) != 1 {
		t.Fatalf("fill commands = %d, want 1", len(fills))
	}
	q := fills[0].quad
	if !approxEqual(q[0].X, 45) || !approxEqual(q[0].Y, 45) || !approxEqual(q[2].X, 55) || !approxEqual(q[2].Y, 55) {
		t.Errorf("quad = %v, want (45,45)-(55,55)", q)
	}
	if fills[0].clip != image.Rect(0, 0, 100, 100) {
		t.Errorf("clip = %v, want the whole target", fills[0].clip)
	}
}

func TestCollectStrokeScalesWithZoom(t *testing.T) {
	root := NewGroup("root")
	r := NewRect("r", 10, 10)
	r.Stroke = ColorBlack
	r.StrokeWidth = 2
	root.AddChild(r)

	cam := newCamera(Rect{Width: 100, Height: 100})
	cam.Zoom = 2
	var rd renderer
	cmds := rd.collect(root, cam, 100, 100)
	if n := len(commandsOf(cmds, cmdFill)); n != 0 {
		t.Errorf("fill commands = %d, want 0 for a transparent rect", n)
	}
	strokes := commandsOf(cmds, cmdStroke)
	if len(strokes) != 1 {
		t.Fatalf("stroke commands = %d, want 1", len(strokes))
	}
	if strokes[0].width != 4 || len(strokes[0].segs) != 4 {
		t.Errorf("stroke = width %v, %d segments, want width 4, 4 segments", strokes[0].width, len(strokes[0].segs))
	}
}

func TestCollectClipsChildren(t *testing.T) {
	root := NewGroup("root")
	g := NewGroup("g")
	g.SetPosition(10, 10)
	g.Clip = &Rect{Width: 20, Height: 20}
	child := NewRect("c", 50, 50)
	child.Fill = ColorBlack
	g.AddChild(child)
	root.AddChild(g)

	var rd renderer
	fills := commandsOf(rd.collect(root, newCamera(Rect{Width: 100, Height: 100}), 100, 100), cmdFill)
	if len(fills) != 1 {
		t.Fatalf("fill commands = %d, want 1", len(fills))
	}
	if want := image.Rect(10, 10, 30, 30); fills[0].clip != want {
		t.Errorf("clip = %v, want %v", fills[0].clip, want)
	}
}

func TestCollectSkipsHiddenAndEmpty(t *testing.T) {
	root := NewGroup("root")
	hidden := NewRect("h", 10, 10)
	hidden.Fill = ColorBlack
	hidden.Visible = false
	root.AddChild(hidden)
	root.AddChild(NewImage("empty", image.NewNRGBA(image.Rect(0, 0, 0, 0))))
	img := NewImage("img", image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	root.AddChild(img)

	var rd renderer
	cmds := rd.collect(root, newCamera(Rect{Width: 100, Height: 100}), 100, 100)
	if len(cmds) != 1 || cmds[0].typ != cmdImage || cmds[0].node != img {
		t.Errorf("commands = %+v, want only the non-empty image", cmds)
	}
}

func TestCollectTextLines(t *testing.T) {
	root := NewGroup("root")
	n := NewText("t", &TextRun{Content: "a\nb", FontSize: 20})
	n.Fill = ColorBlack
	n.Stroke = ColorWhite
	n.StrokeWidth = 2
	root.AddChild(n)

	var rd renderer
	texts := commandsOf(rd.collect(root, newCamera(Rect{Width: 100, Height: 100}), 100, 100), cmdText)
	// Eight outline passes and one fill per line.
	if len(texts) != 18 {
		t.Fatalf("text commands = %d, want 18", len(texts))
	}
	if texts[8].line != "a" || texts[17].line != "b" {
		t.Errorf("lines = %q, %q, want a, b", texts[8].line, texts[17].line)
	}
	if texts[17].matrix[5] <= texts[8].matrix[5] {
		t.Errorf("second line at y %v, want below first at %v", texts[17].matrix[5], texts[8].matrix[5])
	}
}

func TestDashSegments(t *testing.T) {
	tests := []struct {
		name  string
		dash  []float64
		scale float64
		want  [][2]float64
	}{
		{"pattern", []float64{2, 3}, 1, [][2]float64{{0, 2}, {5, 7}}},
		{"scaled", []float64{2, 3}, 2, [][2]float64{{0, 4}}},
		{"truncated", []float64{4, 1}, 1, [][2]float64{{0, 4}, {5, 9}}},
		{"zero", []float64{0, 0}, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := dashSegments(nil, Vec2{0, 0}, Vec2{10, 0}, tt.dash, tt.scale)
			if len(segs) != len(tt.want) {
				t.Fatalf("segments = %v, want %v", segs, tt.want)
			}
			for i, s := range segs {
				if !approxEqual(s[0].X, tt.want[i][0]) || !approxEqual(s[1].X, tt.want[i][1]) {
					t.Errorf("segment %d = %v, want x %v", i, s, tt.want[i])
				}
			}
		})
	}
}

func TestLineQuad(t *testing.T) {
	q, ok := lineQuad(Vec2{0, 0}, Vec2{10, 0}, 2)
	if !ok {
		t.Fatal("lineQuad rejected a valid segment")
	}
	want := [4]Vec2{{-1, 1}, {11, 1}, {11, -1}, {-1, -1}}
	for i := range want {
		if !approxEqual(q[i].X, want[i].X) || !approxEqual(q[i].Y, want[i].Y) {
			t.Errorf("corner %d = %v, want %v", i, q[i], want[i])
		}
	}
	if _, ok := lineQuad(Vec2{1, 1}, Vec2{1, 1}, 2); ok {
		t.Error("lineQuad accepted a zero-length segment")
	}
}

func TestGeoMMatchesAffine(t *testing.T) {
	n := NewRect("r", 1, 1)
	n.SetPosition(7, -3)
	n.SetRotation(0.5)
	n.SetScale(2, 3)
	m := computeLocalTransform(n)
	g := geoM(m)
	wx, wy := transformPoint(m, 4, 5)
	gx, gy := g.Apply(4, 5)
	if !approxEqual(gx, wx) || !approxEqual(gy, wy) {
		t.Errorf("GeoM.Apply = (%v, %v), want (%v, %v)", gx, gy, wx, wy)
	}
}
