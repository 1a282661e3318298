package stage

import (
	"image"
	"image/color"
	"testing"
)

func rgbaAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestRenderRegionFill(t *testing.T) {
	root := NewGroup("root")
	r := NewRect("r", 50, 50)
	r.SetPosition(10, 10)
	r.Fill = Color{1, 0, 0, 1}
	root.AddChild(r)

	var rz Rasterizer
	img := rz.RenderRegion(root, Rect{Width: 100, Height: 100}, 1)
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("bounds = %v, want 100x100", b)
	}
	if got := rgbaAt(img, 30, 30); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("inside = %v, want red", got)
	}
	if got := rgbaAt(img, 80, 80); got.A != 0 {
		t.Errorf("outside = %v, want transparent", got)
	}
}

func TestRenderRegionScaleAndOffset(t *testing.T) {
	root := NewGroup("root")
	r := NewRect("r", 10, 10)
	r.SetPosition(100, 100)
	r.Fill = ColorBlack
	root.AddChild(r)

	var rz Rasterizer
	img := rz.RenderRegion(root, Rect{X: 100, Y: 100, Width: 20, Height: 20}, 2)
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 40 {
		t.Fatalf("bounds = %v, want 40x40", b)
	}
	if got := rgbaAt(img, 10, 10); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("scaled rect pixel = %v, want black", got)
	}
	if got := rgbaAt(img, 30, 30); got.A != 0 {
		t.Errorf("pixel past rect = %v, want transparent", got)
	}
}

func TestRenderBackground(t *testing.T) {
	rz := Rasterizer{Background: ColorWhite}
	img := rz.RenderRegion(NewGroup("root"), Rect{Width: 4, Height: 4}, 1)
	if got := rgbaAt(img, 2, 2); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("background = %v, want white", got)
	}
}

func TestRenderClip(t *testing.T) {
	root := NewGroup("root")
	g := NewGroup("g")
	g.Clip = &Rect{Width: 20, Height: 20}
	r := NewRect("r", 50, 50)
	r.Fill = Color{0, 0, 1, 1}
	g.AddChild(r)
	root.AddChild(g)

	var rz Rasterizer
	img := rz.RenderRegion(root, Rect{Width: 60, Height: 60}, 1)
	if got := rgbaAt(img, 10, 10); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("inside clip = %v, want blue", got)
	}
	if got := rgbaAt(img, 35, 35); got.A != 0 {
		t.Errorf("outside clip = %v, want transparent", got)
	}
}

func TestRenderHiddenSubtree(t *testing.T) {
	root := NewGroup("root")
	r := NewRect("r", 10, 10)
	r.Fill = ColorBlack
	r.Visible = false
	root.AddChild(r)
	var rz Rasterizer
	img := rz.RenderRegion(root, Rect{Width: 10, Height: 10}, 1)
	if got := rgbaAt(img, 5, 5); got.A != 0 {
		t.Errorf("hidden node drew %v", got)
	}
}

func TestRenderImageScaled(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.Set(x, y, color.RGBA{0, 255, 0, 255})
		}
	}
	root := NewGroup("root")
	n := NewImage("img", src)
	n.Width, n.Height = 40, 40
	root.AddChild(n)

	var rz Rasterizer
	img := rz.RenderRegion(root, Rect{Width: 50, Height: 50}, 1)
	if got := rgbaAt(img, 20, 20); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("image pixel = %v, want green", got)
	}
	if got := rgbaAt(img, 45, 45); got.A != 0 {
		t.Errorf("outside image = %v, want transparent", got)
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Errorf("missing PNG signature")
	}
}

func TestWritePNGSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := WritePNG(dir, "my comic/1.png", []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	want := dir + "/my_comic_1.png"
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}
