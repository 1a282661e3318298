package stage

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// --- FontBook ---

type faceKey struct {
	family string
	size   float64
}

// FontBook maps font family names to parsed TrueType fonts and caches sized
// faces. Unknown families fall back to Go Regular.
type FontBook struct {
	fallback *truetype.Font
	fonts    map[string]*truetype.Font
	faces    map[faceKey]font.Face
}

// NewFontBook creates a FontBook holding only the fallback font.
func NewFontBook() *FontBook {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic("stage: parse fallback font: " + err.Error())
	}
	return &FontBook{
		fallback: f,
		fonts:    make(map[string]*truetype.Font),
		faces:    make(map[faceKey]font.Face),
	}
}

var defaultFonts *FontBook

// DefaultFonts returns the shared FontBook used by text runs that don't
// carry their own.
func DefaultFonts() *FontBook {
	if defaultFonts == nil {
		defaultFonts = NewFontBook()
	}
	return defaultFonts
}

// Register parses ttf and binds it to family, replacing any previous binding.
func (b *FontBook) Register(family string, ttf []byte) error {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return fmt.Errorf("parse font %q: %w", family, err)
	}
	b.fonts[family] = f
	for k := range b.faces {
		if k.family == family {
			delete(b.faces, k)
		}
	}
	return nil
}

// LoadFile reads a TrueType file from disk and registers it under family.
func (b *FontBook) LoadFile(family, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %q: %w", family, err)
	}
	return b.Register(family, data)
}

// Has reports whether family has a registered font.
func (b *FontBook) Has(family string) bool {
	_, ok := b.fonts[family]
	return ok
}

// Face returns a face for family at size pixels.
func (b *FontBook) Face(family string, size float64) font.Face {
	if size <= 0 {
		size = 12
	}
	key := faceKey{family, size}
	if face, ok := b.faces[key]; ok {
		return face
	}
	f, ok := b.fonts[family]
	if !ok {
		f = b.fallback
	}
	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	b.faces[key] = face
	return face
}

// --- TextRun ---

// TextLine is one laid-out line of a TextRun.
type TextLine struct {
	Text  string
	Width float64
}

type runLayoutKey struct {
	content    string
	family     string
	size       float64
	lineHeight float64
	fonts      *FontBook
}

// TextRun holds text content, formatting, and cached layout state.
type TextRun struct {
	Content    string
	FontFamily string
	FontSize   float64
	Align      Align
	// LineHeight is a multiple of FontSize; 0 means 1.
	LineHeight float64
	// Fonts overrides DefaultFonts.
	Fonts *FontBook

	// Cached layout (unexported)
	laidOut   bool
	key       runLayoutKey
	lines     []TextLine
	measuredW float64
	measuredH float64
}

func (r *TextRun) fonts() *FontBook {
	if r.Fonts != nil {
		return r.Fonts
	}
	return DefaultFonts()
}

// lineAdvance returns the vertical distance between baselines.
func (r *TextRun) lineAdvance() float64 {
	lh := r.LineHeight
	if lh <= 0 {
		lh = 1
	}
	return r.FontSize * lh
}

// layout recomputes line widths when any input changed.
func (r *TextRun) layout() {
	key := runLayoutKey{r.Content, r.FontFamily, r.FontSize, r.LineHeight, r.Fonts}
	if r.laidOut && key == r.key {
		return
	}
	r.laidOut = true
	r.key = key

	face := r.fonts().Face(r.FontFamily, r.FontSize)
	r.lines = r.lines[:0]
	r.measuredW = 0
	for _, line := range strings.Split(r.Content, "\n") {
		w := fixedToFloat(font.MeasureString(face, line))
		if w > r.measuredW {
			r.measuredW = w
		}
		r.lines = append(r.lines, TextLine{Text: line, Width: w})
	}
	r.measuredH = float64(len(r.lines)) * r.lineAdvance()
}

// Measure returns the laid-out width and height of the run.
func (r *TextRun) Measure() (w, h float64) {
	if r == nil {
		return 0, 0
	}
	r.layout()
	return r.measuredW, r.measuredH
}

// Lines returns the laid-out lines. The slice MUST NOT be mutated.
func (r *TextRun) Lines() []TextLine {
	r.layout()
	return r.lines
}

// Face returns the face the run is laid out with.
func (r *TextRun) Face() font.Face {
	return r.fonts().Face(r.FontFamily, r.FontSize)
}

// lineOffset returns the x offset of a line of width lw inside a box of width boxW.
func (r *TextRun) lineOffset(lw, boxW float64) float64 {
	switch r.Align {
	case AlignCenter:
		return (boxW - lw) / 2
	case AlignRight:
		return boxW - lw
	default:
		return 0
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
