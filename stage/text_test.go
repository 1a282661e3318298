package stage

import "testing"

func TestTextRunMeasure(t *testing.T) {
	run := &TextRun{Content: "ab\ncdef", FontSize: 20}
	w, h := run.Measure()
	if h != 40 {
		t.Errorf("height = %v, want 40", h)
	}
	lines := run.Lines()
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[1].Width <= lines[0].Width {
		t.Errorf("line widths = %v, %v; want second wider", lines[0].Width, lines[1].Width)
	}
	if w != lines[1].Width {
		t.Errorf("width = %v, want widest line %v", w, lines[1].Width)
	}
}

func TestTextRunLineHeight(t *testing.T) {
	run := &TextRun{Content: "a\nb\nc", FontSize: 10, LineHeight: 1.5}
	if _, h := run.Measure(); h != 45 {
		t.Errorf("height = %v, want 45", h)
	}
}

func TestTextRunRelayoutOnChange(t *testing.T) {
	run := &TextRun{Content: "a", FontSize: 16}
	w1, _ := run.Measure()
	run.Content = "aaaa"
	w2, _ := run.Measure()
	if w2 <= w1 {
		t.Errorf("width did not grow: %v -> %v", w1, w2)
	}
}

func TestTextLineOffset(t *testing.T) {
	tests := []struct {
		align Align
		want  float64
	}{
		{AlignLeft, 0},
		{AlignCenter, 25},
		{AlignRight, 50},
	}
	for _, tt := range tests {
		run := &TextRun{Align: tt.align}
		if got := run.lineOffset(50, 100); got != tt.want {
			t.Errorf("lineOffset(%v) = %v, want %v", tt.align, got, tt.want)
		}
	}
}

func TestTextNodeSizeUsesBoxWidth(t *testing.T) {
	n := NewText("t", &TextRun{Content: "hello", FontSize: 12})
	n.Width = 300
	w, h := n.Size()
	if w != 300 {
		t.Errorf("width = %v, want 300", w)
	}
	if h != 12 {
		t.Errorf("height = %v, want 12", h)
	}
}

func TestFontBookFallback(t *testing.T) {
	b := NewFontBook()
	if b.Has("Comic") {
		t.Error("Has(Comic) = true on empty book")
	}
	if b.Face("Comic", 14) == nil {
		t.Error("unknown family should fall back")
	}
	if b.Face("Comic", 14) != b.Face("Comic", 14) {
		t.Error("faces should be cached")
	}
	if err := b.Register("Bad", []byte("not a font")); err == nil {
		t.Error("Register should reject invalid data")
	}
}
