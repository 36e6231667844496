package svg

import (
	"strings"
	"testing"
)

func TestBarsRendersRects(t *testing.T) {
	out, err := Bars(0, 0, []float64{10, 25, 5}, []string{"1", "2", "3"}, Opts{Title: "Order distribution"})
	if err != nil {
		t.Fatalf("bars: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "<svg") || !strings.HasSuffix(s, "</svg>") {
		t.Fatalf("not a self-contained svg element")
	}
	if strings.Count(s, "<rect") != 3 {
		t.Fatalf("expected 3 bars, got %d", strings.Count(s, "<rect"))
	}
	if !strings.Contains(s, "Order distribution") {
		t.Fatalf("title missing")
	}
}

func TestBarsValidation(t *testing.T) {
	if _, err := Bars(0, 0, nil, nil, Opts{}); err == nil {
		t.Fatalf("expected error for empty values")
	}
	if _, err := Bars(0, 0, []float64{1}, []string{"a", "b"}, Opts{}); err == nil {
		t.Fatalf("expected error for label mismatch")
	}
}

func TestLineRendersPolyline(t *testing.T) {
	out, err := Line(0, 0, []float64{1, 4, 2, 8}, []string{"mon", "tue", "wed", "thu"}, Opts{})
	if err != nil {
		t.Fatalf("line: %v", err)
	}
	if !strings.Contains(string(out), "<polyline") {
		t.Fatalf("polyline missing")
	}
}

func TestLineEscapesLabels(t *testing.T) {
	out, err := Line(0, 0, []float64{1, 2}, []string{"<b>", "ok"}, Opts{})
	if err != nil {
		t.Fatalf("line: %v", err)
	}
	if strings.Contains(string(out), "<b>") {
		t.Fatalf("label not escaped")
	}
}

func TestLineNeedsTwoPoints(t *testing.T) {
	if _, err := Line(0, 0, []float64{1}, []string{"a"}, Opts{}); err == nil {
		t.Fatalf("expected error for single point")
	}
}
