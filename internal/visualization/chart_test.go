package visualization

import (
	"math"
	"strings"
	"testing"
)

func TestLineChart_Render(t *testing.T) {
	marker := 2.0
	chart := LineChart{
		Title:       "Beliefs <test>",
		XLabel:      "Time Step",
		YLabel:      "Mean Belief",
		YMin:        0,
		YMax:        1,
		Marker:      &marker,
		MarkerLabel: MarkerLabel,
	}

	out := string(chart.Render(
		Series{Name: "female", Color: "#d62728", X: []float64{0, 1, 2, 3}, Y: []float64{0.4, 0.5, 0.6, 0.7}},
		Series{Name: "male", X: []float64{0, 1, 2, 3}, Y: []float64{0.3, math.NaN(), 0.5, 0.6}},
	))

	if !strings.HasPrefix(out, "<svg") || !strings.HasSuffix(out, "</svg>") {
		t.Fatalf("output is not a single SVG element: %.60s", out)
	}
	if strings.Contains(out, "<test>") {
		t.Error("title should be escaped")
	}
	for _, want := range []string{"Beliefs &lt;test&gt;", "Time Step", "Mean Belief", "Correction Boost", "female", "male", "#d62728", "stroke-dasharray"} {
		if !strings.Contains(out, want) {
			t.Errorf("chart missing %q", want)
		}
	}
	if strings.Contains(out, "NaN") {
		t.Error("NaN points should be skipped")
	}
}

func TestLineChart_RenderEmpty(t *testing.T) {
	out := string(LineChart{Title: "empty"}.Render())
	if !strings.HasPrefix(out, "<svg") || !strings.HasSuffix(out, "</svg>") {
		t.Errorf("empty chart should still be a valid SVG element: %q", out)
	}
	if strings.Contains(out, "NaN") || strings.Contains(out, "Inf") {
		t.Errorf("empty chart leaked non-finite coordinates: %q", out)
	}
}

func TestHeatmap_Render(t *testing.T) {
	marker := 1
	matrix := [][]float64{
		{0, 1},
		{0.5, 0.25},
		{1, 0},
	}

	out := string(Heatmap{Title: "heat", Marker: &marker, MarkerLabel: MarkerLabel}.Render(matrix))

	if got := strings.Count(out, "<rect"); got < 6 {
		t.Errorf("rect count = %d, want at least one per cell (6)", got)
	}
	for _, want := range []string{
		"step 0 agent 1: 1.000",
		"step 2 agent 0: 1.000",
		heatColor(0),
		heatColor(1),
		"Correction Boost",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("heatmap missing %q", want)
		}
	}
}

func TestHeatmap_MarkerOutOfRange(t *testing.T) {
	marker := 10
	out := string(Heatmap{Marker: &marker, MarkerLabel: MarkerLabel}.Render([][]float64{{0.5}}))
	if strings.Contains(out, MarkerLabel) {
		t.Error("marker beyond the last step should not be drawn")
	}
}

func TestHeatColor(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "hsl(0,65%,48%)"},
		{0.5, "hsl(60,65%,48%)"},
		{1, "hsl(120,65%,48%)"},
		{1.5, "hsl(120,65%,48%)"},
	}
	for _, tt := range tests {
		if got := heatColor(tt.v); got != tt.want {
			t.Errorf("heatColor(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
