package visualization

import (
	"fmt"
	"html"
	"html/template"
	"math"
	"strings"
)

// Chart margins in pixels.
const (
	marginLeft   = 52
	marginRight  = 16
	marginTop    = 28
	marginBottom = 40
)

// Series is one line of a line chart.
type Series struct {
	Name  string
	Color string
	X     []float64
	Y     []float64
}

// LineChart renders series as an inline SVG line chart.
type LineChart struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int

	// YMin and YMax fix the vertical range. Equal values mean auto-range.
	YMin float64
	YMax float64

	// Marker, when set, draws a dashed vertical line at that x value.
	Marker      *float64
	MarkerLabel string
}

// Render draws the chart. Points with NaN y values are skipped.
func (c LineChart) Render(series ...Series) template.HTML {
	w, h := defaultSize(c.Width, c.Height)
	plotW := float64(w - marginLeft - marginRight)
	plotH := float64(h - marginTop - marginBottom)

	xMin, xMax := math.Inf(1), math.Inf(-1)
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for i, x := range s.X {
			if i >= len(s.Y) || math.IsNaN(s.Y[i]) {
				continue
			}
			xMin, xMax = math.Min(xMin, x), math.Max(xMax, x)
			yMin, yMax = math.Min(yMin, s.Y[i]), math.Max(yMax, s.Y[i])
		}
	}
	if c.YMin != c.YMax {
		yMin, yMax = c.YMin, c.YMax
	}
	xMin, xMax = padRange(xMin, xMax)
	yMin, yMax = padRange(yMin, yMax)

	px := func(x float64) float64 { return marginLeft + (x-xMin)/(xMax-xMin)*plotW }
	py := func(y float64) float64 { return marginTop + plotH - (y-yMin)/(yMax-yMin)*plotH }

	var b strings.Builder
	openSVG(&b, w, h, c.Title)
	drawAxes(&b, w, h, c.XLabel, c.YLabel)

	for k := 0; k <= 4; k++ {
		y := yMin + float64(k)*(yMax-yMin)/4
		fmt.Fprintf(&b, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#eee"/>`, marginLeft, py(y), w-marginRight, py(y))
		fmt.Fprintf(&b, `<text x="%d" y="%.1f" font-size="10" text-anchor="end">%.2f</text>`, marginLeft-4, py(y)+3, y)
		x := xMin + float64(k)*(xMax-xMin)/4
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" font-size="10" text-anchor="middle">%s</text>`, px(x), h-marginBottom+14, tick(x))
	}

	if c.Marker != nil {
		mx := px(*c.Marker)
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#555" stroke-dasharray="4 3"/>`, mx, marginTop, mx, h-marginBottom)
		if c.MarkerLabel != "" {
			fmt.Fprintf(&b, `<text x="%.1f" y="%d" font-size="10">%s</text>`, mx+4, marginTop+10, html.EscapeString(c.MarkerLabel))
		}
	}

	for k, s := range series {
		var pts []string
		for i, x := range s.X {
			if i >= len(s.Y) || math.IsNaN(s.Y[i]) {
				continue
			}
			pts = append(pts, fmt.Sprintf("%.1f,%.1f", px(x), py(s.Y[i])))
		}
		color := s.Color
		if color == "" {
			color = palette[k%len(palette)]
		}
		fmt.Fprintf(&b, `<polyline fill="none" stroke="%s" stroke-width="2" points="%s"/>`, html.EscapeString(color), strings.Join(pts, " "))
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="10" height="3" fill="%s"/>`, w-marginRight-110, marginTop+6+14*k, html.EscapeString(color))
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11">%s</text>`, w-marginRight-96, marginTop+10+14*k, html.EscapeString(s.Name))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()) // #nosec G203
}

// Heatmap renders a steps x agents matrix as an inline SVG heatmap with time
// on the horizontal axis.
type Heatmap struct {
	Title  string
	Width  int
	Height int

	// Marker, when set, draws a vertical line before that step.
	Marker      *int
	MarkerLabel string
}

// Render draws matrix, where matrix[step][agent] is a belief in [0, 1].
func (hm Heatmap) Render(matrix [][]float64) template.HTML {
	w, h := defaultSize(hm.Width, hm.Height)
	plotW := float64(w - marginLeft - marginRight)
	plotH := float64(h - marginTop - marginBottom)

	var b strings.Builder
	openSVG(&b, w, h, hm.Title)
	drawAxes(&b, w, h, "Time Step", "Agent")

	steps := len(matrix)
	agents := 0
	if steps > 0 {
		agents = len(matrix[0])
	}
	if steps > 0 && agents > 0 {
		cw := plotW / float64(steps)
		ch := plotH / float64(agents)
		for t, row := range matrix {
			for a, v := range row {
				fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>step %d agent %d: %.3f</title></rect>`,
					marginLeft+float64(t)*cw, marginTop+float64(a)*ch, cw+0.3, ch+0.3, heatColor(v), t, a, v)
			}
		}
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="10">0</text>`, marginLeft, h-marginBottom+14)
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="10" text-anchor="end">%d</text>`, w-marginRight, h-marginBottom+14, steps-1)

		if hm.Marker != nil && *hm.Marker >= 0 && *hm.Marker < steps {
			mx := marginLeft + float64(*hm.Marker)*cw
			fmt.Fprintf(&b, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#fff" stroke-width="2" stroke-dasharray="5 3"/>`, mx, marginTop, mx, h-marginBottom)
			if hm.MarkerLabel != "" {
				fmt.Fprintf(&b, `<text x="%.1f" y="%d" font-size="10">%s</text>`, mx+4, marginTop-4, html.EscapeString(hm.MarkerLabel))
			}
		}
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()) // #nosec G203
}

// palette is the default series color cycle.
var palette = []string{"#d62728", "#1f77b4", "#2ca02c", "#9467bd", "#ff7f0e"}

// heatColor maps a belief onto a red (0) to green (1) CSS color.
func heatColor(v float64) string {
	return fmt.Sprintf("hsl(%.0f,65%%,48%%)", clampUnit(v)*120)
}

func defaultSize(w, h int) (int, int) {
	if w <= 0 {
		w = 640
	}
	if h <= 0 {
		h = 320
	}
	return w, h
}

func openSVG(b *strings.Builder, w, h int, title string) {
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" font-family="Helvetica, Arial, sans-serif">`, w, h, w, h)
	if title != "" {
		fmt.Fprintf(b, `<text x="%d" y="16" font-size="13" font-weight="bold" text-anchor="middle">%s</text>`, w/2, html.EscapeString(title))
	}
}

func drawAxes(b *strings.Builder, w, h int, xLabel, yLabel string) {
	fmt.Fprintf(b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#333"/>`, marginLeft, h-marginBottom, w-marginRight, h-marginBottom)
	fmt.Fprintf(b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#333"/>`, marginLeft, marginTop, marginLeft, h-marginBottom)
	if xLabel != "" {
		fmt.Fprintf(b, `<text x="%d" y="%d" font-size="11" text-anchor="middle">%s</text>`, (marginLeft+w-marginRight)/2, h-8, html.EscapeString(xLabel))
	}
	if yLabel != "" {
		fmt.Fprintf(b, `<text x="12" y="%d" font-size="11" text-anchor="middle" transform="rotate(-90 12 %d)">%s</text>`, (marginTop+h-marginBottom)/2, (marginTop+h-marginBottom)/2, html.EscapeString(yLabel))
	}
}

// padRange widens a degenerate or empty range so it can be scaled.
func padRange(lo, hi float64) (float64, float64) {
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 1
	}
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}

func tick(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
