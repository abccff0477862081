package visualization

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/simulation"
)

// MarkerLabel annotates the intervention step on charts.
const MarkerLabel = "Correction Boost"

// meanColor draws the whole-population mean.
const meanColor = "#7f7f7f"

// groupColors maps demographics to series colors.
var groupColors = map[population.Demographic]string{
	population.DemographicA: "#d62728",
	population.DemographicB: "#1f77b4",
}

// ReportInput is what a report renders. Either field may be nil.
type ReportInput struct {
	Title      string
	Trajectory *simulation.Trajectory
	Sweep      *simulation.SweepResult
	Now        func() time.Time
}

type reportData struct {
	Title     string
	Generated string
	Run       *runSection
	Sweep     *sweepSection
}

type runSection struct {
	RunID        string
	Seed         uint64
	Agents       int
	Timesteps    int
	Rate         float64
	KNeighbors   int
	RewireProb   float64
	Edges        int
	Intervention string
	FinalAverage float64
	LineChart    template.HTML
	GroupNames   []string
	Phases       []phaseRow
	Heatmaps     []template.HTML
}

type phaseRow struct {
	Label string
	Start int
	End   int
	Means []float64
}

type sweepSection struct {
	SweepID string
	Seed    uint64
	Chart   template.HTML
	Points  []simulation.SweepPoint
}

// RenderReport produces a self-contained HTML report with inline SVG charts:
// group mean belief over time, per-group belief heatmaps with the
// intervention marked, and the final-belief-versus-trust sweep curve.
func RenderReport(in ReportInput) ([]byte, error) {
	if in.Trajectory == nil && in.Sweep == nil {
		return nil, fmt.Errorf("render report: nothing to render")
	}

	now := time.Now
	if in.Now != nil {
		now = in.Now
	}
	title := in.Title
	if title == "" {
		title = "Belief propagation report"
	}

	data := reportData{
		Title:     title,
		Generated: now().UTC().Format(time.RFC3339),
	}
	if in.Trajectory != nil {
		data.Run = buildRunSection(in.Trajectory)
	}
	if in.Sweep != nil {
		data.Sweep = buildSweepSection(in.Sweep)
	}

	tmplBytes, err := templates.ReadFile("templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}
	tmpl, err := template.New("report").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

func buildRunSection(traj *simulation.Trajectory) *runSection {
	opts := traj.Options
	sec := &runSection{
		RunID:        traj.RunID,
		Seed:         traj.Seed,
		Agents:       opts.Agents,
		Timesteps:    traj.Len(),
		Rate:         opts.MisinformationRate,
		KNeighbors:   opts.KNeighbors,
		RewireProb:   opts.RewireProb,
		FinalAverage: traj.FinalAverage(),
	}
	if traj.Graph != nil {
		sec.Edges = traj.Graph.EdgeCount()
	}

	sched := opts.Schedule()
	var marker *int
	if sched.HasIntervention() {
		step := *sched.InterventionStep
		marker = &step
		sec.Intervention = fmt.Sprintf("step %d, rate %.3f -> %.3f", step, sched.BaselineRate, sched.PostRate)
	}

	steps := make([]float64, traj.Len())
	for i := range steps {
		steps[i] = float64(i)
	}

	var series []Series
	for _, d := range population.Demographics() {
		if _, ok := traj.Groups[d]; !ok {
			continue
		}
		sec.GroupNames = append(sec.GroupNames, d.String())
		series = append(series, Series{
			Name:  d.String(),
			Color: groupColors[d],
			X:     steps,
			Y:     traj.GroupSeries(d),
		})
	}
	series = append(series, Series{
		Name:  "all agents",
		Color: meanColor,
		X:     steps,
		Y:     traj.MeanSeries(),
	})

	chart := LineChart{
		Title:  "Mean belief by demographic",
		XLabel: "Time Step",
		YLabel: "Mean Belief",
		Width:  900,
		Height: 360,
		YMin:   0,
		YMax:   1,
	}
	if marker != nil {
		m := float64(*marker)
		chart.Marker = &m
		chart.MarkerLabel = MarkerLabel
	}
	sec.LineChart = chart.Render(series...)

	for _, span := range simulation.Phases(traj.Len()) {
		if span.End <= span.Start {
			continue
		}
		row := phaseRow{Label: span.Label, Start: span.Start, End: span.End - 1}
		last := traj.Snapshots[span.End-1]
		for _, d := range population.Demographics() {
			if _, ok := traj.Groups[d]; !ok {
				continue
			}
			row.Means = append(row.Means, last.GroupMeans[d])
		}
		sec.Phases = append(sec.Phases, row)
	}

	for _, d := range population.Demographics() {
		if _, ok := traj.Groups[d]; !ok {
			continue
		}
		hm := Heatmap{
			Title:  fmt.Sprintf("Belief heatmap: %s", d),
			Width:  660,
			Height: 340,
			Marker: marker,
		}
		if marker != nil {
			hm.MarkerLabel = MarkerLabel
		}
		sec.Heatmaps = append(sec.Heatmaps, hm.Render(traj.Matrix(d)))
	}

	return sec
}

func buildSweepSection(res *simulation.SweepResult) *sweepSection {
	trust, belief := res.Curve()
	chart := LineChart{
		Title:  "Final average belief vs trust",
		XLabel: "Trust Level",
		YLabel: "Final Average Belief",
		Width:  720,
		Height: 360,
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, b := range belief {
		lo, hi = math.Min(lo, b), math.Max(hi, b)
	}
	if len(belief) > 0 {
		chart.YMin = math.Max(0, lo-0.05)
		chart.YMax = math.Min(1, hi+0.05)
	}

	return &sweepSection{
		SweepID: res.SweepID,
		Seed:    res.Seed,
		Chart:   chart.Render(Series{Name: "final belief", Color: "#2ca02c", X: trust, Y: belief}),
		Points:  res.Points,
	}
}
