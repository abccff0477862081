package visualization

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestRenderReport_Run(t *testing.T) {
	traj := testTrajectory(t)

	page, err := RenderReport(ReportInput{Trajectory: traj, Now: fixedNow})
	require.NoError(t, err)

	out := string(page)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "Belief propagation report")
	assert.Contains(t, out, "Generated 2026-03-01T12:00:00Z")
	assert.Contains(t, out, traj.RunID)
	assert.Contains(t, out, "step 6, rate 0.300 -&gt; 0.100")
	assert.Contains(t, out, MarkerLabel)
	assert.Contains(t, out, "all agents", "population mean line missing from chart")
	for _, phase := range []string{"Preparation", "Development", "Escalation"} {
		assert.Contains(t, out, phase)
	}
	assert.Contains(t, out, "Belief heatmap: female")
	assert.Contains(t, out, "Belief heatmap: male")
	assert.NotContains(t, out, "Trust sweep")

	// Charts are inline SVG, not escaped text.
	assert.Contains(t, out, "<svg")
	assert.NotContains(t, out, "&lt;svg")
}

func TestRenderReport_Sweep(t *testing.T) {
	res := testSweep(t)

	page, err := RenderReport(ReportInput{Title: "Sweep only", Sweep: res, Now: fixedNow})
	require.NoError(t, err)

	out := string(page)
	assert.Contains(t, out, "<title>Sweep only</title>")
	assert.Contains(t, out, "Trust sweep")
	assert.Contains(t, out, res.SweepID)
	assert.Contains(t, out, "Final average belief vs trust")
	assert.Equal(t, len(res.Points), strings.Count(out, "<tr><td>0."))
	assert.NotContains(t, out, "Belief heatmap")
}

func TestRenderReport_NoIntervention(t *testing.T) {
	traj := testTrajectory(t)
	traj.Options.InterventionStep = nil

	page, err := RenderReport(ReportInput{Trajectory: traj, Now: fixedNow})
	require.NoError(t, err)
	assert.NotContains(t, string(page), MarkerLabel)
	assert.NotContains(t, string(page), "<th>Intervention</th>")
}

func TestRenderReport_Empty(t *testing.T) {
	_, err := RenderReport(ReportInput{})
	assert.Error(t, err)
}
