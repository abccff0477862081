package visualization

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/simulation"
)

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// WriteTrajectoryCSV writes one row per step with the rate, phase, overall
// mean and one column per demographic group.
func WriteTrajectoryCSV(w io.Writer, traj *simulation.Trajectory) error {
	cw := csv.NewWriter(w)

	header := []string{"step", "phase", "rate", "mean"}
	for _, d := range population.Demographics() {
		header = append(header, d.String())
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, s := range traj.Snapshots {
		row := []string{
			strconv.Itoa(s.Step),
			string(s.Phase),
			formatFloat(s.Rate),
			formatFloat(s.Mean),
		}
		for _, d := range population.Demographics() {
			if m, ok := s.GroupMeans[d]; ok {
				row = append(row, formatFloat(m))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMatrixCSV writes the steps x agents belief matrix of group d. The
// header row names the agent indices.
func WriteMatrixCSV(w io.Writer, traj *simulation.Trajectory, d population.Demographic) error {
	cw := csv.NewWriter(w)

	idx := traj.Groups[d]
	header := make([]string, 0, len(idx)+1)
	header = append(header, "step")
	for _, a := range idx {
		header = append(header, "agent_"+strconv.Itoa(a))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for step, row := range traj.Matrix(d) {
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, strconv.Itoa(step))
		for _, v := range row {
			rec = append(rec, formatFloat(v))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSweepCSV writes one (trust, final_belief) row per sweep point.
func WriteSweepCSV(w io.Writer, res *simulation.SweepResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"trust", "final_belief"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, p := range res.Points {
		if err := cw.Write([]string{formatFloat(p.Trust), formatFloat(p.FinalBelief)}); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
