// Package visualization renders simulation results: the contact network as
// DOT or JSON, trajectories and sweeps as JSON or CSV, and a self-contained
// HTML report with line charts and heatmaps.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/beliefsim/internal/network"
	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/simulation"
)

// Format specifies the output format for rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatDOT, FormatJSON, FormatCSV, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: dot, json, csv, html)", s)
}

// nodeShapes maps demographics to DOT node shapes.
var nodeShapes = map[population.Demographic]string{
	population.DemographicA: "circle",
	population.DemographicB: "box",
}

// NetworkView is the contact network plus the per-agent values drawn on it.
type NetworkView struct {
	Graph        *network.Graph
	Beliefs      []float64
	Demographics []population.Demographic
	Centrality   []float64 // PageRank, normalized so the max is 1
}

// NewNetworkView captures the network of a run colored by its final beliefs.
func NewNetworkView(traj *simulation.Trajectory) NetworkView {
	demos := make([]population.Demographic, traj.Graph.NodeCount())
	for d, idx := range traj.Groups {
		for _, i := range idx {
			demos[i] = d
		}
	}
	return NetworkView{
		Graph:        traj.Graph,
		Beliefs:      traj.FinalBeliefs(),
		Demographics: demos,
		Centrality:   network.ComputePageRank(traj.Graph, network.DefaultPageRankConfig()),
	}
}

// BeliefColor maps a belief in [0, 1] onto a red (0) to green (1) hue in
// Graphviz HSV notation.
func BeliefColor(belief float64) string {
	return fmt.Sprintf("%.3f 0.650 0.900", clampUnit(belief)/3)
}

// RenderDOT produces an undirected Graphviz representation of the network.
// Fill color encodes belief, shape encodes demographic and size encodes
// PageRank centrality.
func RenderDOT(view NetworkView) string {
	var b strings.Builder
	b.WriteString("graph beliefsim {\n")
	b.WriteString("  layout=neato;\n")
	b.WriteString("  overlap=false;\n")
	b.WriteString("  node [style=filled, fontname=\"Helvetica\", fontsize=8, fixedsize=true];\n")
	b.WriteString("  edge [color=\"#00000040\"];\n\n")

	for i := 0; i < view.Graph.NodeCount(); i++ {
		shape := nodeShapes[view.demographic(i)]
		if shape == "" {
			shape = "ellipse"
		}
		size := 0.25 + 0.35*view.centrality(i)
		b.WriteString(fmt.Sprintf("  %d [label=\"%d\", shape=%s, width=%.2f, height=%.2f, fillcolor=%q, tooltip=\"belief=%.3f\"];\n",
			i, i, shape, size, size, BeliefColor(view.belief(i)), view.belief(i)))
	}
	b.WriteString("\n")

	for _, e := range view.Graph.Edges() {
		b.WriteString(fmt.Sprintf("  %d -- %d;\n", e.U, e.V))
	}

	b.WriteString("}\n")
	return b.String()
}

// GraphNode is one node of the JSON network representation.
type GraphNode struct {
	ID          int                    `json:"id"`
	Demographic population.Demographic `json:"demographic"`
	Belief      float64                `json:"belief"`
	Degree      int                    `json:"degree"`
	PageRank    float64                `json:"pagerank"`
}

// GraphJSON is the JSON network representation.
type GraphJSON struct {
	Nodes     []GraphNode    `json:"nodes"`
	Edges     []network.Edge `json:"edges"`
	NodeCount int            `json:"node_count"`
	EdgeCount int            `json:"edge_count"`
}

// RenderGraphJSON produces the network as nodes and edges arrays.
func RenderGraphJSON(view NetworkView) GraphJSON {
	n := view.Graph.NodeCount()
	nodes := make([]GraphNode, n)
	for i := 0; i < n; i++ {
		nodes[i] = GraphNode{
			ID:          i,
			Demographic: view.demographic(i),
			Belief:      view.belief(i),
			Degree:      view.Graph.Degree(i),
			PageRank:    view.centrality(i),
		}
	}
	return GraphJSON{
		Nodes:     nodes,
		Edges:     view.Graph.Edges(),
		NodeCount: n,
		EdgeCount: view.Graph.EdgeCount(),
	}
}

func (v NetworkView) belief(i int) float64 {
	if i < len(v.Beliefs) {
		return v.Beliefs[i]
	}
	return 0
}

func (v NetworkView) demographic(i int) population.Demographic {
	if i < len(v.Demographics) {
		return v.Demographics[i]
	}
	return ""
}

func (v NetworkView) centrality(i int) float64 {
	if i < len(v.Centrality) {
		return v.Centrality[i]
	}
	return 0
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
