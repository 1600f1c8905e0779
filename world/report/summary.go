package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/vacuumworld/world/model"
	"github.com/wricardo/mcp-training/vacuumworld/world/search"
)

// SequenceSeparator joins actions in a printed move sequence
const SequenceSeparator = " -> "

// Summary is the human-facing outcome of one solve
type Summary struct {
	Solved         bool                  `json:"solved"`
	Path           []model.Action        `json:"path"`
	Sequence       string                `json:"sequence"`
	Moves          int                   `json:"moves"`
	TotalCost      float64               `json:"total_cost"`
	NodesExpanded  int                   `json:"nodes_expanded"`
	NodesGenerated int                   `json:"nodes_generated"`
	FirstExpanded  []search.ExpandedNode `json:"first_expanded"`
	ExecutionTime  time.Duration         `json:"execution_time_ns"`
	Grid           string                `json:"grid"`
}

// NewSummary builds a summary, replaying the path to recompute moves and cost
func NewSummary(m *model.Model, res search.Result, elapsed time.Duration) (*Summary, error) {
	s := &Summary{
		Solved:         res.Found,
		NodesExpanded:  res.Stats.Expanded,
		NodesGenerated: res.Stats.Generated,
		FirstExpanded:  res.Stats.FirstExpanded,
		ExecutionTime:  elapsed,
		Grid:           RenderModel(m),
	}
	if !res.Found {
		return s, nil
	}

	_, total, err := m.Replay(res.Path)
	if err != nil {
		return nil, fmt.Errorf("replay solution: %w", err)
	}

	s.Path = res.Path
	s.Sequence = Sequence(res.Path)
	s.Moves = len(res.Path)
	s.TotalCost = total
	return s, nil
}

// Sequence joins actions for display
func Sequence(path []model.Action) string {
	names := make([]string, len(path))
	for i, a := range path {
		names[i] = string(a)
	}
	return strings.Join(names, SequenceSeparator)
}

// FormatPath renders a path like [Up, Suck]
func FormatPath(path []model.Action) string {
	names := make([]string, len(path))
	for i, a := range path {
		names[i] = string(a)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// WriteTo prints the summary in the classic console layout
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	b.WriteString("First 5 expanded search nodes:\n")
	for i, n := range s.FirstExpanded {
		fmt.Fprintf(&b, "Node %d:\n", i+1)
		fmt.Fprintf(&b, "  Agent Position: %s\n", n.Position)
		fmt.Fprintf(&b, "  Path: %s\n", FormatPath(n.Path))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Total number of nodes expanded: %d\n", s.NodesExpanded)
	fmt.Fprintf(&b, "Total number of nodes generated: %d\n", s.NodesGenerated)
	fmt.Fprintf(&b, "CPU execution time: %.6f seconds\n", s.ExecutionTime.Seconds())

	if s.Solved {
		fmt.Fprintf(&b, "Sequence of moves: %s\n", s.Sequence)
		fmt.Fprintf(&b, "Total number of moves: %d\n", s.Moves)
		fmt.Fprintf(&b, "Total cost of solution: %.2f\n", s.TotalCost)
	} else {
		b.WriteString("Solution wasn't found.\n")
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// String returns the printed summary
func (s *Summary) String() string {
	var b strings.Builder
	s.WriteTo(&b)
	return b.String()
}
