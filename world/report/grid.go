package report

import (
	"strings"

	"github.com/wricardo/mcp-training/vacuumworld/world/model"
)

// Grid cell markers
const (
	AgentMark = "A"
	DirtMark  = "D"
	BothMark  = "@"
	EmptyMark = " "
)

// RenderGrid draws the grid with the agent and the dirt on it
func RenderGrid(rows, cols int, agent model.Position, dirty model.DirtySet) string {
	var b strings.Builder
	border := "+" + strings.Repeat("---+", cols) + "\n"

	b.WriteString(border)
	for r := 1; r <= rows; r++ {
		b.WriteString("|")
		for c := 1; c <= cols; c++ {
			b.WriteString(" ")
			b.WriteString(cellMark(model.Position{Row: r, Col: c}, agent, dirty))
			b.WriteString(" |")
		}
		b.WriteString("\n")
		b.WriteString(border)
	}
	return b.String()
}

// RenderModel draws a model's initial state
func RenderModel(m *model.Model) string {
	s := m.Initial()
	return RenderGrid(m.Rows(), m.Columns(), s.Pos, s.Dirty)
}

func cellMark(p, agent model.Position, dirty model.DirtySet) string {
	switch {
	case p == agent && dirty.Contains(p):
		return BothMark
	case p == agent:
		return AgentMark
	case dirty.Contains(p):
		return DirtMark
	}
	return EmptyMark
}
