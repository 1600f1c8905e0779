package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/vacuumworld/world/model"
	"github.com/wricardo/mcp-training/vacuumworld/world/search"
)

func TestRenderGrid(t *testing.T) {
	dirty := model.NewDirtySet(model.Position{Row: 1, Col: 2}, model.Position{Row: 2, Col: 1})
	got := RenderGrid(2, 2, model.Position{Row: 1, Col: 1}, dirty)

	expected := "" +
		"+---+---+\n" +
		"| A | D |\n" +
		"+---+---+\n" +
		"| D |   |\n" +
		"+---+---+\n"
	if got != expected {
		t.Errorf("Unexpected grid:\n%s\nwant:\n%s", got, expected)
	}
}

func TestRenderGrid_AgentOnDirt(t *testing.T) {
	got := RenderGrid(1, 1, model.Position{Row: 1, Col: 1}, model.NewDirtySet(model.Position{Row: 1, Col: 1}))
	if !strings.Contains(got, "| @ |") {
		t.Errorf("Expected agent-on-dirt marker, got:\n%s", got)
	}
}

func TestSequence(t *testing.T) {
	if got := Sequence([]model.Action{model.Up, model.Suck}); got != "Up -> Suck" {
		t.Errorf("Expected 'Up -> Suck', got %q", got)
	}
	if got := Sequence(nil); got != "" {
		t.Errorf("Expected empty sequence, got %q", got)
	}
}

func TestNewSummary_Solved(t *testing.T) {
	m, err := model.NewModel(model.DefaultConfig(), model.Position{Row: 2, Col: 2}, []model.Position{{Row: 1, Col: 2}})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}
	res := search.NewEngine(m).Search()

	s, err := NewSummary(m, res, 1500*time.Microsecond)
	if err != nil {
		t.Fatalf("Failed to build summary: %v", err)
	}

	if !s.Solved {
		t.Fatal("Expected solved summary")
	}
	if s.Sequence != "Up -> Suck" {
		t.Errorf("Expected 'Up -> Suck', got %q", s.Sequence)
	}
	if s.Moves != 2 {
		t.Errorf("Expected 2 moves, got %d", s.Moves)
	}
	if math.Abs(s.TotalCost-1.4) > 1e-9 {
		t.Errorf("Expected total cost 1.4, got %v", s.TotalCost)
	}

	out := s.String()
	for _, want := range []string{
		"First 5 expanded search nodes:",
		"Node 1:\n  Agent Position: (2, 2)\n  Path: []",
		"Total number of nodes expanded:",
		"CPU execution time: 0.001500 seconds",
		"Sequence of moves: Up -> Suck",
		"Total number of moves: 2",
		"Total cost of solution: 1.40",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, out)
		}
	}
}

func TestNewSummary_NoSolution(t *testing.T) {
	m, err := model.NewModel(model.DefaultConfig(), model.Position{Row: 1, Col: 1}, nil)
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}

	s, err := NewSummary(m, search.Result{Found: false, Stats: search.Stats{Expanded: 3}}, 0)
	if err != nil {
		t.Fatalf("Failed to build summary: %v", err)
	}
	if s.Solved || s.Path != nil {
		t.Errorf("Expected unsolved summary, got %+v", s)
	}
	if !strings.Contains(s.String(), "Solution wasn't found.") {
		t.Errorf("Expected no-solution line, got:\n%s", s.String())
	}
}
