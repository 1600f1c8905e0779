// Command analyze prints quick, human-readable heuristics about the instances
// in a configs directory. It summarizes grid dimensions, dirt counts, the
// state-space bound, the cheapest action, a lower bound on the solution cost,
// and highlights dirt the agent can never reach with the declared actions.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/vacuumworld/world/config"
	"github.com/wricardo/mcp-training/vacuumworld/world/model"
)

// Analysis is what analyze reports for one instance
type Analysis struct {
	Name            string
	Description     string
	Rows            int
	Columns         int
	Dirt            int
	StateBound      uint64
	CheapestAction  model.Action
	CheapestCost    float64
	LowerBound      float64
	UnreachableDirt []model.Position
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "print heuristics about vacuum world instances",
		ArgsUsage: "[instance names...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing instance files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(cmd.Root().Writer, cmd.String("config-dir"), cmd.Args().Slice())
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run analyzes the named instances, or every instance in dir when none are named
func run(w io.Writer, dir string, names []string) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		infos, err := manager.ListInstances()
		if err != nil {
			return err
		}
		for _, info := range infos {
			names = append(names, info.InstanceID)
		}
	}

	for _, name := range names {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", name)
		inst, err := manager.LoadInstance(name)
		if err != nil {
			fmt.Fprintf(w, "Error loading instance: %v\n", err)
			continue
		}
		a, err := analyzeInstance(inst)
		if err != nil {
			fmt.Fprintf(w, "Error building model: %v\n", err)
			continue
		}
		writeAnalysis(w, a)
	}
	return nil
}

func analyzeInstance(inst *model.Instance) (*Analysis, error) {
	m, err := inst.Build()
	if err != nil {
		return nil, err
	}

	initial := m.Initial()
	cheapest, cheapestCost := m.CheapestAction()

	return &Analysis{
		Name:            inst.Name,
		Description:     inst.Description,
		Rows:            m.Rows(),
		Columns:         m.Columns(),
		Dirt:            initial.Dirty.Len(),
		StateBound:      m.StateSpaceBound(),
		CheapestAction:  cheapest,
		CheapestCost:    cheapestCost,
		LowerBound:      lowerBound(m),
		UnreachableDirt: m.UnreachableDirt(),
	}, nil
}

// lowerBound is one Suck per dirty cell plus one move for every dirty cell
// other than the starting cell, each at the cheapest declared move cost
func lowerBound(m *model.Model) float64 {
	initial := m.Initial()
	n := initial.Dirty.Len()
	if n == 0 {
		return 0
	}

	moves := n
	if initial.Dirty.Contains(initial.Pos) {
		moves--
	}

	minMove := 0.0
	for _, a := range m.Actions() {
		if a == model.Suck {
			continue
		}
		if c := m.Cost(a); minMove == 0 || c < minMove {
			minMove = c
		}
	}

	return float64(n)*m.Cost(model.Suck) + float64(moves)*minMove
}

func writeAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	if a.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", a.Description)
	}
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Rows, a.Columns)
	fmt.Fprintf(w, "Dirty Cells: %d\n", a.Dirt)
	fmt.Fprintf(w, "State Space Bound: %d\n", a.StateBound)
	fmt.Fprintf(w, "Cheapest Action: %s (%.2f)\n", a.CheapestAction, a.CheapestCost)
	fmt.Fprintf(w, "Cost Lower Bound: %.2f\n", a.LowerBound)

	if len(a.UnreachableDirt) == 0 {
		fmt.Fprintln(w, "All dirty cells are reachable")
		return
	}
	cells := make([]string, len(a.UnreachableDirt))
	for i, p := range a.UnreachableDirt {
		cells[i] = p.String()
	}
	fmt.Fprintf(w, "WARNING: unreachable dirt at %s, no solution exists\n", strings.Join(cells, ", "))
}
