// Command validate provides a small CLI that validates vacuum world instance
// files in the directory given as its first argument, or ../configs when run
// without arguments from the validate directory:
//
//	go run ./validate configs
//
// It checks:
//   - JSON or YAML structure and decoding
//   - Grid dimensions, declared actions and positive action costs
//   - Initial position and dirty cells lying on the grid
//   - Reachability: every dirty cell can be reached with the declared moves
//   - Size: the state space stays within the solver service's limit
//   - Solvability: a uniform-cost search finds a plan whose replayed cost matches
package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/vacuumworld/world/config"
	"github.com/wricardo/mcp-training/vacuumworld/world/model"
	"github.com/wricardo/mcp-training/vacuumworld/world/report"
	"github.com/wricardo/mcp-training/vacuumworld/world/search"
	"github.com/wricardo/mcp-training/vacuumworld/world/service"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads, validates and solves a single instance file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	inst, err := config.DecodeFile(filePath)
	if err != nil {
		result.fail("Failed to load instance: %v", err)
		return result
	}

	if inst.Name == "" {
		result.fail("Instance name is empty")
	}

	m, err := inst.Build()
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if unreachable := m.UnreachableDirt(); len(unreachable) > 0 {
		result.fail("Reachability failure: %d/%d dirty cells unreachable from %s", len(unreachable), len(inst.Dirty), inst.Initial)
		for _, p := range unreachable {
			result.Errors = append(result.Errors, fmt.Sprintf("Unreachable: dirt at %s", p))
		}
		return result
	}

	if bound := m.StateSpaceBound(); bound > service.DefaultMaxStates {
		result.fail("State space of %d exceeds the limit of %d", bound, service.DefaultMaxStates)
		return result
	}

	solved := validateSolution(m)
	result.Errors = append(result.Errors, solved.Errors...)
	if !solved.Valid {
		result.Valid = false
		return result
	}

	if result.Valid {
		cheapest, cost := m.CheapestAction()
		info := []string{
			fmt.Sprintf("✓ Name: %s", inst.Name),
			fmt.Sprintf("✓ Grid: %dx%d", m.Rows(), m.Columns()),
			fmt.Sprintf("✓ Dirty cells: %d", len(inst.Dirty)),
			fmt.Sprintf("✓ Cheapest action: %s (%.2f)", cheapest, cost),
		}
		result.Errors = append(info, result.Errors...)
	}
	return result
}

// validateSolution runs the search and checks the plan by replaying it
func validateSolution(m *model.Model) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	res := search.NewEngine(m).Search()
	if !res.Found {
		result.fail("No solution found after expanding %d nodes", res.Stats.Expanded)
		return result
	}

	final, total, err := m.Replay(res.Path)
	if err != nil {
		result.fail("Solution does not replay: %v", err)
		return result
	}
	if !m.IsGoal(final.Dirty) {
		result.fail("Solution leaves %d dirty cells", final.Dirty.Len())
	}
	if math.Abs(total-res.Cost) > 1e-9 {
		result.fail("Solution cost mismatch: search reported %.2f, replay gives %.2f", res.Cost, total)
	}

	if result.Valid {
		result.Errors = append(result.Errors,
			fmt.Sprintf("✓ Solution: %d moves, cost %.2f, %d nodes expanded", len(res.Path), total, res.Stats.Expanded))
		if len(res.Path) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ Plan: %s", report.Sequence(res.Path)))
		}
	}
	return result
}

// findInstanceFiles lists every instance file in dir, sorted by name
func findInstanceFiles(dir string) ([]string, error) {
	var files []string
	for _, ext := range config.Extensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// validateAll validates every file and writes a report, returning whether all passed
func validateAll(w io.Writer, files []string) bool {
	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All instances are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some instances have errors")
	}
	return allValid
}

// defaultConfigDir is used when no directory argument is given
const defaultConfigDir = "../configs"

// configDirFromArgs returns the directory argument, or defaultConfigDir
func configDirFromArgs(args []string) string {
	if len(args) > 1 && args[1] != "" {
		return args[1]
	}
	return defaultConfigDir
}

// main validates every instance file in the chosen directory, exiting
// non-zero if any are invalid.
func main() {
	configDir := configDirFromArgs(os.Args)

	files, err := findInstanceFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding instance files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No instance files found in %s\n", configDir)
		os.Exit(1)
	}

	if !validateAll(os.Stdout, files) {
		os.Exit(1)
	}
}
