package model

import (
	"fmt"
	"sort"
	"strings"
)

// Action is one of the agent's fixed actions
type Action string

const (
	Left  Action = "Left"
	Right Action = "Right"
	Up    Action = "Up"
	Down  Action = "Down"
	Suck  Action = "Suck"

	// Grid limits accepted by Config validation
	MinGridSize = 1
	MaxGridSize = 64
)

// CanonicalActions is the default enumeration order used for expansion
var CanonicalActions = []Action{Left, Right, Up, Down, Suck}

// IsKnown reports whether a is one of the five supported actions
func (a Action) IsKnown() bool {
	switch a {
	case Left, Right, Up, Down, Suck:
		return true
	}
	return false
}

// ParseAction matches an action name case-insensitively
func ParseAction(s string) (Action, error) {
	for _, a := range CanonicalActions {
		if strings.EqualFold(string(a), strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// delta returns the row/column offset of a movement action
func (a Action) delta() (int, int) {
	switch a {
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	}
	return 0, 0
}

// Position represents 1-indexed row,column coordinates
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

// less orders positions row-major
func (p Position) less(o Position) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Col < o.Col
}

// DirtySet is the set of cells that still need cleaning
type DirtySet map[Position]struct{}

// NewDirtySet builds a set from a list of positions; duplicates collapse
func NewDirtySet(cells ...Position) DirtySet {
	d := make(DirtySet, len(cells))
	for _, c := range cells {
		d[c] = struct{}{}
	}
	return d
}

// Contains reports whether p is dirty
func (d DirtySet) Contains(p Position) bool {
	_, ok := d[p]
	return ok
}

// Len returns the number of dirty cells
func (d DirtySet) Len() int {
	return len(d)
}

// Clone returns an independent copy of the set
func (d DirtySet) Clone() DirtySet {
	c := make(DirtySet, len(d))
	for p := range d {
		c[p] = struct{}{}
	}
	return c
}

// Without returns a copy of the set with p removed
func (d DirtySet) Without(p Position) DirtySet {
	c := d.Clone()
	delete(c, p)
	return c
}

// Sorted returns the dirty cells in row-major order
func (d DirtySet) Sorted() []Position {
	cells := make([]Position, 0, len(d))
	for p := range d {
		cells = append(cells, p)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].less(cells[j]) })
	return cells
}

// Key returns the canonical, order-independent encoding of the set
func (d DirtySet) Key() string {
	var b strings.Builder
	for i, p := range d.Sorted() {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%d,%d", p.Row, p.Col)
	}
	return b.String()
}

// State is the agent position together with the remaining dirt
type State struct {
	Pos   Position
	Dirty DirtySet
}

// StateKey identifies equivalent states; it is comparable and usable as a map key
type StateKey struct {
	Pos   Position
	Dirty string
}

// Key returns the state's dedup key
func (s State) Key() StateKey {
	return StateKey{Pos: s.Pos, Dirty: s.Dirty.Key()}
}

// Config holds grid dimensions and the action cost table
type Config struct {
	Rows        int                `json:"rows" yaml:"rows"`
	Columns     int                `json:"columns" yaml:"columns"`
	Actions     []Action           `json:"actions,omitempty" yaml:"actions,omitempty"`
	ActionCosts map[Action]float64 `json:"action_costs" yaml:"action_costs"`
}

// DefaultActionCosts returns the classic asymmetric cost table
func DefaultActionCosts() map[Action]float64 {
	return map[Action]float64{
		Left:  1.0,
		Right: 0.9,
		Up:    0.8,
		Down:  0.7,
		Suck:  0.6,
	}
}

// DefaultConfig returns the classic 4x5 world
func DefaultConfig() Config {
	return Config{
		Rows:        4,
		Columns:     5,
		Actions:     append([]Action(nil), CanonicalActions...),
		ActionCosts: DefaultActionCosts(),
	}
}

// declaredActions returns the configured actions or the canonical order
func (c Config) declaredActions() []Action {
	if len(c.Actions) == 0 {
		return CanonicalActions
	}
	return c.Actions
}
