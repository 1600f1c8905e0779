package model

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
)

// Model is a validated vacuum world problem
type Model struct {
	cfg     Config
	actions []Action
	initial State
}

// NewModel validates the configuration and the initial placement and returns a model
func NewModel(cfg Config, initial Position, dirty []Position) (*Model, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := validatePlacement(cfg, initial, dirty); err != nil {
		return nil, err
	}

	costs := make(map[Action]float64, len(cfg.ActionCosts))
	for a, c := range cfg.ActionCosts {
		costs[a] = c
	}
	actions := append([]Action(nil), cfg.declaredActions()...)
	cfg.ActionCosts = costs
	cfg.Actions = actions

	return &Model{
		cfg:     cfg,
		actions: actions,
		initial: State{Pos: initial, Dirty: NewDirtySet(dirty...)},
	}, nil
}

// Rows returns the grid height
func (m *Model) Rows() int { return m.cfg.Rows }

// Columns returns the grid width
func (m *Model) Columns() int { return m.cfg.Columns }

// Config returns a copy of the model's configuration
func (m *Model) Config() Config {
	cfg := m.cfg
	cfg.Actions = append([]Action(nil), m.actions...)
	cfg.ActionCosts = make(map[Action]float64, len(m.cfg.ActionCosts))
	for a, c := range m.cfg.ActionCosts {
		cfg.ActionCosts[a] = c
	}
	return cfg
}

// Actions returns the declared actions in expansion order
func (m *Model) Actions() []Action {
	return m.actions
}

// Cost returns the fixed cost of an action
func (m *Model) Cost(a Action) float64 {
	return m.cfg.ActionCosts[a]
}

// Initial returns the starting state; the dirty set is a copy
func (m *Model) Initial() State {
	return State{Pos: m.initial.Pos, Dirty: m.initial.Dirty.Clone()}
}

// InBounds reports whether p lies on the grid
func (m *Model) InBounds(p Position) bool {
	return inBounds(m.cfg, p)
}

// Transition applies action at pos. Moves off the grid leave the position
// unchanged; Suck removes pos from the dirt if present. The action cost is
// charged either way and the returned set is never the caller's set.
func (m *Model) Transition(action Action, pos Position, dirty DirtySet) (Position, DirtySet, float64) {
	cost := m.cfg.ActionCosts[action]

	if action == Suck {
		if dirty.Contains(pos) {
			return pos, dirty.Without(pos), cost
		}
		return pos, dirty.Clone(), cost
	}

	dr, dc := action.delta()
	next := Position{Row: pos.Row + dr, Col: pos.Col + dc}
	if !m.InBounds(next) {
		next = pos
	}
	return next, dirty.Clone(), cost
}

// IsGoal reports whether all dirt has been removed
func (m *Model) IsGoal(dirty DirtySet) bool {
	return dirty.Len() == 0
}

// Replay runs path from the initial state and returns the final state and the summed cost
func (m *Model) Replay(path []Action) (State, float64, error) {
	declared := make(map[Action]bool, len(m.actions))
	for _, a := range m.actions {
		declared[a] = true
	}

	state := m.Initial()
	total := 0.0
	for i, a := range path {
		if !declared[a] {
			return state, total, fmt.Errorf("step %d: action %q is not declared", i+1, a)
		}
		var cost float64
		state.Pos, state.Dirty, cost = m.Transition(a, state.Pos, state.Dirty)
		total += cost
	}
	return state, total, nil
}

// CheapestAction returns the declared action with the lowest cost
func (m *Model) CheapestAction() (Action, float64) {
	actions := append([]Action(nil), m.actions...)
	sort.SliceStable(actions, func(i, j int) bool { return m.Cost(actions[i]) < m.Cost(actions[j]) })
	return actions[0], m.Cost(actions[0])
}

// StateSpaceBound is the number of distinct states reachable at most:
// cells times 2^dirt
func (m *Model) StateSpaceBound() uint64 {
	cells := uint64(m.cfg.Rows * m.cfg.Columns)
	n := m.initial.Dirty.Len()
	if bits.Len64(cells)+n > 64 {
		return math.MaxUint64
	}
	return cells << uint(n)
}

// ReachableCells flood-fills the grid from the initial position using the
// declared movement actions
func (m *Model) ReachableCells() map[Position]bool {
	seen := map[Position]bool{m.initial.Pos: true}
	queue := []Position{m.initial.Pos}
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		for _, a := range m.actions {
			if a == Suck {
				continue
			}
			dr, dc := a.delta()
			next := Position{Row: pos.Row + dr, Col: pos.Col + dc}
			if !m.InBounds(next) || seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return seen
}

// UnreachableDirt returns the dirty cells the agent can never stand on, sorted
func (m *Model) UnreachableDirt() []Position {
	reachable := m.ReachableCells()
	var out []Position
	for _, p := range m.initial.Dirty.Sorted() {
		if !reachable[p] {
			out = append(out, p)
		}
	}
	return out
}
