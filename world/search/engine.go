package search

import "github.com/wricardo/mcp-training/vacuumworld/world/model"

// DefaultCaptureLimit is how many expanded nodes are recorded for reporting
const DefaultCaptureLimit = 5

// ExpandedNode records a popped node for reporting
type ExpandedNode struct {
	Position model.Position `json:"position"`
	Path     []model.Action `json:"path"`
}

// Stats are the search counters
type Stats struct {
	Expanded      int            `json:"nodes_expanded"`
	Generated     int            `json:"nodes_generated"`
	FirstExpanded []ExpandedNode `json:"first_expanded"`
}

// Result is the outcome of a search. Found is false and Path is nil when the
// frontier empties; an already clean start yields Found with an empty path.
type Result struct {
	Found bool           `json:"found"`
	Path  []model.Action `json:"path"`
	Cost  float64        `json:"cost"`
	Stats Stats          `json:"stats"`
}

// Option configures an Engine
type Option func(*Engine)

// WithCaptureLimit sets how many expanded nodes are recorded
func WithCaptureLimit(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.captureLimit = n
		}
	}
}

// Engine runs uniform-cost graph search
type Engine struct {
	problem      Problem
	expander     *Expander
	captureLimit int
}

// NewEngine creates an engine for the problem
func NewEngine(p Problem, opts ...Option) *Engine {
	e := &Engine{
		problem:      p,
		captureLimit: DefaultCaptureLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs the search to completion. Each call starts from a fresh
// frontier, closed set and counters.
func (e *Engine) Search() Result {
	e.expander = NewExpander(e.problem)

	open := &frontier{}
	open.add(&Node{State: e.problem.Initial(), Cost: 0, Path: []model.Action{}})

	closed := make(map[model.StateKey]struct{})
	stats := Stats{FirstExpanded: make([]ExpandedNode, 0, e.captureLimit)}

	for open.Len() > 0 {
		node := open.pop()

		if len(stats.FirstExpanded) < e.captureLimit {
			stats.FirstExpanded = append(stats.FirstExpanded, ExpandedNode{
				Position: node.State.Pos,
				Path:     node.Path,
			})
		}
		stats.Expanded++

		// Goal test runs before the closed-set lookup, so a goal node is
		// returned even when its key was already closed.
		if e.problem.IsGoal(node.State.Dirty) {
			stats.Generated = e.expander.Generated()
			return Result{Found: true, Path: node.Path, Cost: node.Cost, Stats: stats}
		}

		key := node.State.Key()
		if _, done := closed[key]; done {
			continue
		}
		closed[key] = struct{}{}

		for _, succ := range e.expander.Expand(node) {
			open.add(succ)
		}
	}

	stats.Generated = e.expander.Generated()
	return Result{Found: false, Stats: stats}
}
