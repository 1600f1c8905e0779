package search

import "github.com/wricardo/mcp-training/vacuumworld/world/model"

// Problem is what the engine needs from a world model
type Problem interface {
	Initial() model.State
	Actions() []model.Action
	Transition(action model.Action, pos model.Position, dirty model.DirtySet) (model.Position, model.DirtySet, float64)
	IsGoal(dirty model.DirtySet) bool
}

// Expander produces the successors of a node, one per declared action
type Expander struct {
	problem   Problem
	generated int
}

// NewExpander creates an expander for the problem
func NewExpander(p Problem) *Expander {
	return &Expander{problem: p}
}

// Expand returns one successor per action, in declaration order. Blocked
// moves still produce a successor.
func (e *Expander) Expand(n *Node) []*Node {
	actions := e.problem.Actions()
	successors := make([]*Node, 0, len(actions))

	for _, action := range actions {
		pos, dirty, cost := e.problem.Transition(action, n.State.Pos, n.State.Dirty)

		path := make([]model.Action, len(n.Path), len(n.Path)+1)
		copy(path, n.Path)
		path = append(path, action)

		successors = append(successors, &Node{
			State: model.State{Pos: pos, Dirty: dirty},
			Cost:  n.Cost + cost,
			Path:  path,
		})
	}

	e.generated += len(successors)
	return successors
}

// Generated returns the number of successors produced so far
func (e *Expander) Generated() int {
	return e.generated
}
