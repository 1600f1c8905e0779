// Package model defines the vacuum world problem: a rectangular grid, an agent
// position, the set of dirty cells and a table of fixed, positive action costs.
//
// The model package provides:
//   - Position, DirtySet and State types with an order-independent StateKey
//   - The transition function for Left, Right, Up, Down and Suck
//   - The goal predicate (no dirt left, agent position irrelevant)
//   - Construction-time validation that reports ErrInvalidConfiguration
//   - A reachability flood fill over the declared movement actions
//
// Usage:
//
//	m, err := model.NewModel(model.DefaultConfig(), model.Position{Row: 2, Col: 2},
//		[]model.Position{{Row: 1, Col: 2}, {Row: 2, Col: 4}})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	pos, dirty, cost := m.Transition(model.Suck, m.Initial().Pos, m.Initial().Dirty)
//
// Movement that would leave the grid is a legal no-op and still charges the
// action's cost. Every transition returns a fresh DirtySet, so successors
// generated from the same parent never share dirt.
package model
