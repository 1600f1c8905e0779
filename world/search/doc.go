// Package search implements uniform-cost graph search over a vacuum world model.
//
// The engine keeps a frontier ordered by accumulated path cost, breaking ties by
// insertion order, and a closed set of state keys that prevents a state from
// being expanded twice. Because every action cost is positive, the first goal
// node popped from the frontier carries a minimum-cost path.
//
// Usage:
//
//	m, _ := model.NewModel(model.DefaultConfig(), start, dirt)
//	result := search.NewEngine(m).Search()
//	if !result.Found {
//		fmt.Println("Solution wasn't found.")
//	}
//
// An Engine is not safe for concurrent use. Independent searches may run in
// parallel on separate engines.
package search
