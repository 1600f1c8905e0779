package search

import (
	"container/heap"

	"github.com/wricardo/mcp-training/vacuumworld/world/model"
)

// Node is one point in the search tree
type Node struct {
	State model.State
	Cost  float64
	Path  []model.Action

	seq uint64
}

// frontier is a min-heap ordered by (Cost, seq). The sequence number makes
// ties resolve to the node that entered the frontier first.
type frontier struct {
	nodes []*Node
	next  uint64
}

func (f *frontier) Len() int { return len(f.nodes) }

func (f *frontier) Less(i, j int) bool {
	a, b := f.nodes[i], f.nodes[j]
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	return a.seq < b.seq
}

func (f *frontier) Swap(i, j int) { f.nodes[i], f.nodes[j] = f.nodes[j], f.nodes[i] }

func (f *frontier) Push(x any) {
	f.nodes = append(f.nodes, x.(*Node))
}

func (f *frontier) Pop() any {
	old := f.nodes
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	f.nodes = old[:n-1]
	return node
}

// add stamps the node with the next sequence number and pushes it
func (f *frontier) add(n *Node) {
	n.seq = f.next
	f.next++
	heap.Push(f, n)
}

// pop removes the cheapest, oldest node
func (f *frontier) pop() *Node {
	return heap.Pop(f).(*Node)
}
