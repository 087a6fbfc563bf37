// Package graph implements the labeled directed graph that every
// language plugin reduces source bytes to (spec §3, §4.1).
package graph

import "fmt"

// Node is a single vertex in a LabeledGraph. Label carries the
// structural identity of the node; Children holds the ids of this
// node's children in the insertion order the plugin produced them,
// which is itself part of the structural identity of the graph.
type Node struct {
	Label    string
	Children []int
}

// LabeledGraph is a directed graph whose nodes carry a structural
// label and whose edges carry no payload. Node ids are dense,
// zero-based, and stable for the lifetime of the graph. There is a
// single designated root.
//
// LabeledGraph is immutable once built: AddNode, AddChild and SetRoot
// are the only mutators, and callers build it once then never again
// mutate it, so graphs can be shared freely across fingerprinting
// goroutines without copying.
type LabeledGraph struct {
	nodes []Node
	root  int
}

// New creates an empty graph. Root is set by the first call to
// AddNode unless SetRoot is called explicitly afterward.
func New() *LabeledGraph {
	return &LabeledGraph{root: -1}
}

// AddNode appends a node with the given label and returns its id.
// The first node added becomes the root unless SetRoot overrides it.
func (g *LabeledGraph) AddNode(label string) int {
	id := len(g.nodes)
	g.nodes = append(g.nodes, Node{Label: label})
	if g.root == -1 {
		g.root = id
	}
	return id
}

// AddChild appends childID to parentID's ordered child list. Both
// ids must already exist; AddChild panics otherwise, since a plugin
// producing a dangling edge is a programming error, not a runtime
// condition callers should need to recover from.
func (g *LabeledGraph) AddChild(parentID, childID int) {
	if parentID < 0 || parentID >= len(g.nodes) {
		panic(fmt.Sprintf("graph: parent id %d out of range", parentID))
	}
	if childID < 0 || childID >= len(g.nodes) {
		panic(fmt.Sprintf("graph: child id %d out of range", childID))
	}
	g.nodes[parentID].Children = append(g.nodes[parentID].Children, childID)
}

// SetRoot overrides the designated root node.
func (g *LabeledGraph) SetRoot(id int) {
	g.root = id
}

// Root returns the id of the graph's designated root.
func (g *LabeledGraph) Root() int {
	return g.root
}

// NodeCount returns the number of nodes in the graph.
func (g *LabeledGraph) NodeCount() int {
	return len(g.nodes)
}

// Label returns the structural label of node id.
func (g *LabeledGraph) Label(id int) string {
	return g.nodes[id].Label
}

// Children returns the ordered child ids of node id. The returned
// slice must not be mutated by callers.
func (g *LabeledGraph) Children(id int) []int {
	return g.nodes[id].Children
}

// Validate checks the invariants from spec §3: every edge references
// an existing node id, and the graph has a single designated root.
func (g *LabeledGraph) Validate() error {
	if len(g.nodes) == 0 {
		return fmt.Errorf("graph: empty graph has no root")
	}
	if g.root < 0 || g.root >= len(g.nodes) {
		return fmt.Errorf("graph: root id %d out of range [0,%d)", g.root, len(g.nodes))
	}
	for id, n := range g.nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(g.nodes) {
				return fmt.Errorf("graph: node %d references missing child %d", id, c)
			}
		}
	}
	return nil
}

// Walk visits every node reachable from the root in pre-order,
// following the canonical child-insertion order.
func (g *LabeledGraph) Walk(visit func(id int)) {
	if g.root < 0 {
		return
	}
	var rec func(id int)
	rec = func(id int) {
		visit(id)
		for _, c := range g.nodes[id].Children {
			rec(c)
		}
	}
	rec(g.root)
}
