package trie

// Node is one trie position. Children keep insertion order so that traversal,
// and therefore search output, is deterministic across encode/decode cycles.
type Node struct {
	children map[Label]*Node
	order    []Label
	terminal []string
	marked   bool
}

// NewNode returns an empty node.
func NewNode() *Node {
	return &Node{}
}

// Child returns the child under l.
func (n *Node) Child(l Label) (*Node, bool) {
	if n.children == nil {
		return nil, false
	}
	c, ok := n.children[l]
	return c, ok
}

// Ensure returns the child under l, creating it when absent.
func (n *Node) Ensure(l Label) *Node {
	if c, ok := n.Child(l); ok {
		return c
	}
	if n.children == nil {
		n.children = make(map[Label]*Node)
	}
	c := NewNode()
	n.children[l] = c
	n.order = append(n.order, l)
	return c
}

// Labels returns the child labels in insertion order. The slice must not be modified.
func (n *Node) Labels() []Label {
	return n.order
}

// Len returns the number of children.
func (n *Node) Len() int {
	return len(n.order)
}

// HasTerminal reports whether the node carries a terminal marker.
func (n *Node) HasTerminal() bool {
	return n.marked
}

// Terminal returns the names completing at this node, in insertion order.
func (n *Node) Terminal() []string {
	return n.terminal
}

// MarkTerminal ensures a terminal marker exists without adding names.
func (n *Node) MarkTerminal() {
	n.marked = true
}

// AppendTerminal adds name to the terminal marker, creating it if needed.
// Duplicates are kept.
func (n *Node) AppendTerminal(name string) {
	n.marked = true
	n.terminal = append(n.terminal, name)
}

// WalkSegments follows, creating as needed, one directory-segment edge per element.
func (n *Node) WalkSegments(segments []string) *Node {
	cur := n
	for _, s := range segments {
		cur = cur.Ensure(Segment(s))
	}
	return cur
}

// CountTerminals returns the total number of terminal names in the subtree.
func (n *Node) CountTerminals() int {
	total := len(n.terminal)
	for _, l := range n.order {
		total += n.children[l].CountTerminals()
	}
	return total
}
