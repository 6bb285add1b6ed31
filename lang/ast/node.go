// Package ast defines the parse-tree contract the interpreter core
// consumes (spec §3, §6): an opaque product of a kind name, an optional
// leaf value, and an ordered sequence of children.
package ast

import "github.com/mna/sdlcad/lang/token"

// Node is a parse tree node. Leaves carry Value; non-leaves carry Children.
// The Kind string is the dispatch key used by both the static and dynamic
// rule tables (spec §4).
type Node struct {
	Kind     string
	Value    string
	Pos      token.Pos
	Children []*Node
}

// New builds a non-leaf node.
func New(kind string, pos token.Pos, children ...*Node) *Node {
	return &Node{Kind: kind, Pos: pos, Children: children}
}

// Leaf builds a leaf node carrying a literal value.
func Leaf(kind, value string, pos token.Pos) *Node {
	return &Node{Kind: kind, Value: value, Pos: pos}
}

// Len returns the number of children (0 for leaves).
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Children)
}

// At returns the i-th child, or nil if out of range.
func (n *Node) At(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}
