package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer renders a parse tree as an indented, s-expression-like listing,
// in the same spirit as the teacher's lang/ast.Printer (one node per line,
// children indented under their parent).
type Printer struct {
	Output io.Writer
	// WithPos includes each node's source position in the output.
	WithPos bool
}

// Print writes n and its descendants to p.Output.
func (p *Printer) Print(n *Node) error {
	return p.print(n, 0)
}

func (p *Printer) print(n *Node, depth int) error {
	if n == nil {
		return nil
	}
	indent := strings.Repeat("  ", depth)
	line := fmt.Sprintf("%s%s", indent, n.Kind)
	if n.Value != "" {
		line += fmt.Sprintf(" %q", n.Value)
	}
	if p.WithPos && !n.Pos.Unknown() {
		line += fmt.Sprintf(" @%s", n.Pos)
	}
	if _, err := fmt.Fprintln(p.Output, line); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := p.print(c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
