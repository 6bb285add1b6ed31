package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/parser"
)

// stmt unwraps the "statement" wrapper parseStatement always adds around
// the i-th top-level child of an Input node.
func stmt(root *ast.Node, i int) *ast.Node {
	return root.At(i).At(0)
}

func parseOK(t *testing.T, src string) *ast.Node {
	t.Helper()
	root, err := parser.ParseFile("t", []byte(src))
	require.NoError(t, err)
	return root
}

func TestParseAssignment(t *testing.T) {
	root := parseOK(t, "x = 1;")
	n := stmt(root, 0)
	require.Equal(t, "assignment", n.Kind)
	require.Equal(t, "ident", n.At(0).Kind)
	require.Equal(t, "x", n.At(0).Value)
	require.Equal(t, "expr", n.At(1).Kind)
}

func TestParseModuleCallStatement(t *testing.T) {
	root := parseOK(t, "cube(1);")
	n := stmt(root, 0)
	require.Equal(t, "stmt_obj", n.Kind)
	mi := n.At(0)
	require.Equal(t, "module_instantiation", mi.Kind)
	child := mi.At(0)
	require.Equal(t, "mod_inst_child", child.Kind)
	call := child.At(0)
	require.Equal(t, "mod_call", call.Kind)
	require.Equal(t, "cube", call.At(0).Value)
}

func TestParseModuleCallWithChildBlock(t *testing.T) {
	root := parseOK(t, "translate([1,0,0]) cube(1);")
	n := stmt(root, 0)
	mi := n.At(0).At(0)
	require.Equal(t, "mod_inst_child", mi.Kind)
	require.Equal(t, "mod_call", mi.At(0).Kind)
	childStmt := mi.At(1)
	require.Equal(t, "child_statement", childStmt.Kind)
	require.Equal(t, "module_instantiation", childStmt.At(0).Kind)
}

func TestParseModuleCallWithExplicitChildBlock(t *testing.T) {
	root := parseOK(t, "union() { cube(1); sphere(1); }")
	n := stmt(root, 0)
	mi := n.At(0).At(0)
	childStmt := mi.At(1)
	require.Equal(t, "explicit_child", childStmt.At(0).Kind)
	list := childStmt.At(0).At(0)
	require.Equal(t, "child_statements", list.Kind)
	require.Len(t, list.Children, 2)
}

func TestParseModifierPrefixes(t *testing.T) {
	for src, want := range map[string]string{
		"!cube(1);": "mod_inst_bang",
		"#cube(1);": "mod_inst_hash",
		"%cube(1);": "mod_inst_perc",
		"*cube(1);": "mod_inst_star",
	} {
		root := parseOK(t, src)
		n := stmt(root, 0)
		mi := n.At(0)
		require.Equal(t, want, mi.At(0).Kind, src)
	}
}

func TestParseFunctionDeclaration(t *testing.T) {
	root := parseOK(t, "function sq(x) = x * x;")
	n := stmt(root, 0)
	require.Equal(t, "stmt_decl_fn", n.Kind)
	require.Equal(t, "sq", n.At(0).Value)
	params := n.At(1).At(0)
	require.Len(t, params.Children, 1)
	require.Equal(t, "x", params.Children[0].At(0).Value)
}

func TestParseFunctionDeclarationWithDefault(t *testing.T) {
	root := parseOK(t, "function f(x, y=2) = x + y;")
	n := stmt(root, 0)
	params := n.At(1).At(0)
	require.Len(t, params.Children, 2)
	require.Len(t, params.Children[0].Children, 1)
	require.Len(t, params.Children[1].Children, 2)
}

func TestParseModuleDeclaration(t *testing.T) {
	root := parseOK(t, "module box(w, h) { cube([w, h, 1]); }")
	n := stmt(root, 0)
	require.Equal(t, "stmt_decl_mod", n.Kind)
	require.Equal(t, "box", n.At(0).Value)
	body := n.At(2)
	require.Equal(t, "statement", body.Kind)
}

func TestParseIfElse(t *testing.T) {
	root := parseOK(t, "if (x > 0) cube(1); else sphere(1);")
	n := stmt(root, 0)
	require.Equal(t, "ifelse_statement", n.Kind)
	require.Len(t, n.Children, 3)
}

func TestParseIfWithoutElse(t *testing.T) {
	root := parseOK(t, "if (x > 0) cube(1);")
	n := stmt(root, 0)
	require.Len(t, n.Children, 2)
}

func TestParseIncludeStatement(t *testing.T) {
	root := parseOK(t, `include "lib.sdl";`)
	n := stmt(root, 0)
	require.Equal(t, "Include", n.Kind)
	require.Equal(t, "lib.sdl", n.Value)
}

func TestParseUseStatement(t *testing.T) {
	root := parseOK(t, `use "helpers.sdl";`)
	n := stmt(root, 0)
	require.Equal(t, "Use", n.Kind)
	require.Equal(t, "helpers.sdl", n.Value)
}

func TestParseVectorLiteralShape(t *testing.T) {
	root := parseOK(t, "v = [1, 2, 3];")
	n := stmt(root, 0)
	vec := findKind(n.At(1), "pr_vec_elems")
	require.NotNil(t, vec)
	elems := vec.At(0)
	require.Equal(t, "vector_elements", elems.Kind)
	require.Len(t, elems.Children, 3)
}

func TestParseRangeLiteral(t *testing.T) {
	root := parseOK(t, "v = [0:5];")
	n := stmt(root, 0)
	for2 := findKind(n.At(1), "pr_for2")
	require.NotNil(t, for2)
}

func TestParseRangeLiteralWithStep(t *testing.T) {
	root := parseOK(t, "v = [0:2:10];")
	n := stmt(root, 0)
	for3 := findKind(n.At(1), "pr_for3")
	require.NotNil(t, for3)
}

func TestParseFunctionCall(t *testing.T) {
	root := parseOK(t, "x = sin(1);")
	n := stmt(root, 0)
	call := findKind(n.At(1), "fn_call")
	require.NotNil(t, call)
	require.Equal(t, "sin", call.At(0).Value)
}

func TestParseBinaryPrecedence(t *testing.T) {
	root := parseOK(t, "x = 1 + 2 * 3;")
	n := stmt(root, 0)
	add := findKind(n.At(1), "addition")
	require.NotNil(t, add)
	require.Len(t, add.Children, 3) // lhs, op leaf, rhs
	mul := findKind(add.Children[2], "multiplication")
	require.NotNil(t, mul)
	require.Len(t, mul.Children, 3)
}

func TestParseTernary(t *testing.T) {
	root := parseOK(t, "x = a ? b : c;")
	n := stmt(root, 0)
	ec := findKind(n.At(1), "expr_case")
	require.NotNil(t, ec)
	require.Len(t, ec.Children, 3)
}

func TestParseIndexAndCallChain(t *testing.T) {
	root := parseOK(t, "x = v[0];")
	n := stmt(root, 0)
	call := findKind(n.At(1), "call")
	require.NotNil(t, call)
	idx := findKind(call, "add_index")
	require.NotNil(t, idx)
}

func TestParseErrorOnUnexpectedToken(t *testing.T) {
	_, err := parser.ParseFile("t", []byte("cube(1"))
	require.Error(t, err)
}

// TestParseMissingChildAtEOF guards against a module call that expects a
// child statement (no trailing ";") but runs out of input instead; this
// must report an error and terminate rather than recurse looking for a
// child statement that will never appear.
func TestParseMissingChildAtEOF(t *testing.T) {
	root, err := parser.ParseFile("t", []byte("translate([1,0,0])"))
	require.Error(t, err)
	require.NotNil(t, root)
}

func TestParseChildrenCall(t *testing.T) {
	root := parseOK(t, "module m() { children(0); }")
	n := stmt(root, 0)
	body := n.At(2).At(0)
	require.Equal(t, "stmt_list", body.Kind)
}

// findKind does a depth-first search for the first node with the given
// Kind, used to locate a deeply nested expression production without
// hardcoding the exact chain of single-child wrapper nodes the expression
// grammar's precedence levels produce.
func findKind(n *ast.Node, kind string) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind == kind {
		return n
	}
	for _, c := range n.Children {
		if f := findKind(c, kind); f != nil {
			return f
		}
	}
	return nil
}
