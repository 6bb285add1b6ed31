// Package builtins wires the fixed table of built-in SDL functions and
// modules (spec §2, §6) into a dynamic.Registry and a static.Scope root,
// the way the teacher's lang/machine wires its own standard library
// closures into a root environment before running user code.
package builtins

import (
	"strconv"

	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/static"
	"github.com/mna/sdlcad/lang/token"
)

// Native built-ins need default-parameter expression nodes the same shape
// the parser would have produced, so the ordinary bindArgs/Eval machinery
// in lang/dynamic handles them with no special case. These helpers build
// the smallest primary-literal nodes that satisfy that contract.

func numLit(v float64) *ast.Node {
	return ast.New("primary", token.Pos(0), ast.Leaf("pr_Num", strconv.FormatFloat(v, 'g', -1, 64), token.Pos(0)))
}

func boolLit(b bool) *ast.Node {
	kind := "pr_false"
	if b {
		kind = "pr_true"
	}
	return ast.New("primary", token.Pos(0), ast.New(kind, token.Pos(0)))
}

func strLit(s string) *ast.Node {
	return ast.New("primary", token.Pos(0), ast.Leaf("pr_Str", s, token.Pos(0)))
}

var undefLit = ast.New("primary", token.Pos(0), ast.New("pr_undef", token.Pos(0)))

// paramSpec is one native parameter: a name plus an optional default node.
// A nil def means the parameter is required (bindArgs warns+Undef on a
// missing argument, matching spec §4.4 step 5).
type paramSpec struct {
	name string
	def  *ast.Node
}

// req declares a required parameter with no default.
func req(name string) paramSpec { return paramSpec{name: name} }

// opt declares an optional parameter defaulting to undef, silently (no
// missing-argument warning, since its default expression evaluates
// cleanly) — the native rendering of the built-in surface's `r?`/`d?`
// notation (spec §6).
func opt(name string) paramSpec { return paramSpec{name: name, def: undefLit} }

func withNum(name string, v float64) paramSpec { return paramSpec{name: name, def: numLit(v)} }
func withBool(name string, v bool) paramSpec   { return paramSpec{name: name, def: boolLit(v)} }
func withStr(name string, v string) paramSpec  { return paramSpec{name: name, def: strLit(v)} }

func mkParams(specs ...paramSpec) static.Params {
	p := static.Params{Defaults: map[string]*ast.Node{}}
	for _, s := range specs {
		p.Positional = append(p.Positional, s.name)
		if s.def != nil {
			p.Defaults[s.name] = s.def
		}
	}
	return p
}
