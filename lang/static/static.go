// Package static implements the static lowering pass (spec §4.1): it
// walks a parse tree produced by lang/parser and builds a tree of
// StaticScope values, each holding lazily-resolved variable expressions,
// function/module definitions, and an ordered work list of renderable
// statements. StaticScopes are immutable once lower() returns, matching
// the teacher's resolver pass in spirit (a single bottom-up tree build)
// though the node shape and scope semantics are entirely SDL's own.
package static

import (
	"path/filepath"

	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/errs"
)

// Scope is a lexically-scoped bundle of declarations (spec §3's
// StaticScope). Scopes form a tree via Parent and are immutable once the
// static pass that built them returns.
type Scope struct {
	Parent *Scope

	Vars  map[string]*ast.Node
	Funcs map[string]*FunctionDef
	Mods  map[string]*ModuleDef

	Work []WorkItem
}

// NewRootScope creates an empty root StaticScope with no parent, meant to
// be populated with native (built-in/preload) function and module entries
// before the user's parse tree is lowered as a child scope beneath it
// (spec §2: built-ins are "wired into the root static environment").
func NewRootScope() *Scope { return newScope(nil) }

// NewChildScope creates an empty scope whose parent is parent, for
// callers (like the root-lowering step) that need to lower user code
// beneath a pre-populated root.
func NewChildScope(parent *Scope) *Scope { return newScope(parent) }

func newScope(parent *Scope) *Scope {
	return &Scope{
		Parent: parent,
		Vars:   make(map[string]*ast.Node),
		Funcs:  make(map[string]*FunctionDef),
		Mods:   make(map[string]*ModuleDef),
	}
}

// LookupVar walks the parent chain for a variable's unevaluated
// expression node.
func (s *Scope) LookupVar(name string) (*ast.Node, *Scope, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if n, ok := sc.Vars[name]; ok {
			return n, sc, true
		}
	}
	return nil, nil, false
}

// LookupFunc walks the parent chain for a function definition.
func (s *Scope) LookupFunc(name string) (*FunctionDef, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if f, ok := sc.Funcs[name]; ok {
			return f, true
		}
	}
	return nil, false
}

// LookupMod walks the parent chain for a module definition.
func (s *Scope) LookupMod(name string) (*ModuleDef, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if m, ok := sc.Mods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Params is a function/module's parameter list: positional names in
// declaration order, plus default expressions for those that have one.
type Params struct {
	Positional []string
	Defaults   map[string]*ast.Node
}

// FunctionDef is a `function name(params) = expr;` declaration.
type FunctionDef struct {
	Name          string
	Params        Params
	Body          *ast.Node // the expr node; nil when Native
	DefiningScope *Scope

	// Native marks a built-in or preload-injected function: its behavior
	// lives in the dynamic package's registry under Name, keyed by name
	// rather than by this struct, so this package stays free of any
	// dependency on values/kernel (spec §2's built-in registry, §6's
	// preload hook).
	Native bool
}

// ModuleDef is a `module name(params) <body>` declaration.
type ModuleDef struct {
	Name          string
	Params        Params
	Body          *Scope // nil when Native
	DefiningScope *Scope

	Native bool
}

// WorkItem is one renderable entry of a scope's ordered work list (spec
// §3). Exactly one of the fields below is set; Kind tells which.
type WorkItem struct {
	Kind WorkKind

	// Statement: a module invocation parse node with no captured child
	// block (e.g. `cube(1);`).
	Node *ast.Node

	// ParentStatement: a module invocation together with its captured
	// child, which is either another single (possibly itself nested)
	// WorkItem, or a full Scope for a brace-delimited block.
	ChildItem  *WorkItem
	ChildScope *Scope

	// Scope: a brace-delimited block inlined into the parent's work list.
	InlineScope *Scope
}

// WorkKind tags the active variant of a WorkItem.
type WorkKind int

const (
	// KindStatement is a module call with no child block.
	KindStatement WorkKind = iota
	// KindParentStatement is a module call with a captured child.
	KindParentStatement
	// KindScope is an inlined brace-delimited block.
	KindScope
)

// Loader resolves `include`/`use` file references to already-parsed input
// nodes, keyed by a canonical path so repeated includes of the same file
// are no-ops (spec §4.1's "re-includes are no-ops").
type Loader interface {
	// Load returns the parsed Input node for path, resolved relative to
	// fromFile (empty for the entry file).
	Load(fromFile, path string) (file string, root *ast.Node, err error)
}

// Lowerer runs the static pass. It tracks already-included file paths to
// break cycles and collects non-fatal warnings through Warn.
type Lowerer struct {
	Loader Loader
	Warn   errs.WarnFunc

	included map[string]bool
}

// Lower builds a StaticScope for the entry file's parsed Input node,
// nested beneath builtinsRoot so built-in/preload names remain reachable
// through the static parent chain while user declarations shadow them
// (spec §4.1: "lower(parse_root) -> StaticScope"; §2's root environment).
// builtinsRoot may be nil for tests that don't need built-ins wired in.
func Lower(root *ast.Node, file string, builtinsRoot *Scope, loader Loader, warn errs.WarnFunc) (*Scope, error) {
	l := &Lowerer{Loader: loader, Warn: warn, included: map[string]bool{}}
	scope := newScope(builtinsRoot)
	if err := l.lowerInto(scope, root, file); err != nil {
		return nil, err
	}
	return scope, nil
}

func canonical(file string) string {
	if abs, err := filepath.Abs(file); err == nil {
		return abs
	}
	return file
}

// lowerInto lowers every statement child of an Input (or stmt_list-like)
// node into scope, in order.
func (l *Lowerer) lowerInto(scope *Scope, node *ast.Node, file string) error {
	l.included[canonical(file)] = true
	for _, child := range node.Children {
		if child.Kind == "EOF" {
			continue
		}
		if err := l.lowerStatement(scope, child, file); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lowerer) warnf(file string, n *ast.Node, format string, args ...any) {
	line, col := 0, 0
	if n != nil {
		line, col = n.Pos.LineCol()
	}
	errs.Warnf(l.Warn, file, line, col, format, args...)
}

func (l *Lowerer) errorf(kind errs.Kind, file string, n *ast.Node, format string, args ...any) error {
	line, col := 0, 0
	if n != nil {
		line, col = n.Pos.LineCol()
	}
	return errs.New(kind, file, line, col, format, args...)
}

// lowerStatement dispatches on a `statement` node's single child kind
// (spec §4.1's "node handling" table).
func (l *Lowerer) lowerStatement(scope *Scope, stmt *ast.Node, file string) error {
	if stmt.Kind != "statement" || stmt.Len() == 0 {
		return l.errorf(errs.KindUnknownNode, file, stmt, "malformed statement node %q", stmt.Kind)
	}
	n := stmt.At(0)
	switch n.Kind {
	case "no_child":
		return nil
	case "stmt_list":
		inner := newScope(scope)
		if err := l.lowerInto(inner, n, file); err != nil {
			return err
		}
		scope.Work = append(scope.Work, WorkItem{Kind: KindScope, InlineScope: inner})
		return nil
	case "assignment":
		name := n.At(0).Value
		if _, exists := scope.Vars[name]; exists {
			l.warnf(file, n, "variable %q redeclared, keeping first declaration", name)
			return nil
		}
		scope.Vars[name] = n.At(1)
		return nil
	case "stmt_decl_fn":
		return l.lowerFuncDecl(scope, n, file)
	case "stmt_decl_mod":
		return l.lowerModDecl(scope, n, file)
	case "ifelse_statement":
		return l.lowerIfElse(scope, n, file)
	case "Include":
		return l.lowerInclude(scope, n, file)
	case "Use":
		return l.lowerUse(scope, n, file)
	case "stmt_obj":
		return l.lowerStmtObj(scope, n, file)
	default:
		return l.errorf(errs.KindUnknownNode, file, n, "unrecognized statement node %q", n.Kind)
	}
}

func (l *Lowerer) lowerFuncDecl(scope *Scope, n *ast.Node, file string) error {
	name := n.At(0).Value
	params := lowerParams(n.At(1))
	body := n.At(2)
	if _, exists := scope.Funcs[name]; exists {
		l.warnf(file, n, "function %q redeclared, keeping first declaration", name)
		return nil
	}
	scope.Funcs[name] = &FunctionDef{Name: name, Params: params, Body: body, DefiningScope: scope}
	return nil
}

func (l *Lowerer) lowerModDecl(scope *Scope, n *ast.Node, file string) error {
	name := n.At(0).Value
	params := lowerParams(n.At(1))
	bodyNode := n.At(2)

	var bodyScope *Scope
	// Reuse a single brace-block's inner scope directly, so children(i)
	// addresses the right items without an extra wrapping layer (spec
	// §4.1: "no double wrapping").
	if bodyNode.Kind == "statement" && bodyNode.Len() == 1 && bodyNode.At(0).Kind == "stmt_list" {
		bodyScope = newScope(scope)
		if err := l.lowerInto(bodyScope, bodyNode.At(0), file); err != nil {
			return err
		}
	} else {
		bodyScope = newScope(scope)
		if err := l.lowerStatement(bodyScope, bodyNode, file); err != nil {
			return err
		}
	}

	if _, exists := scope.Mods[name]; exists {
		l.warnf(file, n, "module %q redeclared, keeping first declaration", name)
		return nil
	}
	scope.Mods[name] = &ModuleDef{Name: name, Params: params, Body: bodyScope, DefiningScope: scope}
	return nil
}

func lowerParams(n *ast.Node) Params {
	p := Params{Defaults: map[string]*ast.Node{}}
	if n.Kind != "parameters" || n.Len() == 0 {
		return p
	}
	list := n.At(0) // parameter_list
	for _, param := range list.Children {
		name := param.At(0).Value
		p.Positional = append(p.Positional, name)
		if param.Len() > 1 {
			p.Defaults[name] = param.At(1)
		}
	}
	return p
}

func (l *Lowerer) lowerIfElse(scope *Scope, n *ast.Node, file string) error {
	cond := n.At(0)
	thenScope := newScope(scope)
	if err := l.lowerStatement(thenScope, n.At(1), file); err != nil {
		return err
	}
	var elseScope *Scope
	if n.Len() > 2 {
		elseScope = newScope(scope)
		if err := l.lowerStatement(elseScope, n.At(2), file); err != nil {
			return err
		}
	}
	scope.Work = append(scope.Work, WorkItem{
		Kind: KindStatement,
		Node: ifElseWorkNode(cond, thenScope, elseScope),
	})
	return nil
}

// ifElseWorkNode packages a deferred conditional as a synthetic node the
// dynamic pass recognizes by Kind, carrying the lowered branch scopes by
// reference via Children[0]/[1] trick is avoided: we stash scopes through
// a side table instead, keyed by the node's identity.
func ifElseWorkNode(cond *ast.Node, thenScope, elseScope *Scope) *ast.Node {
	n := &ast.Node{Kind: "lowered_if", Children: []*ast.Node{cond}}
	deferredScopes[n] = [2]*Scope{thenScope, elseScope}
	return n
}

// deferredScopes links a synthetic `lowered_if` node back to its lowered
// branch scopes. Parse nodes are otherwise pure data (spec §3); this
// side table keeps that contract intact while letting lower() attach
// scopes that have no ast.Node representation of their own.
var deferredScopes = map[*ast.Node][2]*Scope{}

// IfElseBranches returns the lowered then/else scopes attached to a
// `lowered_if` node by the static pass.
func IfElseBranches(n *ast.Node) (thenScope, elseScope *Scope, ok bool) {
	v, ok := deferredScopes[n]
	if !ok {
		return nil, nil, false
	}
	return v[0], v[1], true
}

func (l *Lowerer) lowerInclude(scope *Scope, n *ast.Node, file string) error {
	path := n.Value
	resolvedFile, root, err := l.Loader.Load(file, path)
	if err != nil {
		return l.errorf(errs.KindParse, file, n, "include %q: %v", path, err)
	}
	if l.included[canonical(resolvedFile)] {
		return nil // re-includes are no-ops (spec §4.1)
	}
	return l.lowerInto(scope, root, resolvedFile)
}

// lowerUse lowers the target file into a sibling scope whose vars/funcs
// are spliced under the current scope's parent, so locals still shadow
// them but everything remains reachable (spec §4.1). Work items from a
// used file are discarded.
func (l *Lowerer) lowerUse(scope *Scope, n *ast.Node, file string) error {
	path := n.Value
	resolvedFile, root, err := l.Loader.Load(file, path)
	if err != nil {
		return l.errorf(errs.KindParse, file, n, "use %q: %v", path, err)
	}
	if l.included[canonical(resolvedFile)] {
		return nil
	}
	sibling := newScope(scope.Parent)
	if err := l.lowerInto(sibling, root, resolvedFile); err != nil {
		return err
	}
	for name, v := range sibling.Vars {
		if _, exists := scope.Vars[name]; !exists {
			scope.Vars[name] = v
		}
	}
	for name, f := range sibling.Funcs {
		if _, exists := scope.Funcs[name]; !exists {
			scope.Funcs[name] = f
		}
	}
	for name, m := range sibling.Mods {
		if _, exists := scope.Mods[name]; !exists {
			scope.Mods[name] = m
		}
	}
	return nil
}

// lowerStmtObj handles a `stmt_obj` node: a module_instantiation, possibly
// wrapped in `*`/`#`/`%`/`!` modifier nodes (spec §4.1).
func (l *Lowerer) lowerStmtObj(scope *Scope, n *ast.Node, file string) error {
	inst := n.At(0) // module_instantiation
	return l.lowerModuleInstantiation(scope, inst, file)
}

func (l *Lowerer) lowerModuleInstantiation(scope *Scope, inst *ast.Node, file string) error {
	if inst.Kind != "module_instantiation" || inst.Len() == 0 {
		return l.errorf(errs.KindUnknownNode, file, inst, "malformed module_instantiation")
	}
	inner := inst.At(0)
	switch inner.Kind {
	case "mod_inst_bang":
		l.warnf(file, inner, "'!' modifier is not implemented, statement kept unmodified")
		return l.lowerModuleInstantiation(scope, inner.At(0), file)
	case "mod_inst_hash":
		l.warnf(file, inner, "'#' modifier is not implemented, statement kept unmodified")
		return l.lowerModuleInstantiation(scope, inner.At(0), file)
	case "mod_inst_perc":
		l.warnf(file, inner, "'%%' modifier is not implemented, statement kept unmodified")
		return l.lowerModuleInstantiation(scope, inner.At(0), file)
	case "mod_inst_star":
		return nil // '*' drops the statement entirely
	case "mod_inst_child":
		return l.lowerModInstChild(scope, inner, file)
	default:
		return l.errorf(errs.KindUnknownNode, file, inner, "unrecognized module_instantiation node %q", inner.Kind)
	}
}

func (l *Lowerer) lowerModInstChild(scope *Scope, n *ast.Node, file string) error {
	item, err := l.lowerModInstChildToItem(scope, n, file)
	if err != nil {
		return err
	}
	scope.Work = append(scope.Work, item)
	return nil
}

func (l *Lowerer) lowerChildStatement(scope *Scope, call, child *ast.Node, file string) (WorkItem, error) {
	if child.Kind != "child_statement" || child.Len() == 0 {
		return WorkItem{}, l.errorf(errs.KindUnknownNode, file, child, "malformed child_statement")
	}
	inner := child.At(0)
	switch inner.Kind {
	case "no_child":
		return WorkItem{Kind: KindStatement, Node: call}, nil
	case "explicit_child":
		childScope := newScope(scope)
		stmts := inner.At(0) // child_statements
		for _, cs := range stmts.Children {
			if err := l.lowerChildStatementIntoScope(childScope, cs, file); err != nil {
				return WorkItem{}, err
			}
		}
		return WorkItem{Kind: KindParentStatement, Node: call, ChildScope: childScope}, nil
	case "module_instantiation":
		// bare child: `foo() bar();` — stored as a single (possibly itself
		// nested) WorkItem rather than a full scope, per spec §4.1.
		childItem, err := l.lowerModuleInstantiationToItem(scope, inner, file)
		if err != nil {
			return WorkItem{}, err
		}
		if childItem == nil {
			return WorkItem{Kind: KindStatement, Node: call}, nil
		}
		return WorkItem{Kind: KindParentStatement, Node: call, ChildItem: childItem}, nil
	default:
		return WorkItem{}, l.errorf(errs.KindUnknownNode, file, inner, "unrecognized child_statement node %q", inner.Kind)
	}
}

// lowerModuleInstantiationToItem lowers a single module_instantiation node
// (peeling modifier wrappers) into a standalone WorkItem, for use as a
// chained bare child (`foo() bar() baz();`). Returns nil, nil for a `*`
// modifier (the statement is dropped).
func (l *Lowerer) lowerModuleInstantiationToItem(scope *Scope, inst *ast.Node, file string) (*WorkItem, error) {
	if inst.Kind != "module_instantiation" || inst.Len() == 0 {
		return nil, l.errorf(errs.KindUnknownNode, file, inst, "malformed module_instantiation")
	}
	inner := inst.At(0)
	switch inner.Kind {
	case "mod_inst_bang":
		l.warnf(file, inner, "'!' modifier is not implemented, statement kept unmodified")
		return l.lowerModuleInstantiationToItem(scope, inner.At(0), file)
	case "mod_inst_hash":
		l.warnf(file, inner, "'#' modifier is not implemented, statement kept unmodified")
		return l.lowerModuleInstantiationToItem(scope, inner.At(0), file)
	case "mod_inst_perc":
		l.warnf(file, inner, "'%%' modifier is not implemented, statement kept unmodified")
		return l.lowerModuleInstantiationToItem(scope, inner.At(0), file)
	case "mod_inst_star":
		return nil, nil
	case "mod_inst_child":
		item, err := l.lowerModInstChildToItem(scope, inner, file)
		if err != nil {
			return nil, err
		}
		return &item, nil
	default:
		return nil, l.errorf(errs.KindUnknownNode, file, inner, "unrecognized module_instantiation node %q", inner.Kind)
	}
}

func (l *Lowerer) lowerModInstChildToItem(scope *Scope, n *ast.Node, file string) (WorkItem, error) {
	call := n.At(0)
	if n.Len() == 1 {
		return WorkItem{Kind: KindStatement, Node: call}, nil
	}
	return l.lowerChildStatement(scope, call, n.At(1), file)
}

// lowerChildStatementIntoScope lowers one entry of a `child_statements`
// list directly into childScope's work list.
func (l *Lowerer) lowerChildStatementIntoScope(scope *Scope, cs *ast.Node, file string) error {
	if cs.Kind != "child_statement" || cs.Len() == 0 {
		return l.errorf(errs.KindUnknownNode, file, cs, "malformed child_statement")
	}
	inner := cs.At(0)
	switch inner.Kind {
	case "no_child":
		return nil
	case "explicit_child":
		inlineScope := newScope(scope)
		stmts := inner.At(0)
		for _, sub := range stmts.Children {
			if err := l.lowerChildStatementIntoScope(inlineScope, sub, file); err != nil {
				return err
			}
		}
		scope.Work = append(scope.Work, WorkItem{Kind: KindScope, InlineScope: inlineScope})
		return nil
	case "module_instantiation":
		return l.lowerModuleInstantiation(scope, inner, file)
	default:
		return l.errorf(errs.KindUnknownNode, file, inner, "unrecognized child_statement node %q", inner.Kind)
	}
}
