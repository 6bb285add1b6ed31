package dynamic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/errs"
	"github.com/mna/sdlcad/lang/kernel"
	"github.com/mna/sdlcad/lang/parser"
	"github.com/mna/sdlcad/lang/static"
	"github.com/mna/sdlcad/lang/values"
)

type noopLoader struct{}

func (noopLoader) Load(fromFile, path string) (string, *ast.Node, error) {
	return path, ast.New("Input", 0), nil
}

func lowerSrc(t *testing.T, src string, builtinsRoot *static.Scope) *static.Scope {
	t.Helper()
	root, err := parser.ParseFile("t", []byte(src))
	require.NoError(t, err)
	scope, err := static.Lower(root, "t", builtinsRoot, noopLoader{}, nil)
	require.NoError(t, err)
	return scope
}

func numNode(v string) *ast.Node {
	return ast.New("primary", 0, ast.Leaf("pr_Num", v, 0))
}

func TestResolveMemoizesAndCascades(t *testing.T) {
	scope := lowerSrc(t, "a = 1;\nb = a + 1;", nil)
	ev := NewEvaluator(NewRegistry(), nil, nil)
	d := NewRoot(scope, ev)

	v, err := d.Resolve("b")
	require.NoError(t, err)
	require.Equal(t, values.Number(2), v)

	a, ok := d.values.Get("a")
	require.True(t, ok)
	require.Equal(t, evaluated, a.state)
	b, ok := d.values.Get("b")
	require.True(t, ok)
	require.Equal(t, evaluated, b.state)

	// Resolving again must reuse the cached binding rather than re-evaluate.
	v2, err := d.Resolve("b")
	require.NoError(t, err)
	require.Equal(t, v, v2)
}

func TestResolveRecursiveVariableDetected(t *testing.T) {
	scope := lowerSrc(t, "x = x + 1;", nil)
	ev := NewEvaluator(NewRegistry(), nil, nil)
	d := NewRoot(scope, ev)

	_, err := d.Resolve("x")
	require.Error(t, err)
	e, ok := err.(*errs.Error)
	require.True(t, ok)
	require.Equal(t, errs.KindRecursiveVariable, e.Kind)

	require.False(t, d.values.Has("x"))
}

func TestResolveUndefinedName(t *testing.T) {
	scope := lowerSrc(t, "", nil)
	ev := NewEvaluator(NewRegistry(), nil, nil)
	d := NewRoot(scope, ev)

	_, err := d.Resolve("nope")
	require.Error(t, err)
	e, ok := err.(*errs.Error)
	require.True(t, ok)
	require.Equal(t, errs.KindUndefinedName, e.Kind)
}

func TestResolveChildrenVariableWithNoCapturedChild(t *testing.T) {
	scope := lowerSrc(t, "", nil)
	ev := NewEvaluator(NewRegistry(), nil, nil)
	d := NewRoot(scope, ev)

	v, err := d.Resolve("$children")
	require.NoError(t, err)
	require.Equal(t, values.Int(0), v)
}

func TestBindArgsDollarParamInheritsFromCallSite(t *testing.T) {
	root := static.NewRootScope()
	root.Vars["$fn"] = numNode("16")
	ev := NewEvaluator(NewRegistry(), nil, nil)
	site := NewRoot(root, ev)

	params := static.Params{Positional: []string{"$fn"}, Defaults: map[string]*ast.Node{}}
	callee := newScope(root, site, site, nil, ev)
	site.bindArgs(params, nil, nil, callee, nil)

	v, err := callee.Resolve("$fn")
	require.NoError(t, err)
	require.Equal(t, values.Int(16), v)
}

func TestBindArgsPositionalAndKeywordAndDefaults(t *testing.T) {
	root := static.NewRootScope()
	ev := NewEvaluator(NewRegistry(), nil, nil)
	site := NewRoot(root, ev)

	params := static.Params{
		Positional: []string{"a", "b", "c"},
		Defaults:   map[string]*ast.Node{"c": numNode("9")},
	}
	callee := newScope(root, site, site, nil, ev)
	site.bindArgs(params, []values.Value{values.Int(1)}, map[string]values.Value{"b": values.Int(2)}, callee, nil)

	a, err := callee.Resolve("a")
	require.NoError(t, err)
	require.Equal(t, values.Int(1), a)
	b, err := callee.Resolve("b")
	require.NoError(t, err)
	require.Equal(t, values.Int(2), b)
	c, err := callee.Resolve("c")
	require.NoError(t, err)
	require.Equal(t, values.Int(9), c)
}

func TestBindArgsMissingRequiredWarnsAndUsesUndef(t *testing.T) {
	root := static.NewRootScope()
	ev := NewEvaluator(NewRegistry(), nil, nil)
	site := NewRoot(root, ev)

	var warnings int
	site.Evaluator.Warn = func(errs.Warning) { warnings++ }

	params := static.Params{Positional: []string{"a"}, Defaults: map[string]*ast.Node{}}
	callee := newScope(root, site, site, nil, ev)
	site.bindArgs(params, nil, nil, callee, nil)

	a, err := callee.Resolve("a")
	require.NoError(t, err)
	require.Equal(t, values.UndefValue, a)
	require.Equal(t, 1, warnings)
}

func TestBindArgsTooManyPositionalWarns(t *testing.T) {
	root := static.NewRootScope()
	ev := NewEvaluator(NewRegistry(), nil, nil)
	site := NewRoot(root, ev)

	var warnings int
	site.Evaluator.Warn = func(errs.Warning) { warnings++ }

	params := static.Params{Positional: []string{"a"}, Defaults: map[string]*ast.Node{}}
	callee := newScope(root, site, site, nil, ev)
	site.bindArgs(params, []values.Value{values.Int(1), values.Int(2)}, nil, callee, nil)

	a, err := callee.Resolve("a")
	require.NoError(t, err)
	require.Equal(t, values.Int(1), a)
	require.Equal(t, 1, warnings)
}

func TestEvalChildUnionMemoizesPerSlot(t *testing.T) {
	root := static.NewRootScope()
	reg := NewRegistry()
	var calls []string
	reg.Mods["markA"] = func(dyn *Scope) (kernel.Shape, error) { calls = append(calls, "A"); return nil, nil }
	reg.Mods["markB"] = func(dyn *Scope) (kernel.Shape, error) { calls = append(calls, "B"); return nil, nil }
	root.Mods["markA"] = &static.ModuleDef{Name: "markA", DefiningScope: root, Native: true}
	root.Mods["markB"] = &static.ModuleDef{Name: "markB", DefiningScope: root, Native: true}

	childStatic := static.NewChildScope(root)
	childStatic.Work = []static.WorkItem{
		{Kind: static.KindStatement, Node: modCallNode("markA")},
		{Kind: static.KindStatement, Node: modCallNode("markB")},
	}

	ev := NewEvaluator(reg, nil, nil)
	caller := NewRoot(root, ev)
	child := &ChildRef{Scope: childStatic, Caller: caller}
	parent := newScope(root, caller, caller, child, ev)

	require.Equal(t, 2, parent.ChildrenCount())

	shape, err := parent.EvalChildUnion()
	require.NoError(t, err)
	require.Nil(t, shape)
	require.Equal(t, []string{"A", "B"}, calls)

	_, err = parent.EvalChild(0)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, calls, "cached slot must not re-invoke the builtin")
}

func TestWithBindingsGivesEachTupleItsOwnChildCache(t *testing.T) {
	root := static.NewRootScope()
	reg := NewRegistry()
	var calls int
	reg.Mods["mark"] = func(dyn *Scope) (kernel.Shape, error) { calls++; return nil, nil }
	root.Mods["mark"] = &static.ModuleDef{Name: "mark", DefiningScope: root, Native: true}

	childStatic := static.NewChildScope(root)
	childStatic.Work = []static.WorkItem{{Kind: static.KindStatement, Node: modCallNode("mark")}}

	ev := NewEvaluator(reg, nil, nil)
	caller := NewRoot(root, ev)
	child := &ChildRef{Scope: childStatic, Caller: caller}
	parent := newScope(root, caller, caller, child, ev)

	a := parent.WithBindings(map[string]values.Value{"i": values.Int(1)})
	b := parent.WithBindings(map[string]values.Value{"i": values.Int(2)})

	require.Same(t, parent.Static, a.Static)
	require.Same(t, parent.Lexical, a.Lexical)
	require.Same(t, parent.Caller, a.Caller)
	// The captured child block itself (Scope/Item) is shared, but each
	// sibling's ChildRef must route evaluation back through that sibling,
	// not through parent, or the loop binding below would never be visible
	// to it.
	require.Same(t, parent.Child.Scope, a.Child.Scope)
	require.Same(t, a, a.Child.Caller)
	require.Same(t, b, b.Child.Caller)

	vi, err := a.Resolve("i")
	require.NoError(t, err)
	require.Equal(t, values.Int(1), vi)
	vj, err := b.Resolve("i")
	require.NoError(t, err)
	require.Equal(t, values.Int(2), vj)

	_, err = a.EvalChildUnion()
	require.NoError(t, err)
	_, err = b.EvalChildUnion()
	require.NoError(t, err)
	require.Equal(t, 2, calls, "each WithBindings sibling gets its own childCache")
}

// TestWithBindingsBindingVisibleToCapturedChild guards against a real bug
// where WithBindings shared its parent's ChildRef verbatim: the captured
// child was then always evaluated against the pre-binding scope, so a
// for()-style loop variable was never actually visible to the child's own
// argument expressions (e.g. `for (x = [0:2]) mark(x);`). The loop
// variable only needs to reach the child's arguments, evaluated against
// the ItemCaller before the native callee is built — not the native
// module's own body, which binds its declared parameters independently.
func TestWithBindingsBindingVisibleToCapturedChild(t *testing.T) {
	root := static.NewRootScope()
	reg := NewRegistry()
	var seen []values.Value
	reg.Mods["mark"] = func(dyn *Scope) (kernel.Shape, error) {
		v, err := dyn.Resolve("v")
		if err != nil {
			return nil, err
		}
		seen = append(seen, v)
		return nil, nil
	}
	root.Mods["mark"] = &static.ModuleDef{
		Name: "mark", DefiningScope: root, Native: true,
		Params: static.Params{Positional: []string{"v"}, Defaults: map[string]*ast.Node{}},
	}

	markItem := static.WorkItem{Kind: static.KindStatement, Node: modCallWithArg("mark", "i")}

	ev := NewEvaluator(reg, nil, nil)
	caller := NewRoot(root, ev)
	child := &ChildRef{ItemCaller: caller, Item: &markItem}
	parent := newScope(root, caller, caller, child, ev)

	a := parent.WithBindings(map[string]values.Value{"i": values.Int(1)})
	b := parent.WithBindings(map[string]values.Value{"i": values.Int(2)})

	_, err := a.EvalChildUnion()
	require.NoError(t, err)
	_, err = b.EvalChildUnion()
	require.NoError(t, err)
	require.Equal(t, []values.Value{values.Int(1), values.Int(2)}, seen)
}

// modCallWithArg builds a `name(argName)` mod_call node, a single
// positional argument referencing a bare symbol.
func modCallWithArg(name, argName string) *ast.Node {
	argExpr := ast.New("primary", 0, ast.Leaf("pr_Sym", argName, 0))
	arg := ast.New("argument", 0, argExpr)
	argList := ast.New("argument_list", 0, arg)
	args := ast.New("arguments", 0, argList)
	return ast.New("mod_call", 0, ast.Leaf("ident", name, 0), args)
}

func modCallNode(name string) *ast.Node {
	return ast.New("mod_call", 0, ast.Leaf("ident", name, 0))
}

func TestBuildEndToEndWithNativeAndUserModules(t *testing.T) {
	root := static.NewRootScope()
	reg := NewRegistry()
	reg.Mods["box"] = func(dyn *Scope) (kernel.Shape, error) { return kernel.Box(1, 1, 1), nil }
	root.Mods["box"] = &static.ModuleDef{Name: "box", DefiningScope: root, Native: true}

	scope := lowerSrc(t, "module wrapper() { box(); }\nwrapper();", root)
	ev := NewEvaluator(reg, nil, nil)
	d := NewRoot(scope, ev)

	shape, err := d.Build()
	require.NoError(t, err)
	require.NotNil(t, shape)
	require.InDelta(t, 1.0, shape.Volume(), 1e-9)
}

func TestBuildEvaluatesIfElseBranches(t *testing.T) {
	root := static.NewRootScope()
	reg := NewRegistry()
	reg.Mods["mark"] = func(dyn *Scope) (kernel.Shape, error) { return kernel.Box(2, 2, 2), nil }
	root.Mods["mark"] = &static.ModuleDef{Name: "mark", DefiningScope: root, Native: true}

	scope := lowerSrc(t, "if (0) mark(); else mark();", root)
	ev := NewEvaluator(reg, nil, nil)
	d := NewRoot(scope, ev)

	shape, err := d.Build()
	require.NoError(t, err)
	require.NotNil(t, shape)
	require.InDelta(t, 8.0, shape.Volume(), 1e-9)
}

func TestBuildIfWithoutElseAndFalseConditionYieldsNil(t *testing.T) {
	root := static.NewRootScope()
	reg := NewRegistry()
	reg.Mods["mark"] = func(dyn *Scope) (kernel.Shape, error) { return kernel.Box(2, 2, 2), nil }
	root.Mods["mark"] = &static.ModuleDef{Name: "mark", DefiningScope: root, Native: true}

	scope := lowerSrc(t, "if (0) mark();", root)
	ev := NewEvaluator(reg, nil, nil)
	d := NewRoot(scope, ev)

	shape, err := d.Build()
	require.NoError(t, err)
	require.Nil(t, shape)
}
