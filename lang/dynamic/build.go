package dynamic

import (
	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/errs"
	"github.com/mna/sdlcad/lang/kernel"
	"github.com/mna/sdlcad/lang/static"
)

// Build evaluates every work item of d's own static scope in order and
// unions the resulting shapes (spec §4.3: "build(static_scope,
// outer_dynamic) -> Shape?").
func (d *Scope) Build() (kernel.Shape, error) {
	var shapes []kernel.Shape
	for _, item := range d.Static.Work {
		s, err := d.evalWorkItem(&item)
		if err != nil {
			return nil, err
		}
		if s != nil {
			shapes = append(shapes, s)
		}
	}
	return kernel.Union(shapes...), nil
}

func (d *Scope) evalWorkItem(item *static.WorkItem) (kernel.Shape, error) {
	switch item.Kind {
	case static.KindScope:
		return d.childScope(item.InlineScope).Build()
	case static.KindStatement:
		if item.Node.Kind == "lowered_if" {
			return d.evalLoweredIf(item.Node)
		}
		return d.callModule(item.Node, nil)
	case static.KindParentStatement:
		var child *ChildRef
		if item.ChildScope != nil {
			child = &ChildRef{Scope: item.ChildScope, Caller: d}
		} else if item.ChildItem != nil {
			child = &ChildRef{ItemCaller: d, Item: item.ChildItem}
		}
		return d.callModule(item.Node, child)
	default:
		return nil, d.errorf(errs.KindUnknownNode, item.Node, "unrecognized work item kind")
	}
}

func (d *Scope) evalLoweredIf(n *ast.Node) (kernel.Shape, error) {
	cond, err := d.Eval(n.At(0))
	if err != nil {
		return nil, err
	}
	thenScope, elseScope, ok := static.IfElseBranches(n)
	if !ok {
		return nil, d.errorf(errs.KindUnknownNode, n, "conditional statement missing lowered branches")
	}
	if cond.Truth() {
		return d.childScope(thenScope).Build()
	}
	if elseScope != nil {
		return d.childScope(elseScope).Build()
	}
	return nil, nil
}

// callModule resolves and invokes a module by its `mod_call` node,
// binding child as the new call scope's captured child block (spec
// §4.3's "Module call (mod_call)").
func (d *Scope) callModule(call *ast.Node, child *ChildRef) (kernel.Shape, error) {
	name := call.At(0).Value
	var argsNode *ast.Node
	if call.Len() > 1 {
		argsNode = call.At(1)
	}
	pos, kw, err := d.evalArgs(argsNode)
	if err != nil {
		return nil, err
	}
	mod, ok := d.Static.LookupMod(name)
	if !ok {
		return nil, d.errorf(errs.KindUndefinedName, call, "undefined module %q", name)
	}

	if mod.Native {
		callee := newScope(d.Static, d, d, child, d.Evaluator)
		callee.rawPos, callee.rawKw = pos, kw
		native, ok := d.Evaluator.Registry.Mods[name]
		if !ok {
			return nil, d.errorf(errs.KindUndefinedName, call, "native module %q is not registered", name)
		}
		d.bindArgs(mod.Params, pos, kw, callee, call)
		release := d.Evaluator.Enter(callee)
		defer release()
		return native(callee)
	}

	callee := newScope(mod.Body, d.instanceFor(mod.DefiningScope), d, child, d.Evaluator)
	d.bindArgs(mod.Params, pos, kw, callee, call)
	release := d.Evaluator.Enter(callee)
	defer release()
	return callee.Build()
}

// EvalChild builds and memoizes the i-th child of d's captured child
// block (spec §4.3's "eval_child(i)"), evaluated against the dynamic
// scope active at the enclosing module's call site.
func (d *Scope) EvalChild(i int) (kernel.Shape, error) {
	if d.Child == nil || i < 0 || i >= d.Child.Len() {
		return nil, nil
	}
	if d.childCache == nil {
		d.childCache = make([]childSlot, d.Child.Len())
	}
	if d.childCache[i].built {
		return d.childCache[i].shape, nil
	}
	var shape kernel.Shape
	var err error
	switch {
	case d.Child.Scope != nil:
		item := d.Child.Scope.Work[i]
		shape, err = d.Child.Caller.evalWorkItem(&item)
	case d.Child.Item != nil && i == 0:
		shape, err = d.Child.ItemCaller.evalWorkItem(d.Child.Item)
	}
	if err != nil {
		return nil, err
	}
	d.childCache[i] = childSlot{built: true, shape: shape}
	return shape, nil
}

// EvalChildUnion returns the union of every child in d's captured child
// block (spec §4.3's "child_union()"), memoized per slot.
func (d *Scope) EvalChildUnion() (kernel.Shape, error) {
	n := d.Child.Len()
	var shapes []kernel.Shape
	for i := 0; i < n; i++ {
		s, err := d.EvalChild(i)
		if err != nil {
			return nil, err
		}
		if s != nil {
			shapes = append(shapes, s)
		}
	}
	return kernel.Union(shapes...), nil
}

// ChildrenCount reports the enclosing module call's child count, backing
// the default `$children` variable (spec §6).
func (d *Scope) ChildrenCount() int { return d.Child.Len() }
