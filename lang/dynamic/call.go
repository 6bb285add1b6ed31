package dynamic

import (
	"strings"

	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/errs"
	"github.com/mna/sdlcad/lang/static"
	"github.com/mna/sdlcad/lang/values"
)

// Resolve implements pr_Sym symbol lookup (spec §4.2): local cache check,
// then (for `$`-names) the caller chain, then the static chain, with
// InProgress cycle detection and per-(static scope, invocation) memoized
// evaluation delegated to the canonical owning Scope instance.
func (d *Scope) Resolve(name string) (values.Value, error) {
	if name == "$children" {
		return values.Int(int64(d.ChildrenCount())), nil
	}
	if b, ok := d.values.Get(name); ok {
		switch b.state {
		case evaluated:
			return b.value, nil
		case inProgress:
			return nil, d.errorf(errs.KindRecursiveVariable, nil, "variable %q depends on itself", name)
		}
	}

	if strings.HasPrefix(name, "$") {
		for c := d.Caller; c != nil; c = c.Caller {
			if c.values.Has(name) {
				return c.Resolve(name)
			}
		}
	}

	exprNode, definingScope, ok := d.Static.LookupVar(name)
	if !ok {
		return nil, d.errorf(errs.KindUndefinedName, nil, "undefined name %q", name)
	}
	target := d.instanceFor(definingScope)
	if target == nil {
		return nil, d.errorf(errs.KindUndefinedName, nil, "undefined name %q: no live scope for its declaration", name)
	}
	if target != d {
		return target.Resolve(name)
	}

	d.values.Put(name, &binding{state: inProgress})
	v, err := d.Eval(exprNode)
	if err != nil {
		d.values.Delete(name)
		return nil, err
	}
	d.values.Put(name, &binding{state: evaluated, value: v})
	return v, nil
}

// evalArgs evaluates an `arguments` node (or nil for a bare `()` call)
// into ordered positional values and a name-keyed map, preserving
// left-to-right evaluation order (spec §4.4: "evaluated in the caller's
// dynamic scope before binding").
func (d *Scope) evalArgs(argsNode *ast.Node) (pos []values.Value, kw map[string]values.Value, err error) {
	if argsNode == nil {
		return nil, nil, nil
	}
	list := argsNode.At(0) // argument_list
	kw = map[string]values.Value{}
	for _, arg := range list.Children {
		if arg.Len() == 2 {
			v, err := d.Eval(arg.At(1))
			if err != nil {
				return nil, nil, err
			}
			kw[arg.At(0).Value] = v
		} else {
			v, err := d.Eval(arg.At(0))
			if err != nil {
				return nil, nil, err
			}
			pos = append(pos, v)
		}
	}
	return pos, kw, nil
}

// bindArgs implements argument binding (spec §4.4), installing bindings
// directly into callee.values so that default expressions evaluated
// along the way (which may reference earlier parameters) see them.
func (callSite *Scope) bindArgs(params static.Params, pos []values.Value, kw map[string]values.Value, callee *Scope, site *ast.Node) {
	bound := map[string]bool{}
	for name, v := range kw {
		has := false
		for _, p := range params.Positional {
			if p == name {
				has = true
				break
			}
		}
		// A `$`-prefixed keyword is bound in the callee even when it names
		// no parameter, so the callee's $-lookups see it.
		if has || strings.HasPrefix(name, "$") {
			callee.values.Put(name, &binding{state: evaluated, value: v})
			bound[name] = true
		}
	}

	next := 0
	for _, v := range pos {
		for next < len(params.Positional) && bound[params.Positional[next]] {
			next++
		}
		if next >= len(params.Positional) {
			callSite.warnf(site, "too many positional arguments, ignoring extra value")
			break
		}
		callee.values.Put(params.Positional[next], &binding{state: evaluated, value: v})
		bound[params.Positional[next]] = true
		next++
	}

	for _, name := range params.Positional {
		if bound[name] {
			continue
		}
		if strings.HasPrefix(name, "$") {
			if v, ok := callSite.lookupDollar(name); ok {
				callee.values.Put(name, &binding{state: evaluated, value: v})
				continue
			}
		}
		if def, ok := params.Defaults[name]; ok {
			v, err := callee.Eval(def)
			if err != nil {
				callSite.warnf(site, "parameter %q: %v, using undef", name, err)
				callee.values.Put(name, &binding{state: evaluated, value: values.UndefValue})
				continue
			}
			callee.values.Put(name, &binding{state: evaluated, value: v})
			continue
		}
		callSite.warnf(site, "missing argument for parameter %q, using undef", name)
		callee.values.Put(name, &binding{state: evaluated, value: values.UndefValue})
	}
}

// callByName resolves and invokes a named function (fn_call / bare
// pr_Sym-with-args site), spec §4.2.
func (d *Scope) callByName(name string, argsNode *ast.Node, site *ast.Node) (values.Value, error) {
	fn, ok := d.Static.LookupFunc(name)
	if !ok {
		return nil, d.errorf(errs.KindUndefinedName, site, "undefined function %q", name)
	}
	pos, kw, err := d.evalArgs(argsNode)
	if err != nil {
		return nil, err
	}
	return d.invokeFunctionDef(fn, pos, kw, site)
}

func (d *Scope) invokeFunctionDef(fn *static.FunctionDef, pos []values.Value, kw map[string]values.Value, site *ast.Node) (values.Value, error) {
	callee := newScope(fn.DefiningScope, d.instanceFor(fn.DefiningScope), d, nil, d.Evaluator)
	if fn.Native {
		callee.rawPos, callee.rawKw = pos, kw
		native, ok := d.Evaluator.Registry.Funcs[fn.Name]
		if !ok {
			return nil, d.errorf(errs.KindUndefinedName, site, "native function %q is not registered", fn.Name)
		}
		d.bindArgs(fn.Params, pos, kw, callee, site)
		release := d.Evaluator.Enter(callee)
		defer release()
		return native(callee)
	}
	d.bindArgs(fn.Params, pos, kw, callee, site)
	release := d.Evaluator.Enter(callee)
	defer release()
	return callee.Eval(fn.Body)
}

// callFunctionRef invokes a values.FunctionRef, which wraps either a
// named *static.FunctionDef or an anonymous expr_fn closure.
func (d *Scope) callFunctionRef(fn values.FunctionRef, argsNode *ast.Node, site *ast.Node) (values.Value, error) {
	pos, kw, err := d.evalArgs(argsNode)
	if err != nil {
		return nil, err
	}
	switch def := fn.Def.(type) {
	case *static.FunctionDef:
		return d.invokeFunctionDef(def, pos, kw, site)
	case exprFnDef:
		params := lowerExprFnParams(def.params)
		callee := newScope(def.scope.Static, def.scope.Lexical, d, nil, d.Evaluator)
		d.bindArgs(params, pos, kw, callee, site)
		release := d.Evaluator.Enter(callee)
		defer release()
		return callee.Eval(def.body)
	default:
		return nil, d.errorf(errs.KindType, site, "value is not callable")
	}
}

// lowerExprFnParams extracts a Params from an expr_fn's raw `parameters`
// node without a full static pass (anonymous functions have no
// declaration-time lowering of their own).
func lowerExprFnParams(n *ast.Node) static.Params {
	p := static.Params{Defaults: map[string]*ast.Node{}}
	if n.Kind != "parameters" || n.Len() == 0 {
		return p
	}
	list := n.At(0)
	for _, param := range list.Children {
		name := param.At(0).Value
		p.Positional = append(p.Positional, name)
		if param.Len() > 1 {
			p.Defaults[name] = param.At(1)
		}
	}
	return p
}
