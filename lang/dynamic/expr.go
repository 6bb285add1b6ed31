package dynamic

import (
	"strconv"
	"strings"

	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/errs"
	"github.com/mna/sdlcad/lang/values"
)

// Eval computes a Value from an expression parse node against d (spec
// §4.2). It dispatches on n.Kind, matching the node shapes lang/parser
// produces.
func (d *Scope) Eval(n *ast.Node) (values.Value, error) {
	switch n.Kind {
	case "expr":
		return d.Eval(n.At(0))
	case "expr_case":
		return d.evalExprCase(n)
	case "logic_or":
		return d.evalChain(n, func(a, b values.Value) (values.Value, bool) {
			if a.Truth() {
				return a, true
			}
			return b, false
		})
	case "logic_and":
		return d.evalChain(n, func(a, b values.Value) (values.Value, bool) {
			if !a.Truth() {
				return a, true
			}
			return b, false
		})
	case "equality":
		return d.evalEquality(n)
	case "comparison":
		return d.evalComparison(n)
	case "addition":
		return d.evalAddition(n)
	case "multiplication":
		return d.evalMultiplication(n)
	case "unary":
		return d.evalUnary(n)
	case "exponent":
		return d.evalExponent(n)
	case "call":
		return d.evalCallChain(n)
	case "primary":
		return d.evalPrimary(n)
	default:
		return nil, d.errorf(errs.KindUnknownNode, n, "unrecognized expression node %q", n.Kind)
	}
}

// evalChain folds short-circuiting operators (|| / &&) left to right.
// Before each right operand is evaluated, combine(acc, nil) reports
// whether acc already decides the result (done); if so, the remaining
// operands are not evaluated.
func (d *Scope) evalChain(n *ast.Node, combine func(a, b values.Value) (values.Value, bool)) (values.Value, error) {
	acc, err := d.Eval(n.At(0))
	if err != nil {
		return nil, err
	}
	for i := 1; i < n.Len(); i++ {
		if res, done := combine(acc, nil); done {
			return res, nil
		}
		rhs, err := d.Eval(n.At(i))
		if err != nil {
			return nil, err
		}
		acc = rhs
	}
	return acc, nil
}

func (d *Scope) evalExprCase(n *ast.Node) (values.Value, error) {
	cond, err := d.Eval(n.At(0))
	if err != nil {
		return nil, err
	}
	if n.Len() == 1 {
		return cond, nil
	}
	if cond.Truth() {
		return d.Eval(n.At(1))
	}
	return d.Eval(n.At(2))
}

// evalEquality and evalComparison chain left-to-right, requiring all
// pairwise comparisons along the chain to hold (spec §4.2).
func (d *Scope) evalEquality(n *ast.Node) (values.Value, error) {
	lhs, err := d.Eval(n.At(0))
	if err != nil {
		return nil, err
	}
	result := values.Bool(true)
	for i := 1; i < n.Len(); i += 2 {
		op := n.At(i).Value
		rhs, err := d.Eval(n.At(i + 1))
		if err != nil {
			return nil, err
		}
		eq := values.Equal(lhs, rhs)
		if op == "!=" {
			eq = !eq
		}
		if !eq {
			result = false
		}
		lhs = rhs
	}
	return result, nil
}

func (d *Scope) evalComparison(n *ast.Node) (values.Value, error) {
	lhs, err := d.Eval(n.At(0))
	if err != nil {
		return nil, err
	}
	result := values.Bool(true)
	for i := 1; i < n.Len(); i += 2 {
		op := n.At(i).Value
		rhs, err := d.Eval(n.At(i + 1))
		if err != nil {
			return nil, err
		}
		lt, ok := values.Less(lhs, rhs)
		if !ok {
			return nil, d.errorf(errs.KindType, n, "'%s' not supported between %s and %s", op, lhs.Type(), rhs.Type())
		}
		eqOk := !lt && !func() bool { l, _ := values.Less(rhs, lhs); return l }()
		var hold bool
		switch op {
		case "<":
			hold = lt
		case "<=":
			hold = lt || eqOk
		case ">":
			gt, _ := values.Less(rhs, lhs)
			hold = gt
		case ">=":
			gt, _ := values.Less(rhs, lhs)
			hold = gt || eqOk
		}
		if !hold {
			result = false
		}
		lhs = rhs
	}
	return result, nil
}

func (d *Scope) evalAddition(n *ast.Node) (values.Value, error) {
	acc, err := d.Eval(n.At(0))
	if err != nil {
		return nil, err
	}
	for i := 1; i < n.Len(); i += 2 {
		op := n.At(i).Value
		rhs, err := d.Eval(n.At(i + 1))
		if err != nil {
			return nil, err
		}
		acc, err = addOp(op, acc, rhs)
		if err != nil {
			return nil, d.wrapTypeErr(n, err)
		}
	}
	return acc, nil
}

func addOp(op string, a, b values.Value) (values.Value, error) {
	if op == "+" {
		if as, ok := a.(values.String); ok {
			if bs, ok2 := b.(values.String); ok2 {
				return as + bs, nil
			}
		}
	}
	if av, ok := a.(values.Vector); ok {
		if bv, ok2 := b.(values.Vector); ok2 && len(av) == len(bv) {
			out := make(values.Vector, len(av))
			for i := range av {
				v, err := addOp(op, av[i], bv[i])
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		}
	}
	af, aok := values.AsFloat(a)
	bf, bok := values.AsFloat(b)
	if !aok || !bok {
		return nil, errs.New(errs.KindType, "", 0, 0, "'%s' not supported between %s and %s", op, a.Type(), b.Type())
	}
	if op == "+" {
		return values.Number(af + bf), nil
	}
	return values.Number(af - bf), nil
}

func (d *Scope) evalMultiplication(n *ast.Node) (values.Value, error) {
	acc, err := d.Eval(n.At(0))
	if err != nil {
		return nil, err
	}
	for i := 1; i < n.Len(); i += 2 {
		op := n.At(i).Value
		rhs, err := d.Eval(n.At(i + 1))
		if err != nil {
			return nil, err
		}
		af, aok := values.AsFloat(acc)
		bf, bok := values.AsFloat(rhs)
		if !aok || !bok {
			return nil, d.errorf(errs.KindType, n, "'%s' not supported between %s and %s", op, acc.Type(), rhs.Type())
		}
		switch op {
		case "*":
			acc = values.Number(af * bf)
		case "/":
			acc = values.Number(af / bf)
		case "%":
			acc = values.Number(float64(int64(af) % int64(bf)))
		}
	}
	return acc, nil
}

func (d *Scope) evalUnary(n *ast.Node) (values.Value, error) {
	if n.Len() == 1 {
		return d.Eval(n.At(0))
	}
	op := n.At(0).Value
	v, err := d.Eval(n.At(1))
	if err != nil {
		return nil, err
	}
	switch op {
	case "!":
		return values.Bool(!v.Truth()), nil
	case "-":
		f, ok := values.AsFloat(v)
		if !ok {
			return nil, d.errorf(errs.KindType, n, "unary '-' not supported for %s", v.Type())
		}
		return values.Number(-f), nil
	default: // "+"
		f, ok := values.AsFloat(v)
		if !ok {
			return nil, d.errorf(errs.KindType, n, "unary '+' not supported for %s", v.Type())
		}
		return values.Number(f), nil
	}
}

func (d *Scope) evalExponent(n *ast.Node) (values.Value, error) {
	base, err := d.Eval(n.At(0))
	if err != nil {
		return nil, err
	}
	if n.Len() == 1 {
		return base, nil
	}
	exp, err := d.Eval(n.At(2))
	if err != nil {
		return nil, err
	}
	bf, bok := values.AsFloat(base)
	ef, eok := values.AsFloat(exp)
	if !bok || !eok {
		return nil, d.errorf(errs.KindType, n, "'^' not supported between %s and %s", base.Type(), exp.Type())
	}
	return values.Number(powFloat(bf, ef)), nil
}

func (d *Scope) wrapTypeErr(n *ast.Node, err error) error {
	if e, ok := err.(*errs.Error); ok && e.File == "" && e.Line == 0 && e.Col == 0 {
		line, col := n.Pos.LineCol()
		e.Line, e.Col = line, col
		return e
	}
	return err
}

// evalCallChain evaluates a `call` node: a primary followed by zero or
// more postfix add_args/add_index links (spec §4.2's "Index/call chain").
func (d *Scope) evalCallChain(n *ast.Node) (values.Value, error) {
	cur, err := d.Eval(n.At(0))
	if err != nil {
		return nil, err
	}
	for i := 1; i < n.Len(); i++ {
		link := n.At(i)
		switch link.Kind {
		case "add_index":
			idx, err := d.Eval(link.At(0))
			if err != nil {
				return nil, err
			}
			cur = indexValue(cur, idx)
		case "add_args":
			fn, ok := cur.(values.FunctionRef)
			if !ok {
				return nil, d.errorf(errs.KindType, link, "value of type %s is not callable", cur.Type())
			}
			var args *ast.Node
			if link.Len() > 0 {
				args = link.At(0)
			}
			cur, err = d.callFunctionRef(fn, args, link)
			if err != nil {
				return nil, err
			}
		}
	}
	return cur, nil
}

func indexValue(v, idx values.Value) values.Value {
	i, ok := values.AsFloat(idx)
	if !ok {
		return values.UndefValue
	}
	ii := int(i)
	switch x := v.(type) {
	case values.Vector:
		if ii < 0 || ii >= len(x) {
			return values.UndefValue
		}
		return x[ii]
	case values.String:
		r := []rune(string(x))
		if ii < 0 || ii >= len(r) {
			return values.UndefValue
		}
		return values.String(string(r[ii]))
	default:
		return values.UndefValue
	}
}

func (d *Scope) evalPrimary(n *ast.Node) (values.Value, error) {
	inner := n.At(0)
	switch inner.Kind {
	case "pr_Num":
		return parseNumberLiteral(inner.Value), nil
	case "pr_Str":
		return values.String(inner.Value), nil
	case "pr_true":
		return values.Bool(true), nil
	case "pr_false":
		return values.Bool(false), nil
	case "pr_undef":
		return values.UndefValue, nil
	case "pr_paren":
		return d.Eval(inner.At(0))
	case "pr_vec_empty":
		return values.Vector{}, nil
	case "pr_vec_elems":
		return d.evalVector(inner)
	case "pr_Sym":
		return d.Resolve(inner.Value)
	case "fn_call":
		return d.evalFnCall(inner)
	case "expr_fn":
		return d.evalExprFn(inner)
	default:
		return nil, d.errorf(errs.KindUnknownNode, n, "unrecognized primary node %q", inner.Kind)
	}
}

func parseNumberLiteral(s string) values.Value {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return values.Int(i)
		}
	}
	f, _ := strconv.ParseFloat(s, 64)
	return values.Number(f)
}

func (d *Scope) evalVector(n *ast.Node) (values.Value, error) {
	elems := n.At(0) // vector_elements
	if elems.Len() == 1 && (elems.At(0).Len() == 1 && (elems.At(0).At(0).Kind == "pr_for2" || elems.At(0).At(0).Kind == "pr_for3")) {
		return d.evalRangeLiteral(elems.At(0).At(0))
	}
	out := make(values.Vector, 0, elems.Len())
	for _, el := range elems.Children {
		v, err := d.Eval(el.At(0))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *Scope) evalRangeLiteral(n *ast.Node) (values.Value, error) {
	start, err := d.Eval(n.At(0))
	if err != nil {
		return nil, err
	}
	sf, _ := values.AsFloat(start)
	if n.Kind == "pr_for2" {
		end, err := d.Eval(n.At(1))
		if err != nil {
			return nil, err
		}
		ef, _ := values.AsFloat(end)
		return values.Range{Start: sf, End: ef, Step: 1}, nil
	}
	step, err := d.Eval(n.At(1))
	if err != nil {
		return nil, err
	}
	end, err := d.Eval(n.At(2))
	if err != nil {
		return nil, err
	}
	stf, _ := values.AsFloat(step)
	ef, _ := values.AsFloat(end)
	return values.Range{Start: sf, End: ef, Step: stf}, nil
}

func (d *Scope) evalExprFn(n *ast.Node) (values.Value, error) {
	return values.FunctionRef{Def: exprFnDef{params: n.At(0), body: n.At(1), scope: d}}, nil
}

// exprFnDef captures an anonymous `function(...) expr` literal's closure
// over the scope it was created in.
type exprFnDef struct {
	params *ast.Node
	body   *ast.Node
	scope  *Scope
}

func (d *Scope) evalFnCall(n *ast.Node) (values.Value, error) {
	name := n.At(0).Value
	var args *ast.Node
	if n.Len() > 1 {
		args = n.At(1)
	}
	return d.callByName(name, args, n)
}
