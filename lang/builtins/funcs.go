package builtins

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/errs"
	"github.com/mna/sdlcad/lang/values"
)

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// registerFuncs installs the built-in function surface of spec §6: math,
// vector, string, type-predicate, and misc functions (echo, version).
func registerFuncs(b *builder) {
	unary := func(name string, f func(float64) float64) {
		b.fn(name, mkParams(req("x")), func(dyn *dynamic.Scope) (values.Value, error) {
			return values.Number(f(numArg(dyn, "x", 0))), nil
		})
	}
	unaryDeg := func(name string, f func(float64) float64) {
		b.fn(name, mkParams(req("x")), func(dyn *dynamic.Scope) (values.Value, error) {
			return values.Number(rad2deg(f(numArg(dyn, "x", 0)))), nil
		})
	}

	unary("abs", math.Abs)
	unary("sign", func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	})
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("round", math.Round)
	unary("log", math.Log10)
	unary("exp", math.Exp)
	unary("sqrt", math.Sqrt)

	// sin/cos/tan/asin/acos/atan operate in degrees (spec §6).
	b.fn("sin", mkParams(req("x")), func(dyn *dynamic.Scope) (values.Value, error) {
		return values.Number(math.Sin(deg2rad(numArg(dyn, "x", 0)))), nil
	})
	b.fn("cos", mkParams(req("x")), func(dyn *dynamic.Scope) (values.Value, error) {
		return values.Number(math.Cos(deg2rad(numArg(dyn, "x", 0)))), nil
	})
	b.fn("tan", mkParams(req("x")), func(dyn *dynamic.Scope) (values.Value, error) {
		return values.Number(math.Tan(deg2rad(numArg(dyn, "x", 0)))), nil
	})
	unaryDeg("asin", math.Asin)
	unaryDeg("acos", math.Acos)
	unaryDeg("atan", math.Atan)

	b.fn("atan2", mkParams(req("y"), req("x")), func(dyn *dynamic.Scope) (values.Value, error) {
		return values.Number(rad2deg(math.Atan2(numArg(dyn, "y", 0), numArg(dyn, "x", 0)))), nil
	})
	b.fn("pow", mkParams(req("x"), req("y")), func(dyn *dynamic.Scope) (values.Value, error) {
		return values.Number(math.Pow(numArg(dyn, "x", 0), numArg(dyn, "y", 0))), nil
	})

	b.fn("min", mkParams(), func(dyn *dynamic.Scope) (values.Value, error) {
		return reduceNumbers(dyn, math.Inf(1), math.Min)
	})
	b.fn("max", mkParams(), func(dyn *dynamic.Scope) (values.Value, error) {
		return reduceNumbers(dyn, math.Inf(-1), math.Max)
	})

	b.fn("norm", mkParams(req("v")), func(dyn *dynamic.Scope) (values.Value, error) {
		v, err := dyn.Resolve("v")
		if err != nil {
			return nil, err
		}
		vec, ok := v.(values.Vector)
		if !ok {
			return nil, dyn.Errorf(errs.KindType, "norm() expects a vector, got %s", v.Type())
		}
		var sum float64
		for _, e := range vec {
			f, _ := values.AsFloat(e)
			sum += f * f
		}
		return values.Number(math.Sqrt(sum)), nil
	})
	b.fn("cross", mkParams(req("a"), req("b")), func(dyn *dynamic.Scope) (values.Value, error) {
		av, aok := mustVec3(dyn, "a")
		bv, bok := mustVec3(dyn, "b")
		if !aok || !bok {
			return nil, dyn.Errorf(errs.KindType, "cross() expects two 3-vectors")
		}
		return values.Vector{
			values.Number(av[1]*bv[2] - av[2]*bv[1]),
			values.Number(av[2]*bv[0] - av[0]*bv[2]),
			values.Number(av[0]*bv[1] - av[1]*bv[0]),
		}, nil
	})

	b.fn("len", mkParams(req("x")), func(dyn *dynamic.Scope) (values.Value, error) {
		v, err := dyn.Resolve("x")
		if err != nil {
			return nil, err
		}
		switch x := v.(type) {
		case values.Vector:
			return values.Int(len(x)), nil
		case values.String:
			return values.Int(len([]rune(string(x)))), nil
		default:
			return values.UndefValue, nil
		}
	})
	b.fn("str", mkParams(), func(dyn *dynamic.Scope) (values.Value, error) {
		var sb strings.Builder
		for _, v := range rawArgs(dyn) {
			sb.WriteString(v.String())
		}
		return values.String(sb.String()), nil
	})
	b.fn("chr", mkParams(req("x")), func(dyn *dynamic.Scope) (values.Value, error) {
		return values.String(string(rune(int(numArg(dyn, "x", 0))))), nil
	})
	b.fn("ord", mkParams(req("x")), func(dyn *dynamic.Scope) (values.Value, error) {
		v, err := dyn.Resolve("x")
		if err != nil {
			return nil, err
		}
		s, ok := v.(values.String)
		if !ok || len(s) == 0 {
			return values.UndefValue, nil
		}
		r := []rune(string(s))
		return values.Int(r[0]), nil
	})

	b.fn("rands", mkParams(req("min"), req("max"), req("n"), opt("seed")), func(dyn *dynamic.Scope) (values.Value, error) {
		lo := numArg(dyn, "min", 0)
		hi := numArg(dyn, "max", 1)
		n := int(numArg(dyn, "n", 0))
		var src *rand.Rand
		if f, ok := numArgOk(dyn, "seed"); ok {
			src = rand.New(rand.NewSource(int64(f)))
		} else {
			src = rand.New(rand.NewSource(1))
		}
		out := make(values.Vector, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, values.Number(lo+src.Float64()*(hi-lo)))
		}
		return out, nil
	})

	predicate := func(name string, match func(values.Value) bool) {
		b.fn(name, mkParams(req("x")), func(dyn *dynamic.Scope) (values.Value, error) {
			v, err := dyn.Resolve("x")
			if err != nil {
				return nil, err
			}
			return values.Bool(match(v)), nil
		})
	}
	predicate("is_undef", func(v values.Value) bool { _, ok := v.(values.Undef); return ok })
	predicate("is_bool", func(v values.Value) bool { _, ok := v.(values.Bool); return ok })
	predicate("is_num", func(v values.Value) bool {
		switch v.(type) {
		case values.Number, values.Int:
			return true
		}
		return false
	})
	predicate("is_string", func(v values.Value) bool { _, ok := v.(values.String); return ok })
	predicate("is_list", func(v values.Value) bool { _, ok := v.(values.Vector); return ok })
	predicate("is_function", func(v values.Value) bool { _, ok := v.(values.FunctionRef); return ok })

	b.fn("version", mkParams(), func(dyn *dynamic.Scope) (values.Value, error) {
		return values.Vector{values.Int(1), values.Int(0), values.Int(0)}, nil
	})

	b.fn("echo", mkParams(), func(dyn *dynamic.Scope) (values.Value, error) {
		parts := make([]string, 0, len(rawArgs(dyn)))
		for _, v := range rawArgs(dyn) {
			parts = append(parts, v.String())
		}
		fmt.Fprintln(dyn.Stdout(), strings.Join(parts, ", "))
		return values.UndefValue, nil
	})
}

func reduceNumbers(dyn *dynamic.Scope, init float64, combine func(a, b float64) float64) (values.Value, error) {
	acc := init
	any := false
	for _, v := range rawArgs(dyn) {
		vals := flattenNumbers(v)
		for _, f := range vals {
			acc = combine(acc, f)
			any = true
		}
	}
	if !any {
		return values.UndefValue, nil
	}
	return values.Number(acc), nil
}

func flattenNumbers(v values.Value) []float64 {
	switch x := v.(type) {
	case values.Vector:
		var out []float64
		for _, e := range x {
			out = append(out, flattenNumbers(e)...)
		}
		return out
	default:
		if f, ok := values.AsFloat(v); ok {
			return []float64{f}
		}
		return nil
	}
}

func mustVec3(dyn *dynamic.Scope, name string) ([3]float64, bool) {
	v, err := dyn.Resolve(name)
	if err != nil {
		return [3]float64{}, false
	}
	vec, ok := v.(values.Vector)
	if !ok || len(vec) != 3 {
		return [3]float64{}, false
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		f, ok := values.AsFloat(vec[i])
		if !ok {
			return [3]float64{}, false
		}
		out[i] = f
	}
	return out, true
}
