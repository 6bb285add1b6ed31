// Package values implements the SDL Value tagged variant (spec §3):
// Undef, Bool, Number, Int, String, Vector, Shape, FunctionRef, and Range.
// Unlike the teacher's open, user-extensible Value interface (designed for
// a general-purpose scripting language), SDL's value set is closed, so the
// variant is sealed: only the types in this package implement Value.
package values

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mna/sdlcad/lang/kernel"
)

// Value is any SDL runtime value.
type Value interface {
	// Type returns the SDL-visible type name, used by is_* builtins and
	// error messages.
	Type() string
	// Truth returns the value's boolean coercion (used by && || ! ?: and
	// statement-level if).
	Truth() bool
	// String returns a display form, used by echo() and str().
	String() string

	sealed()
}

// Undef is the single undefined value (SDL's `undef`, also the default for
// unresolved names, out-of-range indices, and missing parameters).
type Undef struct{}

func (Undef) Type() string   { return "undef" }
func (Undef) Truth() bool    { return false }
func (Undef) String() string { return "undef" }
func (Undef) sealed()        {}

// UndefValue is the shared Undef instance.
var UndefValue = Undef{}

// Bool is an SDL boolean.
type Bool bool

func (b Bool) Type() string   { return "bool" }
func (b Bool) Truth() bool    { return bool(b) }
func (b Bool) sealed()        {}
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Number is an SDL floating point number.
type Number float64

func (n Number) Type() string { return "number" }
func (n Number) Truth() bool  { return n != 0 }
func (n Number) sealed()      {}
func (n Number) String() string {
	if math.IsInf(float64(n), 1) {
		return "inf"
	}
	if math.IsInf(float64(n), -1) {
		return "-inf"
	}
	if math.IsNaN(float64(n)) {
		return "nan"
	}
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

// Int is an SDL integer literal, prior to any arithmetic promotion. Once
// combined with a Number in an arithmetic expression it promotes to Number
// (spec §3: "Arithmetic on integers promotes to float per C semantics").
type Int int64

func (i Int) Type() string   { return "number" }
func (i Int) Truth() bool    { return i != 0 }
func (i Int) sealed()        {}
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// AsFloat converts any SDL numeric value to float64. ok is false for
// non-numeric values.
func AsFloat(v Value) (f float64, ok bool) {
	switch x := v.(type) {
	case Number:
		return float64(x), true
	case Int:
		return float64(x), true
	}
	return 0, false
}

// String is an SDL string.
type String string

func (s String) Type() string   { return "string" }
func (s String) Truth() bool    { return s != "" }
func (s String) sealed()        {}
func (s String) String() string { return string(s) }

// Vector is an SDL list literal, e.g. [1,2,3].
type Vector []Value

func (v Vector) Type() string { return "list" }
func (v Vector) Truth() bool  { return len(v) > 0 }
func (v Vector) sealed()      {}
func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Shape wraps an opaque kernel.Shape handle as an SDL value.
type Shape struct{ Shape kernel.Shape }

func (s Shape) Type() string { return "shape" }
func (s Shape) Truth() bool  { return s.Shape != nil }
func (s Shape) sealed()      {}
func (s Shape) String() string {
	if s.Shape == nil {
		return "shape(none)"
	}
	return fmt.Sprintf("shape(%s)", s.Shape.Kind())
}

// Range is SDL's `[start:end]` / `[start:step:end]` range literal.
type Range struct {
	Start, End, Step float64
}

func (r Range) Type() string   { return "range" }
func (r Range) Truth() bool    { return true }
func (r Range) sealed()        {}
func (r Range) String() string {
	if r.Step == 1 {
		return fmt.Sprintf("[%g:%g]", r.Start, r.End)
	}
	return fmt.Sprintf("[%g:%g:%g]", r.Start, r.Step, r.End)
}

// Values iterates the range's members, inclusive of End whenever stepping
// from Start by Step lands on it exactly (spec §8, §9: the reference
// implementation's inclusive-when-evenly-divisible convention).
func (r Range) Values() []float64 {
	if r.Step == 0 {
		return nil
	}
	var out []float64
	if r.Step > 0 {
		for v := r.Start; v <= r.End+1e-9; v += r.Step {
			out = append(out, v)
		}
	} else {
		for v := r.Start; v >= r.End-1e-9; v += r.Step {
			out = append(out, v)
		}
	}
	return out
}

// FunctionRef wraps a callable SDL value (a user function or an anonymous
// `function (...) expr` literal) so it can flow through variables and be
// tested with is_function().
type FunctionRef struct {
	// Name is empty for anonymous function literals.
	Name string
	// Def is the *static.FunctionDef, stored as `any` to break the import
	// cycle between values and static (static.FunctionDef embeds Value
	// expressions that are, in turn, evaluated into values.Value).
	Def any
}

func (f FunctionRef) Type() string   { return "function" }
func (f FunctionRef) Truth() bool    { return true }
func (f FunctionRef) sealed()        {}
func (f FunctionRef) String() string {
	if f.Name != "" {
		return fmt.Sprintf("function %s(...)", f.Name)
	}
	return "function(...)"
}

// Equal implements SDL's `==`/`!=` value equality (spec §4.2).
func Equal(a, b Value) bool {
	if _, ok := a.(Undef); ok {
		_, ok2 := b.(Undef)
		return ok2
	}
	if af, ok := AsFloat(a); ok {
		if bf, ok2 := AsFloat(b); ok2 {
			return af == bf
		}
		return false
	}
	switch x := a.(type) {
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Vector:
		y, ok := b.(Vector)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Less implements SDL's `<`/`<=`/`>`/`>=` ordering (numeric and
// lexicographic-string only; other types are never ordered).
func Less(a, b Value) (bool, bool) {
	if af, ok := AsFloat(a); ok {
		if bf, ok2 := AsFloat(b); ok2 {
			return af < bf, true
		}
	}
	if as, ok := a.(String); ok {
		if bs, ok2 := b.(String); ok2 {
			return as < bs, true
		}
	}
	return false, false
}
