package values_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/sdlcad/lang/values"
)

func TestAsFloat(t *testing.T) {
	f, ok := values.AsFloat(values.Number(1.5))
	require.True(t, ok)
	require.Equal(t, 1.5, f)

	f, ok = values.AsFloat(values.Int(3))
	require.True(t, ok)
	require.Equal(t, 3.0, f)

	_, ok = values.AsFloat(values.String("x"))
	require.False(t, ok)
}

func TestTruth(t *testing.T) {
	require.False(t, values.Undef{}.Truth())
	require.False(t, values.Number(0).Truth())
	require.True(t, values.Number(1).Truth())
	require.False(t, values.String("").Truth())
	require.True(t, values.String("a").Truth())
	require.False(t, values.Vector(nil).Truth())
	require.True(t, values.Vector{values.Int(1)}.Truth())
}

func TestEqual(t *testing.T) {
	require.True(t, values.Equal(values.Number(2), values.Int(2)))
	require.False(t, values.Equal(values.Number(2), values.String("2")))
	require.True(t, values.Equal(values.Undef{}, values.Undef{}))
	require.True(t, values.Equal(
		values.Vector{values.Int(1), values.String("a")},
		values.Vector{values.Number(1), values.String("a")},
	))
	require.False(t, values.Equal(values.Vector{values.Int(1)}, values.Vector{values.Int(1), values.Int(2)}))
}

func TestLess(t *testing.T) {
	less, ok := values.Less(values.Number(1), values.Int(2))
	require.True(t, ok)
	require.True(t, less)

	less, ok = values.Less(values.String("a"), values.String("b"))
	require.True(t, ok)
	require.True(t, less)

	_, ok = values.Less(values.Vector{}, values.Vector{})
	require.False(t, ok)
}

func TestRangeValues(t *testing.T) {
	r := values.Range{Start: 0, End: 5, Step: 1}
	require.Equal(t, []float64{0, 1, 2, 3, 4, 5}, r.Values())

	r = values.Range{Start: 10, End: 0, Step: -5}
	require.Equal(t, []float64{10, 5, 0}, r.Values())

	r = values.Range{Start: 0, End: 1, Step: 0}
	require.Nil(t, r.Values())
}

func TestFunctionRefString(t *testing.T) {
	require.Equal(t, "function(...)", values.FunctionRef{}.String())
	require.Equal(t, "function foo(...)", values.FunctionRef{Name: "foo"}.String())
	require.True(t, values.FunctionRef{}.Truth())
}
