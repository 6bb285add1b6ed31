package preload_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/kernel"
	"github.com/mna/sdlcad/lang/preload"
	"github.com/mna/sdlcad/lang/static"
	"github.com/mna/sdlcad/lang/values"
)

func TestFuncRegistersIntoRootAndRegistry(t *testing.T) {
	root := static.NewRootScope()
	reg := dynamic.NewRegistry()
	h := preload.NewHook(root, reg)

	h.Func("double", static.Params{Positional: []string{"x"}}, func(dyn *dynamic.Scope) (values.Value, error) {
		return values.Int(4), nil
	})

	def, ok := root.Funcs["double"]
	require.True(t, ok)
	require.True(t, def.Native)
	require.Same(t, root, def.DefiningScope)

	fn, ok := reg.Funcs["double"]
	require.True(t, ok)
	v, err := fn(nil)
	require.NoError(t, err)
	require.Equal(t, values.Int(4), v)
}

func TestModuleRegistersIntoRootAndRegistry(t *testing.T) {
	root := static.NewRootScope()
	reg := dynamic.NewRegistry()
	h := preload.NewHook(root, reg)

	h.Module("mark", static.Params{}, func(dyn *dynamic.Scope) (kernel.Shape, error) {
		return kernel.Box(1, 1, 1), nil
	})

	def, ok := root.Mods["mark"]
	require.True(t, ok)
	require.True(t, def.Native)
	require.Same(t, root, def.DefiningScope)

	mod, ok := reg.Mods["mark"]
	require.True(t, ok)
	shape, err := mod(nil)
	require.NoError(t, err)
	require.InDelta(t, 1.0, shape.Volume(), 1e-9)
}

func TestModuleOverridesExistingName(t *testing.T) {
	root := static.NewRootScope()
	reg := dynamic.NewRegistry()
	root.Mods["cube"] = &static.ModuleDef{Name: "cube", DefiningScope: root, Native: true}
	reg.Mods["cube"] = func(dyn *dynamic.Scope) (kernel.Shape, error) { return kernel.Box(1, 1, 1), nil }

	h := preload.NewHook(root, reg)
	h.Module("cube", static.Params{}, func(dyn *dynamic.Scope) (kernel.Shape, error) {
		return kernel.Box(2, 2, 2), nil
	})

	mod := reg.Mods["cube"]
	shape, err := mod(nil)
	require.NoError(t, err)
	require.InDelta(t, 8.0, shape.Volume(), 1e-9)
}
