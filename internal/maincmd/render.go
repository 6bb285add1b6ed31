package maincmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/mainer"
	"github.com/mna/sdlcad/lang/config"
	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/errs"
	"github.com/mna/sdlcad/lang/interp"
	"github.com/mna/sdlcad/lang/values"
)

func (c *Cmd) Render(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var entries []string
	if c.Var != "" {
		entries = strings.Split(c.Var, ",")
	}
	overrides, err := parseVarOverrides(entries)
	if err != nil {
		return printError(stdio, err)
	}

	cfg := config.Default()
	cfg.Trace = c.Trace

	itp, err := interp.New(cfg)
	if err != nil {
		return printError(stdio, err)
	}
	itp.Stdout = stdio.Stdout

	var failed error
	for _, file := range args {
		var warnings errs.WarnFunc = func(w errs.Warning) {
			fmt.Fprintln(stdio.Stderr, w.String())
		}
		res, err := itp.Run(file, warnings)
		if err != nil {
			failed = printError(stdio, err)
			continue
		}
		shape := res.Shape
		if len(overrides) > 0 {
			overrideEv := dynamic.NewEvaluator(itp.Registry, warnings, nil)
			overrideEv.Stdout = stdio.Stdout
			dyn := dynamic.NewRoot(res.Static, overrideEv)
			shape, err = dyn.WithBindings(overrides).Build()
			if err != nil {
				failed = printError(stdio, err)
				continue
			}
		}
		if shape == nil {
			fmt.Fprintf(stdio.Stdout, "%s: <empty>\n", file)
			continue
		}
		bb := shape.BoundingBox()
		fmt.Fprintf(stdio.Stdout, "%s: %s bbox=[%g %g %g]-[%g %g %g] volume=%g\n",
			file, shape.Kind(), bb.Min[0], bb.Min[1], bb.Min[2], bb.Max[0], bb.Max[1], bb.Max[2], shape.Volume())
	}
	return failed
}

func parseVarOverrides(entries []string) (map[string]values.Value, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]values.Value, len(entries))
	for _, e := range entries {
		name, raw, ok := strings.Cut(e, "=")
		if !ok {
			return nil, fmt.Errorf("--var: expected name=value, got %q", e)
		}
		out[name] = parseVarValue(raw)
	}
	return out, nil
}

func parseVarValue(raw string) values.Value {
	switch raw {
	case "true":
		return values.Bool(true)
	case "false":
		return values.Bool(false)
	case "undef":
		return values.UndefValue
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return values.Number(f)
	}
	return values.String(strings.Trim(raw, `"`))
}
