// Package interp is the top-level facade tying the scanner, parser,
// static lowering pass, dynamic evaluation pass, built-in registry, and
// preload hooks together into the single entry point spec §2 describes:
// "parse(source) -> tree; lower(parse_root) -> StaticScope;
// build(static_scope, outer_dynamic) -> Shape?". It is the library
// equivalent of what cmd/sdlc's `render` subcommand drives from the CLI.
package interp

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/builtins"
	"github.com/mna/sdlcad/lang/config"
	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/errs"
	"github.com/mna/sdlcad/lang/kernel"
	"github.com/mna/sdlcad/lang/parser"
	"github.com/mna/sdlcad/lang/preload"
	"github.com/mna/sdlcad/lang/static"
	"github.com/mna/sdlcad/lang/trace"
)

// Interp holds the long-lived state of one interpreter configuration: the
// built-in registry (after any preload hooks have run) and the config it
// was built from. A single Interp can run many source files.
type Interp struct {
	Config   config.Config
	Root     *static.Scope
	Registry *dynamic.Registry

	// Stdout is where echo() (spec §7) writes for every Run call. If nil,
	// os.Stdout is used.
	Stdout io.Writer
}

// PreloadFunc customizes the built-in surface before any source is
// lowered, e.g. registering extra primitives via a preload.Hook.
type PreloadFunc func(*preload.Hook)

// New builds an Interp from cfg, applying preload in order after the
// fixed built-in table of lang/builtins is installed (so preload hooks
// may override a built-in name, never the reverse), then lowering any
// configured preload SDL files into the root static scope.
func New(cfg config.Config, preloadFns ...PreloadFunc) (*Interp, error) {
	root, reg := builtins.Root()
	builtins.Configure(root, cfg)
	if cfg.GridSamples != 0 {
		kernel.GridResolution = cfg.GridSamples
	}
	h := preload.NewHook(root, reg)
	for _, fn := range preloadFns {
		fn(h)
	}
	for _, p := range cfg.Preload {
		next, err := lowerFile(root, p, nil)
		if err != nil {
			return nil, err
		}
		root = next
	}
	return &Interp{Config: cfg, Root: root, Registry: reg}, nil
}

// Result is the outcome of running a file through the full pipeline.
type Result struct {
	Static *static.Scope
	Shape  kernel.Shape
}

// fileLoader resolves include/use paths relative to the including file's
// directory, not the process's working directory (spec §4 supplement).
type fileLoader struct{}

func (fileLoader) Load(fromFile, path string) (string, *ast.Node, error) {
	dir := "."
	if fromFile != "" {
		dir = filepath.Dir(fromFile)
	}
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(dir, path)
	}
	src, err := os.ReadFile(full)
	if err != nil {
		return full, nil, err
	}
	root, err := parser.ParseFile(full, src)
	return full, root, err
}

// lowerFile parses and lowers path as a new static scope nested beneath
// builtinsRoot, returning that scope so it can in turn serve as the next
// file's builtinsRoot. A preload file list and the final entry file chain
// into one static parent chain this way (spec §6 preload hook, §4.1
// "built-in/preload names remain reachable").
func lowerFile(builtinsRoot *static.Scope, path string, warn errs.WarnFunc) (*static.Scope, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	root, err := parser.ParseFile(path, src)
	if err != nil {
		return nil, err
	}
	return static.Lower(root, path, builtinsRoot, fileLoader{}, warn)
}

// Run parses, lowers, and builds path, returning the composite shape.
// warn receives any non-fatal warnings raised along the way (radius/
// diameter ambiguity, twist+scale conflicts, and so on).
func (i *Interp) Run(path string, warn errs.WarnFunc) (*Result, error) {
	scope, err := lowerFile(i.Root, path, warn)
	if err != nil {
		return nil, err
	}

	var sink trace.Sink
	if i.Config.Trace {
		sink = trace.NewWriter(os.Stdout)
	}
	ev := dynamic.NewEvaluator(i.Registry, warn, sink)
	ev.Stdout = i.Stdout
	dyn := dynamic.NewRoot(scope, ev)
	shape, err := dyn.Build()
	if err != nil {
		return nil, err
	}
	return &Result{Static: scope, Shape: shape}, nil
}
