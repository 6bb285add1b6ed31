package maincmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mna/mainer"
	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/parser"
	"github.com/mna/sdlcad/lang/static"
)

// fileLoader resolves include/use paths relative to the including file's
// directory, matching lang/interp's entry-point resolution.
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

func (c *Cmd) Lower(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var failed error
	for _, file := range args {
		src, err := os.ReadFile(file)
		if err != nil {
			failed = printError(stdio, err)
			continue
		}
		root, err := parser.ParseFile(file, src)
		if err != nil {
			failed = printError(stdio, err)
			continue
		}
		scope, err := static.Lower(root, file, nil, fileLoader{}, nil)
		if err != nil {
			failed = printError(stdio, err)
			continue
		}
		printScope(stdio.Stdout, scope, 0)
	}
	return failed
}

func printScope(w io.Writer, s *static.Scope, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%sscope vars=%s funcs=%s mods=%s work=%d\n",
		indent, varNames(s), funcNames(s), modNames(s), len(s.Work))
	for _, item := range s.Work {
		printWorkItem(w, &item, depth+1)
	}
}

func printWorkItem(w io.Writer, item *static.WorkItem, depth int) {
	indent := strings.Repeat("  ", depth)
	switch item.Kind {
	case static.KindStatement:
		fmt.Fprintf(w, "%sstatement %s\n", indent, item.Node.Kind)
	case static.KindParentStatement:
		fmt.Fprintf(w, "%sstatement %s (with child)\n", indent, item.Node.Kind)
		if item.ChildScope != nil {
			printScope(w, item.ChildScope, depth+1)
		} else if item.ChildItem != nil {
			printWorkItem(w, item.ChildItem, depth+1)
		}
	case static.KindScope:
		printScope(w, item.InlineScope, depth)
	}
}

func varNames(s *static.Scope) []string {
	out := make([]string, 0, len(s.Vars))
	for k := range s.Vars {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func funcNames(s *static.Scope) []string {
	out := make([]string, 0, len(s.Funcs))
	for k := range s.Funcs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func modNames(s *static.Scope) []string {
	out := make([]string, 0, len(s.Mods))
	for k := range s.Mods {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
