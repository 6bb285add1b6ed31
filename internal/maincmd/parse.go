package maincmd

import (
	"context"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/parser"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	printer := ast.Printer{Output: stdio.Stdout}
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
		if err := printer.Print(root); err != nil {
			failed = printError(stdio, err)
		}
	}
	return failed
}
