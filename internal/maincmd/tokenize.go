package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/sdlcad/lang/scanner"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var failed error
	for _, file := range args {
		src, err := os.ReadFile(file)
		if err != nil {
			failed = printError(stdio, err)
			continue
		}
		toks, err := scanner.ScanAll(file, src)
		for _, tv := range toks {
			line, col := tv.Pos.LineCol()
			fmt.Fprintf(stdio.Stdout, "%s:%d:%d: %s", file, line, col, tv.Kind)
			if tv.Value != "" {
				fmt.Fprintf(stdio.Stdout, " %q", tv.Value)
			}
			fmt.Fprintln(stdio.Stdout)
		}
		if err != nil {
			failed = printError(stdio, err)
		}
	}
	return failed
}
