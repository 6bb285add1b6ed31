package maincmd_test

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/mna/sdlcad/internal/maincmd"
)

func writeSource(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/main.scad"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTokenizePrintsOneLinePerToken(t *testing.T) {
	path := writeSource(t, "cube(2);")
	var out, errOut bytes.Buffer
	c := &maincmd.Cmd{}
	err := c.Tokenize(context.Background(), mainer.Stdio{Stdout: &out, Stderr: &errOut}, []string{path})
	require.NoError(t, err)
	require.Contains(t, out.String(), "ident")
	require.Contains(t, out.String(), "cube")
}

func TestTokenizeMissingFileReportsError(t *testing.T) {
	var out, errOut bytes.Buffer
	c := &maincmd.Cmd{}
	err := c.Tokenize(context.Background(), mainer.Stdio{Stdout: &out, Stderr: &errOut}, []string{"does-not-exist.scad"})
	require.Error(t, err)
	require.NotEmpty(t, errOut.String())
}

func TestParsePrintsTree(t *testing.T) {
	path := writeSource(t, "cube(2);")
	var out, errOut bytes.Buffer
	c := &maincmd.Cmd{}
	err := c.Parse(context.Background(), mainer.Stdio{Stdout: &out, Stderr: &errOut}, []string{path})
	require.NoError(t, err)
	require.Contains(t, out.String(), "mod_call")
}

func TestLowerPrintsScopeSummary(t *testing.T) {
	path := writeSource(t, "x = 1;\ncube(2);")
	var out, errOut bytes.Buffer
	c := &maincmd.Cmd{}
	err := c.Lower(context.Background(), mainer.Stdio{Stdout: &out, Stderr: &errOut}, []string{path})
	require.NoError(t, err)
	require.Contains(t, out.String(), "vars=[x]")
	require.Contains(t, out.String(), "work=1")
}

func TestRenderPrintsShapeSummary(t *testing.T) {
	path := writeSource(t, "cube(2);")
	var out, errOut bytes.Buffer
	c := &maincmd.Cmd{}
	err := c.Render(context.Background(), mainer.Stdio{Stdout: &out, Stderr: &errOut}, []string{path})
	require.NoError(t, err)
	require.Contains(t, out.String(), "volume=8")
}

func TestRenderAppliesVarOverride(t *testing.T) {
	path := writeSource(t, "size = 1; cube(size);")
	var out, errOut bytes.Buffer
	c := &maincmd.Cmd{Var: "size=4"}
	err := c.Render(context.Background(), mainer.Stdio{Stdout: &out, Stderr: &errOut}, []string{path})
	require.NoError(t, err)
	require.Contains(t, out.String(), "volume=64")
}

func TestRenderReportsWarningsToStderr(t *testing.T) {
	path := writeSource(t, "sphere(r=2, d=10);")
	var out, errOut bytes.Buffer
	c := &maincmd.Cmd{}
	err := c.Render(context.Background(), mainer.Stdio{Stdout: &out, Stderr: &errOut}, []string{path})
	require.NoError(t, err)
	require.NotEmpty(t, errOut.String())
}

func TestRenderReportsErrorForUndefinedName(t *testing.T) {
	path := writeSource(t, "cube(nope);")
	var out, errOut bytes.Buffer
	c := &maincmd.Cmd{}
	err := c.Render(context.Background(), mainer.Stdio{Stdout: &out, Stderr: &errOut}, []string{path})
	require.Error(t, err)
	require.NotEmpty(t, errOut.String())
}

func TestValidateRejectsUnknownCommand(t *testing.T) {
	c := &maincmd.Cmd{}
	c.SetArgs([]string{"bogus", "file.scad"})
	err := c.Validate()
	require.Error(t, err)
}

func TestValidateRequiresAtLeastOneFile(t *testing.T) {
	c := &maincmd.Cmd{}
	c.SetArgs([]string{"render"})
	err := c.Validate()
	require.Error(t, err)
}

func TestValidateAcceptsKnownCommandWithFile(t *testing.T) {
	c := &maincmd.Cmd{}
	c.SetArgs([]string{"render", "file.scad"})
	err := c.Validate()
	require.NoError(t, err)
}

func TestValidateSkipsCommandCheckForHelpAndVersion(t *testing.T) {
	c := &maincmd.Cmd{Help: true}
	c.SetArgs(nil)
	require.NoError(t, c.Validate())

	c = &maincmd.Cmd{Version: true}
	c.SetArgs(nil)
	require.NoError(t, c.Validate())
}
