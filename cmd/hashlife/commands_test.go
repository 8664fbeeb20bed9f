package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/hashlife"
	"github.com/outofforest/hashlife/format"
	"github.com/outofforest/hashlife/test"
)

const gliderRLE = "#N Glider\nx = 3, y = 3, rule = B3/S23\n3o$o$bo!\n"

func execute(t *testing.T, args ...string) (string, error) {
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(test.NewContext(t))
	return out.String(), err
}

func readFile(requireT *require.Assertions, path string) format.Pattern {
	f, err := os.Open(path)
	requireT.NoError(err)
	defer f.Close()

	p, err := format.Read(f, "")
	requireT.NoError(err)
	return p
}

func TestStep(t *testing.T) {
	requireT := require.New(t)
	dir := t.TempDir()

	in := filepath.Join(dir, "glider.rle")
	requireT.NoError(os.WriteFile(in, []byte(gliderRLE), 0o600))

	glider := hashlife.NewFlatState(test.Glider()...)

	for _, algorithm := range []string{hashlife.HashLifeAlgorithm, hashlife.NaiveAlgorithm} {
		for _, every := range []string{"0", "7", "40"} {
			out := filepath.Join(dir, algorithm+every+".mc")
			_, err := execute(t, "step", "-i", in, "-o", out, "-g", "40", "-a", algorithm, "--every", every,
				"--max-nodes", "100")
			requireT.NoError(err)

			p := readFile(requireT, out)
			requireT.Equal("Glider", p.Name)
			requireT.True(hashlife.Equal(glider.Offset(-10, -10), p.State), "%s %s", algorithm, every)
		}
	}
}

func TestStepErrors(t *testing.T) {
	requireT := require.New(t)
	dir := t.TempDir()

	in := filepath.Join(dir, "glider.rle")
	requireT.NoError(os.WriteFile(in, []byte(gliderRLE), 0o600))

	_, err := execute(t, "step", "-i", in, "-o", filepath.Join(dir, "out.rle"), "--generations=-1")
	requireT.Error(err)
	_, err = execute(t, "step", "-i", in, "-o", filepath.Join(dir, "out.rle"), "-a", "quantum")
	requireT.Error(err)
	_, err = execute(t, "step", "-i", in, "-o", filepath.Join(dir, "out.rle"), "-r", "B0/S")
	requireT.Error(err)
	_, err = execute(t, "step", "-i", filepath.Join(dir, "missing.rle"))
	requireT.Error(err)
}

func TestVerify(t *testing.T) {
	requireT := require.New(t)
	dir := t.TempDir()

	in := filepath.Join(dir, "rpentomino.cells")
	requireT.NoError(os.WriteFile(in, []byte("!Name: R-pentomino\n.OO\nOO.\n.O.\n"), 0o600))

	out, err := execute(t, "verify", "-i", in, "-g", "300")
	requireT.NoError(err)
	requireT.Len(strings.TrimSpace(out), 64)

	out2, err := execute(t, "verify", "-i", in, "-g", "300", "-r", "B36/S23")
	requireT.NoError(err)
	requireT.NotEqual(out, out2)
}

func TestConvert(t *testing.T) {
	requireT := require.New(t)
	dir := t.TempDir()

	in := filepath.Join(dir, "glider.rle")
	requireT.NoError(os.WriteFile(in, []byte(gliderRLE), 0o600))

	expected := readFile(requireT, in)
	for _, f := range format.Formats() {
		out := filepath.Join(dir, "glider."+string(f))
		_, err := execute(t, "convert", "-i", in, "-o", out, "--to", string(f))
		requireT.NoError(err)

		p := readFile(requireT, out)
		requireT.True(hashlife.EqualModuloOffset(expected.State, p.State), f)
		requireT.Equal(format.Fingerprint(expected.State), format.Fingerprint(p.State), f)
	}
}
