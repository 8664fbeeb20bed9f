package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/hashlife"
	"github.com/outofforest/hashlife/macro"
	"github.com/outofforest/hashlife/rule"
	"github.com/outofforest/hashlife/test"
	"github.com/outofforest/hashlife/types"
)

func states(requireT *require.Assertions) map[string]hashlife.CellState {
	u, err := macro.New(macro.Config{Rule: rule.Conway})
	requireT.NoError(err)
	sparse, err := hashlife.NewMacroState(u, types.Cell{X: -1 << 40, Y: 3}, types.Cell{X: 1 << 40, Y: -(1 << 41)})
	requireT.NoError(err)

	return map[string]hashlife.CellState{
		"empty":       hashlife.EmptyCellState(),
		"glider":      hashlife.NewFlatState(test.Glider()...),
		"movedGlider": hashlife.NewFlatState(test.Glider()...).Offset(-17, 1000),
		"gosperGun":   hashlife.NewFlatState(test.GosperGun()...),
		"wide":        hashlife.NewFlatState(types.Cell{X: 0, Y: 0}, types.Cell{X: 79, Y: 5}, types.Cell{X: 250, Y: -3}),
		"emptyRows":   hashlife.NewFlatState(types.Cell{X: 0, Y: 0}, types.Cell{X: 3, Y: 7}, types.Cell{X: 1, Y: 8}),
		"macroGlider": lo.Must(hashlife.NewMacroState(u, test.Glider()...)).Offset(3, 3),
		"sparsePair":  sparse,
	}
}

func roundTrip(requireT *require.Assertions, format Format, p Pattern) Pattern {
	buf := &bytes.Buffer{}
	requireT.NoError(Write(buf, format, p))

	p2, err := Read(bytes.NewReader(buf.Bytes()), format)
	requireT.NoError(err, buf.String())

	// Detection from content must select the same format.
	p3, err := Read(bytes.NewReader(buf.Bytes()), "")
	requireT.NoError(err, buf.String())
	requireT.True(hashlife.Equal(p2.State, p3.State), buf.String())

	return p2
}

func TestRoundTripKeepsPosition(t *testing.T) {
	requireT := require.New(t)

	for _, format := range []Format{Life105, Life106, RLE, Macrocell} {
		for name, s := range states(requireT) {
			if format == Life105 && name == "sparsePair" {
				continue
			}
			p := roundTrip(requireT, format, Pattern{State: s})
			requireT.True(hashlife.Equal(s, p.State), "%s %s", format, name)
		}
	}
}

func TestPlaintextRoundTripNormalizes(t *testing.T) {
	requireT := require.New(t)

	for name, s := range states(requireT) {
		if name == "sparsePair" {
			continue
		}
		p := roundTrip(requireT, Plaintext, Pattern{State: s})
		requireT.True(hashlife.Equal(hashlife.Normalize(s), p.State), name)
		requireT.True(hashlife.EqualModuloOffset(s, p.State), name)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	requireT := require.New(t)

	highLife := rule.MustParse("B36/S23")
	for _, format := range Formats() {
		p := roundTrip(requireT, format, Pattern{
			Name:     "Gosper glider gun",
			Comments: []string{"first", "second"},
			Rule:     highLife,
			State:    hashlife.NewFlatState(test.GosperGun()...),
		})
		requireT.Equal("Gosper glider gun", p.Name, format)
		requireT.Equal([]string{"first", "second"}, p.Comments, format)
		if format != Plaintext {
			requireT.Equal(highLife, p.Rule, format)
		}
	}
}

func TestReadKnownFiles(t *testing.T) {
	requireT := require.New(t)

	expected := hashlife.NewFlatState(types.Cell{X: 1, Y: 0}, types.Cell{X: 2, Y: 1}, types.Cell{X: 0, Y: 2},
		types.Cell{X: 1, Y: 2}, types.Cell{X: 2, Y: 2})

	files := map[string]string{
		"plaintext": "!Name: Glider\n!\n.O\n..O\nOOO\n",
		"rle":       "#N Glider\n#O Richard K. Guy\n#C The smallest spaceship.\nx = 3, y = 3, rule = B3/S23\nbob$2bo$3o!\n",
		"life105":   "#Life 1.05\n#D Glider\n#N\n#P 0 0\n.*\n..*\n***\n",
		"life106":   "#Life 1.06\n1 0\n2 1\n0 2\n1 2\n2 2\n",
		"macrocell": "[M2] (golly 2.0)\n#R B3/S23\n.*$..*$***$\n4 1 0 0 0\n",
	}
	offsets := map[string][2]int64{"macrocell": {-8, -8}}

	for name, content := range files {
		p, err := Read(strings.NewReader(content), "")
		requireT.NoError(err, name)
		requireT.True(hashlife.Equal(expected.Offset(offsets[name][0], offsets[name][1]), p.State), name)
	}
}

func TestRLERunsAndWrapping(t *testing.T) {
	requireT := require.New(t)

	var cells []types.Cell
	for x := range int64(500) {
		if x%3 != 0 {
			cells = append(cells, types.Cell{X: x, Y: 0})
		}
	}
	cells = append(cells, types.Cell{X: 0, Y: 10})

	buf := &bytes.Buffer{}
	requireT.NoError(Write(buf, RLE, Pattern{State: hashlife.NewFlatState(cells...)}))
	for _, l := range strings.Split(buf.String(), "\n") {
		requireT.LessOrEqual(len(l), rleWidth)
	}
	requireT.Contains(strings.ReplaceAll(buf.String(), "\n", ""), "10$o!")

	p, err := Read(buf, RLE)
	requireT.NoError(err)
	requireT.True(hashlife.Equal(hashlife.NewFlatState(cells...), p.State))
}

func TestMacrocellSharesNodes(t *testing.T) {
	requireT := require.New(t)

	// Four identical blocks far from each other share the subtree.
	var cells []types.Cell
	for _, c := range []types.Cell{{X: -1 << 30, Y: -1 << 30}, {X: 1 << 30, Y: -1 << 30}, {X: -1 << 30, Y: 1 << 30}} {
		cells = append(cells, test.Offset(test.Glider(), c.X, c.Y)...)
	}

	buf := &bytes.Buffer{}
	requireT.NoError(Write(buf, Macrocell, Pattern{State: hashlife.NewFlatState(cells...)}))
	requireT.Less(strings.Count(buf.String(), "\n"), 120)

	p, err := Read(buf, "")
	requireT.NoError(err)
	requireT.True(hashlife.Equal(hashlife.NewFlatState(cells...), p.State))
	requireT.IsType(hashlife.MacroState{}, p.State)
}

func TestSyntaxErrors(t *testing.T) {
	requireT := require.New(t)

	tests := []struct {
		format  Format
		content string
		line    string
	}{
		{format: Plaintext, content: "!c\n.O\n.X\n", line: "line 3"},
		{format: RLE, content: "#C c\nx = 3, y = 3\nbo?$!\n", line: "line 3"},
		{format: RLE, content: "#C c\nx = 3, y = a\nbo$!\n", line: "line 2"},
		{format: RLE, content: "#C c\n", line: "line 2"},
		{format: Life105, content: "#Life 1.05\n#P 0\n", line: "line 2"},
		{format: Life105, content: "#Life 1.06\n", line: "line 1"},
		{format: Life106, content: "#Life 1.06\n1 2\n1 x\n", line: "line 3"},
		{format: Macrocell, content: "[M2]\n.*$\n4 1 0 0 2\n", line: "line 3"},
		{format: Macrocell, content: "[M2]\n.*$\n5 1 0 0 0\n", line: "line 3"},
		{format: Macrocell, content: "[M2]\n.........*$\n", line: "line 2"},
		{format: Macrocell, content: "#R B3/S23\n", line: "line 1"},
	}

	for _, tc := range tests {
		_, err := Read(strings.NewReader(tc.content), tc.format)
		requireT.Error(err, tc.content)
		requireT.True(errors.Is(err, ErrSyntax), tc.content)
		requireT.Contains(err.Error(), tc.line, tc.content)
	}

	_, err := Read(strings.NewReader("x = 1, y = 1, rule = B0/S\no!"), RLE)
	requireT.True(errors.Is(err, types.ErrInvalidArgument))
	requireT.Contains(err.Error(), "line 1")
}

func TestUnknownFormat(t *testing.T) {
	requireT := require.New(t)

	_, err := Read(strings.NewReader(""), "png")
	requireT.True(errors.Is(err, types.ErrInvalidArgument))
	requireT.True(errors.Is(Write(&bytes.Buffer{}, "png", Pattern{}), types.ErrInvalidArgument))
}

func TestForPath(t *testing.T) {
	requireT := require.New(t)

	requireT.Equal(Plaintext, ForPath("glider.cells"))
	requireT.Equal(RLE, ForPath("/patterns/Gun.RLE"))
	requireT.Equal(Macrocell, ForPath("breeder.mc"))
	requireT.Equal(Format(""), ForPath("pattern.lif"))
}

func TestFingerprint(t *testing.T) {
	requireT := require.New(t)

	g := hashlife.NewFlatState(test.Glider()...)
	u, err := macro.New(macro.Config{Rule: rule.Conway})
	requireT.NoError(err)
	m, err := hashlife.NewMacroState(u, test.Glider()...)
	requireT.NoError(err)

	requireT.Equal(Fingerprint(g), Fingerprint(g.Offset(100, -100)))
	requireT.Equal(Fingerprint(g), Fingerprint(m.Offset(-5, 7)))
	requireT.NotEqual(Fingerprint(g), Fingerprint(g.WithCell(types.Cell{X: 1, Y: 1}, true)))
	requireT.NotEqual(Fingerprint(g), Fingerprint(hashlife.EmptyCellState()))
	requireT.Len(Fingerprint(g).String(), 64)
}
