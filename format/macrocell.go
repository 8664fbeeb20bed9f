package format

import (
	"bufio"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/outofforest/hashlife"
	"github.com/outofforest/hashlife/macro"
	"github.com/outofforest/hashlife/rule"
	"github.com/outofforest/hashlife/types"
)

const (
	macrocellHeader = "[M2]"

	// macrocellLeafLevel is the level of nodes stored as 8x8 bitmaps.
	macrocellLeafLevel = 3
)

// readMacrocell builds the tree directly in the new universe. Root is centered at (0, 0).
func readMacrocell(lines []line) (Pattern, error) {
	if len(lines) == 0 || !strings.HasPrefix(lines[0].text, macrocellHeader) {
		return Pattern{}, syntaxError(line{number: 1}, "header %q expected", macrocellHeader)
	}

	p := Pattern{}
	var nodeLines []line
	for _, l := range lines[1:] {
		switch {
		case l.text == "":
		case strings.HasPrefix(l.text, "#R"):
			r, err := parseRule(l, l.text[2:])
			if err != nil {
				return Pattern{}, err
			}
			p.Rule = r
		case strings.HasPrefix(l.text, "#N"):
			p.Name = strings.TrimSpace(l.text[2:])
		case strings.HasPrefix(l.text, "#"):
			p.Comments = append(p.Comments, strings.TrimSpace(l.text[min(2, len(l.text)):]))
		default:
			nodeLines = append(nodeLines, l)
		}
	}

	r := p.Rule
	if r == (rule.Rule{}) {
		r = rule.Conway
	}
	u, err := macro.New(macro.Config{Rule: r})
	if err != nil {
		return Pattern{}, err
	}

	// Index 0 stands for the empty node of the level required by the parent.
	nodes := []*macro.Node{nil}
	for _, l := range nodeLines {
		var n *macro.Node
		var err error
		if l.text[0] >= '0' && l.text[0] <= '9' {
			n, err = readMacrocellNode(u, l, nodes)
		} else {
			n, err = readMacrocellLeaf(u, l)
		}
		if err != nil {
			return Pattern{}, err
		}
		nodes = append(nodes, n)
	}

	if len(nodes) == 1 {
		p.State, err = hashlife.NewMacroState(u)
		return p, err
	}

	root := nodes[len(nodes)-1]
	half := root.Side() / 2
	if p.State, err = hashlife.NewMacroStateFromRoot(u, root, -half, -half); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

func readMacrocellLeaf(u *macro.Universe, l line) (*macro.Node, error) {
	const side = 1 << macrocellLeafLevel

	var cells []types.Cell
	var x, y int64
	for _, ch := range []byte(l.text) {
		switch ch {
		case '$':
			x = 0
			y++
			continue
		case '.':
		case '*':
			cells = append(cells, types.Cell{X: x, Y: y})
		default:
			return nil, syntaxError(l, "unexpected character %q", ch)
		}
		if x >= side || y >= side {
			return nil, syntaxError(l, "cell (%d, %d) outside of %dx%d block", x, y, side, side)
		}
		x++
	}

	n, err := u.Build(macrocellLeafLevel, 0, 0, cells)
	return n, errors.WithMessagef(err, "line %d", l.number)
}

func readMacrocellNode(u *macro.Universe, l line, nodes []*macro.Node) (*macro.Node, error) {
	fields := strings.Fields(l.text)
	if len(fields) != 5 {
		return nil, syntaxError(l, "level and four children expected")
	}
	level, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil || level <= macrocellLeafLevel || level > types.MaxLevel {
		return nil, syntaxError(l, "invalid level %q", fields[0])
	}

	var children [4]*macro.Node
	for i, f := range fields[1:] {
		index, err := strconv.ParseUint(f, 10, 64)
		if err != nil || index >= uint64(len(nodes)) {
			return nil, syntaxError(l, "invalid node reference %q", f)
		}
		if index == 0 {
			if children[i], err = u.Empty(int(level) - 1); err != nil {
				return nil, err
			}
			continue
		}
		children[i] = nodes[index]
		if children[i].Level() != uint8(level)-1 {
			return nil, syntaxError(l, "node %d has level %d, expected %d", index, children[i].Level(), level-1)
		}
	}

	n, err := u.Create(children[0], children[1], children[2], children[3])
	return n, errors.WithMessagef(err, "line %d", l.number)
}

func writeMacrocell(w *bufio.Writer, p Pattern) error {
	r := p.Rule
	if r == (rule.Rule{}) {
		r = rule.Conway
	}

	root, err := centeredRoot(p.State, r)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, macrocellHeader)
	fmt.Fprintf(w, "#R %s\n", r)
	if p.Name != "" {
		fmt.Fprintf(w, "#N %s\n", p.Name)
	}
	for _, c := range p.Comments {
		fmt.Fprintf(w, "#C %s\n", c)
	}

	if root.Empty() {
		return nil
	}
	writeMacrocellNode(w, root, map[*macro.Node]int{})
	return nil
}

// writeMacrocellNode writes children before the parent and returns the index of the node.
func writeMacrocellNode(w *bufio.Writer, n *macro.Node, indexes map[*macro.Node]int) int {
	if n.Empty() {
		return 0
	}
	if index, exists := indexes[n]; exists {
		return index
	}

	if n.Level() == macrocellLeafLevel {
		writeMacrocellLeaf(w, n)
	} else {
		nw, ne, sw, se := n.Children()
		children := [4]int{
			writeMacrocellNode(w, nw, indexes),
			writeMacrocellNode(w, ne, indexes),
			writeMacrocellNode(w, sw, indexes),
			writeMacrocellNode(w, se, indexes),
		}
		fmt.Fprintf(w, "%d %d %d %d %d\n", n.Level(), children[0], children[1], children[2], children[3])
	}

	index := len(indexes) + 1
	indexes[n] = index
	return index
}

func writeMacrocellLeaf(w *bufio.Writer, n *macro.Node) {
	side := n.Side()
	var bottom int64
	for y := range side {
		for x := range side {
			if n.Contains(x, y) {
				bottom = y + 1
			}
		}
	}

	for y := range bottom {
		var right int64
		for x := range side {
			if n.Contains(x, y) {
				right = x + 1
			}
		}
		for x := range right {
			if n.Contains(x, y) {
				w.WriteByte('*')
			} else {
				w.WriteByte('.')
			}
		}
		w.WriteByte('$')
	}
	w.WriteByte('\n')
}

// centeredRoot returns the tree of the state centered at (0, 0).
func centeredRoot(s hashlife.CellState, r rule.Rule) (*macro.Node, error) {
	if m, ok := s.(hashlife.MacroState); ok {
		if root, x0, y0 := m.Root(); root != nil && x0 == -root.Side()/2 && y0 == x0 {
			return root, nil
		}
	}

	u, err := macro.New(macro.Config{Rule: r})
	if err != nil {
		return nil, err
	}
	m, err := hashlife.NewMacroState(u, slices.Collect(s.Cells())...)
	if err != nil {
		return nil, err
	}
	root, _, _ := m.Root()
	return root, nil
}
