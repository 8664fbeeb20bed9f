package format

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/outofforest/hashlife"
	"github.com/outofforest/hashlife/rule"
	"github.com/outofforest/hashlife/types"
)

const (
	life105Header = "#Life 1.05"
	life106Header = "#Life 1.06"
	lifeName      = "Name:"

	// life105Width is the maximum number of cells in one row of Life 1.05 block.
	life105Width = 80
)

// readLifeDirective handles directives shared by both Life formats. It returns false if line is not
// a directive known to both of them.
func readLifeDirective(p *Pattern, l line) (bool, error) {
	switch {
	case strings.HasPrefix(l.text, "#D"):
		comment := strings.TrimSpace(l.text[2:])
		if name, ok := strings.CutPrefix(comment, lifeName); ok {
			p.Name = strings.TrimSpace(name)
		} else {
			p.Comments = append(p.Comments, comment)
		}
	case l.text == "#N":
		p.Rule = rule.Conway
	case strings.HasPrefix(l.text, "#R"):
		r, err := parseRule(l, l.text[2:])
		if err != nil {
			return false, err
		}
		p.Rule = r
	default:
		return false, nil
	}
	return true, nil
}

func writeLifeDirectives(w *bufio.Writer, header string, p Pattern) {
	fmt.Fprintln(w, header)
	if p.Name != "" {
		fmt.Fprintf(w, "#D %s %s\n", lifeName, p.Name)
	}
	for _, c := range p.Comments {
		fmt.Fprintf(w, "#D %s\n", c)
	}
	if p.Rule == (rule.Rule{}) || p.Rule == rule.Conway {
		fmt.Fprintln(w, "#N")
	} else {
		fmt.Fprintf(w, "#R %s\n", p.Rule.Legacy())
	}
}

func readLife105(lines []line) (Pattern, error) {
	var p Pattern
	var cells []types.Cell
	var x0, y int64
	for i, l := range lines {
		if i == 0 {
			if !strings.HasPrefix(l.text, life105Header) {
				return Pattern{}, syntaxError(l, "header %q expected", life105Header)
			}
			continue
		}

		known, err := readLifeDirective(&p, l)
		if err != nil {
			return Pattern{}, err
		}
		if known {
			continue
		}

		if position, ok := strings.CutPrefix(l.text, "#P"); ok {
			if x0, y, err = parsePair(l, position); err != nil {
				return Pattern{}, err
			}
			continue
		}
		if strings.HasPrefix(l.text, "#") {
			p.Comments = append(p.Comments, strings.TrimSpace(l.text[1:]))
			continue
		}

		for x, ch := range []byte(l.text) {
			switch ch {
			case '.':
			case '*', 'O':
				cells = append(cells, types.Cell{X: x0 + int64(x), Y: y})
			default:
				return Pattern{}, syntaxError(l, "unexpected character %q", ch)
			}
		}
		y++
	}
	if len(lines) == 0 {
		return Pattern{}, syntaxError(line{number: 1}, "header %q expected", life105Header)
	}

	p.State = hashlife.NewFlatState(cells...)
	return p, nil
}

// writeLife105 splits the pattern into vertical bands, each written as separate block.
func writeLife105(w *bufio.Writer, p Pattern) error {
	writeLifeDirectives(w, life105Header, p)

	bounds := p.State.BoundingBox()
	cells := hashlife.SortedCells(p.State)
	for left := bounds.Left; left < bounds.Right; left += life105Width {
		band := types.Window{Left: left, Top: bounds.Top, Right: min(left+life105Width, bounds.Right),
			Bottom: bounds.Bottom}

		var block types.Window
		for _, c := range cells {
			if band.Contains(c) {
				block = block.Extend(c)
			}
		}
		if block.Empty() {
			continue
		}

		block.Left = band.Left
		fmt.Fprintf(w, "#P %d %d\n", block.Left, block.Top)
		writeRows(w, cells, block, '.', '*')
	}
	return nil
}

func readLife106(lines []line) (Pattern, error) {
	var p Pattern
	var cells []types.Cell
	for i, l := range lines {
		if i == 0 {
			if !strings.HasPrefix(l.text, life106Header) {
				return Pattern{}, syntaxError(l, "header %q expected", life106Header)
			}
			continue
		}

		known, err := readLifeDirective(&p, l)
		if err != nil {
			return Pattern{}, err
		}
		switch {
		case known:
		case strings.HasPrefix(l.text, "#"):
			p.Comments = append(p.Comments, strings.TrimSpace(l.text[1:]))
		case strings.TrimSpace(l.text) == "":
		default:
			x, y, err := parsePair(l, l.text)
			if err != nil {
				return Pattern{}, err
			}
			cells = append(cells, types.Cell{X: x, Y: y})
		}
	}
	if len(lines) == 0 {
		return Pattern{}, syntaxError(line{number: 1}, "header %q expected", life106Header)
	}

	p.State = hashlife.NewFlatState(cells...)
	return p, nil
}

func writeLife106(w *bufio.Writer, p Pattern) error {
	writeLifeDirectives(w, life106Header, p)
	for _, c := range hashlife.SortedCells(p.State) {
		fmt.Fprintf(w, "%d %d\n", c.X, c.Y)
	}
	return nil
}

func parsePair(l line, s string) (int64, int64, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, syntaxError(l, "two coordinates expected")
	}
	x, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, 0, syntaxError(l, "invalid coordinate %q", fields[0])
	}
	y, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, 0, syntaxError(l, "invalid coordinate %q", fields[1])
	}
	return x, y, nil
}
