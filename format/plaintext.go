package format

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/outofforest/hashlife"
	"github.com/outofforest/hashlife/types"
)

const plaintextName = "Name:"

func readPlaintext(lines []line) (Pattern, error) {
	var p Pattern
	var cells []types.Cell
	var y int64
	for _, l := range lines {
		if comment, ok := strings.CutPrefix(l.text, "!"); ok {
			if name, ok := strings.CutPrefix(comment, plaintextName); ok {
				p.Name = strings.TrimSpace(name)
			} else {
				p.Comments = append(p.Comments, strings.TrimSpace(comment))
			}
			continue
		}

		for x, ch := range []byte(l.text) {
			switch ch {
			case '.':
			case 'O', '*':
				cells = append(cells, types.Cell{X: int64(x), Y: y})
			default:
				return Pattern{}, syntaxError(l, "unexpected character %q", ch)
			}
		}
		y++
	}

	p.State = hashlife.NewFlatState(cells...)
	return p, nil
}

func writePlaintext(w *bufio.Writer, p Pattern) error {
	if p.Name != "" {
		fmt.Fprintf(w, "!%s %s\n", plaintextName, p.Name)
	}
	for _, c := range p.Comments {
		fmt.Fprintf(w, "!%s\n", c)
	}

	writeRows(w, hashlife.SortedCells(p.State), p.State.BoundingBox(), '.', 'O')
	return nil
}
