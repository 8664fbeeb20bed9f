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
	rlePosition = "CXRLE Pos="

	// rleWidth is the maximum length of the encoded line.
	rleWidth = 70
)

func readRLE(lines []line) (Pattern, error) {
	var p Pattern
	var x0, y0 int64
	var i int
	for ; i < len(lines); i++ {
		l := lines[i]
		if l.text == "" {
			continue
		}
		if !strings.HasPrefix(l.text, "#") {
			break
		}

		directive := l.text[1:]
		var err error
		switch {
		case strings.HasPrefix(directive, rlePosition):
			x0, y0, err = parsePair(l, strings.Replace(directive[len(rlePosition):], ",", " ", 1))
			if err != nil {
				return Pattern{}, err
			}
		case strings.HasPrefix(directive, "N"):
			p.Name = strings.TrimSpace(directive[1:])
		case strings.HasPrefix(directive, "r"):
			if p.Rule, err = parseRule(l, directive[1:]); err != nil {
				return Pattern{}, err
			}
		case directive == "":
		default:
			p.Comments = append(p.Comments, strings.TrimSpace(directive[1:]))
		}
	}
	if i == len(lines) {
		return Pattern{}, syntaxError(line{number: len(lines) + 1}, "header expected")
	}

	if err := readRLEHeader(&p, lines[i]); err != nil {
		return Pattern{}, err
	}

	var cells []types.Cell
	x, y := x0, y0
	var count int64
	var finished bool
	for _, l := range lines[i+1:] {
		if finished {
			break
		}
		for _, ch := range []byte(l.text) {
			run := max(count, 1)
			switch {
			case ch >= '0' && ch <= '9':
				count = count*10 + int64(ch-'0')
				continue
			case ch == ' ' || ch == '\t':
				continue
			case ch == 'b' || ch == '.':
				x += run
			case ch == '$':
				x = x0
				y += run
			case ch == '!':
				finished = true
			case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
				for range run {
					cells = append(cells, types.Cell{X: x, Y: y})
					x++
				}
			default:
				return Pattern{}, syntaxError(l, "unexpected character %q", ch)
			}
			count = 0
			if finished {
				break
			}
		}
	}
	if count != 0 {
		return Pattern{}, syntaxError(lines[len(lines)-1], "run count without a tag")
	}

	p.State = hashlife.NewFlatState(cells...)
	return p, nil
}

func readRLEHeader(p *Pattern, l line) error {
	for _, field := range strings.Split(l.text, ",") {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return syntaxError(l, "invalid header field %q", field)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch key {
		case "x", "y":
			if _, err := strconv.ParseUint(value, 10, 64); err != nil {
				return syntaxError(l, "invalid size %q", value)
			}
		case "rule":
			r, err := parseRule(l, value)
			if err != nil {
				return err
			}
			p.Rule = r
		default:
			return syntaxError(l, "unknown header field %q", key)
		}
	}
	return nil
}

func writeRLE(w *bufio.Writer, p Pattern) error {
	if p.Name != "" {
		fmt.Fprintf(w, "#N %s\n", p.Name)
	}
	for _, c := range p.Comments {
		fmt.Fprintf(w, "#C %s\n", c)
	}

	bounds := p.State.BoundingBox()
	if bounds.Left != 0 || bounds.Top != 0 {
		fmt.Fprintf(w, "#%s%d,%d\n", rlePosition, bounds.Left, bounds.Top)
	}
	fmt.Fprintf(w, "x = %d, y = %d", bounds.Width(), bounds.Height())
	if p.Rule != (rule.Rule{}) {
		fmt.Fprintf(w, ", rule = %s", p.Rule)
	}
	fmt.Fprintln(w)

	e := rleEncoder{w: w}
	rows(hashlife.SortedCells(p.State), bounds, func(skipped int64, xs []int64) {
		if e.written > 0 {
			e.run(skipped+1, '$')
		}

		var x int64
		for i := 0; i < len(xs); {
			j := i + 1
			for j < len(xs) && xs[j] == xs[j-1]+1 {
				j++
			}
			if xs[i] > x {
				e.run(xs[i]-x, 'b')
			}
			e.run(int64(j-i), 'o')
			x = xs[j-1] + 1
			i = j
		}
	})
	e.run(1, '!')
	w.WriteByte('\n')
	return nil
}

// rleEncoder writes runs wrapping lines so none of them is longer than rleWidth.
type rleEncoder struct {
	w       *bufio.Writer
	line    int
	written int
}

func (e *rleEncoder) run(count int64, tag byte) {
	token := string(tag)
	if count > 1 {
		token = strconv.FormatInt(count, 10) + token
	}
	if e.line+len(token) > rleWidth {
		e.w.WriteByte('\n')
		e.line = 0
	}
	e.w.WriteString(token)
	e.line += len(token)
	e.written++
}
