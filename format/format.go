package format

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/outofforest/hashlife"
	"github.com/outofforest/hashlife/rule"
	"github.com/outofforest/hashlife/types"
)

// Format is the name of pattern file format.
type Format string

// Supported formats.
const (
	Plaintext Format = "plaintext"
	Life105   Format = "life105"
	Life106   Format = "life106"
	RLE       Format = "rle"
	Macrocell Format = "macrocell"
)

// ErrSyntax is returned when pattern file is malformed.
var ErrSyntax = errors.New("syntax error")

const maxLineLength = 1 << 24

// Pattern is the content of pattern file.
type Pattern struct {
	Name     string
	Comments []string

	// Rule is the rule declared by the file. Zero value means the file doesn't declare one.
	Rule  rule.Rule
	State hashlife.CellState
}

// Formats returns all the supported formats.
func Formats() []Format {
	return []Format{Plaintext, Life105, Life106, RLE, Macrocell}
}

// ForPath returns the format used by files with the extension of path. Empty format means
// it must be detected from the content.
func ForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cells":
		return Plaintext
	case ".rle":
		return RLE
	case ".mc":
		return Macrocell
	default:
		return ""
	}
}

// Read reads the pattern. If format is empty it is detected from the header.
func Read(r io.Reader, format Format) (Pattern, error) {
	lines, err := readLines(r)
	if err != nil {
		return Pattern{}, err
	}
	if format == "" {
		format = detect(lines)
	}

	var p Pattern
	switch format {
	case Plaintext:
		p, err = readPlaintext(lines)
	case Life105:
		p, err = readLife105(lines)
	case Life106:
		p, err = readLife106(lines)
	case RLE:
		p, err = readRLE(lines)
	case Macrocell:
		p, err = readMacrocell(lines)
	default:
		return Pattern{}, errors.Wrapf(types.ErrInvalidArgument, "unknown format %q", format)
	}
	if err != nil {
		return Pattern{}, errors.WithMessagef(err, "reading %s", format)
	}
	return p, nil
}

// Write writes the pattern in the format.
func Write(w io.Writer, format Format, p Pattern) error {
	if p.State == nil {
		p.State = hashlife.EmptyCellState()
	}

	// Writer keeps the first error and returns it from Flush.
	bw := bufio.NewWriter(w)
	var err error
	switch format {
	case Plaintext:
		err = writePlaintext(bw, p)
	case Life105:
		err = writeLife105(bw, p)
	case Life106:
		err = writeLife106(bw, p)
	case RLE:
		err = writeRLE(bw, p)
	case Macrocell:
		err = writeMacrocell(bw, p)
	default:
		return errors.Wrapf(types.ErrInvalidArgument, "unknown format %q", format)
	}
	if err != nil {
		return errors.WithMessagef(err, "writing %s", format)
	}
	return errors.WithStack(bw.Flush())
}

type line struct {
	number int
	text   string
}

func readLines(r io.Reader) ([]line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineLength)

	var lines []line
	for number := 1; scanner.Scan(); number++ {
		lines = append(lines, line{
			number: number,
			text:   strings.TrimRight(scanner.Text(), " \t\r"),
		})
	}
	return lines, errors.WithStack(scanner.Err())
}

func detect(lines []line) Format {
	for _, l := range lines {
		switch {
		case l.text == "":
			continue
		case strings.HasPrefix(l.text, "[M2]"):
			return Macrocell
		case strings.HasPrefix(l.text, "#Life 1.05"):
			return Life105
		case strings.HasPrefix(l.text, "#Life 1.06"):
			return Life106
		case strings.HasPrefix(l.text, "!"):
			return Plaintext
		case strings.HasPrefix(l.text, "#"):
			continue
		case strings.HasPrefix(strings.TrimSpace(l.text), "x"):
			return RLE
		default:
			return Plaintext
		}
	}
	return Plaintext
}

func syntaxError(l line, format string, args ...any) error {
	return errors.Wrapf(ErrSyntax, "line %d: "+format, append([]any{l.number}, args...)...)
}

func parseRule(l line, s string) (rule.Rule, error) {
	r, err := rule.Parse(s)
	if err != nil {
		return rule.Rule{}, errors.WithMessagef(err, "line %d", l.number)
	}
	return r, nil
}

// rows yields every non-empty row of the window as x offsets of its alive cells relative to the left edge,
// together with the number of empty rows skipped before it. Cells must be sorted in row-major order.
func rows(cells []types.Cell, window types.Window, yield func(skipped int64, xs []int64)) {
	next := window.Top
	var xs []int64
	for i := 0; i < len(cells); {
		y := cells[i].Y
		xs = xs[:0]
		for ; i < len(cells) && cells[i].Y == y; i++ {
			if window.Contains(cells[i]) {
				xs = append(xs, cells[i].X-window.Left)
			}
		}
		if len(xs) == 0 {
			continue
		}
		yield(y-next, xs)
		next = y + 1
	}
}

// render draws the row using given characters. Trailing dead cells are omitted.
func render(row []byte, xs []int64, dead, alive byte) []byte {
	row = row[:0]
	for _, x := range xs {
		for int64(len(row)) < x {
			row = append(row, dead)
		}
		row = append(row, alive)
	}
	return row
}

// writeRows writes rows of the window in the text form, empty rows are written as single dead cell.
func writeRows(w *bufio.Writer, cells []types.Cell, window types.Window, dead, alive byte) {
	var row []byte
	rows(cells, window, func(skipped int64, xs []int64) {
		for range skipped {
			w.WriteByte(dead)
			w.WriteByte('\n')
		}
		row = render(row, xs, dead, alive)
		w.Write(row)
		w.WriteByte('\n')
	})
}
