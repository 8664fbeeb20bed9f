package types

import (
	"github.com/pkg/errors"
)

const (
	// UInt64Length is the number of bytes taken by uint64.
	UInt64Length = 8

	// MaxLevel is the level of the largest tree. Side of such tree still fits int64 coordinates.
	MaxLevel = 62

	// LeafBlockLevel is the level of blocks stored as bitmaps by the macrocell format.
	LeafBlockLevel = 3
)

var (
	// ErrInvalidArgument is returned when caller passes an argument outside the accepted domain.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfBounds is returned when cell is outside the square covered by a tree.
	ErrOutOfBounds = errors.New("cell out of bounds")

	// ErrInvariant is returned when tree invariant would be broken by the operation.
	ErrInvariant = errors.New("invariant violation")
)

// Cell is the coordinate of a lattice point. X grows eastwards, Y grows southwards.
type Cell struct {
	X int64
	Y int64
}

// Offset returns the cell translated by (dx, dy).
func (c Cell) Offset(dx, dy int64) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// Less defines row-major order of cells.
func (c Cell) Less(c2 Cell) bool {
	if c.Y != c2.Y {
		return c.Y < c2.Y
	}
	return c.X < c2.X
}

// Window is the half-open rectangle [Left, Right) x [Top, Bottom).
// Zero value is the empty window.
type Window struct {
	Left   int64
	Top    int64
	Right  int64
	Bottom int64
}

// CellWindow returns the window containing exactly one cell.
func CellWindow(c Cell) Window {
	return Window{Left: c.X, Top: c.Y, Right: c.X + 1, Bottom: c.Y + 1}
}

// Empty returns true if window contains no cells.
func (w Window) Empty() bool {
	return w.Right <= w.Left || w.Bottom <= w.Top
}

// Width returns width of the window.
func (w Window) Width() int64 {
	if w.Empty() {
		return 0
	}
	return w.Right - w.Left
}

// Height returns height of the window.
func (w Window) Height() int64 {
	if w.Empty() {
		return 0
	}
	return w.Bottom - w.Top
}

// Contains checks if cell lies inside the window.
func (w Window) Contains(c Cell) bool {
	return c.X >= w.Left && c.X < w.Right && c.Y >= w.Top && c.Y < w.Bottom
}

// Intersects checks if two windows share at least one cell.
func (w Window) Intersects(w2 Window) bool {
	return !w.Intersect(w2).Empty()
}

// Intersect returns the common part of two windows.
func (w Window) Intersect(w2 Window) Window {
	r := Window{
		Left:   max(w.Left, w2.Left),
		Top:    max(w.Top, w2.Top),
		Right:  min(w.Right, w2.Right),
		Bottom: min(w.Bottom, w2.Bottom),
	}
	if r.Empty() {
		return Window{}
	}
	return r
}

// Union returns the smallest window containing both windows.
func (w Window) Union(w2 Window) Window {
	switch {
	case w.Empty():
		return w2
	case w2.Empty():
		return w
	}
	return Window{
		Left:   min(w.Left, w2.Left),
		Top:    min(w.Top, w2.Top),
		Right:  max(w.Right, w2.Right),
		Bottom: max(w.Bottom, w2.Bottom),
	}
}

// Extend returns the smallest window containing both the window and the cell.
func (w Window) Extend(c Cell) Window {
	return w.Union(CellWindow(c))
}

// Offset returns the window translated by (dx, dy).
func (w Window) Offset(dx, dy int64) Window {
	if w.Empty() {
		return Window{}
	}
	return Window{Left: w.Left + dx, Top: w.Top + dy, Right: w.Right + dx, Bottom: w.Bottom + dy}
}
