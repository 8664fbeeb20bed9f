package hashlife

import (
	"iter"
	"slices"

	"github.com/outofforest/hashlife/types"
)

// CellState is the immutable set of alive cells on the infinite plane with dead background.
// Mutating methods return new states.
type CellState interface {
	// Contains returns true if cell is alive.
	Contains(c types.Cell) bool

	// WithCell returns the state with the cell set to alive or dead.
	WithCell(c types.Cell, alive bool) CellState

	// Offset returns the state translated by (dx, dy).
	Offset(dx, dy int64) CellState

	// Union returns the state containing cells alive in any of two states.
	Union(other CellState) CellState

	// BoundingBox returns the smallest window containing all the alive cells.
	BoundingBox() types.Window

	// Population returns the number of alive cells.
	Population() uint64

	// Cells iterates over all the alive cells.
	Cells() iter.Seq[types.Cell]

	// CellsInWindow iterates over alive cells inside the window.
	CellsInWindow(window types.Window) iter.Seq[types.Cell]
}

// EmptyCellState returns the state without alive cells.
func EmptyCellState() CellState {
	return NewFlatState()
}

// Equal checks if two states contain the same alive cells.
func Equal(a, b CellState) bool {
	if ma, ok := a.(MacroState); ok {
		if mb, ok := b.(MacroState); ok {
			if equal, decided := ma.equalStructurally(mb); decided {
				return equal
			}
		}
	}

	if a.Population() != b.Population() || a.BoundingBox() != b.BoundingBox() {
		return false
	}
	for c := range a.Cells() {
		if !b.Contains(c) {
			return false
		}
	}
	return true
}

// EqualModuloOffset checks if states are equal after translating one of them.
func EqualModuloOffset(a, b CellState) bool {
	boundsA, boundsB := a.BoundingBox(), b.BoundingBox()
	if boundsA.Width() != boundsB.Width() || boundsA.Height() != boundsB.Height() {
		return false
	}
	return Equal(Normalize(a), Normalize(b))
}

// Normalize translates the state so the north-west corner of its bounding box is at (0, 0).
func Normalize(s CellState) CellState {
	bounds := s.BoundingBox()
	if bounds.Empty() || (bounds.Left == 0 && bounds.Top == 0) {
		return s
	}
	return s.Offset(-bounds.Left, -bounds.Top)
}

// SortedCells returns alive cells in row-major order.
func SortedCells(s CellState) []types.Cell {
	cells := slices.AppendSeq([]types.Cell{}, s.Cells())
	slices.SortFunc(cells, func(a, b types.Cell) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return cells
}
