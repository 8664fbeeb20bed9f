package hashlife

import (
	"iter"
	"maps"

	"github.com/outofforest/hashlife/types"
)

var _ CellState = FlatState{}

// NewFlatState creates the sparse set representation of the state.
func NewFlatState(cells ...types.Cell) FlatState {
	s := FlatState{
		cells: make(map[types.Cell]struct{}, len(cells)),
	}
	for _, c := range cells {
		s.cells[c] = struct{}{}
		s.bounds = s.bounds.Extend(c)
	}
	return s
}

// ToFlat converts any state to the sparse set representation.
func ToFlat(s CellState) FlatState {
	if f, ok := s.(FlatState); ok {
		return f
	}

	f := FlatState{
		cells: map[types.Cell]struct{}{},
	}
	for c := range s.Cells() {
		f.cells[c] = struct{}{}
		f.bounds = f.bounds.Extend(c)
	}
	return f
}

// FlatState stores alive cells in a hash set. Every modification copies the set.
type FlatState struct {
	cells  map[types.Cell]struct{}
	bounds types.Window
}

// Contains returns true if cell is alive.
func (s FlatState) Contains(c types.Cell) bool {
	_, exists := s.cells[c]
	return exists
}

// WithCell returns the state with the cell set to alive or dead.
func (s FlatState) WithCell(c types.Cell, alive bool) CellState {
	if s.Contains(c) == alive {
		return s
	}

	cells := maps.Clone(s.cells)
	if cells == nil {
		cells = map[types.Cell]struct{}{}
	}
	if alive {
		cells[c] = struct{}{}
		return FlatState{cells: cells, bounds: s.bounds.Extend(c)}
	}

	delete(cells, c)
	s2 := FlatState{cells: cells}
	if onEdge(s.bounds, c) {
		for c := range cells {
			s2.bounds = s2.bounds.Extend(c)
		}
	} else {
		s2.bounds = s.bounds
	}
	return s2
}

// Offset returns the state translated by (dx, dy).
func (s FlatState) Offset(dx, dy int64) CellState {
	if dx == 0 && dy == 0 {
		return s
	}

	cells := make(map[types.Cell]struct{}, len(s.cells))
	for c := range s.cells {
		cells[c.Offset(dx, dy)] = struct{}{}
	}
	return FlatState{cells: cells, bounds: s.bounds.Offset(dx, dy)}
}

// Union returns the state containing cells alive in any of two states.
func (s FlatState) Union(other CellState) CellState {
	if other.Population() == 0 {
		return s
	}

	cells := maps.Clone(s.cells)
	if cells == nil {
		cells = map[types.Cell]struct{}{}
	}
	bounds := s.bounds
	for c := range other.Cells() {
		cells[c] = struct{}{}
		bounds = bounds.Extend(c)
	}
	return FlatState{cells: cells, bounds: bounds}
}

// BoundingBox returns the smallest window containing all the alive cells.
func (s FlatState) BoundingBox() types.Window {
	return s.bounds
}

// Population returns the number of alive cells.
func (s FlatState) Population() uint64 {
	return uint64(len(s.cells))
}

// Cells iterates over all the alive cells.
func (s FlatState) Cells() iter.Seq[types.Cell] {
	return maps.Keys(s.cells)
}

// CellsInWindow iterates over alive cells inside the window.
func (s FlatState) CellsInWindow(window types.Window) iter.Seq[types.Cell] {
	return func(yield func(types.Cell) bool) {
		for c := range s.cells {
			if window.Contains(c) && !yield(c) {
				return
			}
		}
	}
}

func onEdge(w types.Window, c types.Cell) bool {
	return c.X == w.Left || c.X == w.Right-1 || c.Y == w.Top || c.Y == w.Bottom-1
}
