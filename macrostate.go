package hashlife

import (
	"iter"
	"math"
	"slices"

	"github.com/pkg/errors"

	"github.com/outofforest/hashlife/macro"
	"github.com/outofforest/hashlife/types"
)

var _ CellState = MacroState{}

// NewMacroState builds the quadtree representation of the state centered at (0, 0).
func NewMacroState(u *macro.Universe, cells ...types.Cell) (MacroState, error) {
	var bounds types.Window
	for _, c := range cells {
		bounds = bounds.Extend(c)
	}

	level, err := levelFor(bounds, 0, 0)
	if err != nil {
		return MacroState{}, err
	}

	half := int64(1) << (level - 1)
	root, err := u.Build(level, -half, -half, cells)
	if err != nil {
		return MacroState{}, err
	}
	return MacroState{
		universe: u,
		root:     root,
	}, nil
}

// NewMacroStateFromRoot wraps the tree with north-west corner placed at (x0, y0).
func NewMacroStateFromRoot(u *macro.Universe, root *macro.Node, x0, y0 int64) (MacroState, error) {
	if root.Level() == 0 {
		return MacroState{}, errors.Wrap(types.ErrInvalidArgument, "root can't be a leaf")
	}

	half := root.Side() / 2
	s := MacroState{
		universe: u,
		root:     u.Import(root),
		cx:       x0 + half,
		cy:       y0 + half,
	}
	for s.root.Level() < macro.MinRootLevel {
		var err error
		if s.root, err = u.Expand(s.root); err != nil {
			return MacroState{}, err
		}
	}
	return s, nil
}

// ToMacro converts any state to the quadtree representation owned by the universe.
func ToMacro(u *macro.Universe, s CellState) (MacroState, error) {
	if m, ok := s.(MacroState); ok {
		if m.universe != u {
			m.universe = u
			m.root = u.Import(m.root)
		}
		return m, nil
	}
	return NewMacroState(u, slices.Collect(s.Cells())...)
}

// MacroState stores alive cells in the canonical quadtree. Root is placed so its center is at (cx, cy).
// The center never moves when tree grows, shrinks or is stepped.
type MacroState struct {
	universe *macro.Universe
	root     *macro.Node
	cx, cy   int64
}

// Root returns the root node of the tree and the coordinates of its north-west corner.
func (s MacroState) Root() (*macro.Node, int64, int64) {
	if s.root == nil {
		return nil, 0, 0
	}
	x0, y0 := s.origin()
	return s.root, x0, y0
}

// Universe returns the universe owning the nodes.
func (s MacroState) Universe() *macro.Universe {
	return s.universe
}

// Contains returns true if cell is alive.
func (s MacroState) Contains(c types.Cell) bool {
	if s.root == nil {
		return false
	}
	x0, y0 := s.origin()
	return s.root.Contains(c.X-x0, c.Y-y0)
}

// WithCell returns the state with the cell set to alive or dead.
func (s MacroState) WithCell(c types.Cell, alive bool) CellState {
	if s.root == nil {
		if !alive {
			return s
		}
		return NewFlatState(c)
	}
	if s.Contains(c) == alive {
		return s
	}

	root, err := s.grow(types.CellWindow(c))
	if err != nil {
		return ToFlat(s).WithCell(c, alive)
	}
	s.root = root

	x0, y0 := s.origin()
	if s.root, err = s.universe.SetCell(s.root, c.X-x0, c.Y-y0, alive); err != nil {
		return ToFlat(s).WithCell(c, alive)
	}
	return s
}

// Offset returns the state translated by (dx, dy).
// If the translated tree doesn't fit into the coordinate space the sparse set representation is returned.
func (s MacroState) Offset(dx, dy int64) CellState {
	if s.root == nil {
		return s
	}

	cx, okX := add(s.cx, dx)
	cy, okY := add(s.cy, dy)
	half := s.root.Side() / 2
	if !okX || !okY || !fits(cx, half) || !fits(cy, half) {
		return ToFlat(s).Offset(dx, dy)
	}
	s.cx, s.cy = cx, cy
	return s
}

// Union returns the state containing cells alive in any of two states.
func (s MacroState) Union(other CellState) CellState {
	if s.root == nil {
		return other
	}
	if other.Population() == 0 {
		return s
	}

	if m, ok := other.(MacroState); ok && m.universe == s.universe && m.cx == s.cx && m.cy == s.cy {
		a, b, err := s.align(m)
		if err == nil {
			root, err := s.universe.Union(a, b)
			if err == nil {
				s.root = root
				return s
			}
		}
	}

	root, err := s.grow(other.BoundingBox())
	if err != nil {
		return ToFlat(s).Union(other)
	}
	result := s
	result.root = root

	x0, y0 := result.origin()
	for c := range other.Cells() {
		if result.root, err = s.universe.SetCell(result.root, c.X-x0, c.Y-y0, true); err != nil {
			return ToFlat(s).Union(other)
		}
	}
	return result
}

// BoundingBox returns the smallest window containing all the alive cells.
func (s MacroState) BoundingBox() types.Window {
	if s.root == nil {
		return types.Window{}
	}
	x0, y0 := s.origin()
	return s.root.Bounds(x0, y0)
}

// Population returns the number of alive cells. It saturates at math.MaxUint64.
func (s MacroState) Population() uint64 {
	if s.root == nil {
		return 0
	}
	return s.root.Population()
}

// Cells iterates over all the alive cells.
func (s MacroState) Cells() iter.Seq[types.Cell] {
	return s.CellsInWindow(s.window())
}

// CellsInWindow iterates over alive cells inside the window.
// The cost is proportional to the number of alive cells in the window, not to the size of the tree.
func (s MacroState) CellsInWindow(window types.Window) iter.Seq[types.Cell] {
	return func(yield func(types.Cell) bool) {
		if s.root == nil {
			return
		}
		x0, y0 := s.origin()
		s.root.Cells(x0, y0, window, yield)
	}
}

func (s MacroState) origin() (int64, int64) {
	half := s.root.Side() / 2
	return s.cx - half, s.cy - half
}

func (s MacroState) window() types.Window {
	if s.root == nil {
		return types.Window{}
	}
	x0, y0 := s.origin()
	side := s.root.Side()
	return types.Window{Left: x0, Top: y0, Right: x0 + side, Bottom: y0 + side}
}

// grow expands the tree until it covers the window.
func (s MacroState) grow(window types.Window) (*macro.Node, error) {
	level, err := levelFor(window, s.cx, s.cy)
	if err != nil {
		return nil, err
	}

	half := int64(1) << (level - 1)
	if !fits(s.cx, half) || !fits(s.cy, half) {
		return nil, errors.Wrapf(types.ErrOutOfBounds, "tree of level %d centered at (%d, %d) exceeds coordinate space",
			level, s.cx, s.cy)
	}

	root := s.root
	for root.Level() < level {
		if root, err = s.universe.Expand(root); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// align expands one of the trees so both have the same level. Both states must share the center.
func (s MacroState) align(other MacroState) (*macro.Node, *macro.Node, error) {
	a, b := s.root, other.root
	var err error
	for a.Level() < b.Level() {
		if a, err = s.universe.Expand(a); err != nil {
			return nil, nil, err
		}
	}
	for b.Level() < a.Level() {
		if b, err = s.universe.Expand(b); err != nil {
			return nil, nil, err
		}
	}
	return s.universe.Import(a), s.universe.Import(b), nil
}

// equalStructurally compares trees by node identity. It returns false as the second result if trees
// can't be compared that way.
func (s MacroState) equalStructurally(other MacroState) (bool, bool) {
	switch {
	case s.root == nil || other.root == nil:
		return s.Population() == other.Population(), true
	case s.universe != other.universe || s.cx != other.cx || s.cy != other.cy:
		return false, false
	}

	a, b, err := s.align(other)
	if err != nil {
		return false, false
	}
	return a == b, true
}

// levelFor returns the smallest level of the tree centered at (cx, cy) covering the window.
func levelFor(window types.Window, cx, cy int64) (uint8, error) {
	level := uint8(macro.MinRootLevel)
	if window.Empty() {
		return level, nil
	}

	reach := max(
		distance(cx, window.Left), distance(window.Right, cx),
		distance(cy, window.Top), distance(window.Bottom, cy),
	)
	for int64(1)<<(level-1) < reach {
		if level >= types.MaxLevel {
			return 0, errors.Wrapf(types.ErrOutOfBounds, "window %+v is too far from the center (%d, %d)",
				window, cx, cy)
		}
		level++
	}
	return level, nil
}

// fits checks that the tree with given half of the side centered at c lies inside the coordinate space.
func fits(c, half int64) bool {
	return c >= math.MinInt64+half && c <= math.MaxInt64-half
}

// add returns a+b and false if the sum overflows.
func add(a, b int64) (int64, bool) {
	sum := a + b
	return sum, (sum > a) == (b > 0)
}

// distance returns a-b saturated to int64 range.
func distance(a, b int64) int64 {
	d := a - b
	if (a >= 0) != (b >= 0) && (d >= 0) != (a >= 0) {
		return math.MaxInt64
	}
	return d
}
