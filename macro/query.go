package macro

import (
	"github.com/pkg/errors"

	"github.com/outofforest/hashlife/types"
)

// SetCell returns the node with the cell at (x, y), relative to the north-west corner, set to alive or dead.
// Only the path from the root to the leaf is rebuilt, the rest of the tree is shared.
func (u *Universe) SetCell(n *Node, x, y int64, alive bool) (*Node, error) {
	side := n.Side()
	if x < 0 || y < 0 || x >= side || y >= side {
		return nil, errors.Wrapf(types.ErrOutOfBounds, "cell (%d, %d) is outside node of side %d", x, y, side)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	return u.setCell(u.adopt(n), x, y, alive), nil
}

func (u *Universe) setCell(n *Node, x, y int64, alive bool) *Node {
	if n.level == 0 {
		return Leaf(alive)
	}
	if n.Contains(x, y) == alive {
		return n
	}

	half := int64(1) << (n.level - 1)
	east, south := x >= half, y >= half
	x &= half - 1
	y &= half - 1

	nw, ne, sw, se := n.nw, n.ne, n.sw, n.se
	switch {
	case !east && !south:
		nw = u.setCell(nw, x, y, alive)
	case east && !south:
		ne = u.setCell(ne, x, y, alive)
	case !east:
		sw = u.setCell(sw, x, y, alive)
	default:
		se = u.setCell(se, x, y, alive)
	}
	return u.join(nw, ne, sw, se)
}

// Build builds the node of given level with alive cells placed relative to the north-west corner at (x0, y0).
func (u *Universe) Build(level uint8, x0, y0 int64, cells []types.Cell) (*Node, error) {
	if level > types.MaxLevel {
		return nil, errors.Wrapf(types.ErrInvalidArgument, "level %d exceeds maximum %d", level, types.MaxLevel)
	}
	side := int64(1) << level
	window := types.Window{Left: x0, Top: y0, Right: x0 + side, Bottom: y0 + side}
	for _, c := range cells {
		if !window.Contains(c) {
			return nil, errors.Wrapf(types.ErrOutOfBounds, "cell (%d, %d) is outside %+v", c.X, c.Y, window)
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	return u.build(level, x0, y0, cells), nil
}

func (u *Universe) build(level uint8, x0, y0 int64, cells []types.Cell) *Node {
	if len(cells) == 0 {
		return u.empty(level)
	}
	if level == 0 {
		return aliveLeaf
	}

	half := int64(1) << (level - 1)
	var quadrants [4][]types.Cell
	for _, c := range cells {
		var q int
		if c.X >= x0+half {
			q |= 1
		}
		if c.Y >= y0+half {
			q |= 2
		}
		quadrants[q] = append(quadrants[q], c)
	}

	return u.join(
		u.build(level-1, x0, y0, quadrants[0]),
		u.build(level-1, x0+half, y0, quadrants[1]),
		u.build(level-1, x0, y0+half, quadrants[2]),
		u.build(level-1, x0+half, y0+half, quadrants[3]),
	)
}

// Union returns the node containing cells alive in any of two nodes of the same level.
func (u *Universe) Union(a, b *Node) (*Node, error) {
	if a.level != b.level {
		return nil, errors.Wrapf(types.ErrInvariant, "union of nodes of levels %d and %d", a.level, b.level)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	return u.union(u.adopt(a), u.adopt(b)), nil
}

func (u *Universe) union(a, b *Node) *Node {
	switch {
	case a == b || b.population == 0:
		return a
	case a.population == 0:
		return b
	case a.level == 0:
		return aliveLeaf
	}
	return u.join(u.union(a.nw, b.nw), u.union(a.ne, b.ne), u.union(a.sw, b.sw), u.union(a.se, b.se))
}
