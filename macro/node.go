package macro

import (
	"math"

	"github.com/outofforest/hashlife/types"
)

// Leaves are shared by all universes.
var (
	deadLeaf  = &Node{id: 1}
	aliveLeaf = &Node{id: 2, alive: true, population: 1}
)

const firstInteriorID = 3

// Node is the square of side 2^level. Level 0 nodes are leaves representing single cell,
// all the other nodes consist of four quadrants of level-1.
// Nodes are immutable and canonical within their epoch, so pointer equality is structural equality.
type Node struct {
	id         uint64
	hash       uint64
	epoch      uint64
	population uint64

	nw, ne, sw, se *Node

	// result is the center of the node advanced by 2^(level-2) generations.
	result *Node

	level uint8
	alive bool
}

// Leaf returns the leaf representing dead or alive cell.
func Leaf(alive bool) *Node {
	if alive {
		return aliveLeaf
	}
	return deadLeaf
}

// Level returns the level of the node.
func (n *Node) Level() uint8 {
	return n.level
}

// Side returns the length of the side of the square covered by the node.
func (n *Node) Side() int64 {
	return int64(1) << n.level
}

// Alive returns true if node is an alive leaf.
func (n *Node) Alive() bool {
	return n.alive
}

// Leaf returns true if node is a leaf.
func (n *Node) Leaf() bool {
	return n.level == 0
}

// Empty returns true if there are no alive cells in the node.
func (n *Node) Empty() bool {
	return n.population == 0
}

// Population returns the number of alive cells. It saturates at math.MaxUint64.
func (n *Node) Population() uint64 {
	return n.population
}

// Children returns quadrants of the node. Leaves return nils.
func (n *Node) Children() (nw, ne, sw, se *Node) {
	return n.nw, n.ne, n.sw, n.se
}

// Contains returns true if the cell at (x, y), relative to the north-west corner, is alive.
// Cells outside the node are reported as dead.
func (n *Node) Contains(x, y int64) bool {
	side := n.Side()
	if x < 0 || y < 0 || x >= side || y >= side {
		return false
	}
	for n.level > 0 {
		if n.population == 0 {
			return false
		}
		half := int64(1) << (n.level - 1)
		n = n.quadrant(x >= half, y >= half)
		x &= half - 1
		y &= half - 1
	}
	return n.alive
}

// Cells yields alive cells of the node, placed with its north-west corner at (x0, y0), intersecting the window.
// It returns false if yield requested to stop.
func (n *Node) Cells(x0, y0 int64, window types.Window, yield func(types.Cell) bool) bool {
	if n.population == 0 {
		return true
	}
	side := n.Side()
	if !window.Intersects(types.Window{Left: x0, Top: y0, Right: x0 + side, Bottom: y0 + side}) {
		return true
	}
	if n.level == 0 {
		return yield(types.Cell{X: x0, Y: y0})
	}

	half := side / 2
	return n.nw.Cells(x0, y0, window, yield) &&
		n.ne.Cells(x0+half, y0, window, yield) &&
		n.sw.Cells(x0, y0+half, window, yield) &&
		n.se.Cells(x0+half, y0+half, window, yield)
}

// Bounds returns the bounding box of alive cells of the node placed with its north-west corner at (x0, y0).
func (n *Node) Bounds(x0, y0 int64) types.Window {
	if n.population == 0 {
		return types.Window{}
	}
	return types.Window{
		Left:   x0 + n.extent(false, true),
		Top:    y0 + n.extent(true, true),
		Right:  x0 + n.extent(false, false) + 1,
		Bottom: y0 + n.extent(true, false) + 1,
	}
}

// extent finds the extreme alive coordinate along the axis. Only quadrants touching the extreme row
// or column are visited, so the cost is proportional to the boundary, not to the population.
func (n *Node) extent(vertical, low bool) int64 {
	if n.level == 0 {
		return 0
	}

	half := n.Side() / 2
	first, second := [2]*Node{n.nw, n.ne}, [2]*Node{n.sw, n.se}
	if !vertical {
		first, second = [2]*Node{n.nw, n.sw}, [2]*Node{n.ne, n.se}
	}
	firstOffset, secondOffset := int64(0), half
	if !low {
		first, second = second, first
		firstOffset, secondOffset = secondOffset, firstOffset
	}

	for _, side := range []struct {
		nodes  [2]*Node
		offset int64
	}{{nodes: first, offset: firstOffset}, {nodes: second, offset: secondOffset}} {
		var found bool
		var best int64
		for _, c := range side.nodes {
			if c.population == 0 {
				continue
			}
			v := c.extent(vertical, low) + side.offset
			if !found || (low && v < best) || (!low && v > best) {
				best = v
			}
			found = true
		}
		if found {
			return best
		}
	}
	return 0
}

func (n *Node) quadrant(east, south bool) *Node {
	switch {
	case !east && !south:
		return n.nw
	case east && !south:
		return n.ne
	case !east:
		return n.sw
	default:
		return n.se
	}
}

func addPopulation(populations ...uint64) uint64 {
	var sum uint64
	for _, p := range populations {
		if sum > math.MaxUint64-p {
			return math.MaxUint64
		}
		sum += p
	}
	return sum
}
