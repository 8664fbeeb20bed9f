package test

import (
	"iter"
	"math/rand"
	"slices"

	"github.com/samber/lo"

	"github.com/outofforest/hashlife/rule"
	"github.com/outofforest/hashlife/types"
)

var gosperGun = []string{
	"........................O...........",
	"......................O.O...........",
	"............OO......OO............OO",
	"...........O...O....OO............OO",
	"OO........O.....O...OO..............",
	"OO........O...O.OO....O.O...........",
	"..........O.....O.......O...........",
	"...........O...O....................",
	"............OO......................",
}

// Glider returns the glider moving by (-1, -1) every 4 generations.
func Glider() []types.Cell {
	return []types.Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 2}}
}

// GosperGun returns the Gosper glider gun emitting glider every 30 generations.
func GosperGun() []types.Cell {
	return ParseRows(gosperGun...)
}

// ParseRows returns cells marked by 'O' in rows, the first one is y = 0.
func ParseRows(rows ...string) []types.Cell {
	cells := []types.Cell{}
	for y, row := range rows {
		for x, ch := range row {
			if ch == 'O' {
				cells = append(cells, types.Cell{X: int64(x), Y: int64(y)})
			}
		}
	}
	return cells
}

// RandomCells returns cells of the square of given size centered at (0, 0), each alive with given probability.
func RandomCells(r *rand.Rand, size int64, density float64) []types.Cell {
	cells := []types.Cell{}
	for y := range size {
		for x := range size {
			if r.Float64() < density {
				cells = append(cells, types.Cell{X: x - size/2, Y: y - size/2})
			}
		}
	}
	return cells
}

// Offset translates cells by (dx, dy).
func Offset(cells []types.Cell, dx, dy int64) []types.Cell {
	return lo.Map(cells, func(c types.Cell, _ int) types.Cell {
		return c.Offset(dx, dy)
	})
}

// SortCells returns sorted copy of cells.
func SortCells(cells []types.Cell) []types.Cell {
	cells = slices.Clone(cells)
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

// CollectCells collects cells produced by the sequence.
func CollectCells(seq iter.Seq[types.Cell]) []types.Cell {
	return SortCells(slices.Collect(seq))
}

// BruteForce advances cells by given number of generations of Conway's rule on unbounded plane.
func BruteForce(cells []types.Cell, generations int) []types.Cell {
	alive := map[types.Cell]struct{}{}
	for _, c := range cells {
		alive[c] = struct{}{}
	}
	for range generations {
		counts := map[types.Cell]int{}
		for c := range alive {
			for dy := int64(-1); dy <= 1; dy++ {
				for dx := int64(-1); dx <= 1; dx++ {
					if dx != 0 || dy != 0 {
						counts[c.Offset(dx, dy)]++
					}
				}
			}
		}
		next := map[types.Cell]struct{}{}
		for c, count := range counts {
			_, isAlive := alive[c]
			if rule.Conway.Next(isAlive, count) {
				next[c] = struct{}{}
			}
		}
		alive = next
	}
	return SortCells(lo.Keys(alive))
}
