package macro

import (
	"context"

	"github.com/pkg/errors"

	"github.com/outofforest/hashlife/types"
)

// cancelCheckPeriod is the number of recursive calls between checks of context cancellation.
const cancelCheckPeriod = 1 << 10

type memoKey struct {
	node *Node
	exp  uint8
}

// Step advances the pattern by given number of generations. Center of the returned node matches
// the center of n.
func (u *Universe) Step(ctx context.Context, n *Node, generations uint64) (*Node, error) {
	if n.level == 0 {
		return nil, errors.Wrap(types.ErrInvariant, "leaf can't be stepped")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	n = u.adopt(n)
	for exp := uint8(0); generations > 0; exp, generations = exp+1, generations>>1 {
		if generations&1 == 0 {
			continue
		}

		var err error
		if n, err = u.prepareStep(n, exp); err != nil {
			return nil, err
		}
		if n, err = u.advance(ctx, n, exp); err != nil {
			return nil, err
		}
		n = u.shrink(n)
	}

	if u.config.MaxNodes > 0 && u.table.count > u.config.MaxNodes {
		n = u.compact(ctx, []*Node{n})[0]
	}
	return n, nil
}

// Advance returns the center of n advanced by 2^exp generations. Exp must be in [0, level-2].
func (u *Universe) Advance(ctx context.Context, n *Node, exp uint8) (*Node, error) {
	if n.level < 2 || exp > n.level-2 {
		return nil, errors.Wrapf(types.ErrInvalidArgument, "node of level %d can't be advanced by 2^%d generations",
			n.level, exp)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	return u.advance(ctx, u.adopt(n), exp)
}

func (u *Universe) advance(ctx context.Context, n *Node, exp uint8) (*Node, error) {
	if n.population == 0 {
		return u.empty(n.level - 1), nil
	}

	full := exp == n.level-2
	if full && n.result != nil {
		return n.result, nil
	}
	if !full {
		if r, exists := u.memo[memoKey{node: n, exp: exp}]; exists {
			return r, nil
		}
	}

	u.calls++
	if u.calls%cancelCheckPeriod == 0 {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	var r *Node
	if n.level == 2 {
		r = u.solveBase(n)
	} else {
		var err error
		if r, err = u.solve(ctx, n, exp, full); err != nil {
			return nil, err
		}
	}

	if full {
		n.result = r
	} else {
		u.memo[memoKey{node: n, exp: exp}] = r
	}
	return r, nil
}

// solve computes the result using nine overlapping subsquares of level-1. In the first pass they are advanced
// by 2^(level-3) generations for the full step or just centered for the shorter one. Results are combined
// into four nodes of level-1 which are advanced in the second pass.
func (u *Universe) solve(ctx context.Context, n *Node, exp uint8, full bool) (*Node, error) {
	nw, ne, sw, se := n.nw, n.ne, n.sw, n.se
	subsquares := [9]*Node{
		nw, u.join(nw.ne, ne.nw, nw.se, ne.sw), ne,
		u.join(nw.sw, nw.se, sw.nw, sw.ne), u.join(nw.se, ne.sw, sw.ne, se.nw), u.join(ne.sw, ne.se, se.nw, se.ne),
		sw, u.join(sw.ne, se.nw, sw.se, se.sw), se,
	}

	secondExp := exp
	var p [9]*Node
	for i, s := range subsquares {
		if !full {
			p[i] = u.center(s)
			continue
		}

		var err error
		if p[i], err = u.advance(ctx, s, exp-1); err != nil {
			return nil, err
		}
	}
	if full {
		secondExp = exp - 1
	}

	quadrants := [4]*Node{
		u.join(p[0], p[1], p[3], p[4]),
		u.join(p[1], p[2], p[4], p[5]),
		u.join(p[3], p[4], p[6], p[7]),
		u.join(p[4], p[5], p[7], p[8]),
	}
	for i, q := range quadrants {
		var err error
		if quadrants[i], err = u.advance(ctx, q, secondExp); err != nil {
			return nil, err
		}
	}

	return u.join(quadrants[0], quadrants[1], quadrants[2], quadrants[3]), nil
}

// solveBase advances the center 2x2 square of the 4x4 node by one generation.
func (u *Universe) solveBase(n *Node) *Node {
	var grid [4][4]bool
	for y := range int64(4) {
		for x := range int64(4) {
			grid[y][x] = n.Contains(x, y)
		}
	}

	var cells [4]*Node
	for i := range 4 {
		x, y := 1+i%2, 1+i/2
		var neighbours int
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if (dx != 0 || dy != 0) && grid[y+dy][x+dx] {
					neighbours++
				}
			}
		}
		cells[i] = Leaf(u.config.Rule.Next(grid[y][x], neighbours))
	}
	return u.join(cells[0], cells[1], cells[2], cells[3])
}
