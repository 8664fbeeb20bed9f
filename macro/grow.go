package macro

import (
	"github.com/pkg/errors"

	"github.com/outofforest/hashlife/types"
)

// MinRootLevel is the smallest level Shrink reduces the tree to.
const MinRootLevel = 3

// Expand returns the node one level higher having n as its center and empty border around.
func (u *Universe) Expand(n *Node) (*Node, error) {
	if n.level == 0 || n.level >= types.MaxLevel {
		return nil, errors.Wrapf(types.ErrInvariant, "node of level %d can't be expanded", n.level)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	return u.expand(u.adopt(n)), nil
}

// Center returns the node one level lower covering the center of n.
func (u *Universe) Center(n *Node) (*Node, error) {
	if n.level < 2 {
		return nil, errors.Wrapf(types.ErrInvariant, "node of level %d has no center", n.level)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	return u.center(u.adopt(n)), nil
}

// Shrink removes empty borders as long as the pattern stays in the center and level is above MinRootLevel.
// The center of the returned node matches the center of n.
func (u *Universe) Shrink(n *Node) *Node {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.shrink(u.adopt(n))
}

// PrepareStep expands the node so advancing it by 2^exp generations can't push any alive cell
// outside its center.
func (u *Universe) PrepareStep(n *Node, exp uint8) (*Node, error) {
	if exp > types.MaxLevel-3 {
		return nil, errors.Wrapf(types.ErrInvalidArgument, "step 2^%d is too large", exp)
	}
	if n.level == 0 {
		return nil, errors.Wrap(types.ErrInvariant, "leaf can't be stepped")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	return u.prepareStep(u.adopt(n), exp)
}

func (u *Universe) prepareStep(n *Node, exp uint8) (*Node, error) {
	for n.level < exp+3 || !u.innerQuarter(n) {
		if n.level >= types.MaxLevel {
			return nil, errors.Wrapf(types.ErrOutOfBounds, "pattern exceeds the largest tree of level %d",
				types.MaxLevel)
		}
		n = u.expand(n)
	}
	return n, nil
}

func (u *Universe) expand(n *Node) *Node {
	e := u.empty(n.level - 1)
	return u.join(
		u.join(e, e, e, n.nw),
		u.join(e, e, n.ne, e),
		u.join(e, n.sw, e, e),
		u.join(n.se, e, e, e),
	)
}

func (u *Universe) center(n *Node) *Node {
	return u.join(n.nw.se, n.ne.sw, n.sw.ne, n.se.nw)
}

func (u *Universe) shrink(n *Node) *Node {
	for n.level > MinRootLevel && hasBorder(n) {
		n = u.center(n)
	}
	return n
}

// innerQuarter checks that all alive cells lie in the central square of side 1/4 of the node.
func (u *Universe) innerQuarter(n *Node) bool {
	return n.level >= 3 && hasBorder(n) && hasBorder(u.center(n))
}

// hasBorder checks that all alive cells lie in the central square of side 1/2 of the node.
func hasBorder(n *Node) bool {
	if n.level < 2 {
		return false
	}
	return n.nw.nw.population == 0 && n.nw.ne.population == 0 && n.nw.sw.population == 0 &&
		n.ne.nw.population == 0 && n.ne.ne.population == 0 && n.ne.se.population == 0 &&
		n.sw.nw.population == 0 && n.sw.sw.population == 0 && n.sw.se.population == 0 &&
		n.se.ne.population == 0 && n.se.sw.population == 0 && n.se.se.population == 0
}
