package hashlife

import (
	"context"
	"iter"

	"github.com/pkg/errors"

	"github.com/outofforest/hashlife/macro"
	"github.com/outofforest/hashlife/types"
)

var _ Algorithm = &HashLife{}

// NewHashLife creates the memoized algorithm owning its own universe.
func NewHashLife(config Config) (*HashLife, error) {
	u, err := macro.New(macro.Config{
		Rule:     config.rule(),
		MaxNodes: config.MaxNodes,
	})
	if err != nil {
		return nil, err
	}
	return &HashLife{
		universe: u,
	}, nil
}

// HashLife advances states using canonical quadtree and memoized results of its nodes.
// Requested number of generations is decomposed into powers of two, each advanced in a single recursive step.
type HashLife struct {
	universe *macro.Universe
}

// Universe returns the universe used by the algorithm.
func (h *HashLife) Universe() *macro.Universe {
	return h.universe
}

// ComputeGenerations returns the state advanced by given number of generations.
func (h *HashLife) ComputeGenerations(ctx context.Context, state CellState, generations int64) (CellState, error) {
	if err := validateGenerations(generations); err != nil {
		return nil, err
	}
	if generations == 0 {
		return state, nil
	}

	m, err := ToMacro(h.universe, state)
	if err != nil {
		return nil, err
	}
	if m.root, err = h.universe.Step(ctx, m.root, uint64(generations)); err != nil {
		return nil, err
	}
	if half := m.root.Side() / 2; !fits(m.cx, half) || !fits(m.cy, half) {
		return nil, errors.Wrapf(types.ErrOutOfBounds, "pattern advanced by %d generations exceeds coordinate space",
			generations)
	}
	return m, nil
}

// ComputeGenerationsWithStep returns the lazy sequence of states separated by step generations.
func (h *HashLife) ComputeGenerationsWithStep(
	ctx context.Context,
	state CellState,
	step int64,
) (iter.Seq2[CellState, error], error) {
	return generationsWithStep(ctx, h, state, step)
}
