package hashlife

import (
	"context"
	"iter"

	"github.com/pkg/errors"

	"github.com/outofforest/hashlife/rule"
	"github.com/outofforest/hashlife/types"
)

var _ Algorithm = &Naive{}

// NewNaive creates the algorithm evaluating the rule generation by generation.
func NewNaive(config Config) (*Naive, error) {
	r := config.rule()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &Naive{
		rule: r,
	}, nil
}

// Naive counts neighbours of every alive cell in each generation. Its cost is linear in population
// and number of generations.
type Naive struct {
	rule rule.Rule
}

// ComputeGenerations returns the state advanced by given number of generations.
func (n *Naive) ComputeGenerations(ctx context.Context, state CellState, generations int64) (CellState, error) {
	if err := validateGenerations(generations); err != nil {
		return nil, err
	}
	if generations == 0 {
		return state, nil
	}

	cells := ToFlat(state).cells
	for range generations {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		cells = n.next(cells)
	}

	s := FlatState{cells: cells}
	for c := range cells {
		s.bounds = s.bounds.Extend(c)
	}
	return s, nil
}

// ComputeGenerationsWithStep returns the lazy sequence of states separated by step generations.
func (n *Naive) ComputeGenerationsWithStep(
	ctx context.Context,
	state CellState,
	step int64,
) (iter.Seq2[CellState, error], error) {
	return generationsWithStep(ctx, n, state, step)
}

func (n *Naive) next(cells map[types.Cell]struct{}) map[types.Cell]struct{} {
	counts := make(map[types.Cell]int, 4*len(cells))
	for c := range cells {
		// Alive cell without neighbours still has to be evaluated, S0 rules keep it alive.
		if _, exists := counts[c]; !exists {
			counts[c] = 0
		}
		for dy := int64(-1); dy <= 1; dy++ {
			for dx := int64(-1); dx <= 1; dx++ {
				if dx != 0 || dy != 0 {
					counts[c.Offset(dx, dy)]++
				}
			}
		}
	}

	next := make(map[types.Cell]struct{}, len(cells))
	for c, count := range counts {
		_, alive := cells[c]
		if n.rule.Next(alive, count) {
			next[c] = struct{}{}
		}
	}
	return next
}
