package hashlife

import (
	"context"
	"iter"

	"github.com/pkg/errors"

	"github.com/outofforest/hashlife/rule"
	"github.com/outofforest/hashlife/types"
)

// Algorithm names accepted by NewAlgorithm.
const (
	HashLifeAlgorithm = "hashlife"
	NaiveAlgorithm    = "naive"
)

// Algorithm computes future generations of the state.
type Algorithm interface {
	// ComputeGenerations returns the state advanced by given number of generations.
	ComputeGenerations(ctx context.Context, state CellState, generations int64) (CellState, error)

	// ComputeGenerationsWithStep returns the infinite sequence of states, each advanced by step generations
	// from the previous one. The first element is the state advanced by step. States are computed when pulled.
	ComputeGenerationsWithStep(ctx context.Context, state CellState, step int64) (iter.Seq2[CellState, error], error)
}

// Config stores algorithm configuration.
type Config struct {
	// Rule is the rule of automaton. Zero value means Conway's B3/S23.
	Rule rule.Rule

	// MaxNodes is the number of canonical nodes above which memoized algorithm compacts its universe.
	// Zero disables compaction. When set, context passed to algorithm must carry the logger.
	MaxNodes uint64
}

// NewAlgorithm creates algorithm selected by name.
func NewAlgorithm(name string, config Config) (Algorithm, error) {
	switch name {
	case HashLifeAlgorithm:
		return NewHashLife(config)
	case NaiveAlgorithm:
		return NewNaive(config)
	default:
		return nil, errors.Wrapf(types.ErrInvalidArgument, "unknown algorithm %q", name)
	}
}

func (c Config) rule() rule.Rule {
	if c.Rule == (rule.Rule{}) {
		return rule.Conway
	}
	return c.Rule
}

func validateGenerations(generations int64) error {
	if generations < 0 {
		return errors.Wrapf(types.ErrInvalidArgument, "negative number of generations %d", generations)
	}
	return nil
}

// generationsWithStep builds the lazy sequence on top of ComputeGenerations.
func generationsWithStep(
	ctx context.Context,
	a Algorithm,
	state CellState,
	step int64,
) (iter.Seq2[CellState, error], error) {
	if step <= 0 {
		return nil, errors.Wrapf(types.ErrInvalidArgument, "step %d must be positive", step)
	}

	return func(yield func(CellState, error) bool) {
		current := state
		for {
			next, err := a.ComputeGenerations(ctx, current, step)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(next, nil) {
				return
			}
			current = next
		}
	}, nil
}
