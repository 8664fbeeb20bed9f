package hashlife

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/hashlife/rule"
	"github.com/outofforest/hashlife/test"
	"github.com/outofforest/hashlife/types"
	"github.com/outofforest/parallel"
)

func algorithms(requireT *require.Assertions, config Config) map[string]Algorithm {
	algs := map[string]Algorithm{}
	for _, name := range []string{HashLifeAlgorithm, NaiveAlgorithm} {
		a, err := NewAlgorithm(name, config)
		requireT.NoError(err)
		algs[name] = a
	}
	return algs
}

func TestNewAlgorithm(t *testing.T) {
	requireT := require.New(t)

	_, err := NewAlgorithm("quantum", Config{})
	requireT.True(errors.Is(err, types.ErrInvalidArgument))

	_, err = NewAlgorithm(HashLifeAlgorithm, Config{Rule: rule.Rule{Birth: 1}})
	requireT.True(errors.Is(err, types.ErrInvalidArgument))

	_, err = NewAlgorithm(NaiveAlgorithm, Config{Rule: rule.Rule{Birth: 1}})
	requireT.True(errors.Is(err, types.ErrInvalidArgument))
}

func TestInvalidArguments(t *testing.T) {
	requireT := require.New(t)

	for name, a := range algorithms(requireT, Config{}) {
		_, err := a.ComputeGenerations(context.Background(), NewFlatState(test.Glider()...), -1)
		requireT.True(errors.Is(err, types.ErrInvalidArgument), name)

		_, err = a.ComputeGenerationsWithStep(context.Background(), NewFlatState(test.Glider()...), 0)
		requireT.True(errors.Is(err, types.ErrInvalidArgument), name)

		_, err = a.ComputeGenerationsWithStep(context.Background(), NewFlatState(test.Glider()...), -5)
		requireT.True(errors.Is(err, types.ErrInvalidArgument), name)
	}
}

func TestZeroGenerations(t *testing.T) {
	requireT := require.New(t)

	for name, a := range algorithms(requireT, Config{}) {
		for patternName, cells := range patterns() {
			s := NewFlatState(cells...)
			result, err := a.ComputeGenerations(context.Background(), s, 0)
			requireT.NoError(err)
			requireT.True(Equal(s, result), "%s %s", name, patternName)
		}
	}
}

func TestGlider(t *testing.T) {
	requireT := require.New(t)

	expected := NewFlatState(test.Offset(test.Glider(), -1, -1)...)

	for name, a := range algorithms(requireT, Config{}) {
		result, err := a.ComputeGenerations(context.Background(), NewFlatState(test.Glider()...), 4)
		requireT.NoError(err)
		requireT.True(Equal(expected, result), name)
		requireT.True(EqualModuloOffset(NewFlatState(test.Glider()...), result), name)

		result, err = a.ComputeGenerations(context.Background(), NewFlatState(test.Glider()...), 400)
		requireT.NoError(err)
		requireT.True(Equal(expected.Offset(-99, -99), result), name)
	}
}

func TestEmptyStaysEmpty(t *testing.T) {
	requireT := require.New(t)

	for name, a := range algorithms(requireT, Config{}) {
		for _, generations := range []int64{1, 2, 3, 1000} {
			result, err := a.ComputeGenerations(context.Background(), EmptyCellState(), generations)
			requireT.NoError(err)
			requireT.Zero(result.Population(), name)
			requireT.Equal(types.Window{}, result.BoundingBox(), name)
		}
	}
}

func TestHashLifeMatchesNaive(t *testing.T) {
	requireT := require.New(t)

	hashLife, err := NewHashLife(Config{})
	requireT.NoError(err)
	naive, err := NewNaive(Config{})
	requireT.NoError(err)

	ctx := context.Background()
	for name, cells := range patterns() {
		expected := CellState(NewFlatState(cells...))
		for generations := range int64(200) {
			result, err := hashLife.ComputeGenerations(ctx, NewFlatState(cells...), generations)
			requireT.NoError(err)
			requireT.True(Equal(expected, result), "%s generation %d", name, generations)

			expected, err = naive.ComputeGenerations(ctx, expected, 1)
			requireT.NoError(err)
		}
	}
}

func TestHashLifeMatchesNaiveOnRandomSoups(t *testing.T) {
	requireT := require.New(t)
	ctx := context.Background()

	algs := algorithms(requireT, Config{})
	r := rand.New(rand.NewSource(1))
	for i := range 10 {
		cells := []types.Cell{}
		for y := range int64(12) {
			for x := range int64(12) {
				if r.Intn(2) == 0 {
					cells = append(cells, types.Cell{X: x + int64(i)*13, Y: y - int64(i)*7})
				}
			}
		}

		for _, generations := range []int64{1, 7, 31, 32, 33, 100, 257} {
			expected, err := algs[NaiveAlgorithm].ComputeGenerations(ctx, NewFlatState(cells...), generations)
			requireT.NoError(err)
			result, err := algs[HashLifeAlgorithm].ComputeGenerations(ctx, NewFlatState(cells...), generations)
			requireT.NoError(err)
			requireT.True(Equal(expected, result), "soup %d generation %d", i, generations)
		}
	}
}

func TestOtherRule(t *testing.T) {
	requireT := require.New(t)
	ctx := context.Background()

	// Replicator of HighLife.
	replicator := test.ParseRows("..OOO", ".O..O", "O...O", "O..O.", "OOO..")
	algs := algorithms(requireT, Config{Rule: rule.MustParse("B36/S23")})
	for _, generations := range []int64{12, 48, 96} {
		expected, err := algs[NaiveAlgorithm].ComputeGenerations(ctx, NewFlatState(replicator...), generations)
		requireT.NoError(err)
		result, err := algs[HashLifeAlgorithm].ComputeGenerations(ctx, NewFlatState(replicator...), generations)
		requireT.NoError(err)
		requireT.True(Equal(expected, result), "generation %d", generations)
	}
}

func TestComposability(t *testing.T) {
	requireT := require.New(t)
	ctx := context.Background()

	start := NewFlatState(test.GosperGun()...)
	for name, a := range algorithms(requireT, Config{}) {
		for _, ab := range [][2]int64{{0, 5}, {5, 0}, {13, 17}, {64, 64}, {1, 99}} {
			s1, err := a.ComputeGenerations(ctx, start, ab[0]+ab[1])
			requireT.NoError(err)
			s2, err := a.ComputeGenerations(ctx, start, ab[0])
			requireT.NoError(err)
			s2, err = a.ComputeGenerations(ctx, s2, ab[1])
			requireT.NoError(err)
			requireT.True(Equal(s1, s2), "%s %v", name, ab)
		}
	}
}

func TestGosperGunPopulation(t *testing.T) {
	requireT := require.New(t)

	a, err := NewHashLife(Config{})
	requireT.NoError(err)

	// Gun emits one glider each 30 generations.
	start := NewFlatState(test.GosperGun()...)
	s, err := a.ComputeGenerations(context.Background(), start, 30*1000)
	requireT.NoError(err)
	s2, err := a.ComputeGenerations(context.Background(), start, 30*1001)
	requireT.NoError(err)
	requireT.EqualValues(5, s2.Population()-s.Population())
}

func TestLargeJump(t *testing.T) {
	requireT := require.New(t)

	a, err := NewHashLife(Config{})
	requireT.NoError(err)

	generations := int64(1) << 40
	result, err := a.ComputeGenerations(context.Background(), NewFlatState(test.Glider()...), generations)
	requireT.NoError(err)

	shift := generations / 4
	expected := NewFlatState(test.Offset(test.Glider(), -shift, -shift)...)
	requireT.True(Equal(expected, result))
}

func TestGenerationsWithStep(t *testing.T) {
	requireT := require.New(t)
	ctx := context.Background()

	start := NewFlatState(test.GosperGun()...)
	for name, a := range algorithms(requireT, Config{}) {
		seq, err := a.ComputeGenerationsWithStep(ctx, start, 7)
		requireT.NoError(err)

		// Sequence is restartable, every range starts from the initial state.
		for range 2 {
			var i int64
			for s, err := range seq {
				requireT.NoError(err)
				i++

				expected, err := a.ComputeGenerations(ctx, start, 7*i)
				requireT.NoError(err)
				requireT.True(Equal(expected, s), "%s element %d", name, i)

				if i == 10 {
					break
				}
			}
			requireT.EqualValues(10, i)
		}
	}
}

func TestGenerationsWithStepCancelled(t *testing.T) {
	requireT := require.New(t)

	for name, a := range algorithms(requireT, Config{}) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		seq, err := a.ComputeGenerationsWithStep(ctx, NewFlatState(test.GosperGun()...), 1)
		requireT.NoError(err)

		var received int
		var lastErr error
		for s, err := range seq {
			if err != nil {
				lastErr = err
				requireT.Nil(s)
				continue
			}
			received++
			if received == 3 {
				cancel()
			}
			// Sequence must end after cancellation, cancellation is checked at least each generation by naive
			// algorithm and each time a new node is solved by the memoized one.
			requireT.Less(received, 10000, name)
		}
		requireT.True(errors.Is(lastErr, context.Canceled), name)
	}
}

func TestMaxNodes(t *testing.T) {
	requireT := require.New(t)
	ctx := test.NewContext(t)

	a, err := NewHashLife(Config{MaxNodes: 300})
	requireT.NoError(err)
	naive, err := NewNaive(Config{})
	requireT.NoError(err)

	epoch := a.Universe().Epoch()

	start := NewFlatState(test.GosperGun()...)
	seq, err := a.ComputeGenerationsWithStep(ctx, start, 50)
	requireT.NoError(err)
	expected := CellState(start)
	var i int
	for s, err := range seq {
		requireT.NoError(err)
		expected, err = naive.ComputeGenerations(ctx, expected, 50)
		requireT.NoError(err)
		requireT.True(Equal(expected, s))

		i++
		if i == 10 {
			break
		}
	}
	requireT.NotEqual(epoch, a.Universe().Epoch())
}

func TestMaxNodesWithoutLogger(t *testing.T) {
	requireT := require.New(t)
	ctx := context.Background()

	a, err := NewHashLife(Config{MaxNodes: 10})
	requireT.NoError(err)
	naive, err := NewNaive(Config{})
	requireT.NoError(err)

	epoch := a.Universe().Epoch()

	start := NewFlatState(test.GosperGun()...)
	result, err := a.ComputeGenerations(ctx, start, 100)
	requireT.NoError(err)
	expected, err := naive.ComputeGenerations(ctx, start, 100)
	requireT.NoError(err)
	requireT.True(Equal(expected, result))
	requireT.NotEqual(epoch, a.Universe().Epoch())
}

func TestIndependentAlgorithmsInParallel(t *testing.T) {
	requireT := require.New(t)
	ctx := test.NewContext(t)

	naive, err := NewNaive(Config{})
	requireT.NoError(err)
	start := NewFlatState(test.GosperGun()...)
	expected, err := naive.ComputeGenerations(ctx, start, 300)
	requireT.NoError(err)

	results := make([]CellState, 4)
	requireT.NoError(parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		for i := range results {
			spawn(fmt.Sprintf("hashlife-%02d", i), parallel.Continue, func(ctx context.Context) error {
				a, err := NewHashLife(Config{})
				if err != nil {
					return err
				}
				results[i], err = a.ComputeGenerations(ctx, start, 300)
				return err
			})
		}
		return nil
	}))

	for _, r := range results {
		requireT.True(Equal(expected, r))
	}
}

func BenchmarkHashLifeGosperGun(b *testing.B) {
	start := NewFlatState(test.GosperGun()...)
	for range b.N {
		a, err := NewHashLife(Config{})
		require.NoError(b, err)
		if _, err := a.ComputeGenerations(context.Background(), start, 1<<20); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNaiveGosperGun(b *testing.B) {
	start := NewFlatState(test.GosperGun()...)
	a, err := NewNaive(Config{})
	require.NoError(b, err)

	b.ResetTimer()
	for range b.N {
		if _, err := a.ComputeGenerations(context.Background(), start, 1000); err != nil {
			b.Fatal(err)
		}
	}
}
