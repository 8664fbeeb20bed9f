package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/outofforest/hashlife"
	"github.com/outofforest/hashlife/format"
	"github.com/outofforest/hashlife/rule"
	"github.com/outofforest/logger"
	"github.com/outofforest/parallel"
)

const stdio = "-"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hashlife",
		Short:         "Evolves Life-like cellular automata using memoized quadtrees",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newStepCommand(), newVerifyCommand(), newConvertCommand())
	return root
}

// ioFlags select the pattern files.
type ioFlags struct {
	in   string
	out  string
	from string
	to   string
}

func (f *ioFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.in, "in", "i", stdio, "input pattern file, - for stdin")
	flags.StringVarP(&f.out, "out", "o", stdio, "output pattern file, - for stdout")
	flags.StringVar(&f.from, "from", "", "input format, detected when empty")
	flags.StringVar(&f.to, "to", "", "output format, taken from the output file extension or rle when empty")
}

func (f *ioFlags) read() (format.Pattern, error) {
	from := format.Format(f.from)
	var r io.Reader = os.Stdin
	if f.in != stdio {
		file, err := os.Open(f.in)
		if err != nil {
			return format.Pattern{}, errors.WithStack(err)
		}
		defer file.Close()

		r = file
		if from == "" {
			from = format.ForPath(f.in)
		}
	}

	p, err := format.Read(r, from)
	return p, errors.WithMessagef(err, "reading %s", f.in)
}

func (f *ioFlags) write(p format.Pattern) error {
	to := format.Format(f.to)
	if to == "" && f.out != stdio {
		to = format.ForPath(f.out)
	}
	if to == "" {
		to = format.RLE
	}

	if f.out == stdio {
		return format.Write(os.Stdout, to, p)
	}

	file, err := os.Create(f.out)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := format.Write(file, to, p); err != nil {
		_ = file.Close()
		return errors.WithMessagef(err, "writing %s", f.out)
	}
	return errors.WithStack(file.Close())
}

// algorithmFlags are mapped to the algorithm configuration.
type algorithmFlags struct {
	algorithm   string
	rule        string
	maxNodes    uint64
	generations int64
}

func (f *algorithmFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.algorithm, "algorithm", "a", hashlife.HashLifeAlgorithm, "algorithm: hashlife or naive")
	flags.StringVarP(&f.rule, "rule", "r", "", "rule in B/S notation, taken from the pattern when empty")
	flags.Uint64Var(&f.maxNodes, "max-nodes", 0, "number of nodes above which memoized algorithm compacts its tables")
	flags.Int64VarP(&f.generations, "generations", "g", 1, "number of generations to compute")
}

func (f *algorithmFlags) config(p format.Pattern) (hashlife.Config, error) {
	config := hashlife.Config{
		Rule:     p.Rule,
		MaxNodes: f.maxNodes,
	}
	if f.rule != "" {
		r, err := rule.Parse(f.rule)
		if err != nil {
			return hashlife.Config{}, err
		}
		config.Rule = r
	}
	return config, nil
}

func newStepCommand() *cobra.Command {
	var files ioFlags
	var alg algorithmFlags
	var every int64

	cmd := &cobra.Command{
		Use:   "step",
		Short: "Computes future generation of the pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := files.read()
			if err != nil {
				return err
			}
			config, err := alg.config(p)
			if err != nil {
				return err
			}
			a, err := hashlife.NewAlgorithm(alg.algorithm, config)
			if err != nil {
				return err
			}

			if p.State, err = step(cmd.Context(), a, p.State, alg.generations, every); err != nil {
				return err
			}
			if config.Rule != (rule.Rule{}) {
				p.Rule = config.Rule
			}
			return files.write(p)
		},
	}
	files.register(cmd.Flags())
	alg.register(cmd.Flags())
	cmd.Flags().Int64Var(&every, "every", 0, "logs the state each given number of generations")
	return cmd
}

// step advances the state by generations, reporting intermediate states if every is positive.
func step(
	ctx context.Context,
	a hashlife.Algorithm,
	state hashlife.CellState,
	generations, every int64,
) (hashlife.CellState, error) {
	log := logger.Get(ctx)
	if every <= 0 || every > generations {
		return a.ComputeGenerations(ctx, state, generations)
	}

	seq, err := a.ComputeGenerationsWithStep(ctx, state, every)
	if err != nil {
		return nil, err
	}

	var done int64
	for s, err := range seq {
		if err != nil {
			return nil, err
		}
		done += every
		state = s

		log.Info("Generation computed",
			zap.Int64("generation", done),
			zap.Uint64("population", s.Population()),
			zap.Stringer("fingerprint", format.Fingerprint(s)))

		if generations-done < every {
			break
		}
	}
	return a.ComputeGenerations(ctx, state, generations-done)
}

func newVerifyCommand() *cobra.Command {
	var files ioFlags
	var alg algorithmFlags

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Computes the pattern by memoized and naive algorithms and compares the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := files.read()
			if err != nil {
				return err
			}
			config, err := alg.config(p)
			if err != nil {
				return err
			}

			fingerprint, err := verify(cmd.Context(), config, p.State, alg.generations)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(fingerprint.String() + "\n"))
			return errors.WithStack(err)
		},
	}
	files.register(cmd.Flags())
	alg.register(cmd.Flags())
	return cmd
}

// verify runs both algorithms concurrently and returns the fingerprint of the result they agree on.
func verify(
	ctx context.Context,
	config hashlife.Config,
	state hashlife.CellState,
	generations int64,
) (format.Digest, error) {
	names := []string{hashlife.HashLifeAlgorithm, hashlife.NaiveAlgorithm}
	results := make([]hashlife.CellState, len(names))

	err := parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		for i, name := range names {
			a, err := hashlife.NewAlgorithm(name, config)
			if err != nil {
				return err
			}
			spawn(name, parallel.Continue, func(ctx context.Context) error {
				start := time.Now()
				var err error
				if results[i], err = a.ComputeGenerations(ctx, state, generations); err != nil {
					return err
				}
				logger.Get(ctx).Info("Algorithm finished",
					zap.String("algorithm", name),
					zap.Duration("duration", time.Since(start)),
					zap.Uint64("population", results[i].Population()))
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return format.Digest{}, err
	}

	fingerprint := format.Fingerprint(results[0])
	if !hashlife.Equal(results[0], results[1]) || fingerprint != format.Fingerprint(results[1]) {
		return format.Digest{}, errors.Errorf("results differ after %d generations", generations)
	}
	return fingerprint, nil
}

func newConvertCommand() *cobra.Command {
	var files ioFlags

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Converts the pattern between file formats",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			p, err := files.read()
			if err != nil {
				return err
			}
			return files.write(p)
		},
	}
	files.register(cmd.Flags())
	return cmd
}
