// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/katalvlaran/dagmatch/config"
	"github.com/katalvlaran/dagmatch/dag"
	"github.com/katalvlaran/dagmatch/match"
	"github.com/katalvlaran/dagmatch/similarity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// matchFlags are shared by the match and rank commands.
type matchFlags struct {
	config       string
	timeout      time.Duration
	scale        float64
	models       int
	strictLabels bool
}

func (f *matchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "options file (.toml, .yaml, .yml, .json)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "stop the search after this long and report the best solution so far")
	cmd.Flags().Float64Var(&f.scale, "scale", 1, "attribute distance at which node similarity drops to 1/2")
	cmd.Flags().IntVar(&f.models, "models", 2, "comparison models per node pair (1 = raw attributes, 2 = raw and scale free)")
	cmd.Flags().BoolVar(&f.strictLabels, "strict-labels", false, "treat differently labelled nodes as dissimilar")
}

// matcher builds a Matcher from the flags.
func (f *matchFlags) matcher(ctx context.Context, reg prometheus.Registerer) (*match.Matcher, error) {
	opts, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	meas := similarity.Attribute{Scale: f.scale, Models: f.models, StrictLabels: f.strictLabels}
	mopts := []match.MatcherOption{match.WithLogger(loggerFromContext(ctx))}
	if reg != nil {
		mopts = append(mopts, match.WithMetrics(match.NewMetrics(reg)))
	}
	return match.New(meas, opts, mopts...)
}

// runContext applies the --timeout flag.
func (f *matchFlags) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout > 0 {
		return context.WithTimeout(ctx, f.timeout)
	}
	return context.WithCancel(ctx)
}

// interrupted reports whether err only signals an early stop; the result
// then still carries the best solution found.
func interrupted(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func newMatchCmd() *cobra.Command {
	var (
		flags       matchFlags
		asJSON      bool
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "match <query> <model>",
		Short: "Match a query DAG against a model DAG",
		Long: `Match reads two graph documents (YAML or JSON), finds a node correspondence
and prints the normalized similarity with the committed node pairs.`,
		Example: `  dagmatch match hand.yaml paw.yaml
  dagmatch match hand.yaml paw.yaml --config match.toml --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			q, err := dag.ReadFile(args[0])
			if err != nil {
				return err
			}
			g, err := dag.ReadFile(args[1])
			if err != nil {
				return err
			}

			var reg *prometheus.Registry
			if showMetrics {
				reg = prometheus.NewRegistry()
			}
			m, err := flags.matcher(ctx, registerer(reg))
			if err != nil {
				return err
			}

			runCtx, cancel := flags.runContext(ctx)
			defer cancel()
			prog := newProgress(logger)
			res, err := m.Match(runCtx, q, g)
			if err != nil && !interrupted(err) {
				return err
			}
			if err != nil {
				logger.Warn("search stopped early", "reason", err)
			}
			prog.done(fmt.Sprintf("Matched %s against %s", q.Name(), g.Name()))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				printResult(out, q.Name(), g.Name(), res)
			}
			if reg != nil {
				return writeMetrics(out, reg)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print the run's Prometheus metrics after the result")

	return cmd
}

// registerer avoids handing a typed nil registry to the matcher.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}

// writeMetrics prints every gathered family in the text exposition format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
