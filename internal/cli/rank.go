// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/dagmatch/dag"
	"github.com/katalvlaran/dagmatch/match"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ranked is one model's outcome in a ranking.
type ranked struct {
	Model  string
	File   string
	Result match.Result
}

func newRankCmd() *cobra.Command {
	var (
		flags matchFlags
		jobs  int
		top   int
	)

	cmd := &cobra.Command{
		Use:     "rank <query> <model>...",
		Short:   "Rank model DAGs by similarity to a query",
		Example: `  dagmatch rank query.yaml models/*.yaml --jobs 8 --top 5`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobs < 1 {
				return fmt.Errorf("--jobs must be >= 1, got %d", jobs)
			}
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			q, err := dag.ReadFile(args[0])
			if err != nil {
				return err
			}
			m, err := flags.matcher(ctx, nil)
			if err != nil {
				return err
			}

			runCtx, cancel := flags.runContext(ctx)
			defer cancel()
			prog := newProgress(logger)

			files := args[1:]
			out := make([]ranked, len(files))
			eg, egCtx := errgroup.WithContext(runCtx)
			eg.SetLimit(jobs)
			for i, file := range files {
				i, file := i, file
				eg.Go(func() error {
					g, err := dag.ReadFile(file)
					if err != nil {
						return err
					}
					res, err := m.Match(egCtx, q, g)
					if err != nil && !interrupted(err) {
						return fmt.Errorf("%s: %w", file, err)
					}
					logger.Debug("model scored", "model", g.Name(), "similarity", res.Similarity, "status", res.Status)
					out[i] = ranked{Model: g.Name(), File: file, Result: res}
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			sort.SliceStable(out, func(i, j int) bool {
				return out[i].Result.Similarity > out[j].Result.Similarity
			})
			if top > 0 && top < len(out) {
				out = out[:top]
			}
			prog.done(fmt.Sprintf("Ranked %d models against %s", len(files), q.Name()))
			printRanking(cmd.OutOrStdout(), q.Name(), out)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "models matched concurrently")
	cmd.Flags().IntVar(&top, "top", 0, "print only the best N models (0 = all)")

	return cmd
}
