package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/bayesab/internal/adapters/httpapi"
	"github.com/alejandrodnm/bayesab/internal/adapters/render"
	"github.com/alejandrodnm/bayesab/internal/domain"
	"github.com/alejandrodnm/bayesab/internal/ports"
)

var historyOpts struct {
	limit  int
	since  time.Duration
	until  time.Duration
	asJSON bool
}

var historyCmd = &cobra.Command{
	Use:   "history [ID]",
	Short: "List stored runs, or show one",
	Long: `Without arguments 'history' lists the most recent runs. With a run ID it prints
that run again, histograms included. --since/--until restrict the list to a window
relative to now.`,
	Example: `  bayesab history --limit 5
  bayesab history --since 24h --until 1h --json
  bayesab history 3f2c9a1e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if noHistory {
			return errors.New("history is disabled by --no-history")
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		console := render.NewConsoleWriter(cmd.OutOrStdout())
		if len(args) == 1 {
			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if historyOpts.asJSON {
				return writeJSON(cmd.OutOrStdout(), httpapi.NewRunResponse(run))
			}
			return console.Render(cmd.Context(), run)
		}

		runs, err := listRuns(cmd, store)
		if err != nil {
			return err
		}
		if historyOpts.asJSON {
			out := make([]httpapi.RunResponse, 0, len(runs))
			for _, r := range runs {
				out = append(out, httpapi.NewRunResponse(r))
			}
			return writeJSON(cmd.OutOrStdout(), out)
		}
		console.PrintHistory(runs)
		return nil
	},
}

// listRuns usa la ventana temporal si se pidió; si no, las últimas N.
func listRuns(cmd *cobra.Command, store ports.RunStore) ([]domain.Run, error) {
	f := cmd.Flags()
	if !f.Changed("since") && !f.Changed("until") {
		return store.ListRuns(cmd.Context(), historyOpts.limit)
	}
	now := time.Now()
	var from time.Time
	if historyOpts.since > 0 {
		from = now.Add(-historyOpts.since)
	}
	to := now.Add(-historyOpts.until)
	if to.Before(from) {
		return nil, fmt.Errorf("--until (%s) must be more recent than --since (%s)", historyOpts.until, historyOpts.since)
	}
	runs, err := store.GetHistory(cmd.Context(), from, to)
	if err != nil {
		return nil, err
	}
	if historyOpts.limit > 0 && len(runs) > historyOpts.limit {
		runs = runs[:historyOpts.limit]
	}
	return runs, nil
}

func init() {
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "l", 20, "number of runs to list")
	historyCmd.Flags().DurationVar(&historyOpts.since, "since", 0, "only runs created within this long ago, e.g. 24h")
	historyCmd.Flags().DurationVar(&historyOpts.until, "until", 0, "only runs created at least this long ago")
	historyCmd.Flags().BoolVar(&historyOpts.asJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(historyCmd)
}
