package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/bayesab/internal/adapters/httpapi"
	"github.com/alejandrodnm/bayesab/internal/adapters/render"
	"github.com/alejandrodnm/bayesab/internal/application/inference"
	"github.com/alejandrodnm/bayesab/internal/domain"
	"github.com/alejandrodnm/bayesab/internal/request"
)

var batchOpts struct {
	workers int
	asJSON  bool
}

var batchCmd = &cobra.Command{
	Use:   "batch FILE",
	Short: "Run every experiment of a YAML/JSON file in parallel",
	Long: `The 'batch' command reads a list of experiments (either a bare list or an
'experiments:' key) and runs them on a worker pool. An invalid experiment is
reported in its row and does not stop the others.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reqs, err := request.LoadBatch(args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		workers := cfg.Simulation.Workers
		if cmd.Flags().Changed("workers") {
			workers = batchOpts.workers
		}

		items := runBatch(cmd, inference.NewService(store), reqs, cfg.Defaults(), workers)

		failed := 0
		for _, it := range items {
			if it.Err != nil {
				failed++
			}
		}
		slog.Info("batch finished", "file", args[0], "experiments", len(items), "failed", failed, "workers", workers)

		if batchOpts.asJSON {
			return writeJSON(cmd.OutOrStdout(), batchJSON(items))
		}
		render.NewConsoleWriter(cmd.OutOrStdout()).PrintBatch(items)
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVarP(&batchOpts.workers, "workers", "w", 0, "parallel workers (default from config, 0 = NumCPU)")
	batchCmd.Flags().BoolVar(&batchOpts.asJSON, "json", false, "print the results as JSON")
	rootCmd.AddCommand(batchCmd)
}

// runBatch valida todos los requests y corre los válidos en paralelo.
// El resultado conserva el orden del archivo.
func runBatch(cmd *cobra.Command, svc *inference.Service, reqs []request.Request, d request.Defaults, workers int) []domain.BatchItem {
	items := make([]domain.BatchItem, len(reqs))
	var (
		exps []domain.Experiment
		pos  []int
	)
	for i, r := range reqs {
		items[i].Index = i
		exp, err := r.Experiment(d)
		if err != nil {
			items[i].Err = err
			continue
		}
		exps = append(exps, exp)
		pos = append(pos, i)
	}

	for j, it := range svc.SimulateBatch(cmd.Context(), exps, workers) {
		it.Index = pos[j]
		items[pos[j]] = it
	}
	return items
}

type batchResult struct {
	Index int                  `json:"index"`
	Run   *httpapi.RunResponse `json:"run,omitempty"`
	Error string               `json:"error,omitempty"`
}

func batchJSON(items []domain.BatchItem) []batchResult {
	out := make([]batchResult, 0, len(items))
	for _, it := range items {
		r := batchResult{Index: it.Index}
		if it.Err != nil {
			r.Error = it.Err.Error()
		} else {
			resp := httpapi.NewRunResponse(it.Run)
			r.Run = &resp
		}
		out = append(out, r)
	}
	return out
}
