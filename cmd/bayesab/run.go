package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alejandrodnm/bayesab/internal/adapters/httpapi"
	"github.com/alejandrodnm/bayesab/internal/adapters/render"
	"github.com/alejandrodnm/bayesab/internal/application/inference"
	"github.com/alejandrodnm/bayesab/internal/ports"
	"github.com/alejandrodnm/bayesab/internal/request"
)

var runOpts struct {
	input       string
	name        string
	aTot, aPos  float64
	bTot, bPos  float64
	priorPos    float64
	priorNeg    float64
	samples     int
	bins        int
	percentiles []float64
	seed        uint64
	asJSON      bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one experiment",
	Long: `The 'run' command simulates one A/B experiment and prints P(B > A), both posterior
histograms and the difference histogram with its percentile markers.

Counts come from flags, from a JSON/YAML payload (--input), or both: flags win.`,
	Example: `  bayesab run --a-tot 1000 --a-pos 100 --b-tot 1000 --b-pos 130 --seed 7
  bayesab run --input payload.json --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildRequest(cmd.Flags())
		if err != nil {
			return err
		}
		exp, err := req.Experiment(cfg.Defaults())
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

		run, err := inference.NewService(store).Simulate(cmd.Context(), exp)
		if err != nil {
			return err
		}
		if runOpts.asJSON {
			return writeJSON(cmd.OutOrStdout(), httpapi.NewRunResponse(run))
		}
		var r ports.Renderer = render.NewConsoleWriter(cmd.OutOrStdout())
		return r.Render(cmd.Context(), run)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.input, "input", "i", "", "JSON or YAML payload with the experiment")
	f.StringVar(&runOpts.name, "name", "", "experiment name")
	f.Float64Var(&runOpts.aTot, "a-tot", 0, "trials of variant A")
	f.Float64Var(&runOpts.aPos, "a-pos", 0, "positives of variant A")
	f.Float64Var(&runOpts.bTot, "b-tot", 0, "trials of variant B")
	f.Float64Var(&runOpts.bPos, "b-pos", 0, "positives of variant B")
	f.Float64Var(&runOpts.priorPos, "prior-pos", 0, "prior pseudo-count of positives (default from config)")
	f.Float64Var(&runOpts.priorNeg, "prior-neg", 0, "prior pseudo-count of negatives (default from config)")
	f.IntVarP(&runOpts.samples, "samples", "n", 0, "posterior draws (default from config)")
	f.IntVarP(&runOpts.bins, "bins", "b", 0, "histogram bins (default from config)")
	f.Float64SliceVar(&runOpts.percentiles, "percentiles", nil, "difference percentiles to mark, e.g. 0.05,0.5,0.95")
	f.Uint64Var(&runOpts.seed, "seed", 0, "generator seed (default: config, else a fresh one that is printed)")
	f.BoolVar(&runOpts.asJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(runCmd)
}

// buildRequest junta --input y los flags. Solo cuentan los flags que el
// usuario pasó: un flag ausente no pisa el payload ni el default.
func buildRequest(f *pflag.FlagSet) (request.Request, error) {
	var req request.Request
	if runOpts.input != "" {
		data, err := os.ReadFile(runOpts.input)
		if err != nil {
			return request.Request{}, fmt.Errorf("read input: %w", err)
		}
		if req, err = request.ParseOne(data); err != nil {
			return request.Request{}, err
		}
	}

	floats := []struct {
		flag string
		dst  **float64
		v    float64
	}{
		{"a-tot", &req.ATot, runOpts.aTot},
		{"a-pos", &req.APos, runOpts.aPos},
		{"b-tot", &req.BTot, runOpts.bTot},
		{"b-pos", &req.BPos, runOpts.bPos},
		{"prior-pos", &req.PriorPos, runOpts.priorPos},
		{"prior-neg", &req.PriorNeg, runOpts.priorNeg},
		{"samples", &req.NSamples, float64(runOpts.samples)},
		{"bins", &req.NBins, float64(runOpts.bins)},
	}
	for _, fl := range floats {
		if f.Changed(fl.flag) {
			v := fl.v
			*fl.dst = &v
		}
	}
	if f.Changed("percentiles") {
		req.DiffPercentiles = runOpts.percentiles
	}
	if f.Changed("seed") {
		seed := runOpts.seed
		req.Seed = &seed
	}
	if f.Changed("name") {
		req.Name = runOpts.name
	}
	return req, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
