package simulation

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/bayesab/internal/domain"
)

// Run ejecuta el experimento completo: sampler, dos histogramas de posteriores
// sobre la escala compartida, histograma de diferencias y percentiles.
//
// Todo-o-nada: ante cualquier error no se devuelve resultado parcial.
// Es una función pura de exp (incluida exp.Seed).
func Run(exp domain.Experiment) (domain.SimulationResult, error) {
	if err := exp.Validate(); err != nil {
		return domain.SimulationResult{}, fmt.Errorf("simulation.Run: %w", err)
	}
	postA, postB, err := exp.Posteriors()
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("simulation.Run: %w", err)
	}

	run, err := Sample(postA, postB, exp.Seed, exp.Samples)
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("simulation.Run: %w", err)
	}
	if err := checkExtrema(run); err != nil {
		return domain.SimulationResult{}, fmt.Errorf("simulation.Run: %w", err)
	}

	// A y B comparten escala para poder superponerlos visualmente.
	aHist, err := domain.NewHistogram(run.Samples.A, run.MinAB, run.MaxAB, exp.Bins)
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("simulation.Run: a histogram: %w", err)
	}
	bHist, err := domain.NewHistogram(run.Samples.B, run.MinAB, run.MaxAB, exp.Bins)
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("simulation.Run: b histogram: %w", err)
	}
	diffHist, err := domain.NewHistogram(run.Samples.Diff, run.MinDiff, run.MaxDiff, exp.Bins)
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("simulation.Run: diff histogram: %w", err)
	}

	// Los percentiles se ubican siempre sobre la escala del histograma de diferencias.
	percentiles, err := domain.LocatePercentiles(run.Samples.Diff, exp.Percentiles, diffHist)
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("simulation.Run: percentiles: %w", err)
	}

	return domain.SimulationResult{
		WinProbability: run.WinProbability(),
		PosteriorA:     postA,
		PosteriorB:     postB,
		AHistogram:     aHist,
		BHistogram:     bHist,
		DiffHistogram:  diffHist,
		Percentiles:    percentiles,
		Samples:        exp.Samples,
		Seed:           exp.Seed,
	}, nil
}

// checkExtrema protege contra extremos sin inicializar (ninguna muestra) o no finitos.
func checkExtrema(run SampleRun) error {
	if run.Samples.Len() == 0 {
		return &domain.FieldError{Field: "samples", Kind: domain.ErrInsufficientData, Msg: "too few samples to compute extrema"}
	}
	for _, v := range []float64{run.MinAB, run.MaxAB, run.MinDiff, run.MaxDiff} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return &domain.FieldError{Field: "samples", Kind: domain.ErrInsufficientData, Msg: "non-finite sample extrema"}
		}
	}
	return nil
}
