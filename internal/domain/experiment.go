package domain

import (
	"errors"
	"fmt"
	"slices"
)

const (
	DefaultSamples = 1000
	DefaultBins    = 100
)

// Experiment es la entrada ya validada del motor: conteos de ambas variantes,
// prior, tamaño de la simulación y seed explícita.
type Experiment struct {
	Name        string    `json:"name,omitempty"`
	A           Variant   `json:"a"`
	B           Variant   `json:"b"`
	Prior       Prior     `json:"prior"`
	Samples     int       `json:"n_samples"`
	Bins        int       `json:"n_bins"`
	Percentiles []float64 `json:"diff_percentiles"`
	Seed        uint64    `json:"seed"`
}

// Posteriors devuelve los parámetros Beta posteriores de A y B.
func (e Experiment) Posteriors() (a, b BetaParams, err error) {
	a, err = e.A.Posterior(e.Prior)
	if err != nil {
		return BetaParams{}, BetaParams{}, fmt.Errorf("variant A: %w", err)
	}
	b, err = e.B.Posterior(e.Prior)
	if err != nil {
		return BetaParams{}, BetaParams{}, fmt.Errorf("variant B: %w", err)
	}
	return a, b, nil
}

// Validate devuelve TODAS las violaciones del experimento unidas con errors.Join.
func (e Experiment) Validate() error {
	var errs []error
	if _, err := e.A.Posterior(e.Prior); err != nil {
		errs = append(errs, fmt.Errorf("variant A: %w", err))
	}
	if _, err := e.B.Posterior(e.Prior); err != nil {
		errs = append(errs, fmt.Errorf("variant B: %w", err))
	}
	if e.Samples <= 0 {
		errs = append(errs, invalidCount("n_samples", e.Samples))
	}
	if e.Bins <= 0 {
		errs = append(errs, invalidCount("n_bins", e.Bins))
	}
	for _, p := range e.Percentiles {
		if err := ValidateProbability(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithDefaults completa los campos opcionales vacíos.
func (e Experiment) WithDefaults() Experiment {
	if e.Prior == (Prior{}) {
		e.Prior = DefaultPrior
	}
	if e.Samples == 0 {
		e.Samples = DefaultSamples
	}
	if e.Bins == 0 {
		e.Bins = DefaultBins
	}
	if e.Percentiles == nil {
		e.Percentiles = slices.Clone(DefaultPercentiles)
	}
	return e
}
