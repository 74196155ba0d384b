package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExperiment() Experiment {
	return Experiment{
		A: Variant{Trials: 100, Positives: 50},
		B: Variant{Trials: 100, Positives: 55},
	}.WithDefaults()
}

func TestExperiment_WithDefaults(t *testing.T) {
	e := validExperiment()
	assert.Equal(t, DefaultPrior, e.Prior)
	assert.Equal(t, 1000, e.Samples)
	assert.Equal(t, 100, e.Bins)
	assert.Equal(t, DefaultPercentiles, e.Percentiles)
	assert.NoError(t, e.Validate())
}

func TestExperiment_WithDefaults_KeepsEmptyPercentiles(t *testing.T) {
	e := Experiment{Percentiles: []float64{}}.WithDefaults()
	assert.Empty(t, e.Percentiles)
	assert.NotNil(t, e.Percentiles)
}

func TestExperiment_Validate_CollectsAllViolations(t *testing.T) {
	e := validExperiment()
	e.A = Variant{Trials: 100, Positives: 101}
	e.Samples = -1
	e.Bins = -1
	e.Percentiles = []float64{0.5, 1}

	err := e.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.ErrorIs(t, err, ErrInvalidCount)
	assert.Len(t, FieldErrors(err), 4)
	assert.Equal(t, ErrInvalidParameter, Kind(err))
}

func TestExperiment_Posteriors(t *testing.T) {
	a, b, err := validExperiment().Posteriors()
	require.NoError(t, err)
	assert.Equal(t, BetaParams{Alpha: 51, Beta: 51}, a)
	assert.Equal(t, BetaParams{Alpha: 56, Beta: 46}, b)
}

func TestRun_Label(t *testing.T) {
	assert.Equal(t, "checkout", Run{ID: "0123456789", Experiment: Experiment{Name: "checkout"}}.Label())
	assert.Equal(t, "01234567", Run{ID: "0123456789"}.Label())
}
