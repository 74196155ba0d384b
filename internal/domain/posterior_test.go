package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariant_Posterior(t *testing.T) {
	p, err := Variant{Trials: 100, Positives: 40}.Posterior(DefaultPrior)
	require.NoError(t, err)
	assert.Equal(t, 41.0, p.Alpha)
	assert.Equal(t, 61.0, p.Beta)
	assert.InDelta(t, 41.0/102.0, p.Mean(), 1e-12)
}

func TestVariant_Posterior_NoTrialsIsPrior(t *testing.T) {
	p, err := Variant{}.Posterior(Prior{Pos: 1, Neg: 1})
	require.NoError(t, err)
	assert.Equal(t, BetaParams{Alpha: 1, Beta: 1}, p)
}

func TestVariant_Posterior_PositivesExceedTrials(t *testing.T) {
	_, err := Variant{Trials: 100, Positives: 101}.Posterior(DefaultPrior)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestVariant_Posterior_NonPositivePrior(t *testing.T) {
	_, err := Variant{Trials: 10, Positives: 1}.Posterior(Prior{Pos: 0, Neg: 1})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestNewBetaParams_Invalid(t *testing.T) {
	for _, tc := range [][2]float64{{0, 1}, {1, 0}, {-1, 2}, {2, -0.5}} {
		_, err := NewBetaParams(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidParameter, "alpha=%v beta=%v", tc[0], tc[1])
	}
}

func TestVariant_Rate(t *testing.T) {
	assert.InDelta(t, 0.25, Variant{Trials: 8, Positives: 2}.Rate(), 1e-12)
	assert.Equal(t, 0.0, Variant{}.Rate())
}

func TestFieldError_UnwrapsToKind(t *testing.T) {
	err := invalidCount("n_bins", 0)
	assert.True(t, errors.Is(err, ErrInvalidCount))
	assert.Contains(t, err.Error(), "n_bins")
}
