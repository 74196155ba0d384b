package simulation

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/bayesab/internal/domain"
)

func experiment(aTot, aPos, bTot, bPos float64) domain.Experiment {
	return domain.Experiment{
		A: domain.Variant{Trials: aTot, Positives: aPos},
		B: domain.Variant{Trials: bTot, Positives: bPos},
	}.WithDefaults()
}

func TestRun_HistogramsSumToSamples(t *testing.T) {
	exp := experiment(1000, 120, 1000, 140)
	exp.Seed = 1

	res, err := Run(exp)
	require.NoError(t, err)

	n := uint(exp.Samples)
	assert.Equal(t, n, res.AHistogram.Total())
	assert.Equal(t, n, res.BHistogram.Total())
	assert.Equal(t, n, res.DiffHistogram.Total())
	assert.Len(t, res.AHistogram.Counts, exp.Bins)
	assert.Len(t, res.DiffHistogram.Counts, exp.Bins)

	// A y B comparten escala
	assert.Equal(t, res.AHistogram.Min, res.BHistogram.Min)
	assert.Equal(t, res.AHistogram.BinWidth, res.BHistogram.BinWidth)

	assert.Equal(t, domain.BetaParams{Alpha: 121, Beta: 881}, res.PosteriorA)
	assert.Equal(t, uint64(1), res.Seed)
	assert.Equal(t, 1000, res.Samples)
}

func TestRun_PercentilesLocatedOnDiffScale(t *testing.T) {
	exp := experiment(500, 50, 500, 60)
	exp.Seed = 3

	res, err := Run(exp)
	require.NoError(t, err)
	require.Len(t, res.Percentiles, len(domain.DefaultPercentiles))

	prev := res.Percentiles[0].Value
	for i, p := range res.Percentiles {
		assert.Equal(t, domain.DefaultPercentiles[i], p.Probability)
		assert.GreaterOrEqual(t, p.Value, prev, "percentiles must be monotone")
		assert.Equal(t, res.DiffHistogram.BinIndex(p.Value), p.BinIndex)
		assert.Equal(t, res.DiffHistogram.Counts[p.BinIndex], p.CountAtBin)
		assert.Greater(t, p.CountAtBin, uint(0))
		prev = p.Value
	}
}

func TestRun_Deterministic(t *testing.T) {
	exp := experiment(200, 20, 200, 30)
	exp.Seed = 77

	r1, err := Run(exp)
	require.NoError(t, err)
	r2, err := Run(exp)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

// Variantes idénticas → P(B > A) ≈ 0.5 y diferencia simétrica en torno a 0.
func TestRun_EqualVariants(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		exp := experiment(100, 50, 100, 50)
		exp.Samples = 10000
		exp.Seed = seed

		res, err := Run(exp)
		require.NoError(t, err)

		assert.InDelta(t, 0.5, res.WinProbability, 0.05, "seed=%d", seed)

		byProb := map[float64]float64{}
		for _, p := range res.Percentiles {
			byProb[p.Probability] = p.Value
		}
		assert.InDelta(t, 0.0, byProb[0.5], 0.01, "median diff, seed=%d", seed)
		assert.InDelta(t, 0.0, byProb[0.025]+byProb[0.975], 0.02, "tails, seed=%d", seed)
		assert.Less(t, res.DiffHistogram.Min, 0.0)
		assert.Greater(t, res.DiffHistogram.Max(), 0.0)
	}
}

// n_samples, n_bins o conteos inválidos no producen resultado.
func TestRun_InvalidInputs(t *testing.T) {
	exp := experiment(100, 50, 100, 50)
	exp.Samples = 0
	exp.Bins = 10
	_, err := Run(exp)
	assert.ErrorIs(t, err, domain.ErrInvalidCount)

	exp = experiment(100, 50, 100, 50)
	exp.Bins = -1
	_, err = Run(exp)
	assert.ErrorIs(t, err, domain.ErrInvalidCount)

	exp = experiment(100, 101, 100, 50)
	_, err = Run(exp)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

// 0 y 1 no son percentiles válidos: falla la corrida entera.
func TestRun_PercentileBoundsRejected(t *testing.T) {
	for _, p := range []float64{0, 1} {
		exp := experiment(100, 50, 100, 50)
		exp.Percentiles = []float64{0.5, p}
		res, err := Run(exp)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter, "p=%v", p)
		assert.Empty(t, res.Percentiles)
		assert.Nil(t, res.AHistogram.Counts)
	}
}

func TestRun_SingleSample(t *testing.T) {
	exp := experiment(10, 5, 10, 5)
	exp.Samples = 1
	exp.Bins = 4

	res, err := Run(exp)
	require.NoError(t, err)

	// Con una muestra el rango de diferencias es degenerado: todo en el bin 0.
	assert.Equal(t, 0.0, res.DiffHistogram.BinWidth)
	assert.Equal(t, []uint{1, 0, 0, 0}, res.DiffHistogram.Counts)
	assert.Equal(t, uint(1), res.AHistogram.Total())
	for _, p := range res.Percentiles {
		assert.Equal(t, 0, p.BinIndex)
		assert.Equal(t, uint(1), p.CountAtBin)
	}
}

func TestRun_PropertiesOverRandomInputs(t *testing.T) {
	gen := rand.New(rand.NewPCG(5, 5))
	for i := range 40 {
		aTot := float64(gen.IntN(500))
		bTot := float64(gen.IntN(500))
		exp := domain.Experiment{
			A:       domain.Variant{Trials: aTot, Positives: float64(gen.IntN(int(aTot) + 1))},
			B:       domain.Variant{Trials: bTot, Positives: float64(gen.IntN(int(bTot) + 1))},
			Prior:   domain.Prior{Pos: 0.1 + gen.Float64()*3, Neg: 0.1 + gen.Float64()*3},
			Samples: 1 + gen.IntN(800),
			Bins:    1 + gen.IntN(60),
			Seed:    gen.Uint64(),
		}.WithDefaults()

		res, err := Run(exp)
		require.NoError(t, err, "case %d: %+v", i, exp)

		n := uint(exp.Samples)
		assert.Equal(t, n, res.AHistogram.Total())
		assert.Equal(t, n, res.BHistogram.Total())
		assert.Equal(t, n, res.DiffHistogram.Total())
		assert.GreaterOrEqual(t, res.WinProbability, 0.0)
		assert.LessOrEqual(t, res.WinProbability, 1.0)
		assert.Greater(t, res.PosteriorA.Alpha, 0.0)
		assert.Greater(t, res.PosteriorB.Beta, 0.0)
		for _, p := range res.Percentiles {
			assert.GreaterOrEqual(t, p.BinIndex, 0)
			assert.Less(t, p.BinIndex, exp.Bins)
		}
	}
}

// Priors muy chicos: las Gamma de forma < 1 no deben colapsar a 0/0.
func TestRun_TinyPriorStaysFinite(t *testing.T) {
	for _, p := range []float64{0.001, 0.005, 0.01} {
		for seed := uint64(0); seed < 20; seed++ {
			exp := experiment(0, 0, 0, 0)
			exp.Prior = domain.Prior{Pos: p, Neg: p}
			exp.Samples = 1000
			exp.Seed = seed

			res, err := Run(exp)
			require.NoError(t, err, "prior=%v seed=%d", p, seed)
			assert.Equal(t, uint(1000), res.AHistogram.Total())
			assert.Equal(t, uint(1000), res.BHistogram.Total())
			assert.Equal(t, uint(1000), res.DiffHistogram.Total())
		}
	}
}
