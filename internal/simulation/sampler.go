// Package simulation es el motor Monte Carlo: extrae muestras de los dos
// posteriores Beta y agrega histogramas, percentiles y P(B > A).
//
// Algoritmo fijo (reproducible entre plataformas para una misma versión de Go y gonum):
//   - Generador: math/rand/v2 PCG (DXSM) sembrado con NewPCG(seed, pcgStream).
//     Un solo generador por corrida; se extrae a_i y luego b_i, alternando.
//   - Beta: X/(X+Y) con X~Gamma(α,1), Y~Gamma(β,1) extraídos con gonum
//     distuv.Gamma, calculado en escala log: 1/(1+exp(log Y - log X)).
//     Con forma < 1 se usa log Gamma(α+1) + log(U)/α, que no se va a 0.
package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/alejandrodnm/bayesab/internal/domain"
)

// pcgStream es el segundo word del estado PCG. Constante: la seed del
// experimento es la única fuente de variación.
const pcgStream = 0x9e3779b97f4a7c15

// SampleRun es el resultado de una pasada del sampler.
type SampleRun struct {
	Samples domain.SampleSet
	Wins    int // draws con a_i < b_i (los empates no cuentan)

	MinAB, MaxAB     float64 // extremos combinados de todas las a_i y b_i
	MinDiff, MaxDiff float64 // extremos de diff_i
}

// NewSource devuelve el generador de una corrida.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, pcgStream)
}

// Sample extrae n pares (a_i, b_i) de Beta(a) y Beta(b) en una sola pasada,
// contando victorias de B y siguiendo los extremos.
func Sample(a, b domain.BetaParams, seed uint64, n int) (SampleRun, error) {
	if err := a.Validate(); err != nil {
		return SampleRun{}, fmt.Errorf("simulation.Sample: posterior A: %w", err)
	}
	if err := b.Validate(); err != nil {
		return SampleRun{}, fmt.Errorf("simulation.Sample: posterior B: %w", err)
	}
	if n <= 0 {
		return SampleRun{}, fmt.Errorf("simulation.Sample: %w", &domain.FieldError{
			Field: "n_samples", Kind: domain.ErrInvalidCount, Msg: fmt.Sprintf("must be strictly positive, got %d", n),
		})
	}

	src := NewSource(seed)
	rng := rand.New(src)
	distA := newBetaDraw(a, src, rng)
	distB := newBetaDraw(b, src, rng)

	run := SampleRun{
		Samples: domain.SampleSet{
			A:    make([]float64, n),
			B:    make([]float64, n),
			Diff: make([]float64, n),
		},
		MinAB:   math.Inf(1),
		MaxAB:   math.Inf(-1),
		MinDiff: math.Inf(1),
		MaxDiff: math.Inf(-1),
	}

	for i := range n {
		ai := distA.Rand()
		bi := distB.Rand()
		d := bi - ai
		if ai < bi {
			run.Wins++
		}

		run.MinAB = math.Min(run.MinAB, math.Min(ai, bi))
		run.MaxAB = math.Max(run.MaxAB, math.Max(ai, bi))
		run.MinDiff = math.Min(run.MinDiff, d)
		run.MaxDiff = math.Max(run.MaxDiff, d)

		run.Samples.A[i] = ai
		run.Samples.B[i] = bi
		run.Samples.Diff[i] = d
	}
	return run, nil
}

// logGamma extrae log X con X ~ Gamma(shape, 1).
//
// Para shape < 1 los valores de X caen por debajo del menor float64 y X/(X+Y)
// daría 0/0. En escala log el valor sigue siendo finito.
type logGamma struct {
	shape float64
	dist  distuv.Gamma
	rng   *rand.Rand
}

func newLogGamma(shape float64, src rand.Source, rng *rand.Rand) logGamma {
	boosted := shape
	if shape < 1 {
		boosted = shape + 1
	}
	return logGamma{shape: shape, dist: distuv.Gamma{Alpha: boosted, Beta: 1, Src: src}, rng: rng}
}

func (g logGamma) Rand() float64 {
	x := math.Log(g.dist.Rand())
	if g.shape < 1 {
		u := g.rng.Float64()
		for u == 0 {
			u = g.rng.Float64()
		}
		x += math.Log(u) / g.shape
	}
	return x
}

// betaDraw extrae de Beta(α, β) como X/(X+Y) sin salir de la escala log.
type betaDraw struct {
	x, y logGamma
}

func newBetaDraw(p domain.BetaParams, src rand.Source, rng *rand.Rand) betaDraw {
	return betaDraw{x: newLogGamma(p.Alpha, src, rng), y: newLogGamma(p.Beta, src, rng)}
}

// Rand devuelve un valor en [0, 1]: 1/(1+exp(log Y - log X)) == X/(X+Y).
func (d betaDraw) Rand() float64 {
	lx := d.x.Rand()
	ly := d.y.Rand()
	return 1 / (1 + math.Exp(ly-lx))
}

// WinProbability devuelve Wins / n.
func (r SampleRun) WinProbability() float64 {
	n := r.Samples.Len()
	if n == 0 {
		return 0
	}
	return float64(r.Wins) / float64(n)
}
