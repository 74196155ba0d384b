package domain

import (
	"errors"
	"time"
)

// SampleSet son las tres secuencias de una corrida del sampler, todas de la
// misma longitud. Inmutable una vez producida; pertenece a la corrida que la creó.
type SampleSet struct {
	A    []float64
	B    []float64
	Diff []float64 // Diff[i] = B[i] - A[i]
}

// Len devuelve el número de extracciones.
func (s SampleSet) Len() int {
	return len(s.Diff)
}

// SimulationResult es la salida completa del motor para un experimento.
type SimulationResult struct {
	WinProbability float64            `json:"win_probability"` // P(B > A)
	PosteriorA     BetaParams         `json:"posterior_a"`
	PosteriorB     BetaParams         `json:"posterior_b"`
	AHistogram     Histogram          `json:"a_histogram"`
	BHistogram     Histogram          `json:"b_histogram"`
	DiffHistogram  Histogram          `json:"diff_histogram"`
	Percentiles    []PercentileResult `json:"percentile_results"`
	Samples        int                `json:"n_samples"`
	Seed           uint64             `json:"seed"`
}

// Run es una ejecución identificada del motor, tal como la ven los adapters
// (consola, HTTP, storage).
type Run struct {
	ID         string
	Experiment Experiment
	Result     SimulationResult
	CreatedAt  time.Time
	Duration   time.Duration
}

// Label devuelve el nombre del experimento, o un prefijo del ID si no tiene.
func (r Run) Label() string {
	if r.Experiment.Name != "" {
		return r.Experiment.Name
	}
	if len(r.ID) > 8 {
		return r.ID[:8]
	}
	return r.ID
}

// BatchItem es el resultado de un experimento de un batch, en su posición
// original. Err != nil implica Run vacío.
type BatchItem struct {
	Index int
	Run   Run
	Err   error
}

// ErrRunNotFound lo devuelve un RunStore cuando el ID no existe.
var ErrRunNotFound = errors.New("run not found")
