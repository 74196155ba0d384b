package domain

import (
	"math"
	"slices"
)

// DefaultPercentiles es la lista de probabilidades marcadas sobre el histograma de diferencias.
var DefaultPercentiles = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 0.975, 0.99}

// PercentileResult es un marcador sobre el histograma de diferencias.
type PercentileResult struct {
	Probability float64 `json:"probability"`
	Value       float64 `json:"value"`
	BinIndex    int     `json:"bin_index"`
	CountAtBin  uint    `json:"count_at_bin"`
}

// ValidateProbability exige p en el intervalo abierto (0,1).
func ValidateProbability(p float64) error {
	if !(p > 0 && p < 1) {
		return invalidParameter("diff_percentiles", "percentile probability must be in (0,1), got %v", p)
	}
	return nil
}

// NearestRankIndex devuelve clamp(floor(p·n), 0, n-1).
// Es el método nearest-rank, sin interpolación entre rangos vecinos.
func NearestRankIndex(p float64, n int) (int, error) {
	if err := ValidateProbability(p); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, &FieldError{Field: "samples", Kind: ErrInsufficientData, Msg: "no samples to rank"}
	}
	idx := int(math.Floor(p * float64(n)))
	return min(max(idx, 0), n-1), nil
}

// LocatePercentile busca el percentil p en sorted (orden ascendente) y lo
// ubica en diff, que debe haberse construido sobre las mismas muestras.
func LocatePercentile(sorted []float64, p float64, diff Histogram) (PercentileResult, error) {
	idx, err := NearestRankIndex(p, len(sorted))
	if err != nil {
		return PercentileResult{}, err
	}
	value := sorted[idx]
	bin := diff.BinIndex(value)
	return PercentileResult{
		Probability: p,
		Value:       value,
		BinIndex:    bin,
		CountAtBin:  diff.CountAt(bin),
	}, nil
}

// LocatePercentiles ordena una copia de samples y localiza cada probabilidad.
// samples no se modifica.
func LocatePercentiles(samples []float64, probs []float64, diff Histogram) ([]PercentileResult, error) {
	for _, p := range probs {
		if err := ValidateProbability(p); err != nil {
			return nil, err
		}
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	out := make([]PercentileResult, 0, len(probs))
	for _, p := range probs {
		r, err := LocatePercentile(sorted, p, diff)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
