package domain

import "math"

// Histogram agrupa muestras en Bins intervalos de igual ancho sobre [Min, Min+BinWidth·Bins].
//
// Invariante: sum(Counts) == número de muestras de entrada; toda muestra cae en
// exactamente un índice en [0, len(Counts)-1].
type Histogram struct {
	Min      float64 `json:"min"`
	BinWidth float64 `json:"bin_width"`
	Counts   []uint  `json:"counts"`
}

// NewHistogram construye un histograma de bins intervalos sobre [min, max].
//
//	bin_width = (max - min) / bins
//	index     = clamp(floor((x - min) / bin_width), 0, bins-1)
//
// El clamp es necesario: una muestra igual a max daría index == bins.
// Rango degenerado (max == min): bin_width = 0 y toda la masa va al bin 0,
// sin dividir por cero.
func NewHistogram(samples []float64, min, max float64, bins int) (Histogram, error) {
	if bins <= 0 {
		return Histogram{}, invalidCount("n_bins", bins)
	}
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) || max < min {
		return Histogram{}, invalidParameter("range", "invalid histogram range [%v, %v]", min, max)
	}

	h := Histogram{
		Min:      min,
		BinWidth: (max - min) / float64(bins),
		Counts:   make([]uint, bins),
	}
	for _, x := range samples {
		h.Counts[h.BinIndex(x)]++
	}
	return h, nil
}

// BinIndex mapea un valor a su bin. Es la única función de mapeo: la usan tanto
// la construcción del histograma como la localización de percentiles.
func (h Histogram) BinIndex(x float64) int {
	n := len(h.Counts)
	if n == 0 {
		return 0
	}
	if h.BinWidth <= 0 {
		return 0
	}
	f := math.Floor((x - h.Min) / h.BinWidth)
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > float64(n-1):
		return n - 1
	}
	return int(f)
}

// Bins devuelve el número de bins.
func (h Histogram) Bins() int {
	return len(h.Counts)
}

// Max devuelve el límite superior del último bin.
func (h Histogram) Max() float64 {
	return h.Min + h.BinWidth*float64(len(h.Counts))
}

// Edges devuelve los Bins+1 bordes de los bins. El último borde es Max().
func (h Histogram) Edges() []float64 {
	edges := make([]float64, len(h.Counts)+1)
	for i := range edges {
		edges[i] = h.Min + h.BinWidth*float64(i)
	}
	return edges
}

// Total devuelve la suma de todos los conteos.
func (h Histogram) Total() uint {
	var total uint
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// MaxCount devuelve el conteo máximo entre bins (escala del eje Y del gráfico).
func (h Histogram) MaxCount() uint {
	var mx uint
	for _, c := range h.Counts {
		if c > mx {
			mx = c
		}
	}
	return mx
}

// CountAt devuelve el conteo del bin i, o 0 si i está fuera de rango.
func (h Histogram) CountAt(i int) uint {
	if i < 0 || i >= len(h.Counts) {
		return 0
	}
	return h.Counts[i]
}
