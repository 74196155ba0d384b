package domain

import "math"

// BetaParams son los parámetros de forma de una distribución Beta.
// Invariante: Alpha > 0 y Beta > 0 (garantizado por NewBetaParams).
type BetaParams struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// NewBetaParams valida y construye los parámetros de forma.
func NewBetaParams(alpha, beta float64) (BetaParams, error) {
	if !(alpha > 0) || math.IsInf(alpha, 1) {
		return BetaParams{}, invalidParameter("alpha", "beta shape must be a finite value > 0, got %v", alpha)
	}
	if !(beta > 0) || math.IsInf(beta, 1) {
		return BetaParams{}, invalidParameter("beta", "beta shape must be a finite value > 0, got %v", beta)
	}
	return BetaParams{Alpha: alpha, Beta: beta}, nil
}

// Validate comprueba el invariante sobre un valor construido a mano.
func (p BetaParams) Validate() error {
	_, err := NewBetaParams(p.Alpha, p.Beta)
	return err
}

// Mean devuelve la media analítica α / (α + β).
func (p BetaParams) Mean() float64 {
	return p.Alpha / (p.Alpha + p.Beta)
}

// Prior es el prior Beta compartido por ambas variantes.
type Prior struct {
	Pos float64 `json:"prior_pos" yaml:"prior_pos"`
	Neg float64 `json:"prior_neg" yaml:"prior_neg"`
}

// DefaultPrior es Beta(1,1): uniforme sobre [0,1].
var DefaultPrior = Prior{Pos: 1.0, Neg: 1.0}

// Variant son los conteos observados de una variante del test.
type Variant struct {
	Trials    float64 `json:"trials"`
	Positives float64 `json:"positives"`
}

// Posterior actualiza el prior con los conteos observados:
//
//	alpha = prior_pos + positives
//	beta  = prior_neg + (trials - positives)
func (v Variant) Posterior(prior Prior) (BetaParams, error) {
	if v.Positives < 0 || v.Trials < 0 {
		return BetaParams{}, invalidParameter("positives", "counts must be >= 0 (trials=%v, positives=%v)", v.Trials, v.Positives)
	}
	if v.Positives > v.Trials {
		return BetaParams{}, invalidParameter("positives", "positives (%v) cannot be greater than trials (%v)", v.Positives, v.Trials)
	}
	if !(prior.Pos > 0) || !(prior.Neg > 0) {
		return BetaParams{}, invalidParameter("prior", "prior_pos and prior_neg must be > 0 (got %v, %v)", prior.Pos, prior.Neg)
	}
	return NewBetaParams(prior.Pos+v.Positives, prior.Neg+(v.Trials-v.Positives))
}

// Rate devuelve la tasa observada positives/trials (0 si no hay trials).
func (v Variant) Rate() float64 {
	if v.Trials <= 0 {
		return 0
	}
	return v.Positives / v.Trials
}
