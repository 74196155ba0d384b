// Package request convierte el payload externo (JSON o YAML, campos a_tot,
// a_pos, b_tot, b_pos...) en un domain.Experiment validado.
//
// Experiment recoge TODAS las violaciones y las devuelve juntas (errors.Join).
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/alejandrodnm/bayesab/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonName)
}

// Request es el payload tal como llega del exterior. Los punteros distinguen
// "ausente" (se aplica el default) de "cero" (a_tot = 0 es válido).
type Request struct {
	Name string `json:"name,omitempty" yaml:"name"`

	ATot *float64 `json:"a_tot" yaml:"a_tot" validate:"required,gte=0"`
	APos *float64 `json:"a_pos" yaml:"a_pos" validate:"required,gte=0"`
	BTot *float64 `json:"b_tot" yaml:"b_tot" validate:"required,gte=0"`
	BPos *float64 `json:"b_pos" yaml:"b_pos" validate:"required,gte=0"`

	PriorPos *float64 `json:"prior_pos,omitempty" yaml:"prior_pos" validate:"omitempty,gt=0"`
	PriorNeg *float64 `json:"prior_neg,omitempty" yaml:"prior_neg" validate:"omitempty,gt=0"`

	// Llegan como número JSON; los no enteros se rechazan en vez de truncarse.
	NSamples *float64 `json:"n_samples,omitempty" yaml:"n_samples" validate:"omitempty,gt=0"`
	NBins    *float64 `json:"n_bins,omitempty" yaml:"n_bins" validate:"omitempty,gt=0"`

	DiffPercentiles []float64 `json:"diff_percentiles,omitempty" yaml:"diff_percentiles" validate:"omitempty,dive,gt=0,lt=1"`

	Seed *uint64 `json:"seed,omitempty" yaml:"seed"`
}

// Defaults son los valores que se usan cuando el payload omite un campo opcional.
// Seed nil = generar una seed nueva por experimento (ver SeedFunc).
type Defaults struct {
	Prior       domain.Prior
	Samples     int
	Bins        int
	Percentiles []float64
	Seed        *uint64
	SeedFunc    func() uint64
}

// DefaultDefaults devuelve los defaults de fábrica: Beta(1,1), 1000 muestras, 100 bins.
func DefaultDefaults() Defaults {
	return Defaults{
		Prior:       domain.DefaultPrior,
		Samples:     domain.DefaultSamples,
		Bins:        domain.DefaultBins,
		Percentiles: slices.Clone(domain.DefaultPercentiles),
		SeedFunc:    RandomSeed,
	}
}

// Decode parsea un payload JSON. Un JSON malformado es ErrInvalidInput.
func Decode(data []byte) (Request, error) {
	var req Request
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("request.Decode: %w", &domain.FieldError{
			Kind: domain.ErrInvalidInput,
			Msg:  fmt.Sprintf("invalid JSON: %v", err),
		})
	}
	return req, nil
}

// Experiment valida el request completo y lo convierte en un experimento listo
// para el motor. Devuelve todas las violaciones, no solo la primera.
func (r Request) Experiment(d Defaults) (domain.Experiment, error) {
	errs := r.violations()
	if len(errs) > 0 {
		return domain.Experiment{}, errors.Join(errs...)
	}

	// Primero los defaults; después lo que trae el payload. Un cero explícito
	// del payload nunca se sustituye por un default.
	exp := domain.Experiment{
		Name:        r.Name,
		A:           domain.Variant{Trials: *r.ATot, Positives: *r.APos},
		B:           domain.Variant{Trials: *r.BTot, Positives: *r.BPos},
		Prior:       d.Prior,
		Samples:     d.Samples,
		Bins:        d.Bins,
		Percentiles: slices.Clone(d.Percentiles),
	}.WithDefaults()
	if r.PriorPos != nil {
		exp.Prior.Pos = *r.PriorPos
	}
	if r.PriorNeg != nil {
		exp.Prior.Neg = *r.PriorNeg
	}
	if r.NSamples != nil {
		exp.Samples = int(*r.NSamples)
	}
	if r.NBins != nil {
		exp.Bins = int(*r.NBins)
	}
	if r.DiffPercentiles != nil {
		exp.Percentiles = slices.Clone(r.DiffPercentiles)
	}

	switch {
	case r.Seed != nil:
		exp.Seed = *r.Seed
	case d.Seed != nil:
		exp.Seed = *d.Seed
	case d.SeedFunc != nil:
		exp.Seed = d.SeedFunc()
	}

	if err := exp.Validate(); err != nil {
		return domain.Experiment{}, err
	}
	return exp, nil
}

// violations junta los errores de los tags del struct y los checks cruzados.
func (r Request) violations() []error {
	var errs []error

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []error{&domain.FieldError{Kind: domain.ErrInvalidInput, Msg: err.Error()}}
		}
		for _, fe := range verrs {
			errs = append(errs, fieldError(fe))
		}
	}

	if r.ATot != nil && r.APos != nil && *r.APos > *r.ATot {
		errs = append(errs, &domain.FieldError{Field: "a_pos", Kind: domain.ErrInvalidParameter, Msg: "a_pos cannot be greater than a_tot"})
	}
	if r.BTot != nil && r.BPos != nil && *r.BPos > *r.BTot {
		errs = append(errs, &domain.FieldError{Field: "b_pos", Kind: domain.ErrInvalidParameter, Msg: "b_pos cannot be greater than b_tot"})
	}
	for _, f := range []struct {
		name string
		v    *float64
	}{{"n_samples", r.NSamples}, {"n_bins", r.NBins}} {
		if f.v != nil && *f.v > 0 && (*f.v != math.Trunc(*f.v) || *f.v > math.MaxInt32) {
			errs = append(errs, &domain.FieldError{Field: f.name, Kind: domain.ErrInvalidParameter, Msg: fmt.Sprintf("must be an integer, got %v", *f.v)})
		}
	}
	return errs
}

// fieldError traduce un error de validator a la taxonomía del dominio.
func fieldError(fe validator.FieldError) error {
	field := fe.Field()
	switch {
	case fe.Tag() == "required":
		return &domain.FieldError{Field: field, Kind: domain.ErrInvalidInput, Msg: "missing required field"}
	case field == "n_samples" || field == "n_bins":
		return &domain.FieldError{Field: field, Kind: domain.ErrInvalidCount, Msg: fmt.Sprintf("must be strictly positive, got %v", fe.Value())}
	default:
		return &domain.FieldError{Field: field, Kind: domain.ErrInvalidParameter, Msg: fmt.Sprintf("failed %q=%s, got %v", fe.Tag(), fe.Param(), fe.Value())}
	}
}
