package domain

import (
	"errors"
	"fmt"
)

// Tipos de error del motor de inferencia. Todos los errores devueltos por
// domain, simulation y request envuelven exactamente uno de estos sentinels,
// así el caller puede discriminar con errors.Is.
var (
	// ErrInvalidInput: campo requerido ausente o payload malformado (lo reporta request).
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidParameter: a_pos > a_tot, parámetros Beta ≤ 0, percentil fuera de (0,1).
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidCount: n_samples ≤ 0 o n_bins ≤ 0.
	ErrInvalidCount = errors.New("invalid count")
	// ErrInsufficientData: no hay muestras para calcular extremos.
	ErrInsufficientData = errors.New("insufficient data")
)

// FieldError describe una violación concreta sobre un campo del experimento.
type FieldError struct {
	Field string
	Kind  error // uno de los sentinels de arriba
	Msg   string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Msg)
}

// Unwrap permite errors.Is(err, ErrInvalidCount) sobre un FieldError.
func (e *FieldError) Unwrap() error {
	return e.Kind
}

func invalidParameter(field, format string, args ...any) error {
	return &FieldError{Field: field, Kind: ErrInvalidParameter, Msg: fmt.Sprintf(format, args...)}
}

func invalidCount(field string, n int) error {
	return &FieldError{Field: field, Kind: ErrInvalidCount, Msg: fmt.Sprintf("must be strictly positive, got %d", n)}
}

// FieldErrors extrae todas las violaciones de un error, incluido uno construido
// con errors.Join. Devuelve nil si err no contiene ningún FieldError.
func FieldErrors(err error) []*FieldError {
	if err == nil {
		return nil
	}
	var out []*FieldError
	var walk func(error)
	walk = func(e error) {
		if fe, ok := e.(*FieldError); ok {
			out = append(out, fe)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			if inner := u.Unwrap(); inner != nil {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}

// Kind devuelve el sentinel que clasifica err, o nil si no es un error del dominio.
// Con varias violaciones, gana la primera según el orden de errors.Join.
func Kind(err error) error {
	if fes := FieldErrors(err); len(fes) > 0 {
		return fes[0].Kind
	}
	for _, k := range []error{ErrInvalidInput, ErrInvalidParameter, ErrInvalidCount, ErrInsufficientData} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
