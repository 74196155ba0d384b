// Package httpapi expone el motor de inferencia como API JSON sobre gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alejandrodnm/bayesab/internal/application/inference"
	"github.com/alejandrodnm/bayesab/internal/domain"
	"github.com/alejandrodnm/bayesab/internal/request"
)

// ErrorResponse es el cuerpo de todas las respuestas de error.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Code    string        `json:"code"`
	Details []FieldDetail `json:"details,omitempty"`
}

// FieldDetail describe una violación de un campo concreto.
type FieldDetail struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HistogramView es un histograma listo para dibujar: bordes, conteos y el
// máximo para escalar el eje y.
type HistogramView struct {
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	BinWidth float64   `json:"bin_width"`
	Edges    []float64 `json:"edges"`
	Counts   []uint    `json:"counts"`
	MaxCount uint      `json:"max_count"`
}

// RunResponse es una corrida tal como la devuelve la API.
type RunResponse struct {
	ID             string                    `json:"id"`
	Name           string                    `json:"name,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	DurationMS     float64                   `json:"duration_ms"`
	Samples        int                       `json:"n_samples"`
	Bins           int                       `json:"n_bins"`
	Seed           uint64                    `json:"seed"`
	Prior          domain.Prior              `json:"prior"`
	A              domain.Variant            `json:"a"`
	B              domain.Variant            `json:"b"`
	WinProbability float64                   `json:"win_probability"`
	PosteriorA     domain.BetaParams         `json:"posterior_a"`
	PosteriorB     domain.BetaParams         `json:"posterior_b"`
	AHistogram     HistogramView             `json:"a_histogram"`
	BHistogram     HistogramView             `json:"b_histogram"`
	DiffHistogram  HistogramView             `json:"diff_histogram"`
	Percentiles    []domain.PercentileResult `json:"percentile_results"`
}

// RunSummary es una fila del listado de historial.
type RunSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Samples        int       `json:"n_samples"`
	Seed           uint64    `json:"seed"`
	WinProbability float64   `json:"win_probability"`
}

// Limits son los topes por request. Un valor <= 0 desactiva ese tope.
type Limits struct {
	MaxSamples int
	MaxBins    int
}

// Handlers agrupa los endpoints de la API.
type Handlers struct {
	svc      *inference.Service
	defaults request.Defaults
	limits   Limits
}

// NewHandlers crea los handlers.
func NewHandlers(svc *inference.Service, defaults request.Defaults, limits Limits) *Handlers {
	return &Handlers{svc: svc, defaults: defaults, limits: limits}
}

// HandleSimulate corre un experimento.
//
// POST /v1/simulate
func (h *Handlers) HandleSimulate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not read request body", Code: "INVALID_INPUT"})
		return
	}

	req, err := request.Decode(body)
	if err != nil {
		writeError(c, err)
		return
	}
	exp, err := req.Experiment(h.defaults)
	if err != nil {
		writeError(c, err)
		return
	}
	if resp, ok := h.limits.check(exp); !ok {
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	run, err := h.svc.Simulate(c.Request.Context(), exp)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRunResponse(run))
}

// HandleListRuns devuelve las últimas corridas guardadas. Con from y/o to
// (RFC 3339) filtra por fecha de creación; to por defecto es ahora.
//
// GET /v1/runs?limit=N&from=T&to=T
func (h *Handlers) HandleListRuns(c *gin.Context) {
	var q struct {
		Limit int       `form:"limit" binding:"omitempty,min=1,max=500"`
		From  time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
		To    time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "limit must be an integer in [1, 500]; from/to must be RFC 3339 timestamps",
			Code:  "INVALID_PARAMETER",
		})
		return
	}

	var (
		runs []domain.Run
		err  error
	)
	if q.From.IsZero() && q.To.IsZero() {
		runs, err = h.svc.Recent(c.Request.Context(), q.Limit)
	} else {
		if q.To.IsZero() {
			q.To = time.Now()
		}
		runs, err = h.svc.Between(c.Request.Context(), q.From, q.To)
		if q.Limit > 0 && len(runs) > q.Limit {
			runs = runs[:q.Limit]
		}
	}
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunSummary{
			ID:             r.ID,
			Name:           r.Experiment.Name,
			CreatedAt:      r.CreatedAt,
			Samples:        r.Experiment.Samples,
			Seed:           r.Experiment.Seed,
			WinProbability: r.Result.WinProbability,
		})
	}
	c.JSON(http.StatusOK, gin.H{"runs": out, "count": len(out)})
}

// HandleGetRun devuelve una corrida completa por ID.
//
// GET /v1/runs/:id
func (h *Handlers) HandleGetRun(c *gin.Context) {
	run, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRunResponse(run))
}

// HandleHealth
//
// GET /healthz
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// check aplica los topes del servidor antes de reservar memoria para
// muestras o bins. Reporta todos los topes excedidos.
func (l Limits) check(exp domain.Experiment) (ErrorResponse, bool) {
	var details []FieldDetail
	for _, f := range []struct {
		field      string
		got, limit int
	}{
		{"n_samples", exp.Samples, l.MaxSamples},
		{"n_bins", exp.Bins, l.MaxBins},
	} {
		if f.limit > 0 && f.got > f.limit {
			details = append(details, FieldDetail{
				Field:   f.field,
				Code:    "INVALID_COUNT",
				Message: fmt.Sprintf("%d exceeds the server limit of %d", f.got, f.limit),
			})
		}
	}
	if len(details) == 0 {
		return ErrorResponse{}, true
	}
	return ErrorResponse{
		Error:   fmt.Sprintf("%s %s", details[0].Field, details[0].Message),
		Code:    "INVALID_COUNT",
		Details: details,
	}, false
}

// writeError traduce un error del dominio a status + código.
func writeError(c *gin.Context, err error) {
	status, code := classify(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}
	for _, fe := range domain.FieldErrors(err) {
		_, fc := classify(fe.Kind)
		resp.Details = append(resp.Details, FieldDetail{Field: fe.Field, Code: fc, Message: fe.Msg})
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, resp)
}

func classify(err error) (int, string) {
	switch kind := domain.Kind(err); {
	case errors.Is(kind, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(kind, domain.ErrInvalidParameter):
		return http.StatusBadRequest, "INVALID_PARAMETER"
	case errors.Is(kind, domain.ErrInvalidCount):
		return http.StatusBadRequest, "INVALID_COUNT"
	case errors.Is(kind, domain.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"
	}
	switch {
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "CANCELLED"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// NewRunResponse convierte una corrida al formato de la API (también lo usa la CLI con --json).
func NewRunResponse(run domain.Run) RunResponse {
	exp, res := run.Experiment, run.Result
	return RunResponse{
		ID:             run.ID,
		Name:           exp.Name,
		CreatedAt:      run.CreatedAt,
		DurationMS:     float64(run.Duration.Microseconds()) / 1000,
		Samples:        exp.Samples,
		Bins:           exp.Bins,
		Seed:           exp.Seed,
		Prior:          exp.Prior,
		A:              exp.A,
		B:              exp.B,
		WinProbability: res.WinProbability,
		PosteriorA:     res.PosteriorA,
		PosteriorB:     res.PosteriorB,
		AHistogram:     toHistogramView(res.AHistogram),
		BHistogram:     toHistogramView(res.BHistogram),
		DiffHistogram:  toHistogramView(res.DiffHistogram),
		Percentiles:    res.Percentiles,
	}
}

func toHistogramView(h domain.Histogram) HistogramView {
	return HistogramView{
		Min:      h.Min,
		Max:      h.Max(),
		BinWidth: h.BinWidth,
		Edges:    h.Edges(),
		Counts:   h.Counts,
		MaxCount: h.MaxCount(),
	}
}
