package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/bayesab/internal/domain"
	"github.com/alejandrodnm/bayesab/internal/metrics"
	"github.com/alejandrodnm/bayesab/internal/ports"
	"github.com/alejandrodnm/bayesab/internal/simulation"
)

// Service orquesta una corrida: motor → métricas → historial.
// El store es opcional; si es nil no se persiste nada.
type Service struct {
	store ports.RunStore
	now   func() time.Time
}

// NewService crea un Service con el store dado (puede ser nil).
func NewService(store ports.RunStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Simulate ejecuta el experimento y devuelve la corrida identificada.
// Un fallo del store se loguea pero no invalida el resultado.
func (s *Service) Simulate(ctx context.Context, exp domain.Experiment) (domain.Run, error) {
	if err := ctx.Err(); err != nil {
		return domain.Run{}, err
	}

	start := s.now()
	res, err := simulation.Run(exp)
	elapsed := s.now().Sub(start)
	if err != nil {
		if domain.Kind(err) != nil && !errors.Is(err, domain.ErrInsufficientData) {
			metrics.SimulationsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		} else {
			metrics.SimulationsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		}
		return domain.Run{}, fmt.Errorf("inference.Simulate: %w", err)
	}

	metrics.SimulationsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.SimulationDuration.Observe(elapsed.Seconds())
	metrics.SamplesDrawn.Add(float64(res.Samples))
	metrics.WinProbability.Observe(res.WinProbability)

	run := domain.Run{
		ID:         uuid.New().String(),
		Experiment: exp,
		Result:     res,
		CreatedAt:  start.UTC(),
		Duration:   elapsed,
	}

	slog.Debug("simulation complete",
		"run_id", run.ID,
		"name", exp.Name,
		"samples", exp.Samples,
		"bins", exp.Bins,
		"seed", exp.Seed,
		"win_probability", res.WinProbability,
		"elapsed", elapsed,
	)

	if s.store != nil {
		if err := s.store.SaveRun(ctx, run); err != nil {
			metrics.StoreErrors.Inc()
			slog.Warn("storage error", "run_id", run.ID, "err", err)
		}
	}
	return run, nil
}

// Get devuelve una corrida guardada.
func (s *Service) Get(ctx context.Context, id string) (domain.Run, error) {
	if s.store == nil {
		return domain.Run{}, fmt.Errorf("inference.Get: %w", domain.ErrRunNotFound)
	}
	return s.store.GetRun(ctx, id)
}

// Between devuelve las corridas creadas en [from, to], más recientes primero.
func (s *Service) Between(ctx context.Context, from, to time.Time) ([]domain.Run, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("inference.Between: %w", &domain.FieldError{
			Field: "to", Kind: domain.ErrInvalidParameter, Msg: "to must not be before from",
		})
	}
	if s.store == nil {
		return nil, nil
	}
	return s.store.GetHistory(ctx, from, to)
}

// Recent devuelve las últimas corridas guardadas (vacío si no hay store).
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListRuns(ctx, limit)
}
