package inference

// concurrent.go: worker pool para correr muchos experimentos en paralelo.
//
// Cada experimento es independiente y el motor es puro: el paralelismo es a
// nivel de experimento, cada uno con su propio generador sembrado. El orden de
// salida es el de entrada, sin importar qué worker termine primero.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/bayesab/internal/domain"
)

// SimulateBatch corre todos los experimentos con un pool de workers.
// Si workers <= 0 usa runtime.NumCPU(). Al cancelarse ctx deja de encolar
// trabajo; los experimentos no procesados devuelven ctx.Err().
func (s *Service) SimulateBatch(ctx context.Context, exps []domain.Experiment, workers int) []domain.BatchItem {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(exps), 1))

	items := make([]domain.BatchItem, len(exps))
	for i := range items {
		items[i].Index = i
	}

	workCh := make(chan int)

	// Worker pool: cada worker escribe solo en su propio índice de items.
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				run, err := s.Simulate(ctx, exps[i])
				if err != nil {
					slog.Debug("batch experiment failed", "index", i, "name", exps[i].Name, "err", err)
				}
				items[i].Run = run
				items[i].Err = err
			}
		}()
	}

	queued := 0
feed:
	for i := range exps {
		select {
		case <-ctx.Done():
			break feed
		case workCh <- i:
			queued++
		}
	}
	close(workCh)
	wg.Wait()

	for i := queued; i < len(items); i++ {
		items[i].Err = ctx.Err()
	}

	slog.Debug("batch complete",
		"experiments", len(exps),
		"queued", queued,
		"workers", workers,
	)
	return items
}
