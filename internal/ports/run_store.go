package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/bayesab/internal/domain"
)

// RunStore persiste el historial de corridas. Vive fuera del motor: el motor
// no guarda estado entre invocaciones.
type RunStore interface {
	// SaveRun persiste una corrida completa.
	SaveRun(ctx context.Context, run domain.Run) error

	// GetRun devuelve una corrida por ID, o ErrRunNotFound.
	GetRun(ctx context.Context, id string) (domain.Run, error)

	// ListRuns devuelve las últimas corridas, más recientes primero.
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)

	// GetHistory devuelve las corridas creadas en el rango de tiempo dado.
	GetHistory(ctx context.Context, from, to time.Time) ([]domain.Run, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
