package ports

import (
	"context"

	"github.com/alejandrodnm/bayesab/internal/domain"
)

// Renderer presenta el resultado de una corrida al usuario.
// El motor no depende de ninguna implementación: solo entrega bins y marcadores.
type Renderer interface {
	// Render presenta la corrida completa: resumen, ambos gráficos y percentiles.
	Render(ctx context.Context, run domain.Run) error

	// DrawPosteriors dibuja los histogramas de A y B sobre la escala compartida.
	DrawPosteriors(ctx context.Context, a, b domain.Histogram) error

	// DrawDifference dibuja el histograma de B - A con un marcador por percentil.
	DrawDifference(ctx context.Context, diff domain.Histogram, markers []domain.PercentileResult) error
}
