package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/bayesab/internal/domain"
	"github.com/alejandrodnm/bayesab/internal/ports"
	"github.com/alejandrodnm/bayesab/internal/simulation"
)

var _ ports.Renderer = (*Console)(nil)

func sampleRun(t *testing.T) domain.Run {
	t.Helper()
	exp := domain.Experiment{
		Name: "checkout",
		A:    domain.Variant{Trials: 1000, Positives: 100},
		B:    domain.Variant{Trials: 1000, Positives: 130},
		Seed: 7,
	}.WithDefaults()
	res, err := simulation.Run(exp)
	require.NoError(t, err)
	return domain.Run{ID: "0123456789abcdef", Experiment: exp, Result: res, CreatedAt: time.Now()}
}

func TestConsole_Render(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	require.NoError(t, c.Render(context.Background(), sampleRun(t)))
	out := buf.String()

	assert.Contains(t, out, "checkout")
	assert.Contains(t, out, "P(B > A) =")
	assert.Contains(t, out, "Posterior rate density")
	assert.Contains(t, out, "Posterior difference distribution")
	assert.Contains(t, out, "Beta(101, 901)")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "97.5%")
}

func TestConsole_DrawPosteriors_GroupsBins(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)
	run := sampleRun(t)

	require.NoError(t, c.DrawPosteriors(context.Background(), run.Result.AHistogram, run.Result.BHistogram))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// título + leyenda + 2 filas (A y B) por grupo
	assert.Len(t, lines, 2+2*defaultRows)
}

func TestConsole_DrawPosteriors_ScaleMismatch(t *testing.T) {
	c := NewConsoleWriter(&bytes.Buffer{})
	a, err := domain.NewHistogram([]float64{0.1, 0.2}, 0, 1, 10)
	require.NoError(t, err)
	b, err := domain.NewHistogram([]float64{0.1, 0.2}, 0, 2, 10)
	require.NoError(t, err)

	assert.Error(t, c.DrawPosteriors(context.Background(), a, b))
}

func TestConsole_DrawDifference_MarksPercentileRows(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	h, err := domain.NewHistogram([]float64{-0.5, 0, 0, 0.5}, -1, 1, 4)
	require.NoError(t, err)
	markers := []domain.PercentileResult{
		{Probability: 0.5, Value: 0, BinIndex: 2, CountAtBin: 3},
	}

	require.NoError(t, c.DrawDifference(context.Background(), h, markers))

	var marked []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "<-") {
			marked = append(marked, line)
		}
	}
	require.Len(t, marked, 1)
	assert.Contains(t, marked[0], "50.0%(3)")
	assert.Contains(t, marked[0], "[+0.0000, +0.5000)")
}

func TestConsole_PrintHistory(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.PrintHistory(nil)
	assert.Contains(t, buf.String(), "no runs stored")

	buf.Reset()
	c.PrintHistory([]domain.Run{sampleRun(t)})
	assert.Contains(t, buf.String(), "01234567")
	assert.NotContains(t, buf.String(), "0123456789abcdef")
	assert.Contains(t, buf.String(), "100/1000")
}

func TestConsole_PrintBatch(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.PrintBatch([]domain.BatchItem{
		{Index: 0, Run: sampleRun(t)},
		{Index: 1, Err: errors.New("boom")},
	})
	out := buf.String()
	assert.Contains(t, out, "checkout")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "boom")
}
