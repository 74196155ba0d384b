package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/bayesab/internal/domain"
)

const (
	defaultRows  = 25 // filas máximas por gráfico: los bins se agrupan
	defaultWidth = 40 // ancho de la barra más larga
)

// Console implementa ports.Renderer dibujando los histogramas como barras de texto.
type Console struct {
	out   io.Writer
	rows  int
	width int
}

// NewConsole crea un renderer que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout, rows: defaultRows, width: defaultWidth}
}

// NewConsoleWriter crea un renderer para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, rows: defaultRows, width: defaultWidth}
}

// Render imprime resumen, gráfico de posteriores, gráfico de diferencias y percentiles.
func (c *Console) Render(ctx context.Context, run domain.Run) error {
	c.printSummary(run)
	if err := c.DrawPosteriors(ctx, run.Result.AHistogram, run.Result.BHistogram); err != nil {
		return err
	}
	if err := c.DrawDifference(ctx, run.Result.DiffHistogram, run.Result.Percentiles); err != nil {
		return err
	}
	c.printPercentiles(run.Result.Percentiles)
	return nil
}

// DrawPosteriors dibuja A y B lado a lado sobre la escala compartida.
func (c *Console) DrawPosteriors(_ context.Context, a, b domain.Histogram) error {
	if a.Bins() != b.Bins() || a.Min != b.Min || a.BinWidth != b.BinWidth {
		return fmt.Errorf("render.DrawPosteriors: histograms do not share a scale")
	}
	ga, gb := c.group(a), c.group(b)
	scale := max(maxOf(ga.counts), maxOf(gb.counts))

	fmt.Fprintln(c.out, "\n=== Posterior rate density ===")
	fmt.Fprintln(c.out, "  A = #   B = =")
	for i := range ga.counts {
		fmt.Fprintf(c.out, "  %s  A %-*s %6d\n", ga.label(i), c.width, bar(ga.counts[i], scale, c.width, '#'), ga.counts[i])
		fmt.Fprintf(c.out, "  %s  B %-*s %6d\n", strings.Repeat(" ", len(ga.label(i))), c.width, bar(gb.counts[i], scale, c.width, '='), gb.counts[i])
	}
	return nil
}

// DrawDifference dibuja B - A y marca en qué fila cae cada percentil.
// La altura del marcador es el conteo del bin del percentil.
func (c *Console) DrawDifference(_ context.Context, diff domain.Histogram, markers []domain.PercentileResult) error {
	g := c.group(diff)
	scale := maxOf(g.counts)

	byRow := make(map[int][]string)
	for _, m := range markers {
		r := g.rowOf(m.BinIndex)
		byRow[r] = append(byRow[r], fmt.Sprintf("%.1f%%(%d)", m.Probability*100, m.CountAtBin))
	}

	fmt.Fprintln(c.out, "\n=== Posterior difference distribution (B - A) ===")
	for i := range g.counts {
		line := fmt.Sprintf("  %s  %-*s %6d", g.label(i), c.width, bar(g.counts[i], scale, c.width, '#'), g.counts[i])
		if ms, ok := byRow[i]; ok {
			line += "  <- " + strings.Join(ms, " ")
		}
		fmt.Fprintln(c.out, line)
	}
	return nil
}

// PrintHistory imprime el historial de corridas.
func (c *Console) PrintHistory(runs []domain.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "no runs stored")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Name", "Created", "A", "B", "Samples", "Seed", "P(B>A)")
	for _, r := range runs {
		table.Append(
			shortID(r.ID),
			r.Experiment.Name,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			variantLabel(r.Experiment.A),
			variantLabel(r.Experiment.B),
			fmt.Sprintf("%d", r.Experiment.Samples),
			fmt.Sprintf("%d", r.Experiment.Seed),
			fmt.Sprintf("%.4f", r.Result.WinProbability),
		)
	}
	table.Render()
}

// PrintBatch imprime una fila por experimento del batch, con el error si falló.
func (c *Console) PrintBatch(items []domain.BatchItem) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Name", "A", "B", "P(B>A)", "Median diff", "95% interval", "Status")
	for _, it := range items {
		if it.Err != nil {
			table.Append(fmt.Sprintf("%d", it.Index+1), "", "", "", "", "", "", "ERROR: "+it.Err.Error())
			continue
		}
		exp, res := it.Run.Experiment, it.Run.Result
		table.Append(
			fmt.Sprintf("%d", it.Index+1),
			it.Run.Label(),
			variantLabel(exp.A),
			variantLabel(exp.B),
			fmt.Sprintf("%.4f", res.WinProbability),
			percentileLabel(res.Percentiles, 0.5),
			intervalLabel(res.Percentiles, 0.025, 0.975),
			"ok",
		)
	}
	table.Render()
}

// printSummary imprime el titular: P(B > A) y los posteriores.
func (c *Console) printSummary(run domain.Run) {
	exp, res := run.Experiment, run.Result
	fmt.Fprintf(c.out, "\n[%s] %s  samples=%d bins=%d seed=%d\n",
		run.CreatedAt.Local().Format("15:04:05"), run.Label(), exp.Samples, exp.Bins, exp.Seed)

	table := tablewriter.NewWriter(c.out)
	table.Header("Variant", "Trials", "Positives", "Observed", "Posterior", "Mean")
	table.Append("A", fmt.Sprintf("%g", exp.A.Trials), fmt.Sprintf("%g", exp.A.Positives),
		fmt.Sprintf("%.4f", exp.A.Rate()), betaLabel(res.PosteriorA), fmt.Sprintf("%.4f", res.PosteriorA.Mean()))
	table.Append("B", fmt.Sprintf("%g", exp.B.Trials), fmt.Sprintf("%g", exp.B.Positives),
		fmt.Sprintf("%.4f", exp.B.Rate()), betaLabel(res.PosteriorB), fmt.Sprintf("%.4f", res.PosteriorB.Mean()))
	table.Render()

	fmt.Fprintf(c.out, "  P(B > A) = %.4f\n", res.WinProbability)
}

// printPercentiles imprime la tabla de marcadores.
func (c *Console) printPercentiles(ps []domain.PercentileResult) {
	if len(ps) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Percentile", "B - A", "Bin", "Count")
	for _, p := range ps {
		table.Append(
			fmt.Sprintf("%.1f%%", p.Probability*100),
			fmt.Sprintf("%+.5f", p.Value),
			fmt.Sprintf("%d", p.BinIndex),
			fmt.Sprintf("%d", p.CountAtBin),
		)
	}
	table.Render()
}

// --- helpers internos ---

// grouped es un histograma re-agrupado en filas para la consola.
type grouped struct {
	h      domain.Histogram
	size   int // bins por fila
	counts []uint
}

func (c *Console) group(h domain.Histogram) grouped {
	n := h.Bins()
	rows := max(min(n, c.rows), 1)
	size := max((n+rows-1)/rows, 1)
	g := grouped{h: h, size: size}
	for start := 0; start < n; start += size {
		var sum uint
		for i := start; i < min(start+size, n); i++ {
			sum += h.Counts[i]
		}
		g.counts = append(g.counts, sum)
	}
	return g
}

func (g grouped) rowOf(bin int) int {
	return min(bin/g.size, len(g.counts)-1)
}

func (g grouped) label(row int) string {
	lo := g.h.Min + g.h.BinWidth*float64(row*g.size)
	hi := g.h.Min + g.h.BinWidth*float64(min((row+1)*g.size, g.h.Bins()))
	return fmt.Sprintf("[%+.4f, %+.4f)", lo, hi)
}

func bar(count, scale uint, width int, ch rune) string {
	if scale == 0 || count == 0 {
		return ""
	}
	n := max(int(float64(count)/float64(scale)*float64(width)+0.5), 1)
	return strings.Repeat(string(ch), n)
}

func maxOf(xs []uint) uint {
	var m uint
	for _, x := range xs {
		m = max(m, x)
	}
	return m
}

func variantLabel(v domain.Variant) string {
	return fmt.Sprintf("%g/%g", v.Positives, v.Trials)
}

func betaLabel(p domain.BetaParams) string {
	return fmt.Sprintf("Beta(%g, %g)", p.Alpha, p.Beta)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func percentileLabel(ps []domain.PercentileResult, p float64) string {
	for _, r := range ps {
		if r.Probability == p {
			return fmt.Sprintf("%+.4f", r.Value)
		}
	}
	return "-"
}

func intervalLabel(ps []domain.PercentileResult, lo, hi float64) string {
	l, h := percentileLabel(ps, lo), percentileLabel(ps, hi)
	if l == "-" || h == "-" {
		return "-"
	}
	return fmt.Sprintf("[%s, %s]", l, h)
}
