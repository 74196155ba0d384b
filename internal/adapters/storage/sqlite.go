package storage

// sqlite.go: historial de corridas.
//
// Estrategia:
//   - `runs`: UNA fila por corrida. Entradas del experimento en columnas (para
//     poder filtrar/ordenar), resultado agregado en JSON (histogramas + percentiles).
//   - Las muestras crudas NUNCA se persisten: son reproducibles con la seed.
//   - Prune automático al arrancar: corridas más viejas que la retención.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/bayesab/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    name            TEXT     NOT NULL DEFAULT '',
    created_at      TEXT     NOT NULL, -- timeLayout, ancho fijo: orden lexicográfico = cronológico
    duration_us     INTEGER  NOT NULL DEFAULT 0,
    a_tot           REAL     NOT NULL,
    a_pos           REAL     NOT NULL,
    b_tot           REAL     NOT NULL,
    b_pos           REAL     NOT NULL,
    prior_pos       REAL     NOT NULL,
    prior_neg       REAL     NOT NULL,
    n_samples       INTEGER  NOT NULL,
    n_bins          INTEGER  NOT NULL,
    seed            TEXT     NOT NULL, -- uint64 no entra en INTEGER (int64)
    win_probability REAL     NOT NULL,
    result_json     TEXT     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_name    ON runs(name);
`

const (
	defaultRetention = 90 * 24 * time.Hour
	timeLayout       = "2006-01-02T15:04:05.000000000Z"
)

// storedResult es la parte del resultado que va serializada.
type storedResult struct {
	PosteriorA    domain.BetaParams         `json:"posterior_a"`
	PosteriorB    domain.BetaParams         `json:"posterior_b"`
	AHistogram    domain.Histogram          `json:"a_histogram"`
	BHistogram    domain.Histogram          `json:"b_histogram"`
	DiffHistogram domain.Histogram          `json:"diff_histogram"`
	Percentiles   []domain.PercentileResult `json:"percentile_results"`
	Probabilities []float64                 `json:"diff_percentiles"`
}

// SQLiteStorage implementa ports.RunStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia corridas más viejas que retention (0 = 90 días).
func NewSQLiteStorage(path string, retention time.Duration) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	if retention <= 0 {
		retention = defaultRetention
	}
	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background(), retention)
	return s, nil
}

// SaveRun persiste una corrida. Un ID repetido es un error.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.Run) error {
	exp, res := run.Experiment, run.Result
	blob, err := json.Marshal(storedResult{
		PosteriorA:    res.PosteriorA,
		PosteriorB:    res.PosteriorB,
		AHistogram:    res.AHistogram,
		BHistogram:    res.BHistogram,
		DiffHistogram: res.DiffHistogram,
		Percentiles:   res.Percentiles,
		Probabilities: exp.Percentiles,
	})
	if err != nil {
		return fmt.Errorf("storage.SaveRun: marshal result: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
			(id, name, created_at, duration_us, a_tot, a_pos, b_tot, b_pos,
			 prior_pos, prior_neg, n_samples, n_bins, seed, win_probability, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		exp.Name,
		formatTime(run.CreatedAt),
		run.Duration.Microseconds(),
		exp.A.Trials, exp.A.Positives,
		exp.B.Trials, exp.B.Positives,
		exp.Prior.Pos, exp.Prior.Neg,
		exp.Samples, exp.Bins,
		strconv.FormatUint(exp.Seed, 10),
		res.WinProbability,
		string(blob),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert %s: %w", run.ID, err)
	}
	return nil
}

const selectRuns = `
	SELECT id, name, created_at, duration_us, a_tot, a_pos, b_tot, b_pos,
	       prior_pos, prior_neg, n_samples, n_bins, seed, win_probability, result_json
	FROM runs`

// GetRun devuelve una corrida por ID, o domain.ErrRunNotFound.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (domain.Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Run{}, fmt.Errorf("storage.GetRun: %s: %w", id, domain.ErrRunNotFound)
	}
	if err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: %w", err)
	}
	return run, nil
}

// ListRuns devuelve las últimas limit corridas, más recientes primero.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows, "storage.ListRuns")
}

// GetHistory devuelve las corridas con created_at en [from, to], más recientes primero.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]domain.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		selectRuns+` WHERE created_at BETWEEN ? AND ? ORDER BY created_at DESC`,
		formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows, "storage.GetHistory")
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

type scanner interface {
	Scan(dest ...any) error
}

func collectRuns(rows *sql.Rows, op string) ([]domain.Run, error) {
	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(sc scanner) (domain.Run, error) {
	var (
		run        domain.Run
		durationUS int64
		seed, blob string
		createdAt  string
	)
	exp := &run.Experiment
	if err := sc.Scan(
		&run.ID,
		&exp.Name,
		&createdAt,
		&durationUS,
		&exp.A.Trials, &exp.A.Positives,
		&exp.B.Trials, &exp.B.Positives,
		&exp.Prior.Pos, &exp.Prior.Neg,
		&exp.Samples, &exp.Bins,
		&seed,
		&run.Result.WinProbability,
		&blob,
	); err != nil {
		return domain.Run{}, err
	}

	parsedSeed, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return domain.Run{}, fmt.Errorf("parse seed %q: %w", seed, err)
	}
	var sr storedResult
	if err := json.Unmarshal([]byte(blob), &sr); err != nil {
		return domain.Run{}, fmt.Errorf("parse result of %s: %w", run.ID, err)
	}

	exp.Seed = parsedSeed
	exp.Percentiles = sr.Probabilities
	run.Duration = time.Duration(durationUS) * time.Microsecond
	run.Result.PosteriorA = sr.PosteriorA
	run.Result.PosteriorB = sr.PosteriorB
	run.Result.AHistogram = sr.AHistogram
	run.Result.BHistogram = sr.BHistogram
	run.Result.DiffHistogram = sr.DiffHistogram
	run.Result.Percentiles = sr.Percentiles
	run.Result.Samples = exp.Samples
	run.Result.Seed = parsedSeed
	run.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.Run{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// pruneOld elimina corridas antiguas para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context, retention time.Duration) {
	cutoff := formatTime(time.Now().Add(-retention))
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
}
