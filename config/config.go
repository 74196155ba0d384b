package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/bayesab/internal/domain"
	"github.com/alejandrodnm/bayesab/internal/request"
)

// Config es la configuración completa de bayesab.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// SimulationConfig son los defaults de los experimentos que no los fijan.
type SimulationConfig struct {
	Samples     int       `yaml:"samples"`
	Bins        int       `yaml:"bins"`
	PriorPos    float64   `yaml:"prior_pos"`
	PriorNeg    float64   `yaml:"prior_neg"`
	Percentiles []float64 `yaml:"percentiles"`
	Seed        *uint64   `yaml:"seed"`    // nil = seed nueva por corrida (queda registrada)
	Workers     int       `yaml:"workers"` // goroutines para batch (0 = NumCPU)
}

// ServerConfig controla la API HTTP.
type ServerConfig struct {
	Addr       string  `yaml:"addr"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
	MaxSamples int     `yaml:"max_samples"` // tope de n_samples por request
	MaxBins    int     `yaml:"max_bins"`    // tope de n_bins por request
}

// StorageConfig controla dónde se guarda el historial de corridas.
type StorageConfig struct {
	DSN           string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	RetentionDays int    `yaml:"retention_days"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Si el YAML no existe se usan solo los defaults y las variables de entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// sin archivo: defaults
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// Retention devuelve la retención del historial como time.Duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Storage.RetentionDays) * 24 * time.Hour
}

// Defaults traduce la sección simulation a los defaults del parser de requests.
func (c *Config) Defaults() request.Defaults {
	d := request.DefaultDefaults()
	d.Prior = domain.Prior{Pos: c.Simulation.PriorPos, Neg: c.Simulation.PriorNeg}
	d.Samples = c.Simulation.Samples
	d.Bins = c.Simulation.Bins
	d.Percentiles = slices.Clone(c.Simulation.Percentiles)
	if c.Simulation.Seed != nil {
		seed := *c.Simulation.Seed
		d.Seed = &seed
	}
	return d
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BAYESAB_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("BAYESAB_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BAYESAB_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BAYESAB_SEED: %w", err)
		}
		cfg.Simulation.Seed = &seed
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Simulation.Samples <= 0 {
		cfg.Simulation.Samples = domain.DefaultSamples
	}
	if cfg.Simulation.Bins <= 0 {
		cfg.Simulation.Bins = domain.DefaultBins
	}
	if cfg.Simulation.PriorPos <= 0 {
		cfg.Simulation.PriorPos = domain.DefaultPrior.Pos
	}
	if cfg.Simulation.PriorNeg <= 0 {
		cfg.Simulation.PriorNeg = domain.DefaultPrior.Neg
	}
	if len(cfg.Simulation.Percentiles) == 0 {
		cfg.Simulation.Percentiles = slices.Clone(domain.DefaultPercentiles)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RatePerSec <= 0 {
		cfg.Server.RatePerSec = 20
	}
	if cfg.Server.Burst <= 0 {
		cfg.Server.Burst = 40
	}
	if cfg.Server.MaxSamples <= 0 {
		cfg.Server.MaxSamples = 1_000_000
	}
	if cfg.Server.MaxBins <= 0 {
		cfg.Server.MaxBins = 10_000
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "bayesab.db"
	}
	if cfg.Storage.RetentionDays <= 0 {
		cfg.Storage.RetentionDays = 90
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
