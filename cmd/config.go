package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"dispatch/internal/core/application/tracking"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/jobs"
	"dispatch/internal/pkg/errs"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds the infrastructure settings read from the environment and
// the dispatch tuning read from DISPATCH_CONFIG.
type Config struct {
	HTTPPort      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSslMode     string
	LogLevel      string
	LogFormat     string
	TuningFile    string
	EventsChannel string
	Store         string

	Tuning Tuning
}

// Tuning is the YAML dispatch tuning file.
type Tuning struct {
	FreshnessThreshold    time.Duration `yaml:"freshness_threshold"`
	CourierCapacity       int           `yaml:"courier_capacity"`
	LoadPenaltyKm         float64       `yaml:"load_penalty_km"`
	AverageSpeedKmh       float64       `yaml:"average_speed_kmh"`
	HandlingTime          time.Duration `yaml:"handling_time"`
	DefaultETA            time.Duration `yaml:"default_eta"`
	MaxConflictRetries    int           `yaml:"max_conflict_retries"`
	TrailRetention        time.Duration `yaml:"trail_retention"`
	TrailMaxSamples       int           `yaml:"trail_max_samples"`
	SweepSchedule         string        `yaml:"sweep_schedule"`
	SweepConcurrency      int           `yaml:"sweep_concurrency"`
	SweepBatchSize        int           `yaml:"sweep_batch_size"`
	PruneSchedule         string        `yaml:"prune_schedule"`
	DirectDispatchOrigins []string      `yaml:"direct_dispatch_origins"`
}

func DefaultTuning() Tuning {
	planner := services.DefaultPlannerConfig()
	feed := tracking.DefaultFeedConfig()
	sweep := jobs.DefaultSweepConfig()

	origins := make([]string, 0, len(commands.DefaultDispatchPolicy().DirectDispatchOrigins))
	for _, o := range commands.DefaultDispatchPolicy().DirectDispatchOrigins {
		origins = append(origins, o.String())
	}

	return Tuning{
		FreshnessThreshold:    planner.FreshnessThreshold,
		CourierCapacity:       planner.Capacity,
		LoadPenaltyKm:         planner.LoadPenaltyKm,
		AverageSpeedKmh:       planner.AverageSpeedKmh,
		HandlingTime:          planner.HandlingTime,
		DefaultETA:            planner.DefaultETA,
		MaxConflictRetries:    3,
		TrailRetention:        feed.Retention,
		TrailMaxSamples:       feed.MaxSamples,
		SweepSchedule:         sweep.Schedule,
		SweepConcurrency:      sweep.Concurrency,
		SweepBatchSize:        sweep.BatchSize,
		PruneSchedule:         "0 * * * * *",
		DirectDispatchOrigins: origins,
	}
}

// LoadConfig seeds the environment from envFile when it exists, reads the
// settings and the tuning file, and validates the result.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		HTTPPort:      env("HTTP_PORT", "8080"),
		DBHost:        env("DB_HOST", "localhost"),
		DBPort:        env("DB_PORT", "5432"),
		DBUser:        env("DB_USER", "postgres"),
		DBPassword:    env("DB_PASSWORD", ""),
		DBName:        env("DB_NAME", "dispatch"),
		DBSslMode:     env("DB_SSLMODE", "disable"),
		LogLevel:      env("LOG_LEVEL", "info"),
		LogFormat:     env("LOG_FORMAT", "json"),
		TuningFile:    env("DISPATCH_CONFIG", ""),
		EventsChannel: env("EVENTS_CHANNEL", ""),
		Store:         env("STORE", StorePostgres),
		Tuning:        DefaultTuning(),
	}

	if cfg.TuningFile != "" {
		tuning, err := LoadTuning(cfg.TuningFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Tuning = tuning
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// LoadTuning reads path over the defaults. Keys missing from the file keep
// their default; unknown keys are rejected.
func LoadTuning(path string) (Tuning, error) {
	file, err := os.Open(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("open tuning file: %w", err)
	}
	defer file.Close()

	tuning := DefaultTuning()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err = decoder.Decode(&tuning); err != nil && !errors.Is(err, io.EOF) {
		return Tuning{}, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	return tuning, nil
}

func (c Config) Validate() error {
	var problems []error

	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("STORE",
			fmt.Errorf("%q is neither %s nor %s", c.Store, StorePostgres, StoreMemory)))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("LOG_FORMAT",
			fmt.Errorf("%q is neither json nor console", c.LogFormat)))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("LOG_LEVEL", err))
	}
	if c.Store == StorePostgres && c.DBHost == "" {
		problems = append(problems, errs.NewValueIsRequiredError("DB_HOST"))
	}

	problems = append(problems, c.Tuning.Validate())
	return errors.Join(problems...)
}

func (t Tuning) Validate() error {
	var problems []error

	positive := func(name string, ok bool) {
		if !ok {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(name, errors.New("must be positive")))
		}
	}
	positive("freshness_threshold", t.FreshnessThreshold > 0)
	positive("courier_capacity", t.CourierCapacity > 0)
	positive("average_speed_kmh", t.AverageSpeedKmh > 0)
	positive("trail_retention", t.TrailRetention > 0)
	positive("trail_max_samples", t.TrailMaxSamples > 0)
	positive("sweep_concurrency", t.SweepConcurrency > 0)

	if t.LoadPenaltyKm < 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("load_penalty_km", t.LoadPenaltyKm, 0, "+inf"))
	}
	if t.MaxConflictRetries < 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("max_conflict_retries", t.MaxConflictRetries, 0, "+inf"))
	}
	if t.SweepSchedule == "" {
		problems = append(problems, errs.NewValueIsRequiredError("sweep_schedule"))
	}
	if t.PruneSchedule == "" {
		problems = append(problems, errs.NewValueIsRequiredError("prune_schedule"))
	}
	if _, err := t.DispatchPolicy(); err != nil {
		problems = append(problems, err)
	}

	return errors.Join(problems...)
}

func (t Tuning) PlannerConfig() services.PlannerConfig {
	return services.PlannerConfig{
		FreshnessThreshold: t.FreshnessThreshold,
		Capacity:           t.CourierCapacity,
		LoadPenaltyKm:      t.LoadPenaltyKm,
		AverageSpeedKmh:    t.AverageSpeedKmh,
		HandlingTime:       t.HandlingTime,
		DefaultETA:         t.DefaultETA,
	}
}

func (t Tuning) PipelineConfig() commands.PipelineConfig {
	return commands.PipelineConfig{
		MaxConflictRetries: t.MaxConflictRetries,
		CourierCapacity:    t.CourierCapacity,
	}
}

func (t Tuning) FeedConfig() tracking.FeedConfig {
	return tracking.FeedConfig{Retention: t.TrailRetention, MaxSamples: t.TrailMaxSamples}
}

func (t Tuning) SweepConfig() jobs.SweepConfig {
	return jobs.SweepConfig{
		Schedule:    t.SweepSchedule,
		Concurrency: t.SweepConcurrency,
		BatchSize:   t.SweepBatchSize,
	}
}

// DispatchPolicy parses the direct dispatch origins.
func (t Tuning) DispatchPolicy() (commands.DispatchPolicy, error) {
	origins := make([]order.Origin, 0, len(t.DirectDispatchOrigins))
	for _, name := range t.DirectDispatchOrigins {
		origin, err := order.ParseOrigin(name)
		if err != nil {
			return commands.DispatchPolicy{}, fmt.Errorf("direct_dispatch_origins: %w", err)
		}
		origins = append(origins, origin)
	}
	return commands.DispatchPolicy{DirectDispatchOrigins: origins}, nil
}

// DSN is the libpq connection string shared by GORM and the NOTIFY listener.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}
