package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var settingKeys = []string{
	"HTTP_PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"LOG_LEVEL", "LOG_FORMAT", "DISPATCH_CONFIG", "EVENTS_CHANNEL", "STORE",
}

// clearSettings unsets every setting for the duration of the test.
func clearSettings(t *testing.T) {
	t.Helper()
	for _, key := range settingKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearSettings(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.EventsChannel)
	assert.Equal(t, DefaultTuning(), cfg.Tuning)
}

func TestLoadConfig_EnvFileSeedsEnvironment(t *testing.T) {
	clearSettings(t)
	envFile := writeFile(t, ".env", "HTTP_PORT=9090\nSTORE=memory\nLOG_FORMAT=console\nEVENTS_CHANNEL=order_events\n")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "order_events", cfg.EventsChannel)
}

func TestLoadConfig_ProcessEnvironmentWins(t *testing.T) {
	clearSettings(t)
	envFile := writeFile(t, ".env", "HTTP_PORT=9090\n")
	t.Setenv("HTTP_PORT", "7070")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTPPort)
}

func TestLoadConfig_TuningFile(t *testing.T) {
	clearSettings(t)
	t.Setenv("DISPATCH_CONFIG", writeFile(t, "dispatch.yml", `
courier_capacity: 5
freshness_threshold: 2m
direct_dispatch_origins: [ecommerce]
`))

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	planner := cfg.Tuning.PlannerConfig()
	assert.Equal(t, 5, planner.Capacity)
	assert.Equal(t, 2*time.Minute, planner.FreshnessThreshold)
	assert.Equal(t, DefaultTuning().AverageSpeedKmh, planner.AverageSpeedKmh)
	assert.Equal(t, 5, cfg.Tuning.PipelineConfig().CourierCapacity)

	policy, err := cfg.Tuning.DispatchPolicy()
	require.NoError(t, err)
	assert.Equal(t, []order.Origin{order.OriginEcommerce}, policy.DirectDispatchOrigins)
	assert.True(t, policy.RequiresPrep(order.OriginBranch))
}

func TestLoadTuning(t *testing.T) {
	t.Run("empty file keeps defaults", func(t *testing.T) {
		tuning, err := LoadTuning(writeFile(t, "empty.yml", ""))
		require.NoError(t, err)
		assert.Equal(t, DefaultTuning(), tuning)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := LoadTuning(writeFile(t, "typo.yml", "courier_capacty: 4\n"))
		assert.ErrorContains(t, err, "courier_capacty")
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := LoadTuning(writeFile(t, "bad.yml", "trail_retention: soon\n"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTuning(filepath.Join(t.TempDir(), "nope.yml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			DBHost:    "localhost",
			LogLevel:  "debug",
			LogFormat: "json",
			Store:     StorePostgres,
			Tuning:    DefaultTuning(),
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"unknown store", func(c *Config) { c.Store = "redis" }, "STORE"},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"unknown log level", func(c *Config) { c.LogLevel = "chatty" }, "LOG_LEVEL"},
		{"zero capacity", func(c *Config) { c.Tuning.CourierCapacity = 0 }, "courier_capacity"},
		{"zero speed", func(c *Config) { c.Tuning.AverageSpeedKmh = 0 }, "average_speed_kmh"},
		{"negative threshold", func(c *Config) { c.Tuning.FreshnessThreshold = -time.Second }, "freshness_threshold"},
		{"unknown origin", func(c *Config) { c.Tuning.DirectDispatchOrigins = []string{"drone"} }, "drone"},
		{"negative retries", func(c *Config) { c.Tuning.MaxConflictRetries = -1 }, "max_conflict_retries"},
		{"no sweep schedule", func(c *Config) { c.Tuning.SweepSchedule = "" }, "sweep_schedule"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err), err.Error())
			assert.ErrorContains(t, err, tt.field)
		})
	}
}

func TestConfig_Validate_MemoryStoreNeedsNoDatabase(t *testing.T) {
	cfg := Config{LogLevel: "info", LogFormat: "console", Store: StoreMemory, Tuning: DefaultTuning()}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{DBHost: "db", DBPort: "5433", DBUser: "u", DBPassword: "p", DBName: "dispatch", DBSslMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=dispatch sslmode=require", cfg.DSN())
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger("warn", format)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(-1))
		assert.True(t, logger.Core().Enabled(1))
	}

	_, err := NewLogger("loud", "json")
	assert.Error(t, err)
}
