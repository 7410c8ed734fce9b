package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vatkit/pkg/config"
)

type lookupConfig struct {
	BaseURL    string        `env:"CFGTEST_BASE_URL" envDefault:"https://example.test"`
	Timeout    time.Duration `env:"CFGTEST_TIMEOUT" envDefault:"10s"`
	MaxRetries int           `env:"CFGTEST_MAX_RETRIES" envDefault:"2"`
}

type requiredConfig struct {
	Required string `env:"CFGTEST_REQUIRED,required"`
}

type prefixedConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`
}

type fileConfig struct {
	FromFile string `env:"CFGTEST_FROM_FILE"`
	Override string `env:"CFGTEST_OVERRIDE"`
}

func TestLoad(t *testing.T) {
	t.Run("reads environment variables", func(t *testing.T) {
		t.Setenv("CFGTEST_BASE_URL", "https://vies.test")
		t.Setenv("CFGTEST_TIMEOUT", "3s")
		t.Setenv("CFGTEST_MAX_RETRIES", "5")

		var cfg lookupConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "https://vies.test", cfg.BaseURL)
		assert.Equal(t, 3*time.Second, cfg.Timeout)
		assert.Equal(t, 5, cfg.MaxRetries)
	})

	t.Run("applies defaults", func(t *testing.T) {
		var cfg lookupConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "https://example.test", cfg.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
		assert.Equal(t, 2, cfg.MaxRetries)
	})

	t.Run("sees changes between calls", func(t *testing.T) {
		t.Setenv("CFGTEST_MAX_RETRIES", "1")
		var first lookupConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("CFGTEST_MAX_RETRIES", "7")
		var second lookupConfig
		require.NoError(t, config.Load(&second))

		assert.Equal(t, 1, first.MaxRetries)
		assert.Equal(t, 7, second.MaxRetries)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("CFGTEST_TIMEOUT", "soon")

		var cfg lookupConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *lookupConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})

	t.Run("prefix", func(t *testing.T) {
		t.Setenv("CFGTEST_API_ADDR", ":9090")

		var cfg prefixedConfig
		require.NoError(t, config.Load(&cfg, config.WithPrefix("CFGTEST_API_")))
		assert.Equal(t, ":9090", cfg.Addr)
	})
}

func TestLoad_EnvFiles(t *testing.T) {
	t.Run("loads explicit file without overriding process env", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env.test")
		content := "CFGTEST_FROM_FILE=file-value\nCFGTEST_OVERRIDE=file-value\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		t.Setenv("CFGTEST_OVERRIDE", "process-value")
		t.Cleanup(func() { _ = os.Unsetenv("CFGTEST_FROM_FILE") })

		var cfg fileConfig
		require.NoError(t, config.Load(&cfg, config.WithEnvFiles(path)))

		assert.Equal(t, "file-value", cfg.FromFile)
		assert.Equal(t, "process-value", cfg.Override)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		var cfg fileConfig
		err := config.Load(&cfg, config.WithEnvFiles(filepath.Join(t.TempDir(), "absent.env")))
		assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on error", func(t *testing.T) {
		var cfg requiredConfig
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})

	t.Run("loads", func(t *testing.T) {
		t.Setenv("CFGTEST_REQUIRED", "present")

		var cfg requiredConfig
		assert.NotPanics(t, func() { config.MustLoad(&cfg) })
		assert.Equal(t, "present", cfg.Required)
	})
}
