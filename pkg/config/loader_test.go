package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/release-agent/pkg/config"
)

type testConfig struct {
	Host    string `env:"TEST_HOST" envDefault:"localhost"`
	Port    int    `env:"TEST_PORT" envDefault:"8003"`
	Secret  string `env:"TEST_SECRET,required"`
	Verbose bool   `env:"TEST_VERBOSE" envDefault:"false"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults and env overrides", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_SECRET", "shh")
		t.Setenv("TEST_PORT", "9000")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 9000, cfg.Port)
		assert.Equal(t, "shh", cfg.Secret)
		assert.False(t, cfg.Verbose)
	})

	t.Run("missing required variable", func(t *testing.T) {
		config.ResetCache()

		var cfg testConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("same type is parsed once and served from cache", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_SECRET", "first")

		var first testConfig
		require.NoError(t, config.Load(&first))

		// Environment changes after the first load are not observed.
		t.Setenv("TEST_SECRET", "second")
		var second testConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Secret)

		// Until the cache is reset explicitly.
		config.ResetCache()
		var third testConfig
		require.NoError(t, config.Load(&third))
		assert.Equal(t, "second", third.Secret)
	})

	t.Run("cached value is a copy", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_SECRET", "shh")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		cfg.Secret = "mutated"

		var again testConfig
		require.NoError(t, config.Load(&again))
		assert.Equal(t, "shh", again.Secret)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		require.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on missing required variable", func(t *testing.T) {
		config.ResetCache()

		var cfg testConfig
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})
}
