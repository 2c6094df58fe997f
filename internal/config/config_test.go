package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCityNames(t *testing.T) {
	assert.Equal(t, []string{"barcelona", "l_hospitalet"}, Config{}.CityNames())
	assert.Equal(t, []string{"barcelona"}, Config{Cities: " barcelona , "}.CityNames())
}

func TestBuiltInSchemas(t *testing.T) {
	bcn, ok := City("barcelona")
	require.True(t, ok)
	assert.True(t, bcn.CompositeKey)
	assert.Equal(t, ',', bcn.GeoSeparator)

	lh, ok := City("l_hospitalet")
	require.True(t, ok)
	assert.True(t, lh.GeoLatin1)
	assert.True(t, lh.AggregatePopulation)
	assert.Equal(t, "13", lh.KeyRemap["16"])

	_, ok = City("madrid")
	assert.False(t, ok)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test-missing")
	t.Setenv("PORT", ":9999")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Port)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, int64(16<<20), cfg.MaxUploadBytes)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
}
