package worker

import (
	"context"
	"testing"
	"time"

	"censuspop/internal/config"
	"censuspop/internal/model"
	"censuspop/internal/service/population"
	"censuspop/internal/service/zone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache map[string][]byte

func (m memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m[key] = value
	return nil
}

func TestWarmCache(t *testing.T) {
	zs := zone.NewZoneService()
	for _, name := range config.DefaultCityNames() {
		schema, ok := config.City(name)
		require.True(t, ok)
		zs.AddDataset(zone.NewDataset(schema, []model.ZoneRecord{{
			City: name, Key: "1", Population: 10, HasPopulation: true,
			Geometry: "POLYGON ((0 0, 1 0, 1 1, 0 0))",
		}}))
	}

	cache := memCache{}
	svc := population.NewService(zs, population.WithCache(cache, time.Minute))

	assert.Equal(t, 2, WarmCache(context.Background(), svc))
	assert.Contains(t, cache, population.CensusZonesKey("barcelona", 0))
	assert.Contains(t, cache, population.CensusZonesKey("l_hospitalet", 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Zero(t, WarmCache(ctx, svc))
}
