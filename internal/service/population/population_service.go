// Package population answers estimation and zone queries across every loaded
// city.
package population

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"censuspop/internal/config"
	"censuspop/internal/estimator"
	"censuspop/internal/geometry"
	"censuspop/internal/metrics"
	"censuspop/internal/model"
	"censuspop/internal/presentation"
	"censuspop/internal/service/zone"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	log "github.com/sirupsen/logrus"
)

var (
	ErrCityNotFound = errors.New("city not found")
	ErrZoneNotFound = errors.New("zone not found")
)

// Cache stores rendered payloads. *redis.Cache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
}

// Calculation is the aggregated estimate for one query polygon
type Calculation struct {
	// Population is the rounded sum over all cities
	Population int
	Statistics model.Statistics
}

// ZoneDetail describes a single zone
type ZoneDetail struct {
	Population   int              `json:"population"`
	District     string           `json:"district"`
	Neighborhood string           `json:"neighborhood"`
	GeoKey       string           `json:"geo_key"`
	AreaKm2      float64          `json:"area_km2"`
	GeoJSON      *geojson.Feature `json:"geojson"`
}

// Service wires the zone datasets to the estimator
type Service struct {
	zones      *zone.ZoneService
	cache      Cache
	cacheTTL   time.Duration
	workers    int
	newOptions func() []estimator.Option
}

// Option configures a Service
type Option func(*Service)

// WithCache caches rendered census-zones payloads for ttl
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithWorkers bounds Pass-2 concurrency of every estimate
func WithWorkers(n int) Option {
	return func(s *Service) {
		s.workers = n
	}
}

// WithSeed makes every estimate reproducible
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.newOptions = func() []estimator.Option {
			return []estimator.Option{estimator.WithSeed(seed)}
		}
	}
}

// NewService creates a population service over zones
func NewService(zones *zone.ZoneService, opts ...Option) *Service {
	s := &Service{
		zones:      zones,
		cacheTTL:   config.DefaultCacheTTL,
		newOptions: func() []estimator.Option { return nil },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculate estimates the population inside query over every loaded city.
// nPoints, when positive, overrides the Pass-2 sample size. Cities whose
// estimate fails are logged and left out.
func (s *Service) Calculate(ctx context.Context, query orb.Ring, nPoints *int) (Calculation, error) {
	cities := s.zones.Cities()
	if len(cities) == 0 {
		return Calculation{}, zone.ErrNotInitialized
	}

	est := estimator.New(append(s.newOptions(), estimator.WithWorkers(s.workers))...)
	queryBound := query.Bound()

	total := 0.0
	stats := model.Statistics{IntersectingZones: make([]model.IntersectingZone, 0)}
	for _, city := range cities {
		if err := ctx.Err(); err != nil {
			return Calculation{}, err
		}

		start := time.Now()
		cityStats, err := s.cityStatistics(est, query, s.zones.Candidates(city, queryBound), nPoints)
		metrics.ObserveEstimation(city, time.Since(start))
		if err != nil {
			log.Errorf("Error processing city %s: %v", city, err)
			continue
		}

		log.Debugf("%s: %d intersecting zones, %.1f people", city, cityStats.NumZones, cityStats.TotalPopulation)
		total += cityStats.TotalPopulation
		stats.IntersectingZones = append(stats.IntersectingZones, cityStats.IntersectingZones...)
	}

	// cities are summed unrounded and the total rounded once
	rounded := int(math.Round(total))
	stats.TotalPopulation = float64(rounded)
	stats.NumZones = len(stats.IntersectingZones)
	metrics.IntersectingZones.Observe(float64(stats.NumZones))

	return Calculation{Population: rounded, Statistics: stats}, nil
}

// cityStatistics isolates a panic in one city's estimate from the others
func (s *Service) cityStatistics(est *estimator.Estimator, query orb.Ring, zones []*model.Zone, nPoints *int) (stats model.Statistics, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("estimate panicked: %v", r)
		}
	}()
	return est.ZoneStatistics(query, zones, nPoints), nil
}

// CensusZones returns the zone FeatureCollection of a city as JSON. A positive
// sample keeps a fixed subset of zones. Payloads are served from the cache
// when one is configured.
func (s *Service) CensusZones(ctx context.Context, city string, sample int) ([]byte, error) {
	d, ok := s.zones.Dataset(city)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}

	key := CensusZonesKey(city, sample)
	if s.cache != nil {
		payload, hit, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			log.Warnf("Cache read failed for %s: %v", key, err)
		case hit:
			metrics.CacheHitsTotal.Inc()
			return payload, nil
		default:
			metrics.CacheMissesTotal.Inc()
		}
	}

	return s.renderCensusZones(ctx, d, key, sample)
}

// RefreshCensusZones re-renders the full payload of a city into the cache
func (s *Service) RefreshCensusZones(ctx context.Context, city string) error {
	d, ok := s.zones.Dataset(city)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}
	_, err := s.renderCensusZones(ctx, d, CensusZonesKey(city, 0), 0)
	return err
}

func (s *Service) renderCensusZones(ctx context.Context, d *zone.Dataset, key string, sample int) ([]byte, error) {
	payload, err := json.Marshal(presentation.ZonesToGeoJSON(d.Records, sample))
	if err != nil {
		return nil, fmt.Errorf("marshal census zones: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
			log.Warnf("Cache write failed for %s: %v", key, err)
		}
	}
	return payload, nil
}

// CensusZonesKey is the cache key of a census-zones payload
func CensusZonesKey(city string, sample int) string {
	if sample <= 0 {
		return "census-zones:" + city + ":all"
	}
	return "census-zones:" + city + ":" + strconv.Itoa(sample)
}

// ZoneDetail looks up one zone by join key. The zone must have population
// and a usable geometry.
func (s *Service) ZoneDetail(city, key string) (ZoneDetail, error) {
	d, ok := s.zones.Dataset(city)
	if !ok {
		return ZoneDetail{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}

	key = normalizeKey(key)
	rec, ok := d.Record(key)
	if !ok || !rec.HasPopulation {
		return ZoneDetail{}, fmt.Errorf("%w in population data: %s/%s", ErrZoneNotFound, city, key)
	}
	z, ok := d.Zone(key)
	if !ok {
		return ZoneDetail{}, fmt.Errorf("%w: no geometry for %s/%s", ErrZoneNotFound, city, key)
	}

	return ZoneDetail{
		Population:   rec.Population,
		District:     rec.District,
		Neighborhood: rec.Neighborhood,
		GeoKey:       rec.Key,
		AreaKm2:      math.Round(geometry.PolygonAreaKm2(z.Ring)*1e4) / 1e4,
		GeoJSON:      presentation.ZoneFeature(z),
	}, nil
}

// Cities lists loaded cities with their zone counts
func (s *Service) Cities() []CityInfo {
	out := make([]CityInfo, 0)
	for _, name := range s.zones.Cities() {
		d, ok := s.zones.Dataset(name)
		if !ok {
			continue
		}
		out = append(out, CityInfo{
			Name:     name,
			Records:  len(d.Records),
			Zones:    len(d.Zones),
			LoadedAt: d.LoadedAt,
		})
	}
	return out
}

// CityInfo summarizes a loaded city
type CityInfo struct {
	Name     string    `json:"name"`
	Records  int       `json:"records"`
	Zones    int       `json:"zones"`
	LoadedAt time.Time `json:"loaded_at"`
}

// normalizeKey accepts "01001" for "1001" like the loaders do
func normalizeKey(key string) string {
	if v, err := strconv.Atoi(key); err == nil {
		return strconv.Itoa(v)
	}
	return key
}
