package zone

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"censuspop/internal/config"
	"censuspop/internal/loader"
	"censuspop/internal/model"
	"censuspop/internal/postgres"
	"censuspop/internal/service/storage"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotInitialized = errors.New("zone service not initialized")
	ErrNoData         = errors.New("no city data could be loaded")
)

// Source supplies the joined zone records of a city
type Source interface {
	LoadCity(ctx context.Context, schema config.CitySchema) ([]model.ZoneRecord, error)
}

// CSVSource reads city files from a data directory
type CSVSource struct {
	DataDir string
}

func (s CSVSource) LoadCity(_ context.Context, schema config.CitySchema) ([]model.ZoneRecord, error) {
	return loader.LoadCity(schema, s.DataDir)
}

// PGSource reads zones previously imported into PostgreSQL
type PGSource struct {
	Store *postgres.ZoneStore
}

func (s PGSource) LoadCity(ctx context.Context, schema config.CitySchema) ([]model.ZoneRecord, error) {
	return s.Store.LoadZoneRecords(ctx, schema.Name)
}

// ZoneService holds the per-city zone datasets. Datasets are loaded once and
// never mutated afterwards.
type ZoneService struct {
	storage     storage.Storage[string, *Dataset]
	initialized bool
	initMutex   sync.RWMutex
}

var (
	zoneServiceInstance *ZoneService
	zoneServiceOnce     sync.Once
)

// GetZoneService returns the singleton instance of the ZoneService
func GetZoneService() *ZoneService {
	zoneServiceOnce.Do(func() {
		zoneServiceInstance = NewZoneService()
	})
	return zoneServiceInstance
}

// NewZoneService creates an empty, uninitialized service
func NewZoneService() *ZoneService {
	return &ZoneService{
		storage: storage.NewMemoryStorage[string, *Dataset](),
	}
}

// InitService loads every named city from source. Cities that fail to load
// are logged and skipped; it fails only if none could be loaded. Calls after
// the first successful one are no-ops.
func (s *ZoneService) InitService(ctx context.Context, source Source, cities []string) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		log.Println("ZoneService already initialized, skipping")
		return nil
	}

	log.Println("=== Starting ZoneService initialization ===")
	totalStartTime := time.Now()

	for _, name := range cities {
		schema, ok := config.City(name)
		if !ok {
			log.Errorf("Unknown city %q, skipping", name)
			continue
		}

		start := time.Now()
		records, err := source.LoadCity(ctx, schema)
		if err != nil {
			log.Errorf("Error loading data for %s: %v", name, err)
			continue
		}
		s.storage.Set(name, NewDataset(schema, records))
		log.Printf("Loaded data for %s: %d records in %v", name, len(records), time.Since(start))
	}

	if s.storage.Count() == 0 {
		return fmt.Errorf("%w (tried %v)", ErrNoData, cities)
	}

	log.Printf("=== ZoneService initialization completed in %v ===", time.Since(totalStartTime))
	s.initialized = true
	return nil
}

// AddDataset registers an already built dataset and marks the service ready
func (s *ZoneService) AddDataset(d *Dataset) {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	s.storage.Set(d.Schema.Name, d)
	s.initialized = true
}

// Cities returns the loaded city names in order
func (s *ZoneService) Cities() []string {
	s.initMutex.RLock()
	defer s.initMutex.RUnlock()

	if !s.initialized {
		return nil
	}
	return s.storage.Keys()
}

// Dataset returns the snapshot of a city
func (s *ZoneService) Dataset(city string) (*Dataset, bool) {
	s.initMutex.RLock()
	defer s.initMutex.RUnlock()

	if !s.initialized {
		return nil, false
	}
	return s.storage.Get(city)
}

// Candidates returns the zones of a city whose bounding boxes may touch b
func (s *ZoneService) Candidates(city string, b orb.Bound) []*model.Zone {
	d, ok := s.Dataset(city)
	if !ok {
		return nil
	}
	return d.Candidates(b)
}

// ZoneByKey returns a parsed zone of a city
func (s *ZoneService) ZoneByKey(city, key string) (*model.Zone, bool) {
	d, ok := s.Dataset(city)
	if !ok {
		return nil, false
	}
	return d.Zone(key)
}
