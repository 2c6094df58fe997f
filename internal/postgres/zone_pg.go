package postgres

import (
	"context"
	"fmt"

	"censuspop/internal/model"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const saveBatchSize = 200

// ZoneStore reads and writes joined zone records
type ZoneStore struct {
	db *gorm.DB
}

// NewZoneStore wraps a database connection
func NewZoneStore(db *gorm.DB) *ZoneStore {
	return &ZoneStore{db: db}
}

// SaveZoneRecords replaces every stored zone of the city with records,
// keeping their order and any rows that share a join key
func (s *ZoneStore) SaveZoneRecords(ctx context.Context, city string, records []model.ZoneRecord) error {
	rows := make([]*model.ZonePG, 0, len(records))
	for i, r := range records {
		r.City = city
		rows = append(rows, model.ZonePGFromRecord(r, i))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("city = ?", city).Delete(&model.ZonePG{}).Error; err != nil {
			return fmt.Errorf("clear zones of %s: %w", city, err)
		}

		for i := 0; i < len(rows); i += saveBatchSize {
			end := min(i+saveBatchSize, len(rows))
			batch := rows[i:end]
			err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&batch).Error
			if err != nil {
				return fmt.Errorf("upsert zones batch %d-%d: %w", i, end, err)
			}
			log.Debugf("Upserted %s zone batch %d-%d", city, i, end)
		}
		return nil
	})
}

// LoadZoneRecords returns the stored zones of a city in the order they were saved
func (s *ZoneStore) LoadZoneRecords(ctx context.Context, city string) ([]model.ZoneRecord, error) {
	var rows []*model.ZonePG
	if err := s.db.WithContext(ctx).Where("city = ?", city).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load zones of %s: %w", city, err)
	}

	records := make([]model.ZoneRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	return records, nil
}

// Cities lists every city with stored zones
func (s *ZoneStore) Cities(ctx context.Context) ([]string, error) {
	var cities []string
	err := s.db.WithContext(ctx).Model(&model.ZonePG{}).Distinct("city").Order("city").Pluck("city", &cities).Error
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}
