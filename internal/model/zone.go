package model

import (
	"time"

	"censuspop/internal/geometry"

	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

// ZoneRecord is one row of a joined zone table: the boundary as WKT text plus
// the population value found for its join key.
type ZoneRecord struct {
	City          string
	Key           string
	Geometry      string // WKT in WGS84 lon/lat degrees
	District      string
	Neighborhood  string
	DistrictCode  int
	SectionCode   int
	Population    int
	HasPopulation bool
}

// ZonePG model for PostgreSQL storage. Several geometry rows may share a join
// key, so rows are identified by their position in the city's table.
type ZonePG struct {
	City          string `gorm:"primaryKey;size:64"`
	Seq           int    `gorm:"primaryKey;autoIncrement:false"`
	Key           string `gorm:"size:64;not null;index"`
	Geometry      string `gorm:"type:text;not null"`
	District      string `gorm:"size:255"`
	Neighborhood  string `gorm:"size:255"`
	DistrictCode  int
	SectionCode   int
	Population    int  `gorm:"not null;default:0"`
	HasPopulation bool `gorm:"not null;default:false"`

	UpdatedAt time.Time      `gorm:"column:updated_at"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// TableName overrides the table name
func (ZonePG) TableName() string {
	return "census_zones"
}

// ZonePGFromRecord converts the seq-th record of a city into its storage row
func ZonePGFromRecord(r ZoneRecord, seq int) *ZonePG {
	return &ZonePG{
		City:          r.City,
		Seq:           seq,
		Key:           r.Key,
		Geometry:      r.Geometry,
		District:      r.District,
		Neighborhood:  r.Neighborhood,
		DistrictCode:  r.DistrictCode,
		SectionCode:   r.SectionCode,
		Population:    r.Population,
		HasPopulation: r.HasPopulation,
	}
}

// Record converts a storage row back into a record
func (pg *ZonePG) Record() ZoneRecord {
	return ZoneRecord{
		City:          pg.City,
		Key:           pg.Key,
		Geometry:      pg.Geometry,
		District:      pg.District,
		Neighborhood:  pg.Neighborhood,
		DistrictCode:  pg.DistrictCode,
		SectionCode:   pg.SectionCode,
		Population:    pg.Population,
		HasPopulation: pg.HasPopulation,
	}
}

// Zone in-memory model. Read-only once built.
type Zone struct {
	City         string
	Key          string
	Population   int
	District     string
	Neighborhood string
	DistrictCode int
	SectionCode  int

	Ring  orb.Ring
	Bound orb.Bound
}

// ZoneFromRecord parses the record geometry. It returns false when the
// geometry is not a usable polygon.
func ZoneFromRecord(r ZoneRecord) (*Zone, bool) {
	ring, ok := geometry.ParseWKT(r.Geometry)
	if !ok {
		return nil, false
	}
	return &Zone{
		City:         r.City,
		Key:          r.Key,
		Population:   r.Population,
		District:     r.District,
		Neighborhood: r.Neighborhood,
		DistrictCode: r.DistrictCode,
		SectionCode:  r.SectionCode,
		Ring:         ring,
		Bound:        ring.Bound(),
	}, true
}

// Intersecting describes the zone as a member of an intersection result
func (z *Zone) Intersecting() IntersectingZone {
	return IntersectingZone{
		City:         z.City,
		JoinKey:      z.Key,
		District:     z.District,
		Neighborhood: z.Neighborhood,
		DistrictCode: z.DistrictCode,
		SectionCode:  z.SectionCode,
		Population:   z.Population,
	}
}
