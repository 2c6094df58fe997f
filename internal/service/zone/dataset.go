package zone

import (
	"sort"
	"time"

	"censuspop/internal/config"
	"censuspop/internal/model"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
)

// rtreego treats touching rectangles as disjoint and rejects zero-size ones
const indexPadding = 1e-9

// ZoneSpatial represents a zone with its spatial information for R-tree indexing
type ZoneSpatial struct {
	Zone  *model.Zone
	order int // position in Dataset.Zones
}

// Bounds implements the rtreego.Spatial interface
func (z *ZoneSpatial) Bounds() rtreego.Rect {
	return paddedRect(z.Zone.Bound)
}

func paddedRect(b orb.Bound) rtreego.Rect {
	rect, _ := rtreego.NewRect(
		rtreego.Point{b.Min[0] - indexPadding, b.Min[1] - indexPadding},
		[]float64{b.Max[0] - b.Min[0] + 2*indexPadding, b.Max[1] - b.Min[1] + 2*indexPadding},
	)
	return rect
}

// Dataset is an immutable snapshot of one city's zone table
type Dataset struct {
	Schema  config.CitySchema
	Records []model.ZoneRecord
	// Zones holds every record with population and a usable geometry, in record order
	Zones    []*model.Zone
	LoadedAt time.Time

	byKey   map[string]*model.Zone
	records map[string]int
	index   *rtreego.Rtree
}

// NewDataset parses the records of a city and indexes their bounding boxes
func NewDataset(schema config.CitySchema, records []model.ZoneRecord) *Dataset {
	d := &Dataset{
		Schema:   schema,
		Records:  records,
		LoadedAt: time.Now(),
		byKey:    make(map[string]*model.Zone, len(records)),
		records:  make(map[string]int, len(records)),
		index:    rtreego.NewTree(2, 25, 50), // 2D index with min 25, max 50 entries per node
	}

	skipped := 0
	for i, r := range records {
		if _, dup := d.records[r.Key]; !dup {
			d.records[r.Key] = i
		}
		if !r.HasPopulation {
			skipped++
			continue
		}
		z, ok := model.ZoneFromRecord(r)
		if !ok {
			log.Warnf("%s: zone %s has no usable geometry", schema.Name, r.Key)
			skipped++
			continue
		}
		d.index.Insert(&ZoneSpatial{Zone: z, order: len(d.Zones)})
		d.Zones = append(d.Zones, z)
		if _, dup := d.byKey[z.Key]; !dup {
			d.byKey[z.Key] = z
		}
	}

	log.Printf("%s: %d zones indexed, %d records without population or geometry", schema.Name, len(d.Zones), skipped)
	return d
}

// Candidates returns the zones whose bounding boxes may touch b, in dataset
// order. It never drops a zone whose box intersects b.
func (d *Dataset) Candidates(b orb.Bound) []*model.Zone {
	found := d.index.SearchIntersect(paddedRect(b))

	sort.Slice(found, func(i, j int) bool {
		return found[i].(*ZoneSpatial).order < found[j].(*ZoneSpatial).order
	})

	zones := make([]*model.Zone, 0, len(found))
	for _, item := range found {
		zones = append(zones, item.(*ZoneSpatial).Zone)
	}
	return zones
}

// Zone returns the parsed zone for a join key
func (d *Dataset) Zone(key string) (*model.Zone, bool) {
	z, ok := d.byKey[key]
	return z, ok
}

// Record returns the raw record for a join key
func (d *Dataset) Record(key string) (model.ZoneRecord, bool) {
	i, ok := d.records[key]
	if !ok {
		return model.ZoneRecord{}, false
	}
	return d.Records[i], true
}
