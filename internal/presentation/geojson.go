// Package presentation renders zones and query polygons as GeoJSON for maps.
package presentation

import (
	"math"
	"math/rand/v2"

	"censuspop/internal/geometry"
	"censuspop/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	log "github.com/sirupsen/logrus"
)

// SampleSeed makes zone sampling for lighter map payloads deterministic
const SampleSeed = 42

// ZonesToGeoJSON builds one polygon feature per zone annotated with
// population, area and density. A positive sampleSize smaller than the table
// keeps a fixed-seed random subset. Records without a parsable geometry or
// without population are skipped.
func ZonesToGeoJSON(records []model.ZoneRecord, sampleSize int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, idx := range sampleIndexes(len(records), sampleSize) {
		r := records[idx]
		if !r.HasPopulation {
			log.Warnf("Skipping zone %s/%s: no population", r.City, r.Key)
			continue
		}
		ring, ok := geometry.ParseWKT(r.Geometry)
		if !ok {
			log.Warnf("Skipping zone %s/%s: unparsable geometry", r.City, r.Key)
			continue
		}

		area := geometry.PolygonAreaKm2(ring)
		density := 0.0
		if area > 0 {
			density = float64(r.Population) / area
		}

		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["join_key"] = r.Key
		f.Properties["city"] = r.City
		f.Properties["district"] = r.District
		f.Properties["neighborhood"] = r.Neighborhood
		f.Properties["district_code"] = r.DistrictCode
		f.Properties["section_code"] = r.SectionCode
		f.Properties["population"] = r.Population
		f.Properties["area_km2"] = round(area, 4)
		f.Properties["density"] = round(density, 2)
		fc.Append(f)
	}

	return fc
}

// QueryFeature wraps an uploaded polygon for display
func QueryFeature(ring orb.Ring, name string) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{ring})
	f.Properties["name"] = name
	f.Properties["area_km2"] = round(geometry.PolygonAreaKm2(ring), 4)
	f.Properties["perimeter_km"] = round(geometry.PerimeterKm(ring), 3)
	return f
}

// ZoneFeature wraps a single zone boundary
func ZoneFeature(zone *model.Zone) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{zone.Ring})
	f.Properties["join_key"] = zone.Key
	f.Properties["city"] = zone.City
	return f
}

// sampleIndexes returns the record positions to render, in render order
func sampleIndexes(n, sampleSize int) []int {
	if sampleSize > 0 && sampleSize < n {
		r := rand.New(rand.NewPCG(SampleSeed, SampleSeed))
		return r.Perm(n)[:sampleSize]
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
