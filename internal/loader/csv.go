// Package loader reads per-city census CSV files into joined zone records.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"censuspop/internal/config"
	"censuspop/internal/model"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
)

var ErrMissingColumn = errors.New("missing column")

// LoadCity reads the geometry and population files of a city from dataDir
// and joins them.
func LoadCity(schema config.CitySchema, dataDir string) ([]model.ZoneRecord, error) {
	popFile, err := os.Open(filepath.Join(dataDir, schema.PopFile))
	if err != nil {
		return nil, fmt.Errorf("open population file: %w", err)
	}
	defer popFile.Close()

	population, err := ReadPopulation(schema, popFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", schema.PopFile, err)
	}

	geoFile, err := os.Open(filepath.Join(dataDir, schema.GeoFile))
	if err != nil {
		return nil, fmt.Errorf("open geometry file: %w", err)
	}
	defer geoFile.Close()

	records, err := ReadZones(schema, geoFile, population)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", schema.GeoFile, err)
	}
	return records, nil
}

// ReadPopulation returns population per normalized join key
func ReadPopulation(schema config.CitySchema, r io.Reader) (map[string]int, error) {
	cr := newReader(r, ',')
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	keyCol, err := column(cols, schema.JoinKeyPop)
	if err != nil {
		return nil, err
	}
	valueCol, err := column(cols, schema.ColPopulation)
	if err != nil {
		return nil, err
	}
	yearCol := -1
	if schema.PopYearColumn != "" {
		if yearCol, err = column(cols, schema.PopYearColumn); err != nil {
			return nil, err
		}
	}

	population := make(map[string]int)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if yearCol >= 0 {
			year, ok := parseInt(field(row, yearCol))
			if !ok || year != schema.PopYear {
				continue
			}
		}

		key := normalizeKey(field(row, keyCol))
		value, ok := parseInt(field(row, valueCol))
		if key == "" || !ok {
			log.Warnf("%s: skipping population line %d", schema.Name, line)
			continue
		}

		prev, seen := population[key]
		switch {
		case !seen:
			population[key] = value
		case schema.AggregatePopulation:
			population[key] = prev + value
		}
	}
	return population, nil
}

// ReadZones reads geometry rows and attaches the population found for each
// join key. Rows without population are kept with HasPopulation unset.
func ReadZones(schema config.CitySchema, r io.Reader, population map[string]int) ([]model.ZoneRecord, error) {
	if schema.GeoLatin1 {
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	}
	sep := schema.GeoSeparator
	if sep == 0 {
		sep = ','
	}
	cr := newReader(r, sep)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	geomCol, err := column(cols, schema.ColGeometry)
	if err != nil {
		return nil, err
	}
	districtCodeCol, sectionCodeCol := cols[schema.ColDistrictCode], cols[schema.ColSectionCode]
	if schema.CompositeKey {
		if districtCodeCol, err = column(cols, schema.ColDistrictCode); err != nil {
			return nil, err
		}
		if sectionCodeCol, err = column(cols, schema.ColSectionCode); err != nil {
			return nil, err
		}
	}
	keyCol := -1
	if !schema.CompositeKey {
		if keyCol, err = column(cols, schema.JoinKeyGeo); err != nil {
			return nil, err
		}
	}
	districtCol, hasDistrict := cols[schema.ColDistrict]
	neighborhoodCol, hasNeighborhood := cols[schema.ColNeighborhood]
	_, hasDistrictCode := cols[schema.ColDistrictCode]
	_, hasSectionCode := cols[schema.ColSectionCode]

	var records []model.ZoneRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec := model.ZoneRecord{
			City:     schema.Name,
			Geometry: strings.TrimSpace(field(row, geomCol)),
		}
		if hasDistrict {
			rec.District = field(row, districtCol)
		}
		if hasNeighborhood {
			rec.Neighborhood = field(row, neighborhoodCol)
		}
		if hasDistrictCode {
			rec.DistrictCode, _ = parseInt(field(row, districtCodeCol))
		}
		if hasSectionCode {
			rec.SectionCode, _ = parseInt(field(row, sectionCodeCol))
		}

		if schema.CompositeKey {
			d, okD := parseInt(field(row, districtCodeCol))
			s, okS := parseInt(field(row, sectionCodeCol))
			if !okD || !okS {
				log.Warnf("%s: skipping geometry line %d: bad section code", schema.Name, line)
				continue
			}
			rec.Key = strconv.Itoa(d*1000 + s)
		} else {
			rec.Key = normalizeKey(field(row, keyCol))
		}
		if mapped, ok := schema.KeyRemap[rec.Key]; ok {
			rec.Key = mapped
		}
		if rec.Key == "" {
			log.Warnf("%s: skipping geometry line %d: empty join key", schema.Name, line)
			continue
		}

		rec.Population, rec.HasPopulation = population[rec.Key]
		records = append(records, rec)
	}
	return records, nil
}

func newReader(r io.Reader, sep rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		cols[name] = i
	}
	return cols
}

func column(cols map[string]int, name string) (int, error) {
	i, ok := cols[name]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrMissingColumn, name)
	}
	return i, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseInt accepts integers and integral floats such as "13.0"
func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

// normalizeKey makes "01001", "1001" and "1001.0" the same join key
func normalizeKey(s string) string {
	if v, ok := parseInt(s); ok {
		return strconv.Itoa(v)
	}
	return s
}
