package config

import "sort"

// CitySchema describes how one city's zone table is laid out on disk: file
// names, column names and the join between geometry and population rows.
type CitySchema struct {
	Name    string
	GeoFile string
	PopFile string

	GeoSeparator rune
	// GeoLatin1 marks geometry files encoded as ISO-8859-1 instead of UTF-8
	GeoLatin1 bool

	JoinKeyGeo string
	JoinKeyPop string

	ColDistrict     string
	ColNeighborhood string
	ColDistrictCode string
	ColSectionCode  string
	ColGeometry     string
	ColPopulation   string

	// CompositeKey derives the geometry join key as district*1000 + section
	// (the DDSSS census section code) instead of reading JoinKeyGeo
	CompositeKey bool

	// KeyRemap rewrites geometry join keys before joining
	KeyRemap map[string]string

	// PopYearColumn/PopYear keep only population rows of one year
	PopYearColumn string
	PopYear       int

	// AggregatePopulation sums every population row sharing a key;
	// otherwise the first row wins
	AggregatePopulation bool
}

var citySchemas = map[string]CitySchema{
	"barcelona": {
		Name:            "barcelona",
		GeoFile:         "BarcelonaCiutat_SeccionsCensals.csv",
		PopFile:         "2025_pad_mdbas.csv",
		GeoSeparator:    ',',
		JoinKeyGeo:      "seccion_key",
		JoinKeyPop:      "Seccio_Censal",
		ColDistrict:     "nom_districte",
		ColNeighborhood: "nom_barri",
		ColDistrictCode: "codi_districte",
		ColSectionCode:  "codi_seccio_censal",
		ColGeometry:     "geometria_wgs84",
		ColPopulation:   "Valor",
		CompositeKey:    true,
	},
	"l_hospitalet": {
		Name:            "l_hospitalet",
		GeoFile:         "L'Hospitalet/TERRITORI_DIVISIONS_BAR.csv",
		PopFile:         "L'Hospitalet/06ff0a2d-f6f8-4bf5-9ac1-ed09fda42a8b.csv",
		GeoSeparator:    '|',
		GeoLatin1:       true,
		JoinKeyGeo:      "CodiElement",
		JoinKeyPop:      "CodiBarri",
		ColDistrict:     "NomDivisio",
		ColNeighborhood: "NomElement",
		ColDistrictCode: "CodiDivisio",
		ColSectionCode:  "CodiElement",
		ColGeometry:     "Geometria_WGS84_LonLat",
		ColPopulation:   "Total",
		// Granvia Sud: geometry 16 is reported as neighbourhood 13
		KeyRemap:            map[string]string{"16": "13"},
		PopYearColumn:       "AnyPadro",
		PopYear:             2025,
		AggregatePopulation: true,
	},
}

// City returns the built-in schema for a city
func City(name string) (CitySchema, bool) {
	s, ok := citySchemas[name]
	return s, ok
}

// DefaultCityNames lists every built-in schema, sorted
func DefaultCityNames() []string {
	names := make([]string, 0, len(citySchemas))
	for name := range citySchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
