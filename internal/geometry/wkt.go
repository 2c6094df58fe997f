package geometry

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

var (
	// First polygon's outer ring of a MULTIPOLYGON; holes and further polygons are ignored
	multiPolygonRing = regexp.MustCompile(`(?s)MULTIPOLYGON\s*\(\s*\(\((.*?)\)\)`)
	polygonRing      = regexp.MustCompile(`(?s)POLYGON\s*\(\((.*?)\)\)`)
)

// ParseWKT extracts the outer ring of a POLYGON or MULTIPOLYGON string.
// Coordinate pairs that do not parse as two floats are skipped. The second
// return value is false when the text is not a polygon, the ring cannot be
// located or fewer than 3 coordinates survive.
func ParseWKT(text string) (orb.Ring, bool) {
	var match []string
	switch {
	case strings.HasPrefix(text, "MULTIPOLYGON"):
		match = multiPolygonRing.FindStringSubmatch(text)
	case strings.HasPrefix(text, "POLYGON"):
		match = polygonRing.FindStringSubmatch(text)
	default:
		return nil, false
	}
	if match == nil {
		return nil, false
	}

	// the lazy match may run past the outer ring into its holes
	body := match[1]
	if i := strings.IndexByte(body, ')'); i >= 0 {
		body = body[:i]
	}
	body = strings.TrimSpace(body)
	ring := make(orb.Ring, 0, strings.Count(body, ",")+1)
	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.TrimSpace(strings.TrimLeft(part, "("))

		fields := strings.Fields(part)
		if len(fields) != 2 {
			continue
		}
		lon, err := parseCoordinate(fields[0])
		if err != nil {
			continue
		}
		lat, err := parseCoordinate(fields[1])
		if err != nil {
			continue
		}
		ring = append(ring, orb.Point{lon, lat})
	}

	if len(ring) < 3 {
		return nil, false
	}
	return ring, true
}

// parseCoordinate parses a finite float; NaN and infinities are rejected
func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// RingToWKT renders a ring as a single-ring POLYGON.
func RingToWKT(ring orb.Ring) string {
	return wkt.MarshalString(orb.Polygon{ring})
}
