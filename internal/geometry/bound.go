package geometry

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// Disjoint reports whether two boxes share no point. Boxes that only touch
// along an edge or a corner are not disjoint.
func Disjoint(a, b orb.Bound) bool {
	return !a.Intersects(b)
}

// Overlap returns the intersection of two boxes. Callers must check
// Disjoint first; the result is meaningless for disjoint boxes.
func Overlap(a, b orb.Bound) orb.Bound {
	return orb.Bound{
		Min: orb.Point{math.Max(a.Min[0], b.Min[0]), math.Max(a.Min[1], b.Min[1])},
		Max: orb.Point{math.Min(a.Max[0], b.Max[0]), math.Min(a.Max[1], b.Max[1])},
	}
}

// PerimeterKm is the great-circle length of the closed ring.
func PerimeterKm(ring orb.Ring) float64 {
	if len(ring) < 2 {
		return 0
	}
	total := 0.0
	for i := range ring {
		total += DistanceKm(ring[i], ring[(i+1)%len(ring)])
	}
	return total
}

// DistanceKm returns the great-circle distance between two lon/lat points.
func DistanceKm(a, b orb.Point) float64 {
	pa := s2.PointFromLatLng(s2.LatLngFromDegrees(a[1], a[0]))
	pb := s2.PointFromLatLng(s2.LatLngFromDegrees(b[1], b[0]))
	angle := s1.Angle(s2.ChordAngleBetweenPoints(pa, pb).Angle())
	return angle.Radians() * EarthRadiusKm
}
