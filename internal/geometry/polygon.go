package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the mean radius used for area and distance approximations.
const EarthRadiusKm = 6371.0

// PointInPolygon reports whether (x, y) lies inside ring using ray casting.
// The ring is treated as implicitly closed. Points exactly on an edge or a
// vertex get whatever the crossing arithmetic yields.
func PointInPolygon(x, y float64, ring orb.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}

	inside := false
	p1x, p1y := ring[0][0], ring[0][1]
	var xinters float64
	for i := 0; i <= n; i++ {
		p := ring[i%n]
		p2x, p2y := p[0], p[1]
		if y > math.Min(p1y, p2y) && y <= math.Max(p1y, p2y) && x <= math.Max(p1x, p2x) {
			if p1y != p2y {
				xinters = (y-p1y)*(p2x-p1x)/(p2y-p1y) + p1x
			}
			if p1x == p2x || x <= xinters {
				inside = !inside
			}
		}
		p1x, p1y = p2x, p2y
	}
	return inside
}

// PolygonAreaKm2 approximates the area enclosed by ring on a sphere of radius
// EarthRadiusKm. It is not a geodesic computation.
func PolygonAreaKm2(ring orb.Ring) float64 {
	if len(ring) < 3 {
		return 0
	}

	closed := ring
	if ring[0] != ring[len(ring)-1] {
		closed = make(orb.Ring, len(ring), len(ring)+1)
		copy(closed, ring)
		closed = append(closed, ring[0])
	}

	area := 0.0
	for i := 0; i < len(closed)-1; i++ {
		lon1, lat1 := radians(closed[i][0]), radians(closed[i][1])
		lon2, lat2 := radians(closed[i+1][0]), radians(closed[i+1][1])
		area += (lon2 - lon1) * (2 + math.Sin(lat1) + math.Sin(lat2))
	}
	return math.Abs(area * EarthRadiusKm * EarthRadiusKm / 2.0)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
