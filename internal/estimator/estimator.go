// Package estimator estimates how much of a zoned population lives inside an
// arbitrary polygon by Monte Carlo sampling of zone/polygon overlap.
package estimator

import (
	"math/rand/v2"
	"runtime"
	"time"

	"censuspop/internal/geometry"
	"censuspop/internal/model"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// QuickCheckPoints is the Pass-1 sample size per bbox-surviving zone
	QuickCheckPoints = 100

	// DefaultStatisticsPoints is the nominal sample size the membership check
	// derives its own size from when the caller gives none
	DefaultStatisticsPoints = 10000

	// MaxMembershipPoints caps the membership check sample size
	MaxMembershipPoints = 1000
)

// Estimator runs intersection estimates. It is not safe for concurrent use;
// create one per request.
type Estimator struct {
	rng     *rand.Rand
	workers int
}

// Option configures an Estimator
type Option func(*Estimator)

// WithSeed makes every draw of the estimator reproducible
func WithSeed(seed uint64) Option {
	return func(e *Estimator) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand uses r as the source of all draws
func WithRand(r *rand.Rand) Option {
	return func(e *Estimator) {
		e.rng = r
	}
}

// WithWorkers bounds how many zones are sampled concurrently in Pass 2.
// Values below 1 select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Estimator) {
		e.workers = n
	}
}

// New creates an estimator seeded from the clock unless an option says otherwise
func New(opts ...Option) *Estimator {
	e := &Estimator{}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, rand.Uint64()))
	}
	if e.workers < 1 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Result of a single estimation run
type Result struct {
	// Population is the unrounded estimate
	Population float64
	// Zones lists the candidates that passed the quick intersection check,
	// in input order
	Zones []model.IntersectingZone
	// SampleSize is the Pass-2 points drawn per candidate, 0 when there were none
	SampleSize int
}

type candidate struct {
	zone *model.Zone
	seed uint64
}

// SampleSize returns the Pass-2 sample size for the given candidate count
func SampleSize(numZones int) int {
	switch {
	case numZones <= 10:
		return 10000
	case numZones <= 50:
		return 5000
	default:
		return 1000
	}
}

// Estimate returns the population of zones living inside query. A positive
// sampleOverride replaces the SampleSize policy for Pass 2.
func (e *Estimator) Estimate(query orb.Ring, zones []*model.Zone, sampleOverride *int) Result {
	queryBound := query.Bound()

	// Pass 1: bbox rejection then a light sample of the overlap box
	var candidates []candidate
	for _, zone := range zones {
		if geometry.Disjoint(zone.Bound, queryBound) {
			continue
		}
		if !e.intersects(zone, query, geometry.Overlap(zone.Bound, queryBound), QuickCheckPoints) {
			continue
		}
		candidates = append(candidates, candidate{zone: zone})
	}

	res := Result{Zones: make([]model.IntersectingZone, 0, len(candidates))}
	if len(candidates) == 0 {
		return res
	}

	res.SampleSize = SampleSize(len(candidates))
	if sampleOverride != nil && *sampleOverride > 0 {
		res.SampleSize = *sampleOverride
	}
	log.Debugf("Intersects with %d zones. Using %d Monte Carlo points.", len(candidates), res.SampleSize)

	for i := range candidates {
		candidates[i].seed = e.rng.Uint64()
		res.Zones = append(res.Zones, candidates[i].zone.Intersecting())
	}

	// Pass 2: each candidate is sampled over its own bbox with its own source
	contributions := make([]float64, len(candidates))
	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, c := range candidates {
		g.Go(func() error {
			r := rand.New(rand.NewPCG(c.seed, uint64(i)))
			contributions[i] = contribution(r, c.zone, query, res.SampleSize)
			return nil
		})
	}
	_ = g.Wait()

	for _, v := range contributions {
		res.Population += v
	}
	return res
}

// ZoneStatistics lists the zones intersecting query using its own membership
// sample and takes the total from a separate Estimate run. The two are drawn
// independently and may disagree marginally.
func (e *Estimator) ZoneStatistics(query orb.Ring, zones []*model.Zone, nPoints *int) model.Statistics {
	queryBound := query.Bound()

	calcPoints := DefaultStatisticsPoints
	if nPoints != nil && *nPoints > 0 {
		calcPoints = *nPoints
	}
	nQuick := min(calcPoints/10, MaxMembershipPoints)

	stats := model.Statistics{IntersectingZones: make([]model.IntersectingZone, 0)}
	for _, zone := range zones {
		if geometry.Disjoint(zone.Bound, queryBound) {
			continue
		}
		if !e.intersects(zone, query, geometry.Overlap(zone.Bound, queryBound), nQuick) {
			continue
		}
		stats.IntersectingZones = append(stats.IntersectingZones, zone.Intersecting())
	}
	stats.NumZones = len(stats.IntersectingZones)

	stats.TotalPopulation = e.Estimate(query, zones, nPoints).Population
	return stats
}

// intersects draws n points in box and reports whether any of them falls in
// both the zone and the query polygon.
func (e *Estimator) intersects(zone *model.Zone, query orb.Ring, box orb.Bound, n int) bool {
	for range n {
		x, y := uniformPoint(e.rng, box)
		if geometry.PointInPolygon(x, y, zone.Ring) && geometry.PointInPolygon(x, y, query) {
			return true
		}
	}
	return false
}

// contribution is population * (points in zone and query / points in zone)
// over n points drawn in the zone's bbox.
func contribution(r *rand.Rand, zone *model.Zone, query orb.Ring, n int) float64 {
	inZone, inBoth := 0, 0
	for range n {
		x, y := uniformPoint(r, zone.Bound)
		if !geometry.PointInPolygon(x, y, zone.Ring) {
			continue
		}
		inZone++
		if geometry.PointInPolygon(x, y, query) {
			inBoth++
		}
	}
	if inZone == 0 {
		return 0
	}
	return float64(zone.Population) * float64(inBoth) / float64(inZone)
}

func uniformPoint(r *rand.Rand, b orb.Bound) (float64, float64) {
	x := b.Min[0] + (b.Max[0]-b.Min[0])*r.Float64()
	y := b.Min[1] + (b.Max[1]-b.Min[1])*r.Float64()
	return x, y
}
