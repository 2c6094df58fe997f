package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZonePGSharedJoinKey(t *testing.T) {
	a := ZoneRecord{City: "l_hospitalet", Key: "13", Geometry: "POLYGON ((0 0, 1 0, 1 1, 0 0))", Population: 1020, HasPopulation: true}
	b := a
	b.Geometry = "POLYGON ((1 0, 2 0, 2 1, 1 0))"

	rowA, rowB := ZonePGFromRecord(a, 0), ZonePGFromRecord(b, 1)
	assert.Equal(t, rowA.Key, rowB.Key)
	assert.NotEqual(t, [2]any{rowA.City, rowA.Seq}, [2]any{rowB.City, rowB.Seq}, "rows sharing a key have distinct identities")

	assert.Equal(t, a, rowA.Record())
	assert.Equal(t, b, rowB.Record())
}

func TestZoneFromRecord(t *testing.T) {
	z, ok := ZoneFromRecord(ZoneRecord{City: "barcelona", Key: "1001", Geometry: "POLYGON ((0 0, 2 0, 2 1, 0 1, 0 0), (0.5 0.5, 1 0.5, 1 0.7, 0.5 0.5))", Population: 7})
	require.True(t, ok)
	assert.Len(t, z.Ring, 5, "holes are not part of the ring")
	assert.Equal(t, 2.0, z.Bound.Max[0])
	assert.Equal(t, "1001", z.Intersecting().JoinKey)

	_, ok = ZoneFromRecord(ZoneRecord{Geometry: "POINT (1 2)"})
	assert.False(t, ok)
}
