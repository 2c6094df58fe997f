package zone

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"censuspop/internal/config"
	"censuspop/internal/model"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(key string, minX, minY, size float64, pop int) model.ZoneRecord {
	return model.ZoneRecord{
		City: "barcelona",
		Key:  key,
		Geometry: "POLYGON ((" +
			ftoa(minX) + " " + ftoa(minY) + ", " +
			ftoa(minX+size) + " " + ftoa(minY) + ", " +
			ftoa(minX+size) + " " + ftoa(minY+size) + ", " +
			ftoa(minX) + " " + ftoa(minY+size) + ", " +
			ftoa(minX) + " " + ftoa(minY) + "))",
		Population:    pop,
		HasPopulation: true,
	}
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func testRecords() []model.ZoneRecord {
	noPop := square("4", 5, 5, 1, 0)
	noPop.HasPopulation = false
	return []model.ZoneRecord{
		square("1", 0, 0, 1, 100),
		square("2", 1, 0, 1, 200),
		square("3", 3, 3, 1, 300),
		noPop,
		{City: "barcelona", Key: "5", Geometry: "LINESTRING (0 0, 1 1)", Population: 5, HasPopulation: true},
	}
}

func TestNewDataset(t *testing.T) {
	schema, _ := config.City("barcelona")
	d := NewDataset(schema, testRecords())

	assert.Len(t, d.Records, 5)
	require.Len(t, d.Zones, 3)
	assert.Equal(t, "1", d.Zones[0].Key)
	assert.Equal(t, "3", d.Zones[2].Key)

	z, ok := d.Zone("2")
	require.True(t, ok)
	assert.Equal(t, 200, z.Population)

	_, ok = d.Zone("4")
	assert.False(t, ok, "records without population are not zones")

	r, ok := d.Record("4")
	require.True(t, ok, "but they remain records")
	assert.False(t, r.HasPopulation)

	_, ok = d.Record("missing")
	assert.False(t, ok)
}

func TestCandidates(t *testing.T) {
	schema, _ := config.City("barcelona")
	d := NewDataset(schema, testRecords())

	keys := func(zs []*model.Zone) []string {
		out := make([]string, 0, len(zs))
		for _, z := range zs {
			out = append(out, z.Key)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2"}, keys(d.Candidates(orb.Bound{Min: orb.Point{0.5, 0.5}, Max: orb.Point{1.5, 0.6}})))
	assert.Equal(t, []string{"3"}, keys(d.Candidates(orb.Bound{Min: orb.Point{3.2, 3.2}, Max: orb.Point{3.3, 3.3}})))
	assert.Empty(t, d.Candidates(orb.Bound{Min: orb.Point{10, 10}, Max: orb.Point{11, 11}}))

	// touching boxes are kept
	assert.Equal(t, []string{"2"}, keys(d.Candidates(orb.Bound{Min: orb.Point{2, 0}, Max: orb.Point{2.5, 1}})))
	// a degenerate query box
	assert.Equal(t, []string{"1"}, keys(d.Candidates(orb.Bound{Min: orb.Point{0.5, 0.5}, Max: orb.Point{0.5, 0.5}})))
}

type fakeSource map[string][]model.ZoneRecord

func (f fakeSource) LoadCity(_ context.Context, schema config.CitySchema) ([]model.ZoneRecord, error) {
	records, ok := f[schema.Name]
	if !ok {
		return nil, errors.New("no data")
	}
	return records, nil
}

func TestInitService(t *testing.T) {
	s := NewZoneService()
	assert.Empty(t, s.Cities())
	_, ok := s.Dataset("barcelona")
	assert.False(t, ok)

	source := fakeSource{"barcelona": testRecords()}
	require.NoError(t, s.InitService(context.Background(), source, []string{"barcelona", "l_hospitalet", "madrid"}))
	assert.Equal(t, []string{"barcelona"}, s.Cities())

	d, ok := s.Dataset("barcelona")
	require.True(t, ok)
	assert.Len(t, d.Zones, 3)

	// second call is a no-op
	require.NoError(t, s.InitService(context.Background(), fakeSource{}, []string{"barcelona"}))
	assert.Equal(t, []string{"barcelona"}, s.Cities())
}

func TestServiceLookups(t *testing.T) {
	s := NewZoneService()
	_, ok := s.ZoneByKey("barcelona", "1")
	assert.False(t, ok, "nothing before init")

	require.NoError(t, s.InitService(context.Background(), fakeSource{"barcelona": testRecords()}, []string{"barcelona"}))

	z, ok := s.ZoneByKey("barcelona", "3")
	require.True(t, ok)
	assert.Equal(t, 300, z.Population)

	_, ok = s.ZoneByKey("l_hospitalet", "3")
	assert.False(t, ok)

	found := s.Candidates("barcelona", orb.Bound{Min: orb.Point{3.5, 3.5}, Max: orb.Point{6, 6}})
	require.Len(t, found, 1)
	assert.Equal(t, "3", found[0].Key)
	assert.Nil(t, s.Candidates("madrid", orb.Bound{}))
}

func TestInitServiceNoData(t *testing.T) {
	s := NewZoneService()
	err := s.InitService(context.Background(), fakeSource{}, []string{"barcelona"})
	assert.ErrorIs(t, err, ErrNoData)
	assert.Empty(t, s.Cities())
}

func TestCSVSourceMissingDir(t *testing.T) {
	schema, _ := config.City("barcelona")
	_, err := CSVSource{DataDir: t.TempDir()}.LoadCity(context.Background(), schema)
	assert.Error(t, err)
}

func TestGetZoneServiceSingleton(t *testing.T) {
	assert.Same(t, GetZoneService(), GetZoneService())
}
