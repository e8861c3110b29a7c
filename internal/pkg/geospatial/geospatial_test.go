package geospatial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcdasilva/passtheplate/internal/pkg/geospatial"
)

type point struct {
	id       string
	lat, lon float64
}

func (p point) Key() string                     { return p.id }
func (p point) Coordinates() (float64, float64) { return p.lat, p.lon }

func TestDistanceKm_KnownCities(t *testing.T) {
	// New York -> Los Angeles
	d := geospatial.DistanceKm(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(t, 3936, d, 5)
}

func TestDistanceKm_IdentityAndSymmetry(t *testing.T) {
	assert.Equal(t, 0.0, geospatial.DistanceKm(43.26, -2.93, 43.26, -2.93))

	ab := geospatial.DistanceKm(51.5074, -0.1278, 48.8566, 2.3522)
	ba := geospatial.DistanceKm(48.8566, 2.3522, 51.5074, -0.1278)
	assert.InDelta(t, ab, ba, 1e-9)
	assert.InDelta(t, 343.5, ab, 1)
}

func TestHaversine_Meters(t *testing.T) {
	km := geospatial.DistanceKm(40, -75, 40.01, -75)
	assert.InDelta(t, km*1000, geospatial.Haversine(40, -75, 40.01, -75), 1e-6)
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(40, -75, 10)

	// a point 10 km due north sits on the box edge
	assert.InDelta(t, 10, geospatial.DistanceKm(40, -75, maxLat, -75), 0.1)
	assert.Less(t, minLat, 40.0)
	assert.Less(t, minLon, -75.0)
	assert.Greater(t, maxLon, -75.0)
}

func TestCluster_Empty(t *testing.T) {
	groups := geospatial.Cluster([]point{}, 50)
	require.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestCluster_SeparatesDistantPoints(t *testing.T) {
	items := []point{
		{id: "a", lat: 40.0, lon: -75.0},
		{id: "b", lat: 40.01, lon: -75.0},
		{id: "c", lat: 41.0, lon: -75.0},
	}

	groups := geospatial.Cluster(items, 50)
	require.Len(t, groups, 2)

	assert.Equal(t, 2, groups[0].Count)
	assert.InDelta(t, 40.005, groups[0].Lat, 1e-9)
	assert.InDelta(t, -75.0, groups[0].Lng, 1e-9)
	assert.Equal(t, []point{items[0], items[1]}, groups[0].Members)

	assert.Equal(t, 1, groups[1].Count)
	assert.Equal(t, "c", groups[1].Members[0].id)
}

func TestCluster_OverlapIsPreserved(t *testing.T) {
	// b is ~44 km from both a and c; a and c are ~89 km apart.
	items := []point{
		{id: "a", lat: 0, lon: 0},
		{id: "b", lat: 0, lon: 0.4},
		{id: "c", lat: 0, lon: 0.8},
	}

	groups := geospatial.Cluster(items, 50)
	require.Len(t, groups, 2)

	assert.Equal(t, []string{"a", "b"}, ids(groups[0].Members))
	assert.Equal(t, []string{"b", "c"}, ids(groups[1].Members))

	total := 0
	for _, g := range groups {
		total += g.Count
	}
	assert.Equal(t, 4, total)
}

func TestCluster_RadiusIsInclusive(t *testing.T) {
	a := point{id: "a", lat: 10, lon: 10}
	b := point{id: "b", lat: 10.2, lon: 10.1}
	d := geospatial.DistanceKm(a.lat, a.lon, b.lat, b.lon)

	groups := geospatial.Cluster([]point{a, b}, d)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Count)
}

func TestCluster_NonPositiveRadiusUsesDefault(t *testing.T) {
	items := []point{
		{id: "a", lat: 0, lon: 0},
		{id: "b", lat: 0, lon: 0.4},
	}

	groups := geospatial.Cluster(items, 0)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Count)
}

func TestCluster_EveryItemAppears(t *testing.T) {
	items := []point{
		{id: "1", lat: 43.26, lon: -2.93},
		{id: "2", lat: 40.41, lon: -3.70},
		{id: "3", lat: 43.30, lon: -2.98},
		{id: "4", lat: 41.38, lon: 2.17},
	}

	seen := map[string]bool{}
	for _, g := range geospatial.Cluster(items, 50) {
		assert.Equal(t, len(g.Members), g.Count)
		for _, m := range g.Members {
			seen[m.id] = true
		}
	}
	assert.Len(t, seen, len(items))
}

func ids(ps []point) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.id
	}
	return out
}
