package geospatial

// DefaultClusterRadiusKm is used when Cluster is called with a non-positive radius.
const DefaultClusterRadiusKm = 50.0

// Locatable is anything with a stable identity and a position.
type Locatable interface {
	Key() string
	Coordinates() (lat, lon float64)
}

// Group is one proximity cluster: the mean position of its members, their
// count and the members themselves in input order.
type Group[T Locatable] struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Count   int     `json:"count"`
	Members []T     `json:"requests"`
}

// Cluster groups items by proximity with a single greedy pass.
//
// Items are visited in input order. Each item not yet assigned seeds a group
// made of every item (assigned or not) within radiusKm of the seed, and all of
// those are then marked assigned. An item can therefore appear in more than one
// group, and the result depends on input order. Runs in O(n²).
func Cluster[T Locatable](items []T, radiusKm float64) []Group[T] {
	if radiusKm <= 0 {
		radiusKm = DefaultClusterRadiusKm
	}

	groups := make([]Group[T], 0)
	processed := make(map[string]struct{}, len(items))

	for _, seed := range items {
		if _, done := processed[seed.Key()]; done {
			continue
		}
		seedLat, seedLon := seed.Coordinates()

		var members []T
		var sumLat, sumLon float64
		for _, item := range items {
			lat, lon := item.Coordinates()
			if DistanceKm(seedLat, seedLon, lat, lon) <= radiusKm {
				members = append(members, item)
				sumLat += lat
				sumLon += lon
				processed[item.Key()] = struct{}{}
			}
		}

		if len(members) == 0 {
			// NaN coordinates never match, not even themselves
			continue
		}
		n := float64(len(members))
		groups = append(groups, Group[T]{
			Lat:     sumLat / n,
			Lng:     sumLon / n,
			Count:   len(members),
			Members: members,
		})
	}

	return groups
}
