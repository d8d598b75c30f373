package ranking

import "math"

const earthRadiusKm = 6371.0

// Posts further than this from the viewer get no proximity bonus
const MaxProximityKm = 50.0

// MaxProximityBonus is the bonus at zero distance, as a fraction added to 1
const MaxProximityBonus = 0.2

// Point is a WGS84 coordinate
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm returns the haversine distance between two points
func DistanceKm(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ProximityBonus is 1.2 at the viewer's location, decaying exponentially to ~1.03 at 50 km
// and 1 beyond that.
func ProximityBonus(distanceKm float64) float64 {
	if math.IsNaN(distanceKm) || distanceKm < 0 {
		distanceKm = 0
	}
	if distanceKm > MaxProximityKm {
		return NeutralProximity
	}
	return 1 + MaxProximityBonus*math.Exp(-2*distanceKm/MaxProximityKm)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
