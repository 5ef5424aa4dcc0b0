// Package geo computes great-circle distances and map links.
package geo

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Meshack-Mesh/house-hunt-view/api"
)

// EarthRadiusKm is the mean earth radius used by Distance.
const EarthRadiusKm = 6371.0

const directionsBase = "https://www.google.com/maps/dir/?api=1"

// Distance returns the haversine distance between a and b in kilometres.
func Distance(a, b api.Coordinates) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Within reports whether b lies no further than radiusKm from a.
func Within(a, b api.Coordinates, radiusKm float64) bool {
	return Distance(a, b) <= radiusKm
}

// DirectionsURL builds a Google Maps driving-directions link to c.
func DirectionsURL(c api.Coordinates) string {
	return fmt.Sprintf("%s&destination=%s,%s&travelmode=driving",
		directionsBase, formatCoord(c.Lat), formatCoord(c.Lng))
}

// DisplayBucketKm is the granularity of distances shown to callers. Finer
// values let a caller triangulate a listing from a few searches.
const DisplayBucketKm = 0.5

// BucketKm rounds a distance up to the next DisplayBucketKm.
func BucketKm(km float64) float64 {
	return math.Ceil(km/DisplayBucketKm) * DisplayBucketKm
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
