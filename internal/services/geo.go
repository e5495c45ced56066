package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"checkinflow/internal/domain"
)

// earthRadiusMeters is the mean Earth radius used by Distance.
const earthRadiusMeters = 6371000.0

// Distance returns the great-circle distance in meters between two points
// given in decimal degrees, using the Haversine formula.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// ParseGeolocation parses a "lat,lng" string. Coordinates outside the valid
// latitude/longitude ranges are rejected.
func ParseGeolocation(s string) (lat, lng float64, err error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected \"lat,lng\"", domain.ErrInvalidLocation)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude: %v", domain.ErrInvalidLocation, err)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude: %v", domain.ErrInvalidLocation, err)
	}
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidLocation)
	}
	return lat, lng, nil
}

// checkLocation applies an event's location rule to a submitted geolocation.
// Events without location validation accept anything, including nil.
func checkLocation(event *domain.Event, geolocation *string) error {
	if !event.LocationValidation {
		return nil
	}
	if geolocation == nil || strings.TrimSpace(*geolocation) == "" {
		return domain.ErrInvalidLocation
	}
	lat, lng, err := ParseGeolocation(*geolocation)
	if err != nil {
		return err
	}
	if !event.HasCoordinates() {
		return domain.ErrLocationNotConfigured
	}
	radius := event.Radius
	if radius <= 0 {
		radius = domain.DefaultRadiusMeters
	}
	d := Distance(*event.Latitude, *event.Longitude, lat, lng)
	if d > float64(radius) {
		return &domain.OutOfRangeError{Distance: d, Radius: radius}
	}
	return nil
}
