package weather

import (
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
)

var (
	geocodeMu   sync.Mutex
	geocodeFunc = geocoder.Geocoding
)

// Geocode fills in the coordinates of loc from its city and country using
// the Google geocoding API.
func Geocode(apiKey string, loc Location) (Location, error) {
	if apiKey == "" {
		return loc, fmt.Errorf("geocoding requires an api key")
	}
	if loc.City == "" {
		return loc, fmt.Errorf("geocoding requires a city")
	}

	// The geocoder package keeps its key in a package variable.
	geocodeMu.Lock()
	geocoder.ApiKey = apiKey
	res, err := geocodeFunc(geocoder.Address{City: loc.City, Country: loc.Country})
	geocodeMu.Unlock()
	if err != nil {
		return loc, fmt.Errorf("geocode %s: %w", loc.City, err)
	}

	loc.Latitude = res.Latitude
	loc.Longitude = res.Longitude
	return loc, nil
}
