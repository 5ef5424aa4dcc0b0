// Package locations is a static gazetteer of Nairobi places used to turn a
// place name into a reference point for distance search.
package locations

import (
	"errors"
	"strings"

	"github.com/Meshack-Mesh/house-hunt-view/api"
)

var ErrLocationNotFound = errors.New("location not found")

const (
	KindConstituency = "constituency"
	KindPopular      = "popular"
)

type ServiceInterface interface {
	Search(q string) []api.Location
	Resolve(name string) (api.Location, error)
}

type Gazetteer struct {
	popular        []api.Location
	constituencies []api.Location
}

// NewGazetteer returns the built-in Nairobi gazetteer.
func NewGazetteer() *Gazetteer {
	return &Gazetteer{
		popular:        popularLocations,
		constituencies: constituencies,
	}
}

// Search matches q case-insensitively against place names and, for popular
// places, their constituency. Popular places come first.
func (g *Gazetteer) Search(q string) []api.Location {
	needle := strings.ToLower(strings.TrimSpace(q))

	result := make([]api.Location, 0, len(g.popular)+len(g.constituencies))
	for _, loc := range g.popular {
		if needle == "" || matches(loc, needle) {
			result = append(result, loc)
		}
	}
	for _, loc := range g.constituencies {
		if needle == "" || matches(loc, needle) {
			result = append(result, loc)
		}
	}
	return result
}

// Resolve returns the best place for name: an exact name match wins over a
// substring match.
func (g *Gazetteer) Resolve(name string) (api.Location, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return api.Location{}, ErrLocationNotFound
	}

	for _, set := range [][]api.Location{g.popular, g.constituencies} {
		for _, loc := range set {
			if strings.ToLower(loc.Name) == needle {
				return loc, nil
			}
		}
	}

	matchesFound := g.Search(needle)
	if len(matchesFound) == 0 {
		return api.Location{}, ErrLocationNotFound
	}
	return matchesFound[0], nil
}

func matches(loc api.Location, needle string) bool {
	return strings.Contains(strings.ToLower(loc.Name), needle) ||
		strings.Contains(strings.ToLower(loc.Constituency), needle)
}

func constituency(name string, lat, lng float64) api.Location {
	return api.Location{
		Name:        name,
		Kind:        KindConstituency,
		Coordinates: api.Coordinates{Lat: lat, Lng: lng},
	}
}

func popular(name, in string, lat, lng float64) api.Location {
	return api.Location{
		Name:         name,
		Constituency: in,
		Kind:         KindPopular,
		Coordinates:  api.Coordinates{Lat: lat, Lng: lng},
	}
}

var constituencies = []api.Location{
	constituency("Embakasi East", -1.3215, 36.8873),
	constituency("Embakasi North", -1.2823, 36.8473),
	constituency("Embakasi South", -1.3456, 36.8742),
	constituency("Embakasi West", -1.3089, 36.8356),
	constituency("Kibera", -1.3123, 36.7890),
	constituency("Dagoretti North", -1.2598, 36.7345),
	constituency("Dagoretti South", -1.2889, 36.7234),
	constituency("Westlands", -1.2577, 36.7888),
	constituency("Kamukunji", -1.2833, 36.8333),
	constituency("Starehe", -1.2833, 36.8167),
	constituency("Mathare", -1.2567, 36.8567),
	constituency("Kasarani", -1.2167, 36.9000),
	constituency("Ruaraka", -1.2333, 36.8833),
	constituency("Roysambu", -1.2000, 36.8833),
	constituency("Makadara", -1.3000, 36.8500),
	constituency("Lang'ata", -1.3500, 36.7500),
}

var popularLocations = []api.Location{
	popular("Kawangware", "Dagoretti North", -1.2598, 36.7345),
	popular("Pipeline", "Embakasi South", -1.3456, 36.8742),
	popular("Donholm", "Embakasi North", -1.2823, 36.8473),
	popular("Umoja", "Embakasi North", -1.2890, 36.8567),
	popular("Kibera DC", "Kibera", -1.3123, 36.7890),
	popular("Olympic", "Kibera", -1.3090, 36.7823),
	popular("Sarit Centre", "Westlands", -1.2577, 36.7888),
	popular("Parklands", "Westlands", -1.2456, 36.8123),
	popular("Githurai", "Kasarani", -1.1833, 36.9167),
	popular("Roysambu", "Roysambu", -1.2000, 36.8833),
}
