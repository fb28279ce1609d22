package hidroweb

import (
	"math"
	"sort"
)

// StationType is the monitoring network a station belongs to.
type StationType string

const (
	StationPluviometric StationType = "pluviometric"
	StationFluviometric StationType = "fluviometric"
	StationOther        StationType = "other"
)

// Station is the canonical metadata record for one monitoring station.
// Immutable once constructed by the directory. Coordinates may be absent;
// when present they are valid latitude/longitude degrees.
type Station struct {
	Code         string
	Name         string
	Latitude     *float64
	Longitude    *float64
	Altitude     *float64
	State        string
	Municipality string
	Basin        string
	SubBasin     string
	Operator     string
	Type         StationType
}

// HasCoordinates reports whether both latitude and longitude are known.
func (s *Station) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// StationFilter selects stations in Client.GetStations. Zero-valued fields
// match everything; set fields combine with AND semantics.
type StationFilter struct {
	State string
	Basin string
	Type  StationType
}

func (f StationFilter) matches(s Station) bool {
	if f.State != "" && s.State != f.State {
		return false
	}
	if f.Basin != "" && s.Basin != f.Basin {
		return false
	}
	if f.Type != "" && s.Type != f.Type {
		return false
	}
	return true
}

const earthRadiusKm = 6371

// haversineKm is the great-circle distance between two points in kilometers.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

// FilterByDistance returns the stations within maxKm of a center point,
// nearest first. Stations without coordinates are excluded.
func FilterByDistance(stations []Station, centerLat, centerLon, maxKm float64) []Station {
	type withDistance struct {
		station Station
		km      float64
	}
	var kept []withDistance
	for _, s := range stations {
		if !s.HasCoordinates() {
			continue
		}
		km := haversineKm(centerLat, centerLon, *s.Latitude, *s.Longitude)
		if km <= maxKm {
			kept = append(kept, withDistance{station: s, km: km})
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].km < kept[j].km })

	out := make([]Station, len(kept))
	for i, w := range kept {
		out[i] = w.station
	}
	return out
}

// StationSummary aggregates counts over a station list.
type StationSummary struct {
	Total      int
	ByState    map[string]int
	ByType     map[StationType]int
	ByOperator map[string]int
}

// Summarize counts stations by state, type, and operator.
func Summarize(stations []Station) StationSummary {
	sum := StationSummary{
		Total:      len(stations),
		ByState:    make(map[string]int),
		ByType:     make(map[StationType]int),
		ByOperator: make(map[string]int),
	}
	for _, s := range stations {
		sum.ByState[s.State]++
		sum.ByType[s.Type]++
		if s.Operator != "" {
			sum.ByOperator[s.Operator]++
		}
	}
	return sum
}
