package hidroweb

import "time"

// SeriesType identifies what a time series measures.
type SeriesType string

const (
	SeriesFlow         SeriesType = "flow"
	SeriesRainfall     SeriesType = "rainfall"
	SeriesWaterLevel   SeriesType = "water_level"
	SeriesTemperature  SeriesType = "temperature"
	SeriesWaterQuality SeriesType = "water_quality"
)

// seriesTypeParams maps each series type onto the upstream measurement field
// and query parameter value.
var seriesTypeParams = map[SeriesType]string{
	SeriesFlow:         "vazao",
	SeriesRainfall:     "chuva",
	SeriesWaterLevel:   "cota",
	SeriesTemperature:  "temperatura",
	SeriesWaterQuality: "qualidade",
}

// Valid reports whether t is one of the known series types.
func (t SeriesType) Valid() bool {
	_, ok := seriesTypeParams[t]
	return ok
}

// NominalInterval is the expected spacing between observations, used to
// synthesize gap markers. Water quality sampling is irregular, so it has no
// nominal interval and no gaps are synthesized for it.
func (t SeriesType) NominalInterval() time.Duration {
	if t == SeriesWaterQuality {
		return 0
	}
	return 24 * time.Hour
}

// Observation is one reading in a time series. A gap marker is an
// Observation with Missing set; its Value is meaningless then.
type Observation struct {
	Timestamp time.Time
	Value     float64
	Missing   bool
	Quality   string
}

// TimeSeries is a finalized, gap-aware series for one (station, type) pair.
// Observations are strictly timestamp-ascending with no duplicates, all
// within [Start, End]. Instances are frozen once returned; the client keeps
// no reference to them.
type TimeSeries struct {
	StationCode  string
	Type         SeriesType
	Start        time.Time
	End          time.Time
	Observations []Observation
}

// Len returns the number of entries, gap markers included.
func (ts *TimeSeries) Len() int { return len(ts.Observations) }

// Gaps returns how many entries are gap markers.
func (ts *TimeSeries) Gaps() int {
	n := 0
	for _, o := range ts.Observations {
		if o.Missing {
			n++
		}
	}
	return n
}
