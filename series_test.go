package hidroweb

import (
	"testing"
	"time"
)

func TestSeriesTypeValid(t *testing.T) {
	for _, kind := range []SeriesType{SeriesFlow, SeriesRainfall, SeriesWaterLevel, SeriesTemperature, SeriesWaterQuality} {
		if !kind.Valid() {
			t.Errorf("%q.Valid() = false", kind)
		}
	}
	if SeriesType("humidity").Valid() {
		t.Error(`SeriesType("humidity").Valid() = true, want false`)
	}
}

func TestSeriesTypeNominalInterval(t *testing.T) {
	if got := SeriesFlow.NominalInterval(); got != 24*time.Hour {
		t.Errorf("flow interval = %v, want 24h", got)
	}
	if got := SeriesWaterQuality.NominalInterval(); got != 0 {
		t.Errorf("water_quality interval = %v, want 0 (irregular sampling)", got)
	}
}

func TestTimeSeriesGaps(t *testing.T) {
	ts := sampleSeries()
	if ts.Len() != 3 {
		t.Errorf("Len() = %d, want 3", ts.Len())
	}
	if ts.Gaps() != 1 {
		t.Errorf("Gaps() = %d, want 1", ts.Gaps())
	}
}
