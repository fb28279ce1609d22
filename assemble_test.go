package hidroweb

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func day(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }

func obsOn(d int, value float64) Observation {
	return Observation{Timestamp: day(d), Value: value}
}

func TestAssembleSeries_GapMarkers(t *testing.T) {
	// A 5-day range with readings on only 3 days yields 5 entries with 2
	// explicit gap markers, ascending.
	fetch := func(ctx context.Context, start, end time.Time) ([]Observation, error) {
		return []Observation{obsOn(5, 120), obsOn(1, 100), obsOn(3, 110)}, nil
	}

	ts, err := assembleSeries(context.Background(), "64620000", SeriesFlow, day(1), day(5), 366, 24*time.Hour, fetch)
	if err != nil {
		t.Fatalf("assembleSeries() error = %v", err)
	}

	if ts.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", ts.Len())
	}
	if ts.Gaps() != 2 {
		t.Errorf("Gaps() = %d, want 2", ts.Gaps())
	}
	for i := 1; i < ts.Len(); i++ {
		if !ts.Observations[i-1].Timestamp.Before(ts.Observations[i].Timestamp) {
			t.Fatalf("observations not strictly ascending at index %d", i)
		}
	}
	for i, wantMissing := range []bool{false, true, false, true, false} {
		if ts.Observations[i].Missing != wantMissing {
			t.Errorf("Observations[%d].Missing = %v, want %v", i, ts.Observations[i].Missing, wantMissing)
		}
	}
	for _, o := range ts.Observations {
		if o.Timestamp.Before(ts.Start) || o.Timestamp.After(ts.End) {
			t.Errorf("observation %v outside [%v, %v]", o.Timestamp, ts.Start, ts.End)
		}
	}
}

func TestAssembleSeries_PaginatesByDateChunk(t *testing.T) {
	var ranges []string
	fetch := func(ctx context.Context, start, end time.Time) ([]Observation, error) {
		ranges = append(ranges, start.Format("01-02")+".."+end.Format("01-02"))
		return []Observation{{Timestamp: start, Value: 1}}, nil
	}

	_, err := assembleSeries(context.Background(), "64620000", SeriesFlow, day(1), day(7), 3, 24*time.Hour, fetch)
	if err != nil {
		t.Fatalf("assembleSeries() error = %v", err)
	}

	want := []string{"05-01..05-03", "05-04..05-06", "05-07..05-07"}
	if !reflect.DeepEqual(ranges, want) {
		t.Errorf("fetched ranges = %v, want %v", ranges, want)
	}
}

func TestAssembleSeries_OverlapRules(t *testing.T) {
	tests := []struct {
		name     string
		pages    [][]Observation
		wantErr  bool
		wantVal  float64
		wantMiss bool
	}{
		{
			name: "later value fills earlier gap",
			pages: [][]Observation{
				{{Timestamp: day(2), Missing: true}},
				{obsOn(2, 42)},
			},
			wantVal: 42,
		},
		{
			name: "later gap does not erase value",
			pages: [][]Observation{
				{obsOn(2, 42)},
				{{Timestamp: day(2), Missing: true}},
			},
			wantVal: 42,
		},
		{
			name: "identical values agree",
			pages: [][]Observation{
				{obsOn(2, 42)},
				{obsOn(2, 42)},
			},
			wantVal: 42,
		},
		{
			name: "conflicting values fail",
			pages: [][]Observation{
				{obsOn(2, 42)},
				{obsOn(2, 43)},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := 0
			fetch := func(ctx context.Context, start, end time.Time) ([]Observation, error) {
				page := tt.pages[call%len(tt.pages)]
				call++
				return page, nil
			}

			// Two one-day chunks over a two-day range produce two pages.
			ts, err := assembleSeries(context.Background(), "64620000", SeriesFlow, day(2), day(3), 1, 0, fetch)
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("error = %T (%v), want *ValidationError", err, err)
				}
				if vErr.Field != "timestamp" || !strings.Contains(vErr.Value, "2024-05-02") {
					t.Errorf("ValidationError = %+v, want the colliding timestamp named", vErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("assembleSeries() error = %v", err)
			}
			if ts.Len() != 1 {
				t.Fatalf("Len() = %d, want 1", ts.Len())
			}
			got := ts.Observations[0]
			if got.Missing != tt.wantMiss || (!got.Missing && got.Value != tt.wantVal) {
				t.Errorf("observation = %+v, want value %v missing %v", got, tt.wantVal, tt.wantMiss)
			}
		})
	}
}

func TestAssembleSeries_Idempotent(t *testing.T) {
	fetch := func(ctx context.Context, start, end time.Time) ([]Observation, error) {
		return []Observation{obsOn(1, 100), obsOn(4, 130)}, nil
	}

	first, err := assembleSeries(context.Background(), "64620000", SeriesFlow, day(1), day(5), 366, 24*time.Hour, fetch)
	if err != nil {
		t.Fatalf("assembleSeries() error = %v", err)
	}
	second, err := assembleSeries(context.Background(), "64620000", SeriesFlow, day(1), day(5), 366, 24*time.Hour, fetch)
	if err != nil {
		t.Fatalf("assembleSeries() error = %v", err)
	}

	if !reflect.DeepEqual(first.Observations, second.Observations) {
		t.Errorf("two identical assemblies differ:\n%+v\n%+v", first.Observations, second.Observations)
	}
}

func TestAssembleSeries_IrregularSeriesGetNoSyntheticGaps(t *testing.T) {
	fetch := func(ctx context.Context, start, end time.Time) ([]Observation, error) {
		return []Observation{
			{Timestamp: day(1).Add(9 * time.Hour), Value: 6.8},
			{Timestamp: day(4).Add(14 * time.Hour), Value: 7.1},
		}, nil
	}

	ts, err := assembleSeries(context.Background(), "64620000", SeriesWaterQuality, day(1), day(5), 366, SeriesWaterQuality.NominalInterval(), fetch)
	if err != nil {
		t.Fatalf("assembleSeries() error = %v", err)
	}
	if ts.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (no synthesized gaps)", ts.Len())
	}
	if ts.Gaps() != 0 {
		t.Errorf("Gaps() = %d, want 0", ts.Gaps())
	}
	// Irregular readings keep their clock time.
	if ts.Observations[0].Timestamp.Hour() != 9 {
		t.Errorf("first timestamp = %v, want 09:00 preserved", ts.Observations[0].Timestamp)
	}
}

func TestAssembleSeries_EndDateContainment(t *testing.T) {
	t.Run("daily readings past the end date are excluded", func(t *testing.T) {
		// The upstream may return the whole month for a narrower query; a
		// reading dated one day past the range must not leak into the series.
		fetch := func(ctx context.Context, start, end time.Time) ([]Observation, error) {
			return []Observation{obsOn(3, 110), obsOn(6, 140), obsOn(5, 120)}, nil
		}

		ts, err := assembleSeries(context.Background(), "64620000", SeriesFlow, day(1), day(5), 366, 24*time.Hour, fetch)
		if err != nil {
			t.Fatalf("assembleSeries() error = %v", err)
		}
		if ts.Len() != 5 {
			t.Fatalf("Len() = %d, want 5", ts.Len())
		}
		last := ts.Observations[ts.Len()-1]
		if last.Timestamp.After(ts.End) {
			t.Errorf("last timestamp %v lies after End %v", last.Timestamp, ts.End)
		}
		if last.Missing || last.Value != 120 {
			t.Errorf("last observation = %+v, want the in-range day-5 reading", last)
		}
	})

	t.Run("irregular readings on the end date are kept", func(t *testing.T) {
		// End-date containment is by calendar date: a 10:00 pH reading on the
		// last requested day belongs to the series.
		fetch := func(ctx context.Context, start, end time.Time) ([]Observation, error) {
			return []Observation{
				{Timestamp: day(1).Add(9 * time.Hour), Value: 6.8},
				{Timestamp: day(5).Add(10 * time.Hour), Value: 7.2},
				{Timestamp: day(6).Add(8 * time.Hour), Value: 7.5},
			}, nil
		}

		ts, err := assembleSeries(context.Background(), "64620000", SeriesWaterQuality, day(1), day(5), 366, SeriesWaterQuality.NominalInterval(), fetch)
		if err != nil {
			t.Fatalf("assembleSeries() error = %v", err)
		}
		if ts.Len() != 2 {
			t.Fatalf("Len() = %d, want 2 (end-day reading kept, day-6 reading excluded)", ts.Len())
		}
		last := ts.Observations[1].Timestamp
		if !last.Equal(day(5).Add(10 * time.Hour)) {
			t.Errorf("last timestamp = %v, want 2024-05-05 10:00", last)
		}
	})
}

func TestAssembleSeries_PageErrorAbortsWhole(t *testing.T) {
	boom := errors.New("page failed")
	call := 0
	fetch := func(ctx context.Context, start, end time.Time) ([]Observation, error) {
		call++
		if call == 2 {
			return nil, boom
		}
		return []Observation{{Timestamp: start, Value: 1}}, nil
	}

	ts, err := assembleSeries(context.Background(), "64620000", SeriesFlow, day(1), day(7), 3, 24*time.Hour, fetch)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want the page error", err)
	}
	if ts != nil {
		t.Error("expected no partial series on failure")
	}
}
