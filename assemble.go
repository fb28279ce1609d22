package hidroweb

import (
	"context"
	"sort"
	"time"
)

// pageFetcher retrieves and normalizes the observations for one date
// sub-range. The assembler drives it across the full requested range.
type pageFetcher func(ctx context.Context, start, end time.Time) ([]Observation, error)

// dateOnly normalizes a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// assembleSeries merges paginated fragments into one ordered, gap-annotated
// series. Pagination is by date-range chunking: the upstream is queried in
// sub-ranges of chunkSpan days, each with its own timeout and retry budget.
// The result either satisfies every series invariant or the whole call fails.
func assembleSeries(ctx context.Context, stationCode string, kind SeriesType, start, end time.Time, chunkDays int, interval time.Duration, fetch pageFetcher) (*TimeSeries, error) {
	if chunkDays <= 0 {
		chunkDays = 366
	}
	start, end = dateOnly(start), dateOnly(end)

	merged := make(map[int64]Observation)
	daily := interval >= 24*time.Hour

	// End-date containment is inclusive of the whole end calendar date:
	// daily keys are dates compared against end directly, while irregular
	// readings keep their clock time and are bounded by the midnight after.
	rangeEnd := end.AddDate(0, 0, 1)

	for cur := start; !cur.After(end); {
		chunkEnd := cur.AddDate(0, 0, chunkDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		page, err := fetch(ctx, cur, chunkEnd)
		if err != nil {
			return nil, err
		}

		for _, obs := range page {
			if daily {
				// Daily series are keyed by calendar date regardless of the
				// reading's clock time.
				obs.Timestamp = dateOnly(obs.Timestamp)
				if obs.Timestamp.Before(start) || obs.Timestamp.After(end) {
					continue
				}
			} else if obs.Timestamp.Before(start) || !obs.Timestamp.Before(rangeEnd) {
				continue
			}
			if err := mergeObservation(merged, obs); err != nil {
				return nil, err
			}
		}

		cur = chunkEnd.AddDate(0, 0, 1)
	}

	if interval > 0 {
		for t := start; !t.After(end); t = t.Add(interval) {
			key := t.UnixNano()
			if _, ok := merged[key]; !ok {
				merged[key] = Observation{Timestamp: t, Missing: true}
			}
		}
	}

	observations := make([]Observation, 0, len(merged))
	for _, obs := range merged {
		observations = append(observations, obs)
	}
	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Timestamp.Before(observations[j].Timestamp)
	})

	// Safety net: the map already rules out duplicates, but the strictly
	// ascending invariant is asserted before the series is frozen.
	for i := 1; i < len(observations); i++ {
		if !observations[i-1].Timestamp.Before(observations[i].Timestamp) {
			return nil, &ValidationError{
				Field:  "timestamp",
				Value:  observations[i].Timestamp.Format(time.RFC3339),
				Reason: "duplicate timestamp after finalization",
			}
		}
	}

	return &TimeSeries{
		StationCode:  stationCode,
		Type:         kind,
		Start:        start,
		End:          end,
		Observations: observations,
	}, nil
}

// mergeObservation applies the page overlap rule: a later page may fill a
// gap, but two differing non-gap values for one timestamp are an upstream
// inconsistency and must not be silently resolved.
func mergeObservation(merged map[int64]Observation, obs Observation) error {
	key := obs.Timestamp.UnixNano()
	existing, seen := merged[key]
	if !seen {
		merged[key] = obs
		return nil
	}

	switch {
	case existing.Missing:
		merged[key] = obs
	case obs.Missing:
		// keep the real reading
	case existing.Value != obs.Value:
		return &ValidationError{
			Field:  "timestamp",
			Value:  obs.Timestamp.Format(time.RFC3339),
			Reason: "conflicting values for one timestamp across pages",
		}
	}
	return nil
}
