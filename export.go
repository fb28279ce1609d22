package hidroweb

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Row is one tabular entry of an exported series. Value is nil for gap
// markers so downstream tooling can tell "no reading" from zero.
type Row struct {
	Timestamp time.Time
	Value     *float64
	Quality   string
}

// Table converts a finalized series into generic row-oriented form for
// analysis tooling. It reads only the frozen public shape of the series.
func (ts *TimeSeries) Table() []Row {
	rows := make([]Row, len(ts.Observations))
	for i, obs := range ts.Observations {
		row := Row{Timestamp: obs.Timestamp, Quality: obs.Quality}
		if !obs.Missing {
			v := obs.Value
			row.Value = &v
		}
		rows[i] = row
	}
	return rows
}

// WriteCSV writes the series as CSV with a timestamp,value,quality header.
// Gap markers produce an empty value column.
func (ts *TimeSeries) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "value", "quality"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range ts.Table() {
		value := ""
		if row.Value != nil {
			value = strconv.FormatFloat(*row.Value, 'f', -1, 64)
		}
		record := []string{row.Timestamp.Format("2006-01-02"), value, row.Quality}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
