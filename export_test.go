package hidroweb

import (
	"strings"
	"testing"
	"time"
)

func sampleSeries() *TimeSeries {
	d := func(day int) time.Time { return time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC) }
	return &TimeSeries{
		StationCode: "64620000",
		Type:        SeriesFlow,
		Start:       d(1),
		End:         d(3),
		Observations: []Observation{
			{Timestamp: d(1), Value: 100.5, Quality: "Bom"},
			{Timestamp: d(2), Missing: true},
			{Timestamp: d(3), Value: 97.4},
		},
	}
}

func TestTable(t *testing.T) {
	rows := sampleSeries().Table()

	if len(rows) != 3 {
		t.Fatalf("len = %d, want 3", len(rows))
	}
	if rows[0].Value == nil || *rows[0].Value != 100.5 {
		t.Errorf("rows[0].Value = %v, want 100.5", rows[0].Value)
	}
	if rows[0].Quality != "Bom" {
		t.Errorf("rows[0].Quality = %q, want Bom", rows[0].Quality)
	}
	if rows[1].Value != nil {
		t.Errorf("rows[1].Value = %v, want nil for gap marker", rows[1].Value)
	}
}

func TestWriteCSV(t *testing.T) {
	var sb strings.Builder
	if err := sampleSeries().WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "timestamp,value,quality\n" +
		"2024-05-01,100.5,Bom\n" +
		"2024-05-02,,\n" +
		"2024-05-03,97.4,\n"
	if sb.String() != want {
		t.Errorf("csv = %q, want %q", sb.String(), want)
	}
}
