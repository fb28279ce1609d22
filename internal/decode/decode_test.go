package decode

import (
	"errors"
	"strings"
	"testing"
)

func TestItems_ShapeVariants(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantShape   Shape
		wantRecords int
	}{
		{
			name:        "envelope with list items",
			body:        `{"status":"OK","message":"ok","items":[{"codigo":"64620000"},{"codigo":"64620001"}]}`,
			wantShape:   ShapeEnvelopeList,
			wantRecords: 2,
		},
		{
			name:        "envelope with single object items",
			body:        `{"status":"OK","message":"ok","items":{"codigo":"64620000"}}`,
			wantShape:   ShapeEnvelopeObject,
			wantRecords: 1,
		},
		{
			name:        "bare top-level array",
			body:        `[{"codigo":"64620000"}]`,
			wantShape:   ShapeBareList,
			wantRecords: 1,
		},
		{
			name:        "envelope with null items",
			body:        `{"status":"OK","message":"no data","items":null}`,
			wantShape:   ShapeEnvelopeList,
			wantRecords: 0,
		},
		{
			name:        "envelope without items key",
			body:        `{"status":"OK","message":"no data"}`,
			wantShape:   ShapeEnvelopeList,
			wantRecords: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Items([]byte(tt.body))
			if err != nil {
				t.Fatalf("Items() error = %v", err)
			}
			if got.Shape != tt.wantShape {
				t.Errorf("Shape = %q, want %q", got.Shape, tt.wantShape)
			}
			if len(got.Records) != tt.wantRecords {
				t.Errorf("len(Records) = %d, want %d", len(got.Records), tt.wantRecords)
			}
		})
	}
}

func TestItems_UnrecognizedShape(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "scalar items", body: `{"status":"OK","items":42}`},
		{name: "plain string", body: `not json at all`},
		{name: "empty body", body: ``},
		{name: "top-level scalar", body: `17`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Items([]byte(tt.body))
			if err == nil {
				t.Fatal("Items() expected error, got nil")
			}
			var shapeErr *ShapeError
			if !errors.As(err, &shapeErr) {
				t.Fatalf("error = %T, want *ShapeError", err)
			}
			if tt.body != "" && shapeErr.Excerpt == "" {
				t.Error("ShapeError.Excerpt is empty, want payload excerpt")
			}
		})
	}
}

func TestItems_ExcerptIsTruncated(t *testing.T) {
	long := `{"items":"` + strings.Repeat("x", 500) + `"}`
	_, err := Items([]byte(long))

	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("error = %T, want *ShapeError", err)
	}
	if len(shapeErr.Excerpt) > excerptLen {
		t.Errorf("len(Excerpt) = %d, want <= %d", len(shapeErr.Excerpt), excerptLen)
	}
}

func TestMessage(t *testing.T) {
	if got := Message([]byte(`{"status":"ERROR","message":"estação não encontrada"}`)); got != "estação não encontrada" {
		t.Errorf("Message() = %q, want envelope message", got)
	}
	if got := Message([]byte(`plain text error`)); got != "plain text error" {
		t.Errorf("Message() = %q, want raw excerpt fallback", got)
	}
}
