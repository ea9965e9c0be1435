package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/vendhive/locator/internal/history"
	"github.com/vendhive/locator/internal/location"
)

func ratingPtr(v float64) *float64 { return &v }
func intPtr(v int) *int            { return &v }

func TestWriteCSV(t *testing.T) {
	entry := &history.Entry{
		ZipCode: "30301",
		Results: []location.Candidate{
			{
				Name: "Quiet Shop", Score: 20,
				Point: location.Point{Lat: 33.70, Lng: -84.40},
			},
			{
				Name: "Busy Gym", Score: 85,
				Address: "100 Main St", Phone: "555-0100",
				Email: "gym@example.com", Website: "https://gym.example.com",
				Rating: ratingPtr(4.8), ReviewCount: intPtr(250),
				BusinessHours:    "Mon: 6-22\nTue: 6-22",
				Traffic:          location.TrafficHigh,
				DetailedCategory: "gym, health",
				Contact:          location.ContactBoth,
				MapsURL:          "https://maps.example.com/busy-gym",
				Point:            location.Point{Lat: 33.80, Lng: -84.30},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, entry); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(records))
	}
	if records[0][0] != "Business Name" || records[0][len(records[0])-1] != "Longitude" {
		t.Errorf("unexpected header: %v", records[0])
	}

	// Highest score first regardless of stored order.
	if records[1][0] != "Busy Gym" {
		t.Errorf("first data row = %q, want the higher-scored business", records[1][0])
	}
	gym := records[1]
	if gym[5] != "4.8" || gym[6] != "250" {
		t.Errorf("rating/reviews = %q/%q, want 4.8/250", gym[5], gym[6])
	}
	if gym[7] != "Mon: 6-22; Tue: 6-22" {
		t.Errorf("business hours = %q, want newlines folded", gym[7])
	}
	if gym[11] != "85" {
		t.Errorf("score column = %q, want 85", gym[11])
	}

	// Absent optional fields render as empty cells, not zeroes.
	shop := records[2]
	if shop[5] != "" || shop[6] != "" {
		t.Errorf("missing rating/reviews = %q/%q, want empty", shop[5], shop[6])
	}
}

func TestWriteCSVEmptyResults(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, &history.Entry{ZipCode: "30301"}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("empty export has %d lines, want header only", len(lines))
	}
}

func TestFilename(t *testing.T) {
	got := Filename(&history.Entry{ZipCode: "90210"})
	if got != "vending_locations_90210.csv" {
		t.Errorf("Filename() = %q", got)
	}
}
