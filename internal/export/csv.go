// Package export renders a recorded search's results for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/vendhive/locator/internal/history"
	"github.com/vendhive/locator/internal/location"
	"github.com/vendhive/locator/internal/scoring"
)

// csvHeader mirrors the column set operators paste into their outreach
// spreadsheets; changing it breaks downstream imports.
var csvHeader = []string{
	"Business Name",
	"Address",
	"Phone",
	"Email",
	"Website",
	"Rating",
	"Total Reviews",
	"Business Hours",
	"Foot Traffic Estimate",
	"Category",
	"Contact Completeness",
	"Priority Score",
	"Maps URL",
	"Latitude",
	"Longitude",
}

// Filename returns the suggested download filename for an export.
func Filename(entry *history.Entry) string {
	return fmt.Sprintf("vending_locations_%s.csv", entry.ZipCode)
}

// WriteCSV streams the entry's results as CSV, highest score first.
func WriteCSV(w io.Writer, entry *history.Entry) error {
	results := make([]*location.Candidate, len(entry.Results))
	for i := range entry.Results {
		results[i] = &entry.Results[i]
	}
	sort.Slice(results, func(i, j int) bool {
		return scoring.Less(results[i], results[j])
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, c := range results {
		if err := cw.Write(row(c)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(c *location.Candidate) []string {
	rating := ""
	if c.Rating != nil {
		rating = strconv.FormatFloat(*c.Rating, 'f', -1, 64)
	}
	reviews := ""
	if c.ReviewCount != nil {
		reviews = strconv.Itoa(*c.ReviewCount)
	}
	return []string{
		c.Name,
		c.Address,
		c.Phone,
		c.Email,
		c.Website,
		rating,
		reviews,
		strings.ReplaceAll(c.BusinessHours, "\n", "; "),
		string(c.Traffic),
		c.DetailedCategory,
		string(c.Contact),
		strconv.Itoa(c.Score),
		c.MapsURL,
		strconv.FormatFloat(c.Point.Lat, 'f', -1, 64),
		strconv.FormatFloat(c.Point.Lng, 'f', -1, 64),
	}
}
