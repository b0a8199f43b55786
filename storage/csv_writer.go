package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"propscan/models"
)

var csvHeader = []string{
	"rank", "resolved_id", "resolution", "source", "address", "city", "state", "zip",
	"price", "beds", "baths", "sqft", "units", "property_type",
	"monthly_rent", "mortgage", "cash_flow", "rent_to_price", "rent_estimated",
	"score", "grade",
}

// CSVWriter writes a ranked list of scored properties to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	rank   int
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends props in the order given; rank numbering continues across
// calls.
func (c *CSVWriter) Write(props []*models.CanonicalProperty) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range props {
		c.rank++
		if err := c.writer.Write(csvRow(c.rank, p)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func csvRow(rank int, p *models.CanonicalProperty) []string {
	var score, grade string
	if p.Score != nil {
		score = strconv.FormatFloat(p.Score.Value, 'f', 2, 64)
		grade = string(p.Score.Grade)
	}
	units := ""
	if p.Score != nil {
		units = strconv.Itoa(p.Score.EstimatedUnits)
	}
	return []string{
		strconv.Itoa(rank),
		p.ResolvedID,
		string(p.Provenance.ResolutionOutcome),
		p.Provenance.Source,
		p.Address,
		p.City,
		p.State,
		p.Zip,
		strconv.FormatFloat(p.Price, 'f', 2, 64),
		strconv.Itoa(p.Specs.Beds),
		strconv.FormatFloat(p.Specs.Baths, 'f', -1, 64),
		strconv.Itoa(p.Specs.Sqft),
		units,
		p.Specs.PropertyType,
		optional(p.Financials.MonthlyRent, 2),
		optional(p.Financials.EstimatedMortgage, 2),
		optional(p.Financials.CashFlow, 2),
		optional(p.Financials.RentToPriceRatio, 4),
		strconv.FormatBool(p.Provenance.Estimated.MonthlyRent),
		score,
		grade,
	}
}

func optional(f *float64, prec int) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', prec, 64)
}
