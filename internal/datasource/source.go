// Package datasource fetches the raw CSV rows behind each series from files, HTTP, or
// PostgreSQL.
package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/irfndi/powerlaw-overtake/internal/models"
)

// ErrSourceUnavailable wraps every fetch failure regardless of backend.
var ErrSourceUnavailable = errors.New("data source unavailable")

// Column headers located in every CSV.
const (
	StartColumn = "Start"
	OpenColumn  = "Open"
)

// Source returns the raw rows stored under a file name such as
// "kaspa_prices_btc_historical.csv".
type Source interface {
	Rows(ctx context.Context, name string) ([]models.RawRow, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, name string) ([]models.RawRow, error)

func (f SourceFunc) Rows(ctx context.Context, name string) ([]models.RawRow, error) {
	return f(ctx, name)
}

func unavailable(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, name, err)
}

// ParseCSV decodes a headered CSV and extracts the Start and Open columns. Header
// matching ignores case and surrounding space. Blank and short rows are kept as empty
// fields so the loader can drop them.
func ParseCSV(r io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	startIdx, openIdx := -1, -1
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		switch {
		case strings.EqualFold(col, StartColumn):
			startIdx = i
		case strings.EqualFold(col, OpenColumn):
			openIdx = i
		}
	}
	if startIdx < 0 || openIdx < 0 {
		return nil, fmt.Errorf("csv header %v must contain %s and %s columns", header, StartColumn, OpenColumn)
	}

	var rows []models.RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		if blank(record) {
			continue
		}
		rows = append(rows, models.RawRow{
			Start: field(record, startIdx),
			Open:  field(record, openIdx),
		})
	}
	return rows, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
