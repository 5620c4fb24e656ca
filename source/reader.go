package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/carefind/core"
)

// Column names expected in the hospital table header.
const (
	ColumnHospitalName = "hospital_name"
	ColumnAddress      = "address"
	ColumnCity         = "city"
	ColumnLatitude     = "latitude"
	ColumnLongitude    = "longitude"
	ColumnSpecialties  = "specialties"
	ColumnInsurers     = "insurers"
	ColumnRating       = "rating"
	ColumnPhone        = "phone"
	ColumnWebsite      = "website"
)

// DefaultPath is where the hospital table lives unless configured otherwise.
const DefaultPath = "data/hospitals.csv"

// Row is one table row keyed by header name. Columns missing from the header
// are absent from the map.
type Row map[string]string

// Get returns the value of column, or "" when the row has no such column.
func (r Row) Get(column string) string {
	return r[column]
}

// ReadFile reads every row of the CSV table at path.
// A missing file yields an error wrapping core.ErrNotFound.
func ReadFile(path string, logger *slog.Logger) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: source table %s", core.ErrNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	rows, err := Read(f, logger)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// Read parses a CSV table whose first record is the header.
// Rows may be shorter or longer than the header; extra cells are ignored.
// Stray quotes inside unquoted fields are kept as literal text. A record
// that still fails to parse is logged and skipped.
func Read(r io.Reader, logger *slog.Logger) ([]Row, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, err
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[i] = name
	}

	rows := []Row{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			logger.Debug("skipping unparseable record", "line", parseErr.StartLine, "err", err)
			continue
		}
		if err != nil {
			return nil, err
		}

		row := make(Row, len(header))
		for i, name := range header {
			if i < len(record) && name != "" {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
