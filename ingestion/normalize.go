package ingestion

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/source"
)

const (
	fallbackSpecialties = "general care"
	fallbackInsurers    = "various insurers"
)

// SafeFloat parses s as a float, returning def for empty, malformed or
// non-finite input.
func SafeFloat(s string, def float64) float64 {
	f, err := parseFloat(s)
	if err != nil {
		return def
	}
	return f
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty number", core.ErrInvalidRecord)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidRecord, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: non-finite number %q", core.ErrInvalidRecord, s)
	}
	return f, nil
}

// RecordFromRow builds the typed record for a row. Text fields are trimmed and
// numeric fields fall back to 0. Never fails.
func RecordFromRow(row source.Row) core.HospitalRecord {
	text := func(column string) string {
		return strings.TrimSpace(row.Get(column))
	}
	return core.HospitalRecord{
		Name:        text(source.ColumnHospitalName),
		Address:     text(source.ColumnAddress),
		City:        text(source.ColumnCity),
		Latitude:    SafeFloat(row.Get(source.ColumnLatitude), 0),
		Longitude:   SafeFloat(row.Get(source.ColumnLongitude), 0),
		Specialties: core.SplitPipe(row.Get(source.ColumnSpecialties)),
		Insurers:    core.SplitPipe(row.Get(source.ColumnInsurers)),
		Rating:      SafeFloat(row.Get(source.ColumnRating), 0),
		Phone:       text(source.ColumnPhone),
		Website:     text(source.ColumnWebsite),
	}
}

// Content renders the retrieval text for a record.
func Content(r core.HospitalRecord) string {
	specialties := fallbackSpecialties
	if len(r.Specialties) > 0 {
		specialties = strings.Join(r.Specialties, ", ")
	}
	insurers := fallbackInsurers
	if len(r.Insurers) > 0 {
		insurers = strings.Join(r.Insurers, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s in %s offers services in %s and accepts %s. Address: %s.",
		r.Name, r.City, specialties, insurers, r.Address)
	if len(r.Specialties) > 0 {
		b.WriteString("\nTAGS: ")
		b.WriteString(strings.Join(r.Specialties, ", "))
	}
	return b.String()
}

// NormalizeRow converts one table row into an indexable document keyed by the
// hospital's name, city and address.
func NormalizeRow(row source.Row) *core.Document {
	record := RecordFromRow(row)
	return &core.Document{
		ID:       record.Key(),
		Content:  Content(record),
		Metadata: core.NormalizeMetadata(core.FlattenMetadata(record.Metadata())),
	}
}

// rowProblems lists the numeric cells that were present but unusable.
// The row is still ingested with defaults.
func rowProblems(row source.Row) []error {
	var problems []error
	for _, column := range []string{source.ColumnLatitude, source.ColumnLongitude, source.ColumnRating} {
		raw := row.Get(column)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := parseFloat(raw); err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", column, err))
		}
	}
	return problems
}

func logRowProblems(logger *slog.Logger, line int, row source.Row) {
	for _, err := range rowProblems(row) {
		logger.Debug("using default for malformed field", "row", line, "err", err)
	}
}
