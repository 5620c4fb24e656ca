package source

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/carefind/core"
)

// Facets holds the distinct filter values offered to users.
type Facets struct {
	Cities      []string `json:"cities"`
	Specialties []string `json:"specialties"`
	Insurers    []string `json:"insurers"`
}

// FacetsFromRows collects sorted distinct cities, specialties and insurers.
// Specialties and insurers are split on "|".
func FacetsFromRows(rows []Row) Facets {
	cities := map[string]struct{}{}
	specialties := map[string]struct{}{}
	insurers := map[string]struct{}{}

	for _, row := range rows {
		if city := strings.TrimSpace(row.Get(ColumnCity)); city != "" {
			cities[city] = struct{}{}
		}
		for _, s := range core.SplitPipe(row.Get(ColumnSpecialties)) {
			specialties[s] = struct{}{}
		}
		for _, s := range core.SplitPipe(row.Get(ColumnInsurers)) {
			insurers[s] = struct{}{}
		}
	}

	return Facets{
		Cities:      sortedKeys(cities),
		Specialties: sortedKeys(specialties),
		Insurers:    sortedKeys(insurers),
	}
}

// LoadFacets reads the table at path and returns its facets.
// An unreadable table gives empty facets and a warning.
func LoadFacets(path string, logger *slog.Logger) Facets {
	if logger == nil {
		logger = slog.Default()
	}
	rows, err := ReadFile(path, logger)
	if err != nil {
		logger.Warn("facets unavailable", "path", path, "err", err)
		return FacetsFromRows(nil)
	}
	return FacetsFromRows(rows)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
