package search

import (
	"strings"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// AllFacets is the facet value meaning "no restriction".
const AllFacets = "All"

// BuildFilter translates facet selections into an index filter.
// City is matched exactly; specialty and insurer are matched as substrings of
// the pipe-joined lists stored in metadata. Blank or "All" selections add no
// condition. Returns nil when nothing is selected.
func BuildFilter(city, specialty, insurer string) storage.Filter {
	var f storage.Filter
	add := func(field, value string, cond func(string) storage.Condition) {
		value = strings.TrimSpace(value)
		if value == "" || value == AllFacets {
			return
		}
		if f == nil {
			f = storage.Filter{}
		}
		f[field] = cond(value)
	}

	add(core.FieldCity, city, func(v string) storage.Condition { return storage.Eq(v) })
	add(core.FieldSpecialties, specialty, storage.Contains)
	add(core.FieldInsurers, insurer, storage.Contains)
	return f
}
