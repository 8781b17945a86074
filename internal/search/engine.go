package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/abgdnv/catalogsearch/internal/catalog"
	"golang.org/x/text/cases"
)

// Filter keeps the records whose name contains query, ignoring case.
// An empty query keeps every record. The result is always a new slice.
func Filter(records []catalog.Record, query string) []catalog.Record {
	out := make([]catalog.Record, 0, len(records))
	if query == "" {
		return append(out, records...)
	}
	fold := cases.Fold()
	needle := fold.String(query)
	for _, r := range records {
		if strings.Contains(fold.String(r.Name), needle) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a stably sorted copy of records. Records with equal keys keep their
// relative order in both directions.
func Sort(records []catalog.Record, field Field, direction Direction) []catalog.Record {
	sorted := slices.Clone(records)
	if sorted == nil {
		sorted = []catalog.Record{}
	}
	compare := comparator(field)
	if direction == Descending {
		asc := compare
		compare = func(a, b catalog.Record) int { return asc(b, a) }
	}
	slices.SortStableFunc(sorted, compare)
	return sorted
}

// Apply filters by query and then sorts by field and direction.
func Apply(records []catalog.Record, query string, field Field, direction Direction) []catalog.Record {
	return Sort(Filter(records, query), field, direction)
}

func comparator(field Field) func(a, b catalog.Record) int {
	switch field {
	case FieldQuantity:
		return func(a, b catalog.Record) int { return strings.Compare(a.Quantity, b.Quantity) }
	case FieldPrice:
		return func(a, b catalog.Record) int { return cmp.Compare(a.Price, b.Price) }
	default:
		return func(a, b catalog.Record) int { return strings.Compare(a.Name, b.Name) }
	}
}
