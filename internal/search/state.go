// Package search holds the pure parts of catalog search: the search state and its
// transitions, filtering and sorting of records, and pagination.
package search

import "fmt"

// Field is a record field the result set can be sorted by.
type Field string

const (
	FieldName     Field = "name"
	FieldQuantity Field = "quantity"
	FieldPrice    Field = "price"
)

// ParseField converts a user supplied field name into a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldName, FieldQuantity, FieldPrice:
		return f, nil
	default:
		return "", fmt.Errorf("unknown sort field %q", s)
	}
}

// Direction is the sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// Effect tells the owner of a State what has to follow a transition.
type Effect uint8

const (
	// EffectNone: re-derive the view from the records already held.
	EffectNone Effect = iota
	// EffectDebounce: the query changed and must settle before a fetch starts.
	EffectDebounce
	// EffectResort: the ordering changed; re-sort or re-fetch depending on policy.
	EffectResort
)

// State is the user-controlled part of a search. Transitions never mutate the receiver.
type State struct {
	Query         string    `json:"query"`
	CurrentPage   int       `json:"currentPage"`
	SortField     Field     `json:"sortField"`
	SortDirection Direction `json:"sortDirection"`
}

// NewState returns the initial state: empty query, first page, ascending by name.
func NewState() State {
	return State{
		Query:         "",
		CurrentPage:   1,
		SortField:     FieldName,
		SortDirection: Ascending,
	}
}

// WithQuery sets the query and always goes back to the first page.
func (s State) WithQuery(q string) (State, Effect) {
	s.Query = q
	s.CurrentPage = 1
	return s, EffectDebounce
}

// WithPage moves to page p. Pages below 1 are raised to 1.
func (s State) WithPage(p int) (State, Effect) {
	s.CurrentPage = max(p, 1)
	return s, EffectNone
}

// WithSort flips the direction when field is already the sort field, otherwise sorts
// ascending by field. The current page is kept.
func (s State) WithSort(field Field) (State, Effect) {
	if s.SortField == field {
		s.SortDirection = s.SortDirection.Toggle()
	} else {
		s.SortField = field
		s.SortDirection = Ascending
	}
	return s, EffectResort
}
