package search

import (
	"fmt"
	"testing"

	"github.com/abgdnv/catalogsearch/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func ids(records []catalog.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

var fixture = []catalog.Record{
	{ID: "1", Name: "Widget", Quantity: "10", Price: 5},
	{ID: "2", Name: "Gadget", Quantity: "2", Price: 12.5},
	{ID: "3", Name: "Mini widget", Quantity: "10", Price: 5},
	{ID: "4", Name: "Sprocket", Quantity: "7", Price: 1.25},
	{ID: "5", Name: "WIDGETRON", Quantity: "1", Price: 99},
}

func Test_Filter(t *testing.T) {
	testCases := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "Empty query keeps all", query: "", expected: []string{"1", "2", "3", "4", "5"}},
		{name: "Lower case query", query: "wid", expected: []string{"1", "3", "5"}},
		{name: "Upper case query", query: "WID", expected: []string{"1", "3", "5"}},
		{name: "Mixed case substring", query: "gEt", expected: []string{"1", "2", "3", "5"}},
		{name: "No match", query: "gizmo", expected: []string{}},
		{name: "Only name is searched", query: "10", expected: []string{}},
		{name: "Whitespace is significant", query: "mini w", expected: []string{"3"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			got := Filter(fixture, tc.query)

			// then
			assert.Equal(t, tc.expected, ids(got))
		})
	}
}

func Test_Filter_WidgetExample(t *testing.T) {
	records := []catalog.Record{{ID: "w", Name: "Widget"}}

	assert.Len(t, Filter(records, "wid"), 1)
	assert.Len(t, Filter(records, "WID"), 1)
	assert.Empty(t, Filter(records, "gadget"))
}

func Test_Filter_UnicodeFolding(t *testing.T) {
	records := []catalog.Record{{ID: "1", Name: "Straße Lamp"}, {ID: "2", Name: "ÉCLAIR"}}

	assert.Equal(t, []string{"1"}, ids(Filter(records, "STRASSE")))
	assert.Equal(t, []string{"2"}, ids(Filter(records, "éclair")))
}

func Test_Sort(t *testing.T) {
	testCases := []struct {
		name      string
		field     Field
		direction Direction
		expected  []string
	}{
		{name: "Name ascending is byte-wise", field: FieldName, direction: Ascending, expected: []string{"2", "3", "4", "5", "1"}},
		{name: "Name descending", field: FieldName, direction: Descending, expected: []string{"1", "5", "4", "3", "2"}},
		{name: "Price ascending keeps ties in input order", field: FieldPrice, direction: Ascending, expected: []string{"4", "1", "3", "2", "5"}},
		{name: "Price descending keeps ties in input order", field: FieldPrice, direction: Descending, expected: []string{"5", "2", "1", "3", "4"}},
		{name: "Quantity is lexicographic", field: FieldQuantity, direction: Ascending, expected: []string{"5", "1", "3", "2", "4"}},
		{name: "Quantity descending", field: FieldQuantity, direction: Descending, expected: []string{"4", "2", "1", "3", "5"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			got := Sort(fixture, tc.field, tc.direction)

			// then
			assert.Equal(t, tc.expected, ids(got))
		})
	}
}

func Test_Sort_DoesNotMutateInput(t *testing.T) {
	// given
	input := append([]catalog.Record(nil), fixture...)

	// when
	_ = Sort(input, FieldPrice, Descending)
	_ = Filter(input, "wid")

	// then
	assert.Equal(t, fixture, input)
}

func Test_Sort_StableAcrossRepeatedSorts(t *testing.T) {
	// given
	records := make([]catalog.Record, 0, 20)
	for i := range 20 {
		records = append(records, catalog.Record{ID: fmt.Sprintf("%02d", i), Name: "same", Price: float64(i % 2)})
	}

	// when
	first := Sort(records, FieldName, Ascending)
	second := Sort(first, FieldName, Ascending)
	desc := Sort(records, FieldName, Descending)

	// then
	assert.Equal(t, ids(records), ids(first))
	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, ids(records), ids(desc), "equal keys keep input order in descending direction too")
}

func Test_Sort_ToggleTwiceRestoresAscending(t *testing.T) {
	// given
	state := NewState()
	before := Apply(fixture, "", state.SortField, state.SortDirection)

	// when
	state, _ = state.WithSort(FieldName)
	desc := Apply(fixture, "", state.SortField, state.SortDirection)
	state, _ = state.WithSort(FieldName)
	after := Apply(fixture, "", state.SortField, state.SortDirection)

	// then
	assert.NotEqual(t, ids(before), ids(desc))
	assert.Equal(t, Ascending, state.SortDirection)
	assert.Equal(t, before, after)
}

func Test_Apply_EmptyInput(t *testing.T) {
	got := Apply(nil, "anything", FieldPrice, Ascending)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}
