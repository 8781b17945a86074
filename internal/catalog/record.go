// Package catalog defines the catalog record and the data source boundary the
// search controller fetches records through.
package catalog

import (
	"context"
	"encoding/json"
)

// Record is one catalog item. Records are immutable once fetched.
type Record struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"`
	Price    float64 `json:"price"`
}

// UnmarshalJSON accepts both "name" and the legacy "productName" field.
func (r *Record) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		ProductName string  `json:"productName"`
		Quantity    string  `json:"quantity"`
		Price       float64 `json:"price"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	name := wire.Name
	if name == "" {
		name = wire.ProductName
	}
	*r = Record{ID: wire.ID, Name: name, Quantity: wire.Quantity, Price: wire.Price}
	return nil
}

// Source fetches the full record set. Each call is a fresh round trip.
type Source interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]Record, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]Record, error) {
	return f(ctx)
}
