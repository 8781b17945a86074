package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/catalogsearch/internal/catalog"
	serrors "github.com/abgdnv/catalogsearch/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	findAllSQL  = `SELECT id, name, quantity, price::float8 FROM products ORDER BY position, id`
	findByIDSQL = `SELECT id, name, quantity, price::float8 FROM products WHERE id = $1`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// FindByID retrieves a record by its identifier.
// Returns ErrRecordNotFound if no record exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id string) (*catalog.Record, error) {
	var r catalog.Record
	err := p.db.QueryRow(ctx, findByIDSQL, id).Scan(&r.ID, &r.Name, &r.Quantity, &r.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to find record by ID: %w", err)
	}
	return &r, nil
}

// FindAll retrieves all records in catalog order.
// It returns a slice of records, which may be empty if no records exist.
func (p *PgStore) FindAll(ctx context.Context) ([]catalog.Record, error) {
	rows, err := p.db.Query(ctx, findAllSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to find all records: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.CollectableRow) (catalog.Record, error) {
	var r catalog.Record
	err := row.Scan(&r.ID, &r.Name, &r.Quantity, &r.Price)
	return r, err
}
