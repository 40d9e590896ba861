package core

import "context"

// Table is raw CRUD over the records of one (registry, entry type) pair.
// Implementations must be safe for concurrent use and must not retain or hand
// out records that callers can mutate.
type Table interface {
	Get(ctx context.Context, id string) (Record, bool, error)
	Put(ctx context.Context, id string, rec Record) error
	Delete(ctx context.Context, id string) (Record, bool, error)
	Has(ctx context.Context, id string) (bool, error)
	// Scan visits every record in implementation defined order until fn
	// returns false.
	Scan(ctx context.Context, fn func(id string, rec Record) bool) error
}

// Backend hands out tables. Each distinct (regName, t) pair maps to a distinct
// table; asking twice returns a view over the same data.
type Backend interface {
	Table(ctx context.Context, regName string, t EntryType) (Table, error)
	Close() error
}
