package consent

import (
	"context"
	"time"
)

// Store is the authoritative holder of consent records. Implementations
// return sentinel.ErrNotFound for unknown ids; every other operation is total.
type Store interface {
	// Create assigns the next id, fills defaults (status "active", access
	// level "read"), stamps CreatedAt, and returns the stored record.
	Create(ctx context.Context, rec NewRecord) (ConsentRecord, error)
	Get(ctx context.Context, id int64) (ConsentRecord, error)
	// ListAll returns every record ordered by AccessDate descending. Records
	// with equal AccessDate keep insertion order; that tie-break is part of
	// the contract.
	ListAll(ctx context.Context) ([]ConsentRecord, error)
	// Update merges the patch onto the stored record and returns the result.
	Update(ctx context.Context, id int64, patch RecordPatch) (ConsentRecord, error)
	// Delete removes the record and reports whether it existed.
	Delete(ctx context.Context, id int64) (bool, error)
	// Search matches the query as a case-insensitive substring of document
	// name, data accessed, host user name, or guest user name. Results come
	// back in storage order, not re-sorted.
	Search(ctx context.Context, query string) ([]ConsentRecord, error)
	ListByStatus(ctx context.Context, status Status) ([]ConsentRecord, error)
	// ListByUser returns records where the user is host or guest.
	ListByUser(ctx context.Context, userID int64) ([]ConsentRecord, error)
	// ListByDateRange filters inclusively on AccessDate.
	ListByDateRange(ctx context.Context, start, end time.Time) ([]ConsentRecord, error)
}
