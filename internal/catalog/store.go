package catalog

import (
	"context"
	"time"
)

// FieldSet carries the record fields an Update call may change. Nil fields
// are left untouched. The composite key itself is never updatable.
type FieldSet struct {
	Status          *Status
	PromotionStatus *string
	PromotedAt      *time.Time
}

// Store is a metadata store for one environment's artifact records.
// Implementations are bound to a single table at construction.
type Store interface {
	// Query returns the record matching id, or nil when none exists.
	Query(ctx context.Context, id string) (*Record, error)
	// ScanPromotable returns records with status=processed and no
	// promotion marker. Ordering is not guaranteed by the store.
	ScanPromotable(ctx context.Context) ([]*Record, error)
	// Put inserts a record. Re-inserting the same key overwrites the
	// previous item; callers relying on insert-once semantics must treat
	// duplicate promotion as an accepted edge case.
	Put(ctx context.Context, record *Record) error
	// Update applies the non-nil fields to the record with the given key.
	Update(ctx context.Context, key Key, fields FieldSet) error
	// Delete removes a record. Only cleanup and test tooling deletes.
	Delete(ctx context.Context, key Key) error
}

// PromotedFieldSet builds the field set written by a successful promotion.
func PromotedFieldSet(promotedAt time.Time) FieldSet {
	status := PromotionPromoted
	return FieldSet{
		PromotionStatus: &status,
		PromotedAt:      &promotedAt,
	}
}
