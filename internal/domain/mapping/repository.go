package mapping

import "context"

type MappingRepository interface {
	// Upsert inserts or updates the mapping for its ExternalCode and
	// returns the stored row. Re-running the mapper against an already
	// auto-mapped code must not create a second row.
	Upsert(ctx context.Context, m Mapping) (Mapping, error)

	// GetActiveByExternalCode returns ErrMappingNotFound when no active
	// mapping exists for the code.
	GetActiveByExternalCode(ctx context.Context, externalCode string) (Mapping, error)

	List(ctx context.Context, status *Status) ([]Mapping, error)

	Count(ctx context.Context) (int64, error)
}
