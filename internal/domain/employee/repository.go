package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)

	// ListActive returns all active employees. The identity mapper scans
	// these when scoring a vendor-provided name.
	ListActive(ctx context.Context) ([]Employee, error)

	CountActive(ctx context.Context) (int64, error)
}
