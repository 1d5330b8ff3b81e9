package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Catalog data is edited by admins elsewhere; the scheduling and
// composition core only ever reads it.

type ServiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	List(ctx context.Context, category *ServiceCategory) ([]*Service, error)
}

type MedicineRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)

	// FindByName resolves a medicine by exact name, used to price custom
	// medications at compose time. Returns ErrMedicineNotFound on miss.
	FindByName(ctx context.Context, name string) (*Medicine, error)

	List(ctx context.Context) ([]*Medicine, error)
}

type ProtocolRepository interface {
	// GetByID loads the protocol with its medication lines in sort order.
	GetByID(ctx context.Context, id uuid.UUID) (*Protocol, error)

	List(ctx context.Context, targetCondition string) ([]*Protocol, error)
}
