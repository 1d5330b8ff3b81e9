package treatment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *PatientTreatment) error
	GetByID(ctx context.Context, id uuid.UUID) (*PatientTreatment, error)
	List(ctx context.Context, q *ListTreatmentsQuery) (*PagedTreatments, error)

	// Update applies the partial patch; the regimen snapshot itself is
	// immutable after creation and is not part of the command.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateTreatmentCommand) (*PatientTreatment, error)

	// Delete is an admin-only soft delete.
	Delete(ctx context.Context, id uuid.UUID) error
}
