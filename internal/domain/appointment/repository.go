package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// ListByDoctorAndDate returns the doctor's non-cancelled appointments
	// on the given calendar day — the input to slot availability filtering.
	ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Appointment, error)

	// UpdateStatus persists a status change already validated on the entity.
	UpdateStatus(ctx context.Context, a *Appointment) error

	// HasConflict checks whether a doctor already has an appointment that
	// overlaps [start, end). Server-side guard against double booking.
	HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
}
