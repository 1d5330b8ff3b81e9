package wizard

import (
	"context"
	"time"

	"github.com/careops/clinicops/internal/domain/appointment"
	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/careops/clinicops/internal/domain/doctor"
	"github.com/careops/clinicops/internal/scheduling"
	"github.com/careops/clinicops/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingStep is the visible step of the booking flow.
//
// Step transitions:
//
//	select_service → select_date_slot → select_doctor → confirm
//	select_date_slot → confirm              (CONSULT services skip the doctor)
//	any step → previous step                (Back, selections preserved)
type BookingStep string

const (
	StepSelectService  BookingStep = "select_service"
	StepSelectDateSlot BookingStep = "select_date_slot"
	StepSelectDoctor   BookingStep = "select_doctor"
	StepConfirm        BookingStep = "confirm"
)

// Actor identifies who is driving a wizard, for authorization and audit.
type Actor struct {
	UserID    uuid.UUID
	Role      string
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	IP        string
}

// Booking walks a patient (or staff member on their behalf) through
// service → date/slot → doctor → confirm. All state is held here
// explicitly; nothing about an in-progress booking exists server-side
// until Confirm succeeds, so abandoning the wizard leaves no residue.
type Booking struct {
	scheduler *service.SchedulingService
	bookings  *service.BookingService
	log       *zap.Logger

	actor     Actor
	patientID uuid.UUID

	step     BookingStep
	finished bool

	svc      *catalog.Service
	date     time.Time
	dateSet  bool
	slot     *scheduling.Slot
	doctorID *uuid.UUID
	notes    string
}

func NewBooking(scheduler *service.SchedulingService, bookings *service.BookingService, actor Actor, patientID uuid.UUID, log *zap.Logger) *Booking {
	return &Booking{
		scheduler: scheduler,
		bookings:  bookings,
		log:       log,
		actor:     actor,
		patientID: patientID,
		step:      StepSelectService,
	}
}

func (b *Booking) Step() BookingStep { return b.step }
func (b *Booking) Finished() bool    { return b.finished }

// Selections are kept across Back so a returning user does not re-enter
// them; they are read back by the confirm screen.
func (b *Booking) Service() *catalog.Service { return b.svc }
func (b *Booking) Slot() *scheduling.Slot    { return b.slot }
func (b *Booking) DoctorID() *uuid.UUID      { return b.doctorID }
func (b *Booking) SetNotes(notes string)     { b.notes = notes }

// SelectService fixes the service and advances to date/slot selection.
func (b *Booking) SelectService(ctx context.Context, serviceID uuid.UUID) error {
	if b.finished {
		return ErrFlowFinished
	}
	if b.step != StepSelectService {
		return ErrInvalidStep
	}

	svc, err := b.scheduler.Service(ctx, serviceID)
	if err != nil {
		return err
	}

	b.svc = svc
	b.step = StepSelectDateSlot
	return nil
}

// SlotsForDate records the chosen date and returns the bookable grid for
// it. Candidates are regenerated wholesale on every call, so revisiting
// the step or changing the date cannot leak state from a previous view.
func (b *Booking) SlotsForDate(ctx context.Context, date time.Time) ([]scheduling.Slot, error) {
	if b.finished {
		return nil, ErrFlowFinished
	}
	if b.step != StepSelectDateSlot {
		return nil, ErrInvalidStep
	}
	if b.svc == nil {
		return nil, ErrServiceNotSelected
	}

	slots, err := b.scheduler.AvailableSlots(ctx, b.svc.ID, b.doctorID, date)
	if err != nil {
		return nil, err
	}

	b.date = date
	b.dateSet = true
	return slots, nil
}

// SelectSlot fixes the slot and branches: CONSULT services go straight to
// confirm, everything else picks a doctor first. The submitted slot is
// never trusted: the grid is regenerated for the stored date and a slot
// not on it is rejected, so a caller cannot confirm a time outside the
// shift windows or off the slot spacing.
func (b *Booking) SelectSlot(ctx context.Context, slot scheduling.Slot) error {
	if b.finished {
		return ErrFlowFinished
	}
	if b.step != StepSelectDateSlot {
		return ErrInvalidStep
	}
	if !b.dateSet {
		return ErrDateNotSelected
	}

	slots, err := b.scheduler.AvailableSlots(ctx, b.svc.ID, b.doctorID, b.date)
	if err != nil {
		return err
	}
	onGrid := false
	for _, s := range slots {
		if s == slot {
			onGrid = true
			break
		}
	}
	if !onGrid {
		return ErrSlotNotInGrid
	}

	b.slot = &slot
	if b.svc.NeedsDoctor() {
		b.step = StepSelectDoctor
	} else {
		b.step = StepConfirm
	}
	return nil
}

// AvailableDoctors lists doctors free during the chosen slot. The
// availability filter has already run by the time a doctor is selectable.
func (b *Booking) AvailableDoctors(ctx context.Context) ([]*doctor.Doctor, error) {
	if b.step != StepSelectDoctor {
		return nil, ErrInvalidStep
	}
	return b.scheduler.AvailableDoctors(ctx, b.date, *b.slot)
}

func (b *Booking) SelectDoctor(doctorID uuid.UUID) error {
	if b.finished {
		return ErrFlowFinished
	}
	if b.step != StepSelectDoctor {
		return ErrInvalidStep
	}

	b.doctorID = &doctorID
	b.step = StepConfirm
	return nil
}

// Back returns to the immediately preceding step without clearing any
// later-stage selection, so revising a slot does not force re-selecting
// the service and a revisit to the doctor step keeps the confirm data.
func (b *Booking) Back() error {
	if b.finished {
		return ErrFlowFinished
	}

	switch b.step {
	case StepSelectService:
		return ErrInvalidStep
	case StepSelectDateSlot:
		b.step = StepSelectService
	case StepSelectDoctor:
		b.step = StepSelectDateSlot
	case StepConfirm:
		if b.svc != nil && b.svc.NeedsDoctor() {
			b.step = StepSelectDoctor
		} else {
			b.step = StepSelectDateSlot
		}
	}
	return nil
}

// Cancel abandons the flow and discards every in-progress selection. No
// partial appointment was ever created remotely.
func (b *Booking) Cancel() {
	b.svc = nil
	b.dateSet = false
	b.slot = nil
	b.doctorID = nil
	b.notes = ""
	b.step = StepSelectService
}

// Confirm issues the appointment creation. A CONSULT booking may confirm
// without a doctor; any other category blocks until one is selected. On
// failure the wizard stays at confirm with all selections intact so the
// user can simply retry.
func (b *Booking) Confirm(ctx context.Context) (*appointment.Appointment, error) {
	if b.finished {
		return nil, ErrFlowFinished
	}
	if b.step != StepConfirm {
		return nil, ErrInvalidStep
	}
	if b.svc == nil {
		return nil, ErrServiceNotSelected
	}
	if !b.dateSet || b.slot == nil {
		return nil, ErrSlotNotSelected
	}
	if b.svc.NeedsDoctor() && b.doctorID == nil {
		return nil, ErrDoctorNotSelected
	}

	cmd := &appointment.CreateAppointmentCommand{
		PatientID:       b.patientID,
		DoctorID:        b.doctorID,
		ServiceID:       b.svc.ID,
		AppointmentTime: b.slot.Start.At(b.date, b.scheduler.ClinicLocation()),
		DurationMins:    b.svc.DurationMins,
		Notes:           b.notes,
		CreatedBy:       b.actor.UserID,
	}

	a, err := b.bookings.Book(ctx, cmd, b.actor.UserID, b.actor.Role, b.actor.IP)
	if err != nil {
		b.log.Warn("booking confirm failed", zap.Error(err))
		return nil, err
	}

	b.finished = true
	return a, nil
}
