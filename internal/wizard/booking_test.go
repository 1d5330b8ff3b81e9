package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/careops/clinicops/internal/domain/appointment"
	"github.com/careops/clinicops/internal/scheduling"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBookingFlow(f *fixture) *Booking {
	return NewBooking(f.scheduler, f.bookings, f.patientActor(), f.patientID, zap.NewNop())
}

func TestBookingConsultSkipsDoctor(t *testing.T) {
	f := newFixture()
	b := newBookingFlow(f)
	ctx := context.Background()

	require.Equal(t, StepSelectService, b.Step())
	require.NoError(t, b.SelectService(ctx, f.consultSvc.ID))
	require.Equal(t, StepSelectDateSlot, b.Step())

	slots, err := b.SlotsForDate(ctx, futureDate())
	require.NoError(t, err)
	require.Len(t, slots, 14) // 7 morning + 7 afternoon at 30min/5min

	require.NoError(t, b.SelectSlot(ctx, slots[0]))
	assert.Equal(t, StepConfirm, b.Step())

	a, err := b.Confirm(ctx)
	require.NoError(t, err)
	assert.True(t, b.Finished())
	assert.Nil(t, a.DoctorID)
	assert.Equal(t, appointment.TypeOnline, a.Type)
	assert.Equal(t, appointment.StatusPending, a.Status)
	assert.Equal(t, f.patientID, a.PatientID)
	assert.Equal(t, 7, a.AppointmentTime.Hour())
}

func TestBookingTreatmentRequiresDoctor(t *testing.T) {
	f := newFixture()
	b := newBookingFlow(f)
	ctx := context.Background()

	require.NoError(t, b.SelectService(ctx, f.treatmentSvc.ID))
	slots, err := b.SlotsForDate(ctx, futureDate())
	require.NoError(t, err)

	require.NoError(t, b.SelectSlot(ctx, slots[0]))
	assert.Equal(t, StepSelectDoctor, b.Step())

	// Confirming before a doctor is chosen is not possible.
	_, err = b.Confirm(ctx)
	assert.ErrorIs(t, err, ErrInvalidStep)

	doctors, err := b.AvailableDoctors(ctx)
	require.NoError(t, err)
	require.Len(t, doctors, 2)

	require.NoError(t, b.SelectDoctor(doctors[0].ID))
	assert.Equal(t, StepConfirm, b.Step())

	a, err := b.Confirm(ctx)
	require.NoError(t, err)
	require.NotNil(t, a.DoctorID)
	assert.Equal(t, doctors[0].ID, *a.DoctorID)
	assert.Equal(t, appointment.TypeOffline, a.Type)
}

func TestBookingBusyDoctorExcluded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	date := futureDate()

	// Doctor A already has a visit in the first slot of the day.
	busyAt := time.Date(date.Year(), date.Month(), date.Day(), 7, 0, 0, 0, time.UTC)
	docA := f.doctorA.ID
	require.NoError(t, f.apptRepo.Create(ctx, &appointment.Appointment{
		PatientID:       f.patientID,
		DoctorID:        &docA,
		ServiceID:       f.treatmentSvc.ID,
		AppointmentTime: busyAt,
		DurationMins:    30,
		Status:          appointment.StatusConfirmed,
	}))

	b := newBookingFlow(f)
	require.NoError(t, b.SelectService(ctx, f.treatmentSvc.ID))
	slots, err := b.SlotsForDate(ctx, date)
	require.NoError(t, err)
	require.NoError(t, b.SelectSlot(ctx, slots[0]))

	doctors, err := b.AvailableDoctors(ctx)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, f.doctorB.ID, doctors[0].ID)
}

func TestBookingBackPreservesSelections(t *testing.T) {
	f := newFixture()
	b := newBookingFlow(f)
	ctx := context.Background()

	require.NoError(t, b.SelectService(ctx, f.treatmentSvc.ID))
	slots, err := b.SlotsForDate(ctx, futureDate())
	require.NoError(t, err)
	require.NoError(t, b.SelectSlot(ctx, slots[2]))
	require.NoError(t, b.SelectDoctor(f.doctorA.ID))
	require.Equal(t, StepConfirm, b.Step())

	require.NoError(t, b.Back())
	assert.Equal(t, StepSelectDoctor, b.Step())
	require.NoError(t, b.Back())
	assert.Equal(t, StepSelectDateSlot, b.Step())
	require.NoError(t, b.Back())
	assert.Equal(t, StepSelectService, b.Step())

	// Everything picked so far survives the walk back.
	require.NotNil(t, b.Service())
	assert.Equal(t, f.treatmentSvc.ID, b.Service().ID)
	require.NotNil(t, b.Slot())
	assert.Equal(t, slots[2], *b.Slot())
	require.NotNil(t, b.DoctorID())
	assert.Equal(t, f.doctorA.ID, *b.DoctorID())

	assert.ErrorIs(t, b.Back(), ErrInvalidStep)
}

func TestBookingBackFromConfirmConsult(t *testing.T) {
	f := newFixture()
	b := newBookingFlow(f)
	ctx := context.Background()

	require.NoError(t, b.SelectService(ctx, f.consultSvc.ID))
	slots, err := b.SlotsForDate(ctx, futureDate())
	require.NoError(t, err)
	require.NoError(t, b.SelectSlot(ctx, slots[0]))
	require.Equal(t, StepConfirm, b.Step())

	// A consult never visits the doctor step, going back either.
	require.NoError(t, b.Back())
	assert.Equal(t, StepSelectDateSlot, b.Step())
}

func TestBookingCancelDiscardsEverything(t *testing.T) {
	f := newFixture()
	b := newBookingFlow(f)
	ctx := context.Background()

	require.NoError(t, b.SelectService(ctx, f.treatmentSvc.ID))
	slots, err := b.SlotsForDate(ctx, futureDate())
	require.NoError(t, err)
	require.NoError(t, b.SelectSlot(ctx, slots[0]))
	require.NoError(t, b.SelectDoctor(f.doctorA.ID))

	b.Cancel()

	assert.Equal(t, StepSelectService, b.Step())
	assert.Nil(t, b.Service())
	assert.Nil(t, b.Slot())
	assert.Nil(t, b.DoctorID())
	assert.False(t, b.Finished())

	// Nothing was created server-side.
	assert.Empty(t, f.apptRepo.byID)
}

func TestBookingConfirmRetryable(t *testing.T) {
	f := newFixture()
	b := newBookingFlow(f)
	ctx := context.Background()

	require.NoError(t, b.SelectService(ctx, f.consultSvc.ID))
	slots, err := b.SlotsForDate(ctx, futureDate())
	require.NoError(t, err)
	require.NoError(t, b.SelectSlot(ctx, slots[0]))

	f.apptRepo.createErr = errors.New("db down")
	_, err = b.Confirm(ctx)
	require.Error(t, err)

	// The flow stays at confirm with the selections intact.
	assert.Equal(t, StepConfirm, b.Step())
	assert.False(t, b.Finished())
	require.NotNil(t, b.Slot())

	f.apptRepo.createErr = nil
	a, err := b.Confirm(ctx)
	require.NoError(t, err)
	assert.True(t, b.Finished())
	assert.NotEqual(t, uuid.Nil, a.ID)
}

func TestBookingConflictSurfacesAndRetries(t *testing.T) {
	f := newFixture()
	b := newBookingFlow(f)
	ctx := context.Background()

	require.NoError(t, b.SelectService(ctx, f.treatmentSvc.ID))
	slots, err := b.SlotsForDate(ctx, futureDate())
	require.NoError(t, err)
	require.NoError(t, b.SelectSlot(ctx, slots[0]))
	require.NoError(t, b.SelectDoctor(f.doctorA.ID))

	f.apptRepo.conflict = true
	_, err = b.Confirm(ctx)
	assert.ErrorIs(t, err, appointment.ErrAppointmentConflict)
	assert.Equal(t, StepConfirm, b.Step())

	f.apptRepo.conflict = false
	_, err = b.Confirm(ctx)
	require.NoError(t, err)
}

func TestBookingFinishedFlowRejectsFurtherSteps(t *testing.T) {
	f := newFixture()
	b := newBookingFlow(f)
	ctx := context.Background()

	require.NoError(t, b.SelectService(ctx, f.consultSvc.ID))
	slots, err := b.SlotsForDate(ctx, futureDate())
	require.NoError(t, err)
	require.NoError(t, b.SelectSlot(ctx, slots[0]))
	_, err = b.Confirm(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, b.SelectService(ctx, f.consultSvc.ID), ErrFlowFinished)
	assert.ErrorIs(t, b.Back(), ErrFlowFinished)
	_, err = b.Confirm(ctx)
	assert.ErrorIs(t, err, ErrFlowFinished)
}

func TestBookingStepGuards(t *testing.T) {
	f := newFixture()
	b := newBookingFlow(f)
	ctx := context.Background()

	// Out-of-order operations are rejected without changing state.
	_, err := b.SlotsForDate(ctx, futureDate())
	assert.ErrorIs(t, err, ErrInvalidStep)
	assert.ErrorIs(t, b.SelectSlot(ctx, scheduling.Slot{}), ErrInvalidStep)
	assert.ErrorIs(t, b.SelectDoctor(f.doctorA.ID), ErrInvalidStep)
	_, err = b.Confirm(ctx)
	assert.ErrorIs(t, err, ErrInvalidStep)
	assert.Equal(t, StepSelectService, b.Step())
}

func TestBookingChangingDateRegeneratesSlots(t *testing.T) {
	f := newFixture()
	b := newBookingFlow(f)
	ctx := context.Background()

	require.NoError(t, b.SelectService(ctx, f.consultSvc.ID))

	first, err := b.SlotsForDate(ctx, futureDate())
	require.NoError(t, err)
	second, err := b.SlotsForDate(ctx, futureDate().AddDate(0, 0, 1))
	require.NoError(t, err)

	// Slots are clock-time values; the grid itself is identical and
	// recomputed, not accumulated.
	assert.Equal(t, first, second)
	assert.Len(t, second, 14)
}

func TestBookingSelectSlotRejectsOffGridSlot(t *testing.T) {
	f := newFixture()
	b := newBookingFlow(f)
	ctx := context.Background()

	require.NoError(t, b.SelectService(ctx, f.treatmentSvc.ID))
	slots, err := b.SlotsForDate(ctx, futureDate())
	require.NoError(t, err)

	// A time outside every shift window.
	night := scheduling.Slot{
		Start: scheduling.MustClock("03:00"),
		End:   scheduling.MustClock("03:30"),
		Shift: scheduling.ShiftMorning,
	}
	err = b.SelectSlot(ctx, night)
	assert.ErrorIs(t, err, ErrSlotNotInGrid)

	// Inside a window but off the slot spacing.
	skewed := scheduling.Slot{
		Start: scheduling.MustClock("07:10"),
		End:   scheduling.MustClock("07:40"),
		Shift: scheduling.ShiftMorning,
	}
	err = b.SelectSlot(ctx, skewed)
	assert.ErrorIs(t, err, ErrSlotNotInGrid)

	// The flow is untouched and a slot from the grid still works.
	assert.Equal(t, StepSelectDateSlot, b.Step())
	assert.Nil(t, b.Slot())
	require.NoError(t, b.SelectSlot(ctx, slots[0]))
}
