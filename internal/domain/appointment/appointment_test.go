package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusPaid, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPaid, false},
		{StatusCompleted, StatusPaid, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusPaid, StatusCompleted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			a := &Appointment{Status: tt.from}
			assert.Equal(t, tt.want, a.CanTransitionTo(tt.to))
		})
	}
}

func TestCancelRecordsAudit(t *testing.T) {
	a := &Appointment{Status: StatusConfirmed}
	by := uuid.New()

	require.NoError(t, a.Cancel("patient request", by))

	assert.Equal(t, StatusCancelled, a.Status)
	assert.Equal(t, "patient request", a.CancellationReason)
	require.NotNil(t, a.CancelledBy)
	assert.Equal(t, by, *a.CancelledBy)
	assert.NotNil(t, a.CancelledAt)
}

func TestCancelFromFinalState(t *testing.T) {
	a := &Appointment{Status: StatusPaid}
	assert.ErrorIs(t, a.Cancel("too late", uuid.New()), ErrInvalidStatusTransition)
	assert.Equal(t, StatusPaid, a.Status)
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	a := &Appointment{Status: StatusPending}
	assert.ErrorIs(t, a.Complete(), ErrInvalidStatusTransition)

	a.Status = StatusConfirmed
	require.NoError(t, a.Complete())
	assert.Equal(t, StatusCompleted, a.Status)
	assert.NotNil(t, a.CompletedAt)
}

func TestEndsAt(t *testing.T) {
	at := time.Date(2026, 9, 14, 7, 0, 0, 0, time.UTC)
	a := &Appointment{AppointmentTime: at, DurationMins: 45}
	assert.Equal(t, at.Add(45*time.Minute), a.EndsAt())
}
