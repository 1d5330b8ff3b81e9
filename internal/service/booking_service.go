package service

import (
	"context"
	"fmt"
	"time"

	"github.com/careops/clinicops/internal/domain/appointment"
	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/careops/clinicops/internal/domain/patient"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService struct {
	repo        appointment.Repository
	serviceRepo catalog.ServiceRepository
	patientRepo patient.Repository
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewBookingService(
	repo appointment.Repository,
	serviceRepo catalog.ServiceRepository,
	patientRepo patient.Repository,
	auditSvc *AuditService,
	log *zap.Logger,
) *BookingService {
	return &BookingService{repo: repo, serviceRepo: serviceRepo, patientRepo: patientRepo, auditSvc: auditSvc, log: log}
}

// Book creates the appointment a booking flow confirmed. The appointment
// type and duration derive from the service: online consults carry no
// doctor and skip the conflict check, everything else requires a doctor
// and a free window.
func (s *BookingService) Book(
	ctx context.Context,
	cmd *appointment.CreateAppointmentCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*appointment.Appointment, error) {
	if cmd.AppointmentTime.Before(time.Now()) {
		return nil, appointment.ErrScheduledInPast
	}

	svc, err := s.serviceRepo.GetByID(ctx, cmd.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("verifying service: %w", err)
	}
	if !svc.IsActive {
		return nil, catalog.ErrServiceInactive
	}
	if svc.NeedsDoctor() && cmd.DoctorID == nil {
		return nil, appointment.ErrDoctorRequired
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !p.IsActive() {
		return nil, patient.ErrPatientInactive
	}

	apptType := appointment.TypeOffline
	if svc.Category == catalog.CategoryConsult {
		apptType = appointment.TypeOnline
	}

	duration := cmd.DurationMins
	if duration <= 0 {
		duration = svc.DurationMins
	}
	if duration < 5 || duration > 480 {
		return nil, appointment.ErrInvalidDuration
	}

	if cmd.DoctorID != nil {
		endsAt := cmd.AppointmentTime.Add(time.Duration(duration) * time.Minute)
		conflict, err := s.repo.HasConflict(ctx, *cmd.DoctorID, cmd.AppointmentTime, endsAt, nil)
		if err != nil {
			return nil, fmt.Errorf("checking conflicts: %w", err)
		}
		if conflict {
			return nil, appointment.ErrAppointmentConflict
		}
	}

	a := &appointment.Appointment{
		PatientID:       cmd.PatientID,
		DoctorID:        cmd.DoctorID,
		ServiceID:       cmd.ServiceID,
		AppointmentTime: cmd.AppointmentTime,
		DurationMins:    duration,
		Type:            apptType,
		Status:          appointment.StatusPending,
		Notes:           cmd.Notes,
		CreatedBy:       cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	return a, nil
}

func (s *BookingService) GetAppointment(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, callerPatientID *uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerRole == "patient" {
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "read", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
	})

	return a, nil
}

func (s *BookingService) CancelAppointment(ctx context.Context, id uuid.UUID, cmd *appointment.CancelAppointmentCommand, callerID uuid.UUID, callerRole string, callerPatientID *uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerRole == "patient" {
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}

	if err := a.Cancel(cmd.Reason, cmd.CancelledBy); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":"CANCELLED","reason":"%s"}`, cmd.Reason),
	})

	return a, nil
}

func (s *BookingService) ConfirmAppointment(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*appointment.Appointment, error) {
	return s.transition(ctx, id, appointment.StatusConfirmed, callerID, callerRole, ip)
}

func (s *BookingService) CompleteAppointment(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.Complete(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: `{"status":"COMPLETED"}`,
	})

	return a, nil
}

func (s *BookingService) MarkPaid(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*appointment.Appointment, error) {
	if callerRole != "staff" && callerRole != "admin" {
		return nil, ErrForbidden
	}
	return s.transition(ctx, id, appointment.StatusPaid, callerID, callerRole, ip)
}

func (s *BookingService) transition(ctx context.Context, id uuid.UUID, to appointment.AppointmentStatus, callerID uuid.UUID, callerRole string, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.CanTransitionTo(to) {
		return nil, appointment.ErrInvalidStatusTransition
	}
	a.Status = to
	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":"%s"}`, to),
	})

	return a, nil
}

func (s *BookingService) ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery, callerRole string, callerPatientID *uuid.UUID) (*appointment.PagedAppointments, error) {
	// Patients can only see their own appointments
	if callerRole == "patient" && callerPatientID != nil {
		q.PatientID = callerPatientID
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}
