package service

import (
	"context"
	"fmt"

	"github.com/careops/clinicops/internal/domain/patient"
	"github.com/careops/clinicops/internal/domain/treatment"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TreatmentService struct {
	repo        treatment.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewTreatmentService(repo treatment.Repository, patientRepo patient.Repository, auditSvc *AuditService, log *zap.Logger) *TreatmentService {
	return &TreatmentService{repo: repo, patientRepo: patientRepo, auditSvc: auditSvc, log: log}
}

// Only doctors prescribe. The regimen arrives as a composed snapshot and
// is persisted exactly as given; the total cost is whatever the rules
// service estimated (zero when the estimate was unavailable).
func (s *TreatmentService) CreateTreatment(ctx context.Context, cmd *treatment.CreateTreatmentCommand, callerID uuid.UUID, callerRole string, ip string) (*treatment.PatientTreatment, error) {
	if callerRole != "doctor" && callerRole != "admin" {
		return nil, ErrForbidden
	}

	if cmd.ProtocolID == uuid.Nil {
		return nil, treatment.ErrProtocolRequired
	}
	if len(cmd.Regimen) == 0 {
		return nil, treatment.ErrEmptyRegimen
	}
	if cmd.EndDate != nil && cmd.EndDate.Before(cmd.StartDate) {
		return nil, treatment.ErrEndBeforeStart
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !p.IsActive() {
		return nil, patient.ErrPatientInactive
	}

	t := &treatment.PatientTreatment{
		PatientID:  cmd.PatientID,
		DoctorID:   cmd.DoctorID,
		ProtocolID: cmd.ProtocolID,
		Regimen:    cmd.Regimen,
		StartDate:  cmd.StartDate,
		EndDate:    cmd.EndDate,
		Notes:      cmd.Notes,
		TotalCost:  cmd.TotalCost,
		CreatedBy:  cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.log.Error("failed to create treatment", zap.Error(err))
		return nil, fmt.Errorf("creating treatment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "treatment",
		ResourceID:   t.ID.String(),
		IPAddress:    ip,
	})

	return t, nil
}

func (s *TreatmentService) GetTreatment(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, callerPatientID *uuid.UUID, ip string) (*treatment.PatientTreatment, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerRole == "patient" {
		if callerPatientID == nil || *callerPatientID != t.PatientID {
			return nil, ErrForbidden
		}
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "read", ResourceType: "treatment", ResourceID: id.String(), IPAddress: ip,
	})

	return t, nil
}

func (s *TreatmentService) ListTreatments(ctx context.Context, q *treatment.ListTreatmentsQuery, callerRole string, callerPatientID *uuid.UUID) (*treatment.PagedTreatments, error) {
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

// UpdateTreatment patches the mutable fields (end date, notes). The
// regimen snapshot is frozen at creation and not updatable here.
func (s *TreatmentService) UpdateTreatment(ctx context.Context, id uuid.UUID, cmd *treatment.UpdateTreatmentCommand, callerID uuid.UUID, callerRole string, ip string) (*treatment.PatientTreatment, error) {
	if callerRole != "doctor" && callerRole != "admin" {
		return nil, ErrForbidden
	}

	t, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "treatment", ResourceID: id.String(), IPAddress: ip,
	})

	return t, nil
}

// DeleteTreatment is an admin operation; the scheduling/composition flows
// themselves never delete treatments.
func (s *TreatmentService) DeleteTreatment(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) error {
	if callerRole != "admin" {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "delete", ResourceType: "treatment", ResourceID: id.String(), IPAddress: ip,
	})

	return nil
}
