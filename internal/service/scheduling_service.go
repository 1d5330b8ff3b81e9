package service

import (
	"context"
	"fmt"
	"time"

	"github.com/careops/clinicops/internal/domain/appointment"
	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/careops/clinicops/internal/domain/doctor"
	"github.com/careops/clinicops/internal/scheduling"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SchedulingService produces the bookable slot grid for a service on a
// day and prunes it against existing bookings. Slots are recomputed
// wholesale per request; nothing here is cached or persisted.
type SchedulingService struct {
	services        catalog.ServiceRepository
	doctors         doctor.Repository
	appointmentRepo appointment.Repository

	defaults  []scheduling.ShiftWindow
	slotBreak time.Duration
	loc       *time.Location

	log *zap.Logger
}

func NewSchedulingService(
	services catalog.ServiceRepository,
	doctors doctor.Repository,
	appointmentRepo appointment.Repository,
	defaults []scheduling.ShiftWindow,
	slotBreak time.Duration,
	loc *time.Location,
	log *zap.Logger,
) *SchedulingService {
	return &SchedulingService{
		services:        services,
		doctors:         doctors,
		appointmentRepo: appointmentRepo,
		defaults:        defaults,
		slotBreak:       slotBreak,
		loc:             loc,
		log:             log,
	}
}

// ClinicLocation is the time zone slots are anchored in.
func (s *SchedulingService) ClinicLocation() *time.Location {
	return s.loc
}

// Service loads one bookable service for flows that need its category
// and duration.
func (s *SchedulingService) Service(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, catalog.ErrServiceInactive
	}
	return svc, nil
}

// AvailableSlots returns the slot grid for a service on a date. With a
// doctor given, slots already holding one of that doctor's appointments
// are removed; without one (online consults, or before a doctor is
// chosen) the full grid is returned and filtering happens when doctors
// are listed per slot.
func (s *SchedulingService) AvailableSlots(ctx context.Context, serviceID uuid.UUID, doctorID *uuid.UUID, date time.Time) ([]scheduling.Slot, error) {
	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("loading service: %w", err)
	}
	if !svc.IsActive {
		return nil, catalog.ErrServiceInactive
	}

	windows, err := svc.ShiftWindows(s.defaults)
	if err != nil {
		return nil, fmt.Errorf("resolving shift windows: %w", err)
	}

	candidates := scheduling.Generate(svc.Duration(), s.slotBreak, windows)
	if doctorID == nil {
		return candidates, nil
	}

	appts, err := s.appointmentRepo.ListByDoctorAndDate(ctx, *doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("loading doctor bookings: %w", err)
	}

	booked := make([]time.Time, 0, len(appts))
	for _, a := range appts {
		booked = append(booked, a.AppointmentTime)
	}

	return scheduling.FilterAvailable(date, s.loc, candidates, booked), nil
}

// AvailableDoctors lists the active doctors free during the given slot on
// the given date.
func (s *SchedulingService) AvailableDoctors(ctx context.Context, date time.Time, slot scheduling.Slot) ([]*doctor.Doctor, error) {
	all, err := s.doctors.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}

	free := make([]*doctor.Doctor, 0, len(all))
	for _, d := range all {
		appts, err := s.appointmentRepo.ListByDoctorAndDate(ctx, d.ID, date)
		if err != nil {
			s.log.Warn("skipping doctor: booking lookup failed",
				zap.String("doctor_id", d.ID.String()),
				zap.Error(err),
			)
			continue
		}

		occupied := false
		for _, a := range appts {
			if slot.Contains(a.AppointmentTime, date, s.loc) {
				occupied = true
				break
			}
		}
		if !occupied {
			free = append(free, d)
		}
	}
	return free, nil
}
