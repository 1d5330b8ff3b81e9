package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/careops/clinicops/internal/domain"
	"github.com/careops/clinicops/internal/domain/appointment"
	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/careops/clinicops/internal/domain/doctor"
	"github.com/careops/clinicops/internal/domain/patient"
	"github.com/careops/clinicops/internal/domain/treatment"
	"github.com/careops/clinicops/internal/rules"
	"github.com/careops/clinicops/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// In-memory repositories backing the flow tests.

type fakeServiceRepo struct {
	services map[uuid.UUID]*catalog.Service
}

func (f *fakeServiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	if s, ok := f.services[id]; ok {
		return s, nil
	}
	return nil, catalog.ErrServiceNotFound
}

func (f *fakeServiceRepo) List(ctx context.Context, category *catalog.ServiceCategory) ([]*catalog.Service, error) {
	out := make([]*catalog.Service, 0, len(f.services))
	for _, s := range f.services {
		if category == nil || s.Category == *category {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeDoctorRepo struct {
	doctors []*doctor.Doctor
}

func (f *fakeDoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	for _, d := range f.doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (f *fakeDoctorRepo) ListActive(ctx context.Context) ([]*doctor.Doctor, error) {
	out := make([]*doctor.Doctor, 0, len(f.doctors))
	for _, d := range f.doctors {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*patient.Patient
}

func (f *fakePatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	if p, ok := f.patients[id]; ok {
		return p, nil
	}
	return nil, patient.ErrPatientNotFound
}

type fakeAppointmentRepo struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*appointment.Appointment
	createErr error
	conflict  bool
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{byID: make(map[uuid.UUID]*appointment.Appointment)}
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, a *appointment.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	a.ID = uuid.New()
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, appointment.ErrAppointmentNotFound
}

func (f *fakeAppointmentRepo) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	return &appointment.PagedAppointments{Page: q.Page, PageSize: q.PageSize}, nil
}

func (f *fakeAppointmentRepo) ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	y, m, d := date.Date()
	var out []*appointment.Appointment
	for _, a := range f.byID {
		if a.DoctorID == nil || *a.DoctorID != doctorID || a.Status == appointment.StatusCancelled {
			continue
		}
		ay, am, ad := a.AppointmentTime.In(date.Location()).Date()
		if ay == y && am == m && ad == d {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAppointmentRepo) HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	return f.conflict, nil
}

type fakeProtocolRepo struct {
	protocols map[uuid.UUID]*catalog.Protocol
}

func (f *fakeProtocolRepo) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Protocol, error) {
	if p, ok := f.protocols[id]; ok {
		return p, nil
	}
	return nil, catalog.ErrProtocolNotFound
}

func (f *fakeProtocolRepo) List(ctx context.Context, targetCondition string) ([]*catalog.Protocol, error) {
	out := make([]*catalog.Protocol, 0, len(f.protocols))
	for _, p := range f.protocols {
		out = append(out, p)
	}
	return out, nil
}

type fakeMedicineRepo struct {
	byName map[string]*catalog.Medicine
}

func (f *fakeMedicineRepo) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	return nil, catalog.ErrMedicineNotFound
}

func (f *fakeMedicineRepo) FindByName(ctx context.Context, name string) (*catalog.Medicine, error) {
	if m, ok := f.byName[name]; ok {
		return m, nil
	}
	return nil, catalog.ErrMedicineNotFound
}

func (f *fakeMedicineRepo) List(ctx context.Context) ([]*catalog.Medicine, error) { return nil, nil }

type fakeTreatmentRepo struct {
	mu        sync.Mutex
	created   []*treatment.PatientTreatment
	createErr error
}

func (f *fakeTreatmentRepo) Create(ctx context.Context, t *treatment.PatientTreatment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	t.ID = uuid.New()
	f.created = append(f.created, t)
	return nil
}

func (f *fakeTreatmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*treatment.PatientTreatment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.created {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, treatment.ErrTreatmentNotFound
}

func (f *fakeTreatmentRepo) List(ctx context.Context, q *treatment.ListTreatmentsQuery) (*treatment.PagedTreatments, error) {
	return &treatment.PagedTreatments{Page: q.Page, PageSize: q.PageSize}, nil
}

func (f *fakeTreatmentRepo) Update(ctx context.Context, id uuid.UUID, cmd *treatment.UpdateTreatmentCommand) (*treatment.PatientTreatment, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeTreatmentRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

// gatedRules is a rules service whose cost estimates can be held back per
// protocol, to exercise the out-of-order response handling.
type gatedRules struct {
	mu             sync.Mutex
	gates          map[uuid.UUID]chan struct{}
	estimates      map[uuid.UUID]*rules.CostEstimate
	estimateErr    error
	validateResult *rules.ValidationResult
	validateErr    error
}

func newGatedRules() *gatedRules {
	return &gatedRules{
		gates:     make(map[uuid.UUID]chan struct{}),
		estimates: make(map[uuid.UUID]*rules.CostEstimate),
	}
}

func (g *gatedRules) EstimateCost(ctx context.Context, protocolID, patientID uuid.UUID) (*rules.CostEstimate, error) {
	g.mu.Lock()
	gate := g.gates[protocolID]
	est := g.estimates[protocolID]
	err := g.estimateErr
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if est == nil {
		return nil, errors.New("no estimate configured")
	}
	return est, nil
}

func (g *gatedRules) Validate(ctx context.Context, regimen []treatment.RegimenItem, patientID uuid.UUID) (*rules.ValidationResult, error) {
	if g.validateErr != nil {
		return nil, g.validateErr
	}
	if g.validateResult != nil {
		return g.validateResult, nil
	}
	return &rules.ValidationResult{Valid: true}, nil
}

func (g *gatedRules) DetectActiveTreatmentConflicts(ctx context.Context, patientID uuid.UUID) (*rules.ConflictReport, error) {
	return &rules.ConflictReport{}, nil
}

// fixture wires fake repositories into real services for flow tests.
type fixture struct {
	serviceRepo   *fakeServiceRepo
	doctorRepo    *fakeDoctorRepo
	patientRepo   *fakePatientRepo
	apptRepo      *fakeAppointmentRepo
	protocolRepo  *fakeProtocolRepo
	medicineRepo  *fakeMedicineRepo
	treatmentRepo *fakeTreatmentRepo
	rules         *gatedRules

	scheduler  *service.SchedulingService
	bookings   *service.BookingService
	treatments *service.TreatmentService

	consultSvc   *catalog.Service
	treatmentSvc *catalog.Service
	patientID    uuid.UUID
	doctorA      *doctor.Doctor
	doctorB      *doctor.Doctor
}

func newFixture() *fixture {
	log := zap.NewNop()

	f := &fixture{
		serviceRepo:   &fakeServiceRepo{services: make(map[uuid.UUID]*catalog.Service)},
		patientRepo:   &fakePatientRepo{patients: make(map[uuid.UUID]*patient.Patient)},
		apptRepo:      newFakeAppointmentRepo(),
		protocolRepo:  &fakeProtocolRepo{protocols: make(map[uuid.UUID]*catalog.Protocol)},
		medicineRepo:  &fakeMedicineRepo{byName: make(map[string]*catalog.Medicine)},
		treatmentRepo: &fakeTreatmentRepo{},
		rules:         newGatedRules(),
	}

	f.consultSvc = &catalog.Service{
		ID:           uuid.New(),
		Name:         "Online consultation",
		Category:     catalog.CategoryConsult,
		DurationMins: 30,
		IsActive:     true,
	}
	f.treatmentSvc = &catalog.Service{
		ID:           uuid.New(),
		Name:         "Physiotherapy session",
		Category:     catalog.CategoryTreatment,
		DurationMins: 30,
		IsActive:     true,
	}
	f.serviceRepo.services[f.consultSvc.ID] = f.consultSvc
	f.serviceRepo.services[f.treatmentSvc.ID] = f.treatmentSvc

	f.patientID = uuid.New()
	f.patientRepo.patients[f.patientID] = &patient.Patient{
		ID:        f.patientID,
		FirstName: "An",
		LastName:  "Tran",
		Status:    patient.StatusActive,
	}

	f.doctorA = &doctor.Doctor{ID: uuid.New(), FirstName: "Mai", LastName: "Le", IsActive: true}
	f.doctorB = &doctor.Doctor{ID: uuid.New(), FirstName: "Binh", LastName: "Pham", IsActive: true}
	f.doctorRepo = &fakeDoctorRepo{doctors: []*doctor.Doctor{f.doctorA, f.doctorB}}

	auditSvc := service.NewAuditService(auditRepoStub{}, log)

	f.scheduler = service.NewSchedulingService(
		f.serviceRepo, f.doctorRepo, f.apptRepo,
		catalog.DefaultShiftWindows(), 5*time.Minute, time.UTC, log,
	)
	f.bookings = service.NewBookingService(f.apptRepo, f.serviceRepo, f.patientRepo, auditSvc, log)
	f.treatments = service.NewTreatmentService(f.treatmentRepo, f.patientRepo, auditSvc, log)

	return f
}

func (f *fixture) patientActor() Actor {
	pid := f.patientID
	return Actor{UserID: uuid.New(), Role: "patient", PatientID: &pid, IP: "127.0.0.1"}
}

func (f *fixture) doctorActor() Actor {
	did := f.doctorA.ID
	return Actor{UserID: uuid.New(), Role: "doctor", DoctorID: &did, IP: "127.0.0.1"}
}

// futureDate is a weekday far enough out that slot instants are always in
// the future when the booking is confirmed.
func futureDate() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

type auditRepoStub struct{}

func (auditRepoStub) Create(ctx context.Context, entry *domain.AuditLog) error { return nil }
