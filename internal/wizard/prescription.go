package wizard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/careops/clinicops/internal/domain/treatment"
	"github.com/careops/clinicops/internal/regimen"
	"github.com/careops/clinicops/internal/rules"
	"github.com/careops/clinicops/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PrescriptionStep is the visible step of the doctor-side flow.
//
// Step transitions:
//
//	select_protocol → customize → validate → create
type PrescriptionStep string

const (
	StepSelectProtocol PrescriptionStep = "select_protocol"
	StepCustomize      PrescriptionStep = "customize"
	StepValidate       PrescriptionStep = "validate"
	StepCreate         PrescriptionStep = "create"
)

// Prescription drives protocol selection, regimen customization,
// advisory validation, and treatment creation for one consultation.
//
// Cost estimation and validation come from the external rules service and
// are best-effort: an unreachable service degrades to "cost unknown" and
// "no validation result" rather than blocking the doctor.
type Prescription struct {
	protocols  catalog.ProtocolRepository
	composer   *regimen.Composer
	rules      rules.Service
	treatments *service.TreatmentService
	bookings   *service.BookingService
	log        *zap.Logger

	actor     Actor
	patientID uuid.UUID
	doctorID  uuid.UUID

	// The visit that triggered this prescription, marked completed once
	// the treatment is created. Nil for walk-in prescriptions.
	appointmentID *uuid.UUID

	step     PrescriptionStep
	finished bool

	// The estimate is written by the background refresh and read by the
	// flow; estimateMu covers both. estimateGen guards against a
	// cost-estimate response landing after the doctor has already switched
	// protocols: each selection bumps the generation and a response
	// carrying a stale one is discarded.
	estimateMu  sync.Mutex
	estimate    *rules.CostEstimate
	estimateGen atomic.Uint64

	lastValidation *rules.ValidationResult
	notes          string
}

func NewPrescription(
	protocols catalog.ProtocolRepository,
	composer *regimen.Composer,
	rulesSvc rules.Service,
	treatments *service.TreatmentService,
	bookings *service.BookingService,
	actor Actor,
	patientID, doctorID uuid.UUID,
	appointmentID *uuid.UUID,
	log *zap.Logger,
) *Prescription {
	return &Prescription{
		protocols:     protocols,
		composer:      composer,
		rules:         rulesSvc,
		treatments:    treatments,
		bookings:      bookings,
		log:           log,
		actor:         actor,
		patientID:     patientID,
		doctorID:      doctorID,
		appointmentID: appointmentID,
		step:          StepSelectProtocol,
	}
}

func (p *Prescription) Step() PrescriptionStep { return p.step }
func (p *Prescription) Finished() bool         { return p.finished }

// Composer exposes the regimen editing operations for the customize step.
func (p *Prescription) Composer() *regimen.Composer { return p.composer }

// Estimate returns the last known cost estimate, nil meaning unknown.
func (p *Prescription) Estimate() *rules.CostEstimate {
	p.estimateMu.Lock()
	defer p.estimateMu.Unlock()
	return p.estimate
}

// LastValidation returns the most recent validation result, nil if none.
func (p *Prescription) LastValidation() *rules.ValidationResult { return p.lastValidation }

func (p *Prescription) SetNotes(notes string) { p.notes = notes }

// SelectProtocol installs the protocol into the composer (discarding any
// in-progress customization) and refreshes the cost estimate. Selecting
// is allowed from any non-final step so a doctor can start over.
func (p *Prescription) SelectProtocol(ctx context.Context, protocolID uuid.UUID) error {
	if p.finished {
		return ErrFlowFinished
	}

	proto, err := p.protocols.GetByID(ctx, protocolID)
	if err != nil {
		return err
	}

	p.composer.Select(proto)
	p.lastValidation = nil
	p.step = StepCustomize

	p.estimateMu.Lock()
	p.estimate = nil
	p.estimateMu.Unlock()

	gen := p.estimateGen.Add(1)
	go p.refreshEstimate(context.WithoutCancel(ctx), gen, proto.ID)
	return nil
}

// refreshEstimate asks the rules service for the protocol/patient cost.
// It runs off the request path so a slow rules service never delays the
// step change; failure is not an error for the flow — the confirm screen
// shows "cost unknown". A response for a superseded selection is dropped.
func (p *Prescription) refreshEstimate(ctx context.Context, gen uint64, protocolID uuid.UUID) {
	est, err := p.rules.EstimateCost(ctx, protocolID, p.patientID)
	if err != nil {
		p.log.Warn("cost estimate unavailable",
			zap.String("protocol_id", protocolID.String()),
			zap.Error(err),
		)
		return
	}

	p.estimateMu.Lock()
	defer p.estimateMu.Unlock()
	if p.estimateGen.Load() != gen {
		return
	}
	p.estimate = est
}

// Validate composes the current regimen and submits it for advisory
// validation. Issues are surfaced but never block progression; even a
// failed validation call only leaves the result empty. The flow advances
// to the create step regardless.
func (p *Prescription) Validate(ctx context.Context) (*rules.ValidationResult, error) {
	if p.finished {
		return nil, ErrFlowFinished
	}
	if p.step != StepCustomize && p.step != StepValidate {
		return nil, ErrInvalidStep
	}
	if p.composer.Protocol() == nil {
		return nil, ErrProtocolNotSelected
	}

	items := p.composer.Compose(ctx)
	if len(items) == 0 {
		return nil, treatment.ErrEmptyRegimen
	}

	result, err := p.rules.Validate(ctx, items, p.patientID)
	if err != nil {
		p.log.Warn("regimen validation unavailable", zap.Error(err))
		p.lastValidation = nil
		p.step = StepValidate
		return nil, nil
	}

	p.lastValidation = result
	p.step = StepValidate
	return result, nil
}

// Create submits the composed regimen as a treatment. Requires a selected
// protocol and at least one line; validation issues do not block. On
// failure the step and all customization are preserved for a retry. On
// success the triggering visit, if any, is marked completed.
func (p *Prescription) Create(ctx context.Context, startDate time.Time, endDate *time.Time) (*treatment.PatientTreatment, error) {
	if p.finished {
		return nil, ErrFlowFinished
	}
	if p.step != StepValidate && p.step != StepCreate {
		return nil, ErrInvalidStep
	}

	proto := p.composer.Protocol()
	if proto == nil {
		return nil, ErrProtocolNotSelected
	}

	items := p.composer.Compose(ctx)
	if len(items) == 0 {
		return nil, treatment.ErrEmptyRegimen
	}

	var totalCost float64
	if est := p.Estimate(); est != nil {
		totalCost = est.Total
	}

	cmd := &treatment.CreateTreatmentCommand{
		PatientID:  p.patientID,
		DoctorID:   p.doctorID,
		ProtocolID: proto.ID,
		Regimen:    items,
		StartDate:  startDate,
		EndDate:    endDate,
		Notes:      p.notes,
		TotalCost:  totalCost,
		CreatedBy:  p.actor.UserID,
	}

	p.step = StepCreate
	t, err := p.treatments.CreateTreatment(ctx, cmd, p.actor.UserID, p.actor.Role, p.actor.IP)
	if err != nil {
		return nil, err
	}

	if p.appointmentID != nil {
		if _, err := p.bookings.CompleteAppointment(ctx, *p.appointmentID, p.actor.UserID, p.actor.Role, p.actor.IP); err != nil {
			// The treatment exists; a failed status update on the visit is
			// reported but does not undo it.
			p.log.Warn("failed to mark triggering appointment completed",
				zap.String("appointment_id", p.appointmentID.String()),
				zap.Error(err),
			)
		}
	}

	p.finished = true
	return t, nil
}

// Cancel abandons the flow; nothing was persisted before Create.
func (p *Prescription) Cancel() {
	p.composer.Reset()
	p.estimateGen.Add(1)

	p.estimateMu.Lock()
	p.estimate = nil
	p.estimateMu.Unlock()

	p.lastValidation = nil
	p.notes = ""
	p.step = StepSelectProtocol
}
