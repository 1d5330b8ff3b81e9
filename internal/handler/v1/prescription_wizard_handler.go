package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/careops/clinicops/internal/domain"
	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/careops/clinicops/internal/middleware"
	"github.com/careops/clinicops/internal/regimen"
	"github.com/careops/clinicops/internal/rules"
	"github.com/careops/clinicops/internal/service"
	"github.com/careops/clinicops/internal/wizard"
	"github.com/careops/clinicops/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PrescriptionWizardHandler drives the doctor-side prescription flow:
// protocol selection, regimen customization, advisory validation, and
// treatment creation.
type PrescriptionWizardHandler struct {
	store      *wizard.Store
	protocols  catalog.ProtocolRepository
	medicines  catalog.MedicineRepository
	rules      rules.Service
	treatments *service.TreatmentService
	bookings   *service.BookingService
	collector  *metrics.Collector
	loc        *time.Location
	log        *zap.Logger
}

func NewPrescriptionWizardHandler(
	store *wizard.Store,
	protocols catalog.ProtocolRepository,
	medicines catalog.MedicineRepository,
	rulesSvc rules.Service,
	treatments *service.TreatmentService,
	bookings *service.BookingService,
	collector *metrics.Collector,
	loc *time.Location,
	log *zap.Logger,
) *PrescriptionWizardHandler {
	return &PrescriptionWizardHandler{
		store:      store,
		protocols:  protocols,
		medicines:  medicines,
		rules:      rulesSvc,
		treatments: treatments,
		bookings:   bookings,
		collector:  collector,
		loc:        loc,
		log:        log,
	}
}

type startPrescriptionRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
	// Admin callers prescribing on a doctor's behalf name the doctor;
	// doctors default to their own record.
	DoctorID *uuid.UUID `json:"doctor_id"`
	// The visit that triggered the prescription, completed on success.
	AppointmentID *uuid.UUID `json:"appointment_id"`
}

type prescriptionStateResponse struct {
	SessionID  uuid.UUID                    `json:"session_id"`
	Step       wizard.PrescriptionStep      `json:"step"`
	Finished   bool                         `json:"finished"`
	ProtocolID *uuid.UUID                   `json:"protocol_id,omitempty"`
	Lines      []catalog.ProtocolMedication `json:"lines"`
	Custom     []regimen.CustomMedication   `json:"custom"`
	Estimate   *rules.CostEstimate          `json:"estimate,omitempty"`
	Validation *rules.ValidationResult      `json:"validation,omitempty"`
}

func prescriptionState(id uuid.UUID, p *wizard.Prescription) prescriptionStateResponse {
	resp := prescriptionStateResponse{
		SessionID:  id,
		Step:       p.Step(),
		Finished:   p.Finished(),
		Lines:      p.Composer().Lines(),
		Custom:     p.Composer().CustomMedications(),
		Estimate:   p.Estimate(),
		Validation: p.LastValidation(),
	}
	if proto := p.Composer().Protocol(); proto != nil {
		resp.ProtocolID = &proto.ID
	}
	return resp
}

func (h *PrescriptionWizardHandler) Start(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req startPrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	var doctorID uuid.UUID
	switch {
	case claims.Role == domain.RoleDoctor:
		if claims.DoctorID == nil {
			respondError(c, http.StatusForbidden, "account has no doctor record")
			return
		}
		doctorID = *claims.DoctorID
	case req.DoctorID != nil:
		doctorID = *req.DoctorID
	default:
		respondError(c, http.StatusBadRequest, "doctor_id is required")
		return
	}

	flow := wizard.NewPrescription(
		h.protocols,
		regimen.NewComposer(h.medicines),
		h.rules,
		h.treatments,
		h.bookings,
		actorFrom(claims, c.ClientIP()),
		req.PatientID,
		doctorID,
		req.AppointmentID,
		h.log,
	)
	id := h.store.PutPrescription(flow)

	respondCreated(c, prescriptionState(id, flow))
}

func (h *PrescriptionWizardHandler) State(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}
	respondOK(c, prescriptionState(id, flow))
}

type selectProtocolRequest struct {
	ProtocolID uuid.UUID `json:"protocol_id" binding:"required"`
}

func (h *PrescriptionWizardHandler) SelectProtocol(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	var req selectProtocolRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := flow.SelectProtocol(c.Request.Context(), req.ProtocolID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, prescriptionState(id, flow))
}

type lineEditRequest struct {
	Dosage       *string                     `json:"dosage"`
	DurationVal  *int                        `json:"duration_val"`
	DurationUnit *catalog.DurationUnit       `json:"duration_unit"`
	Schedule     *catalog.MedicationSchedule `json:"schedule"`
	Notes        *string                     `json:"notes"`
}

func (r *lineEditRequest) valid(c *gin.Context) bool {
	if r.DurationUnit != nil && !r.DurationUnit.IsValid() {
		respondError(c, http.StatusBadRequest, "invalid duration_unit: must be DAY, WEEK, or MONTH")
		return false
	}
	if r.Schedule != nil && !r.Schedule.IsValid() {
		respondError(c, http.StatusBadRequest, "invalid schedule: must be MORNING, AFTERNOON, EVENING, or DAILY")
		return false
	}
	return true
}

func (h *PrescriptionWizardHandler) EditLine(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	var req lineEditRequest
	if !bindJSON(c, &req) || !req.valid(c) {
		return
	}

	err := flow.Composer().EditLine(index, regimen.LineEdit{
		Dosage:       req.Dosage,
		DurationVal:  req.DurationVal,
		DurationUnit: req.DurationUnit,
		Schedule:     req.Schedule,
		Notes:        req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, prescriptionState(id, flow))
}

func (h *PrescriptionWizardHandler) RemoveLine(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	if err := flow.Composer().RemoveLine(index); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, prescriptionState(id, flow))
}

func (h *PrescriptionWizardHandler) AddCustom(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	index := flow.Composer().AddCustomMedication()
	respondCreated(c, gin.H{"index": index, "session": prescriptionState(id, flow)})
}

type customEditRequest struct {
	MedicineName *string                     `json:"medicine_name"`
	Dosage       *string                     `json:"dosage"`
	DurationVal  *int                        `json:"duration_val"`
	DurationUnit *catalog.DurationUnit       `json:"duration_unit"`
	Schedule     *catalog.MedicationSchedule `json:"schedule"`
	Unit         *string                     `json:"unit"`
	Price        *float64                    `json:"price"`
	Notes        *string                     `json:"notes"`
}

func (h *PrescriptionWizardHandler) EditCustom(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	var req customEditRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.DurationUnit != nil && !req.DurationUnit.IsValid() {
		respondError(c, http.StatusBadRequest, "invalid duration_unit: must be DAY, WEEK, or MONTH")
		return
	}
	if req.Schedule != nil && !req.Schedule.IsValid() {
		respondError(c, http.StatusBadRequest, "invalid schedule: must be MORNING, AFTERNOON, EVENING, or DAILY")
		return
	}

	err := flow.Composer().EditCustomMedication(index, regimen.CustomEdit{
		MedicineName: req.MedicineName,
		Dosage:       req.Dosage,
		DurationVal:  req.DurationVal,
		DurationUnit: req.DurationUnit,
		Schedule:     req.Schedule,
		Unit:         req.Unit,
		Price:        req.Price,
		Notes:        req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, prescriptionState(id, flow))
}

func (h *PrescriptionWizardHandler) RemoveCustom(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	if err := flow.Composer().RemoveCustomMedication(index); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, prescriptionState(id, flow))
}

func (h *PrescriptionWizardHandler) Validate(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	result, err := flow.Validate(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if result == nil {
		// Rules service unreachable; validation degrades to unknown and
		// the flow still advances.
		h.collector.RulesCallFailures.WithLabelValues("validate").Inc()
	}

	respondOK(c, prescriptionState(id, flow))
}

type createTreatmentRequest struct {
	StartDate string  `json:"start_date" binding:"required"`
	EndDate   *string `json:"end_date"`
	Notes     string  `json:"notes"`
}

func (h *PrescriptionWizardHandler) Create(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	var req createTreatmentRequest
	if !bindJSON(c, &req) {
		return
	}

	startDate, ok := parseDate(c, req.StartDate, h.loc)
	if !ok {
		return
	}
	var endDate *time.Time
	if req.EndDate != nil {
		d, ok := parseDate(c, *req.EndDate, h.loc)
		if !ok {
			return
		}
		endDate = &d
	}
	if req.Notes != "" {
		flow.SetNotes(req.Notes)
	}

	t, err := flow.Create(c.Request.Context(), startDate, endDate)
	if err != nil {
		// Customization and step survive; the caller retries the session.
		respondServiceError(c, err)
		return
	}

	h.store.DropPrescription(id)
	h.collector.TreatmentsCreated.Inc()
	respondCreated(c, t)
}

func (h *PrescriptionWizardHandler) Cancel(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	flow.Cancel()
	h.store.DropPrescription(id)
	h.collector.WizardCancellations.WithLabelValues("prescription").Inc()

	respondOK(c, gin.H{"status": "cancelled"})
}

func (h *PrescriptionWizardHandler) session(c *gin.Context) (uuid.UUID, *wizard.Prescription, bool) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, nil, false
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return uuid.Nil, nil, false
	}

	flow, err := h.store.Prescription(id, claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return uuid.Nil, nil, false
	}
	return id, flow, true
}

func parseIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		respondError(c, http.StatusBadRequest, "invalid index: must be a non-negative integer")
		return 0, false
	}
	return index, true
}
