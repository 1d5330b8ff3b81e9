package v1

import (
	"net/http"

	"github.com/careops/clinicops/internal/domain"
	"github.com/careops/clinicops/internal/middleware"
	"github.com/careops/clinicops/internal/scheduling"
	"github.com/careops/clinicops/internal/service"
	"github.com/careops/clinicops/internal/wizard"
	"github.com/careops/clinicops/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingWizardHandler drives the step-by-step booking flow over HTTP.
// Each flow lives in the wizard store under a session ID returned by
// Start; every subsequent call replays into that in-memory flow.
type BookingWizardHandler struct {
	store     *wizard.Store
	scheduler *service.SchedulingService
	bookings  *service.BookingService
	collector *metrics.Collector
	log       *zap.Logger
}

func NewBookingWizardHandler(
	store *wizard.Store,
	scheduler *service.SchedulingService,
	bookings *service.BookingService,
	collector *metrics.Collector,
	log *zap.Logger,
) *BookingWizardHandler {
	return &BookingWizardHandler{
		store:     store,
		scheduler: scheduler,
		bookings:  bookings,
		collector: collector,
		log:       log,
	}
}

type startBookingRequest struct {
	// Staff booking on a patient's behalf pass the patient here; patients
	// booking for themselves leave it empty.
	PatientID *uuid.UUID `json:"patient_id"`
}

type bookingStateResponse struct {
	SessionID uuid.UUID          `json:"session_id"`
	Step      wizard.BookingStep `json:"step"`
	Finished  bool               `json:"finished"`
	ServiceID *uuid.UUID         `json:"service_id,omitempty"`
	Slot      *scheduling.Slot   `json:"slot,omitempty"`
	DoctorID  *uuid.UUID         `json:"doctor_id,omitempty"`
}

func bookingState(id uuid.UUID, b *wizard.Booking) bookingStateResponse {
	resp := bookingStateResponse{
		SessionID: id,
		Step:      b.Step(),
		Finished:  b.Finished(),
		Slot:      b.Slot(),
		DoctorID:  b.DoctorID(),
	}
	if svc := b.Service(); svc != nil {
		resp.ServiceID = &svc.ID
	}
	return resp
}

func actorFrom(claims *domain.Claims, ip string) wizard.Actor {
	return wizard.Actor{
		UserID:    claims.UserID,
		Role:      string(claims.Role),
		PatientID: claims.PatientID,
		DoctorID:  claims.DoctorID,
		IP:        ip,
	}
}

func (h *BookingWizardHandler) Start(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req startBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	var patientID uuid.UUID
	switch {
	case claims.Role == domain.RolePatient:
		if claims.PatientID == nil {
			respondError(c, http.StatusForbidden, "account has no patient record")
			return
		}
		patientID = *claims.PatientID
	case req.PatientID != nil:
		patientID = *req.PatientID
	default:
		respondError(c, http.StatusBadRequest, "patient_id is required")
		return
	}

	flow := wizard.NewBooking(h.scheduler, h.bookings, actorFrom(claims, c.ClientIP()), patientID, h.log)
	id := h.store.PutBooking(flow)

	respondCreated(c, bookingState(id, flow))
}

func (h *BookingWizardHandler) State(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}
	respondOK(c, bookingState(id, flow))
}

type selectServiceRequest struct {
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
}

func (h *BookingWizardHandler) SelectService(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	var req selectServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := flow.SelectService(c.Request.Context(), req.ServiceID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, bookingState(id, flow))
}

type selectDateRequest struct {
	Date string `json:"date" binding:"required"`
}

func (h *BookingWizardHandler) SlotsForDate(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	var req selectDateRequest
	if !bindJSON(c, &req) {
		return
	}

	date, ok := parseDate(c, req.Date, h.scheduler.ClinicLocation())
	if !ok {
		return
	}

	slots, err := flow.SlotsForDate(c.Request.Context(), date)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.SlotsGenerated.Add(float64(len(slots)))
	respondOK(c, gin.H{"session": bookingState(id, flow), "slots": slots})
}

type selectSlotRequest struct {
	Start string           `json:"start" binding:"required"`
	End   string           `json:"end" binding:"required"`
	Shift scheduling.Shift `json:"shift" binding:"required"`
}

func (h *BookingWizardHandler) SelectSlot(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	var req selectSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	start, err := scheduling.ParseClock(req.Start)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	end, err := scheduling.ParseClock(req.End)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !req.Shift.IsValid() {
		respondError(c, http.StatusBadRequest, "invalid shift: must be MORNING or AFTERNOON")
		return
	}

	if err := flow.SelectSlot(c.Request.Context(), scheduling.Slot{Start: start, End: end, Shift: req.Shift}); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, bookingState(id, flow))
}

func (h *BookingWizardHandler) Doctors(c *gin.Context) {
	_, flow, ok := h.session(c)
	if !ok {
		return
	}

	doctors, err := flow.AvailableDoctors(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, doctors)
}

type selectDoctorRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
}

func (h *BookingWizardHandler) SelectDoctor(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	var req selectDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := flow.SelectDoctor(req.DoctorID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, bookingState(id, flow))
}

func (h *BookingWizardHandler) Back(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	if err := flow.Back(); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, bookingState(id, flow))
}

func (h *BookingWizardHandler) Cancel(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	flow.Cancel()
	h.store.DropBooking(id)
	h.collector.WizardCancellations.WithLabelValues("booking").Inc()

	respondOK(c, gin.H{"status": "cancelled"})
}

type confirmBookingRequest struct {
	Notes string `json:"notes"`
}

func (h *BookingWizardHandler) Confirm(c *gin.Context) {
	id, flow, ok := h.session(c)
	if !ok {
		return
	}

	var req confirmBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Notes != "" {
		flow.SetNotes(req.Notes)
	}

	a, err := flow.Confirm(c.Request.Context())
	if err != nil {
		// The flow stays at confirm with selections intact; the caller
		// can retry the same session.
		respondServiceError(c, err)
		return
	}

	h.store.DropBooking(id)
	h.collector.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	respondCreated(c, a)
}

func (h *BookingWizardHandler) session(c *gin.Context) (uuid.UUID, *wizard.Booking, bool) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, nil, false
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return uuid.Nil, nil, false
	}

	flow, err := h.store.Booking(id, claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return uuid.Nil, nil, false
	}
	return id, flow, true
}
