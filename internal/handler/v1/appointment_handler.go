package v1

import (
	"net/http"
	"time"

	"github.com/careops/clinicops/internal/domain"
	"github.com/careops/clinicops/internal/domain/appointment"
	"github.com/careops/clinicops/internal/middleware"
	"github.com/careops/clinicops/internal/service"
	"github.com/careops/clinicops/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AppointmentHandler covers the appointment lifecycle outside the booking
// wizard: listing, status transitions by staff, and cancellation.
type AppointmentHandler struct {
	bookings  *service.BookingService
	collector *metrics.Collector
	loc       *time.Location
}

func NewAppointmentHandler(bookings *service.BookingService, collector *metrics.Collector, loc *time.Location) *AppointmentHandler {
	return &AppointmentHandler{bookings: bookings, collector: collector, loc: loc}
}

func (h *AppointmentHandler) List(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}

	if raw := c.Query("patient_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.PatientID = &id
		}
	}
	if raw := c.Query("doctor_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.DoctorID = &id
		}
	}
	if raw := c.Query("status"); raw != "" {
		st := appointment.AppointmentStatus(raw)
		if !st.IsValid() {
			respondError(c, http.StatusBadRequest, "invalid status filter")
			return
		}
		q.Status = &st
	}
	if raw := c.Query("date_from"); raw != "" {
		d, ok := parseDate(c, raw, h.loc)
		if !ok {
			return
		}
		q.DateFrom = &d
	}
	if raw := c.Query("date_to"); raw != "" {
		d, ok := parseDate(c, raw, h.loc)
		if !ok {
			return
		}
		q.DateTo = &d
	}

	page, err := h.bookings.ListAppointments(c.Request.Context(), q, string(claims.Role), claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.bookings.GetAppointment(c.Request.Context(), id, claims.UserID, string(claims.Role), claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req cancelAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.bookings.CancelAppointment(c.Request.Context(), id, &appointment.CancelAppointmentCommand{
		Reason:      req.Reason,
		CancelledBy: claims.UserID,
	}, claims.UserID, string(claims.Role), claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.AppointmentsTotal.WithLabelValues(string(appointment.StatusCancelled)).Inc()
	respondOK(c, a)
}

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	h.transition(c, func(claims *domain.Claims, id uuid.UUID) (*appointment.Appointment, error) {
		return h.bookings.ConfirmAppointment(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP())
	})
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.transition(c, func(claims *domain.Claims, id uuid.UUID) (*appointment.Appointment, error) {
		return h.bookings.CompleteAppointment(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP())
	})
}

func (h *AppointmentHandler) MarkPaid(c *gin.Context) {
	h.transition(c, func(claims *domain.Claims, id uuid.UUID) (*appointment.Appointment, error) {
		return h.bookings.MarkPaid(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP())
	})
}

func (h *AppointmentHandler) transition(c *gin.Context, op func(*domain.Claims, uuid.UUID) (*appointment.Appointment, error)) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := op(claims, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	respondOK(c, a)
}
