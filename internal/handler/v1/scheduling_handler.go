package v1

import (
	"net/http"

	"github.com/careops/clinicops/internal/scheduling"
	"github.com/careops/clinicops/internal/service"
	"github.com/careops/clinicops/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SchedulingHandler exposes the slot grid and per-slot doctor
// availability outside the wizard, for calendar views and staff tooling.
type SchedulingHandler struct {
	scheduler *service.SchedulingService
	collector *metrics.Collector
}

func NewSchedulingHandler(scheduler *service.SchedulingService, collector *metrics.Collector) *SchedulingHandler {
	return &SchedulingHandler{scheduler: scheduler, collector: collector}
}

// Slots returns the bookable grid for a service on a date. An optional
// doctor_id removes slots already holding that doctor's appointments.
func (h *SchedulingHandler) Slots(c *gin.Context) {
	serviceID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	date, ok := parseDate(c, c.Query("date"), h.scheduler.ClinicLocation())
	if !ok {
		return
	}

	var doctorID *uuid.UUID
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid doctor_id: must be a valid UUID")
			return
		}
		doctorID = &id
	}

	slots, err := h.scheduler.AvailableSlots(c.Request.Context(), serviceID, doctorID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.SlotsGenerated.Add(float64(len(slots)))
	respondOK(c, gin.H{"date": date.Format("2006-01-02"), "slots": slots})
}

// AvailableDoctors lists the doctors free during one slot on a date.
func (h *SchedulingHandler) AvailableDoctors(c *gin.Context) {
	loc := h.scheduler.ClinicLocation()

	date, ok := parseDate(c, c.Query("date"), loc)
	if !ok {
		return
	}

	start, err := scheduling.ParseClock(c.Query("start"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	end, err := scheduling.ParseClock(c.Query("end"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	shift := scheduling.Shift(c.Query("shift"))
	if !shift.IsValid() {
		respondError(c, http.StatusBadRequest, "invalid shift: must be MORNING or AFTERNOON")
		return
	}

	doctors, err := h.scheduler.AvailableDoctors(c.Request.Context(), date, scheduling.Slot{
		Start: start,
		End:   end,
		Shift: shift,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, doctors)
}
