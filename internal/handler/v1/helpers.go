package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/careops/clinicops/internal/domain/appointment"
	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/careops/clinicops/internal/domain/patient"
	"github.com/careops/clinicops/internal/domain/treatment"
	"github.com/careops/clinicops/internal/regimen"
	"github.com/careops/clinicops/internal/scheduling"
	"github.com/careops/clinicops/internal/service"
	"github.com/careops/clinicops/internal/wizard"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, catalog.ErrMedicineNotFound),
		errors.Is(err, catalog.ErrProtocolNotFound),
		errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, treatment.ErrTreatmentNotFound),
		errors.Is(err, wizard.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrAppointmentConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrScheduledInPast),
		errors.Is(err, appointment.ErrInvalidDuration),
		errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrDoctorRequired),
		errors.Is(err, catalog.ErrServiceInactive),
		errors.Is(err, patient.ErrPatientInactive),
		errors.Is(err, treatment.ErrEmptyRegimen),
		errors.Is(err, treatment.ErrProtocolRequired),
		errors.Is(err, treatment.ErrEndBeforeStart),
		errors.Is(err, scheduling.ErrInvalidClockTime),
		errors.Is(err, wizard.ErrSlotNotInGrid),
		errors.Is(err, regimen.ErrLineOutOfRange),
		errors.Is(err, regimen.ErrNoProtocolSelected):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, wizard.ErrInvalidStep),
		errors.Is(err, wizard.ErrFlowFinished),
		errors.Is(err, wizard.ErrServiceNotSelected),
		errors.Is(err, wizard.ErrDateNotSelected),
		errors.Is(err, wizard.ErrSlotNotSelected),
		errors.Is(err, wizard.ErrDoctorNotSelected),
		errors.Is(err, wizard.ErrProtocolNotSelected):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "WIZARD_STATE"})

	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "account inactive"})

	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})

	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// parseDate reads a YYYY-MM-DD query or body value in the clinic zone.
func parseDate(c *gin.Context, raw string, loc *time.Location) (time.Time, bool) {
	d, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid date: must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return d, true
}
