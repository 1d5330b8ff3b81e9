package v1

import (
	"net/http"
	"time"

	"github.com/careops/clinicops/internal/domain/treatment"
	"github.com/careops/clinicops/internal/middleware"
	"github.com/careops/clinicops/internal/rules"
	"github.com/careops/clinicops/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TreatmentHandler covers treatments after creation; creation itself goes
// through the prescription wizard.
type TreatmentHandler struct {
	treatments *service.TreatmentService
	rules      rules.Service
	loc        *time.Location
}

func NewTreatmentHandler(treatments *service.TreatmentService, rulesSvc rules.Service, loc *time.Location) *TreatmentHandler {
	return &TreatmentHandler{treatments: treatments, rules: rulesSvc, loc: loc}
}

func (h *TreatmentHandler) List(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	q := &treatment.ListTreatmentsQuery{
		Page:       parseQueryInt(c, "page", 1),
		PageSize:   parseQueryInt(c, "page_size", 20),
		ActiveOnly: c.Query("active") == "true",
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

	page, err := h.treatments.ListTreatments(c.Request.Context(), q, string(claims.Role), claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

func (h *TreatmentHandler) Get(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	t, err := h.treatments.GetTreatment(c.Request.Context(), id, claims.UserID, string(claims.Role), claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, t)
}

type updateTreatmentRequest struct {
	EndDate *string `json:"end_date"` // YYYY-MM-DD, null leaves it open-ended
	Notes   *string `json:"notes"`
}

func (h *TreatmentHandler) Update(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateTreatmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &treatment.UpdateTreatmentCommand{Notes: req.Notes, UpdatedBy: claims.UserID}
	if req.EndDate != nil {
		d, ok := parseDate(c, *req.EndDate, h.loc)
		if !ok {
			return
		}
		cmd.EndDate = &d
	}

	t, err := h.treatments.UpdateTreatment(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, t)
}

func (h *TreatmentHandler) Delete(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.treatments.DeleteTreatment(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"status": "deleted"})
}

// Conflicts asks the rules service whether a patient's active treatments
// clash; surfaced to doctors before they start a new prescription.
func (h *TreatmentHandler) Conflicts(c *gin.Context) {
	patientID, ok := parseUUID(c, "patientId")
	if !ok {
		return
	}

	report, err := h.rules.DetectActiveTreatmentConflicts(c.Request.Context(), patientID)
	if err != nil {
		// Conflict detection is advisory; an unreachable rules service
		// reports "unknown" rather than failing the request.
		respondOK(c, gin.H{"known": false})
		return
	}

	respondOK(c, gin.H{"known": true, "report": report})
}
