// Package rules talks to the external rules service that owns every
// computation the portal must not duplicate: authoritative cost totals,
// regimen validation, and active-treatment conflict detection. The
// wizards treat all of it as advisory input and degrade when the service
// is unreachable.
package rules

import (
	"github.com/careops/clinicops/internal/domain/treatment"
	"github.com/google/uuid"
)

type CostEstimate struct {
	ProtocolID uuid.UUID `json:"protocol_id"`
	PatientID  uuid.UUID `json:"patient_id"`
	Total      float64   `json:"total"`
	Currency   string    `json:"currency"`
}

type IssueSeverity string

const (
	SeverityWarning IssueSeverity = "warning"
	SeverityError   IssueSeverity = "error"
)

type ValidationIssue struct {
	Severity  IssueSeverity `json:"severity"`
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	LineIndex *int          `json:"line_index,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues"`
}

type ConflictReport struct {
	HasConflict        bool        `json:"has_conflict"`
	ActiveTreatmentIDs []uuid.UUID `json:"active_treatment_ids"`
	Message            string      `json:"message"`
}

type validateRequest struct {
	PatientID uuid.UUID               `json:"patient_id"`
	Regimen   []treatment.RegimenItem `json:"regimen"`
}
