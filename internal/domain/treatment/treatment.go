package treatment

import (
	"time"

	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/google/uuid"
)

// RegimenItem is one normalized medication line of a treatment. Both
// protocol-derived lines and doctor-added custom medications flatten to
// this shape before submission.
type RegimenItem struct {
	MedicineName string                     `json:"medicine_name"`
	Dosage       string                     `json:"dosage"`
	Frequency    catalog.MedicationSchedule `json:"frequency"`
	DurationVal  int                        `json:"duration_val"`
	DurationUnit catalog.DurationUnit       `json:"duration_unit"`
	Unit         string                     `json:"unit"`
	Price        float64                    `json:"price"`
	Notes        string                     `json:"notes"`
}

// PatientTreatment is created once from a composed regimen. The regimen
// column is a value snapshot: later edits to the protocol template or the
// medicine catalog never reach back into an existing treatment.
type PatientTreatment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID  uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID   uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`
	ProtocolID uuid.UUID `gorm:"column:protocol_id;type:uuid;not null;index"`

	Regimen []RegimenItem `gorm:"column:regimen;serializer:json;not null"`

	StartDate time.Time  `gorm:"column:start_date;not null;index"`
	EndDate   *time.Time `gorm:"column:end_date;index"` // nil = open-ended

	Notes string `gorm:"column:notes;type:text"`

	// Server-computed at creation; the client never derives it.
	TotalCost float64 `gorm:"column:total_cost;type:numeric(12,2);not null;default:0"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (PatientTreatment) TableName() string {
	return "clinical.patient_treatments"
}

// IsActive reports the derived status: active iff open-ended or not yet
// past its end date.
func (t *PatientTreatment) IsActive() bool {
	return t.EndDate == nil || !t.EndDate.Before(time.Now())
}

type CreateTreatmentCommand struct {
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	ProtocolID uuid.UUID
	Regimen    []RegimenItem
	StartDate  time.Time
	EndDate    *time.Time
	Notes      string
	TotalCost  float64
	CreatedBy  uuid.UUID
}

type UpdateTreatmentCommand struct {
	EndDate   *time.Time
	Notes     *string
	UpdatedBy uuid.UUID
}

type ListTreatmentsQuery struct {
	PatientID  *uuid.UUID
	DoctorID   *uuid.UUID
	ActiveOnly bool
	Page       int
	PageSize   int
}

type PagedTreatments struct {
	Treatments []*PatientTreatment
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
