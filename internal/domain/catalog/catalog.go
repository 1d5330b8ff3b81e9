package catalog

import (
	"time"

	"github.com/careops/clinicops/internal/scheduling"
	"github.com/google/uuid"
)

// ServiceCategory decides the booking flow: CONSULT visits are online and
// need no doctor selection, TEST and TREATMENT are on-site with a doctor.
type ServiceCategory string

const (
	CategoryTest      ServiceCategory = "TEST"
	CategoryConsult   ServiceCategory = "CONSULT"
	CategoryTreatment ServiceCategory = "TREATMENT"
)

func (c ServiceCategory) IsValid() bool {
	switch c {
	case CategoryTest, CategoryConsult, CategoryTreatment:
		return true
	}
	return false
}

type DurationUnit string

const (
	UnitDay   DurationUnit = "DAY"
	UnitWeek  DurationUnit = "WEEK"
	UnitMonth DurationUnit = "MONTH"
)

func (u DurationUnit) IsValid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth:
		return true
	}
	return false
}

type MedicationSchedule string

const (
	ScheduleMorning   MedicationSchedule = "MORNING"
	ScheduleAfternoon MedicationSchedule = "AFTERNOON"
	ScheduleEvening   MedicationSchedule = "EVENING"
	ScheduleDaily     MedicationSchedule = "DAILY"
)

func (s MedicationSchedule) IsValid() bool {
	switch s {
	case ScheduleMorning, ScheduleAfternoon, ScheduleEvening, ScheduleDaily:
		return true
	}
	return false
}

// Service is admin-maintained reference data, read-only to the booking
// and scheduling logic.
type Service struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Name     string          `gorm:"column:name;type:varchar(255);not null"`
	Category ServiceCategory `gorm:"column:category;type:varchar(20);not null;index"`
	Price    float64         `gorm:"column:price;type:numeric(12,2);not null"`

	// Operating window as HH:MM clock times. Empty means the service has
	// no window of its own and falls back to the clinic's default shifts.
	WindowStart string `gorm:"column:window_start;type:varchar(5)"`
	WindowEnd   string `gorm:"column:window_end;type:varchar(5)"`

	DurationMins int `gorm:"column:duration_mins;not null;default:30"`

	IsActive bool `gorm:"column:is_active;default:true;index"`
}

func (Service) TableName() string {
	return "catalog.services"
}

func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMins) * time.Minute
}

// NeedsDoctor reports whether booking this service requires the patient
// to pick a doctor. Online consults are matched to a doctor server-side.
func (s *Service) NeedsDoctor() bool {
	return s.Category != CategoryConsult
}

// ShiftWindows resolves the windows slots are generated in. A service
// with its own operating window is clipped against the default shifts so
// no slot ever spans the midday boundary; a service without one uses the
// defaults as-is.
func (s *Service) ShiftWindows(defaults []scheduling.ShiftWindow) ([]scheduling.ShiftWindow, error) {
	if s.WindowStart == "" || s.WindowEnd == "" {
		return defaults, nil
	}

	start, err := scheduling.ParseClock(s.WindowStart)
	if err != nil {
		return nil, err
	}
	end, err := scheduling.ParseClock(s.WindowEnd)
	if err != nil {
		return nil, err
	}

	var windows []scheduling.ShiftWindow
	for _, d := range defaults {
		lo, hi := d.Start, d.End
		if start > lo {
			lo = start
		}
		if end < hi {
			hi = end
		}
		if lo < hi {
			windows = append(windows, scheduling.ShiftWindow{Shift: d.Shift, Start: lo, End: hi})
		}
	}
	return windows, nil
}

// DefaultShiftWindows is the clinic-wide reference table used when a
// service defines no operating window of its own.
func DefaultShiftWindows() []scheduling.ShiftWindow {
	return []scheduling.ShiftWindow{
		{Shift: scheduling.ShiftMorning, Start: scheduling.MustClock("07:00"), End: scheduling.MustClock("11:00")},
		{Shift: scheduling.ShiftAfternoon, Start: scheduling.MustClock("13:00"), End: scheduling.MustClock("17:00")},
	}
}

type Medicine struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Name  string  `gorm:"column:name;type:varchar(255);not null;index"`
	Unit  string  `gorm:"column:unit;type:varchar(50)"` // e.g. "tablet", "ml"
	Price float64 `gorm:"column:price;type:numeric(12,2);not null;default:0"`
}

func (Medicine) TableName() string {
	return "catalog.medicines"
}

// ProtocolMedication is one line of a protocol template. UnitPrice and
// Unit are denormalized from the medicine catalog at authoring time so a
// template renders without a join.
type ProtocolMedication struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProtocolID uuid.UUID `gorm:"column:protocol_id;type:uuid;not null;index"`

	MedicineID   uuid.UUID          `gorm:"column:medicine_id;type:uuid;not null"`
	MedicineName string             `gorm:"column:medicine_name;type:varchar(255);not null"`
	Dosage       string             `gorm:"column:dosage;type:varchar(100)"`
	DurationVal  int                `gorm:"column:duration_val;not null;default:30"`
	DurationUnit DurationUnit       `gorm:"column:duration_unit;type:varchar(10);not null;default:'DAY'"`
	Schedule     MedicationSchedule `gorm:"column:schedule;type:varchar(10);not null;default:'DAILY'"`
	Notes        string             `gorm:"column:notes;type:text"`
	UnitPrice    float64            `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	Unit         string             `gorm:"column:unit;type:varchar(50)"`

	SortOrder int `gorm:"column:sort_order;not null;default:0"`
}

func (ProtocolMedication) TableName() string {
	return "catalog.protocol_medications"
}

// Protocol is a reusable medication template for a target condition.
type Protocol struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Name            string `gorm:"column:name;type:varchar(255);not null"`
	TargetCondition string `gorm:"column:target_condition;type:varchar(255);index"`
	Description     string `gorm:"column:description;type:text"`

	Medications []ProtocolMedication `gorm:"foreignKey:ProtocolID"`
}

func (Protocol) TableName() string {
	return "catalog.protocols"
}
