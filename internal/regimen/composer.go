package regimen

import (
	"context"
	"errors"

	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/careops/clinicops/internal/domain/treatment"
)

var (
	ErrNoProtocolSelected = errors.New("no protocol selected")
	ErrLineOutOfRange     = errors.New("regimen line index out of range")
)

// Defaults for a freshly added custom medication.
const (
	defaultCustomDurationVal = 30
)

// CustomMedication is a doctor-authored line with a free-text medicine
// name and no guaranteed catalog reference. Price is nil until the doctor
// sets one or Compose resolves it from the catalog by name.
type CustomMedication struct {
	MedicineName string
	Dosage       string
	DurationVal  int
	DurationUnit catalog.DurationUnit
	Schedule     catalog.MedicationSchedule
	Unit         string
	Price        *float64
	Notes        string
}

// LineEdit is a partial update to a cloned protocol line. Nil fields are
// left untouched.
type LineEdit struct {
	Dosage       *string
	DurationVal  *int
	DurationUnit *catalog.DurationUnit
	Schedule     *catalog.MedicationSchedule
	Notes        *string
}

// CustomEdit is a partial update to a custom medication.
type CustomEdit struct {
	MedicineName *string
	Dosage       *string
	DurationVal  *int
	DurationUnit *catalog.DurationUnit
	Schedule     *catalog.MedicationSchedule
	Unit         *string
	Price        *float64
	Notes        *string
}

// Composer builds a patient-specific regimen from a protocol template.
// Select clones the template's lines into working state, so every edit
// lands on the clone and the shared template is never touched — other
// consultations selecting the same protocol see it pristine.
type Composer struct {
	medicines catalog.MedicineRepository

	protocol *catalog.Protocol
	lines    []catalog.ProtocolMedication
	custom   []CustomMedication
}

func NewComposer(medicines catalog.MedicineRepository) *Composer {
	return &Composer{medicines: medicines}
}

// Select installs a protocol and clones its medication list into working
// state. Any in-progress custom medications are discarded: a regimen is
// composed against exactly one protocol.
func (c *Composer) Select(p *catalog.Protocol) {
	c.protocol = p
	// ProtocolMedication holds only value fields, so copying the slice
	// elements is a deep clone.
	c.lines = make([]catalog.ProtocolMedication, len(p.Medications))
	copy(c.lines, p.Medications)
	c.custom = nil
}

// Reset discards the selected protocol and all working state.
func (c *Composer) Reset() {
	c.protocol = nil
	c.lines = nil
	c.custom = nil
}

// Protocol returns the currently selected template, nil if none.
func (c *Composer) Protocol() *catalog.Protocol {
	return c.protocol
}

// Lines exposes the working copy of the protocol lines for display.
func (c *Composer) Lines() []catalog.ProtocolMedication {
	return c.lines
}

// CustomMedications exposes the working custom lines for display.
func (c *Composer) CustomMedications() []CustomMedication {
	return c.custom
}

func (c *Composer) EditLine(index int, edit LineEdit) error {
	if c.protocol == nil {
		return ErrNoProtocolSelected
	}
	if index < 0 || index >= len(c.lines) {
		return ErrLineOutOfRange
	}

	line := &c.lines[index]
	if edit.Dosage != nil {
		line.Dosage = *edit.Dosage
	}
	if edit.DurationVal != nil {
		line.DurationVal = *edit.DurationVal
	}
	if edit.DurationUnit != nil {
		line.DurationUnit = *edit.DurationUnit
	}
	if edit.Schedule != nil {
		line.Schedule = *edit.Schedule
	}
	if edit.Notes != nil {
		line.Notes = *edit.Notes
	}
	return nil
}

func (c *Composer) RemoveLine(index int) error {
	if c.protocol == nil {
		return ErrNoProtocolSelected
	}
	if index < 0 || index >= len(c.lines) {
		return ErrLineOutOfRange
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// AddCustomMedication appends a blank custom line with the standard
// defaults and returns its index.
func (c *Composer) AddCustomMedication() int {
	c.custom = append(c.custom, CustomMedication{
		DurationVal:  defaultCustomDurationVal,
		DurationUnit: catalog.UnitDay,
		Schedule:     catalog.ScheduleDaily,
	})
	return len(c.custom) - 1
}

func (c *Composer) EditCustomMedication(index int, edit CustomEdit) error {
	if index < 0 || index >= len(c.custom) {
		return ErrLineOutOfRange
	}

	m := &c.custom[index]
	if edit.MedicineName != nil {
		m.MedicineName = *edit.MedicineName
	}
	if edit.Dosage != nil {
		m.Dosage = *edit.Dosage
	}
	if edit.DurationVal != nil {
		m.DurationVal = *edit.DurationVal
	}
	if edit.DurationUnit != nil {
		m.DurationUnit = *edit.DurationUnit
	}
	if edit.Schedule != nil {
		m.Schedule = *edit.Schedule
	}
	if edit.Unit != nil {
		m.Unit = *edit.Unit
	}
	if edit.Price != nil {
		m.Price = edit.Price
	}
	if edit.Notes != nil {
		m.Notes = *edit.Notes
	}
	return nil
}

func (c *Composer) RemoveCustomMedication(index int) error {
	if index < 0 || index >= len(c.custom) {
		return ErrLineOutOfRange
	}
	c.custom = append(c.custom[:index], c.custom[index+1:]...)
	return nil
}

// Compose flattens the working state into the final regimen: the (possibly
// edited) protocol lines in order, then the custom medications in order,
// all normalized to the single line-item shape.
//
// Compose never fails. A custom line without a price is looked up in the
// medicine catalog by name; on any miss or lookup error the price stays 0
// so an unpriced medicine can never block a prescription. The returned
// items are values holding no references into the template or the
// catalog, so later edits to either cannot reach an already-submitted
// treatment.
func (c *Composer) Compose(ctx context.Context) []treatment.RegimenItem {
	items := make([]treatment.RegimenItem, 0, len(c.lines)+len(c.custom))

	for _, line := range c.lines {
		items = append(items, treatment.RegimenItem{
			MedicineName: line.MedicineName,
			Dosage:       line.Dosage,
			Frequency:    line.Schedule,
			DurationVal:  line.DurationVal,
			DurationUnit: line.DurationUnit,
			Unit:         line.Unit,
			Price:        line.UnitPrice,
			Notes:        line.Notes,
		})
	}

	for _, m := range c.custom {
		price := 0.0
		switch {
		case m.Price != nil:
			price = *m.Price
		case m.MedicineName != "":
			if med, err := c.medicines.FindByName(ctx, m.MedicineName); err == nil {
				price = med.Price
			}
		}

		items = append(items, treatment.RegimenItem{
			MedicineName: m.MedicineName,
			Dosage:       m.Dosage,
			Frequency:    m.Schedule,
			DurationVal:  m.DurationVal,
			DurationUnit: m.DurationUnit,
			Unit:         m.Unit,
			Price:        price,
			Notes:        m.Notes,
		})
	}

	return items
}
