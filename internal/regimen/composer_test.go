package regimen

import (
	"context"
	"errors"
	"testing"

	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/careops/clinicops/internal/domain/treatment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMedicines struct {
	byName map[string]*catalog.Medicine
	err    error
}

func (f *fakeMedicines) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	return nil, catalog.ErrMedicineNotFound
}

func (f *fakeMedicines) FindByName(ctx context.Context, name string) (*catalog.Medicine, error) {
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.byName[name]; ok {
		return m, nil
	}
	return nil, catalog.ErrMedicineNotFound
}

func (f *fakeMedicines) List(ctx context.Context) ([]*catalog.Medicine, error) {
	return nil, nil
}

func testProtocol() *catalog.Protocol {
	return &catalog.Protocol{
		ID:   uuid.New(),
		Name: "Standard gastritis course",
		Medications: []catalog.ProtocolMedication{
			{
				MedicineName: "Medication A",
				Dosage:       "500mg",
				DurationVal:  14,
				DurationUnit: catalog.UnitDay,
				Schedule:     catalog.ScheduleMorning,
				Unit:         "tablet",
				UnitPrice:    2.50,
			},
			{
				MedicineName: "Medication B",
				Dosage:       "20mg",
				DurationVal:  30,
				DurationUnit: catalog.UnitDay,
				Schedule:     catalog.ScheduleDaily,
				Unit:         "capsule",
				UnitPrice:    1.10,
			},
		},
	}
}

func TestSelectClonesTemplate(t *testing.T) {
	c := NewComposer(&fakeMedicines{})
	proto := testProtocol()
	c.Select(proto)

	dosage := "250mg"
	require.NoError(t, c.EditLine(0, LineEdit{Dosage: &dosage}))
	require.NoError(t, c.RemoveLine(1))

	// The template is untouched by edits to the working copy.
	assert.Equal(t, "500mg", proto.Medications[0].Dosage)
	assert.Len(t, proto.Medications, 2)

	// Re-selecting starts from the pristine template again.
	c.Select(proto)
	assert.Len(t, c.Lines(), 2)
	assert.Equal(t, "500mg", c.Lines()[0].Dosage)
}

func TestSelectDiscardsCustomMedications(t *testing.T) {
	c := NewComposer(&fakeMedicines{})
	c.Select(testProtocol())
	c.AddCustomMedication()
	require.Len(t, c.CustomMedications(), 1)

	c.Select(testProtocol())
	assert.Empty(t, c.CustomMedications())
}

func TestEditLineGuards(t *testing.T) {
	c := NewComposer(&fakeMedicines{})

	dosage := "10mg"
	assert.ErrorIs(t, c.EditLine(0, LineEdit{Dosage: &dosage}), ErrNoProtocolSelected)
	assert.ErrorIs(t, c.RemoveLine(0), ErrNoProtocolSelected)

	c.Select(testProtocol())
	assert.ErrorIs(t, c.EditLine(5, LineEdit{Dosage: &dosage}), ErrLineOutOfRange)
	assert.ErrorIs(t, c.EditLine(-1, LineEdit{Dosage: &dosage}), ErrLineOutOfRange)
	assert.ErrorIs(t, c.RemoveLine(2), ErrLineOutOfRange)
}

func TestAddCustomMedicationDefaults(t *testing.T) {
	c := NewComposer(&fakeMedicines{})
	c.Select(testProtocol())

	idx := c.AddCustomMedication()
	require.Equal(t, 0, idx)

	m := c.CustomMedications()[0]
	assert.Equal(t, 30, m.DurationVal)
	assert.Equal(t, catalog.UnitDay, m.DurationUnit)
	assert.Equal(t, catalog.ScheduleDaily, m.Schedule)
	assert.Nil(t, m.Price)
}

func TestComposeRemoveAndAddCustom(t *testing.T) {
	c := NewComposer(&fakeMedicines{byName: map[string]*catalog.Medicine{}})
	c.Select(testProtocol())

	require.NoError(t, c.RemoveLine(1)) // drop Medication B

	idx := c.AddCustomMedication()
	name := "Medication C"
	price := 3.75
	require.NoError(t, c.EditCustomMedication(idx, CustomEdit{
		MedicineName: &name,
		Price:        &price,
	}))

	items := c.Compose(context.Background())

	require.Len(t, items, 2)
	assert.Equal(t, "Medication A", items[0].MedicineName)
	assert.Equal(t, "Medication C", items[1].MedicineName)
	assert.Equal(t, 3.75, items[1].Price)
	// Custom line kept its defaults where the doctor did not override.
	assert.Equal(t, 30, items[1].DurationVal)
	assert.Equal(t, catalog.UnitDay, items[1].DurationUnit)
	assert.Equal(t, catalog.ScheduleDaily, items[1].Frequency)
}

func TestComposePriceFromCatalog(t *testing.T) {
	c := NewComposer(&fakeMedicines{byName: map[string]*catalog.Medicine{
		"Amoxicillin": {Name: "Amoxicillin", Price: 4.20},
	}})
	c.Select(testProtocol())

	idx := c.AddCustomMedication()
	name := "Amoxicillin"
	require.NoError(t, c.EditCustomMedication(idx, CustomEdit{MedicineName: &name}))

	items := c.Compose(context.Background())
	assert.Equal(t, 4.20, items[len(items)-1].Price)
}

func TestComposeNeverFails(t *testing.T) {
	// Catalog lookup errors and unknown names both degrade to price 0.
	c := NewComposer(&fakeMedicines{err: errors.New("catalog down")})
	c.Select(testProtocol())

	idx := c.AddCustomMedication()
	name := "Unknown Tincture"
	require.NoError(t, c.EditCustomMedication(idx, CustomEdit{MedicineName: &name}))

	items := c.Compose(context.Background())
	require.Len(t, items, 3)
	assert.Equal(t, 0.0, items[2].Price)
}

func TestComposeSnapshotIndependence(t *testing.T) {
	c := NewComposer(&fakeMedicines{})
	proto := testProtocol()
	c.Select(proto)

	items := c.Compose(context.Background())
	require.Len(t, items, 2)

	// Mutating the composer or the template after Compose does not reach
	// the returned snapshot.
	dosage := "999mg"
	require.NoError(t, c.EditLine(0, LineEdit{Dosage: &dosage}))
	proto.Medications[1].Dosage = "changed"

	assert.Equal(t, "500mg", items[0].Dosage)
	assert.Equal(t, "20mg", items[1].Dosage)
}

func TestComposeOrderProtocolThenCustom(t *testing.T) {
	c := NewComposer(&fakeMedicines{})
	c.Select(testProtocol())

	first := c.AddCustomMedication()
	second := c.AddCustomMedication()
	n1, n2 := "Custom One", "Custom Two"
	require.NoError(t, c.EditCustomMedication(first, CustomEdit{MedicineName: &n1}))
	require.NoError(t, c.EditCustomMedication(second, CustomEdit{MedicineName: &n2}))

	items := c.Compose(context.Background())
	require.Len(t, items, 4)

	got := make([]string, 0, len(items))
	for _, it := range items {
		got = append(got, it.MedicineName)
	}
	assert.Equal(t, []string{"Medication A", "Medication B", "Custom One", "Custom Two"}, got)
}

func TestComposeEmptyAfterRemovingEverything(t *testing.T) {
	c := NewComposer(&fakeMedicines{})
	c.Select(testProtocol())

	require.NoError(t, c.RemoveLine(1))
	require.NoError(t, c.RemoveLine(0))

	items := c.Compose(context.Background())
	assert.Empty(t, items)
	assert.IsType(t, []treatment.RegimenItem{}, items)
}
