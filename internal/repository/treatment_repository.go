package repository

import (
	"context"
	"errors"
	"time"

	"github.com/careops/clinicops/internal/domain/treatment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TreatmentRepository struct {
	db *gorm.DB
}

func NewTreatmentRepository(db *gorm.DB) *TreatmentRepository {
	return &TreatmentRepository{db: db}
}

func (r *TreatmentRepository) Create(ctx context.Context, t *treatment.PatientTreatment) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TreatmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*treatment.PatientTreatment, error) {
	var t treatment.PatientTreatment
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, treatment.ErrTreatmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TreatmentRepository) List(ctx context.Context, q *treatment.ListTreatmentsQuery) (*treatment.PagedTreatments, error) {
	tx := r.db.WithContext(ctx).
		Model(&treatment.PatientTreatment{}).
		Where("deleted_at IS NULL")

	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		tx = tx.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.ActiveOnly {
		tx = tx.Where("end_date IS NULL OR end_date >= ?", time.Now())
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var treatments []*treatment.PatientTreatment
	err := tx.Order("start_date DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&treatments).Error
	if err != nil {
		return nil, err
	}

	return &treatment.PagedTreatments{
		Treatments: treatments,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int((total + int64(q.PageSize) - 1) / int64(q.PageSize)),
	}, nil
}

func (r *TreatmentRepository) Update(ctx context.Context, id uuid.UUID, cmd *treatment.UpdateTreatmentCommand) (*treatment.PatientTreatment, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if cmd.EndDate != nil {
		updates["end_date"] = *cmd.EndDate
	}
	if cmd.Notes != nil {
		updates["notes"] = *cmd.Notes
	}
	if len(updates) == 0 {
		return t, nil
	}

	if err := r.db.WithContext(ctx).Model(t).Updates(updates).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TreatmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&treatment.PatientTreatment{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return treatment.ErrTreatmentNotFound
	}
	return nil
}
