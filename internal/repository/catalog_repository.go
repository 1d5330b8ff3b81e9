package repository

import (
	"context"
	"errors"

	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	var s catalog.Service
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServiceRepository) List(ctx context.Context, category *catalog.ServiceCategory) ([]*catalog.Service, error) {
	tx := r.db.WithContext(ctx).
		Where("deleted_at IS NULL AND is_active = true")
	if category != nil {
		tx = tx.Where("category = ?", *category)
	}

	var services []*catalog.Service
	if err := tx.Order("name ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

type MedicineRepository struct {
	db *gorm.DB
}

func NewMedicineRepository(db *gorm.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

func (r *MedicineRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	var m catalog.Medicine
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrMedicineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MedicineRepository) FindByName(ctx context.Context, name string) (*catalog.Medicine, error) {
	var m catalog.Medicine
	err := r.db.WithContext(ctx).
		Where("name = ? AND deleted_at IS NULL", name).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrMedicineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MedicineRepository) List(ctx context.Context) ([]*catalog.Medicine, error) {
	var medicines []*catalog.Medicine
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("name ASC").
		Find(&medicines).Error
	if err != nil {
		return nil, err
	}
	return medicines, nil
}

type ProtocolRepository struct {
	db *gorm.DB
}

func NewProtocolRepository(db *gorm.DB) *ProtocolRepository {
	return &ProtocolRepository{db: db}
}

func (r *ProtocolRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Protocol, error) {
	var p catalog.Protocol
	err := r.db.WithContext(ctx).
		Preload("Medications", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrProtocolNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProtocolRepository) List(ctx context.Context, targetCondition string) ([]*catalog.Protocol, error) {
	tx := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if targetCondition != "" {
		tx = tx.Where("target_condition = ?", targetCondition)
	}

	var protocols []*catalog.Protocol
	if err := tx.Order("name ASC").Find(&protocols).Error; err != nil {
		return nil, err
	}
	return protocols, nil
}
