package persistence

import (
	"context"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/autoexport/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSharedInvoiceRepository implements SharedInvoiceRepository using GORM
type GormSharedInvoiceRepository struct {
	db *gorm.DB
}

// NewGormSharedInvoiceRepository creates a new GormSharedInvoiceRepository
func NewGormSharedInvoiceRepository(db *gorm.DB) *GormSharedInvoiceRepository {
	return &GormSharedInvoiceRepository{db: db}
}

// FindByID finds a shared invoice with its allocation rows
func (r *GormSharedInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.SharedInvoice, error) {
	var model models.SharedInvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Vehicles", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// Create inserts the shared invoice and its allocation rows
func (r *GormSharedInvoiceRepository) Create(ctx context.Context, invoice *finance.SharedInvoice) error {
	model := models.SharedInvoiceModelFromDomain(invoice)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateNumberInsert(err, invoice.InvoiceNumber)
	}
	return nil
}

// Save updates the shared invoice and replaces its allocation rows wholesale
func (r *GormSharedInvoiceRepository) Save(ctx context.Context, invoice *finance.SharedInvoice) error {
	model := models.SharedInvoiceModelFromDomain(invoice)
	rows := model.Vehicles
	model.Vehicles = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SharedInvoiceModel{}).
			Omit(clause.Associations).
			Where("id = ?", invoice.ID).
			Select("*").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if err := tx.Where("shared_invoice_id = ?", invoice.ID).
			Delete(&models.SharedInvoiceVehicleModel{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// SumAllocationsForVehicle adds up the vehicle's allocation across every shared invoice
func (r *GormSharedInvoiceRepository) SumAllocationsForVehicle(ctx context.Context, vehicleID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.SharedInvoiceVehicleModel{}).
		Select("COALESCE(SUM(allocated_amount), 0) as total").
		Where("vehicle_id = ?", vehicleID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return finance.RoundMoney(result.Total), nil
}

// GormContainerInvoiceRepository implements ContainerInvoiceRepository using GORM
type GormContainerInvoiceRepository struct {
	db *gorm.DB
}

// NewGormContainerInvoiceRepository creates a new GormContainerInvoiceRepository
func NewGormContainerInvoiceRepository(db *gorm.DB) *GormContainerInvoiceRepository {
	return &GormContainerInvoiceRepository{db: db}
}

// FindByID finds a container invoice with its mirrored rows
func (r *GormContainerInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.ContainerInvoice, error) {
	var model models.ContainerInvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Vehicles").
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// Create inserts the container invoice and its mirrored rows
func (r *GormContainerInvoiceRepository) Create(ctx context.Context, invoice *finance.ContainerInvoice) error {
	model := models.ContainerInvoiceModelFromDomain(invoice)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateNumberInsert(err, invoice.InvoiceNumber)
	}
	return nil
}

var (
	_ finance.SharedInvoiceRepository    = (*GormSharedInvoiceRepository)(nil)
	_ finance.ContainerInvoiceRepository = (*GormContainerInvoiceRepository)(nil)
)
