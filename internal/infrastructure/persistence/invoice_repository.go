package persistence

import (
	"context"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/autoexport/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func preloadCharges(db *gorm.DB) *gorm.DB {
	return db.Preload("Charges", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Charges.ChargeType")
}

// FindByID finds an invoice with its charge lines
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := preloadCharges(r.db.WithContext(ctx)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByVehicle lists the invoices of a vehicle, oldest first
func (r *GormInvoiceRepository) FindByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]finance.Invoice, error) {
	var rows []models.InvoiceModel
	if err := preloadCharges(r.db.WithContext(ctx)).
		Where("vehicle_id = ?", vehicleID).
		Order("created_at ASC, invoice_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]finance.Invoice, 0, len(rows))
	for i := range rows {
		invoices = append(invoices, *rows[i].ToDomain())
	}
	return invoices, nil
}

// Create inserts the invoice and its charge lines
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *finance.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateNumberInsert(err, invoice.InvoiceNumber)
	}
	return nil
}

// Save updates the invoice and replaces its charge lines wholesale
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *finance.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	charges := model.Charges
	model.Charges = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
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

		if err := tx.Where("invoice_id = ?", invoice.ID).
			Delete(&models.InvoiceChargeModel{}).Error; err != nil {
			return err
		}
		if len(charges) == 0 {
			return nil
		}
		return tx.Omit("ChargeType").Create(&charges).Error
	})
}

// GormChargeTypeRepository implements ChargeTypeRepository using GORM
type GormChargeTypeRepository struct {
	db *gorm.DB
}

// NewGormChargeTypeRepository creates a new GormChargeTypeRepository
func NewGormChargeTypeRepository(db *gorm.DB) *GormChargeTypeRepository {
	return &GormChargeTypeRepository{db: db}
}

// FindByNormalizedName finds a charge type by its folded label
func (r *GormChargeTypeRepository) FindByNormalizedName(ctx context.Context, normalized string) (*finance.ChargeType, error) {
	var model models.ChargeTypeModel
	if err := r.db.WithContext(ctx).
		Where("normalized_name = ?", normalized).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// Create inserts a charge type
func (r *GormChargeTypeRepository) Create(ctx context.Context, chargeType *finance.ChargeType) error {
	if err := r.db.WithContext(ctx).Create(models.ChargeTypeModelFromDomain(chargeType)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

var (
	_ finance.InvoiceRepository    = (*GormInvoiceRepository)(nil)
	_ finance.ChargeTypeRepository = (*GormChargeTypeRepository)(nil)
)
