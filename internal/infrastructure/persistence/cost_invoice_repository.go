package persistence

import (
	"context"
	"fmt"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/autoexport/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCostInvoiceRepository implements CostInvoiceRepository using GORM
type GormCostInvoiceRepository struct {
	db *gorm.DB
}

// NewGormCostInvoiceRepository creates a new GormCostInvoiceRepository
func NewGormCostInvoiceRepository(db *gorm.DB) *GormCostInvoiceRepository {
	return &GormCostInvoiceRepository{db: db}
}

// FindByInvoiceID finds the cost invoice of an invoice with its items
func (r *GormCostInvoiceRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*finance.CostInvoice, error) {
	return r.findByInvoiceID(ctx, r.db.WithContext(ctx), invoiceID)
}

// FindByInvoiceIDForUpdate is FindByInvoiceID with a row lock on Postgres.
// The lock is held until the surrounding transaction ends.
func (r *GormCostInvoiceRepository) FindByInvoiceIDForUpdate(ctx context.Context, invoiceID uuid.UUID) (*finance.CostInvoice, error) {
	return r.findByInvoiceID(ctx, forUpdate(r.db.WithContext(ctx)), invoiceID)
}

func (r *GormCostInvoiceRepository) findByInvoiceID(ctx context.Context, query *gorm.DB, invoiceID uuid.UUID) (*finance.CostInvoice, error) {
	var model models.CostInvoiceModel
	if err := query.Where("invoice_id = ?", invoiceID).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	if err := r.db.WithContext(ctx).
		Where("cost_invoice_id = ?", model.ID).
		Order("created_at ASC").
		Find(&model.Items).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a cost invoice. A second cost invoice for the same invoice
// fails with ALREADY_EXISTS.
func (r *GormCostInvoiceRepository) Create(ctx context.Context, costInvoice *finance.CostInvoice) error {
	model := models.CostInvoiceModelFromDomain(costInvoice)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: cost invoice for invoice %s", shared.ErrAlreadyExists, costInvoice.InvoiceID)
		}
		return err
	}
	for i := range costInvoice.Items {
		if err := r.AddItem(ctx, &costInvoice.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

// SaveWithLock writes the derived fields. The caller increments Version
// first; the row is only written when the stored version is Version-1.
func (r *GormCostInvoiceRepository) SaveWithLock(ctx context.Context, costInvoice *finance.CostInvoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.CostInvoiceModel{}).
		Where("id = ? AND version = ?", costInvoice.ID, costInvoice.Version-1).
		Updates(map[string]interface{}{
			"total_revenue": costInvoice.TotalRevenue,
			"total_cost":    costInvoice.TotalCost,
			"profit":        costInvoice.Profit,
			"margin":        costInvoice.Margin,
			"roi":           costInvoice.ROI,
			"version":       costInvoice.Version,
			"updated_at":    costInvoice.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrOptimisticLock
	}
	return nil
}

// AddItem appends one cost item
func (r *GormCostInvoiceRepository) AddItem(ctx context.Context, item *finance.CostItem) error {
	return r.db.WithContext(ctx).Create(models.CostItemModelFromDomain(item)).Error
}

// FindItemByID finds a cost item
func (r *GormCostInvoiceRepository) FindItemByID(ctx context.Context, id uuid.UUID) (*finance.CostItem, error) {
	var model models.CostItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// SaveItem updates a cost item
func (r *GormCostInvoiceRepository) SaveItem(ctx context.Context, item *finance.CostItem) error {
	model := models.CostItemModelFromDomain(item)
	result := r.db.WithContext(ctx).
		Model(&models.CostItemModel{}).
		Where("id = ?", item.ID).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ finance.CostInvoiceRepository = (*GormCostInvoiceRepository)(nil)
