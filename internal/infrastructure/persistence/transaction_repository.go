package persistence

import (
	"context"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/autoexport/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// Create inserts a transaction
func (r *GormTransactionRepository) Create(ctx context.Context, transaction *finance.Transaction) error {
	return r.db.WithContext(ctx).Create(models.TransactionModelFromDomain(transaction)).Error
}

// Save updates every column of a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, transaction *finance.Transaction) error {
	model := models.TransactionModelFromDomain(transaction)
	result := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("id = ?", transaction.ID).
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

// Delete removes a transaction
func (r *GormTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumIncomingForInvoice adds up INCOMING transactions linked to an invoice
func (r *GormTransactionRepository) SumIncomingForInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	return r.sumIncoming(ctx, "invoice_id = ?", invoiceID)
}

// SumIncomingForVehicle adds up INCOMING transactions linked to a vehicle
func (r *GormTransactionRepository) SumIncomingForVehicle(ctx context.Context, vehicleID uuid.UUID) (decimal.Decimal, error) {
	return r.sumIncoming(ctx, "vehicle_id = ?", vehicleID)
}

func (r *GormTransactionRepository) sumIncoming(ctx context.Context, cond string, id uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where(cond, id).
		Where("direction = ?", finance.DirectionIncoming).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return finance.RoundMoney(result.Total), nil
}

var _ finance.TransactionRepository = (*GormTransactionRepository)(nil)
