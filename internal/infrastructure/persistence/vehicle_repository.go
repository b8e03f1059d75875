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

// GormVehicleShippingStageRepository implements VehicleShippingStageRepository using GORM
type GormVehicleShippingStageRepository struct {
	db *gorm.DB
}

// NewGormVehicleShippingStageRepository creates a new GormVehicleShippingStageRepository
func NewGormVehicleShippingStageRepository(db *gorm.DB) *GormVehicleShippingStageRepository {
	return &GormVehicleShippingStageRepository{db: db}
}

// FindByVehicleID finds the shipping stage row of a vehicle
func (r *GormVehicleShippingStageRepository) FindByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*finance.VehicleShippingStage, error) {
	var model models.VehicleShippingStageModel
	if err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// UpsertTotalReceived creates the row if absent, otherwise only total_received
// and updated_at change
func (r *GormVehicleShippingStageRepository) UpsertTotalReceived(ctx context.Context, stage *finance.VehicleShippingStage) error {
	model := &models.VehicleShippingStageModel{}
	model.FromDomain(stage)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vehicle_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_received", "updated_at"}),
	}).Create(model).Error
}

// GormVehicleStageCostRepository implements VehicleStageCostRepository using GORM
type GormVehicleStageCostRepository struct {
	db *gorm.DB
}

// NewGormVehicleStageCostRepository creates a new GormVehicleStageCostRepository
func NewGormVehicleStageCostRepository(db *gorm.DB) *GormVehicleStageCostRepository {
	return &GormVehicleStageCostRepository{db: db}
}

// FindByID finds a stage cost
func (r *GormVehicleStageCostRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.VehicleStageCost, error) {
	var model models.VehicleStageCostModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// Save updates every column of a stage cost
func (r *GormVehicleStageCostRepository) Save(ctx context.Context, cost *finance.VehicleStageCost) error {
	model := &models.VehicleStageCostModel{}
	model.FromDomain(cost)
	result := r.db.WithContext(ctx).
		Model(&models.VehicleStageCostModel{}).
		Where("id = ?", cost.ID).
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

// Create inserts a stage cost
func (r *GormVehicleStageCostRepository) Create(ctx context.Context, cost *finance.VehicleStageCost) error {
	model := &models.VehicleStageCostModel{}
	model.FromDomain(cost)
	return r.db.WithContext(ctx).Create(model).Error
}

var (
	_ finance.VehicleShippingStageRepository = (*GormVehicleShippingStageRepository)(nil)
	_ finance.VehicleStageCostRepository     = (*GormVehicleStageCostRepository)(nil)
)
