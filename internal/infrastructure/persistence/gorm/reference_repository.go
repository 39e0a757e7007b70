// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilab/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutrilab/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferenceRepository reads and seeds the nutrient reference data using GORM
type ReferenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository creates a new reference repository
func NewReferenceRepository(db *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

var (
	_ outbound.ReferenceRepository = (*ReferenceRepository)(nil)
	_ outbound.ReferenceWriter     = (*ReferenceRepository)(nil)
)

// LoadIngredients returns every ingredient profile in catalog order
func (r *ReferenceRepository) LoadIngredients(ctx context.Context) ([]nutrition.IngredientProfile, error) {
	var models []IngredientModel
	if err := r.db.WithContext(ctx).Order("position, id").Find(&models).Error; err != nil {
		return nil, apperrors.NewDatabaseError("load ingredients", err)
	}

	profiles := make([]nutrition.IngredientProfile, len(models))
	for i := range models {
		profiles[i] = ModelToIngredient(&models[i])
	}
	return profiles, nil
}

// LoadPresets returns the preset recipes in display order
func (r *ReferenceRepository) LoadPresets(ctx context.Context) ([]nutrition.Preset, error) {
	var models []PresetModel
	if err := r.db.WithContext(ctx).Order("position, id").Find(&models).Error; err != nil {
		return nil, apperrors.NewDatabaseError("load presets", err)
	}

	presets := make([]nutrition.Preset, len(models))
	for i := range models {
		presets[i] = ModelToPreset(&models[i])
	}
	return presets, nil
}

// SaveIngredients upserts profiles, recording their order
func (r *ReferenceRepository) SaveIngredients(ctx context.Context, profiles []nutrition.IngredientProfile) error {
	if len(profiles) == 0 {
		return nil
	}
	models := make([]*IngredientModel, len(profiles))
	for i, p := range profiles {
		models[i] = IngredientToModel(p, i)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(models).Error
	})
	if err != nil {
		return apperrors.NewDatabaseError("save ingredients", err)
	}
	return nil
}

// SavePresets upserts presets, recording their order
func (r *ReferenceRepository) SavePresets(ctx context.Context, presets []nutrition.Preset) error {
	if len(presets) == 0 {
		return nil
	}
	models := make([]*PresetModel, len(presets))
	for i, p := range presets {
		models[i] = PresetToModel(p, i)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(models).Error
	})
	if err != nil {
		return apperrors.NewDatabaseError("save presets", err)
	}
	return nil
}

// Count returns the number of stored ingredients
func (r *ReferenceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&IngredientModel{}).Count(&count).Error; err != nil {
		return 0, apperrors.NewDatabaseError("count ingredients", err)
	}
	return count, nil
}
